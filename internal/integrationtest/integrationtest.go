// Package integrationtest provides db helpers used in integration tests.
package integrationtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/rs/zerolog"
)

// ConfigPath is the location of app.env relative to a package directory.
const ConfigPath = "../../configs"

// ledgerTables lists every table written by the app, children first.
// schema_migrations is left alone so the migrated version survives a flush.
const ledgerTables = "notifications, movements, sessions, accounts, users"

// LoadConfig loads the app config used by integration tests.
func LoadConfig(t *testing.T) configpkg.Config {
	t.Helper()

	config, err := configpkg.Load(ConfigPath)
	if err != nil {
		t.Fatalf(`configpkg.Load(%q) returned error: %v`, ConfigPath, err)
	}

	return config
}

// SetupServer returns a ledger server backed by a database that is flushed after the test.
// The notification dispatcher is stopped on cleanup.
func SetupServer(t *testing.T) *httpserver.Server {
	t.Helper()

	config := LoadConfig(t)

	zerolog.SetGlobalLevel(zerolog.FatalLevel)
	gin.SetMode(gin.ReleaseMode)

	db := SetupDB(t, config.DBDriver, config.DBSource)

	server, err := httpserver.New(db, middleware.CreateLogger(config), config)
	if err != nil {
		t.Fatalf(`httpserver.New(db, logger, config) returned error: %v`, err)
	}

	return server
}

// Flush empties the ledger tables and restarts their id sequences.
func Flush(t *testing.T, db *sql.DB) {
	t.Helper()

	if _, err := db.Exec("TRUNCATE TABLE " + ledgerTables + " RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("ledger flush failed: %v", err)
	}
}

// SetupDB opens a database connection that flushes the ledger and closes after the test.
func SetupDB(t *testing.T, driver, source string) *sql.DB {
	t.Helper()

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Fatalf("dbpkg.Setup(%q) returned error: %v", driver, err)
	}

	t.Cleanup(func() {
		Flush(t, db)

		if err := db.Close(); err != nil {
			t.Errorf("db.Close() returned error: %v", err)
		}
	})

	return db
}

// SetupTX opens a transaction that is rolled back after the test,
// so seeded users, accounts and movements never leak between tests.
func SetupTX(t *testing.T, driver, source string) *sql.Tx {
	t.Helper()

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Fatalf("dbpkg.Setup(%q) returned error: %v", driver, err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("db.Begin() returned error: %v", err)
	}

	t.Cleanup(func() {
		if err := tx.Rollback(); err != nil {
			t.Errorf("tx.Rollback() returned error: %v", err)
		}

		if err := db.Close(); err != nil {
			t.Errorf("db.Close() returned error: %v", err)
		}
	})

	return tx
}

// RequireConsistent fails the test unless the stored balance of every account
// equals the sum of its approved movements and is not negative.
func RequireConsistent(t *testing.T, db dbpkg.SQLInterface, accountIDs ...int64) []domain.Account {
	t.Helper()

	ctx := context.Background()
	repo := accountrepo.NewRepoPGS(db)
	accounts := make([]domain.Account, 0, len(accountIDs))

	for _, id := range accountIDs {
		acc, err := repo.Get(ctx, id)
		if err != nil {
			t.Fatalf("accountRepo.Get(ctx, %d) returned error: %v", id, err)
		}

		recomputed, err := repo.RecomputeBalance(ctx, id)
		if err != nil {
			t.Fatalf("accountRepo.RecomputeBalance(ctx, %d) returned error: %v", id, err)
		}

		if !acc.Balance.Equal(recomputed) {
			t.Fatalf("account %d balance = %s, approved movements sum to %s", id, acc.Balance, recomputed)
		}

		if acc.Balance.IsNegative() {
			t.Fatalf("account %d balance = %s, want non-negative", id, acc.Balance)
		}

		accounts = append(accounts, acc)
	}

	return accounts
}
