//go:build integration

package accountrepo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/integrationtest"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	_ "github.com/lib/pq"
)

var (
	dbDriver string
	dbSource string
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	dbDriver = config.DBDriver
	dbSource = config.DBSource

	os.Exit(m.Run())
}

func TestCreate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		owner   func(t *testing.T, tx dbpkg.SQLInterface) string
		wantErr error
	}{
		{
			name: "ErrOwnerNotFound",
			owner: func(t *testing.T, tx dbpkg.SQLInterface) string {
				return randompkg.Owner()
			},
			wantErr: domain.ErrOwnerNotFound,
		},
		{
			name: "ErrAccountAlreadyExists",
			owner: func(t *testing.T, tx dbpkg.SQLInterface) string {
				return integrationtest.SeedUser(t, tx).Username
			},
			wantErr: domain.ErrAccountAlreadyExists,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tx := integrationtest.SetupTX(t, dbDriver, dbSource)
			repo := accountrepo.NewRepoPGS(tx)

			got, err := repo.Create(context.Background(), tc.owner(t, tx))
			require.ErrorIs(t, err, tc.wantErr)
			require.Empty(t, got)
		})
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := accountrepo.NewRepoPGS(tx)
	ctx := context.Background()

	user := integrationtest.SeedUser(t, tx)

	byOwner, err := repo.GetByOwner(ctx, user.Username)
	require.NoError(t, err)
	require.Equal(t, user.AccountID, byOwner.ID)
	require.Equal(t, user.Username, byOwner.Owner)
	require.True(t, byOwner.Balance.IsZero())

	byID, err := repo.Get(ctx, user.AccountID)
	require.NoError(t, err)
	require.Equal(t, byOwner, byID)

	_, err = repo.Get(ctx, user.AccountID+1_000_000)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = repo.GetByOwner(ctx, randompkg.Owner())
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAdjustBalance(t *testing.T) {
	t.Parallel()

	t.Run("OK", func(t *testing.T) {
		t.Parallel()

		tx := integrationtest.SetupTX(t, dbDriver, dbSource)
		repo := accountrepo.NewRepoPGS(tx)
		ctx := context.Background()

		user := integrationtest.SeedUser(t, tx)

		locked, err := repo.Lock(ctx, user.AccountID)
		require.NoError(t, err)
		require.Equal(t, user.AccountID, locked.ID)

		got, err := repo.AdjustBalance(ctx, user.AccountID, decimal.RequireFromString("120.25"))
		require.NoError(t, err)
		require.True(t, decimal.RequireFromString("120.25").Equal(got.Balance))

		got, err = repo.AdjustBalance(ctx, user.AccountID, decimal.RequireFromString("-20.25"))
		require.NoError(t, err)
		require.True(t, decimal.NewFromInt(100).Equal(got.Balance))
	})

	t.Run("ErrInsufficientFunds", func(t *testing.T) {
		t.Parallel()

		tx := integrationtest.SetupTX(t, dbDriver, dbSource)
		repo := accountrepo.NewRepoPGS(tx)

		user := integrationtest.SeedUser(t, tx)

		_, err := repo.AdjustBalance(context.Background(), user.AccountID, decimal.NewFromInt(-1))
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})

	t.Run("ErrBalanceLimitExceeded", func(t *testing.T) {
		t.Parallel()

		tx := integrationtest.SetupTX(t, dbDriver, dbSource)
		repo := accountrepo.NewRepoPGS(tx)

		user := integrationtest.SeedUser(t, tx)

		_, err := repo.AdjustBalance(context.Background(), user.AccountID, decimal.RequireFromString("1e17"))
		require.ErrorIs(t, err, domain.ErrBalanceLimitExceeded)
	})
}

func TestRecomputeBalance(t *testing.T) {
	t.Parallel()

	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := accountrepo.NewRepoPGS(tx)
	ctx := context.Background()

	user := integrationtest.SeedUser(t, tx)
	other := integrationtest.SeedUser(t, tx)

	integrationtest.SeedFunds(t, tx, user.AccountID, "500")
	integrationtest.SeedFunds(t, tx, other.AccountID, "50")

	// Pending movements carry no effect.
	integrationtest.SeedMovement(t, tx, user.AccountID, domain.KindWithdraw, "70")

	got, err := repo.RecomputeBalance(ctx, user.AccountID)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(500).Equal(got), "got %s", got)

	stored, err := repo.Get(ctx, user.AccountID)
	require.NoError(t, err)
	require.True(t, stored.Balance.Equal(got))
}
