package integrationtest

import (
	"context"
	"testing"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/movementrepo"
	"github.com/go-petr/pet-ledger/internal/userrepo"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/passpkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/shopspring/decimal"
)

// SeedUser creates random regular User and its empty account.
func SeedUser(t *testing.T, db dbpkg.SQLInterface) domain.User {
	t.Helper()

	return seedUser(t, db, domain.RoleUser)
}

// SeedAdmin creates random admin User and its empty account.
func SeedAdmin(t *testing.T, db dbpkg.SQLInterface) domain.User {
	t.Helper()

	return seedUser(t, db, domain.RoleAdmin)
}

func seedUser(t *testing.T, db dbpkg.SQLInterface, role domain.Role) domain.User {
	t.Helper()

	hashedPassword, err := passpkg.Hash(randompkg.String(32))
	if err != nil {
		t.Fatalf("passpkg.Hash(randompkg.String(32)) returned error: %v", err)
	}

	arg := domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.String(10),
		Email:          randompkg.Email(),
		Role:           role,
	}

	user, err := userrepo.NewRepoPGS(db).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("userRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return user
}

// SeedFunds credits the account with an approved deposit of amount.
func SeedFunds(t *testing.T, db dbpkg.SQLInterface, accountID int64, amount string) domain.Account {
	t.Helper()

	ctx := context.Background()
	amt := decimal.RequireFromString(amount)

	_, err := movementrepo.NewRepoPGS(db).Create(ctx, domain.CreateMovementParams{
		AccountID: accountID,
		Amount:    amt,
		Kind:      domain.KindDeposit,
		State:     domain.StateApproved,
	})
	if err != nil {
		t.Fatalf("movementRepo.Create(ctx, %v deposit of %v) returned error: %v", accountID, amount, err)
	}

	account, err := accountrepo.NewRepoPGS(db).AdjustBalance(ctx, accountID, amt)
	if err != nil {
		t.Fatalf("accountRepo.AdjustBalance(ctx, %v, %v) returned error: %v", accountID, amount, err)
	}

	return account
}

// SeedMovement creates a pending movement of the given kind.
func SeedMovement(t *testing.T, db dbpkg.SQLInterface, accountID int64, kind domain.MovementKind, amount string,
) domain.Movement {
	t.Helper()

	arg := domain.CreateMovementParams{
		AccountID: accountID,
		Amount:    decimal.RequireFromString(amount),
		Kind:      kind,
		State:     domain.StatePending,
	}

	m, err := movementrepo.NewRepoPGS(db).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("movementRepo.Create(ctx, %+v) returned error: %v", arg, err)
	}

	return m
}

// SeedTransfer records an approved transfer and moves the funds between the accounts.
func SeedTransfer(t *testing.T, db dbpkg.SQLInterface, from, to int64, amount string) domain.Movement {
	t.Helper()

	ctx := context.Background()
	amt := decimal.RequireFromString(amount)

	m, err := movementrepo.NewRepoPGS(db).Create(ctx, domain.CreateMovementParams{
		AccountID:             from,
		CounterpartyAccountID: &to,
		Amount:                amt,
		Kind:                  domain.KindTransfer,
		State:                 domain.StateApproved,
	})
	if err != nil {
		t.Fatalf("movementRepo.Create(ctx, transfer of %v from %v to %v) returned error: %v", amount, from, to, err)
	}

	accounts := accountrepo.NewRepoPGS(db)

	if _, err := accounts.AdjustBalance(ctx, from, amt.Neg()); err != nil {
		t.Fatalf("accountRepo.AdjustBalance(ctx, %v, -%v) returned error: %v", from, amount, err)
	}

	if _, err := accounts.AdjustBalance(ctx, to, amt); err != nil {
		t.Fatalf("accountRepo.AdjustBalance(ctx, %v, %v) returned error: %v", to, amount, err)
	}

	return m
}
