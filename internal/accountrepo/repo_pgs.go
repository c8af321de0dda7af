// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

func scan(row *sql.Row) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Owner,
		&a.Balance,
		&a.CreatedAt,
	)

	return a, err
}

// translate maps driver errors shared by all account queries.
func translate(err error) error {
	switch {
	case err == sql.ErrNoRows:
		return domain.ErrAccountNotFound
	case dbpkg.IsConflict(err):
		return domain.ErrConcurrencyConflict
	case dbpkg.IsNumericOverflow(err):
		return domain.ErrBalanceLimitExceeded
	}

	switch dbpkg.Constraint(err) {
	case "accounts_owner_fkey":
		return domain.ErrOwnerNotFound
	case "accounts_owner_key":
		return domain.ErrAccountAlreadyExists
	case "accounts_balance_check":
		return domain.ErrInsufficientFunds
	}

	return errorspkg.ErrInternal
}

const createQuery = `
INSERT INTO
    accounts (owner)
VALUES
    ($1)
RETURNING id, owner, balance, created_at
`

// Create creates a zero balance account for the owner and then returns it.
func (r *RepoPGS) Create(ctx context.Context, owner string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scan(r.db.QueryRowContext(ctx, createQuery, owner))
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Account{}, translate(err)
	}

	return a, nil
}

const getQuery = `
SELECT
	id, owner, balance, created_at
FROM accounts
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scan(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if err != sql.ErrNoRows {
			l.Error().Err(err).Send()
		}

		return domain.Account{}, translate(err)
	}

	return a, nil
}

const getByOwnerQuery = `
SELECT
	id, owner, balance, created_at
FROM accounts
WHERE owner = $1
`

// GetByOwner returns the account of the given user.
func (r *RepoPGS) GetByOwner(ctx context.Context, owner string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scan(r.db.QueryRowContext(ctx, getByOwnerQuery, owner))
	if err != nil {
		if err != sql.ErrNoRows {
			l.Error().Err(err).Send()
		}

		return domain.Account{}, translate(err)
	}

	return a, nil
}

const lockQuery = `
SELECT
	id, owner, balance, created_at
FROM accounts
WHERE id = $1
FOR UPDATE
`

// Lock takes the row lock of the account for the rest of the transaction and returns it.
func (r *RepoPGS) Lock(ctx context.Context, id int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scan(r.db.QueryRowContext(ctx, lockQuery, id))
	if err != nil {
		if err != sql.ErrNoRows {
			l.Error().Err(err).Int64("account_id", id).Send()
		}

		return domain.Account{}, translate(err)
	}

	return a, nil
}

const adjustBalanceQuery = `
UPDATE accounts
SET balance = balance + $1
WHERE id = $2
RETURNING id, owner, balance, created_at
`

// AdjustBalance adds the signed delta to the account's balance and returns the changed account.
//
// Must be called inside a transaction that holds the account lock.
func (r *RepoPGS) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scan(r.db.QueryRowContext(ctx, adjustBalanceQuery, delta, id))
	if err != nil {
		domainErr := translate(err)
		if domainErr == errorspkg.ErrInternal {
			l.Error().Err(err).Int64("account_id", id).Send()
		}

		return domain.Account{}, domainErr
	}

	return a, nil
}

const recomputeBalanceQuery = `
SELECT
	COALESCE(SUM(
		CASE
			WHEN kind = 'Deposit' THEN amount
			WHEN kind = 'Withdraw' THEN -amount
			WHEN kind = 'Transfer' AND account_id = $1 THEN -amount
			ELSE amount
		END
	), 0)
FROM movements
WHERE state = 'Approved'
	AND (account_id = $1 OR counterparty_account_id = $1)
`

// RecomputeBalance returns the sum of signed effects of the approved movements of the account.
func (r *RepoPGS) RecomputeBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	l := zerolog.Ctx(ctx)

	var sum decimal.Decimal

	if err := r.db.QueryRowContext(ctx, recomputeBalanceQuery, id).Scan(&sum); err != nil {
		l.Error().Err(err).Send()
		return decimal.Zero, errorspkg.ErrInternal
	}

	return sum, nil
}
