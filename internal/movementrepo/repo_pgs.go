// Package movementrepo manages repository layer of movements.
package movementrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS facilitates movement repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns movement RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// Columns lists movement columns in the order Scan expects them.
const Columns = `id, account_id, counterparty_account_id, amount, kind, state,
	rejection_reason, decided_by, decided_at, created_at`

type scanner interface {
	Scan(dest ...any) error
}

// Scan reads one movement row selected with Columns.
func Scan(row scanner) (domain.Movement, error) {
	var (
		m            domain.Movement
		counterparty sql.NullInt64
		reason       sql.NullString
		decidedBy    sql.NullString
		decidedAt    sql.NullTime
	)

	err := row.Scan(
		&m.ID,
		&m.AccountID,
		&counterparty,
		&m.Amount,
		&m.Kind,
		&m.State,
		&reason,
		&decidedBy,
		&decidedAt,
		&m.CreatedAt,
	)
	if err != nil {
		return domain.Movement{}, err
	}

	if counterparty.Valid {
		m.CounterpartyAccountID = &counterparty.Int64
	}

	if reason.Valid {
		m.RejectionReason = &reason.String
	}

	if decidedBy.Valid {
		m.DecidedBy = &decidedBy.String
	}

	if decidedAt.Valid {
		m.DecidedAt = &decidedAt.Time
	}

	return m, nil
}

// ScanRows reads all movement rows and closes them.
func ScanRows(ctx context.Context, rows *sql.Rows) ([]domain.Movement, error) {
	l := zerolog.Ctx(ctx)

	defer rows.Close()

	items := []domain.Movement{}

	for rows.Next() {
		m, err := Scan(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, m)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const createQuery = `
INSERT INTO
    movements (account_id, counterparty_account_id, amount, kind, state)
VALUES
    ($1, $2, $3, $4, $5)
RETURNING ` + Columns

// Create creates the movement and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateMovementParams) (domain.Movement, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.AccountID,
		arg.CounterpartyAccountID,
		arg.Amount,
		arg.Kind,
		arg.State,
	)

	m, err := Scan(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx context.Context, %+v)", arg)

		if dbpkg.IsConflict(err) {
			return m, domain.ErrConcurrencyConflict
		}

		switch dbpkg.Constraint(err) {
		case "movements_account_id_fkey":
			return m, domain.ErrAccountNotFound
		case "movements_counterparty_account_id_fkey":
			return m, domain.ErrRecipientNotFound
		case "movements_amount_check":
			return m, domain.ErrInvalidAmount
		case "movements_self_transfer_check":
			return m, domain.ErrSelfTransfer
		}

		return m, errorspkg.ErrInternal
	}

	return m, nil
}

const getQuery = `
SELECT ` + Columns + `
FROM movements
WHERE id = $1
`

// Get returns the movement with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Movement, error) {
	l := zerolog.Ctx(ctx)

	m, err := Scan(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return m, domain.ErrMovementNotFound
		}

		l.Error().Err(err).Send()

		return m, errorspkg.ErrInternal
	}

	return m, nil
}

const lockQuery = getQuery + "FOR UPDATE\n"

// Lock returns the movement holding its row lock for the rest of the transaction.
func (r *RepoPGS) Lock(ctx context.Context, id int64) (domain.Movement, error) {
	l := zerolog.Ctx(ctx)

	m, err := Scan(r.db.QueryRowContext(ctx, lockQuery, id))
	if err != nil {
		switch {
		case err == sql.ErrNoRows:
			return m, domain.ErrMovementNotFound
		case dbpkg.IsConflict(err):
			return m, domain.ErrConcurrencyConflict
		}

		l.Error().Err(err).Send()

		return m, errorspkg.ErrInternal
	}

	return m, nil
}

const finalizeQuery = `
UPDATE movements
SET state = $2, rejection_reason = $3, decided_by = $4, decided_at = $5
WHERE id = $1 AND state = 'Pending'
RETURNING ` + Columns

// Finalize moves a pending movement to the given terminal state.
//
// A movement that already left Pending is never touched again and yields domain.ErrNotPending.
func (r *RepoPGS) Finalize(ctx context.Context, arg domain.FinalizeMovementParams) (domain.Movement, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, finalizeQuery,
		arg.ID,
		arg.State,
		arg.RejectionReason,
		arg.DecidedBy,
		arg.DecidedAt,
	)

	m, err := Scan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return m, domain.ErrNotPending
		}

		l.Error().Err(err).Msgf("Finalize(ctx context.Context, %+v)", arg)

		switch dbpkg.Constraint(err) {
		case "movements_reason_check":
			return m, domain.ErrMissingReason
		case "movements_state_check":
			return m, domain.ErrInvalidDecision
		}

		return m, errorspkg.ErrInternal
	}

	return m, nil
}

const sumWithdrawalsQuery = `
SELECT COALESCE(SUM(amount), 0)
FROM movements
WHERE account_id = $1
	AND kind = 'Withdraw'
	AND state IN ('Pending', 'Approved')
	AND created_at >= $2 AND created_at < $3
`

// SumWithdrawals returns the total of pending and approved withdrawals of the account within the window.
func (r *RepoPGS) SumWithdrawals(ctx context.Context, accountID int64, w domain.Window) (decimal.Decimal, error) {
	l := zerolog.Ctx(ctx)

	var sum decimal.Decimal

	err := r.db.QueryRowContext(ctx, sumWithdrawalsQuery, accountID, w.Start, w.End).Scan(&sum)
	if err != nil {
		l.Error().Err(err).Send()
		return decimal.Zero, errorspkg.ErrInternal
	}

	return sum, nil
}

const listPendingQuery = `
SELECT ` + Columns + `
FROM movements
WHERE state = 'Pending'
ORDER BY created_at, id
LIMIT $1 OFFSET $2
`

// ListPending returns the approval queue, oldest first.
func (r *RepoPGS) ListPending(ctx context.Context, limit, offset int32) ([]domain.Movement, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listPendingQuery, limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return ScanRows(ctx, rows)
}
