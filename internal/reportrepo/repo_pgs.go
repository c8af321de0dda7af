// Package reportrepo manages read-only reporting queries over movements.
package reportrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/movementrepo"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates report repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns report RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// historyQuery builds the history statement. Only the validated MovementOrder
// values reach the ORDER BY clause, everything else is a bind parameter.
// A zero Limit returns every matching movement.
func historyQuery(f domain.MovementFilter) (string, []any) {
	var (
		sb   strings.Builder
		args = []any{f.AccountID}
	)

	sb.WriteString("SELECT " + movementrepo.Columns + "\nFROM movements\n")
	sb.WriteString("WHERE (account_id = $1 OR counterparty_account_id = $1)\n")

	if f.Kind != nil {
		args = append(args, *f.Kind)
		fmt.Fprintf(&sb, "\tAND kind = $%d\n", len(args))
	}

	if f.From != nil {
		args = append(args, *f.From)
		fmt.Fprintf(&sb, "\tAND created_at >= $%d\n", len(args))
	}

	if f.To != nil {
		args = append(args, *f.To)
		fmt.Fprintf(&sb, "\tAND created_at < $%d\n", len(args))
	}

	column := domain.OrderByCreatedAt
	if f.OrderBy == domain.OrderByAmount {
		column = domain.OrderByAmount
	}

	direction := "ASC"
	if f.Desc {
		direction = "DESC"
	}

	fmt.Fprintf(&sb, "ORDER BY %s %s, id %s\n", column, direction, direction)

	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		fmt.Fprintf(&sb, "LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	return sb.String(), args
}

// History returns the movements of the account matching the filter.
func (r *RepoPGS) History(ctx context.Context, f domain.MovementFilter) ([]domain.Movement, error) {
	l := zerolog.Ctx(ctx)

	query, args := historyQuery(f)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return movementrepo.ScanRows(ctx, rows)
}

const summaryQuery = `
SELECT
	COALESCE(SUM(amount) FILTER (WHERE kind = 'Deposit'), 0),
	COALESCE(SUM(amount) FILTER (WHERE kind = 'Withdraw'), 0),
	COALESCE(SUM(amount) FILTER (WHERE kind = 'Transfer' AND counterparty_account_id = $1), 0),
	COALESCE(SUM(amount) FILTER (WHERE kind = 'Transfer' AND account_id = $1), 0),
	COUNT(*)
FROM movements
WHERE (account_id = $1 OR counterparty_account_id = $1)
	AND created_at >= $2 AND created_at < $3
`

// Summary aggregates the movements of the account within the window by kind.
func (r *RepoPGS) Summary(ctx context.Context, accountID int64, w domain.Window) (domain.MonthlySummary, error) {
	l := zerolog.Ctx(ctx)

	var s domain.MonthlySummary

	err := r.db.QueryRowContext(ctx, summaryQuery, accountID, w.Start, w.End).Scan(
		&s.TotalDeposits,
		&s.TotalWithdrawals,
		&s.TotalTransfersIn,
		&s.TotalTransfersOut,
		&s.TransactionCount,
	)
	if err != nil {
		l.Error().Err(err).Send()
		return s, errorspkg.ErrInternal
	}

	s.TotalTransfers = s.TotalTransfersIn.Add(s.TotalTransfersOut)

	return s, nil
}

// Statement reads the summary and every movement of the window from one
// read-only repeatable read snapshot, so the list always matches the totals.
// When the repo already runs inside a transaction it reuses it.
func (r *RepoPGS) Statement(ctx context.Context, accountID int64, w domain.Window,
) (domain.MonthlySummary, []domain.Movement, error) {
	l := zerolog.Ctx(ctx)

	beginner, ok := r.db.(dbpkg.TxBeginner)
	if !ok {
		return r.statement(ctx, accountID, w)
	}

	tx, err := beginner.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		l.Error().Err(err).Send()
		return domain.MonthlySummary{}, nil, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	summary, movements, err := NewRepoPGS(tx).statement(ctx, accountID, w)
	if err != nil {
		return domain.MonthlySummary{}, nil, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.MonthlySummary{}, nil, errorspkg.ErrInternal
	}

	return summary, movements, nil
}

func (r *RepoPGS) statement(ctx context.Context, accountID int64, w domain.Window,
) (domain.MonthlySummary, []domain.Movement, error) {
	summary, err := r.Summary(ctx, accountID, w)
	if err != nil {
		return domain.MonthlySummary{}, nil, err
	}

	movements, err := r.History(ctx, domain.MovementFilter{
		AccountID: accountID,
		From:      &w.Start,
		To:        &w.End,
		OrderBy:   domain.OrderByCreatedAt,
	})
	if err != nil {
		return domain.MonthlySummary{}, nil, err
	}

	return summary, movements, nil
}
