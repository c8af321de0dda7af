// Package ledgerrepo provides atomic units of work over accounts, movements and notifications.
package ledgerrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/internal/movementrepo"
	"github.com/go-petr/pet-ledger/internal/notificationrepo"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS runs atomic units as Postgres transactions.
type RepoPGS struct {
	conn        *sql.DB
	lockTimeout time.Duration
}

// NewRepoPGS returns ledger RepoPGS. A positive lockTimeout bounds the wait for each row lock.
func NewRepoPGS(conn *sql.DB, lockTimeout time.Duration) *RepoPGS {
	return &RepoPGS{
		conn:        conn,
		lockTimeout: lockTimeout,
	}
}

// GetAccountByOwner returns the account of the given user outside of any unit.
func (r *RepoPGS) GetAccountByOwner(ctx context.Context, owner string) (domain.Account, error) {
	return accountrepo.NewRepoPGS(r.conn).GetByOwner(ctx, owner)
}

// GetMovement returns the movement outside of any unit.
func (r *RepoPGS) GetMovement(ctx context.Context, id int64) (domain.Movement, error) {
	return movementrepo.NewRepoPGS(r.conn).Get(ctx, id)
}

// ListPending returns the approval queue, oldest first.
func (r *RepoPGS) ListPending(ctx context.Context, limit, offset int32) ([]domain.Movement, error) {
	return movementrepo.NewRepoPGS(r.conn).ListPending(ctx, limit, offset)
}

// WithinTx locks the accounts in ascending id order with SELECT ... FOR UPDATE,
// runs fn and commits. Lock waits longer than the lock timeout, deadlocks and
// serialization failures are reported as domain.ErrConcurrencyConflict.
func (r *RepoPGS) WithinTx(ctx context.Context, lockIDs []int64, fn ledgerservice.UnitFunc) error {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	if r.lockTimeout > 0 {
		// SET does not take bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			l.Error().Err(err).Send()
			return errorspkg.ErrInternal
		}
	}

	ids := LockOrder(lockIDs)

	u := &pgsUnit{
		locks:         newLockSet(ids),
		accounts:      accountrepo.NewRepoPGS(tx),
		movements:     movementrepo.NewRepoPGS(tx),
		notifications: notificationrepo.NewRepoPGS(tx),
	}

	for _, id := range ids {
		_, err := u.accounts.Lock(ctx, id)
		if err == domain.ErrAccountNotFound {
			continue
		}

		if err != nil {
			return err
		}

		u.locks.held[id] = true
	}

	if err := fn(ctx, u); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()

		if dbpkg.IsConflict(err) {
			return domain.ErrConcurrencyConflict
		}

		return errorspkg.ErrInternal
	}

	return nil
}

// pgsUnit is the ledgerservice.Tx of one Postgres transaction.
type pgsUnit struct {
	locks         lockSet
	accounts      *accountrepo.RepoPGS
	movements     *movementrepo.RepoPGS
	notifications *notificationrepo.RepoPGS
}

func (u *pgsUnit) Account(ctx context.Context, id int64) (domain.Account, error) {
	if err := u.locks.check(id); err != nil {
		return domain.Account{}, err
	}

	return u.accounts.Get(ctx, id)
}

func (u *pgsUnit) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (domain.Account, error) {
	if err := u.locks.check(id); err != nil {
		return domain.Account{}, err
	}

	return u.accounts.AdjustBalance(ctx, id, delta)
}

func (u *pgsUnit) CreateMovement(ctx context.Context, arg domain.CreateMovementParams) (domain.Movement, error) {
	return u.movements.Create(ctx, arg)
}

func (u *pgsUnit) Movement(ctx context.Context, id int64) (domain.Movement, error) {
	return u.movements.Lock(ctx, id)
}

func (u *pgsUnit) FinalizeMovement(ctx context.Context, arg domain.FinalizeMovementParams) (domain.Movement, error) {
	return u.movements.Finalize(ctx, arg)
}

func (u *pgsUnit) SumWithdrawals(ctx context.Context, accountID int64, w domain.Window) (decimal.Decimal, error) {
	return u.movements.SumWithdrawals(ctx, accountID, w)
}

func (u *pgsUnit) CreateNotification(ctx context.Context, arg domain.CreateNotificationParams,
) (domain.Notification, error) {
	return u.notifications.Create(ctx, arg)
}
