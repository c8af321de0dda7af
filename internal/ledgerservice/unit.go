package ledgerservice

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Tx is the set of operations available inside one atomic unit.
//
// Accounts passed as lockIDs to WithinTx are held exclusively for the whole unit.
type Tx interface {
	// Account returns the current state of a locked account.
	Account(ctx context.Context, id int64) (domain.Account, error)
	// AdjustBalance adds the signed delta to a locked account.
	AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (domain.Account, error)
	CreateMovement(ctx context.Context, arg domain.CreateMovementParams) (domain.Movement, error)
	// Movement returns the movement holding its row for the rest of the unit.
	Movement(ctx context.Context, id int64) (domain.Movement, error)
	FinalizeMovement(ctx context.Context, arg domain.FinalizeMovementParams) (domain.Movement, error)
	SumWithdrawals(ctx context.Context, accountID int64, w domain.Window) (decimal.Decimal, error)
	CreateNotification(ctx context.Context, arg domain.CreateNotificationParams) (domain.Notification, error)
}

// UnitFunc is the body of an atomic unit.
type UnitFunc func(ctx context.Context, tx Tx) error

// UnitRunner executes atomic units.
type UnitRunner interface {
	// WithinTx locks lockIDs in ascending order, runs fn and commits if fn returns nil.
	// Accounts that do not exist are skipped; Tx.Account reports them as domain.ErrAccountNotFound.
	WithinTx(ctx context.Context, lockIDs []int64, fn UnitFunc) error
}

const (
	retryInitialInterval = 10 * time.Millisecond
	retryMaxInterval     = 200 * time.Millisecond
)

// RunUnit runs fn as one atomic unit, retrying it with exponential backoff
// while it fails with domain.ErrConcurrencyConflict.
//
// A context that is already done never starts the unit. Once started, the unit
// runs to completion regardless of ctx; ctx only stops further retries.
func RunUnit(ctx context.Context, r UnitRunner, maxAttempts uint64, lockIDs []int64, fn UnitFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l := zerolog.Ctx(ctx)
	unitCtx := context.WithoutCancel(ctx)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval

	var policy backoff.BackOff = b
	if maxAttempts > 0 {
		policy = backoff.WithMaxRetries(b, maxAttempts-1)
	}

	policy = backoff.WithContext(policy, ctx)

	operation := func() error {
		err := r.WithinTx(unitCtx, lockIDs, fn)
		if err == nil || errors.Is(err, domain.ErrConcurrencyConflict) {
			return err
		}

		return backoff.Permanent(err)
	}

	notify := func(err error, next time.Duration) {
		conflictRetriesTotal.Inc()
		l.Warn().Err(err).Ints64("lock_ids", lockIDs).Dur("backoff", next).Msg("retrying atomic unit")
	}

	return backoff.RetryNotify(operation, policy, notify)
}
