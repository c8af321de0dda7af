// Package ledgerservice manages the ledger engine: movement requests and transfers.
package ledgerservice

import (
	"context"
	"fmt"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by the ledger engine.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Repo interface {
	WithinTx(ctx context.Context, lockIDs []int64, fn UnitFunc) error
	GetAccountByOwner(ctx context.Context, owner string) (domain.Account, error)
}

// Notifier delivers best-effort out-of-band messages to users.
type Notifier interface {
	Notify(ctx context.Context, username, subject, body string) error
}

// Service facilitates ledger engine logic.
type Service struct {
	repo        Repo
	notifier    Notifier
	dailyLimit  decimal.Decimal
	location    *time.Location
	maxAttempts uint64
	now         func() time.Time
}

// New returns the ledger engine configured with the withdrawal limit, the
// calendar time zone and the conflict retry budget.
func New(repo Repo, notifier Notifier, config configpkg.Config) (*Service, error) {
	limit, err := decimal.NewFromString(config.DailyWithdrawLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid daily withdraw limit %q: %w", config.DailyWithdrawLimit, err)
	}

	loc, err := config.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid ledger timezone %q: %w", config.LedgerTimezone, err)
	}

	return &Service{
		repo:        repo,
		notifier:    notifier,
		dailyLimit:  limit,
		location:    loc,
		maxAttempts: config.LedgerMaxAttempts,
		now:         time.Now,
	}, nil
}

func (s *Service) run(ctx context.Context, lockIDs []int64, fn UnitFunc) error {
	return RunUnit(ctx, s.repo, s.maxAttempts, lockIDs, fn)
}

func (s *Service) request(ctx context.Context, owner string, amount decimal.Decimal,
	kind domain.MovementKind, check func(ctx context.Context, tx Tx, acc domain.Account) error,
) (domain.Movement, error) {
	l := zerolog.Ctx(ctx)

	acc, err := s.repo.GetAccountByOwner(ctx, owner)
	if err != nil {
		return domain.Movement{}, err
	}

	var m domain.Movement

	err = s.run(ctx, []int64{acc.ID}, func(ctx context.Context, tx Tx) error {
		locked, err := tx.Account(ctx, acc.ID)
		if err != nil {
			return err
		}

		if check != nil {
			if err := check(ctx, tx, locked); err != nil {
				return err
			}
		}

		m, err = tx.CreateMovement(ctx, domain.CreateMovementParams{
			AccountID: acc.ID,
			Amount:    amount,
			Kind:      kind,
			State:     domain.StatePending,
		})

		return err
	})
	if err != nil {
		l.Info().Err(err).Str("kind", string(kind)).Str("amount", amount.String()).Send()
		return domain.Movement{}, err
	}

	Observe(m)

	return m, nil
}

// RequestDeposit records a pending deposit to the owner's account.
// The balance is not changed until the deposit is approved.
func (s *Service) RequestDeposit(ctx context.Context, owner, amount string) (domain.Movement, error) {
	amt, err := domain.ParseAmount(amount)
	if err != nil {
		return domain.Movement{}, err
	}

	return s.request(ctx, owner, amt, domain.KindDeposit, nil)
}

func sufficientFunds(amount decimal.Decimal) func(context.Context, Tx, domain.Account) error {
	return func(_ context.Context, _ Tx, acc domain.Account) error {
		if acc.Balance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}

		return nil
	}
}

// RequestWithdraw records a pending withdrawal from the owner's account.
//
// The funds check is advisory; it is repeated when the withdrawal is approved.
func (s *Service) RequestWithdraw(ctx context.Context, owner, amount string) (domain.Movement, error) {
	amt, err := domain.ParseAmount(amount)
	if err != nil {
		return domain.Movement{}, err
	}

	return s.request(ctx, owner, amt, domain.KindWithdraw, sufficientFunds(amt))
}

// RequestLimitedWithdraw is RequestWithdraw that also fails with domain.ErrDailyLimitExceeded
// when pending and approved withdrawals within the window plus amount exceed limit.
func (s *Service) RequestLimitedWithdraw(ctx context.Context, owner, amount string,
	limit decimal.Decimal, window domain.Window,
) (domain.Movement, error) {
	amt, err := domain.ParseAmount(amount)
	if err != nil {
		return domain.Movement{}, err
	}

	funds := sufficientFunds(amt)

	check := func(ctx context.Context, tx Tx, acc domain.Account) error {
		if err := funds(ctx, tx, acc); err != nil {
			return err
		}

		withdrawn, err := tx.SumWithdrawals(ctx, acc.ID, window)
		if err != nil {
			return err
		}

		if withdrawn.Add(amt).GreaterThan(limit) {
			return domain.ErrDailyLimitExceeded
		}

		return nil
	}

	return s.request(ctx, owner, amt, domain.KindWithdraw, check)
}

// RequestDailyWithdraw applies the configured limit to the current calendar day.
func (s *Service) RequestDailyWithdraw(ctx context.Context, owner, amount string) (domain.Movement, error) {
	today := domain.CalendarDay(s.now().In(s.location))
	return s.RequestLimitedWithdraw(ctx, owner, amount, s.dailyLimit, today)
}

// ExecuteTransfer moves amount from the owner's account to the recipient account.
//
// Debit, credit and the approved Transfer movement are applied as one atomic unit
// holding both accounts. Confirmation emails are sent after commit and never fail the transfer.
func (s *Service) ExecuteTransfer(ctx context.Context, owner string, recipientAccountID int64, amount string,
) (domain.TransferResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.TransferResult

	amt, err := domain.ParseAmount(amount)
	if err != nil {
		return result, err
	}

	sender, err := s.repo.GetAccountByOwner(ctx, owner)
	if err != nil {
		return result, err
	}

	if sender.ID == recipientAccountID {
		return result, domain.ErrSelfTransfer
	}

	err = s.run(ctx, []int64{sender.ID, recipientAccountID}, func(ctx context.Context, tx Tx) error {
		from, err := tx.Account(ctx, sender.ID)
		if err != nil {
			return err
		}

		if _, err := tx.Account(ctx, recipientAccountID); err != nil {
			if err == domain.ErrAccountNotFound {
				return domain.ErrRecipientNotFound
			}

			return err
		}

		if from.Balance.LessThan(amt) {
			return domain.ErrInsufficientFunds
		}

		if result.SenderAccount, err = tx.AdjustBalance(ctx, sender.ID, amt.Neg()); err != nil {
			return err
		}

		if result.RecipientAccount, err = tx.AdjustBalance(ctx, recipientAccountID, amt); err != nil {
			return err
		}

		recipient := recipientAccountID

		result.Movement, err = tx.CreateMovement(ctx, domain.CreateMovementParams{
			AccountID:             sender.ID,
			CounterpartyAccountID: &recipient,
			Amount:                amt,
			Kind:                  domain.KindTransfer,
			State:                 domain.StateApproved,
		})

		return err
	})
	if err != nil {
		l.Info().Err(err).Int64("recipient_account_id", recipientAccountID).Str("amount", amt.String()).Send()
		return domain.TransferResult{}, err
	}

	Observe(result.Movement)

	s.notify(ctx, owner, "Transfer Confirmation",
		fmt.Sprintf("You have successfully transferred $%s to account %d.", amt.StringFixed(2), recipientAccountID))
	s.notify(ctx, result.RecipientAccount.Owner, "Transfer Received",
		fmt.Sprintf("You have received $%s from account %d.", amt.StringFixed(2), sender.ID))

	return result, nil
}

func (s *Service) notify(ctx context.Context, username, subject, body string) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.Notify(ctx, username, subject, body); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("username", username).Str("subject", subject).Send()
	}
}
