// Package approvalservice manages the approval workflow of pending movements.
package approvalservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by approval service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package approvalservice
type Repo interface {
	WithinTx(ctx context.Context, lockIDs []int64, fn ledgerservice.UnitFunc) error
	GetMovement(ctx context.Context, id int64) (domain.Movement, error)
	ListPending(ctx context.Context, limit, offset int32) ([]domain.Movement, error)
}

// Notifier delivers best-effort out-of-band messages to users.
type Notifier interface {
	Notify(ctx context.Context, username, subject, body string) error
}

// Service facilitates approval workflow logic.
type Service struct {
	repo        Repo
	notifier    Notifier
	maxAttempts uint64
	now         func() time.Time
}

// New returns approval service.
func New(repo Repo, notifier Notifier, config configpkg.Config) *Service {
	return &Service{
		repo:        repo,
		notifier:    notifier,
		maxAttempts: config.LedgerMaxAttempts,
		now:         time.Now,
	}
}

func notificationMessage(m domain.Movement, reason string) string {
	msg := fmt.Sprintf("Your %s of $%s has been %s.",
		strings.ToLower(string(m.Kind)), m.Amount.StringFixed(2), strings.ToLower(string(m.State)))

	if m.State == domain.StateRejected {
		msg = strings.TrimSuffix(msg, ".") + ". Reason: " + reason
	}

	return msg
}

func emailSubject(state domain.MovementState) string {
	return "Transaction " + string(state)
}

// Decide resolves a pending deposit or withdrawal.
//
// Approving applies the balance effect and the state transition as one atomic
// unit holding the account. A withdrawal the account can no longer cover is
// refused with domain.ErrInsufficientFunds and stays Pending. Every decision
// stores one in-app notification in the same unit; the email is sent after commit
// and its failure never undoes the decision.
func (s *Service) Decide(ctx context.Context, actor domain.Actor, movementID int64,
	decision domain.Decision, reason string,
) (domain.Outcome, error) {
	l := zerolog.Ctx(ctx)

	var out domain.Outcome

	if !actor.IsAdmin() {
		l.Warn().Str("actor", actor.Username).Int64("movement_id", movementID).Msg("unprivileged decision attempt")
		return out, domain.ErrNotPrivileged
	}

	state, err := decision.State()
	if err != nil {
		return out, err
	}

	reason = strings.TrimSpace(reason)
	if state == domain.StateRejected && reason == "" {
		return out, domain.ErrMissingReason
	}

	m, err := s.repo.GetMovement(ctx, movementID)
	if err != nil {
		return out, err
	}

	if m.IsTerminal() {
		return out, domain.ErrNotPending
	}

	err = ledgerservice.RunUnit(ctx, s.repo, s.maxAttempts, []int64{m.AccountID}, func(ctx context.Context, tx ledgerservice.Tx) error {
		cur, err := tx.Movement(ctx, movementID)
		if err != nil {
			return err
		}

		if cur.State != domain.StatePending {
			return domain.ErrNotPending
		}

		acc, err := tx.Account(ctx, cur.AccountID)
		if err != nil {
			return err
		}

		arg := domain.FinalizeMovementParams{
			ID:        cur.ID,
			State:     state,
			DecidedBy: actor.Username,
			DecidedAt: s.now(),
		}

		if state == domain.StateRejected {
			arg.RejectionReason = &reason
		}

		out.Movement, err = tx.FinalizeMovement(ctx, arg)
		if err != nil {
			return err
		}

		if effect := out.Movement.SignedEffect(acc.ID); !effect.IsZero() {
			balance := acc.Balance.Add(effect)
			if balance.IsNegative() {
				return domain.ErrInsufficientFunds
			}

			if !moneypkg.Fits(balance) {
				return domain.ErrBalanceLimitExceeded
			}

			if acc, err = tx.AdjustBalance(ctx, acc.ID, effect); err != nil {
				return err
			}
		}

		out.Account = acc

		out.Notification, err = tx.CreateNotification(ctx, domain.CreateNotificationParams{
			Owner:   acc.Owner,
			Message: notificationMessage(out.Movement, reason),
		})

		return err
	})
	if err != nil {
		l.Info().Err(err).Int64("movement_id", movementID).Str("decision", string(decision)).Send()
		return domain.Outcome{}, err
	}

	ledgerservice.Observe(out.Movement)

	if s.notifier != nil {
		err := s.notifier.Notify(ctx, out.Account.Owner, emailSubject(out.Movement.State), out.Notification.Message)
		if err != nil {
			l.Warn().Err(err).Int64("movement_id", movementID).Msg("decision email not delivered")
		}
	}

	return out, nil
}

// ListPending returns the approval queue, oldest first.
func (s *Service) ListPending(ctx context.Context, actor domain.Actor, pageSize, pageID int32) ([]domain.Movement, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrNotPrivileged
	}

	limit := pageSize
	offset := (pageID - 1) * pageSize

	return s.repo.ListPending(ctx, limit, offset)
}
