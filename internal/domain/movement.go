package domain

import (
	"errors"
	"time"

	"github.com/go-petr/pet-ledger/pkg/moneypkg"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount indicates that the amount is not a positive number with at most 2 decimals
	// or that it exceeds moneypkg.MaxAmount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientFunds indicates that the account balance does not cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrBalanceLimitExceeded indicates that the resulting balance would exceed moneypkg.MaxAmount.
	ErrBalanceLimitExceeded = errors.New("balance limit exceeded")
	// ErrSelfTransfer indicates that the sender and the recipient are the same account.
	ErrSelfTransfer = errors.New("cannot transfer to own account")
	// ErrRecipientNotFound indicates that the transfer recipient does not exist.
	ErrRecipientNotFound = errors.New("recipient account not found")
	// ErrDailyLimitExceeded indicates that the withdrawal exceeds the daily limit.
	ErrDailyLimitExceeded = errors.New("daily withdrawal limit exceeded")
	// ErrNotPending indicates that the movement has already been decided.
	ErrNotPending = errors.New("movement is not pending")
	// ErrMissingReason indicates a rejection without a reason.
	ErrMissingReason = errors.New("rejection reason is required")
	// ErrInvalidDecision indicates a decision other than approve or reject.
	ErrInvalidDecision = errors.New("invalid decision")
	// ErrMovementNotFound indicates that the movement is not found.
	ErrMovementNotFound = errors.New("movement not found")
	// ErrConcurrencyConflict indicates that exclusive access to the accounts could not be obtained.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	// ErrNotPrivileged indicates that the actor may not decide movements.
	ErrNotPrivileged = errors.New("actor is not privileged")
)

// MovementKind is the type of monetary change.
type MovementKind string

// Supported movement kinds.
const (
	KindDeposit  MovementKind = "Deposit"
	KindWithdraw MovementKind = "Withdraw"
	KindTransfer MovementKind = "Transfer"
)

// Valid reports whether k is a known kind.
func (k MovementKind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdraw, KindTransfer:
		return true
	default:
		return false
	}
}

// MovementState is the lifecycle state of a movement.
type MovementState string

// Movement states. Approved and Rejected are terminal.
const (
	StatePending  MovementState = "Pending"
	StateApproved MovementState = "Approved"
	StateRejected MovementState = "Rejected"
)

// IsTerminal reports whether no transition may originate from s.
func (s MovementState) IsTerminal() bool {
	return s == StateApproved || s == StateRejected
}

// CanTransitionTo reports whether s -> next is a legal transition.
func (s MovementState) CanTransitionTo(next MovementState) bool {
	return s == StatePending && next.IsTerminal()
}

// Decision is the outcome an admin assigns to a pending movement.
type Decision string

// Supported decisions.
const (
	DecisionApproved Decision = "Approved"
	DecisionRejected Decision = "Rejected"
)

// State returns the terminal state the decision leads to.
func (d Decision) State() (MovementState, error) {
	switch d {
	case DecisionApproved:
		return StateApproved, nil
	case DecisionRejected:
		return StateRejected, nil
	default:
		return "", ErrInvalidDecision
	}
}

// Movement is a requested monetary change and its lifecycle record.
type Movement struct {
	ID                    int64           `json:"id"`
	AccountID             int64           `json:"account_id"`
	CounterpartyAccountID *int64          `json:"counterparty_account_id,omitempty"`
	Amount                decimal.Decimal `json:"amount"` // always positive
	Kind                  MovementKind    `json:"kind"`
	State                 MovementState   `json:"state"`
	RejectionReason       *string         `json:"rejection_reason,omitempty"`
	DecidedBy             *string         `json:"decided_by,omitempty"`
	DecidedAt             *time.Time      `json:"decided_at,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

// IsTerminal reports whether the movement has left Pending.
func (m Movement) IsTerminal() bool {
	return m.State.IsTerminal()
}

// SignedEffect returns the balance change the movement applies to accountID.
// Only approved movements affect balances.
func (m Movement) SignedEffect(accountID int64) decimal.Decimal {
	if m.State != StateApproved {
		return decimal.Zero
	}

	switch m.Kind {
	case KindDeposit:
		if m.AccountID == accountID {
			return m.Amount
		}
	case KindWithdraw:
		if m.AccountID == accountID {
			return m.Amount.Neg()
		}
	case KindTransfer:
		if m.AccountID == accountID {
			return m.Amount.Neg()
		}

		if m.CounterpartyAccountID != nil && *m.CounterpartyAccountID == accountID {
			return m.Amount
		}
	}

	return decimal.Zero
}

// CreateMovementParams is the input data to persist a movement.
type CreateMovementParams struct {
	AccountID             int64
	CounterpartyAccountID *int64
	Amount                decimal.Decimal
	Kind                  MovementKind
	State                 MovementState
}

// FinalizeMovementParams is the input data to move a pending movement to a terminal state.
type FinalizeMovementParams struct {
	ID              int64
	State           MovementState
	RejectionReason *string
	DecidedBy       string
	DecidedAt       time.Time
}

// TransferResult is the result of the transfer atomic unit.
type TransferResult struct {
	Movement         Movement `json:"movement"`
	SenderAccount    Account  `json:"sender_account"`
	RecipientAccount Account  `json:"recipient_account"`
}

// Outcome is the result of a decision on a pending movement.
type Outcome struct {
	Movement     Movement     `json:"movement"`
	Account      Account      `json:"account"`
	Notification Notification `json:"notification"`
}

// ParseAmount parses a strictly positive money amount with at most 2 decimal places
// and no greater than moneypkg.MaxAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}

	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

// ValidateAmount checks that amount is strictly positive, has scale of at most 2
// and fits the stored numeric range.
func ValidateAmount(amount decimal.Decimal) error {
	if !moneypkg.IsValid(amount) {
		return ErrInvalidAmount
	}

	return nil
}
