package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidFilter indicates malformed history filter parameters.
var ErrInvalidFilter = errors.New("invalid filter")

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls into the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// CalendarDay returns the calendar day of t in t's location.
func CalendarDay(t time.Time) Window {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// CalendarMonth returns the given month in loc.
func CalendarMonth(year int, month time.Month, loc *time.Location) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// MovementOrder is a history sort column.
type MovementOrder string

// Supported history orderings.
const (
	OrderByCreatedAt MovementOrder = "created_at"
	OrderByAmount    MovementOrder = "amount"
)

// MovementFilter narrows and orders an account history.
type MovementFilter struct {
	AccountID int64
	Kind      *MovementKind
	From      *time.Time
	To        *time.Time
	OrderBy   MovementOrder
	Desc      bool
	Limit     int32
	Offset    int32
}

// ParseOrdering parses "created_at", "-created_at", "amount" or "-amount".
// An empty value means newest first.
func ParseOrdering(s string) (MovementOrder, bool, error) {
	if s == "" {
		return OrderByCreatedAt, true, nil
	}

	desc := false
	if s[0] == '-' {
		desc = true
		s = s[1:]
	}

	switch MovementOrder(s) {
	case OrderByCreatedAt, OrderByAmount:
		return MovementOrder(s), desc, nil
	default:
		return "", false, fmt.Errorf("%w: unknown ordering %q", ErrInvalidFilter, s)
	}
}

// MonthlySummary aggregates the movements of one month.
// TotalTransfers is the sum of TotalTransfersIn and TotalTransfersOut.
type MonthlySummary struct {
	TotalDeposits     decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals  decimal.Decimal `json:"total_withdrawals"`
	TotalTransfers    decimal.Decimal `json:"total_transfers"`
	TotalTransfersIn  decimal.Decimal `json:"total_transfers_in"`
	TotalTransfersOut decimal.Decimal `json:"total_transfers_out"`
	TransactionCount  int64           `json:"transaction_count"`
}

// MonthlyStatement is the monthly report of an account.
type MonthlyStatement struct {
	Month     string         `json:"month"`
	Summary   MonthlySummary `json:"summary"`
	Movements []Movement     `json:"transactions"`
}
