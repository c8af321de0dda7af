package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "OK", input: "40.00", want: "40"},
		{name: "OneDecimal", input: "0.5", want: "0.5"},
		{name: "Zero", input: "0", wantErr: ErrInvalidAmount},
		{name: "Negative", input: "-10", wantErr: ErrInvalidAmount},
		{name: "TooManyDecimals", input: "1.001", wantErr: ErrInvalidAmount},
		{name: "TrailingZeros", input: "1.100", want: "1.1"},
		{name: "NotANumber", input: "!@#$", wantErr: ErrInvalidAmount},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseAmount(tc.input)
			if err != tc.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, want %v", tc.input, err, tc.wantErr)
			}

			if tc.wantErr != nil {
				return
			}

			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Errorf("ParseAmount(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestSignedEffect(t *testing.T) {
	t.Parallel()

	var (
		sender    int64 = 1
		recipient int64 = 2
		amount          = decimal.RequireFromString("30.00")
	)

	testCases := []struct {
		name      string
		movement  Movement
		accountID int64
		want      decimal.Decimal
	}{
		{
			name:      "ApprovedDeposit",
			movement:  Movement{AccountID: sender, Amount: amount, Kind: KindDeposit, State: StateApproved},
			accountID: sender,
			want:      amount,
		},
		{
			name:      "PendingDeposit",
			movement:  Movement{AccountID: sender, Amount: amount, Kind: KindDeposit, State: StatePending},
			accountID: sender,
			want:      decimal.Zero,
		},
		{
			name:      "ApprovedWithdraw",
			movement:  Movement{AccountID: sender, Amount: amount, Kind: KindWithdraw, State: StateApproved},
			accountID: sender,
			want:      amount.Neg(),
		},
		{
			name:      "RejectedWithdraw",
			movement:  Movement{AccountID: sender, Amount: amount, Kind: KindWithdraw, State: StateRejected},
			accountID: sender,
			want:      decimal.Zero,
		},
		{
			name: "TransferSender",
			movement: Movement{
				AccountID: sender, CounterpartyAccountID: &recipient,
				Amount: amount, Kind: KindTransfer, State: StateApproved,
			},
			accountID: sender,
			want:      amount.Neg(),
		},
		{
			name: "TransferRecipient",
			movement: Movement{
				AccountID: sender, CounterpartyAccountID: &recipient,
				Amount: amount, Kind: KindTransfer, State: StateApproved,
			},
			accountID: recipient,
			want:      amount,
		},
		{
			name:      "OtherAccount",
			movement:  Movement{AccountID: sender, Amount: amount, Kind: KindDeposit, State: StateApproved},
			accountID: recipient,
			want:      decimal.Zero,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := tc.movement.SignedEffect(tc.accountID); !got.Equal(tc.want) {
				t.Errorf("SignedEffect(%d) = %v, want %v", tc.accountID, got, tc.want)
			}
		})
	}
}

func TestStateTransitions(t *testing.T) {
	t.Parallel()

	if !StatePending.CanTransitionTo(StateApproved) {
		t.Error("Pending -> Approved must be allowed")
	}

	if !StatePending.CanTransitionTo(StateRejected) {
		t.Error("Pending -> Rejected must be allowed")
	}

	for _, from := range []MovementState{StateApproved, StateRejected} {
		for _, to := range []MovementState{StatePending, StateApproved, StateRejected} {
			if from.CanTransitionTo(to) {
				t.Errorf("%s -> %s must not be allowed", from, to)
			}
		}
	}

	if _, err := Decision("Maybe").State(); err != ErrInvalidDecision {
		t.Errorf(`Decision("Maybe").State() error = %v, want %v`, err, ErrInvalidDecision)
	}
}

func TestCalendarDay(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2024, time.March, 10, 23, 30, 0, 0, loc)

	day := CalendarDay(now)

	wantStart := time.Date(2024, time.March, 10, 0, 0, 0, 0, loc)
	if !day.Start.Equal(wantStart) {
		t.Errorf("day.Start = %v, want %v", day.Start, wantStart)
	}

	if !day.Contains(now) {
		t.Errorf("day %v must contain %v", day, now)
	}

	if day.Contains(wantStart.AddDate(0, 0, 1)) {
		t.Errorf("day %v must not contain the next midnight", day)
	}
}

func TestParseOrdering(t *testing.T) {
	t.Parallel()

	order, desc, err := ParseOrdering("-amount")
	if err != nil || order != OrderByAmount || !desc {
		t.Errorf(`ParseOrdering("-amount") = %v, %v, %v`, order, desc, err)
	}

	order, desc, err = ParseOrdering("")
	if err != nil || order != OrderByCreatedAt || !desc {
		t.Errorf(`ParseOrdering("") = %v, %v, %v`, order, desc, err)
	}

	if _, _, err := ParseOrdering("balance"); err == nil {
		t.Error(`ParseOrdering("balance") returned nil error`)
	}
}
