package ledgerservice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerrepo"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testConfig = configpkg.Config{
	DailyWithdrawLimit: "5000.00",
	LedgerTimezone:     "UTC",
	LedgerMaxAttempts:  3,
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newService(t *testing.T, repo ledgerservice.Repo, notifier ledgerservice.Notifier) *ledgerservice.Service {
	t.Helper()

	s, err := ledgerservice.New(repo, notifier, testConfig)
	require.NoError(t, err)

	return s
}

func seedAccount(t *testing.T, repo *ledgerrepo.RepoMem, balance string) domain.Account {
	t.Helper()

	acc, err := repo.CreateAccount(context.Background(), randompkg.Owner(), dec(balance))
	require.NoError(t, err)

	return acc
}

// requireConsistent checks that the stored balance equals the recomputed one.
func requireConsistent(t *testing.T, repo *ledgerrepo.RepoMem, accountID int64) {
	t.Helper()

	ctx := context.Background()

	acc, err := repo.Get(ctx, accountID)
	require.NoError(t, err)

	recomputed, err := repo.RecomputeBalance(ctx, accountID)
	require.NoError(t, err)

	require.True(t, acc.Balance.Equal(recomputed),
		"balance %s != recomputed %s for account %d", acc.Balance, recomputed, accountID)
	require.False(t, acc.Balance.IsNegative())
}

func requireBalance(t *testing.T, repo *ledgerrepo.RepoMem, accountID int64, want string) {
	t.Helper()

	acc, err := repo.Get(context.Background(), accountID)
	require.NoError(t, err)
	require.True(t, acc.Balance.Equal(dec(want)), "balance = %s, want %s", acc.Balance, want)
}

func TestNew(t *testing.T) {
	t.Parallel()

	repo := ledgerrepo.NewRepoMem()

	_, err := ledgerservice.New(repo, nil, configpkg.Config{DailyWithdrawLimit: "lots", LedgerTimezone: "UTC"})
	require.Error(t, err)

	_, err = ledgerservice.New(repo, nil, configpkg.Config{DailyWithdrawLimit: "10", LedgerTimezone: "Nowhere/City"})
	require.Error(t, err)
}

func TestRequestDeposit(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		amount  string
		owner   func(acc domain.Account) string
		wantErr error
	}{
		{
			name:   "OK",
			amount: "250.50",
			owner:  func(acc domain.Account) string { return acc.Owner },
		},
		{
			name:    "ZeroAmount",
			amount:  "0",
			owner:   func(acc domain.Account) string { return acc.Owner },
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "NegativeAmount",
			amount:  "-10",
			owner:   func(acc domain.Account) string { return acc.Owner },
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "ThreeDecimals",
			amount:  "1.005",
			owner:   func(acc domain.Account) string { return acc.Owner },
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:   "MaxAmount",
			amount: "9999999999999999.99",
			owner:  func(acc domain.Account) string { return acc.Owner },
		},
		{
			name:    "AboveMaxAmount",
			amount:  "1e20",
			owner:   func(acc domain.Account) string { return acc.Owner },
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "HugeExponent",
			amount:  "1e7000000",
			owner:   func(acc domain.Account) string { return acc.Owner },
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "TinyExponent",
			amount:  "1e-7000000",
			owner:   func(acc domain.Account) string { return acc.Owner },
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "UnknownOwner",
			amount:  "10",
			owner:   func(domain.Account) string { return "nobody" },
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := ledgerrepo.NewRepoMem()
			acc := seedAccount(t, repo, "100.00")
			s := newService(t, repo, nil)

			before := len(repo.Movements(context.Background(), acc.ID))

			got, err := s.RequestDeposit(context.Background(), tc.owner(acc), tc.amount)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Len(t, repo.Movements(context.Background(), acc.ID), before)
				requireBalance(t, repo, acc.ID, "100.00")

				return
			}

			require.NoError(t, err)
			require.NotZero(t, got.ID)
			require.Equal(t, acc.ID, got.AccountID)
			require.Equal(t, domain.KindDeposit, got.Kind)
			require.Equal(t, domain.StatePending, got.State)
			require.True(t, got.Amount.Equal(dec(tc.amount)))
			require.Nil(t, got.CounterpartyAccountID)

			requireBalance(t, repo, acc.ID, "100.00")
			requireConsistent(t, repo, acc.ID)
		})
	}
}

func TestRequestWithdraw(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{name: "Scenario100Request40", amount: "40.00"},
		{name: "WholeBalance", amount: "100.00"},
		{name: "Scenario100Request150", amount: "150.00", wantErr: domain.ErrInsufficientFunds},
		{name: "InvalidAmount", amount: "abc", wantErr: domain.ErrInvalidAmount},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := ledgerrepo.NewRepoMem()
			acc := seedAccount(t, repo, "100.00")
			s := newService(t, repo, nil)

			got, err := s.RequestWithdraw(context.Background(), acc.Owner, tc.amount)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Empty(t, got)

				// only the opening deposit exists
				require.Len(t, repo.Movements(context.Background(), acc.ID), 1)
				requireBalance(t, repo, acc.ID, "100.00")

				return
			}

			require.NoError(t, err)
			require.Equal(t, domain.KindWithdraw, got.Kind)
			require.Equal(t, domain.StatePending, got.State)

			requireBalance(t, repo, acc.ID, "100.00")
			requireConsistent(t, repo, acc.ID)
		})
	}
}

// approveWithdrawal settles a pending withdrawal directly through a unit.
func approveWithdrawal(t *testing.T, repo *ledgerrepo.RepoMem, m domain.Movement) {
	t.Helper()

	err := repo.WithinTx(context.Background(), []int64{m.AccountID}, func(ctx context.Context, tx ledgerservice.Tx) error {
		if _, err := tx.AdjustBalance(ctx, m.AccountID, m.Amount.Neg()); err != nil {
			return err
		}

		_, err := tx.FinalizeMovement(ctx, domain.FinalizeMovementParams{
			ID:        m.ID,
			State:     domain.StateApproved,
			DecidedBy: "admin",
			DecidedAt: time.Now(),
		})

		return err
	})
	require.NoError(t, err)
}

func TestRequestLimitedWithdraw(t *testing.T) {
	t.Parallel()

	limit := dec("5000.00")
	today := domain.CalendarDay(time.Now().UTC())

	testCases := []struct {
		name    string
		seed    func(t *testing.T, s *ledgerservice.Service, repo *ledgerrepo.RepoMem, acc domain.Account)
		amount  string
		window  domain.Window
		wantErr error
	}{
		{
			name: "ApprovedToday4500Request400",
			seed: func(t *testing.T, s *ledgerservice.Service, repo *ledgerrepo.RepoMem, acc domain.Account) {
				m, err := s.RequestWithdraw(context.Background(), acc.Owner, "4500.00")
				require.NoError(t, err)
				approveWithdrawal(t, repo, m)
			},
			amount: "400.00",
			window: today,
		},
		{
			name: "ApprovedToday4500Request600",
			seed: func(t *testing.T, s *ledgerservice.Service, repo *ledgerrepo.RepoMem, acc domain.Account) {
				m, err := s.RequestWithdraw(context.Background(), acc.Owner, "4500.00")
				require.NoError(t, err)
				approveWithdrawal(t, repo, m)
			},
			amount:  "600.00",
			window:  today,
			wantErr: domain.ErrDailyLimitExceeded,
		},
		{
			name: "PendingCountsTowardsLimit",
			seed: func(t *testing.T, s *ledgerservice.Service, repo *ledgerrepo.RepoMem, acc domain.Account) {
				_, err := s.RequestWithdraw(context.Background(), acc.Owner, "4999.99")
				require.NoError(t, err)
			},
			amount:  "0.02",
			window:  today,
			wantErr: domain.ErrDailyLimitExceeded,
		},
		{
			name: "ExactlyAtLimit",
			seed: func(t *testing.T, s *ledgerservice.Service, repo *ledgerrepo.RepoMem, acc domain.Account) {
				_, err := s.RequestWithdraw(context.Background(), acc.Owner, "4999.99")
				require.NoError(t, err)
			},
			amount: "0.01",
			window: today,
		},
		{
			name: "OtherDayDoesNotCount",
			seed: func(t *testing.T, s *ledgerservice.Service, repo *ledgerrepo.RepoMem, acc domain.Account) {
				m, err := s.RequestWithdraw(context.Background(), acc.Owner, "4500.00")
				require.NoError(t, err)
				approveWithdrawal(t, repo, m)
			},
			amount: "600.00",
			window: domain.Window{Start: today.Start.AddDate(0, 0, 1), End: today.End.AddDate(0, 0, 1)},
		},
		{
			name: "RejectedDoesNotCount",
			seed: func(t *testing.T, s *ledgerservice.Service, repo *ledgerrepo.RepoMem, acc domain.Account) {
				m, err := s.RequestWithdraw(context.Background(), acc.Owner, "4500.00")
				require.NoError(t, err)

				reason := "suspicious"
				err = repo.WithinTx(context.Background(), []int64{acc.ID}, func(ctx context.Context, tx ledgerservice.Tx) error {
					_, err := tx.FinalizeMovement(ctx, domain.FinalizeMovementParams{
						ID: m.ID, State: domain.StateRejected, RejectionReason: &reason,
						DecidedBy: "admin", DecidedAt: time.Now(),
					})
					return err
				})
				require.NoError(t, err)
			},
			amount: "600.00",
			window: today,
		},
		{
			name:    "FundsCheckedFirst",
			seed:    func(*testing.T, *ledgerservice.Service, *ledgerrepo.RepoMem, domain.Account) {},
			amount:  "20000.00",
			window:  today,
			wantErr: domain.ErrInsufficientFunds,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := ledgerrepo.NewRepoMem()
			acc := seedAccount(t, repo, "10000.00")
			s := newService(t, repo, nil)

			tc.seed(t, s, repo, acc)
			before := len(repo.Movements(context.Background(), acc.ID))

			got, err := s.RequestLimitedWithdraw(context.Background(), acc.Owner, tc.amount, limit, tc.window)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Len(t, repo.Movements(context.Background(), acc.ID), before)

				return
			}

			require.NoError(t, err)
			require.Equal(t, domain.StatePending, got.State)
			require.Equal(t, domain.KindWithdraw, got.Kind)
			requireConsistent(t, repo, acc.ID)
		})
	}
}

func TestRequestDailyWithdraw(t *testing.T) {
	t.Parallel()

	repo := ledgerrepo.NewRepoMem()
	acc := seedAccount(t, repo, "10000.00")
	s := newService(t, repo, nil)

	_, err := s.RequestDailyWithdraw(context.Background(), acc.Owner, "5000.00")
	require.NoError(t, err)

	_, err = s.RequestDailyWithdraw(context.Background(), acc.Owner, "0.01")
	require.ErrorIs(t, err, domain.ErrDailyLimitExceeded)
}

func TestExecuteTransfer(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		senderBalance string
		amount        string
		recipient     func(sender, recipient domain.Account) int64
		wantErr       error
		wantSender    string
		wantRecipient string
	}{
		{
			name:          "Scenario60Transfer30",
			senderBalance: "60.00",
			amount:        "30.00",
			recipient:     func(_, r domain.Account) int64 { return r.ID },
			wantSender:    "30.00",
			wantRecipient: "30.00",
		},
		{
			name:          "WholeBalance",
			senderBalance: "60.00",
			amount:        "60.00",
			recipient:     func(_, r domain.Account) int64 { return r.ID },
			wantSender:    "0.00",
			wantRecipient: "60.00",
		},
		{
			name:          "InsufficientFunds",
			senderBalance: "60.00",
			amount:        "60.01",
			recipient:     func(_, r domain.Account) int64 { return r.ID },
			wantErr:       domain.ErrInsufficientFunds,
			wantSender:    "60.00",
			wantRecipient: "0.00",
		},
		{
			name:          "SelfTransfer",
			senderBalance: "60.00",
			amount:        "10.00",
			recipient:     func(s, _ domain.Account) int64 { return s.ID },
			wantErr:       domain.ErrSelfTransfer,
			wantSender:    "60.00",
			wantRecipient: "0.00",
		},
		{
			name:          "RecipientNotFound",
			senderBalance: "60.00",
			amount:        "10.00",
			recipient:     func(_, _ domain.Account) int64 { return 100500 },
			wantErr:       domain.ErrRecipientNotFound,
			wantSender:    "60.00",
			wantRecipient: "0.00",
		},
		{
			name:          "InvalidAmount",
			senderBalance: "60.00",
			amount:        "-5",
			recipient:     func(_, r domain.Account) int64 { return r.ID },
			wantErr:       domain.ErrInvalidAmount,
			wantSender:    "60.00",
			wantRecipient: "0.00",
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := ledgerrepo.NewRepoMem()
			sender := seedAccount(t, repo, tc.senderBalance)
			recipient := seedAccount(t, repo, "0")

			notifier := ledgerservice.NewMockNotifier(ctrl)
			if tc.wantErr == nil {
				notifier.EXPECT().
					Notify(gomock.Any(), sender.Owner, "Transfer Confirmation", gomock.Any()).
					Times(1).
					Return(nil)
				notifier.EXPECT().
					Notify(gomock.Any(), recipient.Owner, "Transfer Received", gomock.Any()).
					Times(1).
					Return(errors.New("smtp down"))
			}

			s := newService(t, repo, notifier)

			got, err := s.ExecuteTransfer(context.Background(), sender.Owner, tc.recipient(sender, recipient), tc.amount)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Empty(t, got)
			} else {
				require.NoError(t, err)
				require.Equal(t, domain.KindTransfer, got.Movement.Kind)
				require.Equal(t, domain.StateApproved, got.Movement.State)
				require.Equal(t, sender.ID, got.Movement.AccountID)
				require.Equal(t, recipient.ID, *got.Movement.CounterpartyAccountID)
				require.True(t, got.SenderAccount.Balance.Equal(dec(tc.wantSender)))
				require.True(t, got.RecipientAccount.Balance.Equal(dec(tc.wantRecipient)))

				transfers := 0
				for _, m := range repo.Movements(context.Background(), sender.ID) {
					require.NotEqual(t, domain.StatePending, m.State)
					if m.Kind == domain.KindTransfer {
						transfers++
					}
				}
				require.Equal(t, 1, transfers)
			}

			requireBalance(t, repo, sender.ID, tc.wantSender)
			requireBalance(t, repo, recipient.ID, tc.wantRecipient)
			requireConsistent(t, repo, sender.ID)
			requireConsistent(t, repo, recipient.ID)
		})
	}
}

func TestCancelledContextNeverStartsUnit(t *testing.T) {
	t.Parallel()

	repo := ledgerrepo.NewRepoMem()
	sender := seedAccount(t, repo, "50.00")
	recipient := seedAccount(t, repo, "0")
	s := newService(t, repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ExecuteTransfer(ctx, sender.Owner, recipient.ID, "10.00")
	require.ErrorIs(t, err, context.Canceled)

	requireBalance(t, repo, sender.ID, "50.00")
	requireBalance(t, repo, recipient.ID, "0")
}

func TestConcurrentOppositeTransfers(t *testing.T) {
	t.Parallel()

	repo := ledgerrepo.NewRepoMem()
	a := seedAccount(t, repo, "1000.00")
	b := seedAccount(t, repo, "1000.00")
	s := newService(t, repo, nil)

	const n = 50

	var wg sync.WaitGroup

	errs := make(chan error, 2*n)

	for i := 0; i < n; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			_, err := s.ExecuteTransfer(context.Background(), a.Owner, b.ID, "10.00")
			errs <- err
		}()

		go func() {
			defer wg.Done()
			_, err := s.ExecuteTransfer(context.Background(), b.Owner, a.ID, "10.00")
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	requireBalance(t, repo, a.ID, "1000.00")
	requireBalance(t, repo, b.ID, "1000.00")
	requireConsistent(t, repo, a.ID)
	requireConsistent(t, repo, b.ID)
}

func TestConcurrentTransfersNeverOverdraw(t *testing.T) {
	t.Parallel()

	repo := ledgerrepo.NewRepoMem()
	sender := seedAccount(t, repo, "100.00")
	recipient := seedAccount(t, repo, "0")
	s := newService(t, repo, nil)

	const n = 10

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failed    int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := s.ExecuteTransfer(context.Background(), sender.Owner, recipient.ID, "30.00")

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientFunds):
				failed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	require.Equal(t, 3, succeeded)
	require.Equal(t, n-3, failed)
	requireBalance(t, repo, sender.ID, "10.00")
	requireBalance(t, repo, recipient.ID, "90.00")
	requireConsistent(t, repo, sender.ID)
	requireConsistent(t, repo, recipient.ID)
}

// contendedRepo fails the first units with a conflict.
type contendedRepo struct {
	*ledgerrepo.RepoMem

	mu        sync.Mutex
	conflicts int
	calls     int
}

func (r *contendedRepo) WithinTx(ctx context.Context, lockIDs []int64, fn ledgerservice.UnitFunc) error {
	r.mu.Lock()
	r.calls++
	conflict := r.calls <= r.conflicts
	r.mu.Unlock()

	if conflict {
		return domain.ErrConcurrencyConflict
	}

	return r.RepoMem.WithinTx(ctx, lockIDs, fn)
}

func TestConflictRetry(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		conflicts int
		wantErr   error
		wantCalls int
	}{
		{name: "NoConflict", conflicts: 0, wantCalls: 1},
		{name: "RecoversWithinBudget", conflicts: 2, wantCalls: 3},
		{name: "BudgetExhausted", conflicts: 5, wantErr: domain.ErrConcurrencyConflict, wantCalls: 3},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mem := ledgerrepo.NewRepoMem()
			acc := seedAccount(t, mem, "0")
			repo := &contendedRepo{RepoMem: mem, conflicts: tc.conflicts}
			s := newService(t, repo, nil)

			_, err := s.RequestDeposit(context.Background(), acc.Owner, "10.00")
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}

			require.Equal(t, tc.wantCalls, repo.calls)
		})
	}
}

func TestRunUnitDoesNotRetryDomainErrors(t *testing.T) {
	t.Parallel()

	repo := ledgerrepo.NewRepoMem()
	calls := 0

	err := ledgerservice.RunUnit(context.Background(), repo, 5, nil, func(context.Context, ledgerservice.Tx) error {
		calls++
		return domain.ErrInsufficientFunds
	})

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.Equal(t, 1, calls)
}

func TestExecuteTransferLookupFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledgerservice.NewMockRepo(ctrl)
	repo.EXPECT().
		GetAccountByOwner(gomock.Any(), "ghost").
		Times(1).
		Return(domain.Account{}, domain.ErrAccountNotFound)
	repo.EXPECT().
		WithinTx(gomock.Any(), gomock.Any(), gomock.Any()).
		Times(0)

	s := newService(t, repo, nil)

	_, err := s.ExecuteTransfer(context.Background(), "ghost", 2, "10.00")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}
