package ledgerrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
	"github.com/shopspring/decimal"
)

const defaultMemLockTimeout = 2 * time.Second

// RepoMem is an in-memory ledger with the same locking and atomicity contract as RepoPGS.
//
// Each account has a one-slot channel acting as its row lock. A unit stages its
// writes in private maps and publishes them only if its body returns nil.
// Movement rows are protected by the lock of their owning account.
type RepoMem struct {
	mu            sync.Mutex
	accounts      map[int64]domain.Account
	owners        map[string]int64
	movements     map[int64]domain.Movement
	notifications map[int64]domain.Notification
	locks         map[int64]chan struct{}

	lastAccountID      int64
	lastMovementID     int64
	lastNotificationID int64

	lockTimeout time.Duration
	now         func() time.Time
}

// MemOption configures RepoMem.
type MemOption func(*RepoMem)

// WithLockTimeout bounds the wait for each account lock.
func WithLockTimeout(d time.Duration) MemOption {
	return func(r *RepoMem) {
		r.lockTimeout = d
	}
}

// WithClock sets the source of created_at timestamps.
func WithClock(now func() time.Time) MemOption {
	return func(r *RepoMem) {
		r.now = now
	}
}

// NewRepoMem returns an empty in-memory ledger.
func NewRepoMem(opts ...MemOption) *RepoMem {
	r := &RepoMem{
		accounts:      make(map[int64]domain.Account),
		owners:        make(map[string]int64),
		movements:     make(map[int64]domain.Movement),
		notifications: make(map[int64]domain.Notification),
		locks:         make(map[int64]chan struct{}),
		lockTimeout:   defaultMemLockTimeout,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// CreateAccount opens an account for the owner. A positive opening balance is
// recorded as an approved deposit so the balance stays derivable from movements.
func (r *RepoMem) CreateAccount(_ context.Context, owner string, opening decimal.Decimal) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[owner]; ok {
		return domain.Account{}, domain.ErrAccountAlreadyExists
	}

	if opening.IsNegative() {
		return domain.Account{}, domain.ErrInsufficientFunds
	}

	r.lastAccountID++

	acc := domain.Account{
		ID:        r.lastAccountID,
		Owner:     owner,
		Balance:   opening,
		CreatedAt: r.now(),
	}

	r.accounts[acc.ID] = acc
	r.owners[owner] = acc.ID

	if opening.IsPositive() {
		r.lastMovementID++
		decidedBy := owner
		decidedAt := acc.CreatedAt

		r.movements[r.lastMovementID] = domain.Movement{
			ID:        r.lastMovementID,
			AccountID: acc.ID,
			Amount:    opening,
			Kind:      domain.KindDeposit,
			State:     domain.StateApproved,
			DecidedBy: &decidedBy,
			DecidedAt: &decidedAt,
			CreatedAt: acc.CreatedAt,
		}
	}

	return acc, nil
}

// Get returns the committed state of the account.
func (r *RepoMem) Get(_ context.Context, id int64) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return acc, nil
}

// GetByOwner returns the committed state of the owner's account.
func (r *RepoMem) GetByOwner(ctx context.Context, owner string) (domain.Account, error) {
	r.mu.Lock()
	id, ok := r.owners[owner]
	r.mu.Unlock()

	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return r.Get(ctx, id)
}

// GetAccountByOwner is GetByOwner under the name the ledger engine expects.
func (r *RepoMem) GetAccountByOwner(ctx context.Context, owner string) (domain.Account, error) {
	return r.GetByOwner(ctx, owner)
}

// GetMovement returns the committed state of the movement.
func (r *RepoMem) GetMovement(_ context.Context, id int64) (domain.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.movements[id]
	if !ok {
		return domain.Movement{}, domain.ErrMovementNotFound
	}

	return m, nil
}

// ListPending returns the committed pending movements, oldest first.
func (r *RepoMem) ListPending(_ context.Context, limit, offset int32) ([]domain.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := []domain.Movement{}

	for _, m := range r.movements {
		if m.State == domain.StatePending {
			items = append(items, m)
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	if int(offset) >= len(items) {
		return []domain.Movement{}, nil
	}

	items = items[offset:]
	if int(limit) < len(items) {
		items = items[:limit]
	}

	return items, nil
}

// Movements returns the committed movements touching the account in creation order.
func (r *RepoMem) Movements(_ context.Context, accountID int64) []domain.Movement {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []domain.Movement

	for _, m := range r.movements {
		if m.AccountID == accountID || (m.CounterpartyAccountID != nil && *m.CounterpartyAccountID == accountID) {
			items = append(items, m)
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	return items
}

// Notifications returns the committed notifications of the owner in creation order.
func (r *RepoMem) Notifications(_ context.Context, owner string) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []domain.Notification

	for _, n := range r.notifications {
		if n.Owner == owner {
			items = append(items, n)
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	return items
}

// RecomputeBalance returns the sum of signed effects of the approved movements of the account.
func (r *RepoMem) RecomputeBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, m := range r.Movements(ctx, id) {
		sum = sum.Add(m.SignedEffect(id))
	}

	return sum, nil
}

func (r *RepoMem) lock(id int64) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		r.locks[id] = ch
	}

	return ch
}

// WithinTx acquires the account locks in ascending id order, runs fn against
// staged copies and publishes the staged writes if fn returns nil.
func (r *RepoMem) WithinTx(ctx context.Context, lockIDs []int64, fn ledgerservice.UnitFunc) error {
	ids := LockOrder(lockIDs)
	acquired := make([]chan struct{}, 0, len(ids))

	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			<-acquired[i]
		}
	}

	timer := time.NewTimer(r.lockTimeout)
	defer timer.Stop()

	for _, id := range ids {
		ch := r.lock(id)

		select {
		case ch <- struct{}{}:
			acquired = append(acquired, ch)
		case <-timer.C:
			release()
			return domain.ErrConcurrencyConflict
		case <-ctx.Done():
			release()
			return ctx.Err()
		}
	}

	defer release()

	u := &memUnit{
		repo:          r,
		locks:         newLockSet(ids),
		accounts:      make(map[int64]domain.Account),
		movements:     make(map[int64]domain.Movement),
		notifications: make(map[int64]domain.Notification),
	}

	r.mu.Lock()
	for _, id := range ids {
		if _, ok := r.accounts[id]; ok {
			u.locks.held[id] = true
		}
	}
	r.mu.Unlock()

	if err := fn(ctx, u); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, acc := range u.accounts {
		r.accounts[id] = acc
	}

	for id, m := range u.movements {
		r.movements[id] = m
	}

	for id, n := range u.notifications {
		r.notifications[id] = n
	}

	return nil
}

// memUnit is the ledgerservice.Tx of one RepoMem unit.
type memUnit struct {
	repo          *RepoMem
	locks         lockSet
	accounts      map[int64]domain.Account
	movements     map[int64]domain.Movement
	notifications map[int64]domain.Notification
}

func (u *memUnit) account(id int64) (domain.Account, bool) {
	if acc, ok := u.accounts[id]; ok {
		return acc, true
	}

	u.repo.mu.Lock()
	defer u.repo.mu.Unlock()

	acc, ok := u.repo.accounts[id]

	return acc, ok
}

func (u *memUnit) exists(id int64) bool {
	_, ok := u.account(id)
	return ok
}

func (u *memUnit) Account(_ context.Context, id int64) (domain.Account, error) {
	if err := u.locks.check(id); err != nil {
		return domain.Account{}, err
	}

	acc, _ := u.account(id)

	return acc, nil
}

func (u *memUnit) AdjustBalance(_ context.Context, id int64, delta decimal.Decimal) (domain.Account, error) {
	if err := u.locks.check(id); err != nil {
		return domain.Account{}, err
	}

	acc, _ := u.account(id)

	balance := acc.Balance.Add(delta)
	if balance.IsNegative() {
		return domain.Account{}, domain.ErrInsufficientFunds
	}

	if !moneypkg.Fits(balance) {
		return domain.Account{}, domain.ErrBalanceLimitExceeded
	}

	acc.Balance = balance
	u.accounts[id] = acc

	return acc, nil
}

func (u *memUnit) CreateMovement(_ context.Context, arg domain.CreateMovementParams) (domain.Movement, error) {
	if err := domain.ValidateAmount(arg.Amount); err != nil {
		return domain.Movement{}, err
	}

	if !u.exists(arg.AccountID) {
		return domain.Movement{}, domain.ErrAccountNotFound
	}

	if arg.CounterpartyAccountID != nil {
		if *arg.CounterpartyAccountID == arg.AccountID {
			return domain.Movement{}, domain.ErrSelfTransfer
		}

		if !u.exists(*arg.CounterpartyAccountID) {
			return domain.Movement{}, domain.ErrRecipientNotFound
		}
	}

	if !arg.Kind.Valid() || (arg.Kind == domain.KindTransfer) != (arg.CounterpartyAccountID != nil) {
		return domain.Movement{}, errorspkg.ErrInternal
	}

	u.repo.mu.Lock()
	u.repo.lastMovementID++
	id := u.repo.lastMovementID
	createdAt := u.repo.now()
	u.repo.mu.Unlock()

	m := domain.Movement{
		ID:                    id,
		AccountID:             arg.AccountID,
		CounterpartyAccountID: arg.CounterpartyAccountID,
		Amount:                arg.Amount,
		Kind:                  arg.Kind,
		State:                 arg.State,
		CreatedAt:             createdAt,
	}

	u.movements[id] = m

	return m, nil
}

func (u *memUnit) Movement(_ context.Context, id int64) (domain.Movement, error) {
	if m, ok := u.movements[id]; ok {
		return m, nil
	}

	u.repo.mu.Lock()
	defer u.repo.mu.Unlock()

	m, ok := u.repo.movements[id]
	if !ok {
		return domain.Movement{}, domain.ErrMovementNotFound
	}

	return m, nil
}

func (u *memUnit) FinalizeMovement(ctx context.Context, arg domain.FinalizeMovementParams) (domain.Movement, error) {
	m, err := u.Movement(ctx, arg.ID)
	if err != nil {
		return domain.Movement{}, err
	}

	if !m.State.CanTransitionTo(arg.State) {
		return domain.Movement{}, domain.ErrNotPending
	}

	if arg.State == domain.StateRejected && arg.RejectionReason == nil {
		return domain.Movement{}, domain.ErrMissingReason
	}

	decidedBy := arg.DecidedBy
	decidedAt := arg.DecidedAt

	m.State = arg.State
	m.RejectionReason = arg.RejectionReason
	m.DecidedBy = &decidedBy
	m.DecidedAt = &decidedAt

	u.movements[m.ID] = m

	return m, nil
}

func (u *memUnit) SumWithdrawals(_ context.Context, accountID int64, w domain.Window) (decimal.Decimal, error) {
	u.repo.mu.Lock()
	all := make(map[int64]domain.Movement, len(u.repo.movements)+len(u.movements))
	for id, m := range u.repo.movements {
		all[id] = m
	}
	u.repo.mu.Unlock()

	for id, m := range u.movements {
		all[id] = m
	}

	sum := decimal.Zero

	for _, m := range all {
		if m.AccountID != accountID || m.Kind != domain.KindWithdraw || m.State == domain.StateRejected {
			continue
		}

		if w.Contains(m.CreatedAt) {
			sum = sum.Add(m.Amount)
		}
	}

	return sum, nil
}

func (u *memUnit) CreateNotification(_ context.Context, arg domain.CreateNotificationParams,
) (domain.Notification, error) {
	u.repo.mu.Lock()
	u.repo.lastNotificationID++
	n := domain.Notification{
		ID:        u.repo.lastNotificationID,
		Owner:     arg.Owner,
		Message:   arg.Message,
		CreatedAt: u.repo.now(),
	}
	u.repo.mu.Unlock()

	u.notifications[n.ID] = n

	return n, nil
}
