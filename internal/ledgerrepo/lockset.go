package ledgerrepo

import (
	"slices"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
)

// LockOrder returns the distinct ids in ascending order. Every unit acquires
// account locks in this order so two units never wait on each other in a cycle.
func LockOrder(ids []int64) []int64 {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	return slices.Compact(sorted)
}

// lockSet tracks which accounts a unit asked for and which of them exist.
type lockSet struct {
	requested map[int64]bool
	held      map[int64]bool
}

func newLockSet(ids []int64) lockSet {
	s := lockSet{
		requested: make(map[int64]bool, len(ids)),
		held:      make(map[int64]bool, len(ids)),
	}

	for _, id := range ids {
		s.requested[id] = true
	}

	return s
}

// check reports whether the unit may touch the account.
func (s lockSet) check(id int64) error {
	if !s.requested[id] {
		return errorspkg.ErrInternal
	}

	if !s.held[id] {
		return domain.ErrAccountNotFound
	}

	return nil
}
