package ledgerservice

import (
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	movementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_movements_total",
		Help: "Movements that reached a state, by kind and state",
	}, []string{"kind", "state"})

	conflictRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_conflict_retries_total",
		Help: "Atomic units retried after a concurrency conflict",
	})
)

// Observe counts the movement under its current kind and state.
func Observe(m domain.Movement) {
	movementsTotal.WithLabelValues(string(m.Kind), string(m.State)).Inc()
}
