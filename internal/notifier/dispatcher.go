package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when the message was dropped.
var ErrQueueFull = errors.New("notification queue is full")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("notification dispatcher is closed")

var deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ledger_notifications_total",
	Help: "Out-of-band notifications by result",
}, []string{"result"})

type job struct {
	username string
	subject  string
	body     string
	logger   zerolog.Logger
}

// Dispatcher delivers messages asynchronously through a bounded queue.
type Dispatcher struct {
	next    Notifier
	queue   chan job
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts the configured number of workers delivering through next.
func NewDispatcher(next Notifier, config configpkg.Config) *Dispatcher {
	workers := config.NotifierWorkers
	if workers < 1 {
		workers = 1
	}

	size := config.NotifierQueueSize
	if size < 0 {
		size = 0
	}

	d := &Dispatcher{
		next:    next,
		queue:   make(chan job, size),
		timeout: config.NotifierTimeout,
	}

	d.wg.Add(workers)

	for i := 0; i < workers; i++ {
		go d.work()
	}

	return d
}

// Notify enqueues the message and returns without waiting for delivery.
// It never blocks; a full queue drops the message.
func (d *Dispatcher) Notify(ctx context.Context, username, subject, body string) error {
	l := zerolog.Ctx(ctx)

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}

	select {
	case d.queue <- job{username: username, subject: subject, body: body, logger: *l}:
		return nil
	default:
		deliveriesTotal.WithLabelValues("dropped").Inc()
		l.Warn().Str("username", username).Str("subject", subject).Msg("notification dropped")

		return ErrQueueFull
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()

	for j := range d.queue {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx := j.logger.WithContext(context.Background())

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)

		defer cancel()
	}

	if err := d.next.Notify(ctx, j.username, j.subject, j.body); err != nil {
		deliveriesTotal.WithLabelValues("failed").Inc()
		j.logger.Warn().Err(err).Str("username", j.username).Str("subject", j.subject).Msg("notification not delivered")

		return
	}

	deliveriesTotal.WithLabelValues("delivered").Inc()
}

// Close stops accepting messages and waits until the queued ones are delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}

	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}
