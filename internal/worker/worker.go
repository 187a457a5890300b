package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/cradoe/coinledger/internal/ledger"
	"github.com/cradoe/coinledger/internal/models"
	"github.com/cradoe/coinledger/internal/queue"
)

const (
	// DefaultBatchSize is the most orders applied in one unit of work
	DefaultBatchSize = 100

	// DefaultPollingInterval is how long the worker sleeps after finding the queue empty
	DefaultPollingInterval = 100 * time.Millisecond

	// DefaultBackoff is how long the worker waits before retrying an unreachable queue
	DefaultBackoff = 5 * time.Second
)

// OrderApplier applies a batch of orders, reporting each order it skips.
type OrderApplier interface {
	ApplyOrders(ctx context.Context, orders []models.Order, onFailure ledger.FailureFunc) (int, error)
}

// BatchWorker drains the order queue in batches and applies each batch to the
// ledger in a single unit of work.
type BatchWorker struct {
	Queue           queue.Queue
	Ledger          OrderApplier
	Logger          *slog.Logger
	BatchSize       int
	PollingInterval time.Duration
	Backoff         time.Duration

	// DeadLetter routes orders that fail to apply to the queue's dead letter
	// store. When false they are logged and dropped.
	DeadLetter bool
}

// The worker needs the queue it drains and the ledger it writes to.
// Zero durations and sizes fall back to the defaults above.
func New(wk *BatchWorker) *BatchWorker {
	w := &BatchWorker{
		Queue:           wk.Queue,
		Ledger:          wk.Ledger,
		Logger:          wk.Logger,
		BatchSize:       wk.BatchSize,
		PollingInterval: wk.PollingInterval,
		Backoff:         wk.Backoff,
		DeadLetter:      wk.DeadLetter,
	}

	if w.BatchSize <= 0 {
		w.BatchSize = DefaultBatchSize
	}
	if w.PollingInterval <= 0 {
		w.PollingInterval = DefaultPollingInterval
	}
	if w.Backoff <= 0 {
		w.Backoff = DefaultBackoff
	}
	if w.Logger == nil {
		w.Logger = slog.Default()
	}

	return w
}

// sleep waits for d or until ctx is done, reporting whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
