package worker

import (
	"context"
	"errors"

	"github.com/cradoe/coinledger/internal/models"
	"github.com/cradoe/coinledger/internal/queue"
	"github.com/google/uuid"
)

// Result summarises one drain cycle.
type Result struct {
	BatchID  string
	Dequeued int
	Applied  int
	Failed   int
	Requeued int
}

// Run drains the queue until ctx is cancelled. Cancellation is observed
// between batches; a batch already dequeued is always applied.
func (wk *BatchWorker) Run(ctx context.Context) error {
	wk.Logger.Info("order batch worker started", "batch_size", wk.BatchSize, "polling_interval", wk.PollingInterval.String())
	defer wk.Logger.Info("order batch worker stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := wk.Queue.Ping(ctx); err != nil {
			wk.Logger.Warn("order queue unreachable, backing off", "error", err, "backoff", wk.Backoff.String())
			if !sleep(ctx, wk.Backoff) {
				return nil
			}
			continue
		}

		res, err := wk.DrainOnce(ctx)
		if err != nil {
			wk.Logger.Error("order batch failed", "batch_id", res.BatchID, "error", err)

			wait := wk.PollingInterval
			if errors.Is(err, queue.ErrTransportFailure) {
				wait = wk.Backoff
			}
			if !sleep(ctx, wait) {
				return nil
			}
			continue
		}

		if res.Dequeued == 0 && !sleep(ctx, wk.PollingInterval) {
			return nil
		}
	}
}

// DrainOnce dequeues up to BatchSize orders and applies them. Payloads that do
// not decode and orders the ledger rejects are skipped without failing the
// batch. If the batch cannot be applied at all its orders are put back on the
// queue and the error is returned.
func (wk *BatchWorker) DrainOnce(ctx context.Context) (Result, error) {
	res := Result{BatchID: uuid.NewString()}

	// once a payload leaves the queue it must be applied, requeued or dead
	// lettered, so the batch runs to completion even if ctx is cancelled
	work := context.WithoutCancel(ctx)

	payloads := make([][]byte, 0, wk.BatchSize)
	for len(payloads) < wk.BatchSize && ctx.Err() == nil {
		payload, err := wk.Queue.Dequeue(work)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) {
				break
			}
			if len(payloads) == 0 {
				return res, err
			}
			wk.Logger.Warn("dequeue interrupted, applying partial batch", "batch_id", res.BatchID, "error", err)
			break
		}
		payloads = append(payloads, payload)
	}

	res.Dequeued = len(payloads)
	if res.Dequeued == 0 {
		return res, nil
	}

	orders := make([]models.Order, 0, len(payloads))
	sources := make([][]byte, 0, len(payloads))
	for _, payload := range payloads {
		order, err := models.DecodeOrder(payload)
		if err != nil {
			wk.fail(work, res.BatchID, payload, err)
			res.Failed++
			continue
		}
		orders = append(orders, *order)
		sources = append(sources, payload)
	}

	if len(orders) > 0 {
		applied, err := wk.Ledger.ApplyOrders(work, orders, func(i int, order models.Order, err error) {
			wk.fail(work, res.BatchID, sources[i], err)
			res.Failed++
		})
		if err != nil {
			res.Requeued = wk.requeue(work, res.BatchID, orders)
			return res, err
		}
		res.Applied = applied
	}

	wk.Logger.Info("order batch processed",
		"batch_id", res.BatchID,
		"size", res.Dequeued,
		"applied", res.Applied,
		"failed", res.Failed,
	)

	return res, nil
}

func (wk *BatchWorker) fail(ctx context.Context, batchID string, payload []byte, err error) {
	wk.Logger.Warn("order skipped", "batch_id", batchID, "order", string(payload), "error", err)

	if !wk.DeadLetter {
		return
	}

	if dlErr := wk.Queue.DeadLetter(ctx, payload, err.Error()); dlErr != nil {
		wk.Logger.Error("dead letter failed", "batch_id", batchID, "order", string(payload), "error", dlErr)
	}
}

func (wk *BatchWorker) requeue(ctx context.Context, batchID string, orders []models.Order) int {
	var requeued int
	for _, order := range orders {
		if err := wk.Queue.Enqueue(ctx, order); err != nil {
			wk.Logger.Error("order lost after failed batch", "batch_id", batchID, "owner_id", order.OwnerID, "asset", order.Asset, "error", err)
			continue
		}
		requeued++
	}
	return requeued
}
