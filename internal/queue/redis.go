package queue

import (
	"context"
	"fmt"

	"github.com/cradoe/coinledger/internal/models"
)

const (
	OrderQueueKey      = "orders:queue"
	DeadLetterQueueKey = "orders:dead"
)

// ListStore is the Redis list surface the queue is built on.
type ListStore interface {
	LPush(ctx context.Context, key string, value []byte) error
	RPop(ctx context.Context, key string) ([]byte, bool, error)
	Ping(ctx context.Context) error
}

// Redis queues orders on a Redis list: LPUSH on enqueue, RPOP on dequeue.
type Redis struct {
	store ListStore
}

func NewRedis(store ListStore) *Redis {
	return &Redis{store: store}
}

func (q *Redis) Enqueue(ctx context.Context, order models.Order) error {
	payload, err := order.Encode()
	if err != nil {
		return err
	}

	if err := q.store.LPush(ctx, OrderQueueKey, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}

	return nil
}

func (q *Redis) Dequeue(ctx context.Context) ([]byte, error) {
	payload, found, err := q.store.RPop(ctx, OrderQueueKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	if !found {
		return nil, ErrEmpty
	}

	return payload, nil
}

func (q *Redis) DeadLetter(ctx context.Context, payload []byte, reason string) error {
	entry, err := encodeDeadLetter(payload, reason)
	if err != nil {
		return err
	}

	if err := q.store.LPush(ctx, DeadLetterQueueKey, entry); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}

	return nil
}

func (q *Redis) Ping(ctx context.Context) error {
	if err := q.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	return nil
}

// Close is a no-op: the Redis client belongs to the application.
func (q *Redis) Close() error {
	return nil
}
