package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cradoe/coinledger/internal/models"
)

var (
	ErrEmpty            = errors.New("queue is empty")
	ErrTransportFailure = errors.New("queue transport failure")
)

// Queue is a durable FIFO of encoded orders shared by the API and the batch
// worker. Delivery into the worker is at least once.
type Queue interface {
	Enqueue(ctx context.Context, order models.Order) error
	// Dequeue removes and returns the oldest payload, or ErrEmpty.
	Dequeue(ctx context.Context) ([]byte, error)
	DeadLetter(ctx context.Context, payload []byte, reason string) error
	Ping(ctx context.Context) error
	Close() error
}

type deadLetter struct {
	Payload  string    `json:"payload"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

func encodeDeadLetter(payload []byte, reason string) ([]byte, error) {
	return json.Marshal(deadLetter{
		Payload:  string(payload),
		Reason:   reason,
		FailedAt: time.Now().UTC(),
	})
}
