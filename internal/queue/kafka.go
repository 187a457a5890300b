package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/cradoe/coinledger/internal/models"
	"github.com/cradoe/coinledger/internal/stream"
)

const (
	OrderSubmittedTopic = "orders.submitted"
	OrderDeadTopic      = "orders.dead"
	OrderWorkerGroup    = "order-batch-worker"

	pollTimeout = 100 * time.Millisecond
)

// Kafka queues orders on a single-partition topic so that consumption order
// matches submission order. Offsets are committed as each message is
// dequeued.
type Kafka struct {
	stream   *stream.KafkaStream
	consumer *kafka.Consumer
}

func NewKafka(st *stream.KafkaStream) (*Kafka, error) {
	consumer, err := st.CreateConsumer(&stream.StreamConsumer{
		GroupId: OrderWorkerGroup,
		Topic:   OrderSubmittedTopic,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}

	return &Kafka{stream: st, consumer: consumer}, nil
}

func (q *Kafka) Enqueue(ctx context.Context, order models.Order) error {
	payload, err := order.Encode()
	if err != nil {
		return err
	}

	if err := q.stream.ProduceMessage(OrderSubmittedTopic, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}

	return nil
}

func (q *Kafka) Dequeue(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ev := q.consumer.Poll(int(pollTimeout.Milliseconds()))
		switch e := ev.(type) {
		case nil:
			return nil, ErrEmpty
		case *kafka.Message:
			if _, err := q.consumer.CommitMessage(e); err != nil {
				return nil, fmt.Errorf("%w: commit offset: %v", ErrTransportFailure, err)
			}
			return e.Value, nil
		case kafka.Error:
			if e.IsFatal() {
				return nil, fmt.Errorf("%w: %v", ErrTransportFailure, e)
			}
			// non-fatal client errors are retried by librdkafka
			return nil, ErrEmpty
		default:
			// rebalance and stats events carry no payload
			continue
		}
	}
}

func (q *Kafka) DeadLetter(ctx context.Context, payload []byte, reason string) error {
	entry, err := encodeDeadLetter(payload, reason)
	if err != nil {
		return err
	}

	if err := q.stream.ProduceMessage(OrderDeadTopic, entry); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}

	return nil
}

func (q *Kafka) Ping(ctx context.Context) error {
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	if err := q.stream.Ping(OrderSubmittedTopic, timeout); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}

	return nil
}

func (q *Kafka) Close() error {
	err := q.consumer.Close()
	q.stream.Close()
	return err
}
