package stream

import (
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const flushTimeout = 5 * time.Second

type KafkaStream struct {
	kafkaServers string
	producer     *kafka.Producer
}

// New connects one producer for the lifetime of the process.
func New(kafkaServers string) (*KafkaStream, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  kafkaServers,
		"enable.idempotence": true,
		"acks":               "all",
	})
	if err != nil {
		return nil, err
	}

	return &KafkaStream{
		kafkaServers: kafkaServers,
		producer:     producer,
	}, nil
}

// ProduceMessage writes message to topic and waits for the broker to
// acknowledge it.
func (st *KafkaStream) ProduceMessage(topic string, message []byte) error {
	delivery := make(chan kafka.Event, 1)

	err := st.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          message,
	}, delivery)
	if err != nil {
		return err
	}

	e := <-delivery
	m, ok := e.(*kafka.Message)
	if !ok {
		return fmt.Errorf("unexpected delivery event %v", e)
	}

	return m.TopicPartition.Error
}

// Ping asks the cluster for the topic's metadata.
func (st *KafkaStream) Ping(topic string, timeout time.Duration) error {
	_, err := st.producer.GetMetadata(&topic, false, int(timeout.Milliseconds()))
	return err
}

func (st *KafkaStream) Close() {
	st.producer.Flush(int(flushTimeout.Milliseconds()))
	st.producer.Close()
}

type StreamConsumer struct {
	GroupId string
	Topic   string
}

func (st *KafkaStream) CreateConsumer(consumerStruct *StreamConsumer) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  st.kafkaServers,
		"group.id":           consumerStruct.GroupId,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(consumerStruct.Topic, nil); err != nil {
		consumer.Close()
		return nil, err
	}

	return consumer, nil
}
