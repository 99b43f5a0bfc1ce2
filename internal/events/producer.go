package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// ChatEvent is published to Kafka after every successful message persist.
// Consumers (cmd/insights) aggregate these into per-group activity counters.
type ChatEvent struct {
	Kind      string    `json:"kind"`
	MessageID string    `json:"message_id"`
	GroupID   string    `json:"group_id"`
	SenderID  string    `json:"sender_id"`
	Timestamp time.Time `json:"timestamp"`
}

const KindMessagePersisted = "chat.message.persisted"

// Publisher emits chat events. Publishing is fire-and-forget from the chat
// path's point of view: failures are logged, never propagated.
type Publisher interface {
	Publish(event ChatEvent)
	Close() error
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(brokers []string, topic string) (Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Version = sarama.V2_0_0_0
	config.ClientID = "genielearn-backend"

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &kafkaPublisher{producer: producer, topic: topic}, nil
}

// Publish keys by group id so per-group event order is preserved.
func (p *kafkaPublisher) Publish(event ChatEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal chat event", "error", err)
		return
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.GroupID),
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		slog.Error("Failed to publish chat event", "groupID", event.GroupID, "error", err)
	}
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher discards events; used when Kafka is not configured and in tests.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ChatEvent) {}
func (NoopPublisher) Close() error      { return nil }
