package kafka_client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/sentireport/internal/events"
)

// Producer publishes analysis events to a single topic.
type Producer struct {
	producer *kafka.Producer
	topic    string
}

func NewProducer(cfg KafkaConfig) (*Producer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...",
		slog.String("broker", cfg.Broker))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   cfg.Broker,
		"security.protocol":   "PLAINTEXT",
		"api.version.request": "true",
		"enable.idempotence":  true,
		"acks":                "all",
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return &Producer{producer: p, topic: cfg.topic()}, nil
}

func (p *Producer) Close() {
	slog.Info("[KafkaClient] Shutting down Kafka producer...")
	if remaining := p.producer.Flush(int(FLUSH_TIMEOUT / time.Millisecond)); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
	slog.Info("[KafkaClient] Kafka producer shut down")
}

// Publish sends the event keyed by request ID and waits for the delivery
// report or ctx cancellation.
func (p *Producer) Publish(ctx context.Context, event events.AnalysisEvent) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("[KafkaClient] failed to marshal event: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.RequestID),
		Value:          jsonData,
	}

	delivery := make(chan kafka.Event, 1)
	if err := produceWithRetry(ctx, RETRY_DELAY, func() error {
		return p.producer.Produce(msg, delivery)
	}); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-delivery:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("[KafkaClient] unexpected delivery event %v", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("[KafkaClient] delivery failed: %w", m.TopicPartition.Error)
		}
	}

	slog.Debug("[KafkaClient] Published analysis event",
		slog.String("topic", p.topic),
		slog.String("request_id", event.RequestID))
	return nil
}

// Ping fetches cluster metadata to confirm the broker is reachable.
func (p *Producer) Ping(ctx context.Context) error {
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if _, err := p.producer.GetMetadata(&p.topic, false, int(timeout/time.Millisecond)); err != nil {
		return fmt.Errorf("[KafkaClient] metadata request failed: %w", err)
	}
	return nil
}

// produceWithRetry calls produce up to MAX_RETRIES times, waiting delay
// between attempts. A cancelled ctx stops the wait.
func produceWithRetry(ctx context.Context, delay time.Duration, produce func() error) error {
	var err error
	for i := 0; i < MAX_RETRIES; i++ {
		if err = produce(); err == nil {
			return nil
		}
		slog.Warn("[KafkaClient] Failed to produce message, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		if i == MAX_RETRIES-1 {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("[KafkaClient] produce cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("[KafkaClient] failed to produce after %d attempts: %w", MAX_RETRIES, err)
}
