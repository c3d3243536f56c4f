package pubsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures a KafkaBridge.
type KafkaConfig struct {
	// Required
	Brokers []string
	Topic   string

	// Optional. When empty every process gets its own consumer group, so each
	// hub instance sees every event.
	GroupID string
}

// kafkaEnvelope is the value written to Kafka. All bus topics share a single
// Kafka topic and are told apart by Topic.
type kafkaEnvelope struct {
	Topic    string            `json:"topic"`
	UserID   string            `json:"user_id,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

// writerBatchTimeout bounds how long a publish waits for more messages to
// batch with. kafka-go defaults to a full second.
const writerBatchTimeout = 5 * time.Millisecond

// KafkaBridge implements Bus on top of a Kafka topic. It lets several hub
// processes share one broadcast stream.
type KafkaBridge struct {
	cfg    KafkaConfig
	writer *kafka.Writer
	logger *slog.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
	wg      sync.WaitGroup
	closed  bool
}

var _ Bus = (*KafkaBridge)(nil)

// NewKafkaBridge creates a bridge. No connection is made until the first
// publish or subscribe.
func NewKafkaBridge(cfg KafkaConfig) (*KafkaBridge, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka bridge requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka bridge requires a topic")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "chatwire-" + uuid.NewString()
	}

	return &KafkaBridge{
		cfg: cfg,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			RequiredAcks:           kafka.RequireOne,
			Balancer:               &kafka.LeastBytes{},
			// Publish runs on a peer's read pump; do not hold it for a batch.
			BatchTimeout:           writerBatchTimeout,
			AllowAutoTopicCreation: true,
		},
		logger: slog.Default().With("component", "kafka_bridge", "topic", cfg.Topic),
	}, nil
}

func encodeEnvelope(msg Message) ([]byte, error) {
	return json.Marshal(kafkaEnvelope{
		Topic:    msg.Topic,
		UserID:   msg.UserID,
		Metadata: msg.Metadata,
		Payload:  msg.Payload,
	})
}

func decodeEnvelope(value []byte) (Message, error) {
	var env kafkaEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		return Message{}, fmt.Errorf("decode kafka envelope: %w", err)
	}
	return Message{
		Topic:    env.Topic,
		UserID:   env.UserID,
		Payload:  env.Payload,
		Metadata: env.Metadata,
	}, nil
}

// Publish implements the Publisher interface.
func (kb *KafkaBridge) Publish(ctx context.Context, msg Message) error {
	value, err := encodeEnvelope(msg)
	if err != nil {
		return err
	}
	return kb.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Topic),
		Value: value,
	})
}

// Subscribe implements the Subscriber interface. Each call opens its own reader.
func (kb *KafkaBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return errors.New("kafka bridge is closed")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     kb.cfg.Brokers,
		Topic:       kb.cfg.Topic,
		GroupID:     kb.cfg.GroupID + "." + topic,
		StartOffset: kafka.LastOffset,
	})
	kb.readers = append(kb.readers, reader)

	kb.wg.Add(1)
	go func() {
		defer kb.wg.Done()
		for {
			raw, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					kb.logger.Debug("Kafka reader stopped", "bus_topic", topic, "error", err)
				}
				return
			}
			kb.dispatch(ctx, topic, raw.Value, handler)
		}
	}()

	return nil
}

// dispatch decodes one record and hands it to handler if it belongs to topic.
func (kb *KafkaBridge) dispatch(ctx context.Context, topic string, value []byte, handler Handler) {
	msg, err := decodeEnvelope(value)
	if err != nil {
		kb.logger.Warn("Dropping malformed kafka record", "error", err)
		return
	}
	if msg.Topic != topic {
		return
	}
	if err := handler(ctx, msg); err != nil {
		kb.logger.Error("Failed to handle message", "bus_topic", topic, "error", err)
	}
}

// Close stops all readers and the writer.
func (kb *KafkaBridge) Close() error {
	kb.mu.Lock()
	if kb.closed {
		kb.mu.Unlock()
		return nil
	}
	kb.closed = true
	readers := kb.readers
	kb.mu.Unlock()

	var errs []error
	for _, r := range readers {
		errs = append(errs, r.Close())
	}
	kb.wg.Wait()
	errs = append(errs, kb.writer.Close())
	return errors.Join(errs...)
}
