package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/freshmart/ordersaga/internal/domain"
)

// envelope is the wire form of an event: the name routes it back to the
// typed decoder on the consuming side.
type envelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// KafkaPublisher writes events to a single topic, keyed by order id so
// all events of one order land on one partition in sequence.
type KafkaPublisher struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafkago.RequireAll,
		},
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt domain.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", evt.EventName(), err)
	}
	value, err := json.Marshal(envelope{Name: evt.EventName(), Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(evt.Key()),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", evt.EventName(), err)
	}
	p.logger.Info("event published",
		zap.String("event", evt.EventName()),
		zap.String("key", evt.Key()),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaConsumer reads the event topic and dispatches each decoded event
// through the registry. Offsets commit only after a successful
// dispatch, so failed deliveries are redelivered (at-least-once); the
// idempotency guard makes that safe downstream.
type KafkaConsumer struct {
	reader   *kafkago.Reader
	registry *Registry
	logger   *zap.Logger
}

func NewKafkaConsumer(brokers []string, topic, groupID string, registry *Registry, logger *zap.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		registry: registry,
		logger:   logger,
	}
}

// Run consumes until ctx is cancelled or the reader is closed.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		evt, err := c.decode(msg.Value)
		if err != nil {
			// Malformed payloads never become deliverable; commit so
			// the partition is not wedged on a poison message.
			c.logger.Error("dropping undecodable message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return fmt.Errorf("commit poison message: %w", err)
			}
			continue
		}

		if err := c.registry.Dispatch(ctx, evt); err != nil {
			c.logger.Warn("dispatch failed, leaving message uncommitted",
				zap.String("event", evt.EventName()),
				zap.String("key", evt.Key()),
				zap.Error(err),
			)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit message: %w", err)
		}
	}
}

func (c *KafkaConsumer) decode(value []byte) (domain.Event, error) {
	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return domain.DecodeEvent(env.Name, env.Payload)
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
