// Package queue carries deferred feed fan-out work over Kafka.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/models"

	"github.com/segmentio/kafka-go"
)

// FanoutPublisher hands a deferred fan-out to the consumers.
type FanoutPublisher interface {
	PublishFanout(ctx context.Context, msg models.FanoutMessage) error
	Close() error
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer publishes fan-out messages keyed by creator id, so one
// creator's work stays ordered on a partition.
type KafkaProducer struct {
	writer messageWriter
	topic  string
}

func NewKafkaProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{writer: w, topic: cfg.Topic}, nil
}

func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *KafkaProducer) PublishFanout(ctx context.Context, msg models.FanoutMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(MakeKeyFromID(msg.CreatorID)),
		Value: value,
	}); err != nil {
		return fmt.Errorf("publish fanout %d to %s: %w", msg.OutboxID, p.topic, err)
	}
	return nil
}

func MakeKeyFromID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// FanoutHandler processes one deferred fan-out.
type FanoutHandler func(ctx context.Context, msg models.FanoutMessage) error

// KafkaConsumer reads fan-out messages as part of a consumer group.
type KafkaConsumer struct {
	reader messageReader
	logger *slog.Logger
}

func NewKafkaConsumer(cfg KafkaConfig) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	return &KafkaConsumer{reader: r, logger: middleware.Component("fanout-consumer")}, nil
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

// Run consumes until ctx is cancelled. Each message is committed after the
// handler returns; a failed fan-out is already recorded on its outbox row
// and will be dispatched again by the relay.
func (c *KafkaConsumer) Run(ctx context.Context, handle FanoutHandler) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		var msg models.FanoutMessage
		if err := json.Unmarshal(m.Value, &msg); err != nil || msg.OutboxID == 0 {
			c.logger.Warn("dropping malformed fanout message",
				slog.Int64("offset", m.Offset),
				slog.Int("partition", m.Partition))
		} else if err := handle(ctx, msg); err != nil {
			c.logger.Error("fanout handler failed",
				slog.Uint64("outbox_id", uint64(msg.OutboxID)),
				slog.String("error", err.Error()))
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit message: %w", err)
		}
	}
}
