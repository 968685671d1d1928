package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/FlightBoard/internal/broker/messages"
	"github.com/BearBump/FlightBoard/internal/logger"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r   messageReader
	log logger.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log logger.Logger) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}
	if groupID != "" {
		cfg.GroupTopics = []string{topic}
	} else {
		cfg.Topic = topic
	}
	return newConsumerWithReader(kafka.NewReader(cfg), log)
}

func newConsumerWithReader(r messageReader, log logger.Logger) *Consumer {
	if log == nil {
		log = logger.Nop()
	}
	return &Consumer{r: r, log: log}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}

// Consume hands every message to handler and commits it only after the handler succeeded.
// A handler error stops consumption and is returned.
func (c *Consumer) Consume(ctx context.Context, handler func(ctx context.Context, key, value []byte) error) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch message")
		}
		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			return err
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, "commit message")
		}
	}
}

// ConsumeBoardUpdated decodes board.updated events. Messages that do not decode are logged and
// committed so a single bad payload cannot block the partition.
func (c *Consumer) ConsumeBoardUpdated(ctx context.Context, handler func(ctx context.Context, msg messages.BoardUpdated) error) error {
	return c.Consume(ctx, func(ctx context.Context, key, value []byte) error {
		var msg messages.BoardUpdated
		if err := json.Unmarshal(value, &msg); err != nil {
			c.log.Warn("skip undecodable board update", "key", string(key), "error", err)
			return nil
		}
		return handler(ctx, msg)
	})
}
