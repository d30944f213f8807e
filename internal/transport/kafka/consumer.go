package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/goliatone/go-webpush/internal/commands"
	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/interfaces/logger"
)

// Handler processes one decoded command.
type Handler func(ctx context.Context, cmd commands.Command) (commands.Response, error)

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

const defaultRetryDelay = 500 * time.Millisecond

// Consumer feeds flow commands from a Kafka topic into the router.
type Consumer struct {
	reader     MessageReader
	handler    Handler
	logger     logger.Logger
	retryDelay time.Duration
}

var ErrMissingHandler = errors.New("kafka: command handler is required")

// NewConsumer builds a consumer reading the configured topic.
func NewConsumer(cfg config.KafkaConfig, handler Handler, l logger.Logger) (*Consumer, error) {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.Brokers,
		GroupID: cfg.GroupID,
		Topic:   cfg.Topic,
	})
	return NewConsumerWithReader(reader, handler, l)
}

// NewConsumerWithReader wraps an existing reader.
func NewConsumerWithReader(reader MessageReader, handler Handler, l logger.Logger) (*Consumer, error) {
	if handler == nil {
		return nil, ErrMissingHandler
	}
	if l == nil {
		l = &logger.Nop{}
	}
	return &Consumer{reader: reader, handler: handler, logger: l, retryDelay: defaultRetryDelay}, nil
}

// Run reads until ctx is cancelled or the reader is closed. Decode and
// handler errors are logged and the loop continues; read errors back off
// before the next attempt.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				c.logger.Info("kafka reader closed")
				return nil
			}
			c.logger.Warn("kafka read error", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
			continue
		}
		c.process(ctx, m)
	}
}

func (c *Consumer) process(ctx context.Context, m kafkago.Message) {
	cmd, err := decodeMessage(m)
	if err != nil {
		c.logger.Warn("kafka message skipped", "topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "error", err)
		return
	}
	resp, err := c.handler(ctx, cmd)
	if err != nil {
		c.logger.Warn("kafka handler error", "command_id", resp.CommandID, "offset", m.Offset, "error", err)
		return
	}
	c.logger.Debug("kafka command handled", "command_id", resp.CommandID, "intent", resp.Intent, "offset", m.Offset)
}

// decodeMessage reads the command from the message value. The message key,
// when present, becomes the command id if the value has none.
func decodeMessage(m kafkago.Message) (commands.Command, error) {
	var cmd commands.Command
	if err := json.Unmarshal(m.Value, &cmd); err != nil {
		return cmd, err
	}
	if cmd.ID == "" && len(m.Key) > 0 {
		cmd.ID = string(m.Key)
	}
	return cmd, nil
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
