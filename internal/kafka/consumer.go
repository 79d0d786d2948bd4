package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler processes one message from the notifications topic. A nil
// return commits the offset and moves on; an error stops the consume
// loop.
type Handler func(context.Context, kafka.Message) error

// Consumer is a group consumer over the status-change notifications
// topic. One consumer per worker process; the group ID keeps multiple
// workers from double-delivering notifications.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

// Consume delivers messages to the handler one at a time until the
// context is canceled or the handler fails. Handler errors are
// terminal: the message is not skipped, the loop stops and the error
// surfaces to the caller.
func (c *Consumer) Consume(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}
		if err := handle(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
