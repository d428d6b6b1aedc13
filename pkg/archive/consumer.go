package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mahaj/harmonium/pkg/model"
	"github.com/segmentio/kafka-go"
)

type eventReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader eventReader
	repo   Repository
	log    *slog.Logger
}

func NewConsumer(log *slog.Logger, brokers []string, topic, groupID string, repo Repository) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: r, repo: repo, log: log}
}

// Consume archives events until ctx is cancelled. Read errors are retried.
func (c *Consumer) Consume(ctx context.Context) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("Error reading event, retrying in 1s", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		if err := c.handle(ctx, m.Value); err != nil {
			c.log.Error("Failed to archive event", "offset", m.Offset, "error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, value []byte) error {
	var evt model.Event
	if err := json.Unmarshal(value, &evt); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	switch evt.Name {
	case model.EventAddChannel:
		var channel model.Channel
		if err := evt.Decode(&channel); err != nil {
			return err
		}
		if err := c.repo.SaveChannel(ctx, channel); err != nil {
			return fmt.Errorf("save channel %d: %w", channel.ID, err)
		}
		c.log.Debug("Channel archived", "channel_id", channel.ID)
	case model.EventAddMessage:
		var message model.Message
		if err := evt.Decode(&message); err != nil {
			return err
		}
		if err := c.repo.SaveMessage(ctx, message); err != nil {
			return fmt.Errorf("save message %d: %w", message.ID, err)
		}
		c.log.Debug("Message archived", "message_id", message.ID, "event_id", evt.ID)
	default:
		// Selections are view state, not history.
		c.log.Debug("Skipping event", "event", evt.Name)
	}
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
