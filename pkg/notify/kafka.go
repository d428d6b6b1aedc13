package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mahaj/harmonium/pkg/model"
	"github.com/segmentio/kafka-go"
)

// Each Notify writes a single event synchronously; the writer must not hold it
// back waiting for a fuller batch.
const batchTimeout = 10 * time.Millisecond

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher appends every store event to a topic, keyed by event name.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			BatchSize:              1,
			BatchTimeout:           batchTimeout,
			AllowAutoTopicCreation: true,
		},
		timeout: timeout,
	}
}

func (p *KafkaPublisher) Notify(ctx context.Context, event model.Event) error {
	msg, err := encode(event)
	if err != nil {
		return err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s to kafka: %w", event.Name, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func encode(event model.Event) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event %d: %w", event.ID, err)
	}
	return kafka.Message{
		Key:   []byte(event.Name),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(strconv.FormatInt(event.ID, 10))},
		},
	}, nil
}
