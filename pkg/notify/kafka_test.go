package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mahaj/harmonium/pkg/model"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	written  []kafka.Message
	err      error
	deadline bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, w.deadline = ctx.Deadline()
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_WritesEnvelope(t *testing.T) {
	req := require.New(t)
	writer := &fakeWriter{}
	publisher := &KafkaPublisher{writer: writer, timeout: time.Second}

	evt, err := model.NewEvent(model.EventAddMessage, model.NewMessage(10, "hi", 1, 5))
	req.NoError(err)
	evt.ID = 1234

	req.NoError(publisher.Notify(context.Background(), evt))
	req.True(writer.deadline)
	req.Len(writer.written, 1)

	msg := writer.written[0]
	req.Equal("add_message", string(msg.Key))
	req.Equal("event_id", msg.Headers[0].Key)
	req.Equal("1234", string(msg.Headers[0].Value))

	var decoded model.Event
	req.NoError(json.Unmarshal(msg.Value, &decoded))
	req.Equal(evt.ID, decoded.ID)
	req.Equal(evt.Name, decoded.Name)
	req.JSONEq(string(evt.Payload), string(decoded.Payload))
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	errBroker := errors.New("broker unreachable")
	publisher := &KafkaPublisher{writer: &fakeWriter{err: errBroker}}

	err := publisher.Notify(context.Background(), model.Event{Name: model.EventAddChannel, Payload: json.RawMessage(`{}`)})
	require.ErrorIs(t, err, errBroker)
	require.Contains(t, err.Error(), "add_channel")
}

func TestNewKafkaPublisher_FlushesEachEvent(t *testing.T) {
	req := require.New(t)
	publisher := NewKafkaPublisher([]string{"localhost:9092"}, "harmonium-events", time.Second)
	defer publisher.Close()

	writer, ok := publisher.writer.(*kafka.Writer)
	req.True(ok)
	req.Equal("harmonium-events", writer.Topic)
	req.Equal(1, writer.BatchSize)
	req.Equal(batchTimeout, writer.BatchTimeout)
	req.Less(writer.BatchTimeout, 100*time.Millisecond)
	req.False(writer.Async)
}
