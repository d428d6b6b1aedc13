package archive

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mahaj/harmonium/pkg/id"
	"github.com/mahaj/harmonium/pkg/model"
	"github.com/mama165/sdk-go/logs"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	channels []model.Channel
	messages []model.Message
	limit    int
	err      error
}

func (f *fakeRepository) SaveChannel(_ context.Context, channel model.Channel) error {
	if f.err != nil {
		return f.err
	}
	f.channels = append(f.channels, channel)
	return nil
}

// SaveMessage upserts by (channel, message id) like the messages table.
func (f *fakeRepository) SaveMessage(_ context.Context, message model.Message) error {
	if f.err != nil {
		return f.err
	}
	for i, m := range f.messages {
		if m.ChannelID == message.ChannelID && m.ID == message.ID {
			f.messages[i] = message
			return nil
		}
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeRepository) History(_ context.Context, channelID id.ID[model.Channel], limit int) ([]model.Message, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Message
	for _, m := range f.messages {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeReader serves queued records, then blocks until ctx ends.
type fakeReader struct {
	records chan kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.records:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error { return nil }

func encodeEvent(t *testing.T, name model.EventName, eventID int64, payload any) []byte {
	t.Helper()
	evt, err := model.NewEvent(name, payload)
	require.NoError(t, err)
	evt.ID = eventID
	b, err := json.Marshal(evt)
	require.NoError(t, err)
	return b
}

func TestConsumer_ArchivesChannelsAndMessages(t *testing.T) {
	req := require.New(t)
	repo := &fakeRepository{}
	consumer := &Consumer{repo: repo, log: logs.GetLoggerFromLevel(slog.LevelDebug)}
	ctx := context.Background()

	req.NoError(consumer.handle(ctx, encodeEvent(t, model.EventAddChannel, 1, model.NewChannel(1, "general"))))
	req.NoError(consumer.handle(ctx, encodeEvent(t, model.EventAddMessage, 2, model.NewMessage(10, "hi", 1, 5))))
	req.NoError(consumer.handle(ctx, encodeEvent(t, model.EventSetCurrentChannel, 3, model.ChannelSelection{})))

	req.Equal([]model.Channel{model.NewChannel(1, "general")}, repo.channels)
	req.Equal([]model.Message{model.NewMessage(10, "hi", 1, 5)}, repo.messages)
}

func TestConsumer_RepublishedMessageKeepsOneRow(t *testing.T) {
	req := require.New(t)
	repo := &fakeRepository{}
	consumer := &Consumer{repo: repo, log: logs.GetLoggerFromLevel(slog.LevelDebug)}
	ctx := context.Background()

	// A restarted shell publishes the same message under a new event id.
	req.NoError(consumer.handle(ctx, encodeEvent(t, model.EventAddMessage, 100, model.NewMessage(7896, "hello", 1, 5))))
	req.NoError(consumer.handle(ctx, encodeEvent(t, model.EventAddMessage, 200, model.NewMessage(7896, "hello", 1, 5))))
	req.Equal([]model.Message{model.NewMessage(7896, "hello", 1, 5)}, repo.messages)
}

func TestSchema_MessagesKeyedByMessageID(t *testing.T) {
	req := require.New(t)
	req.Len(schema, 2)
	req.Contains(schema[1], "PRIMARY KEY (channel_id, id)")
	req.NotContains(schema[1], "seq")
}

func TestConsumer_HandleErrors(t *testing.T) {
	req := require.New(t)
	errDown := errors.New("scylla down")
	consumer := &Consumer{repo: &fakeRepository{err: errDown}, log: logs.GetLoggerFromLevel(slog.LevelDebug)}
	ctx := context.Background()

	req.Error(consumer.handle(ctx, []byte(`not json`)))
	req.Error(consumer.handle(ctx, []byte(`{"event":"add_message","payload":{"id":"x"}}`)))
	req.ErrorIs(consumer.handle(ctx, encodeEvent(t, model.EventAddChannel, 1, model.NewChannel(1, "general"))), errDown)
}

func TestConsumer_ConsumeUntilCancelled(t *testing.T) {
	req := require.New(t)
	repo := &fakeRepository{}
	reader := &fakeReader{records: make(chan kafka.Message, 3)}
	consumer := &Consumer{reader: reader, repo: repo, log: logs.GetLoggerFromLevel(slog.LevelDebug)}

	reader.records <- kafka.Message{Value: encodeEvent(t, model.EventAddChannel, 1, model.NewChannel(1, "general"))}
	reader.records <- kafka.Message{Value: []byte(`garbage`)}
	reader.records <- kafka.Message{Value: encodeEvent(t, model.EventAddMessage, 2, model.NewMessage(10, "hi", 1, 5))}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Consume(ctx) }()

	req.Eventually(func() bool { return len(reader.records) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		req.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		req.Fail("consumer did not stop")
	}
	req.Len(repo.channels, 1)
	req.Len(repo.messages, 1)
}

func TestHistoryHandler(t *testing.T) {
	req := require.New(t)
	repo := &fakeRepository{messages: []model.Message{
		model.NewMessage(10, "hi", 1, 5),
		model.NewMessage(11, "elsewhere", 2, 5),
	}}
	handler := NewHistoryHandler(logs.GetLoggerFromLevel(slog.LevelDebug), repo)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history?channel_id=1", nil))
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`[{"id":10,"channel_id":1,"author_id":5,"content":"hi"}]`, w.Body.String())
	req.Equal(defaultHistoryLimit, repo.limit)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history?channel_id=1&limit=5000", nil))
	req.Equal(http.StatusOK, w.Code)
	req.Equal(maxHistoryLimit, repo.limit)

	for _, target := range []string{"/history", "/history?channel_id=x", "/history?channel_id=1&limit=0"} {
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		req.Equal(http.StatusBadRequest, w.Code, target)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/history?channel_id=1", nil))
	req.Equal(http.StatusMethodNotAllowed, w.Code)

	repo.err = errors.New("scylla down")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history?channel_id=1", nil))
	req.Equal(http.StatusInternalServerError, w.Code)
}
