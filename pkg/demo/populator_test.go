package demo

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mahaj/harmonium/pkg/id"
	"github.com/mahaj/harmonium/pkg/model"
	"github.com/mahaj/harmonium/pkg/state"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestPopulate(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := state.NewStore(log, nil, nil)

	start := time.Now()
	req.NoError(Populate(context.Background(), log, store, 20*time.Millisecond))
	req.GreaterOrEqual(time.Since(start), 20*time.Millisecond)

	channels := store.Channels()
	req.Len(channels, 3)
	req.Equal("a channel", channels[0].Name)
	req.Equal("another channel", channels[1].Name)
	req.Equal("a third channel", channels[2].Name)
	req.Len(channels[0].Messages, 100)
	req.Empty(channels[1].Messages)
	req.Equal(id.New[model.Message](7896), channels[0].Messages[0])
	req.Equal(id.New[model.Message](7995), channels[0].Messages[99])

	message, ok := store.GetMessage(7900)
	req.True(ok)
	req.Equal("hello from 'a channel' #7900", message.Content)
	req.Equal(Author, message.AuthorID)
	req.Equal(FirstChannel, message.ChannelID)

	_, ok = store.GetUser(Author)
	req.False(ok)
}

func TestPopulate_Cancelled(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := state.NewStore(log, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req.ErrorIs(Populate(ctx, log, store, time.Hour), context.Canceled)
	req.Empty(store.Channels())
}
