// Package demo fills the store with fixed data, standing in for a real server
// connection.
package demo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mahaj/harmonium/pkg/id"
	"github.com/mahaj/harmonium/pkg/model"
)

const (
	FirstChannel  id.ID[model.Channel] = 87689376
	SecondChannel id.ID[model.Channel] = 876893766
	ThirdChannel  id.ID[model.Channel] = 8768937644

	// Author is never added to the store as a user.
	Author id.ID[model.User] = 876869376

	firstMessage = 7896
	messageCount = 100
)

type Store interface {
	AddChannel(ctx context.Context, channel model.Channel)
	AddMessage(ctx context.Context, message model.Message) error
}

// Populate waits for delay, then adds three channels and a hundred messages to
// the first one. It returns early with ctx's error if ctx ends first.
func Populate(ctx context.Context, log *slog.Logger, store Store, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	store.AddChannel(ctx, model.NewChannel(FirstChannel, "a channel"))
	store.AddChannel(ctx, model.NewChannel(SecondChannel, "another channel"))
	store.AddChannel(ctx, model.NewChannel(ThirdChannel, "a third channel"))

	for i := uint64(firstMessage); i < firstMessage+messageCount; i++ {
		message := model.NewMessage(
			id.New[model.Message](i),
			fmt.Sprintf("hello from 'a channel' #%d", i),
			FirstChannel,
			Author,
		)
		if err := store.AddMessage(ctx, message); err != nil {
			return fmt.Errorf("add demo message %d: %w", i, err)
		}
	}

	log.Info("Demo data loaded", "channels", 3, "messages", messageCount)
	return nil
}
