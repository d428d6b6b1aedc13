//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../../mocks/mock_notifier.go -package=mocks

// Package state holds every user, channel and message the shell knows about,
// along with the channel the user is currently looking at.
//
// The lock is never held while a notification is pushed: each operation copies
// what it needs, releases the lock, then notifies. Notification failures are
// logged and otherwise ignored; a closed presentation layer must not take the
// store down with it.
package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mahaj/harmonium/pkg/id"
	"github.com/mahaj/harmonium/pkg/model"
	"github.com/mahaj/harmonium/pkg/snowflake"
	"github.com/samber/lo"
)

// Notifier delivers store events to the presentation layer.
type Notifier interface {
	Notify(ctx context.Context, event model.Event) error
}

type Store struct {
	mu             sync.Mutex
	currentChannel *id.ID[model.Channel]
	users          map[id.ID[model.User]]model.User
	channels       map[id.ID[model.Channel]]model.Channel
	channelOrder   []id.ID[model.Channel]
	messages       map[id.ID[model.Message]]model.Message

	notifier Notifier
	ids      *snowflake.Node
	log      *slog.Logger
}

func NewStore(log *slog.Logger, notifier Notifier, ids *snowflake.Node) *Store {
	return &Store{
		users:    make(map[id.ID[model.User]]model.User),
		channels: make(map[id.ID[model.Channel]]model.Channel),
		messages: make(map[id.ID[model.Message]]model.Message),
		notifier: notifier,
		ids:      ids,
		log:      log,
	}
}

func (s *Store) AddUser(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *Store) GetUser(userID id.ID[model.User]) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	return user, ok
}

// AddChannel inserts or replaces the channel, then announces it.
func (s *Store) AddChannel(ctx context.Context, channel model.Channel) {
	channel = channel.Clone()

	s.mu.Lock()
	if _, exists := s.channels[channel.ID]; !exists {
		s.channelOrder = append(s.channelOrder, channel.ID)
	}
	s.channels[channel.ID] = channel
	s.mu.Unlock()

	s.log.Debug("Channel added", "channel_id", channel.ID, "name", channel.Name)
	s.push(ctx, model.EventAddChannel, channel)
}

func (s *Store) GetChannel(channelID id.ID[model.Channel]) (model.Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	channel, ok := s.channels[channelID]
	if !ok {
		return model.Channel{}, false
	}
	return channel.Clone(), true
}

// Channels returns every channel in the order it was first added.
func (s *Store) Channels() []model.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.channelOrder, func(channelID id.ID[model.Channel], _ int) model.Channel {
		return s.channels[channelID].Clone()
	})
}

// AddMessage appends the message to its channel. The channel must already
// exist; otherwise nothing is modified and a *LookupError is returned.
func (s *Store) AddMessage(ctx context.Context, message model.Message) error {
	s.mu.Lock()
	channel, ok := s.channels[message.ChannelID]
	if !ok {
		s.mu.Unlock()
		return channelNotFound(message.ChannelID.Uint64())
	}
	channel.Messages = append(channel.Messages, message.ID)
	s.channels[message.ChannelID] = channel
	s.messages[message.ID] = message
	s.mu.Unlock()

	s.push(ctx, model.EventAddMessage, message)
	return nil
}

func (s *Store) GetMessage(messageID id.ID[model.Message]) (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	message, ok := s.messages[messageID]
	return message, ok
}

func (s *Store) CurrentChannel() (id.ID[model.Channel], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentChannel == nil {
		return 0, false
	}
	return *s.currentChannel, true
}

// SetCurrentChannel moves the cursor and pushes the channel together with its
// resolved messages. Selecting the current channel again pushes again.
func (s *Store) SetCurrentChannel(ctx context.Context, channelID id.ID[model.Channel]) error {
	s.mu.Lock()
	if _, ok := s.channels[channelID]; !ok {
		s.mu.Unlock()
		return channelNotFound(channelID.Uint64())
	}
	s.currentChannel = &channelID
	s.mu.Unlock()

	selection, ok := s.selection(channelID)
	if !ok {
		return channelNotFound(channelID.Uint64())
	}
	s.push(ctx, model.EventSetCurrentChannel, selection)
	return nil
}

// Snapshot returns the events that bring a freshly attached UI up to date.
func (s *Store) Snapshot() []model.Event {
	var events []model.Event
	for _, channel := range s.Channels() {
		if evt, ok := s.event(model.EventAddChannel, channel); ok {
			events = append(events, evt)
		}
	}
	if current, ok := s.CurrentChannel(); ok {
		if selection, ok := s.selection(current); ok {
			if evt, ok := s.event(model.EventSetCurrentChannel, selection); ok {
				events = append(events, evt)
			}
		}
	}
	return events
}

// selection resolves the channel's message ids one lookup at a time. Ids whose
// message is missing are skipped, so the payload never carries empty slots.
func (s *Store) selection(channelID id.ID[model.Channel]) (model.ChannelSelection, bool) {
	channel, ok := s.GetChannel(channelID)
	if !ok {
		return model.ChannelSelection{}, false
	}
	messages := lo.FilterMap(channel.Messages, func(messageID id.ID[model.Message], _ int) (model.Message, bool) {
		message, ok := s.GetMessage(messageID)
		if !ok {
			s.log.Warn("Skipping missing message",
				"channel_id", channelID,
				"error", &LookupError{Kind: ErrMessageNotFound, ID: messageID.Uint64()})
		}
		return message, ok
	})
	return model.ChannelSelection{Channel: channel, Messages: messages}, true
}

func (s *Store) event(name model.EventName, payload any) (model.Event, bool) {
	evt, err := model.NewEvent(name, payload)
	if err != nil {
		s.log.Error("Failed to build event", "event", name, "error", err)
		return model.Event{}, false
	}
	if s.ids != nil {
		evt.ID = s.ids.Generate()
	}
	return evt, true
}

func (s *Store) push(ctx context.Context, name model.EventName, payload any) {
	evt, ok := s.event(name, payload)
	if !ok || s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, evt); err != nil {
		s.log.Warn("Notification not delivered", "event", name, "event_id", evt.ID, "error", err)
	}
}
