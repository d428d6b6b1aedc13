package model

import (
	"encoding/json"
	"fmt"
)

type EventName string

const (
	EventAddChannel        EventName = "add_channel"
	EventAddMessage        EventName = "add_message"
	EventSetCurrentChannel EventName = "set_current_channel"
	EventError             EventName = "error"
)

// Event is the envelope pushed to the presentation layer and to the event log.
type Event struct {
	ID      int64           `json:"id,omitempty"`
	Name    EventName       `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// ChannelSelection is the payload of a set_current_channel event.
type ChannelSelection struct {
	Channel  Channel   `json:"channel"`
	Messages []Message `json:"messages"`
}

// ErrorPayload reports a rejected command back to the client that sent it.
type ErrorPayload struct {
	Message string `json:"message"`
}

func NewEvent(name EventName, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return Event{Name: name, Payload: raw}, nil
}

func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Name, err)
	}
	return nil
}
