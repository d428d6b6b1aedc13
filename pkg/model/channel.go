package model

import (
	"slices"

	"github.com/mahaj/harmonium/pkg/id"
)

// Channel lists its messages in display order.
type Channel struct {
	ID       id.ID[Channel]   `json:"id"`
	Name     string           `json:"name"`
	Messages []id.ID[Message] `json:"messages"`
}

func NewChannel(channelID id.ID[Channel], name string) Channel {
	return Channel{
		ID:       channelID,
		Name:     name,
		Messages: []id.ID[Message]{},
	}
}

// Clone returns a copy that shares no memory with c.
func (c Channel) Clone() Channel {
	c.Messages = slices.Clone(c.Messages)
	if c.Messages == nil {
		c.Messages = []id.ID[Message]{}
	}
	return c
}
