package model

import "github.com/mahaj/harmonium/pkg/id"

// Message is immutable once created.
type Message struct {
	ID        id.ID[Message] `json:"id"`
	ChannelID id.ID[Channel] `json:"channel_id"`
	AuthorID  id.ID[User]    `json:"author_id"`
	Content   string         `json:"content"`
}

func NewMessage(messageID id.ID[Message], content string, channelID id.ID[Channel], authorID id.ID[User]) Message {
	return Message{
		ID:        messageID,
		ChannelID: channelID,
		AuthorID:  authorID,
		Content:   content,
	}
}
