// Package archive keeps a durable copy of the channels and messages published
// on the event log, for history lookups outside the shell.
package archive

import (
	"context"
	"fmt"

	"github.com/mahaj/harmonium/pkg/db"
	"github.com/mahaj/harmonium/pkg/id"
	"github.com/mahaj/harmonium/pkg/model"
)

type Repository interface {
	SaveChannel(ctx context.Context, channel model.Channel) error
	// SaveMessage is idempotent per message id, so a replayed or re-published
	// message overwrites its row.
	SaveMessage(ctx context.Context, message model.Message) error
	// History returns at most limit messages of a channel, in message id order.
	History(ctx context.Context, channelID id.ID[model.Channel], limit int) ([]model.Message, error)
}

type ScyllaRepository struct {
	session *db.Session
}

func NewScyllaRepository(session *db.Session) *ScyllaRepository {
	return &ScyllaRepository{session: session}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS channels (
		id bigint PRIMARY KEY,
		name text
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		channel_id bigint,
		id bigint,
		author_id bigint,
		content text,
		PRIMARY KEY (channel_id, id)
	) WITH CLUSTERING ORDER BY (id ASC)`,
}

func (r *ScyllaRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if err := r.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("create archive schema: %w", err)
		}
	}
	return nil
}

func (r *ScyllaRepository) SaveChannel(ctx context.Context, channel model.Channel) error {
	return r.session.Query(`INSERT INTO channels (id, name) VALUES (?, ?)`,
		int64(channel.ID.Uint64()), channel.Name).WithContext(ctx).Exec()
}

func (r *ScyllaRepository) SaveMessage(ctx context.Context, message model.Message) error {
	return r.session.Query(`INSERT INTO messages (channel_id, id, author_id, content) VALUES (?, ?, ?, ?)`,
		int64(message.ChannelID.Uint64()), int64(message.ID.Uint64()),
		int64(message.AuthorID.Uint64()),
		message.Content,
	).WithContext(ctx).Exec()
}

func (r *ScyllaRepository) History(ctx context.Context, channelID id.ID[model.Channel], limit int) ([]model.Message, error) {
	iter := r.session.Query(`SELECT id, author_id, content FROM messages WHERE channel_id = ? LIMIT ?`,
		int64(channelID.Uint64()), limit).WithContext(ctx).Iter()

	messages := []model.Message{}
	var messageID, authorID int64
	var content string
	for iter.Scan(&messageID, &authorID, &content) {
		messages = append(messages, model.NewMessage(
			id.New[model.Message](uint64(messageID)),
			content,
			channelID,
			id.New[model.User](uint64(authorID)),
		))
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("read history of channel %d: %w", channelID, err)
	}
	return messages, nil
}
