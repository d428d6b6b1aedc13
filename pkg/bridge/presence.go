package bridge

import (
	"context"
	"slices"
	"sync"

	"github.com/redis/go-redis/v9"
)

const sessionsKey = "harmonium:sessions"

// Presence tracks which UI connections are currently attached.
type Presence interface {
	Join(ctx context.Context, connID string) error
	Leave(ctx context.Context, connID string) error
	Sessions(ctx context.Context) ([]string, error)
}

// RedisPresence keeps attached connections in a Redis set so that tools
// outside the shell can see them.
type RedisPresence struct {
	redis *redis.Client
}

func NewRedisPresence(addr string) *RedisPresence {
	return &RedisPresence{redis: redis.NewClient(&redis.Options{Addr: addr})}
}

func (p *RedisPresence) Join(ctx context.Context, connID string) error {
	return p.redis.SAdd(ctx, sessionsKey, connID).Err()
}

func (p *RedisPresence) Leave(ctx context.Context, connID string) error {
	return p.redis.SRem(ctx, sessionsKey, connID).Err()
}

func (p *RedisPresence) Sessions(ctx context.Context) ([]string, error) {
	sessions, err := p.redis.SMembers(ctx, sessionsKey).Result()
	if err != nil {
		return nil, err
	}
	slices.Sort(sessions)
	return sessions, nil
}

func (p *RedisPresence) Close() error {
	return p.redis.Close()
}

// LocalPresence is used when no Redis is configured.
type LocalPresence struct {
	mu       sync.Mutex
	sessions map[string]struct{}
}

func NewLocalPresence() *LocalPresence {
	return &LocalPresence{sessions: make(map[string]struct{})}
}

func (p *LocalPresence) Join(_ context.Context, connID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[connID] = struct{}{}
	return nil
}

func (p *LocalPresence) Leave(_ context.Context, connID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, connID)
	return nil
}

func (p *LocalPresence) Sessions(_ context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sessions := make([]string, 0, len(p.sessions))
	for s := range p.sessions {
		sessions = append(sessions, s)
	}
	slices.Sort(sessions)
	return sessions, nil
}
