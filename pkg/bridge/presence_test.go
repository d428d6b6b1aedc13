package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalPresence(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	presence := NewLocalPresence()

	req.NoError(presence.Join(ctx, "b"))
	req.NoError(presence.Join(ctx, "a"))
	req.NoError(presence.Join(ctx, "a"))
	sessions, err := presence.Sessions(ctx)
	req.NoError(err)
	req.Equal([]string{"a", "b"}, sessions)

	req.NoError(presence.Leave(ctx, "a"))
	req.NoError(presence.Leave(ctx, "unknown"))
	sessions, err = presence.Sessions(ctx)
	req.NoError(err)
	req.Equal([]string{"b"}, sessions)
}
