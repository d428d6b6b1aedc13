package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mahaj/harmonium/pkg/id"
	"github.com/mahaj/harmonium/pkg/model"
)

const CmdChannelSelect = "channel_select"

var (
	ErrMalformedCommand = errors.New("malformed command")
	ErrInvalidCommand   = errors.New("invalid command")
)

var validate = validator.New()

// Command is the frame a UI sends to invoke a shell operation, e.g.
// {"cmd":"channel_select","args":{"id":87689376}}.
type Command struct {
	Cmd  string          `json:"cmd" validate:"required,oneof=channel_select"`
	Args json.RawMessage `json:"args"`
}

type ChannelSelectArgs struct {
	ID *uint64 `json:"id" validate:"required"`
}

// Commands is the slice of the store the bridge is allowed to drive.
type Commands interface {
	SetCurrentChannel(ctx context.Context, channelID id.ID[model.Channel]) error
	Snapshot() []model.Event
}

func dispatch(ctx context.Context, commands Commands, frame []byte) error {
	var cmd Command
	if err := json.Unmarshal(frame, &cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedCommand, err)
	}
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	switch cmd.Cmd {
	case CmdChannelSelect:
		var args ChannelSelectArgs
		if len(cmd.Args) == 0 {
			return fmt.Errorf("%w: %s requires args", ErrInvalidCommand, cmd.Cmd)
		}
		if err := json.Unmarshal(cmd.Args, &args); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedCommand, err)
		}
		if err := validate.Struct(args); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
		}
		return commands.SetCurrentChannel(ctx, id.New[model.Channel](*args.ID))
	default:
		return fmt.Errorf("%w: unknown command %q", ErrInvalidCommand, cmd.Cmd)
	}
}
