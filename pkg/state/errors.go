package state

import (
	"errors"
	"fmt"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrMessageNotFound = errors.New("message not found")
)

// LookupError names the entity a store operation expected to find.
type LookupError struct {
	Kind error
	ID   uint64
}

func (e *LookupError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %d", e.Kind.Error(), e.ID)
}

func (e *LookupError) Unwrap() error { return e.Kind }

func channelNotFound(id uint64) error {
	return &LookupError{Kind: ErrChannelNotFound, ID: id}
}
