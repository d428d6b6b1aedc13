// Package notify routes store events to the sinks that care about them: the
// attached UIs and, when configured, the Kafka event log.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mahaj/harmonium/pkg/model"
	"github.com/mahaj/harmonium/pkg/state"
)

type namedSink struct {
	name string
	sink state.Notifier
}

// Fanout delivers each event to every attached sink. A failing sink is logged
// and does not prevent delivery to the others.
type Fanout struct {
	mu    sync.RWMutex
	sinks []namedSink
	log   *slog.Logger
}

func NewFanout(log *slog.Logger) *Fanout {
	return &Fanout{log: log}
}

// Attach may be called at any time, including after events started flowing.
func (f *Fanout) Attach(name string, sink state.Notifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
}

func (f *Fanout) Notify(ctx context.Context, event model.Event) error {
	f.mu.RLock()
	sinks := make([]namedSink, len(f.sinks))
	copy(sinks, f.sinks)
	f.mu.RUnlock()

	var errs []error
	for _, s := range sinks {
		if err := s.sink.Notify(ctx, event); err != nil {
			f.log.Warn("Sink rejected event", "sink", s.name, "event", event.Name, "event_id", event.ID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
