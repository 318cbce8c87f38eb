package adminsession

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// EventType names the session changes broadcast by the Manager.
type EventType string

const (
	// EventLoggedIn carries the freshly authenticated profile.
	EventLoggedIn EventType = "admin_logged_in"
	// EventLoggedOut is emitted after any local teardown, whether initiated
	// by Logout or observed from another process sharing the vault.
	EventLoggedOut EventType = "admin_logged_out"
	// EventSessionExpired is the passive expiry notice: the token's embedded
	// expiry elapsed at boot or while the session was live.
	EventSessionExpired EventType = "admin_session_expired"
)

// Event is the typed payload delivered to sinks. Consumers must tolerate
// events for session changes they did not initiate.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Profile   *Profile  `json:"profile,omitempty"`
}

// EventSink consumes session events. Emit must not block indefinitely; the
// dispatcher calls it from a single goroutine.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards all events.
type NoOpSink struct{}

// Emit discards the event.
func (NoOpSink) Emit(context.Context, Event) {}

// SinkFunc adapts a function to the [EventSink] interface.
type SinkFunc func(ctx context.Context, event Event)

// Emit calls fn.
func (fn SinkFunc) Emit(ctx context.Context, event Event) { fn(ctx, event) }

// ChannelSink forwards events to a buffered channel for select-based
// consumers.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink returns a sink buffering up to buffer events.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

// Emit forwards the event, giving up when ctx is done.
func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON line per event, for logs or pipes.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink returns a sink writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit marshals the event and writes it followed by a newline. Marshal and
// write failures are dropped.
func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// MultiSink fans every event out to each wrapped sink in order.
type MultiSink []EventSink

// Emit delivers the event to each wrapped sink.
func (m MultiSink) Emit(ctx context.Context, event Event) {
	for _, sink := range m {
		if sink != nil {
			sink.Emit(ctx, event)
		}
	}
}
