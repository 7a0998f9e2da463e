package audit

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Event is one audit record.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Subject   string            `json:"subject,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event)

func (f SinkFunc) Emit(ctx context.Context, event Event) { f(ctx, event) }

// ChannelSink hands events to a reader through a buffered channel. It never
// blocks the dispatcher: events that find the channel full are counted in
// Overflow and discarded.
type ChannelSink struct {
	events   chan Event
	overflow atomic.Uint64
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(_ context.Context, event Event) {
	select {
	case s.events <- event:
	default:
		s.overflow.Add(1)
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// Overflow returns the number of events discarded on a full channel.
func (s *ChannelSink) Overflow() uint64 {
	return s.overflow.Load()
}

// JSONWriterSink writes one JSON object per line, keyed like Event's JSON
// form. Concurrent writes are serialized.
type JSONWriterSink struct {
	log zerolog.Logger
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		w = io.Discard
	}
	return &JSONWriterSink{log: zerolog.New(zerolog.SyncWriter(w))}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil {
		return
	}
	appendEvent(s.log.Log(), event).Send()
}

// LogSink writes events to a zerolog logger at info level, failures at warn.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Emit(_ context.Context, event Event) {
	evt := s.log.Info()
	if !event.Success {
		evt = s.log.Warn()
	}
	appendEvent(evt, event).Msg("audit")
}

func appendEvent(evt *zerolog.Event, event Event) *zerolog.Event {
	evt = evt.
		Time("timestamp", event.Timestamp).
		Str("event_type", event.EventType).
		Bool("success", event.Success)
	if event.Subject != "" {
		evt = evt.Str("subject", event.Subject)
	}
	if event.Error != "" {
		evt = evt.Str("error", event.Error)
	}
	if len(event.Metadata) > 0 {
		d := zerolog.Dict()
		for k, v := range event.Metadata {
			d = d.Str(k, v)
		}
		evt = evt.Dict("metadata", d)
	}
	return evt
}
