package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// EventKind names an observable step of a conversion.
type EventKind string

const (
	EventStateEntered   EventKind = "state_entered"
	EventTierCompleted  EventKind = "tier_completed"
	EventTableSelected  EventKind = "table_selected"
	EventRowsParsed     EventKind = "rows_parsed"
	EventQualityChecked EventKind = "quality_checked"
	EventFallback       EventKind = "fallback"
	EventDiagnostic     EventKind = "diagnostic"
	EventFailed         EventKind = "failed"
	EventCompleted      EventKind = "completed"
)

// Event is emitted for every transition and tier report.
type Event struct {
	RunID uuid.UUID
	Kind  EventKind
	State State
	Attrs map[string]any
}

// Int returns an integer attribute, or 0 when it is missing.
func (e Event) Int(key string) int {
	v, _ := e.Attrs[key].(int)
	return v
}

// String returns a string attribute, or "" when it is missing.
func (e Event) String(key string) string {
	v, _ := e.Attrs[key].(string)
	return v
}

// EventSink receives conversion events. Emit must not block for long; it is
// called inline by the state machine.
type EventSink interface {
	Emit(ctx context.Context, ev Event)
}

// LogSink writes events to a slog logger.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, ev Event) {
	level := slog.LevelDebug
	switch ev.Kind {
	case EventFailed, EventFallback, EventDiagnostic:
		level = slog.LevelWarn
	case EventCompleted:
		level = slog.LevelInfo
	}

	keys := make([]string, 0, len(ev.Attrs))
	for k := range ev.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys)+2)
	attrs = append(attrs, slog.String("runID", ev.RunID.String()), slog.String("state", ev.State.String()))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, ev.Attrs[k]))
	}
	s.logger.LogAttrs(ctx, level, string(ev.Kind), attrs...)
}

// Recorder keeps every event in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kind returns the recorded events of one kind.
func (r *Recorder) Kind(kind EventKind) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// MultiSink fans out to several sinks in order.
type MultiSink []EventSink

func (m MultiSink) Emit(ctx context.Context, ev Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, ev)
		}
	}
}
