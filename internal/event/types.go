package event

import "time"

// Event represents a typed event with an occurrence timestamp.
type Event interface {
	Type() string
	Timestamp() time.Time
}

// FileEvent is the bus-transport wrapper around one watched file's
// modification event: an EventType tag plus the affected path, the diff
// lines against the file's last-known content, and the occurrence time.
// It is distinct from watcher.Event, which carries the same information
// but with value equality over exactly path/timestamp/diff; FileEvent
// exists so the notifier's events can flow through the generic Bus[T]
// fan-out used by the websocket API.
type FileEvent struct {
	EventType  string
	Path       string
	Diff       []string
	OccurredAt time.Time
}

func NewFileEvent(path string, diff []string, occurredAt time.Time) FileEvent {
	return FileEvent{
		EventType:  "file_changed",
		Path:       path,
		Diff:       diff,
		OccurredAt: occurredAt,
	}
}

func (e FileEvent) Type() string {
	return e.EventType
}

func (e FileEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// LogEvent wraps log data for streaming.
type LogEvent struct {
	EventType  string
	Level      string
	Message    string
	Context    map[string]string
	OccurredAt time.Time
}

func NewLogEvent(level, message string, context map[string]string) LogEvent {
	return LogEvent{
		EventType:  "log_entry",
		Level:      level,
		Message:    message,
		Context:    context,
		OccurredAt: time.Now().UTC(),
	}
}

func (e LogEvent) Type() string {
	return e.EventType
}

func (e LogEvent) Timestamp() time.Time {
	return e.OccurredAt
}
