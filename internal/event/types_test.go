package event

import (
	"testing"
	"time"
)

var _ Event = FileEvent{}
var _ Event = LogEvent{}

func TestNewFileEvent(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	diff := []string{"< old", "> new"}
	event := NewFileEvent("/root/a.txt", diff, now)

	if event.Type() != "file_changed" {
		t.Fatalf("expected file_changed, got %q", event.Type())
	}
	if event.Path != "/root/a.txt" {
		t.Fatalf("expected path, got %q", event.Path)
	}
	if len(event.Diff) != 2 || event.Diff[0] != "< old" || event.Diff[1] != "> new" {
		t.Fatalf("unexpected diff: %v", event.Diff)
	}
	if !event.Timestamp().Equal(now) {
		t.Fatalf("expected timestamp %v, got %v", now, event.Timestamp())
	}
}

func TestNewLogEvent(t *testing.T) {
	context := map[string]string{"path": "/root/a.txt"}
	event := NewLogEvent("info", "hello", context)

	if event.Type() != "log_entry" {
		t.Fatalf("expected log_entry, got %q", event.Type())
	}
	if event.Level != "info" {
		t.Fatalf("expected level info, got %q", event.Level)
	}
	if event.Message != "hello" {
		t.Fatalf("expected message hello, got %q", event.Message)
	}
	if event.Context["path"] != "/root/a.txt" {
		t.Fatalf("expected context path, got %q", event.Context["path"])
	}
	assertUTC(t, event.Timestamp())
}

func assertUTC(t *testing.T, value time.Time) {
	t.Helper()
	if value.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
	if value.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", value.Location())
	}
}
