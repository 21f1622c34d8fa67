package watcher

import "time"

// Event is the immutable value delivered to observers when a watched
// file's content changes. Equality is value-based over exactly Path,
// FileTime, and Diff, per spec.
type Event struct {
	path     string
	fileTime time.Time
	diff     []string
}

// NewEvent constructs an Event. diff is not copied defensively; callers
// must not mutate it after construction.
func NewEvent(path string, fileTime time.Time, diff []string) Event {
	return Event{path: path, fileTime: fileTime, diff: diff}
}

// Path returns the absolute path of the file the event concerns.
func (e Event) Path() string {
	return e.path
}

// FileTime returns the file's modification time at the moment the event
// was synthesized, or the wall-clock instant of construction if the file
// no longer existed.
func (e Event) FileTime() time.Time {
	return e.fileTime
}

// Diff returns the line-level diff payload, oldest-first, using the
// "= "/"< "/"> " prefix convention.
func (e Event) Diff() []string {
	return e.diff
}

// Equal reports whether e and other carry the same path, file time, and
// diff lines.
func (e Event) Equal(other Event) bool {
	if e.path != other.path || !e.fileTime.Equal(other.fileTime) {
		return false
	}
	if len(e.diff) != len(other.diff) {
		return false
	}
	for i := range e.diff {
		if e.diff[i] != other.diff[i] {
			return false
		}
	}
	return true
}
