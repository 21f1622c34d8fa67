package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"gestaltwatch/internal/diffengine"
	"gestaltwatch/internal/logging"
	"gestaltwatch/internal/metrics"
	"gestaltwatch/internal/shadowrepo"
)

// changeKind is the notifier's own reduction of the raw notifications the
// OS watch service can report, per spec §4.3 step 1.
type changeKind int

const (
	kindOther changeKind = iota
	kindCreate
	kindModify
	kindDelete
)

func classify(op fsnotify.Op) changeKind {
	switch {
	case op&fsnotify.Create != 0:
		return kindCreate
	case op&fsnotify.Write != 0:
		return kindModify
	case op&fsnotify.Remove != 0:
		return kindDelete
	default:
		// Rename and Chmod are not one of CREATE/MODIFY/DELETE; treated
		// as "anything else" per spec step 1 and skipped.
		return kindOther
	}
}

// directoryWatch is the per-parent-directory aggregate: one native watch
// handle (represented by its own directory path, see notifier.go) plus the
// mapping from file path to observer set for files whose parent is this
// directory. All access to files must happen under the notifier's lock;
// directoryWatch has no lock of its own.
type directoryWatch struct {
	dir   string
	files map[string]map[Observer]struct{}
}

func newDirectoryWatch(dir string) *directoryWatch {
	return &directoryWatch{
		dir:   dir,
		files: make(map[string]map[Observer]struct{}),
	}
}

// addObserver inserts observer into file's set, creating the set on
// demand. Adding the same observer twice is idempotent.
func (dw *directoryWatch) addObserver(file string, observer Observer) {
	set, ok := dw.files[file]
	if !ok {
		set = make(map[Observer]struct{})
		dw.files[file] = set
	}
	set[observer] = struct{}{}
}

// removeObserver removes observer from file's set. If the set becomes
// empty, the file entry is removed. Returns whether file is still present
// in the mapping afterward.
func (dw *directoryWatch) removeObserver(file string, observer Observer) (stillWatched bool) {
	set, ok := dw.files[file]
	if !ok {
		return false
	}
	delete(set, observer)
	if len(set) == 0 {
		delete(dw.files, file)
		return false
	}
	return true
}

// empty reports whether this directory watch has no files left, meaning
// its native handle should be cancelled.
func (dw *directoryWatch) empty() bool {
	return len(dw.files) == 0
}

// fileCount returns the number of files currently tracked by this
// directory watch.
func (dw *directoryWatch) fileCount() int {
	return len(dw.files)
}

func (dw *directoryWatch) observersOf(file string) []Observer {
	set, ok := dw.files[file]
	if !ok {
		return nil
	}
	out := make([]Observer, 0, len(set))
	for observer := range set {
		out = append(out, observer)
	}
	return out
}

// prepareDrain resolves one raw fsnotify event against this directory
// watch's current file mapping (spec §4.3 steps 1-2). It must be called
// with the notifier's lock held, since it reads dw.files. The returned
// observer slice is a snapshot safe to use after the lock is released.
func (dw *directoryWatch) prepareDrain(rawEvent fsnotify.Event) (file string, observers []Observer, kind changeKind, ok bool) {
	kind = classify(rawEvent.Op)
	if kind == kindOther {
		return "", nil, kind, false
	}
	file = filepath.Join(dw.dir, filepath.Base(rawEvent.Name))
	observers = dw.observersOf(file)
	if observers == nil {
		return file, nil, kind, false
	}
	return file, observers, kind, true
}

// drainResult carries the outcome of handling one raw fsnotify event, for
// the caller to log and account for in metrics.
type drainResult struct {
	delivered bool
	err       error
}

// drainOne performs spec §4.3 steps 3-5 for one file: compare against its
// shadow, dispatch a synthesized event if the content changed, then
// refresh or purge the shadow. It touches no directoryWatch state and so
// runs without the notifier's lock held, allowing registration calls to
// proceed while a slow observer is still being dispatched to.
func drainOne(root, shadowRoot, file string, observers []Observer, kind changeKind, logger *logging.Logger, registry *metrics.Registry) drainResult {
	shadowPath, err := shadowrepo.PathFor(root, shadowRoot, file)
	if err != nil {
		return drainResult{err: fmt.Errorf("drain %s: %w", file, err)}
	}

	identical, err := diffengine.Identical(shadowPath, file)
	if err != nil {
		return drainResult{err: fmt.Errorf("drain %s: compare shadow: %w", file, err)}
	}

	result := drainResult{}
	if !identical {
		diffLines, err := diffengine.DiffFiles(shadowPath, file)
		if err != nil {
			return drainResult{err: fmt.Errorf("drain %s: diff shadow: %w", file, err)}
		}
		event := NewEvent(file, currentFileTime(file), diffLines)
		for _, observer := range observers {
			dispatch(observer, event, logger)
		}
		result.delivered = true
	}

	switch kind {
	case kindCreate, kindModify:
		if _, statErr := os.Stat(file); statErr == nil {
			if err := shadowrepo.Refresh(file, shadowPath); err != nil {
				result.err = fmt.Errorf("drain %s: refresh shadow: %w", file, err)
			}
		}
	case kindDelete:
		if err := shadowrepo.Purge(shadowPath); err != nil {
			result.err = fmt.Errorf("drain %s: purge shadow: %w", file, err)
		}
	}

	if size, err := shadowrepo.TotalSize(shadowRoot); err == nil {
		registry.SetShadowBytes(size)
	}

	return result
}

func currentFileTime(file string) time.Time {
	info, err := os.Stat(file)
	if err != nil {
		return time.Now()
	}
	return info.ModTime()
}

// dispatch invokes observer.OnEvent, recovering and logging any panic per
// spec §4.6: "any exception it raises is caught, logged, and swallowed."
func dispatch(observer Observer, event Event, logger *logging.Logger) {
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Warn("observer panicked", map[string]string{
				"path":  event.Path(),
				"panic": fmt.Sprintf("%v", r),
			})
		}
	}()
	observer.OnEvent(event)
}
