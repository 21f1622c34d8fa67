// Package watcher implements the file-watch coordination engine: it
// observes designated regular files beneath a root directory and delivers
// structured modification events to registered observers.
//
// A Notifier multiplexes a small number of native, directory-granular OS
// watch handles against a possibly much larger set of per-file observer
// registrations. Its own directory path serves as that handle's key,
// since fsnotify hands back no separate identifier for a watch; see
// directoryWatch. All table mutation and the notification loop's table
// lookups share one mutex, resolving the ordering questions the interface
// description leaves open: two AddObserver calls racing on the same
// directory, and a RemoveObserver draining a directory-watch the loop is
// mid-dispatch on both see a consistent, serialized view of the tables.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"gestaltwatch/internal/fsutil"
	"gestaltwatch/internal/logging"
	"gestaltwatch/internal/metrics"
	"gestaltwatch/internal/shadowrepo"
)

// Option configures a Notifier at construction time.
type Option func(*Notifier)

// WithLogger overrides the notifier's default discard logger.
func WithLogger(logger *logging.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// WithMetrics attaches a metrics registry. A nil registry (the default)
// makes every metrics call a no-op.
func WithMetrics(registry *metrics.Registry) Option {
	return func(n *Notifier) {
		n.registry = registry
	}
}

// Notifier is the coordination engine described by spec §3-§5: it tracks
// which observers care about which files, keeps a shadow copy of each
// file's last-known content, and turns raw OS notifications into
// diff-bearing Event values.
//
// The zero value is not usable; construct with New. A
// freshly constructed Notifier holds no native watch handles (spec §3,
// "notifier lifecycle: stopped"); the first AddObserver call starts it.
type Notifier struct {
	root       string
	shadowRoot string
	logger     *logging.Logger
	registry   *metrics.Registry

	mu         sync.Mutex
	running    bool
	fsw        *fsnotify.Watcher
	dirWatches map[string]*directoryWatch
	loopDone   chan struct{}
}

// New constructs a Notifier rooted at root, using shadowRoot to hold last-
// known file content. Both are normalized to absolute, cleaned paths.
// shadowRoot is created if it does not already exist.
func New(root, shadowRoot string, opts ...Option) (*Notifier, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watcher: resolve root: %w", err)
	}
	absShadow, err := filepath.Abs(shadowRoot)
	if err != nil {
		return nil, fmt.Errorf("watcher: resolve shadow root: %w", err)
	}
	if err := os.MkdirAll(absShadow, 0o755); err != nil {
		return nil, fmt.Errorf("watcher: create shadow root: %w", err)
	}

	n := &Notifier{
		root:       filepath.Clean(absRoot),
		shadowRoot: filepath.Clean(absShadow),
		dirWatches: make(map[string]*directoryWatch),
		logger:     logging.NewLoggerWithOutput(logging.NewLogBuffer(logging.DefaultBufferSize), logging.LevelInfo, nil),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Root returns the notifier's watch root.
func (n *Notifier) Root() string {
	return n.root
}

// IsRunning reports whether the notifier currently holds a native OS
// watch handle.
func (n *Notifier) IsRunning() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}

// normalizeFile resolves file against the notifier's root (root-relative
// paths are joined against it) and cleans the result. It does not check
// that the result lies beneath root; callers validate that separately.
func (n *Notifier) normalizeFile(file string) string {
	if !filepath.IsAbs(file) {
		file = filepath.Join(n.root, file)
	}
	return filepath.Clean(file)
}

// AddObserver registers observer for change notifications on file. file
// may be absolute or root-relative. Registration fails with
// InvalidArgumentError if file names an existing directory or if its
// parent does not lie at or beneath the notifier's root; in both cases no
// watch service is started and no table is mutated.
//
// On the first successful registration the notifier starts its native
// watch service; WatchUnsupportedError is returned if that fails.
func (n *Notifier) AddObserver(file string, observer Observer) error {
	absFile := n.normalizeFile(file)

	if info, err := os.Stat(absFile); err == nil && info.IsDir() {
		return &InvalidArgumentError{Path: absFile, Reason: "path is a directory"}
	}

	parent := filepath.Dir(absFile)
	if !fsutil.IsAncestor(n.root, parent) {
		return &InvalidArgumentError{Path: absFile, Reason: "path does not lie beneath the watch root"}
	}

	n.mu.Lock()
	if !n.running {
		if err := n.startLocked(); err != nil {
			n.mu.Unlock()
			return err
		}
	}
	n.mu.Unlock()

	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("watcher: ensure parent directory %s: %w", parent, err)
	}

	shadowPath, err := shadowrepo.PathFor(n.root, n.shadowRoot, absFile)
	if err != nil {
		return fmt.Errorf("watcher: resolve shadow path: %w", err)
	}
	if err := shadowrepo.Seed(absFile, shadowPath); err != nil {
		return fmt.Errorf("watcher: seed shadow: %w", err)
	}
	if size, err := shadowrepo.TotalSize(n.shadowRoot); err == nil {
		n.registry.SetShadowBytes(size)
	}

	n.mu.Lock()
	dw, ok := n.dirWatches[parent]
	if !ok {
		if err := n.fsw.Add(parent); err != nil {
			n.mu.Unlock()
			return fmt.Errorf("watcher: watch directory %s: %w", parent, err)
		}
		dw = newDirectoryWatch(parent)
		n.dirWatches[parent] = dw
	}
	dw.addObserver(absFile, observer)
	files, dirs := n.countsLocked()
	n.mu.Unlock()

	n.registry.SetFilesWatched(files)
	n.registry.SetDirectoriesWatched(dirs)
	return nil
}

// RemoveObserver unregisters observer from file. It is a no-op if file's
// parent directory holds no watch, or if observer was never registered
// for it. When file's observer set becomes empty its shadow copy is
// deleted; when a directory-watch's file set becomes empty its native
// handle is cancelled; when the notifier is left tracking nothing at all
// it stops itself.
func (n *Notifier) RemoveObserver(file string, observer Observer) error {
	absFile := n.normalizeFile(file)

	if info, err := os.Stat(absFile); err == nil && info.IsDir() {
		return &InvalidArgumentError{Path: absFile, Reason: "path is a directory"}
	}

	parent := filepath.Dir(absFile)

	n.mu.Lock()
	dw, ok := n.dirWatches[parent]
	if !ok {
		n.mu.Unlock()
		return nil
	}
	stillWatched := dw.removeObserver(absFile, observer)
	if dw.empty() {
		if err := n.fsw.Remove(parent); err != nil {
			n.logger.Warn("release native watch handle failed", map[string]string{
				"dir":   parent,
				"error": err.Error(),
			})
		}
		delete(n.dirWatches, parent)
	}
	tableEmpty := len(n.dirWatches) == 0
	files, dirs := n.countsLocked()
	n.mu.Unlock()

	n.registry.SetFilesWatched(files)
	n.registry.SetDirectoriesWatched(dirs)

	if !stillWatched {
		if shadowPath, err := shadowrepo.PathFor(n.root, n.shadowRoot, absFile); err == nil {
			if err := shadowrepo.Purge(shadowPath); err != nil {
				n.logger.Warn("purge shadow failed", map[string]string{
					"path":  absFile,
					"error": err.Error(),
				})
			}
		}
		if size, err := shadowrepo.TotalSize(n.shadowRoot); err == nil {
			n.registry.SetShadowBytes(size)
		}
	}

	if tableEmpty {
		n.Stop()
	}
	return nil
}

// WatchSummary describes one currently registered file and how many
// observers are watching it.
type WatchSummary struct {
	Path      string
	Observers int
}

// Watches returns a summary of every file currently registered with at
// least one observer, across all directory watches.
func (n *Notifier) Watches() []WatchSummary {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []WatchSummary
	for _, dw := range n.dirWatches {
		for file, observers := range dw.files {
			out = append(out, WatchSummary{Path: file, Observers: len(observers)})
		}
	}
	return out
}

// countsLocked returns the current number of files with at least one
// observer and the current number of directory-watch entries. Callers
// must hold n.mu.
func (n *Notifier) countsLocked() (files, dirs int) {
	dirs = len(n.dirWatches)
	for _, dw := range n.dirWatches {
		files += dw.fileCount()
	}
	return files, dirs
}

// startLocked creates the native watch service and spawns the
// notification loop. Callers must hold n.mu and must not call it while
// already running.
func (n *Notifier) startLocked() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return &WatchUnsupportedError{Err: err}
	}
	n.fsw = fsw
	n.running = true
	loopDone := make(chan struct{})
	n.loopDone = loopDone
	go n.loop(fsw, loopDone)
	return nil
}

// Stop cancels the notifier's native watch service, drops all
// registrations, and purges the shadow repository. It is a no-op if the
// notifier is not running. A stopped Notifier can be restarted by calling
// AddObserver again.
func (n *Notifier) Stop() error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	fsw := n.fsw
	loopDone := n.loopDone
	n.running = false
	n.fsw = nil
	n.dirWatches = make(map[string]*directoryWatch)
	n.mu.Unlock()

	closeErr := fsw.Close()
	<-loopDone

	n.registry.SetFilesWatched(0)
	n.registry.SetDirectoriesWatched(0)

	if err := shadowrepo.PurgeAll(n.shadowRoot); err != nil {
		n.logger.Warn("purge shadow repository failed", map[string]string{
			"shadowRoot": n.shadowRoot,
			"error":      err.Error(),
		})
	}
	n.registry.SetShadowBytes(0)

	if closeErr != nil {
		return fmt.Errorf("watcher: close watch service: %w", closeErr)
	}
	return nil
}

// loop drains fsw's Events and Errors channels until they close (which
// Close() triggers), dispatching each event to the directory-watch whose
// key matches the event's parent directory. It holds n.mu only for the
// brief table lookup; the potentially slow diff/dispatch work in drainOne
// runs unlocked, so a registration call is never blocked by a slow
// observer.
func (n *Notifier) loop(fsw *fsnotify.Watcher, loopDone chan struct{}) {
	defer close(loopDone)
	for {
		select {
		case rawEvent, ok := <-fsw.Events:
			if !ok {
				return
			}
			n.handleRawEvent(rawEvent)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			n.logger.Warn("OS watch service reported an error", map[string]string{
				"error": err.Error(),
			})
		}
	}
}

func (n *Notifier) handleRawEvent(rawEvent fsnotify.Event) {
	dir := filepath.Dir(rawEvent.Name)

	n.mu.Lock()
	dw, ok := n.dirWatches[dir]
	var file string
	var observers []Observer
	var kind changeKind
	var prepared bool
	if ok {
		file, observers, kind, prepared = dw.prepareDrain(rawEvent)
	}
	n.mu.Unlock()

	if !ok || !prepared {
		return
	}

	result := drainOne(n.root, n.shadowRoot, file, observers, kind, n.logger, n.registry)
	if result.err != nil {
		n.logger.Warn("drain error", map[string]string{
			"path":  file,
			"error": result.err.Error(),
		})
		n.registry.IncDrainErrors()
	}
	if result.delivered {
		n.registry.IncEventsDelivered()
	}
}
