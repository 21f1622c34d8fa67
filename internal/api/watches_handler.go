package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"gestaltwatch/internal/event"
	"gestaltwatch/internal/history"
	"gestaltwatch/internal/logging"
	"gestaltwatch/internal/watcher"
)

// WatchesHandler backs the REST surface used by cmd/gestaltwatchctl and any
// other remote-control client: registering and releasing watches, and
// listing what is currently watched.
//
// Watches registered through this handler are tracked in observers so a
// later DELETE can find the same Observer identity to unregister; watches
// registered directly against the Notifier (such as gestaltwatchd's
// startup watches) are not tracked here and cannot be removed through this
// API, although GET lists them along with every other watch.
type WatchesHandler struct {
	Notifier     *watcher.Notifier
	HistoryStore *history.Store
	Bus          *event.Bus[event.FileEvent]
	Logger       *logging.Logger

	mu        sync.Mutex
	observers map[string]watcher.Observer
}

type addWatchRequest struct {
	Path string `json:"path"`
}

type watchInfo struct {
	Path      string `json:"path"`
	Observers int    `json:"observers"`
}

func (h *WatchesHandler) observerFor(path string) watcher.Observer {
	observer := watcher.NewObserverFunc(func(evt watcher.Event) {
		if h.HistoryStore != nil {
			h.HistoryStore.Record(evt.Path(), evt)
		}
		if h.Bus != nil {
			h.Bus.Publish(event.NewFileEvent(evt.Path(), evt.Diff(), evt.FileTime()))
		}
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.observers == nil {
		h.observers = make(map[string]watcher.Observer)
	}
	if existing, ok := h.observers[path]; ok {
		return existing
	}
	h.observers[path] = observer
	return observer
}

func (h *WatchesHandler) existingObserver(path string) (watcher.Observer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	observer, ok := h.observers[path]
	return observer, ok
}

func (h *WatchesHandler) forgetObserver(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.observers, path)
}

func (h *WatchesHandler) handleAdd(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodPost {
		return methodNotAllowed(w, http.MethodPost)
	}

	var req addWatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &apiError{Status: http.StatusBadRequest, Message: "invalid request body"}
	}
	if strings.TrimSpace(req.Path) == "" {
		return &apiError{Status: http.StatusBadRequest, Message: "path is required"}
	}

	if _, already := h.existingObserver(req.Path); already {
		w.WriteHeader(http.StatusOK)
		return nil
	}

	connectionID := newConnectionID()
	logger := h.Logger
	if logger != nil {
		logger = logger.With(map[string]string{"connection_id": connectionID, "path": req.Path})
	}

	observer := h.observerFor(req.Path)
	if err := h.Notifier.AddObserver(req.Path, observer); err != nil {
		h.forgetObserver(req.Path)
		if logger != nil {
			logger.Warn("add watch failed", map[string]string{"error": err.Error()})
		}
		return apiErrorForWatcherErr(err)
	}

	if logger != nil {
		logger.Info("watch registered", nil)
	}
	w.WriteHeader(http.StatusCreated)
	return nil
}

func (h *WatchesHandler) handleRemove(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodDelete {
		return methodNotAllowed(w, http.MethodDelete)
	}

	var req addWatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &apiError{Status: http.StatusBadRequest, Message: "invalid request body"}
	}
	if strings.TrimSpace(req.Path) == "" {
		return &apiError{Status: http.StatusBadRequest, Message: "path is required"}
	}

	observer, ok := h.existingObserver(req.Path)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	connectionID := newConnectionID()
	logger := h.Logger
	if logger != nil {
		logger = logger.With(map[string]string{"connection_id": connectionID, "path": req.Path})
	}

	if err := h.Notifier.RemoveObserver(req.Path, observer); err != nil {
		if logger != nil {
			logger.Warn("remove watch failed", map[string]string{"error": err.Error()})
		}
		return apiErrorForWatcherErr(err)
	}
	h.forgetObserver(req.Path)

	if logger != nil {
		logger.Info("watch released", nil)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *WatchesHandler) handleList(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, http.MethodGet)
	}

	summaries := h.Notifier.Watches()
	out := make([]watchInfo, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, watchInfo{Path: summary.Path, Observers: summary.Observers})
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

// Collection handles GET/POST/DELETE on /api/watches.
func (h *WatchesHandler) Collection(w http.ResponseWriter, r *http.Request) *apiError {
	switch r.Method {
	case http.MethodGet:
		return h.handleList(w, r)
	case http.MethodPost:
		return h.handleAdd(w, r)
	case http.MethodDelete:
		return h.handleRemove(w, r)
	default:
		return methodNotAllowed(w, "GET, POST, DELETE")
	}
}

// History handles GET /api/watches/{path}/history.
func (h *WatchesHandler) History(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, http.MethodGet)
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/watches/")
	path = strings.TrimSuffix(path, "/history")
	if path == "" {
		return &apiError{Status: http.StatusBadRequest, Message: "missing path"}
	}

	events := h.HistoryStore.Recent(path)
	out := make([]historyEntry, 0, len(events))
	for _, evt := range events {
		out = append(out, historyEntry{Path: evt.Path(), FileTime: evt.FileTime(), Diff: evt.Diff()})
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

type historyEntry struct {
	Path     string    `json:"path"`
	FileTime time.Time `json:"file_time"`
	Diff     []string  `json:"diff"`
}

func apiErrorForWatcherErr(err error) *apiError {
	if _, ok := err.(*watcher.InvalidArgumentError); ok {
		return &apiError{Status: http.StatusBadRequest, Message: err.Error()}
	}
	if _, ok := err.(*watcher.WatchUnsupportedError); ok {
		return &apiError{Status: http.StatusServiceUnavailable, Message: err.Error()}
	}
	return &apiError{Status: http.StatusInternalServerError, Message: err.Error()}
}
