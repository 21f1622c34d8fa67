package api

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gestaltwatch/internal/event"
	"gestaltwatch/internal/history"
	"gestaltwatch/internal/logging"
	"gestaltwatch/internal/watcher"
)

// ServerConfig bundles the components RegisterRoutes wires together into
// gestaltwatchd's HTTP surface.
type ServerConfig struct {
	Notifier       *watcher.Notifier
	History        *history.Store
	Bus            *event.Bus[event.FileEvent]
	LogHub         *logging.LogHub
	Logger         *logging.Logger
	Gatherer       prometheus.Gatherer
	AuthToken      string
	AllowedOrigins []string
}

// NewRouter builds the complete HTTP handler for gestaltwatchd.
func NewRouter(cfg ServerConfig) http.Handler {
	mux := http.NewServeMux()

	watches := &WatchesHandler{
		Notifier:     cfg.Notifier,
		HistoryStore: cfg.History,
		Bus:          cfg.Bus,
		Logger:       cfg.Logger,
	}

	mux.Handle("/api/watches", restHandler(cfg.AuthToken, watches.Collection))
	mux.Handle("/api/watches/", restHandler(cfg.AuthToken, watches.History))

	mux.Handle("/ws/events", securityHeadersMiddleware(cacheControlNoStore, &EventsHandler{
		Bus:            cfg.Bus,
		AuthToken:      cfg.AuthToken,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         cfg.Logger,
	}))

	mux.Handle("/ws/logs", securityHeadersMiddleware(cacheControlNoStore, &LogsHandler{
		Hub:            cfg.LogHub,
		Logger:         cfg.Logger,
		AuthToken:      cfg.AuthToken,
		AllowedOrigins: cfg.AllowedOrigins,
	}))

	if cfg.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	history := restHandler(cfg.AuthToken, watches.History)
	return loggingMiddleware(cfg.Logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ServeMux cleans "//" out of a path and redirects, which would strip
		// the leading slash of an absolute file path embedded in a history
		// URL, so history requests are routed before reaching it.
		if strings.HasPrefix(r.URL.Path, "/api/watches/") && strings.HasSuffix(r.URL.Path, "/history") {
			history(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	}))
}
