package api

import (
	"net/http"

	"gestaltwatch/internal/event"
	"gestaltwatch/internal/logging"
)

// EventsHandler streams every published file-modification event over a
// websocket, tagging the connection with a random identifier for logging.
type EventsHandler struct {
	Bus            *event.Bus[event.FileEvent]
	AuthToken      string
	AllowedOrigins []string
	Logger         *logging.Logger
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	connectionID := newConnectionID()
	logger := h.Logger
	if logger != nil {
		logger = logger.With(map[string]string{"connection_id": connectionID})
	}

	serveWSBusStream(w, r, wsBusStreamConfig[event.FileEvent]{
		Logger:            logger,
		AuthToken:         h.AuthToken,
		AllowedOrigins:    h.AllowedOrigins,
		Bus:               h.Bus,
		UnavailableReason: "event stream unavailable",
		BuildPayload: func(evt event.FileEvent) (any, bool) {
			return evt, true
		},
	})
}
