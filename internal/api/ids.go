package api

import "github.com/google/uuid"

// newConnectionID tags one websocket connection for correlating its log
// lines, distinct from any application-level identifier.
func newConnectionID() string {
	return uuid.New().String()
}
