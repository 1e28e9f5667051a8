// Package api contains the HTTP request -> HTTP response functions of the
// dispatch service.
package api

import (
	"net/http"

	"github.com/golang/glog"

	"github.com/maylhq/mayl/pkg/dispatch"
)

// HealthHandler reports service status plus the aggregate queue and archive
// sizes. Queued delivery failures are only observable through these
// aggregates, not per message.
type HealthHandler struct {
	dispatcher *dispatch.Dispatcher
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(dispatcher *dispatch.Dispatcher) *HealthHandler {
	return &HealthHandler{dispatcher: dispatcher}
}

// Health handles GET /health.
func (hh *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := hh.dispatcher.Stats()
	if err != nil {
		glog.Errorf("failed to read stats: %v", err)
		errorResponse(w, "Cannot read stats", http.StatusInternalServerError)
		return
	}

	envelope := Envelope{
		"status":       "ok",
		"queue_size":   stats.QueueSize,
		"archive_size": stats.ArchiveSize,
	}
	if err := jsonResponse(w, envelope, http.StatusOK); err != nil {
		glog.Errorf("Failed creating json response: %v", err)
		http.Error(w, "Cannot create json response", http.StatusInternalServerError)
	}
}
