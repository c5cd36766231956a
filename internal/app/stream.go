package app

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// streamHandler pushes status and alert events to dashboard clients over
// Server-Sent Events. Each connection owns its cursors, zeroed at connect,
// so a fresh subscriber immediately receives the current status snapshot
// and every alert already on disk before incremental updates begin.
type streamHandler struct {
	logger       *zap.Logger
	store        *Store
	enricher     *Enricher
	pollInterval time.Duration
}

func newStreamHandler(logger *zap.Logger, store *Store, enricher *Enricher, pollInterval time.Duration) *streamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &streamHandler{logger: logger, store: store, enricher: enricher, pollInterval: pollInterval}
}

func (h *streamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	streamClients.Inc()
	defer streamClients.Dec()
	h.logger.Debug("stream client connected", zap.String("remote", r.RemoteAddr))
	defer h.logger.Debug("stream client disconnected", zap.String("remote", r.RemoteAddr))

	var lastStatus time.Time
	var alertsOffset int64

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		if !h.tick(w, flusher, &lastStatus, &alertsOffset) {
			return
		}
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// tick emits whatever changed since the cursors and advances them. It
// reports false once the client is gone; a failed write is the only signal
// we get for that.
func (h *streamHandler) tick(w io.Writer, flusher http.Flusher, lastStatus *time.Time, alertsOffset *int64) bool {
	changed := false

	if mtime, ok := h.store.StatusMTime(); ok && mtime.After(*lastStatus) {
		status := h.enricher.Enrich(h.store.Status())
		if err := writeEvent(w, "status", status); err != nil {
			return false
		}
		*lastStatus = mtime
		streamEventsTotal.WithLabelValues("status").Inc()
		changed = true
	}

	if size, ok := h.store.AlertsSize(); ok && size > *alertsOffset {
		entries, newOffset := h.store.AlertsFrom(*alertsOffset)
		for _, entry := range entries {
			if err := writeEvent(w, "alert", entry); err != nil {
				return false
			}
			streamEventsTotal.WithLabelValues("alert").Inc()
		}
		*alertsOffset = newOffset
		changed = true
	}

	if changed {
		flusher.Flush()
	}
	return true
}

// writeEvent writes one SSE frame.
func writeEvent(w io.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
