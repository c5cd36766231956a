package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"arbdash/clients/notifier"
)

// AlertWatcher tails the alert log and forwards new entries to the
// configured notifiers. The cursor starts at the current end of file, so
// only alerts raised while the dashboard is up get forwarded.
type AlertWatcher struct {
	logger       *zap.Logger
	store        *Store
	notifier     notifier.Notifier
	pollInterval time.Duration

	offset int64

	mu        sync.Mutex
	forwarded int64
}

func NewAlertWatcher(logger *zap.Logger, store *Store, n notifier.Notifier, pollInterval time.Duration) *AlertWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &AlertWatcher{logger: logger, store: store, notifier: n, pollInterval: pollInterval}
}

// Run polls the alert log until the context is cancelled.
func (w *AlertWatcher) Run(ctx context.Context) {
	if size, ok := w.store.AlertsSize(); ok {
		w.offset = size
	}
	w.logger.Info("alert watcher started",
		zap.String("path", w.store.AlertsPath()),
		zap.Int64("offset", w.offset))

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("alert watcher stopped", zap.Int64("forwarded", w.Forwarded()))
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

// poll forwards every alert appended since the cursor. Delivery is best
// effort; the cursor advances even when a notifier fails.
func (w *AlertWatcher) poll() {
	size, ok := w.store.AlertsSize()
	if !ok {
		return
	}
	if size < w.offset {
		// Rotated or truncated underneath us.
		w.logger.Info("alert log shrank, resetting cursor",
			zap.Int64("size", size), zap.Int64("offset", w.offset))
		w.offset = 0
	}
	if size == w.offset {
		return
	}

	entries, newOffset := w.store.AlertsFrom(w.offset)
	w.offset = newOffset

	for _, entry := range entries {
		w.notifier.SendAlert(toNotice(entry))
		alertsForwardedTotal.Inc()
	}
	if len(entries) > 0 {
		w.mu.Lock()
		w.forwarded += int64(len(entries))
		w.mu.Unlock()
	}
}

// Forwarded returns the number of alerts delivered so far.
func (w *AlertWatcher) Forwarded() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.forwarded
}

// toNotice maps a raw alert record to the notifier's type.
func toNotice(entry map[string]any) notifier.Alert {
	return notifier.Alert{
		Timestamp: numOr0(entry, "timestamp"),
		Severity:  notifier.Severity(strOr(entry, "severity", string(notifier.SeverityInfo))),
		Category:  strOr(entry, "category", "general"),
		Message:   strOr(entry, "message", ""),
	}
}
