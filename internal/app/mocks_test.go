package app

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"arbdash/clients/notifier"
)

// MockNotifier records alerts delivered through the notifier interface.
type MockNotifier struct {
	mu       sync.Mutex
	alerts   []notifier.Alert
	closeErr error
	closed   bool
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// SendAlert records the alert.
func (m *MockNotifier) SendAlert(alert notifier.Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alert)
}

// Close marks the notifier closed.
func (m *MockNotifier) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.closeErr
}

// Alerts returns a copy of the recorded alerts.
func (m *MockNotifier) Alerts() []notifier.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notifier.Alert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// writeDataFile writes a bot data file into dir for a test.
func writeDataFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// appendDataFile appends to a bot data file for a test.
func appendDataFile(t *testing.T, dir, name, content string) {
	t.Helper()
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append %s: %v", name, err)
	}
}
