package notifier

import (
	"time"
)

// Severity classifies how urgent an alert is. Values match what the bot
// writes into its alert log.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is one entry from the bot's alert log in the shape notifiers
// consume.
type Alert struct {
	Timestamp float64 // unix seconds, as written by the bot
	Severity  Severity
	Category  string
	Message   string
}

// Time converts the epoch-seconds timestamp. A zero or missing timestamp
// yields the zero time.
func (a Alert) Time() time.Time {
	if a.Timestamp <= 0 {
		return time.Time{}
	}
	sec := int64(a.Timestamp)
	nsec := int64((a.Timestamp - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// Notifier is the interface for forwarding bot alerts to chat channels.
type Notifier interface {
	// SendAlert forwards one alert.
	SendAlert(alert Alert)

	// Close cleans up any resources.
	Close() error
}

// MultiNotifier broadcasts alerts to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a new MultiNotifier with the given notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	// Filter out nil notifiers
	var active []Notifier
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &MultiNotifier{notifiers: active}
}

// SendAlert sends the alert to all registered notifiers.
func (m *MultiNotifier) SendAlert(alert Alert) {
	for _, n := range m.notifiers {
		n.SendAlert(alert)
	}
}

// Close closes all registered notifiers.
func (m *MultiNotifier) Close() error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Count returns the number of active notifiers.
func (m *MultiNotifier) Count() int {
	return len(m.notifiers)
}
