package app

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Well-known file names inside the data directory. The bot owns these files;
// only the directory is configurable.
const (
	statusFileName    = "status.json"
	tradesFileName    = "trades.jsonl"
	alertsFileName    = "alerts.jsonl"
	pnlConfigFileName = "pnl_config.json"
	pauseFileName     = "pause.flag"
)

const (
	// tradesTailLines bounds how much of the trade log a single read parses.
	tradesTailLines = 5000
	// alertsTailLines bounds the alert log read for the bulk endpoint.
	alertsTailLines = 500
)

// Store reads the bot's data files. Every call hits the filesystem fresh;
// there is no caching and no locking — the files are append-only or
// replaced whole by the bot, and a read that races a write degrades to an
// empty/partial result for that one call.
type Store struct {
	logger *zap.Logger
	dir    string
}

func NewStore(logger *zap.Logger, dir string) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger, dir: dir}
}

func (s *Store) Dir() string           { return s.dir }
func (s *Store) StatusPath() string    { return filepath.Join(s.dir, statusFileName) }
func (s *Store) TradesPath() string    { return filepath.Join(s.dir, tradesFileName) }
func (s *Store) AlertsPath() string    { return filepath.Join(s.dir, alertsFileName) }
func (s *Store) PnlConfigPath() string { return filepath.Join(s.dir, pnlConfigFileName) }
func (s *Store) PausePath() string     { return filepath.Join(s.dir, pauseFileName) }

// ReadDocument parses a whole-file JSON object. Missing, unreadable,
// malformed or non-object content all yield an empty map: a transient
// partial write by the bot must never crash a request.
func (s *Store) ReadDocument(path string) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		return map[string]any{}
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		storeMalformedTotal.WithLabelValues(filepath.Base(path)).Inc()
		s.logger.Debug("malformed document", zap.String("path", path), zap.Error(err))
		return map[string]any{}
	}
	if doc == nil {
		return map[string]any{}
	}
	return doc
}

// ReadLog reads a line-delimited JSON log, keeping only the last maxEntries
// lines, oldest first. Blank and unparsable lines are skipped: a torn
// trailing line during an in-progress append is expected, not an error.
// A missing file yields an empty slice.
func (s *Store) ReadLog(path string, maxEntries int) []map[string]any {
	entries := make([]map[string]any, 0)
	data, err := os.ReadFile(path)
	if err != nil {
		return entries
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if maxEntries > 0 && len(lines) > maxEntries {
		lines = lines[len(lines)-maxEntries:]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil || entry == nil {
			storeMalformedTotal.WithLabelValues(filepath.Base(path)).Inc()
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// Status returns the current raw status document.
func (s *Store) Status() map[string]any {
	return s.ReadDocument(s.StatusPath())
}

// Trades returns up to the most recent 5000 trade records, oldest first.
func (s *Store) Trades() []map[string]any {
	return s.ReadLog(s.TradesPath(), tradesTailLines)
}

// Alerts returns up to tail recent alert records, oldest first.
func (s *Store) Alerts(tail int) []map[string]any {
	return s.ReadLog(s.AlertsPath(), tail)
}

// SeedUSD reads the configured seed capital, 0 when the PnL config is
// missing or unusable.
func (s *Store) SeedUSD() float64 {
	return numOr0(s.ReadDocument(s.PnlConfigPath()), "seed_usd")
}

// HasPnlConfig reports whether pnl_config.json exists at all, regardless of
// content.
func (s *Store) HasPnlConfig() bool {
	_, err := os.Stat(s.PnlConfigPath())
	return err == nil
}

// StatusMTime returns the status document's modification time.
func (s *Store) StatusMTime() (time.Time, bool) {
	info, err := os.Stat(s.StatusPath())
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// AlertsSize returns the alert log's current byte length.
func (s *Store) AlertsSize() (int64, bool) {
	info, err := os.Stat(s.AlertsPath())
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}

// AlertsFrom reads the alert log from the given byte offset to EOF and
// returns the parsed entries in log order plus the offset just past the
// bytes consumed. The returned offset reflects what was actually read, so a
// write landing between a stat and this call cannot be delivered twice.
func (s *Store) AlertsFrom(offset int64) ([]map[string]any, int64) {
	entries := make([]map[string]any, 0)
	f, err := os.Open(s.AlertsPath())
	if err != nil {
		return entries, offset
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return entries, offset
	}
	data, err := io.ReadAll(f)
	if err != nil || len(data) == 0 {
		return entries, offset
	}
	newOffset := offset + int64(len(data))

	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil || entry == nil {
			storeMalformedTotal.WithLabelValues(alertsFileName).Inc()
			continue
		}
		entries = append(entries, entry)
	}
	return entries, newOffset
}
