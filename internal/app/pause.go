package app

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// PauseGate controls the flag file the bot polls to decide whether to halt
// trading. The file's existence is the whole protocol: present means
// paused, absent means running.
type PauseGate struct {
	logger *zap.Logger
	path   string
}

func NewPauseGate(logger *zap.Logger, path string) *PauseGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PauseGate{logger: logger, path: path}
}

// Paused reports whether the flag file exists.
func (g *PauseGate) Paused() bool {
	_, err := os.Stat(g.path)
	return err == nil
}

// SetPaused creates or removes the flag file and returns the resulting
// state. Unpausing when already unpaused is a no-op.
func (g *PauseGate) SetPaused(paused bool) (bool, error) {
	if paused {
		if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
			return g.Paused(), err
		}
		f, err := os.OpenFile(g.path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return g.Paused(), err
		}
		if err := f.Close(); err != nil {
			return g.Paused(), err
		}
		g.logger.Info("pause flag set", zap.String("path", g.path))
		return g.Paused(), nil
	}
	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		return g.Paused(), err
	}
	g.logger.Info("pause flag cleared", zap.String("path", g.path))
	return g.Paused(), nil
}
