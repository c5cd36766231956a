package app

import (
	"context"
	"os"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	clts "arbdash/clients"
	"arbdash/config"
)

// Build info - populated from embedded VCS info at init time
var (
	BuildCommit = "dev"
	BuildTime   = "unknown"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if setting.Value != "" {
					BuildCommit = setting.Value
				}
			case "vcs.time":
				BuildTime = setting.Value
			}
		}
	}
}

// Runner wires the store, enricher, pause gate, HTTP server and alert
// watcher together and manages their lifecycle.
type Runner struct {
	clients *clts.Clients
	cfg     *config.Config

	store    *Store
	enricher *Enricher
	gate     *PauseGate
	server   *Server
	watcher  *AlertWatcher

	startTime time.Time
}

func NewRunner(clients *clts.Clients, cfg *config.Config) *Runner {
	return &Runner{
		clients: clients,
		cfg:     cfg,
	}
}

// Run starts all components and blocks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.startTime = time.Now()

	logger := r.clients.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("starting dashboard",
		zap.String("buildCommit", BuildCommit),
		zap.Bool("isProd", r.cfg.IsProd),
		zap.Int("port", r.cfg.Server.Port),
	)

	r.store = NewStore(logger, r.cfg.Data.Dir)
	r.enricher = NewEnricher(logger, r.store, r.cfg.Enrich.Enabled)
	r.gate = NewPauseGate(logger, r.store.PausePath())
	r.server = NewServer(logger, r.cfg, r.store, r.enricher, r.gate)

	r.logStartupState(logger)

	// Alert forwarding only runs when at least one chat channel is configured.
	if r.cfg.Watcher.Enabled && r.clients.Notifier.Count() > 0 {
		r.watcher = NewAlertWatcher(logger, r.store, r.clients.Notifier, r.cfg.Watcher.PollInterval)
		go r.watcher.Run(ctx)
	} else {
		logger.Info("alert forwarding disabled",
			zap.Bool("enabled", r.cfg.Watcher.Enabled),
			zap.Int("notifiers", r.clients.Notifier.Count()),
		)
	}

	if err := r.server.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	logger.Info("runner shutting down",
		zap.Duration("uptime", time.Since(r.startTime).Round(time.Second)))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := r.server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown incomplete", zap.Error(err))
	}

	if err := r.clients.Notifier.Close(); err != nil {
		logger.Warn("notifier close failed", zap.Error(err))
	}

	return nil
}

// logStartupState reports where the dashboard reads its data and static
// assets from, and whether the PnL seed is configured.
func (r *Runner) logStartupState(logger *zap.Logger) {
	logger.Info("data directory", zap.String("path", r.store.Dir()))

	if _, err := os.Stat(r.cfg.Server.StaticDir); err != nil {
		logger.Warn("static bundle not found",
			zap.String("path", r.cfg.Server.StaticDir))
	} else {
		logger.Info("static bundle", zap.String("path", r.cfg.Server.StaticDir))
	}

	if r.store.HasPnlConfig() {
		logger.Info("pnl config loaded", zap.Float64("seedUSD", r.store.SeedUSD()))
	} else {
		logger.Warn("no pnl config found, seed enrichment inactive",
			zap.String("path", r.store.PnlConfigPath()),
			zap.String("hint", `create it with {"seed_usd": YOUR_AMOUNT}`))
	}
}

// Uptime reports how long the runner has been running.
func (r *Runner) Uptime() time.Duration {
	if r.startTime.IsZero() {
		return 0
	}
	return time.Since(r.startTime)
}
