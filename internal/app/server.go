package app

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"arbdash/config"
)

// alertsMaxReturned caps the /api/alerts response; the tail window read
// from disk is wider so the cap applies after parsing.
const alertsMaxReturned = 200

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server is the HTTP boundary: the JSON API, the event stream, the
// websocket push, Prometheus metrics and the static dashboard bundle.
type Server struct {
	logger     *zap.Logger
	cfg        *config.Config
	store      *Store
	enricher   *Enricher
	gate       *PauseGate
	httpServer *http.Server
}

func NewServer(logger *zap.Logger, cfg *config.Config, store *Store, enricher *Enricher, gate *PauseGate) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{logger: logger, cfg: cfg, store: store, enricher: enricher, gate: gate}
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(recoveryMiddleware(s.logger), loggingMiddleware(s.logger), corsMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/trades", s.handleTrades).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/alerts", s.handleAlerts).Methods(http.MethodGet, http.MethodOptions)
	api.Handle("/alerts/stream", newStreamHandler(s.logger, s.store, s.enricher, s.cfg.Stream.PollInterval)).Methods(http.MethodGet)
	api.HandleFunc("/pause", s.handlePauseGet).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/pause", s.handlePauseSet).Methods(http.MethodPost)
	api.PathPrefix("/").HandlerFunc(s.handleAPINotFound)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.PathPrefix("/").HandlerFunc(s.handleStatic)

	return trimTrailingSlash(r)
}

// Start binds the listener and serves in the background. The base context
// reaches every request, so cancelling it ends in-flight streams.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler: s.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	s.logger.Info("dashboard listening", zap.String("addr", ln.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", zap.Error(err))
		}
	}()

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.enricher.Enrich(s.store.Status()))
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"trades": s.store.Trades()})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	entries := s.store.Alerts(alertsTailLines)
	if len(entries) > alertsMaxReturned {
		entries = entries[len(entries)-alertsMaxReturned:]
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": entries})
}

func (s *Server) handlePauseGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"paused": s.gate.Paused()})
}

func (s *Server) handlePauseSet(w http.ResponseWriter, r *http.Request) {
	if token := s.cfg.Server.PauseToken; token != "" && !authorized(r, token) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	var body struct {
		Paused bool `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return
	}
	paused, err := s.gate.SetPaused(body.Paused)
	if err != nil {
		s.logger.Error("pause toggle failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "pause toggle failed"})
		return
	}
	pauseTogglesTotal.WithLabelValues(pauseState(paused)).Inc()
	writeJSON(w, http.StatusOK, map[string]any{"paused": paused})
}

func (s *Server) handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleWS pushes the enriched status snapshot once per poll interval,
// for clients that prefer a websocket over SSE.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	interval := s.cfg.Stream.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(s.enricher.Enrich(s.store.Status())); err != nil {
			return
		}
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// handleStatic serves the built dashboard bundle. Unknown paths fall back
// to index.html so client-side routes work, except under /assets where a
// missing hashed file is a real 404.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	dir := s.cfg.Server.StaticDir
	path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		if strings.HasPrefix(r.URL.Path, "/assets") {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
		return
	}
	http.ServeFile(w, r, path)
}

// trimTrailingSlash normalizes paths before routing so /api/status/ and
// /api/status hit the same handler.
func trimTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := strings.TrimRight(r.URL.Path, "/"); p != "" {
			r.URL.Path = p
		} else {
			r.URL.Path = "/"
		}
		next.ServeHTTP(w, r)
	})
}

func authorized(r *http.Request, token string) bool {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	supplied := strings.TrimPrefix(header, prefix)
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) == 1
}

func pauseState(paused bool) string {
	if paused {
		return "paused"
	}
	return "resumed"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
