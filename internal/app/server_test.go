package app

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"arbdash/config"
)

func testConfig(dataDir, staticDir string) *config.Config {
	cfg := config.Defaults()
	cfg.Data.Dir = dataDir
	cfg.Server.StaticDir = staticDir
	cfg.Stream.PollInterval = 10 * time.Millisecond
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	store := NewStore(zap.NewNop(), cfg.Data.Dir)
	enricher := NewEnricher(zap.NewNop(), store, cfg.Enrich.Enabled)
	gate := NewPauseGate(zap.NewNop(), store.PausePath())
	return NewServer(zap.NewNop(), cfg, store, enricher, gate)
}

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestServer_Status(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, statusFileName, `{"balance": 150.0}`)
	writeDataFile(t, dir, pnlConfigFileName, `{"seed_usd": 100}`)
	handler := newTestServer(t, testConfig(dir, filepath.Join(dir, "dist"))).Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	out := decodeBody(t, rr.Body)
	if got := numOr0(out, "balance"); got != 150 {
		t.Errorf("balance = %v, want 150", got)
	}
	if got := numOr0(out, "seed"); got != 100 {
		t.Errorf("seed = %v, want 100 from pnl config", got)
	}
	block, ok := out["trades"].(map[string]any)
	if !ok {
		t.Fatalf("expected enriched trades block, got %v", out["trades"])
	}
	if got := numOr0(block, "total_pnl"); got != 50 {
		t.Errorf("total_pnl = %v, want 50 derived from balance-seed", got)
	}
}

func TestServer_StatusTrailingSlash(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, statusFileName, `{"balance": 1.0}`)
	handler := newTestServer(t, testConfig(dir, filepath.Join(dir, "dist"))).Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/status/", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for trailing slash", rr.Code)
	}
}

func TestServer_Trades(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, tradesFileName,
		`{"id": "a", "outcome": "converged"}
{"id": "b", "outcome": "open"}
`)
	handler := newTestServer(t, testConfig(dir, filepath.Join(dir, "dist"))).Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/trades", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	out := decodeBody(t, rr.Body)
	trades, ok := out["trades"].([]any)
	if !ok {
		t.Fatalf("expected trades array, got %v", out["trades"])
	}
	if len(trades) != 2 {
		t.Errorf("len(trades) = %d, want 2", len(trades))
	}
}

func TestServer_TradesEmpty(t *testing.T) {
	dir := t.TempDir()
	handler := newTestServer(t, testConfig(dir, filepath.Join(dir, "dist"))).Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/trades", nil))

	out := decodeBody(t, rr.Body)
	trades, ok := out["trades"].([]any)
	if !ok {
		t.Fatalf("expected empty array, not null: %v", out["trades"])
	}
	if len(trades) != 0 {
		t.Errorf("len(trades) = %d, want 0", len(trades))
	}
}

func TestServer_AlertsCapped(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	for i := 0; i < 250; i++ {
		fmt.Fprintf(&b, `{"id": %d}`+"\n", i)
	}
	writeDataFile(t, dir, alertsFileName, b.String())
	handler := newTestServer(t, testConfig(dir, filepath.Join(dir, "dist"))).Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))

	out := decodeBody(t, rr.Body)
	alerts, ok := out["alerts"].([]any)
	if !ok {
		t.Fatalf("expected alerts array, got %v", out["alerts"])
	}
	if len(alerts) != alertsMaxReturned {
		t.Fatalf("len(alerts) = %d, want %d", len(alerts), alertsMaxReturned)
	}
	first := alerts[0].(map[string]any)
	if got := numOr0(first, "id"); got != 50 {
		t.Errorf("first id = %v, want 50 (oldest of the last 200)", got)
	}
	last := alerts[len(alerts)-1].(map[string]any)
	if got := numOr0(last, "id"); got != 249 {
		t.Errorf("last id = %v, want 249", got)
	}
}

func TestServer_PauseRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srv := newTestServer(t, testConfig(dir, filepath.Join(dir, "dist")))
	handler := srv.Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/pause", strings.NewReader(`{"paused": true}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("POST pause status = %d, want 200", rr.Code)
	}
	if out := decodeBody(t, rr.Body); out["paused"] != true {
		t.Errorf("paused = %v, want true", out["paused"])
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/pause", nil))
	if out := decodeBody(t, rr.Body); out["paused"] != true {
		t.Errorf("GET paused = %v, want true", out["paused"])
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/pause", strings.NewReader(`{"paused": false}`)))
	if out := decodeBody(t, rr.Body); out["paused"] != false {
		t.Errorf("paused = %v, want false", out["paused"])
	}
	if srv.gate.Paused() {
		t.Error("expected flag file removed after unpause")
	}
}

func TestServer_PauseTokenGuard(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, filepath.Join(dir, "dist"))
	cfg.Server.PauseToken = "sekrit"
	handler := newTestServer(t, cfg).Handler()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"missing bearer prefix", "sekrit", http.StatusUnauthorized},
		{"correct token", "Bearer sekrit", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/pause", strings.NewReader(`{"paused": true}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}

	// Reads stay open.
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/pause", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("GET pause status = %d, want 200 without a token", rr.Code)
	}
}

func TestServer_PauseMalformedBody(t *testing.T) {
	dir := t.TempDir()
	handler := newTestServer(t, testConfig(dir, filepath.Join(dir, "dist"))).Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/pause", strings.NewReader(`{nope`)))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestServer_PauseEmptyBodyUnpauses(t *testing.T) {
	dir := t.TempDir()
	srv := newTestServer(t, testConfig(dir, filepath.Join(dir, "dist")))
	if _, err := srv.gate.SetPaused(true); err != nil {
		t.Fatalf("SetPaused: %v", err)
	}
	handler := srv.Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/pause", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if out := decodeBody(t, rr.Body); out["paused"] != false {
		t.Errorf("paused = %v, want false for empty body", out["paused"])
	}
}

func TestServer_APINotFound(t *testing.T) {
	dir := t.TempDir()
	handler := newTestServer(t, testConfig(dir, filepath.Join(dir, "dist"))).Handler()

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"unknown api path", http.MethodGet, "/api/nope"},
		{"wrong method", http.MethodPost, "/api/status"},
		{"wrong method on trades", http.MethodDelete, "/api/trades"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			if rr.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", rr.Code)
			}
			if out := decodeBody(t, rr.Body); out["error"] != "not found" {
				t.Errorf("error = %v, want %q", out["error"], "not found")
			}
		})
	}
}

func TestServer_StaticSPA(t *testing.T) {
	dir := t.TempDir()
	staticDir := filepath.Join(dir, "dist")
	if err := os.MkdirAll(filepath.Join(staticDir, "assets"), 0o755); err != nil {
		t.Fatalf("mkdir assets: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>dash</html>"), 0o644); err != nil {
		t.Fatalf("write index.html: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staticDir, "assets", "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatalf("write app.js: %v", err)
	}
	handler := newTestServer(t, testConfig(dir, staticDir)).Handler()

	get := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	if rr := get("/"); rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "dash") {
		t.Errorf("GET / = %d %q, want index.html", rr.Code, rr.Body.String())
	}
	if rr := get("/history"); rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "dash") {
		t.Errorf("GET /history = %d, want SPA fallback to index.html", rr.Code)
	}
	if rr := get("/assets/app.js"); rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "console") {
		t.Errorf("GET /assets/app.js = %d, want the asset itself", rr.Code)
	}
	if rr := get("/assets/missing.js"); rr.Code != http.StatusNotFound {
		t.Errorf("GET /assets/missing.js = %d, want 404, not SPA fallback", rr.Code)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/history", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("DELETE /history = %d, want 404", rr.Code)
	}
}

func TestServer_Health(t *testing.T) {
	dir := t.TempDir()
	handler := newTestServer(t, testConfig(dir, filepath.Join(dir, "dist"))).Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if got := rr.Body.String(); got != "ok" {
		t.Errorf("body = %q, want %q", got, "ok")
	}
}

func TestServer_OptionsPreflight(t *testing.T) {
	dir := t.TempDir()
	handler := newTestServer(t, testConfig(dir, filepath.Join(dir, "dist"))).Handler()

	for _, path := range []string{"/api/status", "/api/trades", "/api/alerts", "/api/pause"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, path, nil))
		if rr.Code != http.StatusNoContent {
			t.Errorf("OPTIONS %s = %d, want 204", path, rr.Code)
		}
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("OPTIONS %s Allow-Origin = %q, want *", path, got)
		}
	}
}

func TestServer_Metrics(t *testing.T) {
	dir := t.TempDir()
	handler := newTestServer(t, testConfig(dir, filepath.Join(dir, "dist"))).Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "arbdash_stream_clients") {
		t.Error("expected arbdash_stream_clients in metrics output")
	}
}

func TestServer_WebSocket(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, statusFileName, `{"balance": 42.0}`)
	srv := newTestServer(t, testConfig(dir, filepath.Join(dir, "dist")))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got map[string]any
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read first push: %v", err)
	}
	if bal := numOr0(got, "balance"); bal != 42 {
		t.Errorf("pushed balance = %v, want 42", bal)
	}
}
