package rpc

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"mask-wallet/go-backend/internal/app"
	"mask-wallet/go-backend/internal/gate"
	"mask-wallet/go-backend/internal/metrics"
	"mask-wallet/go-backend/internal/platform/ratelimiter"
)

const DefaultRPCAddr = "127.0.0.1:8791"

// Headers the extension host asserts out of band. The caller origin and
// gesture flag never travel inside the attacker-influenced payload.
const (
	headerRPCToken     = "X-Mask-RPC-Token"
	headerCallerOrigin = "X-Mask-Caller-Origin"
	headerUserGesture  = "X-Mask-User-Gesture"
)

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// Server fronts the wallet service with localhost JSON-RPC 2.0. The host
// (extension background runtime) is its only direct client.
type Server struct {
	httpServer *http.Server
	service    *app.Service
	gate       *gate.Gate
	metrics    *metrics.Set
	rpcToken   string
	requireRPC bool
	limiter    *ratelimiter.MapLimiter
	log        *slog.Logger
	initErr    error
}

func NewServer(rpcAddr string, svc *app.Service, g *gate.Gate, met *metrics.Set, rateLimit RateLimitConfig, log *slog.Logger) *Server {
	requireRPC := requiresRPCToken()
	rpcToken, err := resolveRPCToken()
	if err != nil {
		return &Server{initErr: err}
	}
	if requireRPC && rpcToken == "" {
		return &Server{
			initErr: errors.New("MASK_RPC_TOKEN is required unless MASK_REQUIRE_RPC_TOKEN=false or MASK_ENV is test/development/local"),
		}
	}
	if rpcAddr == "" {
		rpcAddr = DefaultRPCAddr
	}
	if log == nil {
		log = slog.Default()
	}

	var limiter *ratelimiter.MapLimiter
	if rateLimit.Enabled {
		limiter = ratelimiter.New(rateLimit.RPS, rateLimit.Burst, 10*time.Minute)
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:              rpcAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		service:    svc,
		gate:       g,
		metrics:    met,
		rpcToken:   rpcToken,
		requireRPC: requireRPC,
		limiter:    limiter,
		log:        log,
	}
	if s.rpcToken == "" && !s.requireRPC {
		log.Warn("MASK_RPC_TOKEN is not set; RPC auth disabled")
	}
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/rpc", s.handleRPC)
	mux.HandleFunc("/rpc/stream", s.handleRPCStream)
	if met != nil {
		mux.Handle("/metrics", met.Handler())
	}
	return s
}

func (s *Server) Run(ctx context.Context) error {
	if s.initErr != nil {
		return s.initErr
	}
	select {
	case <-ctx.Done():
		return nil
	default:
	}

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.applyCORS(w, r) {
		return
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin != "" && !isAllowedBrowserOrigin(origin) {
		http.Error(w, "origin is not allowed", http.StatusForbidden)
		return false
	}
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
	w.Header().Set("Vary", "Origin")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers",
		"Content-Type, Accept, Authorization, "+headerRPCToken+", "+headerCallerOrigin+", "+headerUserGesture)
	return true
}

func (s *Server) authorizeRPC(w http.ResponseWriter, r *http.Request) bool {
	if s.rpcToken == "" && !s.requireRPC {
		return true
	}
	if s.extractRPCToken(r) != s.rpcToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func (s *Server) extractRPCToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get(headerRPCToken))
	if token != "" {
		return token
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return ""
}

// isAllowedBrowserOrigin gates the HTTP-level Origin header: only the local
// host runtime may talk to the daemon at all. The per-call caller origin is
// a separate concept checked by the access gate.
func isAllowedBrowserOrigin(raw string) bool {
	if raw == "null" {
		allowNull, _ := parseBoolEnv("MASK_ALLOW_NULL_ORIGIN")
		return allowNull
	}
	if strings.HasPrefix(raw, "chrome-extension://") || strings.HasPrefix(raw, "moz-extension://") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.TrimSpace(u.Hostname()) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

func requiresRPCToken() bool {
	if v, ok := parseBoolEnv("MASK_REQUIRE_RPC_TOKEN"); ok {
		if !v && !isNonProdEnv() {
			// Fail-closed in production-like environments.
			return true
		}
		return v
	}
	return !isNonProdEnv()
}

func isNonProdEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MASK_ENV"))) {
	case "test", "testing", "dev", "development", "local":
		return true
	default:
		return false
	}
}

func parseBoolEnv(name string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func resolveRPCToken() (string, error) {
	token := strings.TrimSpace(os.Getenv("MASK_RPC_TOKEN"))
	if !strings.EqualFold(token, "auto") {
		return token, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token = "rpc_" + hex.EncodeToString(buf)
	_ = os.Setenv("MASK_RPC_TOKEN", token)
	return token, nil
}
