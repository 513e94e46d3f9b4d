package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Config configures a Server.
type Config struct {
	Router    RouterConfig
	RateLimit RateLimitConfig
}

// Server bundles the router with the hub, limiter and metrics it owns.
type Server struct {
	hub     *Hub
	metrics *Metrics
	limiter *IPRateLimiter
	router  http.Handler
	logger  *log.Logger
}

// NewServer creates the hub, metrics and rate limiter unless cfg provides
// them. The limiter's cleanup goroutine runs until Stop.
func NewServer(cfg Config) *Server {
	rc := cfg.Router
	if rc.Logger == nil {
		rc.Logger = log.New(io.Discard)
	}
	if rc.CORSOrigins == nil {
		rc.CORSOrigins = DefaultCORSOrigins
	}
	if rc.Metrics == nil {
		rc.Metrics = NewMetrics()
	}
	if rc.Hub == nil {
		rc.Hub = NewHub(rc.CORSOrigins, rc.Metrics, rc.Logger)
	}
	if rc.RateLimiter == nil {
		rl := cfg.RateLimit
		if rl.RequestsPerSecond <= 0 {
			rl = DefaultRateLimitConfig
		}
		rc.RateLimiter = NewIPRateLimiter(rl)
	}
	rc.RateLimiter.onReject = rc.Metrics.RecordRejected

	return &Server{
		hub:     rc.Hub,
		metrics: rc.Metrics,
		limiter: rc.RateLimiter,
		router:  NewRouter(rc),
		logger:  rc.Logger,
	}
}

// Hub returns the HUD hub; its Publish method is an engine observer.
func (s *Server) Hub() *Hub { return s.hub }

// Metrics returns the metrics; they implement the engine recorder.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("api: cannot listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api: serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("api server stopping")
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Stop()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	return nil
}

// Stop releases background workers.
func (s *Server) Stop() {
	s.limiter.Stop()
	s.hub.Close()
}
