// Package api serves the HTTP surface of a running arena: HUD patches over
// WebSocket, the leaderboard, the wave director and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/director"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/storage"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

// LeaderboardSource lists the best score of each player.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, limit int) ([]storage.BestEntry, error)
}

// RouterConfig contains the dependencies of the router. Nil dependencies
// disable their routes.
type RouterConfig struct {
	Director    wave.Director
	Leaderboard LeaderboardSource
	Hub         *Hub
	Metrics     *Metrics
	RateLimiter *IPRateLimiter
	Logger      *log.Logger

	// APIKey, when set, is required on director requests.
	APIKey string
	// CORSOrigins defaults to localhost on any port.
	CORSOrigins []string
	// DirectorTimeout bounds one generation. Defaults to 5s.
	DirectorTimeout time.Duration
}

// DefaultCORSOrigins allows local overlays.
var DefaultCORSOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}

type handlers struct {
	cfg RouterConfig
	log *log.Logger
}

// NewRouter builds the router. It starts no goroutines and opens no
// listeners, so it can be served with httptest.
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.CORSOrigins == nil {
		cfg.CORSOrigins = DefaultCORSOrigins
	}
	if cfg.DirectorTimeout <= 0 {
		cfg.DirectorTimeout = 5 * time.Second
	}
	h := &handlers{cfg: cfg, log: cfg.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(h.requestLogger)
	// Rate limiting before CORS to reject early.
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", director.APIKeyHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.handleHealth)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}
	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.HandleWebSocket)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/schema", h.handleSchema)
		if cfg.Hub != nil {
			r.Get("/hud", h.handleHUD)
		}
		if cfg.Leaderboard != nil {
			r.Get("/leaderboard", h.handleLeaderboard)
		}
		if cfg.Director != nil {
			r.Post("/director/generate", h.handleGenerate)
		}
	})

	return r
}

func (h *handlers) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"duration", time.Since(start), "ip", ClientIP(r))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) handleSchema(w http.ResponseWriter, r *http.Request) {
	data, err := wave.SchemaJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "schema unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.Write(data)
}

func (h *handlers) handleHUD(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cfg.Hub.State())
}

func (h *handlers) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	entries, err := h.cfg.Leaderboard.Leaderboard(r.Context(), limit)
	if err != nil {
		h.log.Error("leaderboard query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleGenerate answers in the generative wire format, so a Generative
// client can use this server as its endpoint.
func (h *handlers) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if h.cfg.APIKey != "" && r.Header.Get(director.APIKeyHeader) != h.cfg.APIKey {
		writeJSON(w, http.StatusUnauthorized, director.Response{Error: "invalid api key"})
		return
	}

	var req director.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, director.Response{Error: "invalid request body"})
		return
	}
	if req.Wave < 1 {
		writeJSON(w, http.StatusBadRequest, director.Response{Error: "wave must be at least 1"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.DirectorTimeout)
	defer cancel()
	perf := wave.Performance{
		Score:     req.Score,
		TimeTaken: time.Duration(req.TimeTakenSeconds * float64(time.Second)),
	}
	cfg, err := h.cfg.Director.Generate(ctx, req.Wave, perf)
	if err != nil {
		h.log.Warn("director failed", "wave", req.Wave, "err", err)
		writeJSON(w, http.StatusBadGateway, director.Response{Error: "generation failed"})
		return
	}

	text, err := json.Marshal(cfg)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, director.Response{Error: "cannot encode wave"})
		return
	}
	h.log.Info("wave generated", "wave", req.Wave, "enemies", cfg.EnemyCount, "event", cfg.SpecialEvent)
	writeJSON(w, http.StatusOK, director.Response{Text: string(text)})
}
