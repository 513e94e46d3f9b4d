// Package director provides wave directors: a client for a generative JSON
// service and a local procedural generator.
package director

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/config"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

var (
	// ErrOffline is returned once the service has reported a quota problem,
	// or when no API key is configured.
	ErrOffline = errors.New("director: offline")
	// ErrRateLimited is returned when the client-side limiter refuses a call.
	ErrRateLimited = errors.New("director: rate limited")
)

// APIKeyHeader carries the director credential.
const APIKeyHeader = "X-Api-Key"

// SystemInstruction frames every generation request.
const SystemInstruction = "You are the AI Director of a retro arcade game 'Snow Bros 2026'. " +
	"Generate balanced but challenging wave configurations based on player performance. Return only valid JSON."

// Request is the body posted to a generative service.
type Request struct {
	Model             string          `json:"model"`
	SystemInstruction string          `json:"systemInstruction"`
	Prompt            string          `json:"prompt"`
	ResponseMimeType  string          `json:"responseMimeType"`
	ResponseSchema    json.RawMessage `json:"responseSchema,omitempty"`
	Wave              int             `json:"wave"`
	Score             int             `json:"score"`
	TimeTakenSeconds  float64         `json:"timeTakenSeconds"`
}

// Response is the body a generative service answers with. Text holds the
// wave config JSON, possibly wrapped in a markdown fence.
type Response struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Prompt describes the next level to the service.
func Prompt(waveNumber int, perf wave.Performance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current Level: %d.\n", waveNumber)
	fmt.Fprintf(&b, "Player Score: %d.\n", perf.Score)
	fmt.Fprintf(&b, "Time Last Level: %.0fs.\n\n", perf.TimeTaken.Seconds())
	b.WriteString("Design the next level configuration.\n")
	b.WriteString("1. Difficulty: If player is fast (<30s), increase enemySpeed and aggressiveness.\n")
	b.WriteString("2. Event: If levelNumber % 3 == 0, trigger BLIZZARD event.\n")
	b.WriteString("3. Enemy Design: Invent a new retro-sci-fi enemy type for this level. " +
		"Give it a cool name, a bright HEX color, and a 1-sentence lore description.\n")
	b.WriteString("4. Level Layout: Design 3 to 6 platforms for this level. World size is 800x600. Floor is at y=560. " +
		"Platforms should be between x=[50, 750] and y=[150, 500]. Ensure they are jumpable (max jump height ~150px).\n")
	return b.String()
}

// StripFences removes a surrounding markdown code fence, with or without a
// json language tag.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Generative asks a remote generative service for wave configs.
type Generative struct {
	endpoint string
	model    string
	apiKey   string
	bounds   wave.Bounds
	client   *http.Client
	limiter  *rate.Limiter
	logger   *log.Logger
	schema   json.RawMessage
	offline  atomic.Bool
}

// NewGenerative creates a client for the configured endpoint. Without an
// API key the client starts offline and every call fails fast.
func NewGenerative(cfg config.DirectorConfig, apiKey string, bounds wave.Bounds, logger *log.Logger) (*Generative, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("director: endpoint is required")
	}
	schema, err := wave.SchemaJSON()
	if err != nil {
		return nil, fmt.Errorf("director: cannot build schema: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	g := &Generative{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   apiKey,
		bounds:   bounds,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		logger:   logger,
		schema:   schema,
	}
	if apiKey == "" {
		logger.Warn("no director API key, running offline")
		g.offline.Store(true)
	}
	return g, nil
}

// Offline reports whether the client has given up on the service.
func (g *Generative) Offline() bool {
	return g.offline.Load()
}

// Generate implements wave.Director.
func (g *Generative) Generate(ctx context.Context, waveNumber int, perf wave.Performance) (wave.Config, error) {
	if g.offline.Load() {
		return wave.Config{}, ErrOffline
	}
	if !g.limiter.Allow() {
		return wave.Config{}, ErrRateLimited
	}

	body, err := json.Marshal(Request{
		Model:             g.model,
		SystemInstruction: SystemInstruction,
		Prompt:            Prompt(waveNumber, perf),
		ResponseMimeType:  "application/json",
		ResponseSchema:    g.schema,
		Wave:              waveNumber,
		Score:             perf.Score,
		TimeTakenSeconds:  perf.TimeTaken.Seconds(),
	})
	if err != nil {
		return wave.Config{}, fmt.Errorf("director: cannot encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return wave.Config{}, fmt.Errorf("director: cannot build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(APIKeyHeader, g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return wave.Config{}, fmt.Errorf("director: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return wave.Config{}, fmt.Errorf("director: cannot read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if quotaExceeded(resp.StatusCode, data) {
			g.offline.Store(true)
			g.logger.Warn("director quota exceeded, switching to offline mode", "status", resp.StatusCode)
			return wave.Config{}, fmt.Errorf("%w: status %d", ErrOffline, resp.StatusCode)
		}
		return wave.Config{}, fmt.Errorf("director: unexpected status %d", resp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return wave.Config{}, fmt.Errorf("director: cannot decode response: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return wave.Config{}, fmt.Errorf("director: empty response")
	}

	var cfg wave.Config
	if err := json.Unmarshal([]byte(StripFences(out.Text)), &cfg); err != nil {
		return wave.Config{}, fmt.Errorf("director: cannot decode wave config: %w", err)
	}
	cfg, err = wave.Sanitize(cfg, g.bounds)
	if err != nil {
		return wave.Config{}, err
	}
	g.logger.Debug("wave generated", "wave", waveNumber, "enemies", cfg.EnemyCount, "event", cfg.SpecialEvent)
	return cfg, nil
}

func quotaExceeded(status int, body []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	s := strings.ToLower(string(body))
	return strings.Contains(s, "quota") || strings.Contains(s, "429")
}
