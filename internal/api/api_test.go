package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/config"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/director"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/hud"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/storage"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

type fakeBoard struct {
	entries []storage.BestEntry
	err     error
	limit   int
}

func (b *fakeBoard) Leaderboard(ctx context.Context, limit int) ([]storage.BestEntry, error) {
	b.limit = limit
	return b.entries, b.err
}

func newTestServer(t *testing.T, rc RouterConfig) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(Config{
		Router:    rc,
		RateLimit: RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})
	return srv, ts
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, RouterConfig{})
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, expected 200", resp.StatusCode)
	}
}

func TestLeaderboard(t *testing.T) {
	board := &fakeBoard{entries: []storage.BestEntry{{PlayerID: "a", PlayerName: "alice", Score: 900, Wave: 4}}}
	_, ts := newTestServer(t, RouterConfig{Leaderboard: board})

	tests := []struct {
		name   string
		query  string
		status int
		limit  int
	}{
		{"default limit", "", http.StatusOK, 10},
		{"custom limit", "?limit=3", http.StatusOK, 3},
		{"bad limit", "?limit=abc", http.StatusBadRequest, 0},
		{"limit too large", "?limit=1000", http.StatusBadRequest, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			board.limit = 0
			resp, err := http.Get(ts.URL + "/api/leaderboard" + tc.query)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, expected %d", resp.StatusCode, tc.status)
			}
			if board.limit != tc.limit {
				t.Errorf("limit = %d, expected %d", board.limit, tc.limit)
			}
			if tc.status != http.StatusOK {
				return
			}
			var body struct {
				Entries []storage.BestEntry `json:"entries"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if len(body.Entries) != 1 || body.Entries[0].PlayerName != "alice" {
				t.Errorf("entries = %+v", body.Entries)
			}
		})
	}

	t.Run("store failure", func(t *testing.T) {
		board.err = errors.New("disk on fire")
		defer func() { board.err = nil }()
		resp, err := http.Get(ts.URL + "/api/leaderboard")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("status = %d, expected 500", resp.StatusCode)
		}
	})
}

func TestDirectorEndpoint(t *testing.T) {
	bounds := wave.DefaultBounds(800, 600)
	_, ts := newTestServer(t, RouterConfig{Director: director.NewProcedural(bounds), APIKey: "secret"})
	endpoint := ts.URL + "/api/director/generate"

	post := func(key, body string) *http.Response {
		req, _ := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set(director.APIKeyHeader, key)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	tests := []struct {
		name, key, body string
		status          int
	}{
		{"missing key", "", `{"wave":1}`, http.StatusUnauthorized},
		{"wrong key", "nope", `{"wave":1}`, http.StatusUnauthorized},
		{"bad body", "secret", `{`, http.StatusBadRequest},
		{"bad wave", "secret", `{"wave":0}`, http.StatusBadRequest},
		{"ok", "secret", `{"wave":3,"score":1000,"timeTakenSeconds":20}`, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := post(tc.key, tc.body)
			defer resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, expected %d", resp.StatusCode, tc.status)
			}
			if tc.status != http.StatusOK {
				return
			}
			var out director.Response
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatal(err)
			}
			var cfg wave.Config
			if err := json.Unmarshal([]byte(out.Text), &cfg); err != nil {
				t.Fatalf("text is not a wave config: %v", err)
			}
			if !cfg.Blizzard() || cfg.EnemyCount < 1 {
				t.Errorf("config = %+v, expected a wave 3 blizzard", cfg)
			}
		})
	}

	t.Run("generative client round trip", func(t *testing.T) {
		g, err := director.NewGenerative(config.DirectorConfig{Endpoint: endpoint, Model: "wave-director", RequestsPerSecond: 100, Burst: 10}, "secret", bounds, nil)
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := g.Generate(context.Background(), 2, wave.Performance{Score: 500, TimeTaken: time.Minute})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		want, _ := director.NewProcedural(bounds).Generate(context.Background(), 2, wave.Performance{Score: 500, TimeTaken: time.Minute})
		if cfg.EnemyCount != want.EnemyCount || cfg.Message != want.Message || len(cfg.Layout) != len(want.Layout) {
			t.Errorf("Generate() = %+v, expected %+v", cfg, want)
		}
	})
}

func TestRateLimit(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})
	srv, ts := newTestServer(t, RouterConfig{RateLimiter: rl})

	codes := make([]int, 3)
	for i := range codes {
		resp, err := http.Get(ts.URL + "/healthz")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		codes[i] = resp.StatusCode
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, expected [200 200 429]", codes)
	}
	if s := rl.Stats(); s["rejected"] != 1 || s["allowed"] != 2 {
		t.Errorf("Stats() = %v", s)
	}

	rec := httptest.NewRecorder()
	srv.Metrics().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `connection_rejected_total{reason="rate_limit"} 1`) {
		t.Error("rejection should be counted")
	}
}

func TestLimiterCleanup(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()
	rl.Allow("10.0.0.1")

	rl.cleanup(time.Now())
	if _, ok := rl.limiters.Load("10.0.0.1"); !ok {
		t.Fatal("fresh limiter should survive cleanup")
	}
	rl.cleanup(time.Now().Add(3 * time.Minute))
	if _, ok := rl.limiters.Load("10.0.0.1"); ok {
		t.Error("idle limiter should be removed")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		value    string
		expected string
	}{
		{"forwarded list", "X-Forwarded-For", "1.2.3.4, 5.6.7.8", "1.2.3.4"},
		{"forwarded single", "X-Forwarded-For", " 1.2.3.4 ", "1.2.3.4"},
		{"real ip", "X-Real-IP", "9.9.9.9", "9.9.9.9"},
		{"remote addr", "", "", "192.0.2.1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set(tc.header, tc.value)
			}
			if got := ClientIP(r); got != tc.expected {
				t.Errorf("ClientIP() = %q, expected %q", got, tc.expected)
			}
		})
	}
}

func TestOriginAllowed(t *testing.T) {
	origins := []string{"http://localhost:*", "https://overlay.example"}
	tests := []struct {
		origin   string
		expected bool
	}{
		{"http://localhost:3000", true},
		{"https://overlay.example", true},
		{"https://evil.example", false},
		{"http://localhost.evil:80", false},
	}
	for _, tc := range tests {
		if got := originAllowed(origins, tc.origin); got != tc.expected {
			t.Errorf("originAllowed(%q) = %v, expected %v", tc.origin, got, tc.expected)
		}
	}
	if !originAllowed([]string{"*"}, "https://anything") {
		t.Error("wildcard should allow every origin")
	}
}

func TestMetrics(t *testing.T) {
	srv, ts := newTestServer(t, RouterConfig{})
	m := srv.Metrics()
	m.ObserveStep(time.Millisecond)
	m.ObserveFrame(12, true)
	m.ObserveWave(2, wave.SourceFallback, errors.New("timeout"))
	m.ObserveWave(3, wave.SourceDirector, nil)

	http.Get(ts.URL + "/healthz")
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	for _, want := range []string{
		`snowbros_waves_total{source="fallback"} 1`,
		`snowbros_waves_total{source="director"} 1`,
		`snowbros_director_errors_total 1`,
		`snowbros_frames_truncated_total 1`,
		`snowbros_wave 3`,
		`http_requests_total{endpoint="/healthz",method="GET",status="200"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestHubStreamsPatches(t *testing.T) {
	srv, ts := newTestServer(t, RouterConfig{})
	hub := srv.Hub()
	hub.Publish(hud.Patch{Score: hud.Ptr(100), Wave: hud.Ptr(1)})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first struct {
		Event string    `json:"event"`
		Data  hud.State `json:"data"`
	}
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if first.Event != EventState || first.Data.Score != 100 || first.Data.Wave != 1 {
		t.Errorf("first message = %+v, expected the merged state", first)
	}

	hub.Publish(hud.Patch{ClearBoss: true})
	var second struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if second.Event != EventPatch || string(second.Data) != `{"bossHealth":null}` {
		t.Errorf("second message = %s %s", second.Event, second.Data)
	}
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, expected 1", hub.ClientCount())
	}
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	_, ts := newTestServer(t, RouterConfig{})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("Dial() should fail for a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, expected 403", resp)
	}
}

func TestHubState(t *testing.T) {
	h := NewHub(nil, nil, nil)
	h.Publish(hud.Patch{Boss: &hud.BossBar{Health: 50, Max: 100}})
	s := h.State()
	s.Boss.Health = 1
	if h.State().Boss.Health != 50 {
		t.Error("State() must return a copy")
	}
	h.Close()
}

func TestServeShutdown(t *testing.T) {
	srv := NewServer(Config{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
