package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/config"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/engine"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/hud"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/multiplayer"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/storage"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

type fakeBoard struct {
	entries []storage.BestEntry
	err     error
}

func (f fakeBoard) Leaderboard(ctx context.Context, limit int) ([]storage.BestEntry, error) {
	return f.entries, f.err
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, cfg Config) Model {
	t.Helper()
	cfg.Engine.Runtime = core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 60, Seed: 7}
	if cfg.PrefsPath == "" {
		cfg.PrefsPath = filepath.Join(t.TempDir(), "prefs.yaml")
	}
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = t.TempDir()
	}
	m := NewModel(cfg)
	m.Init()
	t.Cleanup(m.eng.Close)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T", next)
	}
	return nm, cmd
}

func TestKeyMapAction(t *testing.T) {
	keys := DefaultKeyMap()
	tests := []struct {
		name     string
		msg      tea.KeyMsg
		expected core.Action
	}{
		{"left arrow", tea.KeyMsg{Type: tea.KeyLeft}, core.ActionLeft},
		{"a", runes("a"), core.ActionLeft},
		{"d", runes("d"), core.ActionRight},
		{"up", tea.KeyMsg{Type: tea.KeyUp}, core.ActionUp},
		{"s", runes("s"), core.ActionDown},
		{"z", runes("z"), core.ActionJump},
		{"x", runes("x"), core.ActionShoot},
		{"p", runes("p"), core.ActionPause},
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}, core.ActionPause},
		{"r", runes("r"), core.ActionRestart},
		{"m", runes("m"), core.ActionMute},
		{"tab", tea.KeyMsg{Type: tea.KeyTab}, core.ActionBack},
		{"q", runes("q"), core.ActionQuit},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, core.ActionQuit},
		{"unbound", runes("y"), core.ActionNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := keys.Action(tc.msg); got != tc.expected {
				t.Errorf("Action(%q) = %v, expected %v", tc.msg.String(), got, tc.expected)
			}
		})
	}
}

func TestHeldKeys(t *testing.T) {
	t0 := time.Unix(1000, 0)
	h := make(heldKeys)

	h.press(core.ActionLeft, t0)
	h.press(core.ActionShoot, t0)
	f := h.frame(t0.Add(100 * time.Millisecond))
	if !f.Has(core.ActionLeft) || !f.Has(core.ActionShoot) {
		t.Error("keys should be held inside the window")
	}

	// Pressing the opposite direction releases the first at once.
	h.press(core.ActionRight, t0.Add(100*time.Millisecond))
	f = h.frame(t0.Add(150 * time.Millisecond))
	if f.Has(core.ActionLeft) || !f.Has(core.ActionRight) {
		t.Errorf("frame = %v, expected right only", f.Actions)
	}

	f = h.frame(t0.Add(time.Second))
	if f.Has(core.ActionRight) || f.Has(core.ActionShoot) || len(h) != 0 {
		t.Error("expired keys should be released and forgotten")
	}
}

func TestBossBar(t *testing.T) {
	tests := []struct {
		health, max int
		expected    string
	}{
		{100, 100, "██████████ 100/100"},
		{50, 100, "█████░░░░░ 50/100"},
		{0, 100, "░░░░░░░░░░ 0/100"},
		{150, 100, "██████████ 150/100"},
		{10, 0, ""},
	}
	for _, tc := range tests {
		if got := bossBar(tc.health, tc.max, 10); got != tc.expected {
			t.Errorf("bossBar(%d, %d) = %q, expected %q", tc.health, tc.max, got, tc.expected)
		}
	}
}

func TestRenderHUD(t *testing.T) {
	s := hud.State{
		Score:    1500,
		Wave:     3,
		Lives:    2,
		Blizzard: true,
		Muted:    true,
		Message:  "BLIZZARD PROTOCOL ACTIVE",
		Theme:    &wave.Theme{Name: "Frost Golems", Color: "#3b82f6"},
		Boss:     &hud.BossBar{Health: 66, Max: 100},
	}
	out := renderHUD(s, 200)
	for _, want := range []string{"001500", "WAVE", "♥♥", "Frost Golems", "66/100", "BLIZZARD", "MUTED"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderHUD() missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "\n") {
		t.Error("HUD should be a single line")
	}
	if lives(0) != "-" {
		t.Errorf("lives(0) = %q", lives(0))
	}
}

func TestModelRun(t *testing.T) {
	m := newTestModel(t, Config{})

	st := m.State()
	if st.Wave != 1 || st.Lives != 3 {
		t.Errorf("HUD after start = %+v, expected wave 1 with 3 lives", st)
	}

	t0 := time.Unix(2000, 0)
	m, cmd := update(t, m, TickMsg(t0))
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	m, _ = update(t, m, TickMsg(t0.Add(100*time.Millisecond)))
	if m.eng.SimTime() <= 0 {
		t.Error("engine did not advance")
	}

	view := m.View()
	if !strings.Contains(view, "SCORE") || !strings.Contains(view, "WAVE") {
		t.Errorf("View() missing HUD: %q", view)
	}
}

func TestModelPauseAndRestart(t *testing.T) {
	reboots := 0
	m := newTestModel(t, Config{Engine: engine.Options{Observer: func(p hud.Patch) {
		if p.Message != nil && *p.Message == engine.MsgRebooting {
			reboots++
		}
	}}})

	m, _ = update(t, m, runes("p"))
	if !m.eng.State().Paused {
		t.Fatal("p should pause")
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("View() should show the pause footer")
	}

	t0 := time.Unix(3000, 0)
	m, _ = update(t, m, TickMsg(t0))
	m, _ = update(t, m, TickMsg(t0.Add(time.Second)))
	if m.eng.SimTime() != 0 {
		t.Errorf("paused engine advanced to %v", m.eng.SimTime())
	}

	m, _ = update(t, m, runes("r"))
	if m.eng.State().Paused || reboots != 1 {
		t.Errorf("restart while paused: paused = %v, reboots = %d", m.eng.State().Paused, reboots)
	}

	// Restart is ignored mid-run.
	m, _ = update(t, m, runes("r"))
	if reboots != 1 {
		t.Errorf("r mid-run restarted the engine, reboots = %d", reboots)
	}
}

func TestModelMutePersists(t *testing.T) {
	prefs := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	m := newTestModel(t, Config{PrefsPath: prefs})

	m, _ = update(t, m, runes("m"))
	if !m.State().Muted {
		t.Error("m should mute")
	}
	p, err := config.LoadPreferences(prefs)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Muted {
		t.Error("mute was not saved")
	}

	m, _ = update(t, m, runes("m"))
	if m.State().Muted {
		t.Error("second m should unmute")
	}
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t, Config{})
	m, cmd := update(t, m, runes("q"))
	if cmd == nil || !m.quitting {
		t.Error("q should quit")
	}
	if m.View() != "" {
		t.Error("View() should be empty after quit")
	}
}

func TestModelHeldInput(t *testing.T) {
	m := newTestModel(t, Config{})
	t0 := time.Unix(4000, 0)
	m.clock = func() time.Time { return t0 }

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if f := m.held.frame(t0.Add(50 * time.Millisecond)); !f.Has(core.ActionRight) {
		t.Error("right should be held after a press")
	}

	// Host keys never reach the simulation.
	m, _ = update(t, m, runes("m"))
	if _, ok := m.held[core.ActionMute]; ok {
		t.Error("mute should not be held")
	}
}

func TestModelScreenshot(t *testing.T) {
	dir := t.TempDir()
	m := newTestModel(t, Config{ScreenshotDir: dir})
	m.clock = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !strings.HasPrefix(m.notice, "saved ") {
		t.Fatalf("notice = %q", m.notice)
	}
	for _, name := range []string{"snowbros_20260102_030405.txt", "snowbros_20260102_030405.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestModelCoopPartner(t *testing.T) {
	remote := multiplayer.NewRemoteInput(4)
	m := newTestModel(t, Config{
		Engine:  engine.Options{Mode: multiplayer.ModeCoop},
		Partner: remote,
	})
	if m.partner != remote {
		t.Fatal("explicit partner should be used")
	}

	solo := newTestModel(t, Config{})
	if solo.partner != nil {
		t.Error("solo runs have no partner")
	}

	coop := newTestModel(t, Config{Engine: engine.Options{Mode: multiplayer.ModeCoop}})
	if _, ok := coop.partner.(*multiplayer.FollowerAI); !ok {
		t.Errorf("coop partner = %T, expected *multiplayer.FollowerAI", coop.partner)
	}
}

func TestModelLeaderboard(t *testing.T) {
	board := fakeBoard{entries: []storage.BestEntry{
		{PlayerID: "alice", PlayerName: "alice", Score: 9000, Wave: 6, UpdatedAt: time.Now()},
		{PlayerID: "bob", PlayerName: "bob", Score: 500, Wave: 2, UpdatedAt: time.Now()},
	}}
	m := newTestModel(t, Config{Leaderboard: board})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if !m.showBoard || !m.eng.State().Paused {
		t.Fatal("tab should open the leaderboard and pause the run")
	}
	if len(m.board.Entries()) != 2 {
		t.Errorf("Entries() = %d, expected 2", len(m.board.Entries()))
	}
	view := m.View()
	if !strings.Contains(view, "LEADERBOARD") || !strings.Contains(view, "alice") {
		t.Errorf("View() = %q", view)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.showBoard || m.eng.State().Paused {
		t.Error("tab should close the leaderboard and resume")
	}

	// Without a source the key does nothing.
	plain := newTestModel(t, Config{})
	plain, _ = update(t, plain, tea.KeyMsg{Type: tea.KeyTab})
	if plain.showBoard {
		t.Error("leaderboard opened without a source")
	}
}

func TestLeaderboardModel(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		m := NewLeaderboardModel(fakeBoard{err: errors.New("db locked")}, 80, 24)
		m.Refresh(context.Background())
		if !strings.Contains(m.View(), "db locked") {
			t.Error("View() should show the error")
		}
	})

	t.Run("empty", func(t *testing.T) {
		m := NewLeaderboardModel(fakeBoard{}, 80, 24)
		m.Refresh(context.Background())
		if !strings.Contains(m.View(), "No scores recorded yet.") {
			t.Error("View() should show the empty message")
		}
	})

	t.Run("back quits", func(t *testing.T) {
		m := NewLeaderboardModel(fakeBoard{}, 80, 24)
		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if cmd == nil || next.(LeaderboardModel).View() != "" {
			t.Error("esc should leave the leaderboard")
		}
	})
}

func TestRenderScreen(t *testing.T) {
	s := core.NewScreen(4, 2)
	s.SetColored(0, 0, '@', core.ColorBlue)
	s.Set(1, 0, 'x')
	out := RenderScreen(s)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("RenderScreen() lines = %d, expected 2", len(lines))
	}
	if !strings.Contains(lines[0], "@") || !strings.Contains(lines[0], "x") {
		t.Errorf("first line = %q", lines[0])
	}
	if got := centerText("ab", 6); got != "  ab" {
		t.Errorf("centerText() = %q, expected %q", got, "  ab")
	}
}
