package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/config"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/engine"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/hud"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/multiplayer"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/render"
)

// holdWindow is how long a key counts as held after its last press.
// Terminals report presses and auto-repeat but never releases.
const holdWindow = 200 * time.Millisecond

// chromeLines is the number of rows taken by the HUD bar and the footer.
const chromeLines = 2

// heldKeys tracks when each pressed action expires.
type heldKeys map[core.Action]time.Time

var opposite = map[core.Action]core.Action{
	core.ActionLeft:  core.ActionRight,
	core.ActionRight: core.ActionLeft,
	core.ActionUp:    core.ActionDown,
	core.ActionDown:  core.ActionUp,
}

func (h heldKeys) press(a core.Action, now time.Time) {
	if o, ok := opposite[a]; ok {
		delete(h, o)
	}
	h[a] = now.Add(holdWindow)
}

// frame returns the actions still held at now and forgets expired ones.
func (h heldKeys) frame(now time.Time) core.InputFrame {
	f := core.NewInputFrame()
	for a, until := range h {
		if now.Before(until) {
			f.Set(a)
		} else {
			delete(h, a)
		}
	}
	return f
}

func (h heldKeys) clear() {
	for a := range h {
		delete(h, a)
	}
}

// Config configures a game model.
type Config struct {
	// Engine is passed to engine.New. Its Observer is kept and also fed to
	// the HUD bar.
	Engine engine.Options

	// Partner drives Player2 in coop. Nil uses a FollowerAI.
	Partner multiplayer.InputSource

	// Leaderboard backs the in-game leaderboard view. Nil disables it.
	Leaderboard LeaderboardSource

	// PrefsPath is where the mute toggle is persisted. Empty disables saving.
	PrefsPath string

	// ScreenshotDir defaults to ~/.snowbros/screenshots.
	ScreenshotDir string
}

// Model is the Bubble Tea model for one run.
type Model struct {
	eng      *engine.Engine
	term     *render.Terminal
	screen   *core.Screen
	hud      *hud.State
	keys     KeyMap
	help     help.Model
	held     heldKeys
	partner  multiplayer.InputSource
	tickRate int
	clock    func() time.Time

	boardSrc    LeaderboardSource
	board       LeaderboardModel
	showBoard   bool
	boardPaused bool

	prefsPath string
	shotDir   string
	width     int
	height    int
	notice    string
	quitting  bool
}

// NewModel creates the model and its engine. The run starts in Init.
func NewModel(cfg Config) Model {
	state := &hud.State{}
	opts := cfg.Engine
	opts.Observer = hud.Fanout(state.Apply, opts.Observer)

	rt := opts.Runtime
	if rt.TickRate <= 0 {
		rt.TickRate = 60
	}
	if rt.ScreenW <= 0 || rt.ScreenH <= 0 {
		def := core.DefaultConfig()
		rt.ScreenW, rt.ScreenH = def.ScreenW, def.ScreenH
	}
	if rt.Seed == 0 {
		rt.Seed = time.Now().UnixNano()
	}
	opts.Runtime = rt

	partner := cfg.Partner
	if partner == nil && opts.Mode == multiplayer.ModeCoop {
		partner = multiplayer.NewFollowerAI(rt.Seed + 1)
	}

	shotDir := cfg.ScreenshotDir
	if shotDir == "" {
		if dir := config.Dir(); dir != "" {
			shotDir = filepath.Join(dir, "screenshots")
		}
	}

	h := help.New()
	h.ShowAll = false
	h.Width = rt.ScreenW

	return Model{
		eng:       engine.New(opts),
		term:      render.NewTerminal(),
		screen:    core.NewScreen(rt.ScreenW, max(rt.ScreenH-chromeLines, 1)),
		hud:       state,
		keys:      DefaultKeyMap(),
		help:      h,
		held:      make(heldKeys),
		partner:   partner,
		tickRate:  rt.TickRate,
		clock:     time.Now,
		boardSrc:  cfg.Leaderboard,
		prefsPath: cfg.PrefsPath,
		shotDir:   shotDir,
		width:     rt.ScreenW,
		height:    rt.ScreenH,
	}
}

// Init starts the run and the tick loop.
func (m Model) Init() tea.Cmd {
	m.eng.Start()
	return tickCmd(m.tickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case TickMsg:
		return m.handleTick(time.Time(msg))
	}

	if m.showBoard {
		return m.updateBoard(msg)
	}
	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	if key.Matches(msg, m.keys.Screenshot) {
		m.notice = m.saveScreenshot()
		return m, nil
	}

	action := m.keys.Action(msg)
	if action == core.ActionQuit {
		m.quitting = true
		m.eng.Close()
		return m, tea.Quit
	}

	if m.showBoard {
		if key.Matches(msg, m.board.keys.Back) {
			m.closeBoard()
			return m, nil
		}
		return m.updateBoard(msg)
	}

	switch action {
	case core.ActionPause:
		if !m.eng.State().GameOver() {
			m.eng.TogglePause()
			m.held.clear()
		}
	case core.ActionRestart:
		if st := m.eng.State(); st.GameOver() || st.Paused {
			m.eng.Restart()
			m.held.clear()
		}
	case core.ActionMute:
		muted := m.eng.ToggleMute()
		if err := config.SavePreferences(m.prefsPath, config.Preferences{Muted: muted}); err != nil {
			m.notice = err.Error()
		}
	case core.ActionBack:
		m.openBoard()
	default:
		if movement(action) {
			m.held.press(action, m.clock())
		}
	}
	return m, nil
}

// handleResize processes window resize events.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.screen.Resize(msg.Width, max(msg.Height-chromeLines, 1))
	m.help.Width = msg.Width
	if m.boardSrc != nil {
		m.board.resize(msg.Width, msg.Height)
	}
	return m, nil
}

// handleTick advances the engine by the time elapsed since the last tick.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	in := core.NewMultiInputFrame()
	in.SetPlayer(multiplayer.Player1, m.held.frame(now))
	if m.partner != nil && m.eng.Mode() == multiplayer.ModeCoop {
		in.SetPlayer(multiplayer.Player2, m.partner.Next(m.eng.View(multiplayer.Player2)))
	}
	m.eng.Frame(now, in)
	return m, tickCmd(m.tickRate)
}

func (m *Model) openBoard() {
	if m.boardSrc == nil {
		return
	}
	if st := m.eng.State(); !st.Paused && !st.GameOver() {
		m.eng.SetPaused(true)
		m.boardPaused = true
	}
	m.board = NewLeaderboardModel(m.boardSrc, m.width, m.height)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	m.board.Refresh(ctx)
	m.showBoard = true
	m.held.clear()
}

func (m *Model) closeBoard() {
	m.showBoard = false
	if m.boardPaused {
		m.eng.SetPaused(false)
		m.boardPaused = false
	}
}

func (m Model) updateBoard(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.board.Update(msg)
	if b, ok := next.(LeaderboardModel); ok {
		m.board = b
	}
	return m, cmd
}

// saveScreenshot writes the current frame as text and as a PNG and returns
// a notice for the footer.
func (m *Model) saveScreenshot() string {
	if m.shotDir == "" {
		return "screenshot: no home directory"
	}
	if err := os.MkdirAll(m.shotDir, 0o755); err != nil {
		return fmt.Sprintf("screenshot: %v", err)
	}

	snap := m.eng.Snapshot()
	m.term.Draw(m.screen, snap)

	base := filepath.Join(m.shotDir, "snowbros_"+m.clock().Format("20060102_150405"))
	if err := os.WriteFile(base+".txt", []byte(m.screen.String()), 0o600); err != nil {
		return fmt.Sprintf("screenshot: %v", err)
	}
	if err := render.SavePNG(base+".png", snap, 1); err != nil {
		return fmt.Sprintf("screenshot: %v", err)
	}
	return "saved " + base + ".png"
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showBoard {
		return m.board.View()
	}

	m.term.Draw(m.screen, m.eng.Snapshot())
	return lipgloss.JoinVertical(lipgloss.Left,
		renderHUD(*m.hud, m.screen.Width()),
		RenderScreen(m.screen),
		m.footer(),
	)
}

func (m Model) footer() string {
	st := m.eng.State()
	switch {
	case m.notice != "":
		return noticeStyle.Render(m.notice)
	case st.GameOver():
		return alertStyle.Render(fmt.Sprintf("GAME OVER  score %d  wave %d", st.Score, st.Wave)) +
			helpStyle.Render("  r restart • tab leaderboard • q quit")
	case st.Paused:
		return alertStyle.Render("PAUSED") + helpStyle.Render("  p resume • r restart • q quit")
	}
	return helpStyle.Render(m.help.View(m.keys))
}

// State returns the HUD overlay as built from the engine's patches.
func (m Model) State() hud.State {
	return *m.hud
}

// Run starts the Bubble Tea program for one local run.
func Run(cfg Config) error {
	model := NewModel(cfg)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.eng.Close()
	}
	return err
}
