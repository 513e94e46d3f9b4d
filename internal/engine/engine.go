// Package engine runs the arena simulation: a fixed-step loop over the entity
// store, the wave lifecycle, AI, collisions and HUD updates.
package engine

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/config"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/entity"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/hud"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/multiplayer"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/physics"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/sound"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

// HUD messages
const (
	MsgContacting    = "CONTACTING AI DIRECTOR..."
	MsgLevelComplete = "LEVEL COMPLETE - PROCEEDING..."
	MsgGameOver      = "GAME OVER"
	MsgRebooting     = "REBOOTING SYSTEM..."
)

// ErrClosed is returned by AwaitWave after Close.
var ErrClosed = errors.New("engine: closed")

type waveResult struct {
	gen uint64
	res wave.Result
}

// Engine owns one run. All methods must be called from the same goroutine;
// the only internal concurrency is the wave request.
type Engine struct {
	opts       Options
	cfg        config.GameConfig
	phys       physics.Params
	store      *entity.Store
	rng        *rand.Rand
	log        *log.Logger
	audio      Audio
	difficulty *config.DifficultyManager

	phase  core.Phase
	paused bool
	closed bool
	score  int
	wave   int
	tick   uint64

	simTime   time.Duration
	lastFrame time.Time
	acc       time.Duration

	floor *entity.Entity

	waveCfg         *wave.Config
	waveSource      wave.Source
	waveStartedAt   time.Duration
	spawned         int
	spawnTimer      int
	spawnInterval   int
	levelComplete   bool
	levelCompleteAt time.Duration
	blizzard        bool
	bossBarShown    bool
	submitted       bool

	shake      int
	wind       float64
	windTimer  int
	minionSide int

	ctx        context.Context
	cancel     context.CancelFunc
	reqCancel  context.CancelFunc
	gen        uint64
	requesting bool
	pending    chan waveResult
}

// New creates an engine in the menu phase. Call Start to begin a run.
func New(opts Options) *Engine {
	opts.setDefaults()
	seed := opts.Runtime.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e := &Engine{
		opts:       opts,
		cfg:        opts.Game,
		phys:       physics.ParamsFrom(opts.Game),
		store:      entity.NewStore(opts.Game),
		rng:        rand.New(rand.NewSource(seed)),
		log:        opts.Logger,
		audio:      opts.Audio,
		difficulty: config.NewDifficultyManager(opts.Game.Difficulty),
		phase:      core.PhaseMenu,
		pending:    make(chan waveResult, 2),
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())
	return e
}

// Start begins a run from wave 1.
func (e *Engine) Start() {
	if e.closed {
		return
	}
	e.audio.PlayTrack(sound.TrackGame)
	e.reset()
	e.emit(hud.Patch{
		Score:    hud.Ptr(0),
		Lives:    hud.Ptr(e.lives()),
		GameOver: hud.Ptr(false),
		Blizzard: hud.Ptr(false),
		Muted:    hud.Ptr(e.audio.Muted()),
	})
	e.log.Info("run started", "mode", e.opts.Mode, "player", e.opts.Identity.Name)
	e.startWave()
}

// Restart abandons the current run, including any wave request in flight,
// and starts over.
func (e *Engine) Restart() {
	if e.closed {
		return
	}
	e.reset()
	e.audio.PlayTrack(sound.TrackGame)
	e.emit(hud.Patch{
		Score:     hud.Ptr(0),
		Wave:      hud.Ptr(1),
		Lives:     hud.Ptr(e.lives()),
		Message:   hud.Ptr(MsgRebooting),
		GameOver:  hud.Ptr(false),
		Blizzard:  hud.Ptr(false),
		ClearBoss: e.bossBarShown,
	})
	e.bossBarShown = false
	e.log.Info("run restarted")
	e.startWave()
}

func (e *Engine) reset() {
	e.abandonRequest()
	e.score = 0
	e.wave = 0
	e.tick = 0
	e.simTime = 0
	e.acc = 0
	e.lastFrame = time.Time{}
	e.paused = false
	e.submitted = false
	e.blizzard = false
	e.shake = 0
	e.wind = 0
	e.waveCfg = nil
	e.waveStartedAt = 0
	e.phase = core.PhasePlaying
	e.initWorld()
}

// Close stops the run, cancels any wave request and silences audio.
// Further calls to Frame and Step do nothing.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.abandonRequest()
	e.cancel()
	e.audio.StopMusic()
}

func (e *Engine) abandonRequest() {
	e.gen++
	if e.reqCancel != nil {
		e.reqCancel()
		e.reqCancel = nil
	}
	e.requesting = false
}

// Frame advances the simulation by the real time elapsed since the previous
// call, in fixed steps. Elapsed time is capped at the configured maximum and
// truncated reports whether the cap applied.
func (e *Engine) Frame(now time.Time, in core.MultiInputFrame) (steps int, truncated bool) {
	if e.closed || e.paused || e.phase != core.PhasePlaying {
		e.lastFrame = now
		return 0, false
	}
	if e.lastFrame.IsZero() {
		e.lastFrame = now
		return 0, false
	}

	elapsed := now.Sub(e.lastFrame)
	e.lastFrame = now
	if elapsed < 0 {
		elapsed = 0
	}
	if limit := e.cfg.Loop.MaxFrameTime(); limit > 0 && elapsed > limit {
		elapsed = limit
		truncated = true
	}

	e.acc += elapsed
	step := e.cfg.Loop.StepDuration()
	for e.acc >= step && e.phase == core.PhasePlaying {
		start := time.Now()
		e.Step(in)
		e.opts.Recorder.ObserveStep(time.Since(start))
		e.acc -= step
		steps++
	}
	if e.phase != core.PhasePlaying {
		e.acc = 0
	}
	e.opts.Recorder.ObserveFrame(steps, truncated)
	return steps, truncated
}

// Step runs exactly one fixed step.
func (e *Engine) Step(in core.MultiInputFrame) {
	if e.closed || e.phase != core.PhasePlaying {
		return
	}
	e.tick++
	e.simTime += e.cfg.Loop.StepDuration()

	e.pollWave()
	e.updateSpawner()
	e.updateShooting(in)
	e.updateEntities(in)
	e.resolveCollisions()
	e.store.Cleanup()

	if e.shake > 0 {
		e.shake--
	}
}

// SetPaused pauses or resumes the loop. Resuming does not replay paused time.
func (e *Engine) SetPaused(p bool) {
	e.paused = p
	e.lastFrame = time.Time{}
}

// TogglePause flips the pause flag and returns the new value.
func (e *Engine) TogglePause() bool {
	e.SetPaused(!e.paused)
	return e.paused
}

// ToggleMute flips audio mute and returns the new value.
func (e *Engine) ToggleMute() bool {
	muted := !e.audio.Muted()
	e.audio.SetMuted(muted)
	e.emit(hud.Patch{Muted: hud.Ptr(muted)})
	return muted
}

// State returns the summary used by hosts.
func (e *Engine) State() core.GameState {
	return core.GameState{Phase: e.phase, Score: e.score, Wave: e.wave, Paused: e.paused}
}

// Mode returns the match mode of the run.
func (e *Engine) Mode() multiplayer.Mode {
	return e.opts.Mode
}

// Store exposes the entity store, mainly for tests and tools.
func (e *Engine) Store() *entity.Store {
	return e.store
}

// SimTime returns the simulated time since the run started.
func (e *Engine) SimTime() time.Duration {
	return e.simTime
}

func (e *Engine) emit(p hud.Patch) {
	if p.Empty() {
		return
	}
	e.opts.Observer(p)
}

func (e *Engine) coop() bool {
	return e.opts.Mode == multiplayer.ModeCoop
}

func (e *Engine) addScore(n int) {
	e.score += n
	e.emit(hud.Patch{Score: hud.Ptr(e.score)})
}

func (e *Engine) addShake(n int) {
	if n > e.shake {
		e.shake = n
	}
}
