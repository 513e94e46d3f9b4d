package engine

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/config"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/hud"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/multiplayer"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/sound"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

// Audio receives sound cues and music changes.
type Audio interface {
	Play(c sound.Cue)
	PlayTrack(t sound.Track)
	StopMusic()
	SetMuted(muted bool)
	Muted() bool
}

// Leaderboard persists finished runs.
type Leaderboard interface {
	SubmitResult(ctx context.Context, who multiplayer.Identity, score, wave int) error
}

// Recorder observes loop timing and wave outcomes.
type Recorder interface {
	ObserveStep(d time.Duration)
	ObserveFrame(steps int, truncated bool)
	ObserveWave(wave int, source wave.Source, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStep(time.Duration)          {}
func (nopRecorder) ObserveFrame(int, bool)             {}
func (nopRecorder) ObserveWave(int, wave.Source, error) {}

// Options carries everything the engine talks to. Nil fields get silent
// defaults: no director means the fallback table is used.
type Options struct {
	Runtime     core.RuntimeConfig
	Game        config.GameConfig
	Mode        multiplayer.Mode
	Identity    multiplayer.Identity
	Director    wave.Director
	Audio       Audio
	Observer    hud.Observer
	Leaderboard Leaderboard
	Recorder    Recorder
	Logger      *log.Logger

	// SubmitTimeout bounds the game-over leaderboard write.
	SubmitTimeout time.Duration
}

func (o *Options) setDefaults() {
	if o.Audio == nil {
		o.Audio = &sound.Nop{}
	}
	if o.Observer == nil {
		o.Observer = func(hud.Patch) {}
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Identity.ID == "" {
		o.Identity = multiplayer.NewGuest()
	}
	if o.SubmitTimeout <= 0 {
		o.SubmitTimeout = 2 * time.Second
	}
	if o.Game.World.Width == 0 {
		o.Game = config.DefaultGameConfig()
	}
	if o.Runtime.TickRate > 0 {
		o.Game.Loop.TickRate = o.Runtime.TickRate
	}
}
