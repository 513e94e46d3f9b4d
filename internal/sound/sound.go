// Package sound synthesises the game's cues and music tracks with beep
// streamers and pipes the mixed PCM to a system audio tool.
package sound

// Cue is a one-shot sound effect.
type Cue int

const (
	CueShoot Cue = iota
	CueJump
	CueEnemyHit
	CueExplosion
	CuePowerUp
)

func (c Cue) String() string {
	switch c {
	case CueShoot:
		return "shoot"
	case CueJump:
		return "jump"
	case CueEnemyHit:
		return "enemy_hit"
	case CueExplosion:
		return "explosion"
	case CuePowerUp:
		return "powerup"
	default:
		return "unknown"
	}
}

// Track is a looping background tune.
type Track int

const (
	TrackMenu Track = iota
	TrackGame
	TrackBoss
)

func (t Track) String() string {
	switch t {
	case TrackMenu:
		return "menu"
	case TrackGame:
		return "game"
	case TrackBoss:
		return "boss"
	default:
		return "unknown"
	}
}

// Nop is a silent sink that only remembers its mute flag.
type Nop struct {
	muted bool
}

func (n *Nop) Play(Cue)        {}
func (n *Nop) PlayTrack(Track) {}
func (n *Nop) StopMusic()      {}

// SetMuted records the mute flag.
func (n *Nop) SetMuted(m bool) { n.muted = m }

// Muted returns the recorded mute flag.
func (n *Nop) Muted() bool { return n.muted }
