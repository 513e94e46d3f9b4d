package core

// RuntimeConfig contains configuration passed to the engine at initialization.
// The host uses this to size the terminal view and to seed the simulation.
type RuntimeConfig struct {
	ScreenW  int   // Screen width in characters
	ScreenH  int   // Screen height in characters
	TickRate int   // Simulation ticks per second (default 60)
	Seed     int64 // RNG seed for reproducible AI and spawns
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 60,
		Seed:     0, // 0 means use current time in platform layer
	}
}

// Phase is the top-level game state.
type Phase int

const (
	PhaseMenu Phase = iota
	PhasePlaying
	PhaseGameOver
	PhaseVictory
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseMenu:
		return "Menu"
	case PhasePlaying:
		return "Playing"
	case PhaseGameOver:
		return "GameOver"
	case PhaseVictory:
		return "Victory"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further steps will run without a restart.
func (p Phase) Terminal() bool {
	return p == PhaseGameOver || p == PhaseVictory
}

// GameState is the summary a host needs to drive its own UI.
type GameState struct {
	Phase  Phase
	Score  int
	Wave   int
	Paused bool
}

// GameOver reports whether the run has ended.
func (s GameState) GameOver() bool {
	return s.Phase.Terminal()
}
