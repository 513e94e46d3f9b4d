// Package multiplayer provides player identities, match modes and the input
// sources that drive the second player in coop.
package multiplayer

import (
	"strings"

	"github.com/google/uuid"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
)

// PlayerID is an alias to core.PlayerID for convenience.
// Player1 is always the local human player, Player2 is the coop partner.
type PlayerID = core.PlayerID

// Re-export player constants for convenience.
const (
	Player1 = core.Player1
	Player2 = core.Player2
)

// Mode defines how many bodies a run spawns.
type Mode int

const (
	// ModeSolo is a single player run.
	ModeSolo Mode = iota

	// ModeCoop spawns two players sharing one arena.
	ModeCoop
)

// String returns a human-readable name for the mode.
func (m Mode) String() string {
	switch m {
	case ModeSolo:
		return "Solo"
	case ModeCoop:
		return "Coop"
	default:
		return "Unknown"
	}
}

// ParseMode maps "solo" and "coop" to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(s) {
	case "solo", "":
		return ModeSolo, true
	case "coop":
		return ModeCoop, true
	default:
		return ModeSolo, false
	}
}

// Players returns the player IDs taking part in a run of this mode.
func (m Mode) Players() []PlayerID {
	if m == ModeCoop {
		return []PlayerID{Player1, Player2}
	}
	return []PlayerID{Player1}
}

// Identity names whoever is playing. Guest results are never persisted.
type Identity struct {
	ID    string
	Name  string
	Guest bool
}

// NewGuest returns an anonymous identity with a random ID.
func NewGuest() Identity {
	id := uuid.NewString()
	return Identity{ID: id, Name: "guest-" + id[:8], Guest: true}
}

// NewIdentity returns a named identity. An empty name yields a guest.
func NewIdentity(name string) Identity {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewGuest()
	}
	return Identity{ID: name, Name: name}
}

// Body is what an input source may observe about a player.
type Body struct {
	Pos      core.Vec2
	Size     core.Vec2
	Facing   float64
	Grounded bool
	Ghost    bool
	Present  bool
}

// Center returns the middle of the body.
func (b Body) Center() core.Vec2 {
	return b.Pos.Add(b.Size.Scale(0.5))
}

// View is the world as seen by a non-local player.
type View struct {
	Self    Body
	Leader  Body
	Threats []core.Vec2 // centres of walking enemies and a hostile boss
	Targets []core.Vec2 // centres of stationary snowballs
}

// InputSource produces one input frame per fixed step.
type InputSource interface {
	Next(v View) core.InputFrame
}
