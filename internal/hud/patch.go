// Package hud defines the partial UI updates emitted by the engine and the
// merged overlay state built from them.
package hud

import (
	"encoding/json"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

// BossBar is the boss health display.
type BossBar struct {
	Health int `json:"health"`
	Max    int `json:"max"`
}

// Patch is a partial overlay update. Nil fields are unchanged; ClearBoss
// removes the boss bar.
type Patch struct {
	Score     *int
	Wave      *int
	Lives     *int
	Message   *string
	Blizzard  *bool
	GameOver  *bool
	Muted     *bool
	Theme     *wave.Theme
	Boss      *BossBar
	ClearBoss bool
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// Message builds a patch carrying only a message.
func Message(msg string) Patch {
	return Patch{Message: &msg}
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Score == nil && p.Wave == nil && p.Lives == nil && p.Message == nil &&
		p.Blizzard == nil && p.GameOver == nil && p.Muted == nil && p.Theme == nil &&
		p.Boss == nil && !p.ClearBoss
}

// MarshalJSON encodes only the fields the patch sets. A cleared boss bar is
// encoded as "bossHealth": null.
func (p Patch) MarshalJSON() ([]byte, error) {
	m := make(map[string]any)
	if p.Score != nil {
		m["score"] = *p.Score
	}
	if p.Wave != nil {
		m["wave"] = *p.Wave
	}
	if p.Lives != nil {
		m["lives"] = *p.Lives
	}
	if p.Message != nil {
		m["message"] = *p.Message
	}
	if p.Blizzard != nil {
		m["blizzard"] = *p.Blizzard
	}
	if p.GameOver != nil {
		m["gameOver"] = *p.GameOver
	}
	if p.Muted != nil {
		m["muted"] = *p.Muted
	}
	if p.Theme != nil {
		m["enemyTheme"] = p.Theme
	}
	switch {
	case p.ClearBoss:
		m["bossHealth"] = nil
	case p.Boss != nil:
		m["bossHealth"] = p.Boss.Health
		m["bossMaxHealth"] = p.Boss.Max
	}
	return json.Marshal(m)
}

// State is the overlay built by applying patches in order.
type State struct {
	Score    int         `json:"score"`
	Wave     int         `json:"wave"`
	Lives    int         `json:"lives"`
	Message  string      `json:"message"`
	Blizzard bool        `json:"blizzard"`
	GameOver bool        `json:"gameOver"`
	Muted    bool        `json:"muted"`
	Theme    *wave.Theme `json:"enemyTheme,omitempty"`
	Boss     *BossBar    `json:"boss,omitempty"`
}

// Apply merges a patch into the state.
func (s *State) Apply(p Patch) {
	if p.Score != nil {
		s.Score = *p.Score
	}
	if p.Wave != nil {
		s.Wave = *p.Wave
	}
	if p.Lives != nil {
		s.Lives = *p.Lives
	}
	if p.Message != nil {
		s.Message = *p.Message
	}
	if p.Blizzard != nil {
		s.Blizzard = *p.Blizzard
	}
	if p.GameOver != nil {
		s.GameOver = *p.GameOver
	}
	if p.Muted != nil {
		s.Muted = *p.Muted
	}
	if p.Theme != nil {
		t := *p.Theme
		s.Theme = &t
	}
	if p.ClearBoss {
		s.Boss = nil
	} else if p.Boss != nil {
		b := *p.Boss
		s.Boss = &b
	}
}

// Observer receives patches as they are emitted.
type Observer func(Patch)

// Fanout returns an observer that forwards to every non-nil observer in order.
func Fanout(observers ...Observer) Observer {
	return func(p Patch) {
		for _, o := range observers {
			if o != nil {
				o(p)
			}
		}
	}
}
