// Package entity holds the simulated objects of the arena and the store that
// owns them.
package entity

import (
	"time"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
)

// Entity is any simulated object. Kind decides which field groups apply;
// fields outside a kind's group are left at their zero value.
type Entity struct {
	ID                uint64
	Kind              Kind
	Pos               core.Vec2 // top-left corner
	Vel               core.Vec2
	Size              core.Vec2
	Facing            float64 // -1 or 1
	Grounded          bool
	MarkedForDeletion bool
	Color             string

	// Player
	Owner             core.PlayerID
	Health            int // also Boss
	MaxHealth         int // also Boss
	InvulnerableUntil time.Duration
	MoveSpeedMult     float64
	FireRateMult      float64
	RangeMult         float64
	ShotCooldown      float64
	Ghost             bool

	// Enemy, Snowball, Boss
	FreezeLevel float64
	EnemyState  EnemyState
	Rolling     bool

	// Boss
	BossState      BossState
	AttackCooldown int
	PhaseTimer     int
	Leaping        bool

	// Projectile, Particle
	TTL int

	// PowerUp
	PowerUp PowerUpKind

	inStore bool
}

// Bounds returns the entity's axis-aligned box.
func (e *Entity) Bounds() core.Rect {
	return core.RectAt(e.Pos, e.Size)
}

// Center returns the centre point of the entity.
func (e *Entity) Center() core.Vec2 {
	return e.Bounds().Center()
}

// Bottom returns the y-coordinate of the entity's lower edge.
func (e *Entity) Bottom() float64 {
	return e.Pos.Y + e.Size.Y
}

// Alive reports whether the entity has not been marked for deletion.
func (e *Entity) Alive() bool {
	return !e.MarkedForDeletion
}

// Invulnerable reports whether damage is ignored at simulation time now.
func (e *Entity) Invulnerable(now time.Duration) bool {
	return now < e.InvulnerableUntil
}

// Corporeal reports whether the entity takes part in collisions. Ghost players
// and deleted entities do not.
func (e *Entity) Corporeal() bool {
	return e.Alive() && !e.Ghost
}

// AddFreeze raises the freeze level, clamped to [0, 100].
func (e *Entity) AddFreeze(amount float64) {
	e.FreezeLevel = core.ClampF(e.FreezeLevel+amount, 0, 100)
}

// Frozen reports whether the freeze level has reached its maximum.
func (e *Entity) Frozen() bool {
	return e.FreezeLevel >= 100
}
