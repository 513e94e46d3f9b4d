// Package physics implements integration and map collision for arena entities.
// All functions are stateless and operate on one step at a time.
package physics

import (
	"math"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/config"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/entity"
)

// restEpsilon is how close a bottom edge must be to a surface to count as resting on it.
const restEpsilon = 1e-6

// Params are the physics constants and world bounds used by resolution.
type Params struct {
	Gravity           float64
	TerminalVelocity  float64
	PlatformTolerance float64
	WorldWidth        float64
	WorldHeight       float64
}

// ParamsFrom extracts physics parameters from the game configuration.
func ParamsFrom(cfg config.GameConfig) Params {
	return Params{
		Gravity:           cfg.Physics.Gravity,
		TerminalVelocity:  cfg.Physics.TerminalVelocity,
		PlatformTolerance: cfg.Physics.PlatformTolerance,
		WorldWidth:        cfg.World.Width,
		WorldHeight:       cfg.World.Height,
	}
}

// CheckCollision reports strict AABB overlap. Touching edges do not collide.
func CheckCollision(a, b *entity.Entity) bool {
	return a.Bounds().Intersects(b.Bounds())
}

// ApplyGravity accelerates an airborne entity downward up to terminal velocity.
func ApplyGravity(e *entity.Entity, p Params) {
	if e.Grounded {
		return
	}
	e.Vel.Y += p.Gravity
	if e.Vel.Y > p.TerminalVelocity {
		e.Vel.Y = p.TerminalVelocity
	}
}

// Move integrates position by one step of velocity.
func Move(e *entity.Entity) {
	e.Pos = e.Pos.Add(e.Vel)
}

// ResolveMapCollisions keeps e inside the world and pushes it out of walls
// and onto platforms. Objects are processed in the given order.
func ResolveMapCollisions(e *entity.Entity, objects []*entity.Entity, p Params) {
	e.Grounded = false

	// Side bounds
	maxX := p.WorldWidth - e.Size.X
	if e.Pos.X < 0 || e.Pos.X > maxX {
		e.Pos.X = core.ClampF(e.Pos.X, 0, maxX)
		e.Vel.X = 0
		if rollingSnowball(e) {
			e.MarkedForDeletion = true
		}
	}

	// Fell out of the world
	if e.Pos.Y > p.WorldHeight {
		if e.Kind == entity.KindPlayer {
			e.Pos = core.V(p.WorldWidth/2, 0)
			e.Vel.Y = 0
		} else {
			e.MarkedForDeletion = true
		}
		return
	}

	for _, obj := range objects {
		if obj == e || !obj.Alive() {
			continue
		}
		if CheckCollision(e, obj) {
			switch obj.Kind {
			case entity.KindWall:
				resolveSolid(e, obj)
			case entity.KindPlatform:
				resolvePlatform(e, obj, p)
			}
			continue
		}
		if restingOn(e, obj) {
			e.Grounded = true
		}
	}
}

// resolveSolid pushes e out of a wall along the axis of least penetration.
func resolveSolid(e, wall *entity.Entity) {
	a, b := e.Bounds(), wall.Bounds()
	overlapX := math.Min(a.Right(), b.Right()) - math.Max(a.X, b.X)
	overlapY := math.Min(a.Bottom(), b.Bottom()) - math.Max(a.Y, b.Y)

	if overlapX < overlapY {
		if a.Center().X < b.Center().X {
			e.Pos.X -= overlapX
		} else {
			e.Pos.X += overlapX
		}
		e.Vel.X = 0
		if rollingSnowball(e) {
			e.MarkedForDeletion = true
		}
		return
	}

	if a.Center().Y < b.Center().Y {
		e.Pos.Y -= overlapY
		e.Grounded = true
	} else {
		e.Pos.Y += overlapY
	}
	e.Vel.Y = 0
}

// resolvePlatform lands e on a one-way platform when it arrives from above.
func resolvePlatform(e, plat *entity.Entity, p Params) {
	if e.Vel.Y < 0 {
		return
	}
	prevBottom := e.Pos.Y - e.Vel.Y + e.Size.Y
	if prevBottom <= plat.Pos.Y+p.PlatformTolerance {
		e.Pos.Y = plat.Pos.Y - e.Size.Y
		e.Vel.Y = 0
		e.Grounded = true
	}
}

// restingOn reports a non-rising entity whose bottom edge sits on top of obj.
func restingOn(e, obj *entity.Entity) bool {
	if e.Vel.Y < 0 {
		return false
	}
	if math.Abs(e.Bottom()-obj.Pos.Y) > restEpsilon {
		return false
	}
	return e.Pos.X < obj.Pos.X+obj.Size.X && obj.Pos.X < e.Pos.X+e.Size.X
}

func rollingSnowball(e *entity.Entity) bool {
	return e.Kind == entity.KindSnowball && e.Rolling
}
