package multiplayer

import (
	"math"
	"math/rand"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
)

// Default follower settings
const (
	DefaultFollowerReaction = 6    // Ticks between decisions
	DefaultFollowerSkill    = 0.75 // Chance to act on a decision (0-1)
	followDistance          = 64.0
	attackBand              = 40.0
	attackRange             = 260.0
)

// FollowerAI stands in for a remote partner. It keeps near the leader, shoots
// threats on its own level and kicks snowballs it can reach.
type FollowerAI struct {
	rng      *rand.Rand
	reaction int
	skill    float64
	wait     int
	last     core.InputFrame
}

// NewFollowerAI creates a follower with a seeded RNG.
func NewFollowerAI(seed int64) *FollowerAI {
	return &FollowerAI{
		rng:      rand.New(rand.NewSource(seed)),
		reaction: DefaultFollowerReaction,
		skill:    DefaultFollowerSkill,
		last:     core.NewInputFrame(),
	}
}

// Next returns the input for this step. Decisions are held for the reaction
// window so the partner does not jitter.
func (f *FollowerAI) Next(v View) core.InputFrame {
	if !v.Self.Present {
		return core.NewInputFrame()
	}
	if f.wait > 0 {
		f.wait--
		return f.last.Clone()
	}
	f.wait = f.reaction
	f.last = f.decide(v)
	return f.last.Clone()
}

func (f *FollowerAI) decide(v View) core.InputFrame {
	in := core.NewInputFrame()
	self := v.Self.Center()

	if v.Self.Ghost {
		if v.Leader.Present {
			steer(&in, self, v.Leader.Center(), true)
		}
		return in
	}

	// Shoot the closest threat on our level.
	if t, ok := closest(self, v.Threats, attackBand, attackRange); ok {
		if t.X < self.X {
			in.Set(core.ActionLeft)
		} else {
			in.Set(core.ActionRight)
		}
		if f.rng.Float64() < f.skill {
			in.Set(core.ActionShoot)
		}
		return in
	}

	// Walk into a snowball to kick it.
	if t, ok := closest(self, v.Targets, attackBand, attackRange); ok {
		steer(&in, self, t, false)
		return in
	}

	if v.Leader.Present {
		leader := v.Leader.Center()
		if math.Abs(leader.X-self.X) > followDistance {
			steer(&in, self, leader, false)
		}
		if leader.Y < self.Y-attackBand && v.Self.Grounded && f.rng.Float64() < f.skill {
			in.Set(core.ActionJump)
		}
	}
	return in
}

// steer presses the direction keys toward target. Vertical keys only matter
// for ghosts.
func steer(in *core.InputFrame, from, to core.Vec2, vertical bool) {
	const deadZone = 4.0
	switch {
	case to.X < from.X-deadZone:
		in.Set(core.ActionLeft)
	case to.X > from.X+deadZone:
		in.Set(core.ActionRight)
	}
	if !vertical {
		return
	}
	switch {
	case to.Y < from.Y-deadZone:
		in.Set(core.ActionUp)
	case to.Y > from.Y+deadZone:
		in.Set(core.ActionDown)
	}
}

// closest returns the nearest point within band vertically and maxDist horizontally.
func closest(from core.Vec2, points []core.Vec2, band, maxDist float64) (core.Vec2, bool) {
	best, found := core.Vec2{}, false
	bestDist := maxDist
	for _, p := range points {
		if math.Abs(p.Y-from.Y) > band {
			continue
		}
		if d := math.Abs(p.X - from.X); d <= bestDist {
			best, bestDist, found = p, d, true
		}
	}
	return best, found
}
