package engine

import (
	"math"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/entity"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/physics"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/sound"
)

// snowballColor tints the burst left by a snowball that stopped rolling.
const snowballColor = "#e0f2fe"

// updateShooting fires one projectile per player when the trigger is held,
// the cooldown has run out and the projectile cap allows it.
func (e *Engine) updateShooting(in core.MultiInputFrame) {
	g := e.cfg.Gameplay
	for _, p := range e.players() {
		if p.ShotCooldown > 0 {
			p.ShotCooldown--
		}
		if p.Ghost || p.ShotCooldown > 0 || !in.Player(p.Owner).Has(core.ActionShoot) {
			continue
		}
		if e.store.Count(entity.KindProjectile) >= g.MaxProjectiles {
			continue
		}

		x := p.Pos.X - 10
		if p.Facing >= 0 {
			x = p.Pos.X + p.Size.X
		}
		ttl := int(float64(g.ProjectileTTL) * p.RangeMult)
		e.store.SpawnProjectile(core.V(x, p.Pos.Y+10), core.V(p.Facing*e.cfg.Physics.ProjectileSpeed, 0), ttl)
		p.ShotCooldown = math.Max(g.MinShotCooldown, g.BaseShotCooldown/p.FireRateMult)
		e.audio.Play(sound.CueShoot)
	}
}

// updateEntities applies gravity, runs each entity's behaviour, then
// integrates and resolves it against the map. Behaviour sees the velocity
// after gravity, so a jump leaves the step at exactly the jump force.
// Entities added during the pass wait for the next step.
func (e *Engine) updateEntities(in core.MultiInputFrame) {
	for _, ent := range e.store.All() {
		if !ent.Alive() {
			continue
		}
		switch ent.Kind {
		case entity.KindPlatform, entity.KindWall:
			continue
		case entity.KindProjectile, entity.KindParticle:
			e.updateTimed(ent)
			continue
		case entity.KindPlayer:
			if ent.Ghost {
				e.updateGhost(ent, in.Player(ent.Owner))
				continue
			}
		}

		physics.ApplyGravity(ent, e.phys)
		switch ent.Kind {
		case entity.KindPlayer:
			e.updatePlayer(ent, in.Player(ent.Owner))
		case entity.KindEnemy:
			e.updateEnemy(ent)
		case entity.KindSnowball:
			e.updateSnowball(ent)
		case entity.KindBoss:
			e.updateBoss(ent)
		}
		if !ent.Alive() {
			continue
		}
		physics.Move(ent)
		physics.ResolveMapCollisions(ent, e.store.MapObjects(), e.phys)
	}
}

func (e *Engine) updatePlayer(p *entity.Entity, in core.InputFrame) {
	ph := e.cfg.Physics
	speed := ph.MaxSpeed * p.MoveSpeedMult
	switch {
	case in.Has(core.ActionLeft):
		p.Vel.X = -speed
		p.Facing = -1
	case in.Has(core.ActionRight):
		p.Vel.X = speed
		p.Facing = 1
	default:
		p.Vel.X *= ph.Friction
	}
	p.Vel.X += e.wind

	if in.Has(core.ActionJump) && p.Grounded {
		p.Vel.Y = ph.JumpForce
		p.Grounded = false
		e.audio.Play(sound.CueJump)
	}
}

// updateGhost flies a defeated coop player freely, ignoring gravity and the map.
func (e *Engine) updateGhost(p *entity.Entity, in core.InputFrame) {
	speed := e.cfg.Physics.MaxSpeed
	p.Vel = core.Vec2{}
	p.Grounded = false
	if in.Has(core.ActionLeft) {
		p.Vel.X = -speed
		p.Facing = -1
	}
	if in.Has(core.ActionRight) {
		p.Vel.X = speed
		p.Facing = 1
	}
	if in.Has(core.ActionUp) || in.Has(core.ActionJump) {
		p.Vel.Y = -speed
	}
	if in.Has(core.ActionDown) {
		p.Vel.Y = speed
	}
	physics.Move(p)
	w := e.cfg.World
	p.Pos.X = core.ClampF(p.Pos.X, 0, w.Width-p.Size.X)
	p.Pos.Y = core.ClampF(p.Pos.Y, 0, w.Height-p.Size.Y)
}

func (e *Engine) updateEnemy(en *entity.Entity) {
	switch en.EnemyState {
	case entity.EnemyStunned:
		en.Vel.X = 0
		en.FreezeLevel -= e.cfg.Gameplay.FreezeDecay
		if en.FreezeLevel <= 0 {
			en.FreezeLevel = 0
			en.EnemyState = entity.EnemyWalking
		}
	case entity.EnemyWalking:
		if en.Grounded {
			if en.Vel.X == 0 || e.rng.Float64() < 0.01 {
				en.Facing = -en.Facing
			}
			if e.rng.Float64() < 0.005 {
				en.Vel.Y = e.cfg.Physics.JumpForce
				en.Grounded = false
			}
		}
		en.Vel.X = e.walkSpeed() * en.Facing
	}
}

// walkSpeed is the minion patrol speed at the current difficulty.
func (e *Engine) walkSpeed() float64 {
	return e.difficulty.Speed(e.cfg.Physics.MoveSpeed, e.score, e.wave)
}

func (e *Engine) updateSnowball(s *entity.Entity) {
	if !s.Rolling {
		s.Vel.X = 0
		return
	}
	if math.Abs(s.Vel.X) < 0.1 {
		s.MarkedForDeletion = true
		e.store.SpawnParticleBurst(s.Center(), 8, snowballColor, e.rng)
	}
}

// updateTimed ages projectiles and particles and moves them without map collision.
func (e *Engine) updateTimed(ent *entity.Entity) {
	ent.TTL--
	if ent.TTL <= 0 {
		ent.MarkedForDeletion = true
		return
	}
	physics.Move(ent)
}
