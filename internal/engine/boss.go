package engine

import (
	"math"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/entity"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/hud"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/sound"
)

const (
	windInterval   = 30  // steps between wind changes in phase 3
	maxLeapSpeed   = 6.0 // horizontal cap while leaping
	leapJumpFactor = 1.2
	centreGain     = 0.05
)

// updateBoss runs the boss state machine. Phases follow remaining health;
// Enraged keeps the current phase's behaviour at double speed.
func (e *Engine) updateBoss(b *entity.Entity) {
	switch b.BossState {
	case entity.BossDefeated:
		return
	case entity.BossSpawn:
		if b.Grounded {
			e.setBossState(b, entity.BossPhase1)
			e.addShake(20)
			e.audio.Play(sound.CueExplosion)
		}
		return
	case entity.BossStunned:
		b.Vel.X = 0
		b.FreezeLevel -= 2 * e.cfg.Gameplay.FreezeDecay
		if b.FreezeLevel <= 0 {
			b.FreezeLevel = 0
			e.setBossState(b, entity.BossEnraged)
			b.Color = entity.ColorBossEnraged
			e.addShake(10)
			e.audio.Play(sound.CueExplosion)
			e.store.SpawnParticleBurst(b.Center(), 12, entity.ColorBossEnraged, e.rng)
		}
		return
	}

	phase := e.bossPhase(b)
	if b.BossState != entity.BossEnraged && b.BossState != phase {
		e.setBossState(b, phase)
	}
	if phase == entity.BossPhase3 && !e.blizzard {
		e.blizzard = true
		e.emit(hud.Patch{Blizzard: hud.Ptr(true)})
	}
	if phase != entity.BossPhase3 {
		e.wind = 0
	}

	enraged := b.BossState == entity.BossEnraged
	speed := e.cfg.Boss.Speed
	if enraged {
		speed *= e.cfg.Boss.EnragedSpeedMult
	}

	b.AttackCooldown--
	switch phase {
	case entity.BossPhase1:
		e.bossPatrol(b, speed, enraged)
	case entity.BossPhase2:
		e.bossLeap(b, speed, enraged)
	case entity.BossPhase3:
		e.bossStorm(b, speed, enraged)
	}
}

// bossPhase returns the phase the boss's health calls for.
func (e *Engine) bossPhase(b *entity.Entity) entity.BossState {
	if b.MaxHealth <= 0 {
		return entity.BossPhase1
	}
	frac := float64(b.Health) / float64(b.MaxHealth)
	switch {
	case e.coop() && frac <= e.cfg.Boss.Phase3Threshold:
		return entity.BossPhase3
	case frac <= e.cfg.Boss.Phase2Threshold:
		return entity.BossPhase2
	default:
		return entity.BossPhase1
	}
}

func (e *Engine) setBossState(b *entity.Entity, s entity.BossState) {
	if b.BossState == s {
		return
	}
	e.log.Debug("boss state", "from", b.BossState, "to", s, "health", b.Health)
	b.BossState = s
	b.PhaseTimer = 0
}

func cooldown(frames int, enraged bool) int {
	if enraged {
		return frames / 2
	}
	return frames
}

// bossPatrol walks toward the nearest player, bouncing off walls, and drops
// minions at alternating corners.
func (e *Engine) bossPatrol(b *entity.Entity, speed float64, enraged bool) {
	if b.Grounded {
		if t := e.target(b.Center()); t != nil {
			dx := t.Center().X - b.Center().X
			if math.Abs(dx) > b.Size.X/2 {
				b.Facing = core.Sign(dx)
			}
		} else if b.Vel.X == 0 {
			b.Facing = -b.Facing
		}
		if e.rng.Float64() < 0.01 {
			b.Vel.Y = e.cfg.Physics.JumpForce
			b.Grounded = false
		}
	}
	b.Vel.X = speed * b.Facing

	if b.AttackCooldown <= 0 {
		e.cornerMinion()
		b.AttackCooldown = cooldown(e.cfg.Boss.MinionInterval, enraged)
	}
}

// bossLeap jumps at where the target will be when the boss lands, and calls
// a minion on each landing.
func (e *Engine) bossLeap(b *entity.Entity, speed float64, enraged bool) {
	if !b.Grounded {
		return
	}
	if b.Leaping {
		b.Leaping = false
		e.addShake(8)
		e.spawnMinion(core.V(b.Pos.X+b.Size.X/2, b.Pos.Y-e.cfg.Gameplay.EnemyHeight),
			core.V(b.Facing*e.cfg.Physics.MoveSpeed, -4))
	}
	b.Vel.X *= e.cfg.Physics.Friction

	if b.AttackCooldown > 0 {
		return
	}
	t := e.target(b.Center())
	if t == nil {
		return
	}
	jump := e.cfg.Physics.JumpForce * leapJumpFactor
	airtime := 2 * math.Abs(jump) / e.cfg.Physics.Gravity
	projected := t.Center().X + t.Vel.X*airtime
	vx := (projected - b.Center().X) / airtime
	limit := math.Max(maxLeapSpeed, speed)
	b.Vel.X = core.ClampF(vx, -limit, limit)
	b.Vel.Y = jump
	b.Facing = core.Sign(b.Vel.X)
	if b.Facing == 0 {
		b.Facing = 1
	}
	b.Grounded = false
	b.Leaping = true
	b.AttackCooldown = cooldown(e.cfg.Boss.LeapInterval, enraged)
	e.audio.Play(sound.CueJump)
}

// bossStorm holds the centre of the arena, blows a shifting wind at the
// players and calls minions rapidly.
func (e *Engine) bossStorm(b *entity.Entity, speed float64, enraged bool) {
	centre := e.cfg.World.Width/2 - b.Size.X/2
	b.Vel.X = core.ClampF((centre-b.Pos.X)*centreGain, -speed, speed)

	e.windTimer--
	if e.windTimer <= 0 {
		e.wind = (e.rng.Float64()*2 - 1) * e.cfg.Boss.WindForce
		e.windTimer = windInterval
	}

	if b.AttackCooldown <= 0 {
		vx := (e.rng.Float64()*2 - 1) * 2
		e.spawnMinion(core.V(b.Pos.X+b.Size.X/2, b.Pos.Y-e.cfg.Gameplay.EnemyHeight), core.V(vx, -5))
		b.AttackCooldown = cooldown(e.cfg.Boss.StormInterval, enraged)
	}
}
