package engine

import (
	"context"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/entity"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/hud"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/physics"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/sound"
)

// resolveCollisions applies every pairwise interaction of one step, in order.
// Pickups dropped during this pass become collectable on the next step.
func (e *Engine) resolveCollisions() {
	pickups := live(e.store.ByType(entity.KindPowerUp), entity.KindPowerUp)
	e.projectileHits()
	e.snowballKicks()
	e.bossKicks()
	e.rollingSnowballs()
	e.powerUpPickups(pickups)
	e.playerDamage()
}

func live(list []*entity.Entity, kind entity.Kind) []*entity.Entity {
	out := make([]*entity.Entity, 0, len(list))
	for _, ent := range list {
		if ent.Alive() && ent.Kind == kind {
			out = append(out, ent)
		}
	}
	return out
}

func (e *Engine) corporealPlayers() []*entity.Entity {
	var out []*entity.Entity
	for _, p := range e.players() {
		if p.Corporeal() {
			out = append(out, p)
		}
	}
	return out
}

// projectileHits freezes enemies and bosses struck by projectiles. Each
// projectile is consumed by its first hit.
func (e *Engine) projectileHits() {
	g := e.cfg.Gameplay
	for _, proj := range live(e.store.ByType(entity.KindProjectile), entity.KindProjectile) {
		for _, en := range live(e.store.ByType(entity.KindEnemy), entity.KindEnemy) {
			if !physics.CheckCollision(proj, en) {
				continue
			}
			proj.MarkedForDeletion = true
			if en.EnemyState != entity.EnemyFrozen {
				en.AddFreeze(g.FreezePerShot)
				en.EnemyState = entity.EnemyStunned
				e.audio.Play(sound.CueEnemyHit)
				if en.Frozen() {
					e.store.TransformToSnowball(en)
				}
			}
			break
		}
		if !proj.Alive() {
			continue
		}
		for _, b := range live(e.store.ByType(entity.KindBoss), entity.KindBoss) {
			if !physics.CheckCollision(proj, b) {
				continue
			}
			proj.MarkedForDeletion = true
			if b.BossState != entity.BossStunned && b.BossState != entity.BossDefeated {
				b.AddFreeze(g.BossFreezePerShot)
				e.audio.Play(sound.CueEnemyHit)
				if b.Frozen() {
					e.setBossState(b, entity.BossStunned)
					b.Color = entity.ColorBossIce
					b.Vel = core.Vec2{}
					b.Leaping = false
				}
			}
			break
		}
	}
}

// snowballKicks sends a resting snowball rolling away from the player touching it.
func (e *Engine) snowballKicks() {
	for _, p := range e.corporealPlayers() {
		for _, s := range live(e.store.ByType(entity.KindSnowball), entity.KindSnowball) {
			if s.Rolling || !physics.CheckCollision(p, s) {
				continue
			}
			dir := -1.0
			if p.Pos.X < s.Pos.X {
				dir = 1
			}
			s.Rolling = true
			s.Vel.X = dir * e.cfg.Physics.SnowballRollSpeed
			s.Vel.Y = -2
			s.Grounded = false
			e.addScore(e.cfg.Gameplay.Score.Kick)
			e.addShake(5)
			e.audio.Play(sound.CueJump)
		}
	}
}

// bossKicks damages a stunned boss touched by a player.
func (e *Engine) bossKicks() {
	bc := e.cfg.Boss
	for _, p := range e.corporealPlayers() {
		for _, b := range live(e.store.ByType(entity.KindBoss), entity.KindBoss) {
			if b.BossState != entity.BossStunned || !physics.CheckCollision(p, b) {
				continue
			}
			b.Health -= bc.KickDamage
			e.addScore(e.cfg.Gameplay.Score.BossKick)
			e.addShake(20)
			e.audio.Play(sound.CueExplosion)
			e.store.SpawnParticleBurst(b.Center(), 20, entity.ColorBossIce, e.rng)

			if b.Health <= 0 {
				e.defeatBoss(b)
				continue
			}
			// Grace for the kicker, who still overlaps the boss.
			p.InvulnerableUntil = e.simTime + e.cfg.Player.Invulnerability()
			e.setBossState(b, entity.BossEnraged)
			b.FreezeLevel = 0
			b.Color = entity.ColorBossEnraged
			b.Vel.Y = bc.KickBounce
			b.Grounded = false
			e.emit(hud.Patch{Boss: &hud.BossBar{Health: b.Health, Max: b.MaxHealth}})
		}
	}
}

// defeatBoss removes the boss, drops its reward and clears the health bar.
func (e *Engine) defeatBoss(b *entity.Entity) {
	b.Health = 0
	e.setBossState(b, entity.BossDefeated)
	b.MarkedForDeletion = true
	e.wind = 0
	e.store.NewPowerUp(b.Pos, entity.PowerUpRapid)
	if e.bossBarShown {
		e.bossBarShown = false
		e.emit(hud.Patch{ClearBoss: true})
	}
	e.audio.Play(sound.CuePowerUp)
	e.log.Info("boss defeated", "wave", e.wave, "score", e.score)
}

// rollingSnowballs crushes enemies in a rolling snowball's path and chips
// the boss. A snowball is consumed by the boss.
func (e *Engine) rollingSnowballs() {
	for _, s := range live(e.store.ByType(entity.KindSnowball), entity.KindSnowball) {
		if !s.Rolling {
			continue
		}
		for _, en := range live(e.store.ByType(entity.KindEnemy), entity.KindEnemy) {
			if !physics.CheckCollision(s, en) {
				continue
			}
			en.MarkedForDeletion = true
			e.addScore(e.cfg.Gameplay.Score.SnowballKill)
			e.addShake(10)
			e.audio.Play(sound.CueExplosion)
			e.store.SpawnParticleBurst(en.Center(), 10, en.Color, e.rng)
		}
		for _, b := range live(e.store.ByType(entity.KindBoss), entity.KindBoss) {
			if b.BossState == entity.BossStunned || b.BossState == entity.BossDefeated || !physics.CheckCollision(s, b) {
				continue
			}
			b.Health -= e.cfg.Boss.ChipDamage
			if b.Health < 1 {
				b.Health = 1
			}
			s.MarkedForDeletion = true
			e.audio.Play(sound.CueEnemyHit)
			e.store.SpawnParticleBurst(s.Center(), 10, entity.ColorSnowball, e.rng)
			e.emit(hud.Patch{Boss: &hud.BossBar{Health: b.Health, Max: b.MaxHealth}})
			break
		}
	}
}

// powerUpPickups applies pickups to the player who touches them first.
func (e *Engine) powerUpPickups(pickups []*entity.Entity) {
	bonus := e.cfg.Gameplay.PowerUpBonus
	for _, p := range e.corporealPlayers() {
		for _, pu := range pickups {
			if !pu.Alive() || !physics.CheckCollision(p, pu) {
				continue
			}
			pu.MarkedForDeletion = true
			switch pu.PowerUp {
			case entity.PowerUpSpeed:
				p.MoveSpeedMult += bonus.Speed
			case entity.PowerUpRapid:
				p.FireRateMult += bonus.Rapid
			case entity.PowerUpRange:
				p.RangeMult += bonus.Range
			}
			e.addScore(e.cfg.Gameplay.Score.PowerUp)
			e.audio.Play(sound.CuePowerUp)
			e.log.Debug("power-up collected", "player", p.Owner, "kind", pu.PowerUp)
		}
	}
}

// playerDamage hurts players touching a walking enemy or a hostile boss.
func (e *Engine) playerDamage() {
	for _, p := range e.corporealPlayers() {
		if e.phase != core.PhasePlaying {
			return
		}
		if p.Invulnerable(e.simTime) {
			continue
		}
		if e.touchesHostile(p) {
			e.damage(p)
		}
	}
}

func (e *Engine) touchesHostile(p *entity.Entity) bool {
	for _, en := range live(e.store.ByType(entity.KindEnemy), entity.KindEnemy) {
		if en.EnemyState == entity.EnemyWalking && physics.CheckCollision(p, en) {
			return true
		}
	}
	for _, b := range live(e.store.ByType(entity.KindBoss), entity.KindBoss) {
		if b.BossState.Hostile() && physics.CheckCollision(p, b) {
			return true
		}
	}
	return false
}

// damage takes one life. The last life ends a solo run or turns a coop
// player into a ghost.
func (e *Engine) damage(p *entity.Entity) {
	p.Health--
	e.addShake(20)
	e.audio.Play(sound.CueExplosion)
	e.emit(hud.Patch{Lives: hud.Ptr(e.lives())})

	if p.Health > 0 {
		p.InvulnerableUntil = e.simTime + e.cfg.Player.Invulnerability()
		p.Pos = core.V(e.cfg.World.Width/2, 100)
		p.Vel = core.Vec2{}
		p.Grounded = false
		return
	}

	p.Health = 0
	if !e.coop() {
		e.gameOver()
		return
	}
	p.Ghost = true
	p.Vel = core.Vec2{}
	p.Color = entity.ColorGhost
	e.log.Info("player down", "player", p.Owner)
	if len(e.corporealPlayers()) == 0 {
		e.gameOver()
	}
}

// gameOver ends the run and records the result once.
func (e *Engine) gameOver() {
	e.phase = core.PhaseGameOver
	e.abandonRequest()
	e.audio.StopMusic()
	e.emit(hud.Patch{Message: hud.Ptr(MsgGameOver), GameOver: hud.Ptr(true)})
	e.log.Info("game over", "score", e.score, "wave", e.wave)
	e.submitResult()
}

func (e *Engine) submitResult() {
	if e.submitted || e.opts.Leaderboard == nil || e.opts.Identity.Guest {
		return
	}
	e.submitted = true
	ctx, cancel := context.WithTimeout(e.ctx, e.opts.SubmitTimeout)
	defer cancel()
	if err := e.opts.Leaderboard.SubmitResult(ctx, e.opts.Identity, e.score, e.wave); err != nil {
		e.log.Error("failed to save score", "player", e.opts.Identity.Name, "err", err)
	}
}
