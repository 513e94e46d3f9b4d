package engine

import (
	"math"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/entity"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/hud"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/sound"
)

// updateSpawner releases the wave's enemies one interval apart, then waits
// for the arena to clear and starts the next wave after the grace period.
func (e *Engine) updateSpawner() {
	if e.waveCfg == nil {
		return
	}
	cfg := e.waveCfg

	if e.spawned < cfg.EnemyCount {
		e.spawnTimer++
		if e.spawnTimer < e.spawnInterval {
			return
		}
		if cfg.Boss() {
			e.spawnBoss()
		} else if !e.spawnEnemy() {
			// Unsafe roll, retry next step with the timer still full.
			return
		}
		e.spawned++
		e.spawnTimer = 0
		return
	}

	if e.hostilesRemaining() > 0 {
		return
	}
	if !e.levelComplete {
		e.levelComplete = true
		e.levelCompleteAt = e.simTime
		e.emit(hud.Message(MsgLevelComplete))
		e.audio.Play(sound.CuePowerUp)
		e.log.Info("wave cleared", "wave", e.wave, "score", e.score)
		return
	}
	if e.simTime-e.levelCompleteAt > e.cfg.Gameplay.LevelCompleteGrace() {
		e.startWave()
	}
}

// spawnEnemy drops a minion at a random x. In solo the spawn must be at least
// the safe radius away from the player horizontally.
func (e *Engine) spawnEnemy() bool {
	g := e.cfg.Gameplay
	w := e.cfg.World
	x := g.SpawnMargin + e.rng.Float64()*(w.Width-2*g.SpawnMargin)

	if !e.coop() {
		p := e.player(core.Player1)
		if p == nil || math.Abs(x-p.Pos.X) <= g.SpawnSafeRadius {
			return false
		}
	}

	dir := 1.0
	if e.rng.Float64() < 0.5 {
		dir = -1
	}
	color := ""
	if e.waveCfg.Theme != nil {
		color = e.waveCfg.Theme.Color
	}
	enemy := e.store.NewEnemy(core.V(x, 50), dir, color)
	enemy.Vel.X = e.waveCfg.EnemySpeed * dir
	return true
}

// spawnBoss drops the boss at the top centre and shows its health bar.
func (e *Engine) spawnBoss() {
	b := e.store.NewBoss(core.V(e.cfg.World.Width/2-e.cfg.Boss.Width/2, 50))
	e.bossBarShown = true
	e.emit(hud.Patch{Boss: &hud.BossBar{Health: b.Health, Max: b.MaxHealth}})
	e.log.Info("boss spawned", "wave", e.wave, "health", b.Health)
}

// spawnMinion adds a boss minion at pos unless the minion cap is reached.
func (e *Engine) spawnMinion(pos core.Vec2, vel core.Vec2) bool {
	if e.store.Count(entity.KindEnemy) >= e.cfg.Boss.MaxMinions {
		return false
	}
	facing := core.Sign(vel.X)
	if facing == 0 {
		facing = 1
	}
	m := e.store.NewEnemy(pos, facing, "")
	m.Vel = vel
	return true
}

// cornerMinion spawns a minion near the next upper arena corner.
func (e *Engine) cornerMinion() {
	w := e.cfg.World
	x := w.WallThickness + 8
	dir := 1.0
	if e.minionSide%2 == 1 {
		x = w.Width - w.WallThickness - 8 - e.cfg.Gameplay.EnemyWidth
		dir = -1
	}
	if e.spawnMinion(core.V(x, 60), core.V(dir*e.cfg.Physics.MoveSpeed, 0)) {
		e.minionSide++
	}
}

func (e *Engine) hostilesRemaining() int {
	return e.store.Count(entity.KindEnemy) + e.store.Count(entity.KindSnowball) + e.store.Count(entity.KindBoss)
}
