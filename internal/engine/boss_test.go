package engine

import (
	"testing"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/entity"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/hud"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/multiplayer"
)

func isClear(p hud.Patch) bool { return p.ClearBoss }

// stunnedBossOnPlayer places a stunned boss overlapping the settled player.
func stunnedBossOnPlayer(e *Engine, health int) *entity.Entity {
	p := e.player(core.Player1)
	b := e.store.NewBoss(core.V(p.Pos.X-20, p.Pos.Y-32))
	b.BossState = entity.BossStunned
	b.FreezeLevel = 100
	b.Health = health
	e.bossBarShown = true
	return b
}

func TestBossDefeat(t *testing.T) {
	log := &patchLog{}
	e := newTestEngine(t, Options{Observer: log.observe})
	quietWave(e)
	settle(t, e)

	b := stunnedBossOnPlayer(e, 30)
	bossPos := b.Pos
	e.Step(idle)

	if b.Alive() || b.BossState != entity.BossDefeated || e.store.Count(entity.KindBoss) != 0 {
		t.Fatalf("boss alive=%v state=%v, expected defeated and removed", b.Alive(), b.BossState)
	}
	pickups := live(e.store.ByType(entity.KindPowerUp), entity.KindPowerUp)
	if len(pickups) != 1 || pickups[0].PowerUp != entity.PowerUpRapid {
		t.Fatalf("pickups = %d, expected one rapid", len(pickups))
	}
	if pickups[0].Pos.X != bossPos.X {
		t.Errorf("pickup at %v, expected the boss position %v", pickups[0].Pos, bossPos)
	}
	if e.score != e.cfg.Gameplay.Score.BossKick {
		t.Errorf("score = %d", e.score)
	}
	if n := log.count(isClear); n != 1 {
		t.Errorf("boss bar cleared %d times, expected 1", n)
	}

	// Completing the wave does not clear the bar again.
	e.spawned = e.waveCfg.EnemyCount
	for i := 0; i < 5; i++ {
		e.Step(idle)
	}
	if !log.hasMessage(MsgLevelComplete) {
		t.Error("wave should complete once the boss is gone")
	}
	if n := log.count(isClear); n != 1 {
		t.Errorf("boss bar cleared %d times after completion, expected 1", n)
	}
}

func TestBossKickEnrages(t *testing.T) {
	log := &patchLog{}
	e := newTestEngine(t, Options{Observer: log.observe})
	quietWave(e)
	settle(t, e)
	p := e.player(core.Player1)

	b := stunnedBossOnPlayer(e, 100)
	e.Step(idle)

	if b.Health != 100-e.cfg.Boss.KickDamage || b.BossState != entity.BossEnraged {
		t.Fatalf("boss health=%d state=%v", b.Health, b.BossState)
	}
	if b.FreezeLevel != 0 || b.Vel.Y != e.cfg.Boss.KickBounce {
		t.Errorf("boss freeze=%v vel=%v", b.FreezeLevel, b.Vel)
	}
	if p.Health != e.cfg.Player.Lives {
		t.Errorf("kicker lost a life: health=%d", p.Health)
	}
	found := log.count(func(p hud.Patch) bool { return p.Boss != nil && p.Boss.Health == b.Health }) > 0
	if !found {
		t.Error("boss bar not updated")
	}
}

func TestBossFreezesFromProjectiles(t *testing.T) {
	e := newTestEngine(t, Options{})
	quietWave(e)
	settle(t, e)

	b := e.store.NewBoss(core.V(100, 496))
	b.BossState = entity.BossPhase1
	b.FreezeLevel = 90
	e.store.SpawnProjectile(core.V(120, 520), core.V(0, 0), 60)
	e.Step(idle)

	if b.BossState != entity.BossStunned || !b.Frozen() || b.Vel.X != 0 || b.Color != entity.ColorBossIce {
		t.Errorf("boss state=%v freeze=%v vel=%v color=%s, expected stunned", b.BossState, b.FreezeLevel, b.Vel, b.Color)
	}
	if b.Kind != entity.KindBoss {
		t.Error("a frozen boss must keep its kind")
	}

	// A stunned boss ignores further shots but still consumes them.
	freeze := b.FreezeLevel
	e.store.SpawnProjectile(core.V(120, 520), core.V(0, 0), 60)
	e.Step(idle)
	if e.store.Count(entity.KindProjectile) != 0 {
		t.Error("projectile should be consumed by a stunned boss")
	}
	if b.FreezeLevel >= freeze {
		t.Errorf("freeze = %v, expected decay only", b.FreezeLevel)
	}
}

func TestSnowballChipsBoss(t *testing.T) {
	e := newTestEngine(t, Options{})
	quietWave(e)
	settle(t, e)

	b := e.store.NewBoss(core.V(200, 496))
	b.BossState = entity.BossPhase2
	b.Health = 3
	b.AttackCooldown = 1000

	s := e.store.NewEnemy(core.V(180, 528), 1, "")
	e.store.TransformToSnowball(s)
	s.Rolling = true
	s.Vel.X = 8
	e.Step(idle)

	if b.Health != 1 {
		t.Errorf("boss health = %d, expected chip damage to stop at 1", b.Health)
	}
	if s.Alive() {
		t.Error("snowball should be consumed by the boss")
	}
}

func TestBossPhases(t *testing.T) {
	tests := []struct {
		name     string
		mode     multiplayer.Mode
		health   int
		expected entity.BossState
	}{
		{"solo full", multiplayer.ModeSolo, 100, entity.BossPhase1},
		{"solo half", multiplayer.ModeSolo, 50, entity.BossPhase2},
		{"solo low stays phase 2", multiplayer.ModeSolo, 10, entity.BossPhase2},
		{"coop half", multiplayer.ModeCoop, 40, entity.BossPhase2},
		{"coop low", multiplayer.ModeCoop, 25, entity.BossPhase3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(t, Options{Mode: tc.mode})
			b := &entity.Entity{Kind: entity.KindBoss, Health: tc.health, MaxHealth: 100}
			if got := e.bossPhase(b); got != tc.expected {
				t.Errorf("bossPhase() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestBossStateMachine(t *testing.T) {
	e := newTestEngine(t, Options{Mode: multiplayer.ModeCoop})
	quietWave(e)
	settle(t, e)

	b := e.store.NewBoss(core.V(100, 300))
	for i := 0; i < 120 && b.BossState == entity.BossSpawn; i++ {
		e.Step(idle)
	}
	if b.BossState != entity.BossPhase1 {
		t.Fatalf("state = %v, expected phase 1 after landing", b.BossState)
	}
	if e.shake == 0 {
		t.Error("landing should shake the screen")
	}

	b.Health = 20
	e.Step(idle)
	if b.BossState != entity.BossPhase3 || !e.blizzard {
		t.Errorf("state = %v blizzard=%v, expected phase 3 storm in coop", b.BossState, e.blizzard)
	}

	b.BossState = entity.BossStunned
	b.FreezeLevel = 0.3
	e.Step(idle)
	if b.BossState != entity.BossEnraged || b.Color != entity.ColorBossEnraged {
		t.Errorf("state = %v, expected enraged after thawing", b.BossState)
	}

	// Enraged keeps its state while following the health phase.
	e.Step(idle)
	if b.BossState != entity.BossEnraged {
		t.Errorf("state = %v, expected enraged to persist", b.BossState)
	}
}

func TestBossMinionCap(t *testing.T) {
	e := newTestEngine(t, Options{})
	quietWave(e)
	for i := 0; i < 10; i++ {
		e.cornerMinion()
	}
	if got := e.store.Count(entity.KindEnemy); got != e.cfg.Boss.MaxMinions {
		t.Errorf("minions = %d, expected cap %d", got, e.cfg.Boss.MaxMinions)
	}
}
