package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/config"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/entity"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/hud"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/multiplayer"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/sound"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

type fakeAudio struct {
	cues    []sound.Cue
	tracks  []sound.Track
	stopped int
	muted   bool
}

func (a *fakeAudio) Play(c sound.Cue)        { a.cues = append(a.cues, c) }
func (a *fakeAudio) PlayTrack(t sound.Track) { a.tracks = append(a.tracks, t) }
func (a *fakeAudio) StopMusic()              { a.stopped++ }
func (a *fakeAudio) SetMuted(m bool)         { a.muted = m }
func (a *fakeAudio) Muted() bool             { return a.muted }

type fakeBoard struct {
	calls int
	who   multiplayer.Identity
	score int
	wave  int
	err   error
}

func (b *fakeBoard) SubmitResult(ctx context.Context, who multiplayer.Identity, score, wave int) error {
	b.calls++
	b.who, b.score, b.wave = who, score, wave
	return b.err
}

type fakeRecorder struct {
	waves   []wave.Source
	errs    []error
	frames  int
	stepped int
}

func (r *fakeRecorder) ObserveStep(time.Duration) { r.stepped++ }
func (r *fakeRecorder) ObserveFrame(int, bool)    { r.frames++ }
func (r *fakeRecorder) ObserveWave(n int, s wave.Source, err error) {
	r.waves = append(r.waves, s)
	r.errs = append(r.errs, err)
}

type patchLog struct {
	patches []hud.Patch
}

func (l *patchLog) observe(p hud.Patch) { l.patches = append(l.patches, p) }

func (l *patchLog) count(match func(hud.Patch) bool) int {
	n := 0
	for _, p := range l.patches {
		if match(p) {
			n++
		}
	}
	return n
}

func (l *patchLog) hasMessage(msg string) bool {
	return l.count(func(p hud.Patch) bool { return p.Message != nil && *p.Message == msg }) > 0
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	if opts.Runtime.Seed == 0 {
		opts.Runtime.Seed = 42
	}
	e := New(opts)
	e.Start()
	t.Cleanup(e.Close)
	return e
}

// quietWave installs an empty arena whose spawner never fires.
func quietWave(e *Engine) {
	e.applyWave(wave.Result{
		Wave:   e.wave,
		Source: wave.SourceFallback,
		Config: wave.Config{EnemyCount: 1, SpawnInterval: 1 << 30, EnemySpeed: 1, Message: "test", Layout: []wave.Platform{}},
	})
}

var idle = core.SoloInput(core.NewInputFrame())

// settle steps until every corporeal player stands on the ground.
func settle(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; i < 240; i++ {
		grounded := true
		for _, p := range e.corporealPlayers() {
			grounded = grounded && p.Grounded
		}
		if grounded {
			return
		}
		e.Step(idle)
	}
	t.Fatal("players never landed")
}

func TestStartState(t *testing.T) {
	audio := &fakeAudio{}
	log := &patchLog{}
	e := newTestEngine(t, Options{Audio: audio, Observer: log.observe})

	st := e.State()
	if st.Phase != core.PhasePlaying || st.Wave != 1 || st.Score != 0 {
		t.Errorf("State() = %+v", st)
	}
	cfg, src, ok := e.Wave()
	if !ok || src != wave.SourceFallback || cfg.EnemyCount != wave.Fallback(1).EnemyCount {
		t.Errorf("Wave() = %+v, %v, %v, expected fallback 1", cfg, src, ok)
	}
	if !log.hasMessage(MsgContacting) || !log.hasMessage(wave.Fallback(1).Message) {
		t.Error("start should announce the director request and the wave message")
	}
	if len(audio.tracks) == 0 || audio.tracks[0] != sound.TrackGame {
		t.Errorf("tracks = %v, expected game music first", audio.tracks)
	}
	// Floor, two walls, one player and the wave 1 layout.
	if got := e.store.Count(entity.KindPlatform); got != 1+len(wave.Fallback(1).Layout) {
		t.Errorf("platforms = %d", got)
	}
	if got := e.store.Count(entity.KindWall); got != 2 {
		t.Errorf("walls = %d, expected 2", got)
	}
	if got := e.store.Count(entity.KindPlayer); got != 1 {
		t.Errorf("players = %d, expected 1", got)
	}
}

func TestRestingPlayerStaysPut(t *testing.T) {
	e := newTestEngine(t, Options{})
	quietWave(e)
	settle(t, e)

	p := e.player(core.Player1)
	pos := p.Pos
	for i := 0; i < 3; i++ {
		e.Step(idle)
		if p.Pos != pos || p.Vel.Y != 0 || !p.Grounded {
			t.Fatalf("step %d: pos=%v vel=%v grounded=%v, expected resting at %v", i, p.Pos, p.Vel, p.Grounded, pos)
		}
	}
}

func TestPlayerMovement(t *testing.T) {
	audio := &fakeAudio{}
	e := newTestEngine(t, Options{Audio: audio})
	quietWave(e)
	settle(t, e)
	p := e.player(core.Player1)

	e.Step(core.SoloInput(core.InputOf(core.ActionLeft)))
	if p.Vel.X != -e.cfg.Physics.MaxSpeed || p.Facing != -1 {
		t.Errorf("after left: vel=%v facing=%v", p.Vel, p.Facing)
	}

	e.Step(idle)
	if expected := -e.cfg.Physics.MaxSpeed * e.cfg.Physics.Friction; p.Vel.X != expected {
		t.Errorf("friction: vel.x = %v, expected %v", p.Vel.X, expected)
	}

	settle(t, e)
	e.Step(core.SoloInput(core.InputOf(core.ActionJump)))
	if p.Grounded || p.Vel.Y != e.cfg.Physics.JumpForce {
		t.Errorf("jump: grounded=%v vel.y=%v, expected airborne at %v", p.Grounded, p.Vel.Y, e.cfg.Physics.JumpForce)
	}

	e.Step(idle)
	if expected := e.cfg.Physics.JumpForce + e.cfg.Physics.Gravity; p.Vel.Y != expected {
		t.Errorf("rising: vel.y = %v, expected %v", p.Vel.Y, expected)
	}
	found := false
	for _, c := range audio.cues {
		found = found || c == sound.CueJump
	}
	if !found {
		t.Error("jump cue not played")
	}
}

func TestDamageAndInvulnerability(t *testing.T) {
	log := &patchLog{}
	e := newTestEngine(t, Options{Observer: log.observe})
	quietWave(e)
	settle(t, e)
	p := e.player(core.Player1)

	e.store.NewEnemy(p.Pos, 1, "")
	e.Step(idle)
	if p.Health != 2 {
		t.Fatalf("Health = %d, expected 2", p.Health)
	}
	if !p.Invulnerable(e.simTime) {
		t.Error("player should be invulnerable after a hit")
	}
	if p.Pos != core.V(e.cfg.World.Width/2, 100) || p.Vel != (core.Vec2{}) {
		t.Errorf("respawn pos=%v vel=%v", p.Pos, p.Vel)
	}

	e.store.NewEnemy(p.Pos, 1, "")
	e.Step(idle)
	if p.Health != 2 {
		t.Errorf("Health = %d during invulnerability, expected 2", p.Health)
	}

	e.simTime += e.cfg.Player.Invulnerability()
	e.Step(idle)
	if p.Health != 1 {
		t.Errorf("Health = %d after invulnerability expired, expected 1", p.Health)
	}
	if log.count(func(p hud.Patch) bool { return p.Lives != nil && *p.Lives == 1 }) == 0 {
		t.Error("lives patch not emitted")
	}
}

func TestGameOverSubmitsOnce(t *testing.T) {
	tests := []struct {
		name     string
		identity multiplayer.Identity
		calls    int
	}{
		{"named player", multiplayer.NewIdentity("alice"), 1},
		{"guest", multiplayer.NewGuest(), 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			board := &fakeBoard{err: errors.New("disk full")}
			audio := &fakeAudio{}
			log := &patchLog{}
			e := newTestEngine(t, Options{Identity: tc.identity, Leaderboard: board, Audio: audio, Observer: log.observe})
			quietWave(e)
			settle(t, e)

			p := e.player(core.Player1)
			p.Health = 1
			e.score = 1234
			e.store.NewEnemy(p.Pos, 1, "")
			e.Step(idle)

			if e.State().Phase != core.PhaseGameOver {
				t.Fatalf("Phase = %v, expected GameOver", e.State().Phase)
			}
			if board.calls != tc.calls {
				t.Errorf("SubmitResult calls = %d, expected %d", board.calls, tc.calls)
			}
			if tc.calls == 1 && (board.score != 1234 || board.wave != 1 || board.who.Name != "alice") {
				t.Errorf("submitted %+v", board)
			}
			if audio.stopped == 0 {
				t.Error("music should stop on game over")
			}
			if log.count(func(p hud.Patch) bool { return p.GameOver != nil && *p.GameOver }) != 1 {
				t.Error("expected one game over patch")
			}

			// No further steps run and nothing is submitted twice.
			tick := e.tick
			e.Step(idle)
			if e.tick != tick {
				t.Error("Step ran after game over")
			}
			if board.calls != tc.calls {
				t.Error("result submitted twice")
			}
		})
	}
}

func TestFreezeToSnowball(t *testing.T) {
	e := newTestEngine(t, Options{})
	quietWave(e)
	settle(t, e)

	t.Run("first hit stuns", func(t *testing.T) {
		en := e.store.NewEnemy(core.V(150, 528), 1, "")
		e.store.SpawnProjectile(core.V(150, 536), core.V(8, 0), 60)
		e.Step(idle)
		if en.Kind != entity.KindEnemy || en.EnemyState != entity.EnemyStunned || en.FreezeLevel != e.cfg.Gameplay.FreezePerShot {
			t.Errorf("enemy = kind %v state %v freeze %v", en.Kind, en.EnemyState, en.FreezeLevel)
		}
		if e.store.Count(entity.KindProjectile) != 0 {
			t.Error("projectile should be consumed")
		}
		en.MarkedForDeletion = true
		e.Step(idle)
	})

	t.Run("reaching 100 transforms in place", func(t *testing.T) {
		en := e.store.NewEnemy(core.V(200, 528), 1, "")
		en.EnemyState = entity.EnemyStunned
		en.FreezeLevel = 90
		id := en.ID
		e.store.SpawnProjectile(core.V(200, 536), core.V(8, 0), 60)
		e.Step(idle)

		if en.Kind != entity.KindSnowball || en.ID != id {
			t.Fatalf("entity = kind %v id %d, expected snowball %d", en.Kind, en.ID, id)
		}
		if en.FreezeLevel != 100 || en.Rolling || en.Vel.X != 0 {
			t.Errorf("snowball freeze=%v rolling=%v vel=%v", en.FreezeLevel, en.Rolling, en.Vel)
		}
		if e.store.Count(entity.KindEnemy) != 0 || e.store.Count(entity.KindSnowball) != 1 {
			t.Errorf("enemies=%d snowballs=%d", e.store.Count(entity.KindEnemy), e.store.Count(entity.KindSnowball))
		}
	})
}

func TestFreezeDecay(t *testing.T) {
	e := newTestEngine(t, Options{})
	quietWave(e)
	settle(t, e)
	g := e.cfg.Gameplay

	en := e.store.NewEnemy(core.V(150, 528), 1, "")
	e.store.SpawnProjectile(core.V(150, 536), core.V(8, 0), 60)
	e.Step(idle)
	if en.EnemyState != entity.EnemyStunned || en.FreezeLevel != g.FreezePerShot {
		t.Fatalf("after hit: state %v freeze %v, expected stunned at %v", en.EnemyState, en.FreezeLevel, g.FreezePerShot)
	}

	t.Run("decays while stunned", func(t *testing.T) {
		prev := en.FreezeLevel
		for i := 0; i < 10; i++ {
			e.Step(idle)
			if en.FreezeLevel >= prev {
				t.Fatalf("step %d: freeze %v did not fall below %v", i, en.FreezeLevel, prev)
			}
			if en.EnemyState != entity.EnemyStunned {
				t.Fatalf("step %d: state = %v with freeze %v, expected stunned", i, en.EnemyState, en.FreezeLevel)
			}
			prev = en.FreezeLevel
		}
	})

	t.Run("second hit raises the level", func(t *testing.T) {
		before := en.FreezeLevel
		e.store.SpawnProjectile(core.V(en.Pos.X, en.Pos.Y+8), core.V(8, 0), 60)
		e.Step(idle)
		if expected := before - g.FreezeDecay + g.FreezePerShot; math.Abs(en.FreezeLevel-expected) > 1e-9 {
			t.Errorf("FreezeLevel = %v, expected %v", en.FreezeLevel, expected)
		}
		if en.EnemyState != entity.EnemyStunned {
			t.Errorf("state = %v, expected stunned", en.EnemyState)
		}
	})

	t.Run("reaches zero and walks", func(t *testing.T) {
		steps := int(math.Ceil(en.FreezeLevel/g.FreezeDecay)) + 2
		prev := en.FreezeLevel
		for i := 0; i < steps && en.EnemyState == entity.EnemyStunned; i++ {
			e.Step(idle)
			if en.FreezeLevel > prev {
				t.Fatalf("step %d: freeze rose from %v to %v", i, prev, en.FreezeLevel)
			}
			if en.FreezeLevel > 0 && en.EnemyState != entity.EnemyStunned {
				t.Fatalf("step %d: state = %v with freeze %v", i, en.EnemyState, en.FreezeLevel)
			}
			prev = en.FreezeLevel
		}
		if en.EnemyState != entity.EnemyWalking || en.FreezeLevel != 0 {
			t.Errorf("state %v freeze %v, expected walking at 0", en.EnemyState, en.FreezeLevel)
		}
		if en.Kind != entity.KindEnemy {
			t.Errorf("Kind = %v, expected enemy", en.Kind)
		}
	})
}

func TestSpawnerUsesWaveInterval(t *testing.T) {
	e := newTestEngine(t, Options{})
	for e.wave < 11 {
		e.startWave()
	}
	cfg, src, ok := e.Wave()
	if !ok || src != wave.SourceFallback {
		t.Fatalf("wave %d: ok=%v source=%v, expected fallback", e.wave, ok, src)
	}
	if cfg.SpawnInterval != wave.Fallback(11).SpawnInterval {
		t.Fatalf("SpawnInterval = %d, expected %d", cfg.SpawnInterval, wave.Fallback(11).SpawnInterval)
	}
	if e.spawnInterval != cfg.SpawnInterval {
		t.Errorf("spawnInterval = %d, expected %d", e.spawnInterval, cfg.SpawnInterval)
	}
}

func TestKickAndRoll(t *testing.T) {
	e := newTestEngine(t, Options{})
	quietWave(e)
	settle(t, e)
	p := e.player(core.Player1)

	s := e.store.NewEnemy(core.V(p.Pos.X+20, p.Pos.Y), 1, "")
	e.store.TransformToSnowball(s)
	victim := e.store.NewEnemy(core.V(p.Pos.X+60, p.Pos.Y), 1, "")
	victim.Facing = -1

	e.Step(idle)
	if !s.Rolling || s.Vel.X != e.cfg.Physics.SnowballRollSpeed {
		t.Fatalf("snowball rolling=%v vel=%v, expected kicked right", s.Rolling, s.Vel)
	}
	if e.score != e.cfg.Gameplay.Score.Kick {
		t.Errorf("score = %d after kick", e.score)
	}

	for i := 0; i < 10 && victim.Alive(); i++ {
		e.Step(idle)
	}
	if victim.Alive() {
		t.Fatal("rolling snowball should crush the enemy")
	}
	if e.score != e.cfg.Gameplay.Score.Kick+e.cfg.Gameplay.Score.SnowballKill {
		t.Errorf("score = %d after crush", e.score)
	}
}

func TestShooting(t *testing.T) {
	e := newTestEngine(t, Options{})
	quietWave(e)
	settle(t, e)
	p := e.player(core.Player1)
	shoot := core.SoloInput(core.InputOf(core.ActionShoot))

	e.Step(shoot)
	projs := live(e.store.ByType(entity.KindProjectile), entity.KindProjectile)
	if len(projs) != 1 {
		t.Fatalf("projectiles = %d, expected 1", len(projs))
	}
	if projs[0].Vel != core.V(e.cfg.Physics.ProjectileSpeed, 0) || projs[0].TTL != e.cfg.Gameplay.ProjectileTTL-1 {
		t.Errorf("projectile vel=%v ttl=%d", projs[0].Vel, projs[0].TTL)
	}
	for i := 0; i < 11; i++ {
		e.Step(shoot)
	}
	if got := e.store.Count(entity.KindProjectile); got != 1 {
		t.Errorf("projectiles after 12 steps = %d, expected 1 while cooling down", got)
	}
	e.Step(shoot)
	if got := e.store.Count(entity.KindProjectile); got != 2 {
		t.Errorf("projectiles after 13 steps = %d, expected 2", got)
	}

	for i := 0; i < 10; i++ {
		p.ShotCooldown = 0
		e.Step(shoot)
	}
	if got := e.store.Count(entity.KindProjectile); got != e.cfg.Gameplay.MaxProjectiles {
		t.Errorf("projectiles = %d, expected cap %d", got, e.cfg.Gameplay.MaxProjectiles)
	}
}

func TestPowerUpPickup(t *testing.T) {
	tests := []struct {
		kind  entity.PowerUpKind
		field func(p *entity.Entity) float64
		bonus float64
	}{
		{entity.PowerUpSpeed, func(p *entity.Entity) float64 { return p.MoveSpeedMult }, 0.2},
		{entity.PowerUpRapid, func(p *entity.Entity) float64 { return p.FireRateMult }, 0.3},
		{entity.PowerUpRange, func(p *entity.Entity) float64 { return p.RangeMult }, 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			e := newTestEngine(t, Options{})
			quietWave(e)
			settle(t, e)
			p := e.player(core.Player1)
			e.store.NewPowerUp(core.V(p.Pos.X+4, p.Pos.Y+4), tc.kind)
			e.Step(idle)
			if got := tc.field(p); got != 1+tc.bonus {
				t.Errorf("multiplier = %v, expected %v", got, 1+tc.bonus)
			}
			if e.score != e.cfg.Gameplay.Score.PowerUp || e.store.Count(entity.KindPowerUp) != 0 {
				t.Errorf("score=%d powerups=%d", e.score, e.store.Count(entity.KindPowerUp))
			}
		})
	}
}

func TestSpawnRespectsSafeRadius(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.applyWave(wave.Result{Wave: 1, Source: wave.SourceFallback, Config: wave.Config{
		EnemyCount: 15, SpawnInterval: 1, EnemySpeed: 1, Layout: []wave.Platform{},
	}})
	p := e.player(core.Player1)

	seen := map[uint64]bool{}
	for i := 0; i < 400 && e.spawned < 15; i++ {
		e.Step(idle)
		for _, en := range live(e.store.ByType(entity.KindEnemy), entity.KindEnemy) {
			if seen[en.ID] {
				continue
			}
			seen[en.ID] = true
			// The enemy has walked at most one step since spawning.
			if d := en.Pos.X - p.Pos.X; d > -e.cfg.Gameplay.SpawnSafeRadius+2 && d < e.cfg.Gameplay.SpawnSafeRadius-2 {
				t.Errorf("enemy %d spawned %.1f from the player", en.ID, d)
			}
			if en.Pos.Y > 60 {
				t.Errorf("enemy %d spawned at y=%v", en.ID, en.Pos.Y)
			}
		}
	}
	if len(seen) == 0 {
		t.Fatal("no enemies spawned")
	}
}

func TestLevelCompleteAdvancesWave(t *testing.T) {
	log := &patchLog{}
	e := newTestEngine(t, Options{Observer: log.observe})
	e.applyWave(wave.Result{Wave: 1, Source: wave.SourceFallback, Config: wave.Config{
		EnemyCount: 1, SpawnInterval: 1, EnemySpeed: 1, Layout: []wave.Platform{},
	}})

	for i := 0; i < 600 && e.store.Count(entity.KindEnemy) == 0; i++ {
		e.Step(idle)
	}
	for _, en := range e.store.ByType(entity.KindEnemy) {
		en.MarkedForDeletion = true
	}
	e.Step(idle)
	if !log.hasMessage(MsgLevelComplete) {
		t.Fatal("level complete message not emitted")
	}
	if e.State().Wave != 1 {
		t.Error("next wave started before the grace period")
	}

	steps := int(e.cfg.Gameplay.LevelCompleteGrace()/e.cfg.Loop.StepDuration()) + 2
	for i := 0; i < steps; i++ {
		e.Step(idle)
	}
	if e.State().Wave != 2 {
		t.Fatalf("Wave = %d, expected 2", e.State().Wave)
	}
	if cfg, _, ok := e.Wave(); !ok || cfg.Message != wave.Fallback(2).Message {
		t.Errorf("wave 2 config = %+v", cfg)
	}
}

func TestFrameAccumulator(t *testing.T) {
	rec := &fakeRecorder{}
	e := newTestEngine(t, Options{Recorder: rec})
	t0 := time.Unix(1000, 0)

	tests := []struct {
		at        time.Duration
		steps     int
		truncated bool
	}{
		{0, 0, false},
		{time.Second, 12, true},
		{time.Second + 40*time.Millisecond, 2, false},
		{time.Second + 45*time.Millisecond, 0, false},
		{time.Second + 50*time.Millisecond, 1, false},
	}
	for _, tc := range tests {
		steps, truncated := e.Frame(t0.Add(tc.at), idle)
		if steps != tc.steps || truncated != tc.truncated {
			t.Errorf("Frame(+%v) = %d, %v, expected %d, %v", tc.at, steps, truncated, tc.steps, tc.truncated)
		}
	}
	if rec.stepped != 15 {
		t.Errorf("ObserveStep calls = %d, expected 15", rec.stepped)
	}

	t.Run("pause", func(t *testing.T) {
		now := t0.Add(2 * time.Second)
		e.SetPaused(true)
		if steps, _ := e.Frame(now, idle); steps != 0 {
			t.Errorf("paused Frame() ran %d steps", steps)
		}
		e.SetPaused(false)
		if steps, _ := e.Frame(now.Add(time.Second), idle); steps != 0 {
			t.Errorf("first Frame() after resume ran %d steps", steps)
		}
		if steps, _ := e.Frame(now.Add(time.Second+20*time.Millisecond), idle); steps != 1 {
			t.Errorf("Frame() after resume ran %d steps, expected 1", steps)
		}
	})
}

func TestDirectorWave(t *testing.T) {
	custom := wave.Config{EnemyCount: 2, SpawnInterval: 30, EnemySpeed: 1, Message: "hello"}

	t.Run("async result applied", func(t *testing.T) {
		rec := &fakeRecorder{}
		d := wave.DirectorFunc(func(ctx context.Context, n int, perf wave.Performance) (wave.Config, error) {
			return custom, nil
		})
		e := newTestEngine(t, Options{Director: d, Recorder: rec})
		if err := e.AwaitWave(context.Background()); err != nil {
			t.Fatal(err)
		}
		cfg, src, ok := e.Wave()
		if !ok || src != wave.SourceDirector || cfg.Message != "hello" {
			t.Errorf("Wave() = %+v, %v, %v", cfg, src, ok)
		}
		if got := e.store.Count(entity.KindPlatform); got != 1+len(wave.DefaultLayout()) {
			t.Errorf("platforms = %d, expected floor plus default layout", got)
		}
		if len(rec.waves) != 1 || rec.waves[0] != wave.SourceDirector {
			t.Errorf("recorded waves = %v", rec.waves)
		}
	})

	t.Run("spawner idles while pending", func(t *testing.T) {
		release := make(chan struct{})
		d := wave.DirectorFunc(func(ctx context.Context, n int, perf wave.Performance) (wave.Config, error) {
			select {
			case <-release:
				return custom, nil
			case <-ctx.Done():
				return wave.Config{}, ctx.Err()
			}
		})
		cfg := config.DefaultGameConfig()
		cfg.Director.TimeoutMs = 5000
		e := newTestEngine(t, Options{Director: d, Game: cfg})
		if !e.WavePending() {
			t.Fatal("request should be pending")
		}
		for i := 0; i < 200; i++ {
			e.Step(idle)
		}
		if e.store.Count(entity.KindEnemy) != 0 {
			t.Error("enemies spawned before the wave arrived")
		}
		close(release)
		if err := e.AwaitWave(context.Background()); err != nil {
			t.Fatal(err)
		}
		if c, _, _ := e.Wave(); c.Message != "hello" {
			t.Errorf("Wave() message = %q", c.Message)
		}
	})

	t.Run("timeout falls back", func(t *testing.T) {
		rec := &fakeRecorder{}
		d := wave.DirectorFunc(func(ctx context.Context, n int, perf wave.Performance) (wave.Config, error) {
			<-ctx.Done()
			return wave.Config{}, ctx.Err()
		})
		cfg := config.DefaultGameConfig()
		cfg.Director.TimeoutMs = 20
		e := newTestEngine(t, Options{Director: d, Game: cfg, Recorder: rec})
		if err := e.AwaitWave(context.Background()); err != nil {
			t.Fatal(err)
		}
		c, src, _ := e.Wave()
		if src != wave.SourceFallback || c.Message != wave.Fallback(1).Message {
			t.Errorf("Wave() = %+v from %v, expected fallback", c, src)
		}
		if len(rec.errs) != 1 || !errors.Is(rec.errs[0], wave.ErrTimeout) {
			t.Errorf("recorded errors = %v", rec.errs)
		}
	})

	t.Run("restart discards stale request", func(t *testing.T) {
		release := make(chan struct{})
		d := wave.DirectorFunc(func(ctx context.Context, wn int, perf wave.Performance) (wave.Config, error) {
			select {
			case <-release:
			case <-ctx.Done():
				return wave.Config{}, ctx.Err()
			}
			c := custom
			c.Message = "answer"
			return c, nil
		})
		cfg := config.DefaultGameConfig()
		cfg.Director.TimeoutMs = 5000
		log := &patchLog{}
		e := newTestEngine(t, Options{Director: d, Game: cfg, Observer: log.observe})
		e.Restart()
		close(release)
		if err := e.AwaitWave(context.Background()); err != nil {
			t.Fatal(err)
		}
		if e.State().Wave != 1 {
			t.Errorf("Wave = %d after restart, expected 1", e.State().Wave)
		}
		if c, src, _ := e.Wave(); src != wave.SourceDirector || c.Message != "answer" {
			t.Errorf("Wave() = %q from %v, expected the post-restart answer", c.Message, src)
		}
		if !log.hasMessage(MsgRebooting) {
			t.Error("restart message not emitted")
		}
	})

	t.Run("boss wave skips the director", func(t *testing.T) {
		called := false
		d := wave.DirectorFunc(func(ctx context.Context, n int, perf wave.Performance) (wave.Config, error) {
			called = true
			return custom, nil
		})
		cfg := config.DefaultGameConfig()
		cfg.Gameplay.BossWaveEvery = 1
		e := newTestEngine(t, Options{Director: d, Game: cfg})
		c, src, ok := e.Wave()
		if !ok || src != wave.SourceBoss || !c.Boss() {
			t.Errorf("Wave() = %+v, %v, %v, expected boss wave", c, src, ok)
		}
		if e.WavePending() || called {
			t.Error("director should not be consulted on boss waves")
		}
		if got := e.store.Count(entity.KindPlatform); got != 1 {
			t.Errorf("platforms = %d, expected floor only", got)
		}
	})
}

func TestCoopGhosts(t *testing.T) {
	board := &fakeBoard{}
	e := newTestEngine(t, Options{Mode: multiplayer.ModeCoop, Leaderboard: board, Identity: multiplayer.NewIdentity("duo")})
	quietWave(e)
	settle(t, e)

	p1, p2 := e.player(core.Player1), e.player(core.Player2)
	if p1 == nil || p2 == nil {
		t.Fatal("coop should spawn two players")
	}
	if p1.Pos.X == p2.Pos.X {
		t.Error("players should spawn apart")
	}

	p1.Health = 1
	e.store.NewEnemy(p1.Pos, 1, "")
	e.Step(idle)
	if !p1.Ghost || p1.Corporeal() || e.State().Phase != core.PhasePlaying {
		t.Fatalf("p1 ghost=%v phase=%v, expected ghost while p2 plays", p1.Ghost, e.State().Phase)
	}

	// Ghosts cannot shoot.
	in := core.NewMultiInputFrame()
	in.SetPlayer(core.Player1, core.InputOf(core.ActionShoot))
	e.Step(in)
	if e.store.Count(entity.KindProjectile) != 0 {
		t.Error("ghost fired a projectile")
	}

	// A cleared wave revives ghosts with one life.
	e.startWave()
	if p1.Ghost || p1.Health != 1 {
		t.Errorf("after revive ghost=%v health=%d", p1.Ghost, p1.Health)
	}
	quietWave(e)
	settle(t, e)

	for _, p := range []*entity.Entity{p1, p2} {
		p.Health = 1
		p.InvulnerableUntil = 0
		e.store.NewEnemy(p.Pos, 1, "")
	}
	e.Step(idle)
	if e.State().Phase != core.PhaseGameOver {
		t.Errorf("Phase = %v, expected GameOver once every player is a ghost", e.State().Phase)
	}
	if board.calls != 1 {
		t.Errorf("SubmitResult calls = %d, expected 1", board.calls)
	}
}

func TestMuteAndClose(t *testing.T) {
	audio := &fakeAudio{}
	log := &patchLog{}
	e := New(Options{Audio: audio, Observer: log.observe, Runtime: core.RuntimeConfig{Seed: 1}})
	e.Start()

	if !e.ToggleMute() || !audio.muted {
		t.Error("ToggleMute() should mute")
	}
	if log.count(func(p hud.Patch) bool { return p.Muted != nil && *p.Muted }) != 1 {
		t.Error("mute patch not emitted")
	}

	e.Close()
	if audio.stopped == 0 {
		t.Error("Close should stop music")
	}
	tick := e.tick
	e.Step(idle)
	if e.tick != tick {
		t.Error("Step ran after Close")
	}
}

func TestSnapshot(t *testing.T) {
	e := newTestEngine(t, Options{})
	quietWave(e)
	e.Step(idle)

	en := e.store.NewEnemy(core.V(100, 100), 1, "")
	en.MarkedForDeletion = true
	snap := e.Snapshot()

	if snap.Wave != 1 || snap.Phase != core.PhasePlaying || snap.World != core.V(800, 600) {
		t.Errorf("snapshot header = %+v", snap)
	}
	if snap.Count(entity.KindEnemy) != 0 {
		t.Error("snapshot should skip entities pending deletion")
	}
	if snap.Count(entity.KindPlayer) != 1 || snap.Count(entity.KindWall) != 2 {
		t.Errorf("players=%d walls=%d", snap.Count(entity.KindPlayer), snap.Count(entity.KindWall))
	}
	// Views are copies.
	snap.Entities[0].Bounds.X = -1
	if e.store.All()[0].Pos.X == -1 {
		t.Error("snapshot shares state with the store")
	}
}
