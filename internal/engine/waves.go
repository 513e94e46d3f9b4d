package engine

import (
	"context"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/hud"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/sound"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

// startWave advances to the next wave and obtains its config. Boss waves and
// runs without a director are configured immediately; otherwise the director
// is raced against the timeout in the background and the spawner idles until
// the result is applied.
func (e *Engine) startWave() {
	e.wave++
	e.levelComplete = false
	e.waveCfg = nil
	e.wind = 0
	e.reviveGhosts()
	e.emit(hud.Patch{Wave: hud.Ptr(e.wave), Message: hud.Ptr(MsgContacting)})

	n := e.wave
	if wave.IsBossWave(n, e.cfg.Gameplay.BossWaveEvery) {
		e.applyWave(wave.Result{Wave: n, Config: wave.BossWave(), Source: wave.SourceBoss})
		return
	}
	if e.opts.Director == nil {
		e.applyWave(wave.Result{Wave: n, Config: wave.Fallback(n), Source: wave.SourceFallback})
		return
	}

	perf := wave.Performance{
		Score:     e.score,
		TimeTaken: e.simTime - e.waveStartedAt,
		Lives:     e.lives(),
	}
	ctx, cancel := context.WithCancel(e.ctx)
	e.reqCancel = cancel
	e.requesting = true
	gen := e.gen
	director := e.opts.Director
	timeout := e.cfg.Director.Timeout()
	go func() {
		defer cancel()
		res := wave.Race(ctx, director, n, perf, timeout)
		select {
		case e.pending <- waveResult{gen: gen, res: res}:
		case <-e.ctx.Done():
		}
	}()
}

// pollWave applies a wave result if one has arrived. Results from an
// abandoned request are dropped.
func (e *Engine) pollWave() {
	for {
		select {
		case r := <-e.pending:
			if r.gen != e.gen || !e.requesting {
				continue
			}
			e.requesting = false
			e.reqCancel = nil
			e.applyWave(r.res)
		default:
			return
		}
	}
}

// WavePending reports whether a director request is in flight.
func (e *Engine) WavePending() bool {
	return e.requesting
}

// AwaitWave blocks until the current wave request settles and applies it.
// It returns immediately when no request is in flight.
func (e *Engine) AwaitWave(ctx context.Context) error {
	for e.requesting {
		select {
		case r := <-e.pending:
			if r.gen != e.gen {
				continue
			}
			e.requesting = false
			e.reqCancel = nil
			e.applyWave(r.res)
		case <-ctx.Done():
			return ctx.Err()
		case <-e.ctx.Done():
			return ErrClosed
		}
	}
	return nil
}

// applyWave installs a wave config: arena layout, spawner state and HUD.
func (e *Engine) applyWave(res wave.Result) {
	cfg := res.Config.Clone()
	e.waveCfg = &cfg
	e.waveSource = res.Source
	e.waveStartedAt = e.simTime
	e.spawned = 0
	e.spawnTimer = 0
	e.levelComplete = false
	e.blizzard = cfg.Blizzard()

	e.spawnInterval = cfg.SpawnInterval

	e.applyLayout(cfg)

	if cfg.Boss() {
		e.audio.PlayTrack(sound.TrackBoss)
	} else {
		e.audio.PlayTrack(sound.TrackGame)
	}

	e.emit(hud.Patch{
		Wave:     hud.Ptr(e.wave),
		Score:    hud.Ptr(e.score),
		Lives:    hud.Ptr(e.lives()),
		Message:  hud.Ptr(cfg.Message),
		Blizzard: hud.Ptr(e.blizzard),
		Theme:    cfg.Theme,
	})
	e.opts.Recorder.ObserveWave(e.wave, res.Source, res.Err)

	if res.Err != nil {
		e.log.Warn("director failed, using fallback", "wave", e.wave, "err", res.Err)
	}
	e.log.Info("wave started",
		"wave", e.wave,
		"source", res.Source,
		"enemies", cfg.EnemyCount,
		"interval", e.spawnInterval,
		"event", cfg.SpecialEvent,
	)
}

// Wave returns the config of the current wave, or false while it is pending.
func (e *Engine) Wave() (wave.Config, wave.Source, bool) {
	if e.waveCfg == nil {
		return wave.Config{}, "", false
	}
	return e.waveCfg.Clone(), e.waveSource, true
}
