package engine

import (
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/entity"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/multiplayer"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

// initWorld rebuilds the arena shell: floor, side walls and the players.
func (e *Engine) initWorld() {
	e.store.Reset()
	w := e.cfg.World
	floorY := w.FloorY()

	e.floor = e.store.NewPlatform(core.NewRect(0, floorY, w.Width, w.FloorHeight))
	e.store.NewWall(core.NewRect(0, 0, w.WallThickness, floorY))
	e.store.NewWall(core.NewRect(w.Width-w.WallThickness, 0, w.WallThickness, floorY))

	for _, id := range e.opts.Mode.Players() {
		e.store.NewPlayer(id, e.spawnPoint(id))
	}
}

// spawnPoint returns where a player starts a wave.
func (e *Engine) spawnPoint(id core.PlayerID) core.Vec2 {
	w := e.cfg.World
	y := w.Height - 100
	if !e.coop() {
		return core.V(w.Width/2, y)
	}
	if id == multiplayer.Player2 {
		return core.V(w.Width/2+16, y)
	}
	return core.V(w.Width/2-48, y)
}

// applyLayout swaps the floating platforms for the wave's layout. The floor
// and walls stay. Replaced platforms are marked and dropped at the end of the
// step; physics already ignores them.
func (e *Engine) applyLayout(cfg wave.Config) {
	for _, obj := range e.store.ByType(entity.KindPlatform) {
		if obj != e.floor {
			obj.MarkedForDeletion = true
		}
	}

	layout := cfg.Layout
	if layout == nil && !cfg.Boss() {
		layout = wave.DefaultLayout()
	}
	for _, p := range layout {
		e.store.NewPlatform(p.Rect())
	}

	for _, p := range e.store.ByType(entity.KindPlayer) {
		if !p.Alive() {
			continue
		}
		p.Pos = e.spawnPoint(p.Owner)
		p.Vel = core.Vec2{}
		p.Grounded = false
	}
}

// players returns the live player bodies, ghosts included.
func (e *Engine) players() []*entity.Entity {
	var out []*entity.Entity
	for _, p := range e.store.ByType(entity.KindPlayer) {
		if p.Alive() && p.Kind == entity.KindPlayer {
			out = append(out, p)
		}
	}
	return out
}

// player returns the body owned by id, or nil.
func (e *Engine) player(id core.PlayerID) *entity.Entity {
	for _, p := range e.players() {
		if p.Owner == id {
			return p
		}
	}
	return nil
}

// lives returns the remaining health across all players.
func (e *Engine) lives() int {
	n := 0
	for _, p := range e.players() {
		n += p.Health
	}
	return n
}

// reviveGhosts brings defeated coop players back with one life.
func (e *Engine) reviveGhosts() {
	for _, p := range e.players() {
		if !p.Ghost {
			continue
		}
		p.Ghost = false
		p.Health = 1
		p.Color = playerColor(p.Owner)
		p.Pos = e.spawnPoint(p.Owner)
		p.Vel = core.Vec2{}
		p.InvulnerableUntil = e.simTime + e.cfg.Player.Invulnerability()
		e.log.Info("player revived", "player", p.Owner)
	}
}

func playerColor(id core.PlayerID) string {
	if id == multiplayer.Player2 {
		return entity.ColorPlayer2
	}
	return entity.ColorPlayer1
}

// target picks the corporeal player closest to from, or nil.
func (e *Engine) target(from core.Vec2) *entity.Entity {
	var best *entity.Entity
	bestDist := 0.0
	for _, p := range e.players() {
		if !p.Corporeal() {
			continue
		}
		d := core.Dist(from, p.Center())
		if best == nil || d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}
