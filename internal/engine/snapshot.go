package engine

import (
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/entity"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/multiplayer"
)

// EntityView is a read-only copy of one entity for renderers.
type EntityView struct {
	ID           uint64
	Kind         entity.Kind
	Bounds       core.Rect
	Facing       float64
	Color        string
	Owner        core.PlayerID
	Health       int
	MaxHealth    int
	Invulnerable bool
	Ghost        bool
	FreezeLevel  float64
	EnemyState   entity.EnemyState
	Rolling      bool
	BossState    entity.BossState
	PowerUp      entity.PowerUpKind
	TTL          int
}

// Snapshot is the world as of the last completed step.
type Snapshot struct {
	Tick     uint64
	Phase    core.Phase
	Paused   bool
	Score    int
	Wave     int
	Lives    int
	World    core.Vec2
	Blizzard bool
	Shake    int
	Entities []EntityView
}

// Snapshot copies the live entities in storage order.
func (e *Engine) Snapshot() Snapshot {
	all := e.store.All()
	s := Snapshot{
		Tick:     e.tick,
		Phase:    e.phase,
		Paused:   e.paused,
		Score:    e.score,
		Wave:     e.wave,
		Lives:    e.lives(),
		World:    core.V(e.cfg.World.Width, e.cfg.World.Height),
		Blizzard: e.blizzard,
		Shake:    e.shake,
		Entities: make([]EntityView, 0, len(all)),
	}
	for _, ent := range all {
		if !ent.Alive() {
			continue
		}
		s.Entities = append(s.Entities, EntityView{
			ID:           ent.ID,
			Kind:         ent.Kind,
			Bounds:       ent.Bounds(),
			Facing:       ent.Facing,
			Color:        ent.Color,
			Owner:        ent.Owner,
			Health:       ent.Health,
			MaxHealth:    ent.MaxHealth,
			Invulnerable: ent.Kind == entity.KindPlayer && ent.Invulnerable(e.simTime),
			Ghost:        ent.Ghost,
			FreezeLevel:  ent.FreezeLevel,
			EnemyState:   ent.EnemyState,
			Rolling:      ent.Rolling,
			BossState:    ent.BossState,
			PowerUp:      ent.PowerUp,
			TTL:          ent.TTL,
		})
	}
	return s
}

// Count returns how many views of a kind the snapshot holds.
func (s Snapshot) Count(kind entity.Kind) int {
	n := 0
	for _, v := range s.Entities {
		if v.Kind == kind {
			n++
		}
	}
	return n
}

// View describes the world from one player's point of view, for input
// sources standing in for a remote partner.
func (e *Engine) View(id core.PlayerID) multiplayer.View {
	var v multiplayer.View
	if p := e.player(id); p != nil {
		v.Self = bodyOf(p)
	}
	leader := multiplayer.Player1
	if id == multiplayer.Player1 {
		leader = multiplayer.Player2
	}
	if p := e.player(leader); p != nil {
		v.Leader = bodyOf(p)
	}
	for _, en := range e.store.ByType(entity.KindEnemy) {
		if en.Alive() && en.Kind == entity.KindEnemy && en.EnemyState != entity.EnemyFrozen {
			v.Threats = append(v.Threats, en.Center())
		}
	}
	for _, b := range e.store.ByType(entity.KindBoss) {
		if b.Alive() && b.BossState.Hostile() {
			v.Threats = append(v.Threats, b.Center())
		}
	}
	for _, s := range e.store.ByType(entity.KindSnowball) {
		if s.Alive() && s.Kind == entity.KindSnowball && !s.Rolling {
			v.Targets = append(v.Targets, s.Center())
		}
	}
	return v
}

func bodyOf(p *entity.Entity) multiplayer.Body {
	return multiplayer.Body{
		Pos:      p.Pos,
		Size:     p.Size,
		Facing:   p.Facing,
		Grounded: p.Grounded,
		Ghost:    p.Ghost,
		Present:  true,
	}
}
