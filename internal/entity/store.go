package entity

import (
	"math"
	"math/rand"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/config"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
)

// Store owns every live entity, a per-kind index, the static map list and the
// projectile and particle pools. It is not safe for concurrent use.
type Store struct {
	cfg    config.GameConfig
	nextID uint64

	entities   []*Entity
	byType     [kindCount][]*Entity
	mapObjects []*Entity

	projectiles []*Entity
	particles   []*Entity
}

// NewStore creates an empty store with preallocated pools.
func NewStore(cfg config.GameConfig) *Store {
	s := &Store{cfg: cfg}
	s.projectiles = preallocate(cfg.Gameplay.ProjectilePool, KindProjectile)
	s.particles = preallocate(cfg.Gameplay.ParticlePool, KindParticle)
	return s
}

func preallocate(n int, kind Kind) []*Entity {
	pool := make([]*Entity, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, &Entity{Kind: kind, MarkedForDeletion: true})
	}
	return pool
}

// Add appends an entity to the live list and indexes it.
func (s *Store) Add(e *Entity) *Entity {
	if e.ID == 0 {
		e.ID = s.newID()
	}
	e.inStore = true
	s.entities = append(s.entities, e)
	s.index(e)
	return e
}

func (s *Store) index(e *Entity) {
	s.byType[e.Kind] = append(s.byType[e.Kind], e)
	if e.Kind.Solid() {
		s.mapObjects = append(s.mapObjects, e)
	}
}

func (s *Store) newID() uint64 {
	s.nextID++
	return s.nextID
}

// All returns the live list in insertion order. Callers must not modify it.
func (s *Store) All() []*Entity {
	return s.entities
}

// ByType returns entities of a kind as of the last rebuild plus later adds.
// The slice may include entities already marked for deletion.
func (s *Store) ByType(kind Kind) []*Entity {
	if kind < 0 || kind >= kindCount {
		return nil
	}
	return s.byType[kind]
}

// MapObjects returns platforms and walls in storage order.
func (s *Store) MapObjects() []*Entity {
	return s.mapObjects
}

// Count returns how many entities of a kind are not marked for deletion.
func (s *Store) Count(kind Kind) int {
	n := 0
	for _, e := range s.ByType(kind) {
		if e.Alive() && e.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the size of the live list, including entities pending deletion.
func (s *Store) Len() int {
	return len(s.entities)
}

// Cleanup drops entities marked for deletion and rebuilds the indexes from
// the survivors. Dropped pooled entities become available for reuse.
func (s *Store) Cleanup() {
	kept := s.entities[:0]
	for _, e := range s.entities {
		if e.MarkedForDeletion {
			e.inStore = false
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(s.entities); i++ {
		s.entities[i] = nil
	}
	s.entities = kept
	s.rebuild()
}

func (s *Store) rebuild() {
	for k := range s.byType {
		s.byType[k] = nil
	}
	s.mapObjects = nil
	for _, e := range s.entities {
		s.index(e)
	}
}

// Reset removes every entity. Pools keep their capacity.
func (s *Store) Reset() {
	for _, e := range s.entities {
		e.inStore = false
		e.MarkedForDeletion = true
	}
	s.entities = nil
	s.rebuild()
}

// PoolSize returns the number of projectile and particle instances ever fabricated.
func (s *Store) PoolSize() (projectiles, particles int) {
	return len(s.projectiles), len(s.particles)
}

// acquire returns the first free pool instance or grows the pool.
func (s *Store) acquire(pool *[]*Entity, kind Kind) *Entity {
	for _, e := range *pool {
		if e.MarkedForDeletion && !e.inStore {
			*e = Entity{Kind: kind}
			e.ID = s.newID()
			return e
		}
	}
	e := &Entity{Kind: kind, ID: s.newID()}
	*pool = append(*pool, e)
	return e
}

// SpawnProjectile takes a projectile from the pool and adds it to the live list.
func (s *Store) SpawnProjectile(pos, vel core.Vec2, ttl int) *Entity {
	e := s.acquire(&s.projectiles, KindProjectile)
	size := s.cfg.Gameplay.ProjectileSize
	e.Pos = pos
	e.Vel = vel
	e.Size = core.V(size, size)
	e.TTL = ttl
	e.Facing = core.Sign(vel.X)
	e.Color = ColorProjectile
	return s.Add(e)
}

// SpawnParticle takes a particle from the pool and adds it to the live list.
func (s *Store) SpawnParticle(pos, vel core.Vec2, ttl int, color string) *Entity {
	e := s.acquire(&s.particles, KindParticle)
	e.Pos = pos
	e.Vel = vel
	e.Size = core.V(4, 4)
	e.TTL = ttl
	e.Color = color
	return s.Add(e)
}

// SpawnParticleBurst emits n particles radiating from center.
func (s *Store) SpawnParticleBurst(center core.Vec2, n int, color string, rng *rand.Rand) {
	for i := 0; i < n; i++ {
		angle := rng.Float64() * 2 * math.Pi
		speed := 1 + rng.Float64()*3
		vel := core.V(math.Cos(angle)*speed, math.Sin(angle)*speed)
		s.SpawnParticle(center, vel, 20+rng.Intn(20), color)
	}
}

// NewPlayer creates and adds a player body.
func (s *Store) NewPlayer(owner core.PlayerID, pos core.Vec2) *Entity {
	color := ColorPlayer1
	if owner == core.Player2 {
		color = ColorPlayer2
	}
	return s.Add(&Entity{
		Kind:          KindPlayer,
		Owner:         owner,
		Pos:           pos,
		Size:          core.V(s.cfg.Player.Width, s.cfg.Player.Height),
		Facing:        1,
		Health:        s.cfg.Player.Lives,
		MaxHealth:     s.cfg.Player.Lives,
		MoveSpeedMult: 1,
		FireRateMult:  1,
		RangeMult:     1,
		Color:         color,
	})
}

// NewEnemy creates and adds a walking minion.
func (s *Store) NewEnemy(pos core.Vec2, facing float64, color string) *Entity {
	if color == "" {
		color = ColorEnemy
	}
	return s.Add(&Entity{
		Kind:       KindEnemy,
		Pos:        pos,
		Size:       core.V(s.cfg.Gameplay.EnemyWidth, s.cfg.Gameplay.EnemyHeight),
		Facing:     facing,
		EnemyState: EnemyWalking,
		Color:      color,
	})
}

// NewBoss creates and adds the boss in its spawn state.
func (s *Store) NewBoss(pos core.Vec2) *Entity {
	return s.Add(&Entity{
		Kind:           KindBoss,
		Pos:            pos,
		Size:           core.V(s.cfg.Boss.Width, s.cfg.Boss.Height),
		Facing:         1,
		Health:         s.cfg.Boss.Health,
		MaxHealth:      s.cfg.Boss.Health,
		BossState:      BossSpawn,
		AttackCooldown: 100,
		Color:          ColorBoss,
	})
}

// NewPlatform creates and adds a one-way platform.
func (s *Store) NewPlatform(r core.Rect) *Entity {
	return s.Add(&Entity{
		Kind:  KindPlatform,
		Pos:   core.V(r.X, r.Y),
		Size:  core.V(r.W, r.H),
		Color: ColorPlatform,
	})
}

// NewWall creates and adds a solid wall.
func (s *Store) NewWall(r core.Rect) *Entity {
	return s.Add(&Entity{
		Kind:  KindWall,
		Pos:   core.V(r.X, r.Y),
		Size:  core.V(r.W, r.H),
		Color: ColorWall,
	})
}

// NewPowerUp creates and adds a pickup.
func (s *Store) NewPowerUp(pos core.Vec2, kind PowerUpKind) *Entity {
	size := s.cfg.Gameplay.PowerUpSize
	return s.Add(&Entity{
		Kind:    KindPowerUp,
		Pos:     pos,
		Size:    core.V(size, size),
		PowerUp: kind,
		Color:   PowerUpColor(kind),
	})
}

// TransformToSnowball turns an enemy into a stationary snowball in place.
// The entity keeps its identity and storage slot.
func (s *Store) TransformToSnowball(e *Entity) {
	if e.Kind != KindEnemy {
		return
	}
	e.Kind = KindSnowball
	e.FreezeLevel = 100
	e.Vel.X = 0
	e.Rolling = false
	e.EnemyState = EnemyFrozen
	e.Color = ColorSnowball

	enemies := make([]*Entity, 0, len(s.byType[KindEnemy]))
	for _, other := range s.byType[KindEnemy] {
		if other != e {
			enemies = append(enemies, other)
		}
	}
	s.byType[KindEnemy] = enemies
	s.byType[KindSnowball] = append(s.byType[KindSnowball], e)
}
