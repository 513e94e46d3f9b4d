// Package wave defines wave configurations, the director contract that
// proposes them, and the built-in fallback table.
package wave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
)

// SpecialEvent modifies how a wave plays.
type SpecialEvent string

const (
	EventNone     SpecialEvent = "NONE"
	EventBlizzard SpecialEvent = "BLIZZARD"
	EventBoss     SpecialEvent = "BOSS"
)

// Theme is the visual identity of a wave's enemies.
type Theme struct {
	Name        string `json:"name" jsonschema:"description=Short enemy name"`
	Color       string `json:"color" jsonschema:"description=Hex color code,pattern=^#[0-9a-fA-F]{6}$"`
	Description string `json:"description" jsonschema:"description=One sentence of lore"`
}

// Platform is a one-way platform rectangle in world units.
type Platform struct {
	X float64 `json:"x" jsonschema:"required"`
	Y float64 `json:"y" jsonschema:"required"`
	W float64 `json:"w" jsonschema:"required"`
	H float64 `json:"h" jsonschema:"required"`
}

// Rect converts the platform to a world rectangle.
func (p Platform) Rect() core.Rect {
	return core.NewRect(p.X, p.Y, p.W, p.H)
}

// Config describes one wave. It is immutable once applied.
type Config struct {
	EnemyCount     int          `json:"enemyCount" jsonschema:"required,minimum=1,maximum=30"`
	SpawnInterval  int          `json:"spawnInterval" jsonschema:"required,minimum=1,description=Frames between spawns (60 = 1s)"`
	EnemySpeed     float64      `json:"enemySpeed" jsonschema:"required"`
	Aggressiveness float64      `json:"aggressiveness" jsonschema:"required,maximum=1"`
	SpecialEvent   SpecialEvent `json:"specialEvent,omitempty" jsonschema:"enum=NONE,enum=BLIZZARD"`
	Message        string       `json:"message" jsonschema:"required,description=Short retro arcade taunt"`
	Theme          *Theme       `json:"enemyTheme,omitempty"`
	Layout         []Platform   `json:"layout,omitempty" jsonschema:"description=List of platform rectangles"`
}

// Blizzard reports whether the wave runs the blizzard event.
func (c Config) Blizzard() bool {
	return c.SpecialEvent == EventBlizzard
}

// Boss reports whether the wave is a boss encounter.
func (c Config) Boss() bool {
	return c.SpecialEvent == EventBoss
}

// Clone returns a copy that shares no slices or pointers with c.
func (c Config) Clone() Config {
	out := c
	if c.Theme != nil {
		t := *c.Theme
		out.Theme = &t
	}
	if c.Layout != nil {
		out.Layout = append([]Platform(nil), c.Layout...)
	}
	return out
}

// Performance summarises how the previous wave went.
type Performance struct {
	Score     int
	TimeTaken time.Duration
	Lives     int
}

// Director proposes the configuration for a wave.
type Director interface {
	Generate(ctx context.Context, waveNumber int, perf Performance) (Config, error)
}

// DirectorFunc adapts a function to the Director interface.
type DirectorFunc func(ctx context.Context, waveNumber int, perf Performance) (Config, error)

// Generate calls f.
func (f DirectorFunc) Generate(ctx context.Context, waveNumber int, perf Performance) (Config, error) {
	return f(ctx, waveNumber, perf)
}

// ErrInvalid marks a configuration that cannot be played.
var ErrInvalid = errors.New("wave: invalid config")

// Bounds is the band in which generated platforms must lie.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinW, MaxW float64
}

// DefaultBounds returns the playable band for a world of the given size.
func DefaultBounds(worldW, worldH float64) Bounds {
	return Bounds{
		MinX: 50,
		MaxX: worldW - 50,
		MinY: 150,
		MaxY: worldH - 100,
		MinW: 40,
		MaxW: 400,
	}
}

// MaxPlatforms caps the number of generated platforms kept from a layout.
const MaxPlatforms = 8

// Sanitize rejects unplayable configs and clamps soft fields into range.
func Sanitize(c Config, b Bounds) (Config, error) {
	if c.EnemyCount < 1 {
		return c, fmt.Errorf("%w: enemyCount %d", ErrInvalid, c.EnemyCount)
	}
	if c.SpawnInterval < 1 {
		return c, fmt.Errorf("%w: spawnInterval %d", ErrInvalid, c.SpawnInterval)
	}
	if c.EnemySpeed <= 0 {
		return c, fmt.Errorf("%w: enemySpeed %v", ErrInvalid, c.EnemySpeed)
	}
	switch c.SpecialEvent {
	case "", EventNone:
		c.SpecialEvent = EventNone
	case EventBlizzard:
	default:
		return c, fmt.Errorf("%w: specialEvent %q", ErrInvalid, c.SpecialEvent)
	}

	out := c.Clone()
	out.Aggressiveness = core.ClampF(out.Aggressiveness, 0, 1)
	if out.EnemyCount > 30 {
		out.EnemyCount = 30
	}

	if len(out.Layout) > MaxPlatforms {
		out.Layout = out.Layout[:MaxPlatforms]
	}
	for i, p := range out.Layout {
		if p.H <= 0 {
			p.H = 20
		}
		p.W = core.ClampF(p.W, b.MinW, b.MaxW)
		p.X = core.ClampF(p.X, b.MinX, b.MaxX-p.W)
		p.Y = core.ClampF(p.Y, b.MinY, b.MaxY)
		out.Layout[i] = p
	}
	return out, nil
}
