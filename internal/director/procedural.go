package director

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

// FastClear is the level time under which a player counts as fast.
const FastClear = 30 * time.Second

type themeSeed struct {
	name, color, lore string
}

var themes = []themeSeed{
	{"Pixel Mites", "#f43f5e", "Corrupted sprites chewing through the frame buffer."},
	{"Chrome Beetles", "#22d3ee", "Shelled scavengers polished by a thousand resets."},
	{"Static Hounds", "#a3e635", "Noise given teeth and a taste for coins."},
	{"Laser Moths", "#fb923c", "Drawn to any light, especially yours."},
	{"Cryo Drones", "#38bdf8", "Maintenance bots that forgot what they maintain."},
	{"Neon Imps", "#e879f9", "Mischief compiled at the speed of light."},
	{"Vector Wraiths", "#facc15", "Wireframe ghosts of discontinued cabinets."},
	{"Byte Golems", "#4ade80", "Eight bits of muscle and no sense of restraint."},
}

var taunts = []string{
	"Insert coin to continue.",
	"Your reflexes are being logged.",
	"The arena recalibrates.",
	"Another wave. Another chance to fail.",
	"High score protocol engaged.",
}

// Procedural generates wave configs locally from the wave number and the
// previous wave's performance. The same inputs always give the same config.
type Procedural struct {
	bounds wave.Bounds
}

// NewProcedural creates a generator whose layouts lie within bounds.
func NewProcedural(bounds wave.Bounds) *Procedural {
	return &Procedural{bounds: bounds}
}

// Generate implements wave.Director.
func (p *Procedural) Generate(ctx context.Context, waveNumber int, perf wave.Performance) (wave.Config, error) {
	if err := ctx.Err(); err != nil {
		return wave.Config{}, err
	}
	if waveNumber < 1 {
		waveNumber = 1
	}
	rng := rand.New(rand.NewSource(int64(waveNumber)*1_000_003 + int64(perf.Score)))
	fast := perf.TimeTaken > 0 && perf.TimeTaken < FastClear
	n := float64(waveNumber)

	speed := 0.5 + 0.15*n
	aggro := 0.1 + 0.1*n
	if fast {
		speed *= 1.25
		aggro += 0.2
	}

	t := themes[rng.Intn(len(themes))]
	cfg := wave.Config{
		EnemyCount:     3 + 2*waveNumber,
		SpawnInterval:  int(math.Max(30, 120-10*n)),
		EnemySpeed:     math.Round(math.Min(speed, 3)*100) / 100,
		Aggressiveness: math.Min(aggro, 1),
		SpecialEvent:   wave.EventNone,
		Message:        taunts[rng.Intn(len(taunts))],
		Theme:          &wave.Theme{Name: t.name, Color: t.color, Description: t.lore},
		Layout:         p.layout(rng),
	}
	if waveNumber%3 == 0 {
		cfg.SpecialEvent = wave.EventBlizzard
		cfg.Message = "BLIZZARD PROTOCOL ACTIVE"
	}

	out, err := wave.Sanitize(cfg, p.bounds)
	if err != nil {
		return wave.Config{}, fmt.Errorf("director: procedural wave %d: %w", waveNumber, err)
	}
	return out, nil
}

// layout places 3 to 6 platforms on rows a jump apart, bottom row first.
func (p *Procedural) layout(rng *rand.Rand) []wave.Platform {
	rows := []float64{440, 320, 200}
	count := 3 + rng.Intn(4)
	span := p.bounds.MaxX - p.bounds.MinX

	out := make([]wave.Platform, 0, count)
	for i := 0; i < count; i++ {
		row := rows[i%len(rows)]
		w := 100 + float64(rng.Intn(5))*25
		half := span / 2
		x := p.bounds.MinX + float64(i/len(rows))*half + rng.Float64()*(half-w)
		out = append(out, wave.Platform{X: math.Round(x), Y: row, W: w, H: 20})
	}
	return out
}
