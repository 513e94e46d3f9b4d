// Package render draws engine snapshots to terminal cell buffers and images.
package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/engine"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/entity"
)

// Draw order, back to front.
var layers = []entity.Kind{
	entity.KindPlatform,
	entity.KindWall,
	entity.KindPowerUp,
	entity.KindSnowball,
	entity.KindEnemy,
	entity.KindBoss,
	entity.KindPlayer,
	entity.KindProjectile,
	entity.KindParticle,
}

// Terminal scales the world onto a character grid.
type Terminal struct {
	palette map[string]core.Color
}

// NewTerminal creates a terminal renderer.
func NewTerminal() *Terminal {
	return &Terminal{palette: make(map[string]core.Color)}
}

// Draw clears scr and draws the snapshot scaled to fill it.
func (t *Terminal) Draw(scr *core.Screen, snap engine.Snapshot) {
	scr.Clear()
	if snap.World.X <= 0 || snap.World.Y <= 0 || scr.Width() == 0 || scr.Height() == 0 {
		return
	}
	sx := float64(scr.Width()) / snap.World.X
	sy := float64(scr.Height()) / snap.World.Y

	// Shake nudges everything sideways by one cell on alternate ticks.
	dx := 0
	if snap.Shake > 0 && snap.Tick%2 == 1 {
		dx = 1
	}

	for _, kind := range layers {
		for _, v := range snap.Entities {
			if v.Kind != kind {
				continue
			}
			if v.Kind == entity.KindPlayer && v.Invulnerable && (snap.Tick/6)%2 == 1 {
				continue
			}
			x0, y0, w, h := cells(v.Bounds, sx, sy)
			t.drawEntity(scr, v, x0+dx, y0, w, h)
		}
	}

	if snap.Blizzard {
		drawSnow(scr, snap.Tick)
	}
}

// cells converts a world rectangle to a cell rectangle of at least 1x1.
func cells(r core.Rect, sx, sy float64) (x, y, w, h int) {
	x = int(math.Floor(r.X * sx))
	y = int(math.Floor(r.Y * sy))
	w = max(1, int(math.Ceil(r.Right()*sx))-x)
	h = max(1, int(math.Ceil(r.Bottom()*sy))-y)
	return x, y, w, h
}

func (t *Terminal) drawEntity(scr *core.Screen, v engine.EntityView, x, y, w, h int) {
	c := t.color(v.Color)
	switch v.Kind {
	case entity.KindWall:
		scr.DrawRect(x, y, w, h, '█', core.ColorGray)
	case entity.KindPlatform:
		scr.DrawRect(x, y, w, 1, '▀', core.ColorBlue)
	case entity.KindPlayer:
		r := '@'
		if v.Ghost {
			r = '%'
			c = core.ColorGray
		}
		scr.DrawRect(x, y, w, h, r, c)
		eye := x + w - 1
		if v.Facing < 0 {
			eye = x
		}
		scr.SetColored(eye, y, 'o', core.ColorBrightWhite)
	case entity.KindEnemy:
		r := 'M'
		if v.EnemyState == entity.EnemyStunned {
			r = 'm'
			c = t.color(entity.ColorEnemyStunned)
		}
		scr.DrawRect(x, y, w, h, r, c)
	case entity.KindSnowball:
		r := '●'
		if v.Rolling {
			r = '○'
		}
		scr.DrawRect(x, y, w, h, r, core.ColorBrightWhite)
	case entity.KindBoss:
		scr.DrawRect(x, y, w, h, '▓', c)
		scr.DrawTextColored(x+(w-1)/2, y, "B", core.ColorBrightWhite)
	case entity.KindProjectile:
		scr.SetColored(x, y, '*', core.ColorBrightCyan)
	case entity.KindParticle:
		scr.SetColored(x, y, '.', c)
	case entity.KindPowerUp:
		scr.DrawRect(x, y, w, h, ' ', c)
		scr.SetColored(x+w/2, y+h/2, v.PowerUp.Glyph(), c)
	}
}

func drawSnow(scr *core.Screen, tick uint64) {
	w, h := scr.Width(), scr.Height()
	for i := 0; i < w*h/40; i++ {
		// Flakes drift down one row every 4 ticks.
		x := (i*37 + int(tick/8)) % w
		y := (i*11 + int(tick/4)) % h
		if scr.Get(x, y) == ' ' {
			scr.SetColored(x, y, '·', core.ColorBrightWhite)
		}
	}
}

// color maps an entity's hex colour to the closest terminal colour.
func (t *Terminal) color(hex string) core.Color {
	if c, ok := t.palette[hex]; ok {
		return c
	}
	c := Nearest(hex)
	t.palette[hex] = c
	return c
}

// Nearest returns the palette colour closest to a #rrggbb value, or
// ColorDefault if hex cannot be parsed.
func Nearest(hex string) core.Color {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return core.ColorDefault
	}
	best, bestDist := core.ColorDefault, math.MaxFloat64
	for c := core.ColorRed; c <= core.ColorGray; c++ {
		cr, cg, cb, _ := parseHex(c.Hex())
		d := sq(r-cr) + sq(g-cg) + sq(b-cb)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func sq(v float64) float64 { return v * v }

func parseHex(hex string) (r, g, b float64, ok bool) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return float64(n >> 16 & 0xff), float64(n >> 8 & 0xff), float64(n & 0xff), true
}
