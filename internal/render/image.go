package render

import (
	"fmt"
	"image"
	"io"

	"github.com/fogleman/gg"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/engine"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/entity"
)

const (
	background = "#0f172a"
	snowHex    = "#f8fafc"
)

// Image draws the snapshot at the given scale (1 = one pixel per world unit).
func Image(snap engine.Snapshot, scale float64) image.Image {
	if scale <= 0 {
		scale = 1
	}
	w := int(snap.World.X * scale)
	h := int(snap.World.Y * scale)
	dc := gg.NewContext(max(w, 1), max(h, 1))

	dc.SetHexColor(background)
	dc.Clear()

	dc.Push()
	if snap.Shake > 0 {
		off := float64(snap.Shake%5) - 2
		dc.Translate(off*scale, 0)
	}
	dc.Scale(scale, scale)
	for _, kind := range layers {
		for _, v := range snap.Entities {
			if v.Kind == kind {
				drawShape(dc, v)
			}
		}
	}
	dc.Pop()

	if snap.Blizzard {
		dc.SetRGBA(1, 1, 1, 0.6)
		for i := 0; i < 120; i++ {
			x := float64((i*97+int(snap.Tick)*3)%max(w, 1)) + 0.5
			y := float64((i*53+int(snap.Tick)*5)%max(h, 1)) + 0.5
			dc.DrawCircle(x, y, 1.5*scale)
		}
		dc.Fill()
	}
	return dc.Image()
}

func drawShape(dc *gg.Context, v engine.EntityView) {
	b := v.Bounds
	switch v.Kind {
	case entity.KindPlayer:
		if v.Ghost {
			dc.SetRGBA(0.58, 0.64, 0.72, 0.5)
		} else if v.Invulnerable {
			dc.SetRGBA(1, 1, 1, 0.6)
		} else {
			dc.SetHexColor(v.Color)
		}
		dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, 6)
		dc.Fill()
		eyeX := b.X + b.W*0.7
		if v.Facing < 0 {
			eyeX = b.X + b.W*0.3
		}
		dc.SetHexColor(snowHex)
		dc.DrawCircle(eyeX, b.Y+b.H*0.35, 3)
		dc.Fill()
	case entity.KindSnowball:
		dc.SetHexColor(snowHex)
		dc.DrawCircle(b.Center().X, b.Center().Y, b.W/2)
		dc.Fill()
	case entity.KindEnemy:
		if v.EnemyState == entity.EnemyStunned {
			dc.SetHexColor(entity.ColorEnemyStunned)
		} else {
			dc.SetHexColor(v.Color)
		}
		dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, 4)
		dc.Fill()
		if v.FreezeLevel > 0 {
			// Snow builds up from the feet.
			fill := b.H * v.FreezeLevel / 100
			dc.SetRGBA(1, 1, 1, 0.8)
			dc.DrawRectangle(b.X, b.Bottom()-fill, b.W, fill)
			dc.Fill()
		}
	case entity.KindBoss:
		dc.SetHexColor(v.Color)
		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		dc.Fill()
		if v.MaxHealth > 0 {
			dc.SetHexColor("#111827")
			dc.DrawRectangle(b.X, b.Y-10, b.W, 5)
			dc.Fill()
			dc.SetHexColor("#ef4444")
			dc.DrawRectangle(b.X, b.Y-10, b.W*float64(v.Health)/float64(v.MaxHealth), 5)
			dc.Fill()
		}
	case entity.KindProjectile:
		dc.SetHexColor(v.Color)
		dc.DrawCircle(b.Center().X, b.Center().Y, b.W/2)
		dc.Fill()
	case entity.KindParticle:
		dc.SetHexColor(v.Color)
		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		dc.Fill()
	default:
		dc.SetHexColor(v.Color)
		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		dc.Fill()
	}
}

// EncodePNG writes the snapshot as a PNG image.
func EncodePNG(w io.Writer, snap engine.Snapshot, scale float64) error {
	dc := gg.NewContextForImage(Image(snap, scale))
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("render: cannot encode png: %w", err)
	}
	return nil
}

// SavePNG writes the snapshot to a PNG file.
func SavePNG(path string, snap engine.Snapshot, scale float64) error {
	if err := gg.SavePNG(path, Image(snap, scale)); err != nil {
		return fmt.Errorf("render: cannot save %s: %w", path, err)
	}
	return nil
}
