package core

// Color represents a foreground color for a screen cell.
// Uses ANSI 16-color codes for terminal compatibility.
type Color uint8

// Palette used by the renderers.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
	ColorOrange
	ColorGray
)

var colorHex = map[Color]string{
	ColorDefault:       "#e5e7eb",
	ColorRed:           "#ef4444",
	ColorGreen:         "#22c55e",
	ColorYellow:        "#eab308",
	ColorBlue:          "#3b82f6",
	ColorMagenta:       "#a855f7",
	ColorCyan:          "#06b6d4",
	ColorWhite:         "#f8fafc",
	ColorBrightRed:     "#f87171",
	ColorBrightGreen:   "#4ade80",
	ColorBrightYellow:  "#facc15",
	ColorBrightBlue:    "#60a5fa",
	ColorBrightMagenta: "#c084fc",
	ColorBrightCyan:    "#a5f3fc",
	ColorBrightWhite:   "#ffffff",
	ColorOrange:        "#f97316",
	ColorGray:          "#64748b",
}

// Hex returns the #rrggbb value used when the colour is drawn to an image.
func (c Color) Hex() string {
	if h, ok := colorHex[c]; ok {
		return h
	}
	return colorHex[ColorDefault]
}
