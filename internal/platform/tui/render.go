package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
)

// colorStyles maps each palette colour to a style using its hex value.
// lipgloss degrades the hex to whatever the terminal supports.
var colorStyles = func() map[core.Color]lipgloss.Style {
	m := make(map[core.Color]lipgloss.Style, int(core.ColorGray)+1)
	m[core.ColorDefault] = lipgloss.NewStyle()
	for c := core.ColorRed; c <= core.ColorGray; c++ {
		m[c] = lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex()))
	}
	return m
}()

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	var run strings.Builder
	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			startColor := s.GetCell(x, y).Color

			run.Reset()
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}
