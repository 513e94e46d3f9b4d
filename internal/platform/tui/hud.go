package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/hud"
)

const bossBarWidth = 20

var (
	barStyle     = lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("252"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	livesStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	bossStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	stormStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	messageStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("6"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	alertStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// renderHUD draws the overlay as a single line of the given width.
func renderHUD(s hud.State, width int) string {
	parts := []string{
		labelStyle.Render("SCORE ") + valueStyle.Render(fmt.Sprintf("%06d", s.Score)),
		labelStyle.Render("WAVE ") + valueStyle.Render(fmt.Sprint(s.Wave)),
		labelStyle.Render("LIVES ") + livesStyle.Render(lives(s.Lives)),
	}
	if s.Theme != nil && s.Theme.Name != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color(s.Theme.Color)).Render(s.Theme.Name))
	}
	if s.Boss != nil {
		parts = append(parts, bossStyle.Render("BOSS "+bossBar(s.Boss.Health, s.Boss.Max, bossBarWidth)))
	}
	if s.Blizzard {
		parts = append(parts, stormStyle.Render("BLIZZARD"))
	}
	if s.Muted {
		parts = append(parts, labelStyle.Render("MUTED"))
	}
	if s.Message != "" {
		parts = append(parts, messageStyle.Render(s.Message))
	}

	return barStyle.Width(width).MaxHeight(1).Render(strings.Join(parts, "  "))
}

// lives renders one heart per remaining life.
func lives(n int) string {
	if n <= 0 {
		return "-"
	}
	return strings.Repeat("♥", n)
}

// bossBar renders health as a bar of width cells followed by the numbers.
func bossBar(health, maxHealth, width int) string {
	if maxHealth <= 0 {
		return ""
	}
	filled := width * health / maxHealth
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled) +
		fmt.Sprintf(" %d/%d", health, maxHealth)
}
