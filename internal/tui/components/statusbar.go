package components

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/garage/internal/tui/theme"
)

// StatusInfo is the state summarized in the bottom bar.
type StatusInfo struct {
	Vehicle    string
	Backend    string
	LoadedAt   string // "15:04" of the last successful load
	Refreshing bool
	Coercions  int    // rows recovered with defaults on the last load
	Flash      string // transient message, e.g. "fuel record saved"
	FlashErr   bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	flashStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface).Bold(true)

	left := mutedStyle.Render(" ") +
		keyStyle.Render("[?]") + mutedStyle.Render("help ") +
		keyStyle.Render("[a]") + mutedStyle.Render("dd ") +
		keyStyle.Render("[r]") + mutedStyle.Render("efresh ") +
		keyStyle.Render("[q]") + mutedStyle.Render("uit")

	var right string
	switch {
	case info.Flash != "" && info.FlashErr:
		right = lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true).Render(info.Flash)
	case info.Flash != "":
		right = flashStyle.Render(info.Flash)
	case info.Refreshing:
		right = mutedStyle.Render("refreshing…")
	case info.Coercions > 0:
		right = warnStyle.Render(plural(info.Coercions, "row") + " coerced")
	}
	if info.LoadedAt != "" {
		if right != "" {
			right += mutedStyle.Render(" · ")
		}
		right += mutedStyle.Render(info.Vehicle + " · " + info.Backend + " · " + info.LoadedAt)
	}
	right += mutedStyle.Render(" ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	fill := lipgloss.NewStyle().Background(t.Surface).Width(gap).Render("")

	return lipgloss.NewStyle().
		Background(t.Surface).
		Width(width).
		MaxWidth(width).
		Render(left + fill + right)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
