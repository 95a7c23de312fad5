package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/garage/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name string
	Key  rune
}

// Tabs defines all available tabs. Every shortcut is the lowercased first
// letter of the name except Settings.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o'},
	{Name: "Parts", Key: 'p'},
	{Name: "Maintenance", Key: 'm'},
	{Name: "Fuel", Key: 'f'},
	{Name: "Spend", Key: 's'},
	{Name: "Settings", Key: 'x'},
}

// tabLabel renders one tab. Inactive tabs whose key is not the first
// letter of their name get a "[k]" suffix.
func tabLabel(tab Tab, active bool) string {
	t := theme.Active

	if active {
		return lipgloss.NewStyle().
			Foreground(t.AccentBright).
			Background(t.SurfaceHover).
			Bold(true).
			Padding(0, 1).
			Render(tab.Name)
	}

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	key := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	first := strings.ToLower(tab.Name[:1])
	if first == string(tab.Key) {
		return base.Render(" ") + key.Render(tab.Name[:1]) + base.Render(tab.Name[1:]+" ")
	}
	return base.Render(" "+tab.Name) + key.Render("["+string(tab.Key)+"]") + base.Render(" ")
}

// TabVisualWidth returns the rendered width of a tab.
func TabVisualWidth(tab Tab, active bool) int {
	return lipgloss.Width(tabLabel(tab, active))
}

// RenderTabBar renders a single-row tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active
	sep := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface).Render("│")

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		parts[i] = tabLabel(tab, i == activeIdx)
	}

	return lipgloss.NewStyle().
		Background(t.Surface).
		Width(width).
		Render(strings.Join(parts, sep))
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
