// Package tui provides the interactive Bubble Tea dashboard for garage.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/garage/internal/config"
	"github.com/theirongolddev/garage/internal/logging"
	"github.com/theirongolddev/garage/internal/pipeline"
	"github.com/theirongolddev/garage/internal/store"
	"github.com/theirongolddev/garage/internal/tui/components"
	"github.com/theirongolddev/garage/internal/tui/theme"
)

// DataLoadedMsg is sent when the initial (or retried) load finishes.
type DataLoadedMsg struct {
	Result   *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports which table the loader is reading.
type ProgressMsg struct {
	Table string
	Step  int
	Total int
}

// RefreshDataMsg is sent when a background refresh completes.
type RefreshDataMsg struct {
	Result   *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

// AppendedMsg is sent when an entry form's record has been written.
type AppendedMsg struct {
	Kind entryKind
	Err  error
}

type flashExpiredMsg struct{ seq int }

// Opener opens the record store described by cfg.
type Opener func(cfg config.Config) (store.RecordStore, error)

// Options configures NewApp.
type Options struct {
	Config    config.Config
	Open      Opener
	NeedSetup bool // run the first-run form before loading
}

// App is the root Bubble Tea model.
type App struct {
	cfg  config.Config
	open Opener
	st   store.RecordStore
	now  func() time.Time

	// Data
	result   *pipeline.LoadResult
	loadErr  error // fatal error of the last full load; shown as an error card
	loaded   bool
	loadTime time.Duration

	refreshing bool

	// Pre-computed from result
	spend      []pipeline.CategorySpend
	months     []pipeline.MonthSpend
	maintTable table.Model
	fuelTable  table.Model

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	flash    string
	flashErr bool
	flashSeq int

	// First-run setup and entry forms (huh). Values are pointers because
	// the form writes through them while App is passed by value.
	setupForm *huh.Form
	setupVals *setupValues
	needSetup bool

	entryForm *huh.Form
	entryVals *entryValues
	saving    bool

	// Loading
	spinner       spinner.Model
	progress      int
	progressMax   int
	progressTable string
	loadSub       chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 160
	minContentHeight = 5

	monthsShown  = 12
	flashTimeout = 4 * time.Second
	loadTimeout  = 30 * time.Second
)

// NewApp creates the TUI model. The store is opened right away unless the
// first-run form still has to choose one.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		cfg:        opts.Config,
		open:       opts.Open,
		now:        time.Now,
		needSetup:  opts.NeedSetup,
		spinner:    sp,
		loadSub:    make(chan tea.Msg, 2),
		maintTable: newLogTable(),
		fuelTable:  newLogTable(),
	}

	if a.needSetup {
		a.setupVals = newSetupValues(a.cfg)
		a.setupForm = newSetupForm(a.setupVals)
		return a
	}
	a.openStore()
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion}

	switch {
	case a.setupForm != nil:
		cmds = append(cmds, a.setupForm.Init())
	case a.st != nil:
		cmds = append(cmds, loadDataCmd(a.st, a.cfg, a.now, a.loadSub), a.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Close releases the record store if it holds resources.
func (a App) Close() error {
	if c, ok := a.st.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// openStore opens the configured store. A failure is reported through the
// error card like any other load failure.
func (a *App) openStore() {
	if a.open == nil {
		a.loaded = true
		a.loadErr = fmt.Errorf("no record store configured")
		return
	}
	st, err := a.open(a.cfg)
	if err != nil {
		a.loaded = true
		a.loadErr = err
		return
	}
	a.st = st
}

// startLoad resets the loading screen and reads both tables again.
func (a *App) startLoad() tea.Cmd {
	if a.st == nil {
		a.openStore()
		if a.st == nil {
			return nil
		}
	}
	a.loaded = false
	a.loadErr = nil
	a.progress, a.progressMax, a.progressTable = 0, 0, ""
	return tea.Batch(loadDataCmd(a.st, a.cfg, a.now, a.loadSub), a.spinner.Tick)
}

func (a *App) recompute() {
	if a.result == nil {
		return
	}
	d := a.result.Dashboard
	a.spend = pipeline.SpendByCategory(d.Maintenance)
	a.months = pipeline.MonthlySpend(d.Maintenance, d.FuelLog, monthsShown, a.now())
	a.maintTable.SetRows(maintenanceRows(d.Maintenance))
	a.fuelTable.SetRows(fuelRows(d.FuelLog))
	a.resizeTables()
}

func (a *App) resizeTables() {
	cw := a.contentWidth()
	h := a.height - 10
	if h < minContentHeight {
		h = minContentHeight
	}
	inner := components.CardInnerWidth(cw)

	a.maintTable.SetColumns(maintenanceColumns(inner))
	a.maintTable.SetWidth(inner)
	a.maintTable.SetHeight(h - 2)

	a.fuelTable.SetColumns(fuelColumns(inner))
	a.fuelTable.SetWidth(inner)
	a.fuelTable.SetHeight(h - 6) // fuel tab carries a metric row above the table
}

func (a *App) setFlash(msg string, isErr bool) tea.Cmd {
	a.flash = msg
	a.flashErr = isErr
	a.flashSeq++
	seq := a.flashSeq
	return tea.Tick(flashTimeout, func(time.Time) tea.Msg {
		return flashExpiredMsg{seq: seq}
	})
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(min(msg.Width, 80)).WithHeight(msg.Height)
		}
		if a.entryForm != nil {
			a.entryForm = a.entryForm.WithWidth(entryFormWidth(msg.Width))
		}
		a.resizeTables()
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil || a.entryForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.scrollActiveTable(-1)
		case tea.MouseButtonWheelDown:
			a.scrollActiveTable(1)
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}

		// Forms intercept all keys
		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		if a.entryForm != nil {
			return a.updateEntryForm(msg)
		}

		if !a.loaded {
			if key == "q" {
				return a, tea.Quit
			}
			return a, nil
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		if key == "q" {
			return a, tea.Quit
		}

		// Error card: only retry or reconfigure
		if a.result == nil {
			switch key {
			case "r":
				return a, a.startLoad()
			case "e":
				return a, a.startSetup()
			}
			return a, nil
		}

		if a.handleTableKey(key, msg) {
			return a, nil
		}

		switch key {
		case "r":
			if !a.refreshing {
				a.refreshing = true
				return a, refreshDataCmd(a.st, a.cfg, a.now)
			}
			return a, nil
		case "a":
			return a, a.startEntry()
		case "t":
			if a.activeTab == tabSettings {
				return a, a.cycleTheme()
			}
		case "e":
			if a.activeTab == tabSettings {
				return a, a.startSetup()
			}
		case "left", "shift+tab":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
			return a, nil
		case "right", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
			return a, nil
		}

		if len(msg.Runes) == 1 {
			if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Step
		a.progressMax = msg.Total
		a.progressTable = msg.Table
		return a, waitForLoadMsg(a.loadSub)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		if msg.Err != nil {
			a.loadErr = msg.Err
			return a, nil
		}
		a.loadErr = nil
		a.result = msg.Result
		a.recompute()
		if len(a.result.Warnings) > 0 {
			return a, a.setFlash(a.result.Warnings[0], true)
		}
		return a, nil

	case RefreshDataMsg:
		a.refreshing = false
		if msg.Err != nil {
			// Keep the last good dashboard on screen.
			return a, a.setFlash("refresh failed: "+errSummary(msg.Err), true)
		}
		a.loadTime = msg.LoadTime
		a.result = msg.Result
		a.recompute()
		return a, nil

	case AppendedMsg:
		a.saving = false
		if msg.Err != nil {
			return a, a.setFlash("save failed: "+errSummary(msg.Err), true)
		}
		a.refreshing = true
		return a, tea.Batch(
			a.setFlash(msg.Kind.String()+" record saved", false),
			refreshDataCmd(a.st, a.cfg, a.now),
		)

	case flashExpiredMsg:
		if msg.seq == a.flashSeq {
			a.flash = ""
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.saving {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to an open form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.entryForm != nil {
		return a.updateEntryForm(msg)
	}
	return a, nil
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.setupForm != nil {
		return a.viewForm("◈ garage setup", a.setupForm.View())
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.result == nil {
		return a.viewError()
	}
	if a.entryForm != nil {
		return a.viewForm("◈ New "+a.entryVals.Kind.String()+" record", a.entryForm.View())
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  garage needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

// overlayCard places body in a centered card over the app background.
func (a App) overlayCard(body string) string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3).
		Render(body)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoading() string {
	t := theme.Active

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ garage"))
	b.WriteString(subtitleStyle.Render(" · " + a.cfg.General.Vehicle))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	if a.progressMax > 0 {
		b.WriteString(subtitleStyle.Render(fmt.Sprintf(" Reading %s from %s", a.progressTable, a.cfg.Store.Backend)))
		b.WriteString("\n\n")
		b.WriteString(components.StepBar(a.progress-1, a.progressMax, 30))
	} else {
		b.WriteString(subtitleStyle.Render(" Connecting to " + a.cfg.Store.Backend + "..."))
	}
	return a.overlayCard(b.String())
}

func (a App) viewError() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(min(a.width-12, 72))
	hintStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	title := "✗ Could not load records"
	if store.IsConnectionError(a.loadErr) {
		title = "✗ Record store unavailable"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(textStyle.Render(a.loadErr.Error()))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("[r] retry   [e] edit setup   [q] quit"))
	return a.overlayCard(b.String())
}

func (a App) viewForm(title, form string) string {
	t := theme.Active
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	body := titleStyle.Render(title) + "\n\n" + form + "\n" +
		hintStyle.Render("enter next · shift+tab back · esc cancel")
	return a.overlayCard(body)
}

func (a App) viewHelp() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Blue).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	section := func(name string, bindings []struct{ key, desc string }) {
		b.WriteString(sectionStyle.Render(name))
		b.WriteString("\n")
		for _, bind := range bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
		b.WriteString("\n")
	}

	section("Navigation", []struct{ key, desc string }{
		{"o p m f s x", "Jump to tab"},
		{"← → tab", "Previous / Next tab"},
		{"j k", "Move through log tables"},
		{"g G", "First / last record"},
	})
	section("Actions", []struct{ key, desc string }{
		{"a", "Add a record (fuel on Fuel tab, maintenance on Maintenance tab)"},
		{"r", "Reload both tables"},
		{"t", "Cycle theme (Settings)"},
		{"e", "Edit setup (Settings)"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	})
	b.WriteString(dimStyle.Render("Press any key to close"))
	return a.overlayCard(b.String())
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)

	info := components.StatusInfo{
		Vehicle:    a.cfg.General.Vehicle,
		Backend:    a.cfg.Store.Backend,
		Refreshing: a.refreshing,
		Coercions:  len(a.result.Coercions),
		Flash:      a.flash,
		FlashErr:   a.flashErr,
	}
	if a.saving && info.Flash == "" {
		info.Flash = a.spinner.View() + " saving…"
	}
	if !a.result.LoadedAt.IsZero() {
		info.LoadedAt = a.result.LoadedAt.Format("15:04")
	}
	statusBar := components.RenderStatusBar(w, info)

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabParts:
		content = a.renderPartsTab(cw)
	case tabMaintenance:
		content = a.renderMaintenanceTab(cw)
	case tabFuel:
		content = a.renderFuelTab(cw)
	case tabSpend:
		content = a.renderSpendTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// Tab indices, matching components.Tabs.
const (
	tabOverview = iota
	tabParts
	tabMaintenance
	tabFuel
	tabSpend
	tabSettings
)

// ─── Commands ───────────────────────────────────────────────────

// loadDataCmd reads both tables in a background goroutine, streaming a
// ProgressMsg per table and a final DataLoadedMsg through sub.
func loadDataCmd(st store.RecordStore, cfg config.Config, now func() time.Time, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()
			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()

			step := 0
			progressFn := func(table string) {
				step++
				select {
				case sub <- ProgressMsg{Table: table, Step: step, Total: 2}:
				default:
				}
			}

			result, err := pipeline.LoadWithProgress(ctx, st, cfg, now(), progressFn)
			if err != nil {
				logging.Error("dashboard load failed", "error", err)
			}
			sub <- DataLoadedMsg{Result: result, Err: err, LoadTime: time.Since(start)}
		}()

		// Block until the first message (ProgressMsg or DataLoadedMsg)
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads in the background without the loading screen.
func refreshDataCmd(st store.RecordStore, cfg config.Config, now func() time.Time) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		result, err := pipeline.Load(ctx, st, cfg, now())
		if err != nil {
			logging.Warn("dashboard refresh failed", "error", err)
		}
		return RefreshDataMsg{Result: result, Err: err, LoadTime: time.Since(start)}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

// errSummary returns the first line of err's message, shortened for the
// status bar.
func errSummary(err error) string {
	s := err.Error()
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return truncStr(s, 60)
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes use the same widths as RenderTabBar, with a one-column separator.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1
	}
	return -1
}
