// Package tui is the interactive run monitor: a list of recorded runs,
// a per-run step breakdown, and the artifact paths each step produced.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lcroisez/undini/internal/models"
	"github.com/lcroisez/undini/internal/orchestrator"
	"github.com/lcroisez/undini/internal/storage"
)

type View int

const (
	ViewRunList View = iota
	ViewRunDetail
	ViewArtifacts
)

type App struct {
	store *storage.Storage
	orch  *orchestrator.Orchestrator

	view            View
	runs            []*models.Run
	selectedIdx     int
	selectedRun     *models.Run
	results         []*models.StepResult
	selectedStepIdx int

	width  int
	height int
	err    error
}

func NewApp(store *storage.Storage, orch *orchestrator.Orchestrator) *App {
	return &App{store: store, orch: orch, view: ViewRunList}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadRuns, a.tickCmd())
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) hasRunningRuns() bool {
	for _, run := range a.runs {
		if run.Status == models.RunStatusRunning {
			return true
		}
	}
	return false
}

type tickMsg time.Time

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case runsLoadedMsg:
		a.runs = msg.runs
		a.err = msg.err
		return a, nil

	case tickMsg:
		// Live runs keep the list and the open detail fresh.
		switch {
		case a.view == ViewRunList && a.hasRunningRuns():
			return a, tea.Batch(a.loadRuns, a.tickCmd())
		case a.view == ViewRunDetail && a.selectedRun != nil && a.selectedRun.Status == models.RunStatusRunning:
			return a, tea.Batch(a.loadRunDetail(a.selectedRun.ID), a.tickCmd())
		}
		return a, a.tickCmd()

	case runDetailMsg:
		a.selectedRun = msg.run
		a.results = msg.results
		a.err = msg.err
		if a.err == nil && a.view == ViewRunList {
			a.view = ViewRunDetail
		}
		return a, nil

	case runAbortedMsg:
		a.err = msg.err
		return a, a.loadRuns

	case runDeletedMsg:
		a.err = msg.err
		if a.selectedIdx >= len(a.runs)-1 && a.selectedIdx > 0 {
			a.selectedIdx--
		}
		return a, a.loadRuns
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.view {
	case ViewRunList:
		return a.handleRunListKey(msg)
	case ViewRunDetail:
		return a.handleRunDetailKey(msg)
	case ViewArtifacts:
		return a.handleArtifactsKey(msg)
	}
	return a, nil
}

func (a *App) handleRunListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "up", "k":
		if a.selectedIdx > 0 {
			a.selectedIdx--
		}

	case "down", "j":
		if a.selectedIdx < len(a.runs)-1 {
			a.selectedIdx++
		}

	case "enter":
		if len(a.runs) > 0 && a.selectedIdx < len(a.runs) {
			return a, a.loadRunDetail(a.runs[a.selectedIdx].ID)
		}

	case "r":
		return a, a.loadRuns

	case "x":
		if len(a.runs) > 0 && a.selectedIdx < len(a.runs) {
			return a, a.abortRun(a.runs[a.selectedIdx].ID)
		}

	case "d":
		if len(a.runs) > 0 && a.selectedIdx < len(a.runs) {
			return a, a.deleteRun(a.runs[a.selectedIdx].ID)
		}
	}

	return a, nil
}

func (a *App) handleRunDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		a.view = ViewRunList
		a.selectedRun = nil
		a.results = nil
		a.selectedStepIdx = 0

	case "ctrl+c":
		return a, tea.Quit

	case "up", "k":
		if a.selectedStepIdx > 0 {
			a.selectedStepIdx--
		}

	case "down", "j":
		if a.selectedStepIdx < len(a.results)-1 {
			a.selectedStepIdx++
		}

	case "enter", "o":
		if len(a.results) > 0 && a.selectedStepIdx < len(a.results) {
			a.view = ViewArtifacts
		}
	}

	return a, nil
}

func (a *App) handleArtifactsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		a.view = ViewRunDetail

	case "ctrl+c":
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) View() string {
	switch a.view {
	case ViewRunList:
		return a.viewRunList()
	case ViewRunDetail:
		return a.viewRunDetail()
	case ViewArtifacts:
		return a.viewArtifacts()
	}
	return ""
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	statusRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	statusOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusWarned  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

func (a *App) viewRunList() string {
	s := titleStyle.Render("Undini") + "\n\n"

	if a.err != nil {
		s += fmt.Sprintf("Error: %v\n", a.err)
	}

	if len(a.runs) == 0 {
		s += "No runs yet. Start one with `undini run <iteration>`.\n"
	} else {
		s += "Recent Runs\n"
		s += "───────────\n"

		for i, run := range a.runs {
			line := a.formatRunLine(run)
			isSelected := i == a.selectedIdx
			isRunning := run.Status == models.RunStatusRunning

			if isSelected {
				line = selectedStyle.Render("▶ " + line)
			} else if !isRunning {
				line = "  " + dimStyle.Render(line)
			} else {
				line = "  " + line
			}
			s += line + "\n"
		}
	}

	s += "\n" + helpStyle.Render("[enter] view  [x] abort  [d] delete  [r] refresh  [q] quit")

	return s
}

func (a *App) formatRunLine(run *models.Run) string {
	status := a.formatStatus(run.Status)
	age := a.formatAge(run.CreatedAt)
	variant := run.Variant
	if run.ScriptPath != "" {
		variant = "script"
	}
	current := ""
	if run.Status == models.RunStatusRunning && run.CurrentStep != "" {
		current = dimStyle.Render(run.CurrentStep)
	}
	return fmt.Sprintf("#%-3d iter %-4d %-10s %s  %-6s  %s", run.ID, run.Iteration, variant, status, age, current)
}

func (a *App) formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		return fmt.Sprintf("%dd", days)
	}
}

func (a *App) formatStatus(status models.RunStatus) string {
	switch status {
	case models.RunStatusRunning:
		return statusRunning.Render("● running")
	case models.RunStatusSuccess:
		return statusOK.Render("✓ success")
	case models.RunStatusWarned:
		return statusWarned.Render("⚠ warnings")
	case models.RunStatusHalted:
		return statusFailed.Render("✗ halted")
	default:
		return string(status)
	}
}

func (a *App) viewRunDetail() string {
	if a.selectedRun == nil {
		return "No run selected"
	}

	run := a.selectedRun

	header := fmt.Sprintf("Run #%d: %s, iteration %d", run.ID, run.Variant, run.Iteration)
	s := titleStyle.Render(header) + "  " + a.formatStatus(run.Status) + "\n\n"

	if run.ScriptPath != "" {
		s += labelStyle.Render("Script: ") + dimStyle.Render(run.ScriptPath) + "\n"
	}
	if run.Error != "" {
		s += statusFailed.Render("Error: "+run.Error) + "\n"
	}
	s += "\n"

	s += "Steps\n"
	s += "─────\n"

	if len(a.results) == 0 {
		s += "(no steps recorded yet)\n"
	} else {
		for i, res := range a.results {
			glyph := "○"
			switch res.Status {
			case models.StepStatusSucceeded:
				glyph = statusOK.Render("✓")
			case models.StepStatusWarned:
				glyph = statusWarned.Render("⚠")
			case models.StepStatusFailed:
				glyph = statusFailed.Render("✗")
			case models.StepStatusSkipped:
				glyph = dimStyle.Render("∅")
			case models.StepStatusRunning:
				glyph = statusRunning.Render("●")
			}

			duration := ""
			if res.Elapsed > 0 {
				duration = dimStyle.Render(formatDuration(res.Elapsed))
			}

			line := fmt.Sprintf("%d. %-20s %s", res.SequenceNum, res.StepName, glyph)
			if duration != "" {
				line += "  " + fmt.Sprintf("%7s", duration)
			}
			if len(res.Artifacts) > 0 {
				line += "  " + dimStyle.Render(fmt.Sprintf("%d artifacts", len(res.Artifacts)))
			}
			if res.Diagnostic != "" {
				line += "  " + dimStyle.Render(truncate(res.Diagnostic, 40))
			}

			if i == a.selectedStepIdx {
				line = selectedStyle.Render("▶ " + line)
			} else {
				line = "  " + line
			}
			s += line + "\n"
		}
	}

	s += "\n" + helpStyle.Render("[↑/↓] select  [enter] artifacts  [esc] back  [q] quit")

	return s
}

func (a *App) viewArtifacts() string {
	if a.selectedStepIdx >= len(a.results) {
		return "No step selected"
	}
	res := a.results[a.selectedStepIdx]

	s := titleStyle.Render("Artifacts: "+res.StepName) + "\n\n"
	if res.Diagnostic != "" {
		s += res.Diagnostic + "\n\n"
	}
	if len(res.Artifacts) == 0 {
		s += "(no artifacts recorded)\n"
	} else {
		s += strings.Join(res.Artifacts, "\n") + "\n"
	}

	s += "\n" + helpStyle.Render("[esc] back  [q] quit")

	return s
}

// Messages

type runsLoadedMsg struct {
	runs []*models.Run
	err  error
}

type runDetailMsg struct {
	run     *models.Run
	results []*models.StepResult
	err     error
}

type runAbortedMsg struct {
	runID int64
	err   error
}

type runDeletedMsg struct {
	runID int64
	err   error
}

// Commands

func (a *App) loadRuns() tea.Msg {
	runs, err := a.store.ListRuns(20)
	return runsLoadedMsg{runs: runs, err: err}
}

func (a *App) loadRunDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		run, err := a.store.GetRun(id)
		if err != nil {
			return runDetailMsg{err: err}
		}

		results, err := a.store.GetStepResultsForRun(id)
		return runDetailMsg{run: run, results: results, err: err}
	}
}

func (a *App) abortRun(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := a.orch.Abort(id); err != nil {
			return runAbortedMsg{err: err}
		}
		return runAbortedMsg{runID: id}
	}
}

func (a *App) deleteRun(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := a.store.DeleteRun(id); err != nil {
			return runDeletedMsg{err: err}
		}
		return runDeletedMsg{runID: id}
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
