package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/kingrea/eventplanner/internal/artifact"
	"github.com/kingrea/eventplanner/internal/crew"
)

const (
	previewLines = 18
	logLines     = 6
)

var (
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	labelStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	focusedLabelStyle = labelStyle.Foreground(lipgloss.Color("#FFD166"))
	hintStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	okStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#06D6A0"))
	panelStyle        = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#444444")).
				Padding(0, 1)
)

// aboutText describes what the planner does.
func aboutText() string {
	var b strings.Builder
	b.WriteString("This Event Planner assistant uses AI agents to help you:\n")
	for _, c := range crew.Capabilities() {
		b.WriteString("  - " + c + "\n")
	}
	b.WriteString("\nChoose your preferred model and enter the required API keys to get started.\n")
	b.WriteString("Keys are kept in memory for the current submission only.")
	return b.String()
}

// View renders the current screen.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	header := titleStyle.Render("AI Event Planner") + "  " +
		hintStyle.Render("Create an entire event plan using AI agents.")

	var content string
	switch a.state {
	case stateForm:
		content = a.renderForm(width)
	case stateRunning:
		content = a.renderRunning()
	case stateResults:
		content = a.renderResults(width)
	}

	sections := []string{header, panelStyle.Width(max(20, width-2)).Render(content)}
	if a.showAbout {
		sections = append(sections, panelStyle.Width(max(20, width-2)).Render(labelStyle.Render("About")+"\n"+aboutText()))
	}
	if panel := a.renderLogPanel(width); panel != "" {
		sections = append(sections, panel)
	}
	sections = append(sections, a.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) renderForm(width int) string {
	var b strings.Builder
	for field := fieldModel; field < fieldCount; field++ {
		label := labelStyle
		if a.form.focus == field {
			label = focusedLabelStyle
		}
		b.WriteString(label.Render(fieldLabels[field]))
		if help, ok := fieldHelp[field]; ok && a.form.focus == field {
			b.WriteString("  " + hintStyle.Render(help))
		}
		b.WriteString("\n")
		switch field {
		case fieldModel:
			if a.form.focus == fieldModel {
				b.WriteString(a.form.models.View())
			} else {
				b.WriteString("  " + a.form.selectedModel())
			}
		case fieldDescription:
			b.WriteString(a.form.description.View())
		default:
			b.WriteString(a.form.inputs[field].View())
		}
		b.WriteString("\n")
	}
	if a.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(truncate(a.errMsg, max(20, width-6))))
	}
	return b.String()
}

func (a *App) renderRunning() string {
	elapsed := a.now().Sub(a.runStarted).Round(time.Second)
	lines := []string{
		fmt.Sprintf("%s %s", a.spinner.View(), a.statusMsg),
		hintStyle.Render(fmt.Sprintf("Elapsed %s · the agents are researching the venue, logistics and marketing.", elapsed)),
		hintStyle.Render("Press esc to cancel."),
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderResults(width int) string {
	if a.outcome == nil {
		return ""
	}
	inner := max(20, width-8)
	var b strings.Builder
	status := okStyle
	if !a.outcome.Ready() {
		status = errorStyle
	}
	b.WriteString(status.Render(a.statusMsg) + "\n")
	b.WriteString(hintStyle.Render(fmt.Sprintf("Run %s · %s · %s", a.outcome.RunID, a.outcome.Model.Handle(), a.outcome.Duration.Round(time.Second))) + "\n\n")
	for i, result := range a.outcome.Artifacts {
		marker := "  "
		if i == a.previewIdx {
			marker = "> "
		}
		b.WriteString(marker + renderArtifactLine(result) + "\n")
	}
	b.WriteString("\n")
	if a.preview == "" {
		b.WriteString(hintStyle.Render("No preview available."))
		return b.String()
	}
	b.WriteString(labelStyle.Render("Preview") + "\n")
	b.WriteString(truncateBlock(a.preview, inner, previewLines))
	return b.String()
}

func renderArtifactLine(result artifact.CheckResult) string {
	name := result.Ref.Name
	switch result.State {
	case artifact.StateReady:
		return okStyle.Render("✓ "+name) + "  " + hintStyle.Render(result.Path)
	case artifact.StateMissing:
		return errorStyle.Render("✗ "+name) + "  " + hintStyle.Render("not generated")
	default:
		detail := string(result.State)
		if result.Err != nil {
			detail = result.Err.Error()
		}
		return errorStyle.Render("! "+name) + "  " + hintStyle.Render(truncate(detail, 60))
	}
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	inner := max(20, width-6)
	for i, line := range lines {
		lines[i] = truncate(line, inner)
	}
	head := labelStyle.Render(fmt.Sprintf("LOG · %s · %d entries", fileName, total))
	body := hintStyle.Render(strings.Join(lines, "\n"))
	return panelStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) renderFooter() string {
	var keys string
	switch a.state {
	case stateForm:
		keys = "tab/shift+tab move · ctrl+s plan event · f1 about · ctrl+c quit"
	case stateRunning:
		keys = "esc cancel · f1 about · ctrl+c quit"
	case stateResults:
		keys = "tab switch preview · n new plan · f1 about · q quit"
	}
	return hintStyle.Render(keys)
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

func truncateBlock(s string, width, maxLines int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	more := 0
	if len(lines) > maxLines {
		more = len(lines) - maxLines
		lines = lines[:maxLines]
	}
	for i, line := range lines {
		lines[i] = truncate(line, width)
	}
	out := strings.Join(lines, "\n")
	if more > 0 {
		out += "\n" + hintStyle.Render(fmt.Sprintf("… %d more lines", more))
	}
	return out
}
