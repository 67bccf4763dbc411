package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"kllc.dev/kllc/internal/engine"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// ConfigureColor picks the colour profile for w, honouring NO_COLOR and
// CLICOLOR_FORCE.
func ConfigureColor(w io.Writer) {
	lipgloss.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
}

// RenderState draws the lifecycle of a branch as a step list
func RenderState(state *engine.State) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(state.BranchName))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  (%s)", state.BranchType)))
	b.WriteString("\n")

	if !state.IsFeature() {
		b.WriteString(dimStyle.Render("Not a feature branch. Run `kllc new` to start a cycle."))
		b.WriteString("\n")
		return b.String()
	}

	for _, step := range engine.IntakeSteps() {
		rec, ok := state.Record(step.ID())
		if !ok {
			continue
		}
		b.WriteString(renderLine(markerFor(rec.Status), step.Label(), rec, doneStyle))
	}
	b.WriteString("\n")

	for i, step := range engine.Sequence() {
		rec, _ := state.Record(step.ID())
		switch {
		case i < state.CurrentStepIndex:
			b.WriteString(renderLine("✓", step.Label(), rec, doneStyle))
		case i == state.CurrentStepIndex:
			b.WriteString(renderLine("▶", step.Label()+hint(step), rec, currentStyle))
		default:
			b.WriteString(renderLine("○", step.Label(), rec, dimStyle))
		}
	}

	if state.Finished() {
		b.WriteString("\n")
		b.WriteString(doneStyle.Render("Lifecycle finished."))
		b.WriteString("\n")
	}
	return b.String()
}

func markerFor(status engine.StepStatus) string {
	switch status {
	case engine.StatusCompleted:
		return "✓"
	case engine.StatusSkipped:
		return "-"
	default:
		return "○"
	}
}

func hint(step engine.Step) string {
	switch s := step.(type) {
	case engine.ChoiceStep:
		return fmt.Sprintf(" [%s]", strings.Join(s.Choices, "|"))
	case engine.TagStep:
		return fmt.Sprintf(" [commit + tag %s]", s.TagPrefix)
	case engine.ActionStep:
		return fmt.Sprintf(" [%s]", strings.ToLower(s.ActionLabel))
	}
	return ""
}

func renderLine(marker, label string, rec engine.StepRecord, style lipgloss.Style) string {
	line := style.Render(fmt.Sprintf("%s %s", marker, label))
	if rec.Value != "" {
		line += "  " + valueStyle.Render(rec.Value)
	}
	return line + "\n"
}
