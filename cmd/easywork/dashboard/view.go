package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render("easywork • live run"))

	if len(m.order) > 0 {
		sections = append(sections, sectionStyle.Render("Endpoints"))
		sections = append(sections, m.renderEndpoints())
	}

	sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(m.renderSummary()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderEndpoints() string {
	var lines []string
	for _, key := range m.order {
		st := m.states[key]
		line := fmt.Sprintf(" %s %s.%s (%d)", statusIcon(st), key.nodeType, key.method, st.fires)
		if st.err != nil {
			line = fmt.Sprintf("%s — %s", line, st.err)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSummary() string {
	if m.finished {
		if m.runErr != nil {
			return failureStyle.Render(fmt.Sprintf("run failed: %s", m.runErr))
		}
		return doneStyle.Render("run complete")
	}
	return runningStyle.Render(fmt.Sprintf("%s running — %d endpoint(s) reporting", m.spinner.View(), len(m.order)))
}

func statusIcon(st *endpointState) string {
	switch {
	case st.failed:
		return failureStyle.Render("✗")
	case st.done:
		return doneStyle.Render("✓")
	default:
		return runningStyle.Render("⏳")
	}
}
