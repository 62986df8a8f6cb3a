package dashboard

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case eventMsg:
		key := endpointKey{nodeType: msg.NodeType, method: msg.Method}
		st := m.ensure(key)
		st.fires++
		if msg.Err != nil {
			st.failed = true
			st.err = msg.Err
		}
		if msg.Done {
			st.done = true
		}
		return m, waitForEvent(m.events)
	case eventsClosedMsg:
		return m, nil
	case RunFinishedMsg:
		m.finished = true
		m.runErr = msg.Err
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.finished = true
			return m, tea.Quit
		}
	}
	return m, nil
}
