// Package dashboard is a bubbletea live view over a running pipeline: it
// subscribes to an executor.Event feed and renders per-endpoint progress
// while the graph runs, the same shape as a build/deploy TUI tailing a
// step list, here tailing node/method completions instead.
package dashboard

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/easywork/internal/executor"
)

type endpointKey struct {
	nodeType string
	method   string
}

type endpointState struct {
	key     endpointKey
	fires   int
	failed  bool
	err     error
	done    bool // source completed; a function endpoint's error sets failed instead
}

// Model is the Bubbletea state for the live dashboard.
type Model struct {
	events  <-chan executor.Event
	order   []endpointKey
	states  map[endpointKey]*endpointState
	spinner spinner.Model

	finished bool
	runErr   error
}

// NewModel constructs a dashboard model that reads from events until it
// closes or a terminal message arrives.
func NewModel(events <-chan executor.Event) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		events:  events,
		states:  map[endpointKey]*endpointState{},
		spinner: s,
	}
}

// Init starts listening for the first event and the spinner's tick loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), m.spinner.Tick)
}

func (m *Model) ensure(key endpointKey) *endpointState {
	st, ok := m.states[key]
	if !ok {
		st = &endpointState{key: key}
		m.states[key] = st
		m.order = append(m.order, key)
	}
	return st
}
