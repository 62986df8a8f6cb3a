package dashboard

import (
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/easywork/internal/executor"
)

func TestNewModelInitBatchesEventAndSpinnerCommands(t *testing.T) {
	t.Parallel()

	events := make(chan executor.Event)
	m := NewModel(events)
	require.NotNil(t, m.Init())
}

func TestEnsureCreatesStateOnceAndPreservesOrder(t *testing.T) {
	t.Parallel()

	m := NewModel(make(chan executor.Event))
	a := endpointKey{nodeType: "examples.NumberSource", method: "forward"}
	b := endpointKey{nodeType: "examples.MultiplyBy", method: "forward"}

	first := m.ensure(a)
	again := m.ensure(a)
	require.Same(t, first, again, "ensure must not create a second state for the same key")

	m.ensure(b)
	require.Equal(t, []endpointKey{a, b}, m.order)
}

func TestUpdateEventMsgTracksFiresAndFailure(t *testing.T) {
	t.Parallel()

	events := make(chan executor.Event, 1)
	m := NewModel(events)

	boom := errors.New("boom")
	updated, cmd := m.Update(eventMsg(executor.Event{NodeType: "examples.MultiplyBy", Method: "forward", Err: boom}))
	mm := updated.(Model)

	key := endpointKey{nodeType: "examples.MultiplyBy", method: "forward"}
	st := mm.states[key]
	require.Equal(t, 1, st.fires)
	require.True(t, st.failed)
	require.Equal(t, boom, st.err)
	require.NotNil(t, cmd, "Update must re-arm the event listener after each event")
}

func TestUpdateDoneEventMarksSourceDone(t *testing.T) {
	t.Parallel()

	m := NewModel(make(chan executor.Event, 1))
	updated, _ := m.Update(eventMsg(executor.Event{NodeType: "examples.NumberSource", Method: "forward", Done: true}))
	mm := updated.(Model)

	key := endpointKey{nodeType: "examples.NumberSource", method: "forward"}
	require.True(t, mm.states[key].done)
}

func TestUpdateRunFinishedMsgSetsFinishedState(t *testing.T) {
	t.Parallel()

	m := NewModel(make(chan executor.Event))
	failure := errors.New("run failed")
	updated, cmd := m.Update(RunFinishedMsg{Err: failure})
	mm := updated.(Model)

	require.True(t, mm.finished)
	require.Equal(t, failure, mm.runErr)
	require.Nil(t, cmd)
}

func TestUpdateCtrlCQuitsAndMarksFinished(t *testing.T) {
	t.Parallel()

	m := NewModel(make(chan executor.Event))
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	mm := updated.(Model)

	require.True(t, mm.finished)
	require.NotNil(t, cmd)
}

func TestUpdateIgnoresSpinnerTickAfterFinished(t *testing.T) {
	t.Parallel()

	m := NewModel(make(chan executor.Event))
	m.finished = true
	_, cmd := m.Update(spinner.TickMsg{})
	require.Nil(t, cmd)
}
