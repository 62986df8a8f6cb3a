package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/easywork/internal/executor"
)

// eventMsg wraps one executor.Event as a Bubbletea message.
type eventMsg executor.Event

// eventsClosedMsg reports that the event channel drained and closed,
// meaning the run finished (successfully or not; the final error, if
// any, arrives separately from the goroutine driving Pipeline.Run).
type eventsClosedMsg struct{}

func waitForEvent(events <-chan executor.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// RunFinishedMsg is sent by the host once the pipeline's Run call returns,
// carrying its error (nil on success). The host is expected to send this
// via tea.Program.Send after the goroutine driving Run completes.
type RunFinishedMsg struct {
	Err error
}
