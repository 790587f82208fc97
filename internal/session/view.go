package session

import (
	"github.com/rbright/assist/internal/fsm"
	"github.com/rbright/assist/internal/transcript"
)

// View is an immutable snapshot for presentation layers.
type View struct {
	State       fsm.State
	Busy        bool
	Selection   Selection
	Entries     []transcript.Entry
	Configured  bool
	Missing     []string
	DialogueLen int
	LastOutcome *Outcome
}

// View returns the current snapshot. Entries and Missing are copies.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	view := View{
		State:       o.state,
		Busy:        o.state.Busy(),
		Selection:   o.selection,
		Configured:  len(o.missing) == 0,
		Missing:     append([]string(nil), o.missing...),
		DialogueLen: len(o.dialogue),
	}
	if o.last != nil {
		last := *o.last
		view.LastOutcome = &last
	}
	o.mu.Unlock()

	view.Entries = o.log.Entries()
	return view
}
