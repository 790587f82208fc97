// Package transcript holds the ordered, displayable log of a session.
package transcript

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a transcript entry for display.
type Kind string

const (
	UserUtterance Kind = "user"
	BotReply      Kind = "bot"
	Info          Kind = "info"
	Error         Kind = "error"
)

// Entry is one displayable line. Turn is the id of the turn that wrote it,
// empty for entries written outside a turn.
type Entry struct {
	ID   string    `json:"id"`
	Turn string    `json:"turn,omitempty"`
	Kind Kind      `json:"kind"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Op names a log mutation.
type Op string

const (
	OpAppend  Op = "append"
	OpReplace Op = "replace"
	OpRemove  Op = "remove"
)

// Event describes one mutation. Lagged is set when earlier events were
// dropped because the subscriber fell behind.
type Event struct {
	Op     Op
	Index  int
	Entry  Entry
	Lagged bool
}

type subscriber struct {
	ch     chan Event
	lagged bool
}

// Log is an append-only sequence with a single replace/remove-last escape
// hatch for resolving placeholder entries. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	subs    map[int]*subscriber
	nextSub int
	now     func() time.Time
}

// New returns an empty log.
func New() *Log {
	return &Log{
		subs: map[int]*subscriber{},
		now:  time.Now,
	}
}

// Append adds an entry at the end of the log.
func (l *Log) Append(kind Kind, text string) Entry {
	return l.AppendTurn("", kind, text)
}

// AppendTurn adds an entry owned by turn.
func (l *Log) AppendTurn(turn string, kind Kind, text string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{ID: uuid.NewString(), Turn: turn, Kind: kind, Text: text, At: l.now()}
	l.entries = append(l.entries, entry)
	l.publishLocked(Event{Op: OpAppend, Index: len(l.entries) - 1, Entry: entry})
	return entry
}

// ReplaceLast swaps the final entry for a new one owned by the same turn.
// It returns false when the log is empty.
func (l *Log) ReplaceLast(kind Kind, text string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return Entry{}, false
	}
	idx := len(l.entries) - 1
	entry := Entry{ID: uuid.NewString(), Turn: l.entries[idx].Turn, Kind: kind, Text: text, At: l.now()}
	l.entries[idx] = entry
	l.publishLocked(Event{Op: OpReplace, Index: idx, Entry: entry})
	return entry, true
}

// RemoveLast drops the final entry.
func (l *Log) RemoveLast() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return false
	}
	idx := len(l.entries) - 1
	removed := l.entries[idx]
	l.entries = l.entries[:idx]
	l.publishLocked(Event{Op: OpRemove, Index: idx, Entry: removed})
	return true
}

// Entries returns a snapshot copy in display order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// TurnEntries returns the entries written by turn, in display order.
func (l *Log) TurnEntries(turn string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Entry
	for _, e := range l.entries {
		if turn != "" && e.Turn == turn {
			out = append(out, e)
		}
	}
	return out
}

// Len reports the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Last returns the final entry.
func (l *Log) Last() (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Subscribe registers a listener. Delivery never blocks the writer; events
// that do not fit in buffer are dropped and the next delivered event carries
// Lagged. The returned func unsubscribes and closes the channel.
func (l *Log) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}

	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	sub := &subscriber{ch: make(chan Event, buffer)}
	l.subs[id] = sub
	l.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
			close(sub.ch)
		})
	}
}

func (l *Log) publishLocked(ev Event) {
	for _, sub := range l.subs {
		out := ev
		out.Lagged = sub.lagged
		select {
		case sub.ch <- out:
			sub.lagged = false
		default:
			sub.lagged = true
		}
	}
}
