// Package fsm models the lifecycle of one conversation turn.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateResponding State = "responding"
	StateSpeaking   State = "speaking"
	StateError      State = "error"
)

const (
	// EventListen starts a voice turn.
	EventListen Event = "listen"
	// EventSubmit starts a typed-text turn, skipping recognition.
	EventSubmit     Event = "submit"
	EventRecognized Event = "recognized"
	EventReplied    Event = "replied"
	EventSpoken     Event = "spoken"
	EventFail       Event = "fail"
	EventReset      Event = "reset"
)

// Busy reports whether a turn is in flight.
func (s State) Busy() bool {
	return s != StateIdle
}

func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventListen:
			return StateListening, nil
		case EventSubmit:
			return StateResponding, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventRecognized:
			return StateResponding, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateResponding:
		switch event {
		case EventReplied:
			return StateSpeaking, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSpeaking:
		switch event {
		case EventSpoken:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
