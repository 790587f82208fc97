package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionVoiceTurnHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventListen)
	require.NoError(t, err)
	require.Equal(t, StateListening, next)

	next, err = Transition(next, EventRecognized)
	require.NoError(t, err)
	require.Equal(t, StateResponding, next)

	next, err = Transition(next, EventReplied)
	require.NoError(t, err)
	require.Equal(t, StateSpeaking, next)

	next, err = Transition(next, EventSpoken)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionTypedTurnSkipsListening(t *testing.T) {
	next, err := Transition(StateIdle, EventSubmit)
	require.NoError(t, err)
	require.Equal(t, StateResponding, next)
}

func TestTransitionFailFromAnyStateGoesError(t *testing.T) {
	states := []State{StateIdle, StateListening, StateResponding, StateSpeaking, StateError}
	for _, state := range states {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateError, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle recognized", state: StateIdle, event: EventRecognized, want: StateIdle, wantErr: true},
		{name: "idle reset", state: StateIdle, event: EventReset, want: StateIdle, wantErr: true},
		{name: "listening listen", state: StateListening, event: EventListen, want: StateListening, wantErr: true},
		{name: "listening submit", state: StateListening, event: EventSubmit, want: StateListening, wantErr: true},
		{name: "responding spoken", state: StateResponding, event: EventSpoken, want: StateResponding, wantErr: true},
		{name: "speaking listen", state: StateSpeaking, event: EventListen, want: StateSpeaking, wantErr: true},
		{name: "error listen", state: StateError, event: EventListen, want: StateError, wantErr: true},
		{name: "error reset", state: StateError, event: EventReset, want: StateIdle},
		{name: "unknown state", state: State("bogus"), event: EventListen, want: State("bogus"), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, got)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBusy(t *testing.T) {
	require.False(t, StateIdle.Busy())
	require.True(t, StateListening.Busy())
	require.True(t, StateResponding.Busy())
	require.True(t, StateSpeaking.Busy())
	require.True(t, StateError.Busy())
}
