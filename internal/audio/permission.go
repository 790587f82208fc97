package audio

import (
	"context"
	"errors"
	"fmt"
)

// ErrMicrophoneDenied means no usable capture source could be opened.
var ErrMicrophoneDenied = errors.New("microphone access denied")

// Microphone resolves the configured capture source on demand.
type Microphone struct {
	Input    string
	Fallback string

	list func(context.Context) ([]Device, error)
}

// Check resolves a usable source. Failures wrap ErrMicrophoneDenied.
func (m Microphone) Check(ctx context.Context) (Selection, error) {
	list := m.list
	if list == nil {
		list = ListInputs
	}

	devices, err := list(ctx)
	if err != nil {
		return Selection{}, fmt.Errorf("%w: %v", ErrMicrophoneDenied, err)
	}
	selection, err := selectFromList(devices, m.Input, m.Fallback)
	if err != nil {
		return Selection{}, fmt.Errorf("%w: %v", ErrMicrophoneDenied, err)
	}
	return selection, nil
}
