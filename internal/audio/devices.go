// Package audio handles PulseAudio device discovery, utterance capture, and
// reply playback.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Direction distinguishes capture sources from playback sinks.
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// Device describes one Pulse source or sink.
type Device struct {
	ID          string
	Description string
	Direction   Direction
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Selection is the resolved device plus optional fallback warning context.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

func newClient(icon string) (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("assist"),
		pulse.ClientApplicationIconName(icon),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// ListDevices returns Pulse sources followed by sinks.
func ListDevices(ctx context.Context) ([]Device, error) {
	inputs, err := ListInputs(ctx)
	if err != nil {
		return nil, err
	}
	outputs, err := ListOutputs(ctx)
	if err != nil {
		return nil, err
	}
	return append(inputs, outputs...), nil
}

// ListInputs returns capture sources with default/availability metadata.
func ListInputs(_ context.Context) ([]Device, error) {
	client, err := newClient("audio-input-microphone")
	if err != nil {
		return nil, err
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}

	var infos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &infos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		available := true
		for _, port := range info.Ports {
			if port.Name == info.ActivePortName {
				available = port.Available != portUnavailable
			}
		}
		devices = append(devices, Device{
			ID:          info.SourceName,
			Description: info.Device,
			Direction:   Input,
			State:       stateString(info.State),
			Available:   available,
			Muted:       info.Mute,
			Default:     info.SourceName == defaultSource.ID(),
		})
	}
	return devices, nil
}

// ListOutputs returns playback sinks.
func ListOutputs(_ context.Context) ([]Device, error) {
	client, err := newClient("audio-speakers")
	if err != nil {
		return nil, err
	}
	defer client.Close()

	defaultSink, err := client.DefaultSink()
	if err != nil {
		return nil, fmt.Errorf("read default sink: %w", err)
	}

	var infos pulseproto.GetSinkInfoListReply
	if err := client.RawRequest(&pulseproto.GetSinkInfoList{}, &infos); err != nil {
		return nil, fmt.Errorf("list sinks: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		available := true
		for _, port := range info.Ports {
			if port.Name == info.ActivePortName {
				available = port.Available != portUnavailable
			}
		}
		devices = append(devices, Device{
			ID:          info.SinkName,
			Description: info.Device,
			Direction:   Output,
			State:       stateString(info.State),
			Available:   available,
			Muted:       info.Mute,
			Default:     info.SinkName == defaultSink.ID(),
		})
	}
	return devices, nil
}

// SelectInput resolves audio.input/audio.fallback preferences against live sources.
func SelectInput(ctx context.Context, input, fallback string) (Selection, error) {
	devices, err := ListInputs(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectFromList(devices, input, fallback)
}

// selectFromList applies the preferred/fallback/default policy to a device list.
func selectFromList(devices []Device, input, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}

	input = normalizeQuery(input)
	fallback = normalizeQuery(fallback)

	primary, err := pick(devices, input)
	if err != nil {
		return Selection{}, err
	}
	if usable(primary) == "" {
		return Selection{Device: *primary}, nil
	}
	reason := usable(primary)

	alternate, err := pick(devices, fallback)
	if err != nil {
		return Selection{}, fmt.Errorf("primary input %q is %s and no usable fallback: %w", primary.ID, reason, err)
	}
	if why := usable(alternate); why != "" {
		return Selection{}, fmt.Errorf("audio fallback device %q is %s", alternate.ID, why)
	}

	return Selection{
		Device:   *alternate,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, reason, alternate.ID),
		Fallback: primary.ID != alternate.ID,
	}, nil
}

func normalizeQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return "default"
	}
	return q
}

// pick finds the default device for "default" or the first id/description match.
func pick(devices []Device, query string) (*Device, error) {
	for i := range devices {
		dev := &devices[i]
		if query == "default" && dev.Default {
			return dev, nil
		}
		if query != "default" && deviceMatches(*dev, query) {
			return dev, nil
		}
	}
	if query == "default" {
		return nil, errors.New("default audio source is unavailable")
	}
	return nil, fmt.Errorf("audio device %q did not match any device", query)
}

// usable returns "" for a ready device or the reason it cannot be used.
func usable(dev *Device) string {
	switch {
	case dev.Muted:
		return "muted"
	case !dev.Available:
		return "unavailable"
	default:
		return ""
	}
}

func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(device.ID), term) ||
		strings.Contains(strings.ToLower(device.Description), term)
}

func stateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// Pulse port availability: unknown=0, no=1, yes=2. Devices without ports
// count as available.
const portUnavailable = 1
