package audio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectFromListPrimaryDefault(t *testing.T) {
	devices := []Device{
		{ID: "elgato", Description: "Elgato Wave 3 Mono", Available: true, Default: true},
		{ID: "sony", Description: "Sony WH-1000XM6", Available: true},
	}

	selection, err := selectFromList(devices, "default", "default")
	require.NoError(t, err)
	require.Equal(t, "elgato", selection.Device.ID)
	require.Empty(t, selection.Warning)
	require.False(t, selection.Fallback)
}

func TestSelectFromListEmptyQueryMeansDefault(t *testing.T) {
	devices := []Device{
		{ID: "usb", Available: true},
		{ID: "builtin", Available: true, Default: true},
	}

	selection, err := selectFromList(devices, "", "")
	require.NoError(t, err)
	require.Equal(t, "builtin", selection.Device.ID)
}

func TestSelectFromListMutedPrimaryUsesFallback(t *testing.T) {
	devices := []Device{
		{ID: "elgato", Description: "Elgato Wave 3 Mono", Available: true, Muted: true, Default: true},
		{ID: "sony", Description: "Sony WH-1000XM6", Available: true},
	}

	selection, err := selectFromList(devices, "elgato", "sony")
	require.NoError(t, err)
	require.Equal(t, "sony", selection.Device.ID)
	require.Contains(t, selection.Warning, "muted")
	require.True(t, selection.Fallback)
}

func TestSelectFromListUnavailablePrimaryFallsBackToDefault(t *testing.T) {
	devices := []Device{
		{ID: "headset", Description: "USB Headset", Available: false},
		{ID: "builtin", Description: "Built-in Mic", Available: true, Default: true},
	}

	selection, err := selectFromList(devices, "headset", "default")
	require.NoError(t, err)
	require.Equal(t, "builtin", selection.Device.ID)
	require.Contains(t, selection.Warning, "unavailable")
}

func TestSelectFromListFailsWhenPrimaryAndFallbackMuted(t *testing.T) {
	devices := []Device{
		{ID: "elgato", Description: "Elgato Wave 3 Mono", Available: true, Muted: true, Default: true},
	}

	_, err := selectFromList(devices, "default", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "muted")
}

func TestSelectFromListUnknownInput(t *testing.T) {
	devices := []Device{{ID: "elgato", Description: "Elgato Wave 3 Mono", Available: true, Default: true}}

	_, err := selectFromList(devices, "missing", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "did not match")

	_, err = selectFromList(nil, "default", "default")
	require.Error(t, err)
}

func TestDeviceMatchesByIDAndDescription(t *testing.T) {
	dev := Device{ID: "alsa_input.usb-elgato", Description: "Elgato Wave 3 Mono"}
	require.True(t, deviceMatches(dev, "elgato"))
	require.True(t, deviceMatches(dev, "wave 3"))
	require.False(t, deviceMatches(dev, "missing"))
	require.False(t, deviceMatches(dev, ""))
}

func TestStateString(t *testing.T) {
	require.Equal(t, "running", stateString(0))
	require.Equal(t, "idle", stateString(1))
	require.Equal(t, "suspended", stateString(2))
	require.Equal(t, "unknown(99)", stateString(99))
}

func TestListInputsFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := ListInputs(context.Background())
	require.Error(t, err)

	_, err = ListDevices(context.Background())
	require.Error(t, err)
}

func TestMicrophoneCheck(t *testing.T) {
	mic := Microphone{
		Input: "default",
		list: func(context.Context) ([]Device, error) {
			return []Device{{ID: "builtin", Available: true, Default: true}}, nil
		},
	}
	selection, err := mic.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, "builtin", selection.Device.ID)

	mic.list = func(context.Context) ([]Device, error) {
		return []Device{{ID: "builtin", Available: true, Muted: true, Default: true}}, nil
	}
	_, err = mic.Check(context.Background())
	require.ErrorIs(t, err, ErrMicrophoneDenied)
}

func TestMicrophoneCheckWithoutPulse(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := Microphone{Input: "default"}.Check(context.Background())
	require.ErrorIs(t, err, ErrMicrophoneDenied)
}
