package indicator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCueTonesPresent(t *testing.T) {
	for _, kind := range []cueKind{cueListen, cueComplete, cueError} {
		require.NotEmpty(t, synthesizeCue(cueTones[kind]), kind.String())
	}
}

func TestSynthesizeToneDuration(t *testing.T) {
	got := synthesizeTone(toneSpec{frequencyHz: 440, duration: 100 * time.Millisecond, volume: 0.2})
	require.Len(t, got, samplesForDuration(100*time.Millisecond))
	require.Zero(t, got[0])
}

func TestSynthesizeToneInvalidSpecReturnsEmpty(t *testing.T) {
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 0, duration: 100 * time.Millisecond, volume: 0.2}))
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 440, duration: 0, volume: 0.2}))
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 440, duration: 100 * time.Millisecond, volume: 0}))
}

func TestEncodePCMLittleEndian(t *testing.T) {
	require.Equal(t, []byte{0x01, 0x00, 0xff, 0xff}, encodePCM([]int16{1, -1}))
}

func TestEmitCueRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := emitCue(ctx, cueListen)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEmitCueFallsBackToBeep(t *testing.T) {
	stubPlayback(t, errors.New("pulse unavailable"))

	var gotFreq float64
	var gotMS int
	origBeep := beep
	beep = func(freq float64, ms int) error {
		gotFreq, gotMS = freq, ms
		return nil
	}
	t.Cleanup(func() { beep = origBeep })

	require.NoError(t, emitCue(context.Background(), cueError))
	require.Equal(t, 480.0, gotFreq)
	require.Equal(t, 75, gotMS)
}

func TestEmitCuePlaysSixteenKilohertzPCM(t *testing.T) {
	var rate int
	var size int
	orig := playPCM
	playPCM = func(_ context.Context, sink string, pcm []byte, sampleRate int) error {
		require.Empty(t, sink)
		rate, size = sampleRate, len(pcm)
		return nil
	}
	t.Cleanup(func() { playPCM = orig })

	require.NoError(t, emitCue(context.Background(), cueComplete))
	require.Equal(t, cueSampleRate, rate)
	require.Equal(t, 2*len(synthesizeCue(cueTones[cueComplete])), size)
}

func stubPlayback(t *testing.T, err error) {
	t.Helper()
	orig := playPCM
	playPCM = func(context.Context, string, []byte, int) error { return err }
	t.Cleanup(func() { playPCM = orig })
}
