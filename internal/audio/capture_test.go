package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func tone(amplitude int16, d time.Duration) [][]byte {
	n := int(d / (20 * time.Millisecond))
	chunks := make([][]byte, 0, n)
	for range n {
		chunk := make([]byte, chunkSizeBytes)
		for i := 0; i < len(chunk); i += 2 {
			v := amplitude
			if (i/2)%2 == 1 {
				v = -amplitude
			}
			binary.LittleEndian.PutUint16(chunk[i:], uint16(v))
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func feedAll(chunks ...[][]byte) <-chan []byte {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make(chan []byte, total)
	for _, c := range chunks {
		for _, chunk := range c {
			out <- chunk
		}
	}
	close(out)
	return out
}

var testEndpointing = Endpointing{
	InitialSilence: 200 * time.Millisecond,
	EndSilence:     100 * time.Millisecond,
	MaxUtterance:   2 * time.Second,
}

func TestCollectEndsAfterTrailingSilence(t *testing.T) {
	chunks := feedAll(
		tone(0, 60*time.Millisecond),
		tone(3000, 300*time.Millisecond),
		tone(0, 500*time.Millisecond),
	)

	utt, err := collect(context.Background(), chunks, testEndpointing, Device{ID: "mic"})
	require.NoError(t, err)
	require.True(t, utt.Heard)
	require.Equal(t, SampleRate, utt.SampleRate)
	require.Equal(t, 460*time.Millisecond, utt.Duration)
	require.Len(t, utt.PCM, 23*chunkSizeBytes)
}

func TestCollectGivesUpWithoutSpeech(t *testing.T) {
	utt, err := collect(context.Background(), feedAll(tone(10, time.Second)), testEndpointing, Device{})
	require.NoError(t, err)
	require.False(t, utt.Heard)
	require.Empty(t, utt.PCM)
	require.Equal(t, 200*time.Millisecond, utt.Duration)
}

func TestCollectStopsAtMaxUtterance(t *testing.T) {
	utt, err := collect(context.Background(), feedAll(tone(3000, 5*time.Second)), testEndpointing, Device{})
	require.NoError(t, err)
	require.True(t, utt.Heard)
	require.Equal(t, 2*time.Second, utt.Duration)
}

func TestCollectHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := collect(ctx, make(chan []byte), testEndpointing, Device{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRMS(t *testing.T) {
	require.Zero(t, rms(nil))
	require.InDelta(t, 1000, rms(tone(1000, 20*time.Millisecond)[0]), 0.001)
}

func TestEncodeWAVWritesHeaderAndPCM(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0xff, 0x7f}
	var buf bytes.Buffer
	require.NoError(t, EncodeWAV(&buf, pcm, 16000))

	data := buf.Bytes()
	require.Len(t, data, 48)
	require.Equal(t, "RIFF", string(data[0:4]))
	require.Equal(t, uint32(40), binary.LittleEndian.Uint32(data[4:8]))
	require.Equal(t, "WAVEfmt ", string(data[8:16]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[22:24]))
	require.Equal(t, uint32(16000), binary.LittleEndian.Uint32(data[24:28]))
	require.Equal(t, uint32(32000), binary.LittleEndian.Uint32(data[28:32]))
	require.Equal(t, "data", string(data[36:40]))
	require.Equal(t, pcm, data[44:])
}
