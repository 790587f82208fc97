package indicator

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/rbright/assist/internal/audio"
)

type cueKind int

const (
	cueListen cueKind = iota + 1
	cueComplete
	cueError
)

func (k cueKind) String() string {
	switch k {
	case cueListen:
		return "listen"
	case cueComplete:
		return "complete"
	case cueError:
		return "error"
	default:
		return "unknown"
	}
}

const cueSampleRate = 16000

type toneSpec struct {
	frequencyHz float64
	duration    time.Duration
	volume      float64
}

var cueTones = map[cueKind][]toneSpec{
	cueListen: {
		{frequencyHz: 880, duration: 70 * time.Millisecond, volume: 0.18},
		{frequencyHz: 1175, duration: 70 * time.Millisecond, volume: 0.18},
	},
	cueComplete: {
		{frequencyHz: 740, duration: 65 * time.Millisecond, volume: 0.18},
		{frequencyHz: 988, duration: 90 * time.Millisecond, volume: 0.18},
	},
	cueError: {
		{frequencyHz: 480, duration: 75 * time.Millisecond, volume: 0.18},
		{frequencyHz: 360, duration: 90 * time.Millisecond, volume: 0.18},
	},
}

var (
	playPCM = audio.Play
	beep    = beeep.Beep
)

// emitCue plays the synthesized cue on the default sink. When Pulse is
// unavailable it falls back to a terminal beep at the cue's first tone.
func emitCue(ctx context.Context, kind cueKind) error {
	tones, ok := cueTones[kind]
	if !ok {
		return fmt.Errorf("unknown cue %d", kind)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := playPCM(ctx, "", encodePCM(synthesizeCue(tones)), cueSampleRate)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	first := tones[0]
	if beepErr := beep(first.frequencyHz, int(first.duration.Milliseconds())); beepErr != nil {
		return fmt.Errorf("play cue %s: %w (beep fallback: %v)", kind, err, beepErr)
	}
	return nil
}

func encodePCM(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func synthesizeCue(parts []toneSpec) []int16 {
	if len(parts) == 0 {
		return nil
	}
	gap := samplesForDuration(22 * time.Millisecond)

	var pcm []int16
	for i, part := range parts {
		pcm = append(pcm, synthesizeTone(part)...)
		if i < len(parts)-1 {
			pcm = append(pcm, make([]int16, gap)...)
		}
	}
	return pcm
}

// synthesizeTone renders a sine with a short linear attack and release.
func synthesizeTone(spec toneSpec) []int16 {
	n := samplesForDuration(spec.duration)
	if n <= 0 || spec.frequencyHz <= 0 || spec.volume <= 0 {
		return nil
	}

	ramp := min(n/10, cueSampleRate/200)
	ramp = max(ramp, 1)

	pcm := make([]int16, n)
	for i := range n {
		envelope := 1.0
		if i < ramp {
			envelope = float64(i) / float64(ramp)
		}
		if tail := n - i - 1; tail < ramp {
			envelope = math.Min(envelope, float64(tail)/float64(ramp))
		}
		t := float64(i) / cueSampleRate
		pcm[i] = int16(math.Round(math.Sin(2*math.Pi*spec.frequencyHz*t) * spec.volume * envelope * 32767))
	}
	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
