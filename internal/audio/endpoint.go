package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// SampleRate is the capture rate expected by both recognition engines.
const SampleRate = 16000

// Endpointing decides when an utterance starts and ends.
type Endpointing struct {
	// InitialSilence is how long to wait for speech before giving up.
	InitialSilence time.Duration
	// EndSilence is the trailing quiet that ends an utterance.
	EndSilence time.Duration
	// MaxUtterance caps the whole capture.
	MaxUtterance time.Duration
	// Threshold is the RMS level, in int16 units, that counts as speech.
	Threshold float64
}

func (e Endpointing) withDefaults() Endpointing {
	if e.InitialSilence <= 0 {
		e.InitialSilence = 5 * time.Second
	}
	if e.EndSilence <= 0 {
		e.EndSilence = time.Second
	}
	if e.MaxUtterance <= 0 {
		e.MaxUtterance = 30 * time.Second
	}
	if e.Threshold <= 0 {
		e.Threshold = 500
	}
	return e
}

type verdict int

const (
	keepListening verdict = iota
	utteranceDone
	noSpeech
)

type endpointer struct {
	cfg     Endpointing
	elapsed time.Duration
	quiet   time.Duration
	heard   bool
}

func newEndpointer(cfg Endpointing) *endpointer {
	return &endpointer{cfg: cfg.withDefaults()}
}

// feed consumes one chunk of mono s16le PCM at SampleRate.
func (e *endpointer) feed(chunk []byte) verdict {
	d := chunkDuration(len(chunk))
	e.elapsed += d

	if rms(chunk) >= e.cfg.Threshold {
		e.heard = true
		e.quiet = 0
	} else {
		e.quiet += d
	}

	switch {
	case !e.heard && e.elapsed >= e.cfg.InitialSilence:
		return noSpeech
	case e.heard && e.quiet >= e.cfg.EndSilence:
		return utteranceDone
	case e.elapsed >= e.cfg.MaxUtterance:
		if e.heard {
			return utteranceDone
		}
		return noSpeech
	default:
		return keepListening
	}
}

func chunkDuration(n int) time.Duration {
	samples := n / 2
	return time.Duration(samples) * time.Second / SampleRate
}

func rms(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}
	var sum float64
	for i := 0; i+1 < len(pcm); i += 2 {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i:])))
		sum += v * v
	}
	return math.Sqrt(sum / float64(samples))
}
