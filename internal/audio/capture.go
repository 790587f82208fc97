package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const chunkSizeBytes = 640 // 20ms @ 16kHz mono s16

// Utterance is one captured stretch of mono s16le PCM.
type Utterance struct {
	PCM        []byte
	SampleRate int
	Device     Device
	// Heard is false when the initial-silence timeout expired without speech.
	Heard    bool
	Duration time.Duration
}

// stream delivers fixed-size PCM chunks from one Pulse source.
type stream struct {
	client *pulse.Client
	record *pulse.RecordStream
	chunks chan []byte
	stopCh chan struct{}

	mu      sync.Mutex
	pending []byte
	stopped bool
}

func openStream(device Device) (*stream, error) {
	client, err := newClient("audio-input-microphone")
	if err != nil {
		return nil, err
	}

	source, err := client.SourceByID(device.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", device.ID, err)
	}

	s := &stream{
		client: client,
		chunks: make(chan []byte, 128),
		stopCh: make(chan struct{}),
	}

	writer := pulse.NewWriter(writerFunc(s.onPCM), pulseproto.FormatInt16LE)
	record, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(chunkSizeBytes),
		pulse.RecordMediaName("assist listening"),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}
	s.record = record
	record.Start()
	return s, nil
}

// stop halts recording. Further callbacks return io.EOF.
func (s *stream) stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	s.record.Stop()
	s.record.Close()
	s.client.Close()
}

func (s *stream) onPCM(buffer []byte) (int, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return 0, io.EOF
	}
	s.pending = append(s.pending, buffer...)
	var ready [][]byte
	for len(s.pending) >= chunkSizeBytes {
		chunk := make([]byte, chunkSizeBytes)
		copy(chunk, s.pending[:chunkSizeBytes])
		s.pending = s.pending[chunkSizeBytes:]
		ready = append(ready, chunk)
	}
	s.mu.Unlock()

	for _, chunk := range ready {
		select {
		case <-s.stopCh:
			return 0, io.EOF
		case s.chunks <- chunk:
		}
	}
	return len(buffer), nil
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}

// CaptureUtterance records from device until the endpointing rules end the
// utterance or ctx is cancelled.
func CaptureUtterance(ctx context.Context, device Device, ep Endpointing) (Utterance, error) {
	s, err := openStream(device)
	if err != nil {
		return Utterance{}, err
	}
	defer s.stop()

	return collect(ctx, s.chunks, ep, device)
}

// collect drains chunks through the endpointer.
func collect(ctx context.Context, chunks <-chan []byte, ep Endpointing, device Device) (Utterance, error) {
	detector := newEndpointer(ep)
	out := Utterance{SampleRate: SampleRate, Device: device}

	for {
		select {
		case <-ctx.Done():
			return Utterance{}, ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				out.Heard = detector.heard
				if !out.Heard {
					out.PCM = nil
				}
				out.Duration = detector.elapsed
				return out, nil
			}
			out.PCM = append(out.PCM, chunk...)
			switch detector.feed(chunk) {
			case utteranceDone:
				out.Heard = true
				out.Duration = detector.elapsed
				return out, nil
			case noSpeech:
				out.Heard = false
				out.PCM = nil
				out.Duration = detector.elapsed
				return out, nil
			}
		}
	}
}
