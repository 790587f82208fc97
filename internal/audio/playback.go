package audio

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Play renders mono s16le PCM on the named sink ("" or "default" for the
// server default) and blocks until playback drains or ctx is cancelled.
func Play(ctx context.Context, sink string, pcm []byte, sampleRate int) error {
	if len(pcm) == 0 {
		return nil
	}

	client, err := newClient("audio-speakers")
	if err != nil {
		return err
	}
	defer client.Close()

	opts := []pulse.PlaybackOption{
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackMediaName("assist reply"),
	}
	if sink != "" && sink != "default" {
		target, err := client.SinkByID(sink)
		if err != nil {
			return fmt.Errorf("resolve sink %q: %w", sink, err)
		}
		opts = append(opts, pulse.PlaybackSink(target))
	}

	reader := pulse.NewReader(bytes.NewReader(pcm), pulseproto.FormatInt16LE)
	playback, err := client.NewPlayback(reader, opts...)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer playback.Close()

	return drain(ctx, playback)
}

// playbackStream is the part of *pulse.PlaybackStream that drain drives.
type playbackStream interface {
	Start()
	Drain()
	Stop()
	Close()
	Error() error
}

// drain plays s to the end. On cancellation it deletes the stream, which
// fails the pending drain request, and returns only after Drain has.
func drain(ctx context.Context, s playbackStream) error {
	done := make(chan struct{})
	go func() {
		s.Start()
		s.Drain()
		close(done)
	}()

	select {
	case <-done:
		return s.Error()
	case <-ctx.Done():
		s.Stop()
		s.Close()
		<-done
		return ctx.Err()
	}
}
