package pipeline

import (
	"context"
	"log/slog"

	"github.com/rbright/assist/internal/audio"
	"github.com/rbright/assist/internal/speech"
)

// microphoneSource captures utterances from the configured Pulse source.
type microphoneSource struct {
	resolve func(ctx context.Context) (audio.Selection, error)
	debug   *debugArtifacts
	logger  *slog.Logger
	capture func(ctx context.Context, device audio.Device, ep audio.Endpointing) (audio.Utterance, error)
}

func (m *microphoneSource) Capture(ctx context.Context, opts speech.CaptureOptions) (speech.Utterance, error) {
	selection, err := m.resolve(ctx)
	if err != nil {
		return speech.Utterance{}, err
	}
	if selection.Warning != "" {
		m.logger.Warn("audio input fallback", "warning", selection.Warning)
	}

	utt, err := m.capture(ctx, selection.Device, audio.Endpointing{
		InitialSilence: opts.InitialSilence,
		EndSilence:     opts.EndSilence,
		MaxUtterance:   opts.MaxUtterance,
	})
	if err != nil {
		return speech.Utterance{}, err
	}

	m.logger.Debug("utterance captured",
		"device", selection.Device.ID,
		"heard", utt.Heard,
		"bytes", len(utt.PCM),
		"duration_ms", utt.Duration.Milliseconds(),
	)
	if path, err := m.debug.writeAudio(utt.PCM, utt.SampleRate); err != nil {
		m.logger.Warn("unable to write debug audio dump", "error", err.Error())
	} else if path != "" {
		m.logger.Debug("debug audio dump written", "path", path)
	}

	if !utt.Heard {
		return speech.Utterance{SampleRate: utt.SampleRate}, nil
	}
	return speech.Utterance{PCM: utt.PCM, SampleRate: utt.SampleRate}, nil
}

// speakerSink plays synthesized audio on the configured Pulse sink.
type speakerSink struct {
	sink string
	play func(ctx context.Context, sink string, pcm []byte, sampleRate int) error
}

func (s speakerSink) Play(ctx context.Context, a speech.Audio) error {
	return s.play(ctx, s.sink, a.PCM, a.SampleRate)
}
