package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rbright/assist/internal/audio"
	"github.com/rbright/assist/internal/logging"
)

// debugArtifacts owns the optional debug sinks of one runtime.
type debugArtifacts struct {
	audioDump bool

	mu        sync.Mutex
	responses *os.File
}

// responseSink lazily opens the recognition response dump shared by every
// engine built during this runtime.
func (d *debugArtifacts) responseSink() (io.Writer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.responses != nil {
		return d.responses, nil
	}
	file, err := createDebugFile("responses", "jsonl")
	if err != nil {
		return nil, err
	}
	d.responses = file
	return file, nil
}

// writeAudio stores one captured utterance as a WAV file and returns its path.
func (d *debugArtifacts) writeAudio(pcm []byte, sampleRate int) (string, error) {
	if !d.audioDump || len(pcm) == 0 {
		return "", nil
	}
	file, err := createDebugFile("utterance", "wav")
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := audio.EncodeWAV(w, pcm, sampleRate); err != nil {
		return "", fmt.Errorf("write debug audio: %w", err)
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("flush debug audio: %w", err)
	}
	return file.Name(), nil
}

func (d *debugArtifacts) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.responses == nil {
		return nil
	}
	err := d.responses.Close()
	d.responses = nil
	return err
}

// createDebugFile creates a timestamped artifact under state/assist/debug.
func createDebugFile(prefix string, extension string) (*os.File, error) {
	stateDir, err := logging.StateDir()
	if err != nil {
		return nil, err
	}
	debugDir := filepath.Join(stateDir, "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := time.Now().UTC().Format("20060102T150405.000000000Z")
	path := filepath.Join(debugDir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open debug file %q: %w", path, err)
	}
	return file, nil
}
