// Package wakeword listens to the microphone in fixed-length clips and fires
// an action when a transcript contains the configured phrase.
package wakeword

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrWhisperNotFound is returned when the whisper binary is not on PATH.
var ErrWhisperNotFound = errors.New("whisper binary not found")

// Transcriber turns a WAV file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

// WhisperCLI runs a whisper.cpp command line binary per clip.
type WhisperCLI struct {
	bin   string
	model string
}

// NewWhisperCLI resolves bin on PATH and returns a transcriber using model.
func NewWhisperCLI(bin, model string) (*WhisperCLI, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWhisperNotFound, bin)
	}
	return &WhisperCLI{bin: path, model: model}, nil
}

func (w *WhisperCLI) args(wavPath string) []string {
	// -nt drops timestamps, -np drops progress output.
	return []string{"-m", w.model, "-f", wavPath, "-nt", "-np"}
}

// Transcribe runs the binary on wavPath and returns its trimmed stdout.
func (w *WhisperCLI) Transcribe(ctx context.Context, wavPath string) (string, error) {
	cmd := exec.CommandContext(ctx, w.bin, w.args(wavPath)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("whisper failed: %w: %s", err, msg)
		}
		return "", fmt.Errorf("whisper failed: %w", err)
	}

	return strings.TrimSpace(stdout.String()), nil
}
