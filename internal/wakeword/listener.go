package wakeword

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/ayusman/airpointer/internal/audio"
	"github.com/ayusman/airpointer/internal/plugin"
)

// DetectFunc runs when the wake phrase is heard.
type DetectFunc func(ctx context.Context, transcript string) error

// Options configures a Listener.
type Options struct {
	// Clip is the length of each recorded chunk.
	Clip time.Duration
	// SilenceRMS skips transcription for quieter clips. Zero disables the gate.
	SilenceRMS float64
	// TempDir holds the per-clip WAV files. Empty means os.TempDir().
	TempDir  string
	OnDetect DetectFunc
}

// Listener records, transcribes and spots in a loop.
type Listener struct {
	source      audio.Source
	transcriber Transcriber
	spotter     *Spotter
	opts        Options
	logger      *slog.Logger

	clips      atomic.Int64
	detections atomic.Int64
}

// NewListener wires a Listener together.
func NewListener(src audio.Source, tr Transcriber, sp *Spotter, opts Options, logger *slog.Logger) (*Listener, error) {
	if src == nil || tr == nil || sp == nil {
		return nil, errors.New("listener needs a source, transcriber and spotter")
	}
	if opts.Clip <= 0 {
		return nil, fmt.Errorf("clip length must be positive, got %v", opts.Clip)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		source:      src,
		transcriber: tr,
		spotter:     sp,
		opts:        opts,
		logger:      logger,
	}, nil
}

// Run listens until ctx is cancelled. It returns nil on cancellation and an
// error only when recording fails.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info("listening for wake word", "phrase", l.spotter.Phrase(), "clip", l.opts.Clip)

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := l.listenOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// Clips returns how many clips were recorded.
func (l *Listener) Clips() int64 {
	return l.clips.Load()
}

// Detections returns how many times the wake phrase fired.
func (l *Listener) Detections() int64 {
	return l.detections.Load()
}

func (l *Listener) listenOnce(ctx context.Context) error {
	samples, err := l.source.Record(ctx, l.opts.Clip)
	if err != nil {
		return fmt.Errorf("record clip: %w", err)
	}
	l.clips.Add(1)

	if level := audio.RMS(samples); level < l.opts.SilenceRMS {
		l.logger.Debug("skipping silent clip", "rms", level)
		return nil
	}

	text, err := l.transcribe(ctx, samples)
	if err != nil {
		if ctx.Err() == nil {
			l.logger.Warn("transcription failed", "error", err)
		}
		return nil
	}
	if text == "" {
		return nil
	}
	l.logger.Debug("heard", "text", text)

	if !l.spotter.Spot(text) {
		return nil
	}

	l.detections.Add(1)
	l.logger.Info("wake word detected", "transcript", text)

	if l.opts.OnDetect != nil {
		if err := l.opts.OnDetect(ctx, text); err != nil {
			l.logger.Error("wake word action failed", "error", err)
		}
	}
	return nil
}

func (l *Listener) transcribe(ctx context.Context, samples []float32) (string, error) {
	f, err := os.CreateTemp(l.opts.TempDir, "wakeword-*.wav")
	if err != nil {
		return "", fmt.Errorf("create clip file: %w", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	if err := audio.WriteWAV(path, samples, int(l.source.SampleRate())); err != nil {
		return "", err
	}
	return l.transcriber.Transcribe(ctx, path)
}

// PluginAction returns a DetectFunc that invokes action on the named plugin
// with the transcript as a parameter.
func PluginAction(m *plugin.Manager, exec *plugin.Executor, name, action string) DetectFunc {
	return func(ctx context.Context, transcript string) error {
		params, err := json.Marshal(map[string]string{"transcript": transcript})
		if err != nil {
			return err
		}
		_, err = m.Invoke(ctx, exec, name, &plugin.Request{
			Action:  action,
			Trigger: "wakeword",
			Params:  params,
		})
		return err
	}
}
