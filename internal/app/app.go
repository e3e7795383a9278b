// Package app runs the camera to pointer pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ayusman/airpointer/internal/capture"
	"github.com/ayusman/airpointer/internal/detector"
	"github.com/ayusman/airpointer/internal/gesture"
	"github.com/ayusman/airpointer/internal/inject"
	"github.com/ayusman/airpointer/internal/store"
)

// Publisher receives every decoded event other than None.
type Publisher interface {
	Publish(e gesture.Event)
}

// Config holds the collaborators of an App. Store and Publisher are optional.
type Config struct {
	Profile    string
	Camera     capture.Camera
	Detector   detector.Detector
	Decoder    *gesture.Decoder
	Dispatcher *inject.Dispatcher
	Store      *store.Store
	Publisher  Publisher
	Logger     *slog.Logger
}

// App owns the decoder state and drives it one frame at a time.
type App struct {
	config Config
	logger *slog.Logger
	width  int
	height int

	mu        sync.RWMutex
	enabled   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	sessionID string
	observers []func(gesture.Event)
	toggles   []func(bool)
	last      gesture.Event

	// stepMu serializes Step so state has a single writer.
	stepMu sync.Mutex
	state  gesture.State

	frames  atomic.Uint64
	skipped atomic.Uint64
}

// New creates an App. Detection starts enabled unless the store remembers
// it being switched off for this profile.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if config.Detector == nil {
		return nil, errors.New("app: detector is required")
	}
	if config.Decoder == nil {
		return nil, errors.New("app: decoder is required")
	}
	if config.Dispatcher == nil {
		return nil, errors.New("app: dispatcher is required")
	}

	w, h := config.Dispatcher.ScreenSize()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("app: invalid screen size %dx%d", w, h)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled := true
	if config.Store != nil {
		enabled = config.Store.Settings().Bool(enabledKey(config.Profile), true)
	}

	return &App{
		config:  config,
		logger:  logger,
		width:   w,
		height:  h,
		enabled: enabled,
	}, nil
}

func enabledKey(profile string) string {
	if profile == "" {
		return "enabled"
	}
	return "enabled." + profile
}

// SetEnabled switches detection on or off and remembers the choice.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	toggles := a.toggles
	a.mu.Unlock()

	if !changed {
		return
	}
	a.logger.Info("detection toggled", "enabled", enabled)

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(enabledKey(a.config.Profile), enabled); err != nil {
			a.logger.Warn("failed to persist enabled flag", "error", err)
		}
	}

	for _, fn := range toggles {
		fn(enabled)
	}
}

// OnToggle registers fn to run whenever SetEnabled changes the flag, with
// the new value. fn runs on the caller of SetEnabled.
func (a *App) OnToggle(fn func(bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.toggles = append(a.toggles, fn)
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnEvent registers fn to run after every non-None event. fn runs on the
// pipeline goroutine and must not block.
func (a *App) OnEvent(fn func(gesture.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// LastEvent returns the most recent non-None event.
func (a *App) LastEvent() gesture.Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// State returns a copy of the decoder state.
func (a *App) State() gesture.State {
	a.stepMu.Lock()
	defer a.stepMu.Unlock()
	return a.state
}

// SessionID returns the journal session of the current run, or "".
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

// Frames returns how many frames were decoded.
func (a *App) Frames() uint64 {
	return a.frames.Load()
}

// Skipped returns how many frames were dropped on read or detect errors.
func (a *App) Skipped() uint64 {
	return a.skipped.Load()
}

// Start opens the camera, begins a journal session and launches the frame
// loop. The loop ends when ctx is cancelled or Stop is called.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.config.Camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	if a.config.Store != nil {
		session, err := a.config.Store.Sessions().Create(a.config.Profile)
		if err != nil {
			a.config.Camera.Close()
			return fmt.Errorf("start session: %w", err)
		}
		a.sessionID = session.ID
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(ctx, a.stopCh, a.doneCh)

	a.logger.Info("detection pipeline started",
		"profile", a.config.Profile,
		"device", a.config.Camera.Device(),
		"fps", a.config.Camera.FPS(),
		"screen", fmt.Sprintf("%dx%d", a.width, a.height),
	)
	return nil
}

// Done is closed when the frame loop exits. It is nil before Start.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.doneCh
}

// Stop halts the frame loop, ends the session and releases the camera and
// detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	sessionID := a.sessionID
	a.sessionID = ""
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	if err := a.config.Camera.Close(); err != nil {
		a.logger.Warn("error closing camera", "error", err)
	}
	if err := a.config.Detector.Close(); err != nil {
		a.logger.Warn("error closing detector", "error", err)
	}

	if sessionID != "" {
		if err := a.config.Store.Sessions().End(sessionID); err != nil {
			a.logger.Warn("failed to end session", "session", sessionID, "error", err)
		}
	}

	a.logger.Info("detection pipeline stopped", "frames", a.Frames(), "skipped", a.Skipped())
}
