package app

import (
	"context"
	"time"

	"github.com/ayusman/airpointer/internal/capture"
	"github.com/ayusman/airpointer/internal/detector"
	"github.com/ayusman/airpointer/internal/gesture"
)

// runPipeline reads, detects and steps once per camera frame interval.
func (a *App) runPipeline(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	fps := a.config.Camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			a.processFrame()
		}
	}
}

// processFrame runs one tick. Read and detect errors skip the frame without
// touching decoder state.
func (a *App) processFrame() {
	// Disabled ticks still reach the decoder as empty frames.
	if !a.IsEnabled() {
		a.Step(nil)
		return
	}

	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		a.skipped.Add(1)
		a.logger.Warn("error reading frame", "error", err)
		return
	}

	hands, err := a.config.Detector.Detect(frame)
	if frame != nil {
		frame.Close()
	}
	if err != nil {
		a.skipped.Add(1)
		a.logger.Warn("error detecting hands", "error", err)
		return
	}

	a.Step(hands)
}

// Step decodes one frame of detections. The most confident hand is used;
// no hands, or a disabled app, is an empty frame. The resulting event is
// dispatched, journaled when discrete, and published.
func (a *App) Step(hands []detector.HandLandmarks) gesture.Event {
	a.stepMu.Lock()

	var frame gesture.HandFrame
	if a.IsEnabled() {
		frame = gesture.FrameFromLandmarks(detector.BestHand(hands), a.width, a.height)
	}

	event, next := a.config.Decoder.Decode(frame, a.state)
	a.state = next
	a.stepMu.Unlock()

	a.frames.Add(1)
	if event.Kind == gesture.None {
		return event
	}

	a.config.Dispatcher.Dispatch(event)
	a.journal(event)

	if a.config.Publisher != nil {
		a.config.Publisher.Publish(event)
	}

	a.mu.Lock()
	a.last = event
	observers := a.observers
	a.mu.Unlock()

	for _, fn := range observers {
		fn(event)
	}
	return event
}

// journal records Click and Scroll in the current session. Move is too
// frequent to keep.
func (a *App) journal(e gesture.Event) {
	if a.config.Store == nil || !e.Kind.Discrete() {
		return
	}
	sessionID := a.SessionID()
	if sessionID == "" {
		return
	}
	if _, err := a.config.Store.Events().Record(sessionID, e); err != nil {
		a.logger.Warn("failed to journal event", "kind", e.Kind, "error", err)
	}
}
