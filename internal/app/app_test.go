package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/airpointer/internal/capture"
	"github.com/ayusman/airpointer/internal/detector"
	"github.com/ayusman/airpointer/internal/gesture"
	"github.com/ayusman/airpointer/internal/inject"
	"github.com/ayusman/airpointer/internal/store"
	"gocv.io/x/gocv"
)

type recordingPointer struct {
	mu      sync.Mutex
	moves   [][2]int
	clicks  []string
	scrolls []int
}

func (p *recordingPointer) Move(x, y int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.moves = append(p.moves, [2]int{x, y})
}

func (p *recordingPointer) Click(button string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, button)
}

func (p *recordingPointer) Scroll(clicks int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolls = append(p.scrolls, clicks)
}

func (p *recordingPointer) ScreenSize() (int, int) { return 1000, 1000 }

func (p *recordingPointer) counts() (moves, clicks, scrolls int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.moves), len(p.clicks), len(p.scrolls)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []gesture.Event
}

func (p *recordingPublisher) Publish(e gesture.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fixture struct {
	app       *App
	camera    *capture.MockCamera
	detector  *detector.MockDetector
	pointer   *recordingPointer
	publisher *recordingPublisher
}

func newFixture(t *testing.T, s *store.Store) *fixture {
	t.Helper()

	decoder, err := gesture.NewDecoder(gesture.DefaultConfig())
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	pointer := &recordingPointer{}
	dispatcher, err := inject.NewDispatcher(pointer, inject.Options{}, nil)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}

	f := &fixture{
		camera:    capture.NewMockCamera([]*gocv.Mat{nil}, true),
		detector:  detector.NewMockDetector(),
		pointer:   pointer,
		publisher: &recordingPublisher{},
	}
	f.app, err = New(Config{
		Profile:    "pointer",
		Camera:     f.camera,
		Detector:   f.detector,
		Decoder:    decoder,
		Dispatcher: dispatcher,
		Store:      s,
		Publisher:  f.publisher,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func hands(h detector.HandLandmarks) []detector.HandLandmarks {
	return []detector.HandLandmarks{h}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	decoder, _ := gesture.NewDecoder(gesture.DefaultConfig())
	dispatcher, _ := inject.NewDispatcher(&recordingPointer{}, inject.Options{}, nil)
	camera := capture.NewMockCamera(nil, false)
	det := detector.NewMockDetector()

	tests := []struct {
		name   string
		config Config
	}{
		{"no camera", Config{Detector: det, Decoder: decoder, Dispatcher: dispatcher}},
		{"no detector", Config{Camera: camera, Decoder: decoder, Dispatcher: dispatcher}},
		{"no decoder", Config{Camera: camera, Detector: det, Dispatcher: dispatcher}},
		{"no dispatcher", Config{Camera: camera, Detector: det, Decoder: decoder}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.config); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStep_MoveThenClickWithCooldown(t *testing.T) {
	f := newFixture(t, nil)

	e := f.app.Step(hands(detector.PointingLandmarks()))
	if e.Kind != gesture.Move {
		t.Fatalf("first frame = %v, want MOVE", e)
	}
	if f.pointer.moves[0] != [2]int{580, 350} {
		t.Errorf("cursor moved to %v, want [580 350]", f.pointer.moves[0])
	}

	pinch := hands(detector.IndexMiddlePinchLandmarks())
	if e := f.app.Step(pinch); e.Kind != gesture.Click {
		t.Fatalf("pinch = %v, want CLICK", e)
	}

	// Cooldown of 5: the next four frames can only move.
	for i := 0; i < 4; i++ {
		if e := f.app.Step(pinch); e.Kind != gesture.Move {
			t.Fatalf("frame %d inside cooldown = %v, want MOVE", i+1, e)
		}
	}
	if e := f.app.Step(pinch); e.Kind != gesture.Click {
		t.Errorf("frame after cooldown = %v, want CLICK", e)
	}

	_, clicks, _ := f.pointer.counts()
	if clicks != 2 {
		t.Errorf("clicks = %d, want 2", clicks)
	}
	if f.app.LastEvent().Kind != gesture.Click {
		t.Errorf("LastEvent() = %v, want CLICK", f.app.LastEvent())
	}
}

func TestStep_Scroll(t *testing.T) {
	f := newFixture(t, nil)

	pose := detector.PointingLandmarks()
	f.app.Step(hands(pose))

	// 0.05 of a 1000px screen is a 50px drop of the fingertip.
	e := f.app.Step(hands(detector.Translate(pose, 0, 0.05)))
	if e.Kind != gesture.Scroll {
		t.Fatalf("event = %v, want SCROLL", e)
	}
	if e.Amount >= 0 {
		t.Errorf("Amount = %f, want negative for downward finger motion", e.Amount)
	}
	if len(f.pointer.scrolls) != 1 || f.pointer.scrolls[0] != 5 {
		t.Errorf("scrolls = %v, want [5]", f.pointer.scrolls)
	}
}

func TestStep_EmptyFrameForgetsPosition(t *testing.T) {
	f := newFixture(t, nil)

	pose := detector.PointingLandmarks()
	f.app.Step(hands(pose))

	if e := f.app.Step(nil); e.Kind != gesture.None {
		t.Fatalf("empty frame = %v, want NONE", e)
	}
	if f.app.State().HasPrevious {
		t.Error("empty frame should clear the previous position")
	}

	// Without a previous position a jump cannot scroll.
	if e := f.app.Step(hands(detector.Translate(pose, 0, 0.2))); e.Kind != gesture.Move {
		t.Errorf("event = %v, want MOVE", e)
	}
}

func TestStep_PartialHandKeepsState(t *testing.T) {
	f := newFixture(t, nil)

	f.app.Step(hands(detector.PointingLandmarks()))
	before := f.app.State()

	if e := f.app.Step(hands(detector.WristOnlyLandmarks())); e.Kind != gesture.None {
		t.Fatalf("wrist-only frame = %v, want NONE", e)
	}
	if f.app.State() != before {
		t.Errorf("state changed from %+v to %+v", before, f.app.State())
	}
	if f.publisher.count() != 1 {
		t.Errorf("published %d events, want 1", f.publisher.count())
	}
}

func TestStep_PicksMostConfidentHand(t *testing.T) {
	f := newFixture(t, nil)

	low := detector.IndexMiddlePinchLandmarks()
	low.Score = 0.3
	high := detector.PointingLandmarks()

	if e := f.app.Step([]detector.HandLandmarks{low, high}); e.Kind != gesture.Move {
		t.Errorf("event = %v, want MOVE from the confident hand", e)
	}
}

func TestSetEnabled(t *testing.T) {
	s := newStore(t)
	f := newFixture(t, s)

	if !f.app.IsEnabled() {
		t.Fatal("app should start enabled")
	}

	f.app.Step(hands(detector.PointingLandmarks()))
	f.app.SetEnabled(false)

	if e := f.app.Step(hands(detector.IndexMiddlePinchLandmarks())); e.Kind != gesture.None {
		t.Errorf("disabled step = %v, want NONE", e)
	}
	if f.app.State().HasPrevious {
		t.Error("disabled frames should be treated as empty")
	}

	// A second app on the same store remembers the switch.
	again := newFixture(t, s)
	if again.app.IsEnabled() {
		t.Error("enabled flag was not persisted")
	}

	f.app.SetEnabled(true)
	if e := f.app.Step(hands(detector.IndexMiddlePinchLandmarks())); e.Kind != gesture.Click {
		t.Errorf("re-enabled step = %v, want CLICK", e)
	}
}

func TestOnEvent(t *testing.T) {
	f := newFixture(t, nil)

	var seen []gesture.EventKind
	f.app.OnEvent(func(e gesture.Event) {
		seen = append(seen, e.Kind)
	})

	f.app.Step(nil)
	f.app.Step(hands(detector.PointingLandmarks()))
	f.app.Step(hands(detector.IndexMiddlePinchLandmarks()))

	if len(seen) != 2 || seen[0] != gesture.Move || seen[1] != gesture.Click {
		t.Errorf("observed %v, want [MOVE CLICK]", seen)
	}
}

func TestOnToggle(t *testing.T) {
	f := newFixture(t, nil)

	var seen []bool
	f.app.OnToggle(func(enabled bool) {
		seen = append(seen, enabled)
	})

	f.app.SetEnabled(true) // already enabled
	f.app.SetEnabled(false)
	f.app.SetEnabled(false)
	f.app.SetEnabled(true)

	if len(seen) != 2 || seen[0] || !seen[1] {
		t.Errorf("toggles = %v, want [false true]", seen)
	}
}

func TestProcessFrame_ErrorsSkipFrame(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.camera.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	f.detector.SetHands(hands(detector.PointingLandmarks()))
	f.app.processFrame()
	before := f.app.State()
	if !before.HasPrevious {
		t.Fatal("expected a tracked position after one frame")
	}

	f.camera.SetReadError(errors.New("usb reset"))
	f.app.processFrame()
	f.camera.SetReadError(nil)

	f.detector.SetError(errors.New("service crashed"))
	f.app.processFrame()

	if f.app.Skipped() != 2 {
		t.Errorf("Skipped() = %d, want 2", f.app.Skipped())
	}
	if f.app.State() != before {
		t.Errorf("state changed on failed frames: %+v -> %+v", before, f.app.State())
	}
	if f.app.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", f.app.Frames())
	}
}

func TestProcessFrame_DisabledSkipsCamera(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.camera.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	f.app.SetEnabled(false)
	f.app.processFrame()

	if f.camera.Reads() != 0 || f.detector.Calls() != 0 {
		t.Errorf("disabled tick read %d frames and ran %d detections", f.camera.Reads(), f.detector.Calls())
	}
	if f.app.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", f.app.Frames())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestApp_StartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping pipeline loop test")
	}

	s := newStore(t)
	f := newFixture(t, s)
	f.detector.SetHands(hands(detector.IndexMiddlePinchLandmarks()))

	if err := f.app.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	sessionID := f.app.SessionID()
	if sessionID == "" {
		t.Fatal("Start() should open a journal session")
	}

	waitFor(t, func() bool { return f.app.Frames() >= 3 })
	f.app.Stop()

	if f.camera.IsOpen() {
		t.Error("camera should be closed after Stop")
	}
	if !f.detector.Closed() {
		t.Error("detector should be closed after Stop")
	}

	session, err := s.Sessions().Get(sessionID)
	if err != nil {
		t.Fatalf("Sessions().Get() error = %v", err)
	}
	if session.EndedAt == nil {
		t.Error("session should be ended after Stop")
	}

	events, err := s.Events().ListBySession(sessionID)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected journaled clicks")
	}
	for _, e := range events {
		if e.Kind != gesture.Click {
			t.Errorf("journaled %v, only CLICK and SCROLL are kept", e.Kind)
		}
	}
	if f.publisher.count() < len(events) {
		t.Errorf("published %d events, journaled %d", f.publisher.count(), len(events))
	}
}

func TestApp_ContextCancelStopsLoop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping pipeline loop test")
	}

	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	if err := f.app.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	done := f.app.Done()
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("loop did not exit on cancel")
	}
	f.app.Stop()
}
