package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	seq    [][]HandLandmarks
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetSequence queues per-call results. Each Detect takes the next entry;
// once the queue is empty Detect falls back to the hands from SetHands.
func (m *MockDetector) SetSequence(seq [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq = seq
}

// Pending returns how many queued results are left.
func (m *MockDetector) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seq)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.seq) > 0 {
		hands := m.seq[0]
		m.seq = m.seq[1:]
		return hands, nil
	}
	return m.hands, nil
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the mock as closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// PointingLandmarks returns a right hand with all fingers extended and spread,
// the resting pose for moving the cursor.
func PointingLandmarks() HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Set(Wrist, Point3D{X: 0.5, Y: 0.8})

	// Thumb out to the side
	h.Set(ThumbCMC, Point3D{X: 0.55, Y: 0.75, Z: 0.02})
	h.Set(ThumbMCP, Point3D{X: 0.62, Y: 0.70, Z: 0.03})
	h.Set(ThumbIP, Point3D{X: 0.68, Y: 0.65, Z: 0.03})
	h.Set(ThumbTip, Point3D{X: 0.73, Y: 0.60, Z: 0.03})

	h.Set(IndexMCP, Point3D{X: 0.55, Y: 0.68})
	h.Set(IndexPIP, Point3D{X: 0.57, Y: 0.55})
	h.Set(IndexDIP, Point3D{X: 0.58, Y: 0.45})
	h.Set(IndexTip, Point3D{X: 0.58, Y: 0.35})

	h.Set(MiddleMCP, Point3D{X: 0.50, Y: 0.66})
	h.Set(MiddlePIP, Point3D{X: 0.50, Y: 0.52})
	h.Set(MiddleDIP, Point3D{X: 0.50, Y: 0.40})
	h.Set(MiddleTip, Point3D{X: 0.50, Y: 0.28})

	h.Set(RingMCP, Point3D{X: 0.45, Y: 0.68})
	h.Set(RingPIP, Point3D{X: 0.43, Y: 0.55})
	h.Set(RingDIP, Point3D{X: 0.42, Y: 0.45})
	h.Set(RingTip, Point3D{X: 0.42, Y: 0.35})

	h.Set(PinkyMCP, Point3D{X: 0.40, Y: 0.70})
	h.Set(PinkyPIP, Point3D{X: 0.37, Y: 0.60})
	h.Set(PinkyDIP, Point3D{X: 0.35, Y: 0.50})
	h.Set(PinkyTip, Point3D{X: 0.34, Y: 0.42})

	return h
}

// IndexMiddlePinchLandmarks returns the pointing pose with the middle
// fingertip leaning onto the index fingertip.
func IndexMiddlePinchLandmarks() HandLandmarks {
	h := PointingLandmarks()
	h.Set(MiddleDIP, Point3D{X: 0.54, Y: 0.42})
	h.Set(MiddleTip, Point3D{X: 0.565, Y: 0.34})
	return h
}

// ThumbMiddlePinchLandmarks returns the pointing pose with the middle finger
// bent down onto the thumb tip.
func ThumbMiddlePinchLandmarks() HandLandmarks {
	h := PointingLandmarks()
	h.Set(MiddleDIP, Point3D{X: 0.51, Y: 0.45, Z: -0.03})
	h.Set(MiddleTip, Point3D{X: 0.52, Y: 0.50, Z: -0.02})
	h.Set(ThumbIP, Point3D{X: 0.60, Y: 0.58, Z: 0.01})
	h.Set(ThumbTip, Point3D{X: 0.54, Y: 0.52})
	return h
}

// WristOnlyLandmarks returns a hand where the model reported nothing but the
// wrist, as happens when the fingers leave the frame.
func WristOnlyLandmarks() HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.6,
	}
	h.Set(Wrist, Point3D{X: 0.5, Y: 0.95})
	return h
}

// Translate returns a copy of h with every present landmark shifted by dx, dy.
func Translate(h HandLandmarks, dx, dy float64) HandLandmarks {
	for i := 0; i < NumLandmarks; i++ {
		if !h.Present[i] {
			continue
		}
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}
