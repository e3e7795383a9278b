// Package capture provides camera capture functionality using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")

	// ErrNoCamera is returned when none of the candidate devices produced a frame.
	ErrNoCamera = errors.New("no working camera found")
)

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
	Device() int
}

// Options configures a camera.
type Options struct {
	// Devices are the capture indices tried in order by Open.
	Devices []int
	Width   int
	Height  int
	FPS     int
	// Mirror flips frames horizontally so on-screen motion follows the hand.
	Mirror bool
}

// DefaultOptions probes the first three devices at 640x480 with mirroring on.
func DefaultOptions() Options {
	return Options{
		Devices: []int{0, 1, 2},
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		FPS:     DefaultFPS,
		Mirror:  true,
	}
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	opts     Options
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
	fps      int
}

// NewCamera creates a new Camera. Nothing is opened until Open.
func NewCamera(opts Options) Camera {
	if len(opts.Devices) == 0 {
		opts.Devices = []int{0}
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}

	return &cameraImpl{
		opts:     opts,
		deviceID: -1,
		fps:      opts.FPS,
	}
}

// Open opens the first candidate device that delivers a frame.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	id, err := probe(c.opts.Devices, func(id int) error {
		capture, err := c.openDevice(id)
		if err != nil {
			return err
		}
		c.capture = capture
		return nil
	})
	if err != nil {
		return err
	}

	c.deviceID = id
	c.running = true

	return nil
}

func (c *cameraImpl) openDevice(id int) (*gocv.VideoCapture, error) {
	capture, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, err
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.opts.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.opts.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	// Some devices open fine but never deliver a frame.
	mat := gocv.NewMat()
	defer mat.Close()
	if ok := capture.Read(&mat); !ok || mat.Empty() {
		capture.Close()
		return nil, errors.New("device returned no frame")
	}

	return capture, nil
}

// probe calls try for each device in order and returns the first that succeeds.
func probe(devices []int, try func(id int) error) (int, error) {
	var lastErr error
	for _, id := range devices {
		err := try(id)
		if err == nil {
			return id, nil
		}
		lastErr = fmt.Errorf("device %d: %w", id, err)
	}
	if lastErr == nil {
		return -1, ErrNoCamera
	}
	return -1, fmt.Errorf("%w: %v", ErrNoCamera, lastErr)
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera, mirrored if configured.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	if !c.opts.Mirror {
		return &mat, nil
	}

	mirrored := Mirror(mat)
	mat.Close()
	return &mirrored, nil
}

// Mirror returns a horizontally flipped copy of src.
func Mirror(src gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Flip(src, &dst, 1)
	return dst
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// Device returns the index of the opened device, or -1 before Open succeeds.
func (c *cameraImpl) Device() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.deviceID
}
