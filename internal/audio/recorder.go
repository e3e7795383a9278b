// Package audio captures fixed-length microphone clips and writes them as WAV.
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// ErrAlreadyRecording is returned by Start while a capture is running.
var ErrAlreadyRecording = errors.New("already recording")

// Source produces mono float32 clips in [-1, 1].
type Source interface {
	Record(ctx context.Context, d time.Duration) ([]float32, error)
	SampleRate() uint32
}

// Recorder captures audio from the default microphone into a float32 buffer.
type Recorder struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate uint32
	channels   uint32

	mu        sync.Mutex
	buf       []float32
	recording bool
}

// NewRecorder creates a new audio recorder. Call Close() when done.
func NewRecorder(sampleRate, channels uint32) (*Recorder, error) {
	if sampleRate == 0 || channels == 0 {
		return nil, fmt.Errorf("invalid audio format: %d Hz, %d channels", sampleRate, channels)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing audio context: %w", err)
	}

	return &Recorder{
		ctx:        ctx,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// SampleRate returns the capture rate in Hz.
func (r *Recorder) SampleRate() uint32 {
	return r.sampleRate
}

// Record captures d of audio, or less if ctx ends first, and returns it
// downmixed to mono.
func (r *Recorder) Record(ctx context.Context, d time.Duration) ([]float32, error) {
	if err := r.Start(); err != nil {
		return nil, err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		r.Stop()
		return nil, ctx.Err()
	}

	return Downmix(r.Stop(), int(r.channels)), nil
}

// Start begins capturing audio from the default microphone.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.buf = r.buf[:0]
	r.recording = true
	r.mu.Unlock()

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatF32
	deviceCfg.Capture.Channels = r.channels
	deviceCfg.SampleRate = r.sampleRate

	device, err := malgo.InitDevice(r.ctx.Context, deviceCfg, malgo.DeviceCallbacks{
		Data: r.onData,
	})
	if err != nil {
		r.setRecording(false)
		return fmt.Errorf("initializing capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		r.setRecording(false)
		return fmt.Errorf("starting capture device: %w", err)
	}

	r.mu.Lock()
	r.device = device
	r.mu.Unlock()

	return nil
}

// Stop ends the capture and returns a copy of the interleaved samples.
func (r *Recorder) Stop() []float32 {
	r.mu.Lock()
	device := r.device
	r.device = nil
	wasRecording := r.recording
	r.recording = false
	r.mu.Unlock()

	// Uninit waits for the data callback, which takes r.mu.
	if device != nil {
		device.Uninit()
	}
	if !wasRecording {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]float32, len(r.buf))
	copy(result, r.buf)
	return result
}

// IsRecording returns whether the recorder is currently capturing audio.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Close releases all audio resources.
func (r *Recorder) Close() error {
	r.Stop()

	if r.ctx != nil {
		if err := r.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninitializing audio context: %w", err)
		}
		r.ctx.Free()
		r.ctx = nil
	}

	return nil
}

func (r *Recorder) setRecording(v bool) {
	r.mu.Lock()
	r.recording = v
	r.mu.Unlock()
}

// onData is the malgo callback invoked when audio data is available.
func (r *Recorder) onData(_, pSample []byte, frameCount uint32) {
	samples := bytesToFloat32(pSample, frameCount*r.channels)

	r.mu.Lock()
	if r.recording {
		r.buf = append(r.buf, samples...)
	}
	r.mu.Unlock()
}

// bytesToFloat32 converts raw little-endian float32 bytes to samples.
func bytesToFloat32(data []byte, sampleCount uint32) []float32 {
	samples := make([]float32, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 4
		if offset+4 > uint32(len(data)) {
			break
		}
		bits := binary.LittleEndian.Uint32(data[offset : offset+4])
		samples = append(samples, math.Float32frombits(bits))
	}
	return samples
}

// Downmix averages interleaved frames into one channel.
func Downmix(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}
	mono := make([]float32, len(samples)/channels)
	for i := range mono {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// RMS returns the root mean square level of samples, 0 for an empty clip.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
