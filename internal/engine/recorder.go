package engine

import (
	"errors"
	"sync"

	"github.com/duoscope/duoscope/internal/wav"
)

var (
	// ErrNotRunning is returned when capture is requested on a stopped
	// engine.
	ErrNotRunning = errors.New("engine: not running")
	// ErrCaptureActive is returned when a capture is started twice.
	ErrCaptureActive = errors.New("engine: capture already active")
	// ErrNoCapture is returned when stopping a capture that never started.
	ErrNoCapture = errors.New("engine: no capture active")
)

// BusRecorder captures one channel's post-gain output bus into an in-memory
// WAV blob. It implements the loudness package's Recorder contract; all its
// failure modes are absorbed there as null measurements.
type BusRecorder struct {
	engine  *Engine
	channel Channel

	mu      sync.Mutex
	active  bool
	samples []float32
}

// StartCapture begins accumulating the channel's rendered samples. Fails if
// the engine is stopped or a capture is already running on this bus.
func (r *BusRecorder) StartCapture() error {
	if !r.engine.Running() {
		return ErrNotRunning
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return ErrCaptureActive
	}
	r.active = true
	r.samples = r.samples[:0]
	return nil
}

// StopCapture ends the capture and returns it encoded as a mono PCM16 WAV
// blob.
func (r *BusRecorder) StopCapture() ([]byte, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return nil, ErrNoCapture
	}
	r.active = false
	captured := make([]float32, len(r.samples))
	copy(captured, r.samples)
	r.mu.Unlock()

	return wav.Encode(captured, r.engine.SampleRate(), 1)
}

// append is called from the render loop with every post-gain block.
func (r *BusRecorder) append(block []float32) {
	r.mu.Lock()
	if r.active {
		r.samples = append(r.samples, block...)
	}
	r.mu.Unlock()
}
