package engine

import "fmt"

// Output drives the engine's render loop and delivers samples to an audio
// device. Exactly one output owns the render goroutine.
type Output interface {
	// Start begins pulling rendered audio from the engine.
	Start() error
	// Stop pauses playback without releasing the device.
	Stop() error
	// Close releases the device. The output is unusable afterwards.
	Close() error
}

// NewOutput constructs the backend named by kind: "oto" (default system
// audio), "portaudio", or "none" (headless pump that renders at wall-clock
// rate without a device).
func NewOutput(kind string, e *Engine) (Output, error) {
	switch kind {
	case "oto":
		return newOtoOutput(e)
	case "portaudio":
		return newPortAudioOutput(e)
	case "none":
		return newPumpOutput(e), nil
	default:
		return nil, fmt.Errorf("engine: unknown output backend %q", kind)
	}
}
