//go:build !cgo

package engine

import "fmt"

// The portaudio backend binds the C portaudio library through cgo, so it is
// unavailable in pure-Go builds.
func newPortAudioOutput(e *Engine) (Output, error) {
	return nil, fmt.Errorf("engine: portaudio backend requires cgo")
}
