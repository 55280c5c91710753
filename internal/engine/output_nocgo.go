//go:build !cgo && linux

package engine

import "fmt"

// On Linux oto binds ALSA through cgo, so the backend is unavailable in
// pure-Go builds.
func newOtoOutput(e *Engine) (Output, error) {
	return nil, fmt.Errorf("engine: oto backend requires cgo on linux")
}
