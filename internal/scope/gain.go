package scope

import "math"

// Display gain tuning. Attack is instant so a clipped frame is never shown;
// recovery is slow so the trace does not pump after transients.
const (
	// headroomThreshold holds the gain once the scaled peak is near full
	// scale.
	headroomThreshold = 0.98
	// silenceThreshold holds the gain during silence; creeping up on silence
	// causes a visible jump when sound returns.
	silenceThreshold = 1e-4
	// recoveryHoldFrames is how many consecutive quiet frames must pass
	// before the gain starts recovering.
	recoveryHoldFrames = 30
	// recoveryFactor is the per-frame gain multiplier during recovery.
	recoveryFactor = 1.01
	// gainCeiling is the hard upper bound on display gain.
	gainCeiling = 64.0
	// peakFloor guards the clip-avoidance division for degenerate peaks.
	peakFloor = 1e-9
)

// DisplayGain maintains a per-channel multiplicative gain that keeps the
// selected window's peak near, but never over, full scale. Fast attack, slow
// release.
type DisplayGain struct {
	gain float64
	hold int // consecutive frames since gain was last forced down or held
}

// NewDisplayGain returns a controller at unity gain.
func NewDisplayGain() *DisplayGain {
	return &DisplayGain{gain: 1}
}

// Gain returns the current display gain without advancing the state machine.
func (g *DisplayGain) Gain() float64 {
	return g.gain
}

// Reset returns the controller to unity gain. Called on playback stop.
func (g *DisplayGain) Reset() {
	g.gain = 1
	g.hold = 0
}

// Update advances the controller one frame using the chosen window's peak
// absolute sample value and returns the gain to apply to that window.
func (g *DisplayGain) Update(maxAbs float64) float64 {
	scaledMax := maxAbs * g.gain

	switch {
	case scaledMax > 1:
		// Would clip: snap down immediately.
		g.gain = 1 / math.Max(maxAbs, peakFloor)
		g.hold = 0

	case scaledMax >= headroomThreshold:
		// Near full scale already.
		g.hold = 0

	case maxAbs < silenceThreshold:
		// Silent input tells us nothing about the right gain.
		g.hold = 0

	default:
		// Quiet but not silent: after the hold period, recover 1% per frame,
		// re-checking the clip bound after each bump.
		g.hold++
		if g.hold >= recoveryHoldFrames {
			g.gain *= recoveryFactor
			if maxAbs*g.gain > 1 {
				g.gain = 1 / math.Max(maxAbs, peakFloor)
				g.hold = 0
			}
		}
	}

	if g.gain > gainCeiling {
		g.gain = gainCeiling
	}
	if math.IsNaN(g.gain) || math.IsInf(g.gain, 0) || g.gain <= 0 {
		g.gain = 1
	}
	return g.gain
}
