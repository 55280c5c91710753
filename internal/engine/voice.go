package engine

import "math"

// Waveform selects a channel voice's oscillator shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSaw
	WaveTriangle
)

// String returns the waveform's display name.
func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveSquare:
		return "square"
	case WaveSaw:
		return "saw"
	case WaveTriangle:
		return "triangle"
	default:
		return "unknown"
	}
}

// Voice level tuning.
const (
	// sineLevel and squareLevel are deliberately unequal so the demo
	// pattern starts unbalanced.
	sineLevel   = 0.60
	squareLevel = 0.25

	// attackTime and releaseTime are one-pole envelope time constants,
	// short enough to avoid clicks without softening the step attack.
	attackTime  = 0.004 // seconds
	releaseTime = 0.030 // seconds
)

// voice is a single monophonic oscillator with a one-pole gate envelope,
// advanced one sample at a time by the engine render loop.
type voice struct {
	sampleRate   int
	phase        float64 // [0, 1) oscillator phase
	freq         float64 // current note frequency, Hz
	env          float64 // smoothed gate level [0, 1]
	gate         float64 // envelope target: 1 while the step sounds
	attackCoeff  float64
	releaseCoeff float64
}

func (v *voice) init(sampleRate int) {
	v.sampleRate = sampleRate
	// One-pole coefficient: env converges to the gate with the given time
	// constant.
	v.attackCoeff = 1 - math.Exp(-1/(attackTime*float64(sampleRate)))
	v.releaseCoeff = 1 - math.Exp(-1/(releaseTime*float64(sampleRate)))
}

func (v *voice) reset() {
	v.phase = 0
	v.env = 0
	v.gate = 0
}

// setStep points the voice at the current pattern step. Retriggering the
// same note keeps the phase continuous; a new note snaps the frequency.
func (v *voice) setStep(note int, on bool) {
	if on {
		v.freq = NoteFrequency(note)
		v.gate = 1
	} else {
		v.gate = 0
	}
}

// next renders one sample.
func (v *voice) next(wave Waveform) float32 {
	coeff := v.releaseCoeff
	if v.gate > v.env {
		coeff = v.attackCoeff
	}
	v.env += (v.gate - v.env) * coeff

	if v.env < 1e-5 {
		return 0
	}

	var s float64
	switch wave {
	case WaveSquare:
		if v.phase < 0.5 {
			s = squareLevel
		} else {
			s = -squareLevel
		}
	case WaveSaw:
		s = squareLevel * (2*v.phase - 1)
	case WaveTriangle:
		s = sineLevel * (1 - 4*math.Abs(v.phase-0.5))
	default:
		s = sineLevel * math.Sin(2*math.Pi*v.phase)
	}

	v.phase += v.freq / float64(v.sampleRate)
	if v.phase >= 1 {
		v.phase -= 1
	}
	return float32(s * v.env)
}
