// Package engine is the realtime collaborator of the scope: a two-channel
// step-sequencer synth that renders a looping pattern, exposes per-channel
// sample taps and lowest-active-note hints to the display path, per-channel
// bus recorders to the loudness path, and a per-channel mix gain node the
// balancer writes into.
package engine

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Channel identifies one of the two engine voices.
type Channel int

const (
	ChannelA Channel = iota
	ChannelB
	NumChannels
)

// String returns the channel's display name.
func (c Channel) String() string {
	switch c {
	case ChannelA:
		return "A"
	case ChannelB:
		return "B"
	default:
		return fmt.Sprintf("ch%d", int(c))
	}
}

// StepsPerLoop is the fixed pattern length; steps are sixteenth notes.
const StepsPerLoop = 16

// Step is one slot of a channel's pattern.
type Step struct {
	Note int  // MIDI note number
	On   bool // whether the step sounds
}

// Pattern is one channel's loop.
type Pattern struct {
	Steps [StepsPerLoop]Step
	Wave  Waveform
}

// Config sets up the engine.
type Config struct {
	SampleRate int
	Tempo      float64 // BPM; four steps per beat
}

// Tap receives every rendered post-gain block of one channel. Called on the
// render goroutine; implementations must not block.
type Tap func(samples []float32)

// Engine renders the two channel voices, applies the balancing mix gains,
// feeds taps and active bus recorders, and interleaves channel A left /
// channel B right for the output backend.
type Engine struct {
	sampleRate int
	tempo      float64

	mu        sync.Mutex
	running   bool
	patterns  [NumChannels]Pattern
	voices    [NumChannels]voice
	mixGain   [NumChannels]float64
	taps      [NumChannels][]Tap
	recorders [NumChannels]*BusRecorder

	sampleInLoop int
	scratch      [NumChannels][]float32
}

// New builds an engine with unity mix gains and empty patterns.
func New(cfg Config) *Engine {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Tempo <= 0 {
		cfg.Tempo = 120
	}
	e := &Engine{
		sampleRate: cfg.SampleRate,
		tempo:      cfg.Tempo,
	}
	for ch := Channel(0); ch < NumChannels; ch++ {
		e.mixGain[ch] = 1
		e.voices[ch].init(cfg.SampleRate)
		e.recorders[ch] = &BusRecorder{engine: e, channel: ch}
	}
	return e
}

// SampleRate returns the engine sample rate in Hz.
func (e *Engine) SampleRate() int {
	return e.sampleRate
}

// SetPattern replaces a channel's loop.
func (e *Engine) SetPattern(ch Channel, p Pattern) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.patterns[ch] = p
}

// AddTap registers a display consumer for a channel's post-gain samples.
func (e *Engine) AddTap(ch Channel, tap Tap) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.taps[ch] = append(e.taps[ch], tap)
}

// Recorder returns the channel's bus recorder.
func (e *Engine) Recorder(ch Channel) *BusRecorder {
	return e.recorders[ch]
}

// SetMixGain stores the balancing multiplier for a channel's output.
// Non-finite or non-positive values are replaced with 1.
func (e *Engine) SetMixGain(ch Channel, gain float64) {
	if math.IsNaN(gain) || math.IsInf(gain, 0) || gain <= 0 {
		gain = 1
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mixGain[ch] = gain
}

// MixGain returns the channel's current balancing multiplier.
func (e *Engine) MixGain(ch Channel) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mixGain[ch]
}

// LowestFrequency returns the smallest note frequency assigned to any active
// step of the channel, or 0 when no steps are active.
func (e *Engine) LowestFrequency(ch Channel) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	lowest := 0.0
	for _, step := range e.patterns[ch].Steps {
		if !step.On {
			continue
		}
		f := NoteFrequency(step.Note)
		if lowest == 0 || f < lowest {
			lowest = f
		}
	}
	return lowest
}

// LoopDuration returns the wall time of one full pattern loop.
func (e *Engine) LoopDuration() time.Duration {
	return time.Duration(float64(StepsPerLoop*e.stepSamples()) / float64(e.sampleRate) * float64(time.Second))
}

// Start marks the engine running. The output backend drives actual
// rendering.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = true
}

// Stop silences the engine and rewinds the loop. History owned by the
// display path is reset by its owner.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	e.sampleInLoop = 0
	for ch := range e.voices {
		e.voices[ch].reset()
	}
}

// Running reports whether the engine is producing sound.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// stepSamples returns the sample length of one sixteenth-note step.
func (e *Engine) stepSamples() int {
	n := int(math.Round(float64(e.sampleRate) * 60 / e.tempo / 4))
	if n < 1 {
		n = 1
	}
	return n
}

// Render fills out with interleaved stereo float32 (A left, B right),
// advancing the sequencer. Called by the output backend on its own
// goroutine. A stopped engine renders silence.
func (e *Engine) Render(out []float32) {
	frames := len(out) / 2

	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		for i := range out {
			out[i] = 0
		}
		return
	}

	stepLen := e.stepSamples()
	loopLen := stepLen * StepsPerLoop

	for ch := Channel(0); ch < NumChannels; ch++ {
		if cap(e.scratch[ch]) < frames {
			e.scratch[ch] = make([]float32, frames)
		}
		e.scratch[ch] = e.scratch[ch][:frames]
	}

	for i := 0; i < frames; i++ {
		step := (e.sampleInLoop / stepLen) % StepsPerLoop
		for ch := Channel(0); ch < NumChannels; ch++ {
			s := e.patterns[ch].Steps[step]
			e.voices[ch].setStep(s.Note, s.On)
			e.scratch[ch][i] = e.voices[ch].next(e.patterns[ch].Wave) * float32(e.mixGain[ch])
		}
		e.sampleInLoop++
		if e.sampleInLoop >= loopLen {
			e.sampleInLoop = 0
		}
	}

	taps := e.taps
	recs := e.recorders
	e.mu.Unlock()

	for ch := Channel(0); ch < NumChannels; ch++ {
		block := e.scratch[ch]
		for _, tap := range taps[ch] {
			tap(block)
		}
		recs[ch].append(block)
	}

	for i := 0; i < frames; i++ {
		out[i*2] = e.scratch[ChannelA][i]
		out[i*2+1] = e.scratch[ChannelB][i]
	}
}

// NoteFrequency converts a MIDI note number to Hz (A4 = 69 = 440Hz).
func NoteFrequency(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

// DemoPatterns returns the built-in two-channel pattern: a low sine bassline
// on A against a brighter square figure on B, deliberately mismatched in
// level so the balancer has work to do.
func DemoPatterns() [NumChannels]Pattern {
	var a, b Pattern
	a.Wave = WaveSine
	b.Wave = WaveSquare

	// A: root-fifth bassline around A1/E2.
	bass := []int{33, 0, 40, 0, 33, 0, 40, 0, 31, 0, 38, 0, 33, 33, 40, 0}
	for i, n := range bass {
		if n > 0 {
			a.Steps[i] = Step{Note: n, On: true}
		}
	}

	// B: syncopated figure two octaves up.
	lead := []int{0, 69, 0, 64, 0, 69, 71, 0, 0, 67, 0, 64, 0, 62, 0, 64}
	for i, n := range lead {
		if n > 0 {
			b.Steps[i] = Step{Note: n, On: true}
		}
	}

	return [NumChannels]Pattern{a, b}
}
