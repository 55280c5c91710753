package scope

import "math"

// Config tunes one channel's display pipeline.
type Config struct {
	// RingCapacity is the requested history size in samples; rounded up to a
	// power of two and clamped internally.
	RingCapacity int
	// CandidateBudget caps the alignment search per frame; <= 0 selects the
	// default.
	CandidateBudget int
	// DefaultFreq is the sync frequency used when the engine reports no
	// active note (typically the local mains frequency).
	DefaultFreq float64
}

// ChannelView owns the complete display path of one channel: history ring,
// phase-aligned window selection, and adaptive display gain. The engine tap
// feeds Push from the render goroutine; the display loop calls Frame once per
// refresh.
type ChannelView struct {
	ring    *Ring
	aligner *Aligner
	gain    *DisplayGain
	defFreq float64
}

// NewChannelView builds the pipeline for one channel.
func NewChannelView(cfg Config) *ChannelView {
	def := cfg.DefaultFreq
	if def <= 0 {
		def = 50
	}
	return &ChannelView{
		ring:    NewRing(cfg.RingCapacity),
		aligner: NewAligner(cfg.CandidateBudget),
		gain:    NewDisplayGain(),
		defFreq: def,
	}
}

// Push appends a snapshot of rendered samples to the channel's history.
// Safe to call from the audio goroutine.
func (v *ChannelView) Push(frame []float32) {
	v.ring.Write(frame)
}

// Reset clears history, alignment state and display gain. Called on playback
// stop.
func (v *ChannelView) Reset() {
	v.ring.Reset()
	v.aligner.Reset()
	v.gain.Reset()
}

// Frame prepares one displayable window: it sizes the window from the
// channel's lowest active frequency, selects the best-aligned segment of
// recent history, and advances the display gain from the segment's peak.
// minFreq <= 0 falls back to the configured default sync frequency. The
// returned samples are owned by the caller; gain is the multiplier to apply
// when plotting.
func (v *ChannelView) Frame(minFreq, sampleRate float64) (samples []float32, gain float64) {
	if minFreq <= 0 {
		minFreq = v.defFreq
	}

	cycleLen := CycleSamples(minFreq, sampleRate)
	windowLen := cycleLen * CyclesPerWindow

	// One extra cycle of slack gives the aligner room to slide the window by
	// up to half a cycle without losing the newest samples.
	want := windowLen + cycleLen
	if want > v.ring.Capacity() {
		want = v.ring.Capacity()
	}
	buffered := v.ring.ReadLast(want)

	segment := v.aligner.Align(buffered, cycleLen, windowLen)

	var maxAbs float64
	for _, s := range segment {
		if a := math.Abs(float64(s)); a > maxAbs {
			maxAbs = a
		}
	}
	return segment, v.gain.Update(maxAbs)
}
