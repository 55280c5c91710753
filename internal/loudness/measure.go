// Package loudness measures per-channel loop loudness and derives the
// balancing gains applied to each channel's mix path. Measurement runs off
// the display loop, degrades to null results on any capture failure, and
// coalesces overlapping requests so only one recording is ever in flight.
package loudness

import (
	"context"
	"math"
	"time"

	"github.com/mjibson/go-dsp/fft"

	"github.com/duoscope/duoscope/internal/wav"
)

// Analysis tuning.
const (
	// MinDB is the loudness floor sentinel; snapshots at or below it carry no
	// usable loudness.
	MinDB = -90.0

	// rmsFloor is the smallest RMS considered a real signal. Below it the
	// loudness is reported as MinDB and the channel is excluded from
	// balancing.
	rmsFloor = 1e-4

	// captureGrace is added to the requested loop duration as a fail-safe
	// timeout for a recorder that never resolves.
	captureGrace = 2 * time.Second

	// fftSize is the window for the spectral centroid estimate.
	fftSize = 2048
)

// Recorder captures one channel's post-mix audio bus. StartCapture begins
// recording; StopCapture ends it and returns the encoded capture blob. Both
// may fail; failures degrade to a null snapshot, never an abort.
type Recorder interface {
	StartCapture() error
	StopCapture() ([]byte, error)
}

// Snapshot is one completed loudness measurement of a channel's loop.
type Snapshot struct {
	// Valid reports whether capture, decode and analysis all succeeded.
	// When false every other field is zero or sentinel.
	Valid bool
	// RMS is the linear root-mean-square over all captured samples and
	// channels.
	RMS float64
	// Peak is the largest absolute sample, clamped to [0, 1].
	Peak float64
	// LoudnessDB is 20·log10(RMS), or MinDB when the capture is silent
	// (RMS at or below the floor) or invalid.
	LoudnessDB float64
	// Centroid is the spectral centroid of the capture in Hz, 0 when
	// unavailable.
	Centroid float64
	// Capture is the raw encoded recording the analysis was computed from.
	Capture []byte
}

// Measurer records and analyses one channel's loop.
type Measurer struct {
	rec   Recorder
	grace time.Duration
}

// NewMeasurer wraps a channel bus recorder.
func NewMeasurer(rec Recorder) *Measurer {
	return &Measurer{rec: rec, grace: captureGrace}
}

// MeasureLoop captures duration of the channel's bus and returns its
// analysis. Failures (recorder error, decode error, timeout, cancellation)
// yield a Snapshot with Valid=false; MeasureLoop itself never fails.
func (m *Measurer) MeasureLoop(ctx context.Context, duration time.Duration) Snapshot {
	// The capture runs on its own goroutine so a recorder that never
	// resolves cannot wedge the manager: the fail-safe below abandons it
	// after duration + grace.
	type result struct {
		blob []byte
		err  error
	}
	done := make(chan result, 1)

	go func() {
		if err := m.rec.StartCapture(); err != nil {
			done <- result{err: err}
			return
		}
		select {
		case <-time.After(duration):
		case <-ctx.Done():
			// Let the recorder stop normally; aborting mid-capture is more
			// failure-prone than a short result.
		}
		blob, err := m.rec.StopCapture()
		done <- result{blob: blob, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return Snapshot{LoudnessDB: MinDB}
		}
		return Analyze(res.blob)
	case <-time.After(duration + m.grace):
		// Treat a hung capture as empty. The goroutine above is left to
		// finish harmlessly; its result is discarded.
		return Snapshot{LoudnessDB: MinDB}
	}
}

// Analyze decodes an encoded capture blob and computes its loudness
// statistics. A decode failure or empty capture yields an invalid snapshot.
func Analyze(blob []byte) Snapshot {
	samples, info, err := wav.Decode(blob)
	if err != nil || len(samples) == 0 {
		return Snapshot{LoudnessDB: MinDB, Capture: blob}
	}

	var sumSquares, peak float64
	for _, s := range samples {
		sumSquares += s * s
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak > 1 {
		peak = 1
	}
	rms := math.Sqrt(sumSquares / float64(len(samples)))

	loudness := MinDB
	if rms > rmsFloor {
		loudness = 20 * math.Log10(rms)
		if loudness < MinDB {
			loudness = MinDB
		}
	}

	return Snapshot{
		Valid:      true,
		RMS:        rms,
		Peak:       peak,
		LoudnessDB: loudness,
		Centroid:   spectralCentroid(samples, info.SampleRate),
		Capture:    blob,
	}
}

// spectralCentroid estimates where the capture's energy is concentrated, in
// Hz. It Hann-windows the first fftSize samples and weights bin frequencies
// by magnitude, mirroring an aspectralstats centroid on a single window.
// Returns 0 for captures too short or too quiet to analyse.
func spectralCentroid(samples []float64, sampleRate int) float64 {
	if len(samples) < fftSize || sampleRate <= 0 {
		return 0
	}

	windowed := make([]float64, fftSize)
	for i := range windowed {
		hann := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize-1))
		windowed[i] = samples[i] * hann
	}

	spectrum := fft.FFTReal(windowed)

	var weighted, total float64
	binWidth := float64(sampleRate) / float64(fftSize)
	for i := 1; i < fftSize/2; i++ {
		mag := math.Hypot(real(spectrum[i]), imag(spectrum[i]))
		weighted += float64(i) * binWidth * mag
		total += mag
	}
	if total < 1e-12 {
		return 0
	}
	return weighted / total
}
