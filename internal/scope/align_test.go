package scope

import (
	"math"
	"testing"
)

// sineStream returns n samples of a sine with the given period, starting at
// sample index start.
func sineStream(start, n, period int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * float64(start+i) / float64(period)))
	}
	return out
}

func TestAlignFirstFrameShowsNewest(t *testing.T) {
	a := NewAligner(0)
	buffered := seq(0, 1000)

	got := a.Align(buffered, 100, 400)
	if len(got) != 400 {
		t.Fatalf("segment length = %d, want 400", len(got))
	}
	// No previous segment: the default alignment is the newest window.
	if got[0] != 600 || got[399] != 999 {
		t.Errorf("first frame window = [%v..%v], want [600..999]", got[0], got[399])
	}
	if a.prevStart != 600 {
		t.Errorf("prevStart = %d, want 600", a.prevStart)
	}
}

func TestAlignEmptyBuffer(t *testing.T) {
	a := NewAligner(0)
	if got := a.Align(nil, 100, 400); len(got) != 0 {
		t.Errorf("Align on empty buffer returned %d samples, want 0", len(got))
	}
}

func TestAlignWindowLongerThanBuffer(t *testing.T) {
	a := NewAligner(0)
	buffered := seq(0, 50)

	got := a.Align(buffered, 100, 400)
	if len(got) != 50 {
		t.Fatalf("segment length = %d, want full available 50", len(got))
	}
	if got[0] != 0 || got[49] != 49 {
		t.Errorf("fallback window = [%v..%v], want [0..49]", got[0], got[49])
	}
}

func TestAlignWindowChangeInvalidates(t *testing.T) {
	a := NewAligner(0)
	a.Align(seq(0, 1000), 100, 400)
	if a.prevSegment == nil {
		t.Fatal("prevSegment not stored after first Align")
	}

	// A different window length forces default alignment: newest window,
	// regardless of what was displayed before.
	got := a.Align(seq(0, 1000), 50, 200)
	if len(got) != 200 {
		t.Fatalf("segment length = %d, want 200", len(got))
	}
	if a.prevStart != 800 {
		t.Errorf("prevStart after window change = %d, want 800 (maxStart)", a.prevStart)
	}
	if a.prevWindow != 200 {
		t.Errorf("prevWindow = %d, want 200", a.prevWindow)
	}
}

// TestAlignTracksPeriodicSignal simulates streaming with phase jitter: most
// frames advance by whole periods, but every few frames the stream slips by
// a fifth of a cycle either way. A naive "always newest window" display
// would show those slips as visible jumps; the aligner must absorb them with
// its correlation search, keeping consecutive windows near-identical.
func TestAlignTracksPeriodicSignal(t *testing.T) {
	const (
		period = 100
		window = 4 * period
		slack  = period
		frames = 40
	)

	a := NewAligner(0)
	streamPos := 0
	var prev []float32
	startMoved := false

	for frame := 0; frame < frames; frame++ {
		advance := 3 * period
		switch frame % 5 {
		case 1:
			advance += period / 5 // stream slips forward
		case 3:
			advance -= period / 5 // and back
		}
		streamPos += advance

		// The last window+slack samples of the stream, oldest first.
		buffered := sineStream(streamPos, window+slack, period)

		got := a.Align(buffered, period, window)
		if len(got) != window {
			t.Fatalf("frame %d: segment length = %d, want %d", frame, len(got), window)
		}
		if a.prevStart != slack {
			startMoved = true
		}

		if frame > 0 {
			score := correlate(got, prev)
			if score < 0.95 {
				t.Fatalf("frame %d: correlation with previous window = %.3f, want >= 0.95", frame, score)
			}
		}
		prev = got
	}

	// The slips must have been corrected by moving the start, not ignored.
	if !startMoved {
		t.Error("window start never moved off maxStart; phase slips were not corrected")
	}
}

func TestAlignTieBreakPrefersPreviousStart(t *testing.T) {
	const (
		period = 100
		window = 400
		slack  = 100
	)

	// A perfectly periodic signal makes every period-aligned candidate score
	// identically; the aligner must then stay near its previous start
	// rather than jumping between equivalent alignments.
	buffered := sineStream(0, window+slack, period)

	a := NewAligner(0)
	a.Align(buffered, period, window)
	first := a.prevStart

	for i := 0; i < 5; i++ {
		a.Align(buffered, period, window)
		if diff := absInt(a.prevStart - first); diff > period/2 {
			t.Fatalf("iteration %d: start moved %d samples on identical input, want <= %d", i, diff, period/2)
		}
	}
}

func TestAlignSilentInputIsStable(t *testing.T) {
	a := NewAligner(0)
	silent := make([]float32, 1000)

	// Two frames of silence: the correlation denominators are floored, so
	// the result must be finite and well-formed, not NaN-driven.
	a.Align(silent, 100, 400)
	got := a.Align(silent, 100, 400)
	if len(got) != 400 {
		t.Fatalf("segment length = %d, want 400", len(got))
	}
	for i, s := range got {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			t.Fatalf("sample %d is not finite: %v", i, s)
		}
	}
}

func TestAlignCandidateBudgetBoundsSearch(t *testing.T) {
	// With a budget of 8 the search may only evaluate 8 offsets however
	// large the span; the result must still be a legal window.
	a := NewAligner(8)
	buffered := sineStream(0, 4096, 512)

	a.Align(buffered, 512, 2048)
	got := a.Align(buffered, 512, 2048)
	if len(got) != 2048 {
		t.Fatalf("segment length = %d, want 2048", len(got))
	}
	if a.prevStart < 0 || a.prevStart > len(buffered)-2048 {
		t.Errorf("prevStart = %d outside legal range [0, %d]", a.prevStart, len(buffered)-2048)
	}
}

func TestCorrelate(t *testing.T) {
	tests := []struct {
		name    string
		x, y    []float32
		wantMin float64
		wantMax float64
	}{
		{"identical sine", sineStream(0, 200, 50), sineStream(0, 200, 50), 0.999, 1.001},
		{"anti-phase sine", sineStream(0, 200, 50), sineStream(25, 200, 50), -1.001, -0.999},
		{"quadrature sine", sineStream(0, 200, 50), sineStream(12, 200, 50), -0.2, 0.2},
		{"silence scores near zero", make([]float32, 200), sineStream(0, 200, 50), -0.01, 0.01},
		{"length mismatch scores zero", make([]float32, 10), make([]float32, 20), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := correlate(tt.x, tt.y)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("correlate = %.4f, want in [%.3f, %.3f]", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}
