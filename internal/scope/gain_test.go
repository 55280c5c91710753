package scope

import (
	"math"
	"testing"
)

func TestDisplayGainClipAttack(t *testing.T) {
	g := NewDisplayGain()

	// Force the gain high, then hit it with a loud frame: the very next
	// frame must not clip.
	g.gain = 8
	got := g.Update(0.5) // scaled 4.0, clips
	if got*0.5 > 1.0+1e-9 {
		t.Errorf("gain %.4f still clips: %.4f > 1", got, got*0.5)
	}
	if math.Abs(got-2.0) > 1e-9 {
		t.Errorf("clip attack gain = %.4f, want 2.0 (1/maxAbs)", got)
	}
}

func TestDisplayGainNeverClipsOverRandomishSequence(t *testing.T) {
	g := NewDisplayGain()

	// Deterministic pseudo-random peak sequence spanning silence, quiet and
	// loud frames.
	seed := uint64(1)
	for i := 0; i < 5000; i++ {
		seed = seed*6364136223846793005 + 1442695040888963407
		maxAbs := float64(seed>>40) / float64(1<<24) // [0, 1)

		gain := g.Update(maxAbs)

		if gain <= 0 || gain > gainCeiling {
			t.Fatalf("frame %d: gain %.4f outside (0, %v]", i, gain, float64(gainCeiling))
		}
		if gain*maxAbs > 1.0+1e-9 {
			t.Fatalf("frame %d: scaled peak %.4f exceeds full scale", i, gain*maxAbs)
		}
	}
}

func TestDisplayGainHoldRegions(t *testing.T) {
	tests := []struct {
		name   string
		maxAbs float64
	}{
		{"near full scale holds", 0.99},
		{"silence holds", 1e-6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewDisplayGain()
			for i := 0; i < 200; i++ {
				if got := g.Update(tt.maxAbs); got != 1 {
					t.Fatalf("frame %d: gain = %.4f, want held at 1", i, got)
				}
			}
		})
	}
}

func TestDisplayGainSlowRecovery(t *testing.T) {
	g := NewDisplayGain()

	// Quiet but non-silent input: nothing happens during the hold period.
	for i := 0; i < recoveryHoldFrames-1; i++ {
		if got := g.Update(0.1); got != 1 {
			t.Fatalf("frame %d: gain = %.4f before hold elapsed, want 1", i, got)
		}
	}

	// From the hold threshold on, the gain creeps up by the recovery factor
	// each frame.
	got := g.Update(0.1)
	if math.Abs(got-recoveryFactor) > 1e-9 {
		t.Fatalf("first recovery frame gain = %.6f, want %.6f", got, recoveryFactor)
	}
	prev := got
	for i := 0; i < 100; i++ {
		got = g.Update(0.1)
		if got < prev {
			t.Fatalf("recovery frame %d: gain fell from %.4f to %.4f", i, prev, got)
		}
		prev = got
	}

	// Recovery must stop before the scaled peak reaches full scale.
	for i := 0; i < 2000; i++ {
		got = g.Update(0.1)
	}
	if got*0.1 > 1.0+1e-9 {
		t.Errorf("recovered gain %.4f clips at peak 0.1", got)
	}
}

func TestDisplayGainCeiling(t *testing.T) {
	g := NewDisplayGain()

	// A vanishing but non-silent peak drives recovery indefinitely; the
	// ceiling must cap it.
	for i := 0; i < 100000; i++ {
		g.Update(0.001)
	}
	if g.Gain() > gainCeiling {
		t.Errorf("gain %.2f exceeds ceiling %v", g.Gain(), float64(gainCeiling))
	}
}

func TestDisplayGainDegenerateInputs(t *testing.T) {
	tests := []struct {
		name   string
		maxAbs float64
	}{
		{"NaN peak", math.NaN()},
		{"positive infinity peak", math.Inf(1)},
		{"huge peak", 1e300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewDisplayGain()
			got := g.Update(tt.maxAbs)
			if math.IsNaN(got) || math.IsInf(got, 0) || got <= 0 {
				t.Errorf("gain = %v after %s, want finite positive", got, tt.name)
			}
		})
	}
}

func TestDisplayGainReset(t *testing.T) {
	g := NewDisplayGain()
	g.Update(2.0) // pushes gain to 0.5
	g.Reset()
	if g.Gain() != 1 {
		t.Errorf("gain after Reset = %.4f, want 1", g.Gain())
	}
}
