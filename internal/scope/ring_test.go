package scope

import "testing"

// seq returns [start, start+1, ..., start+n-1] as float32 samples.
func seq(start, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(start + i)
	}
	return out
}

func TestRingReadLast(t *testing.T) {
	tests := []struct {
		name      string
		capacity  int
		writes    [][]float32
		read      int
		wantFirst float32
		wantLen   int
	}{
		{
			name:     "empty ring reads nothing",
			capacity: 1024,
			read:     64,
			wantLen:  0,
		},
		{
			name:      "partial fill returns what exists",
			capacity:  1024,
			writes:    [][]float32{seq(0, 10)},
			read:      64,
			wantFirst: 0,
			wantLen:   10,
		},
		{
			name:      "read less than filled returns newest tail",
			capacity:  1024,
			writes:    [][]float32{seq(0, 100)},
			read:      10,
			wantFirst: 90,
			wantLen:   10,
		},
		{
			name:      "overfill overwrites oldest",
			capacity:  1024, // actual capacity: minRingCapacity = 1024
			writes:    [][]float32{seq(0, 1024), seq(1024, 512)},
			read:      1024,
			wantFirst: 512,
			wantLen:   1024,
		},
		{
			name:      "single write longer than capacity keeps its tail",
			capacity:  1024,
			writes:    [][]float32{seq(0, 3000)},
			read:      1024,
			wantFirst: 3000 - 1024,
			wantLen:   1024,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRing(tt.capacity)
			for _, w := range tt.writes {
				r.Write(w)
			}

			got := r.ReadLast(tt.read)
			if len(got) != tt.wantLen {
				t.Fatalf("ReadLast(%d) returned %d samples, want %d", tt.read, len(got), tt.wantLen)
			}
			// Writes are consecutive integers, so chronological order means
			// each sample is exactly one more than its predecessor.
			for i, s := range got {
				want := tt.wantFirst + float32(i)
				if s != want {
					t.Fatalf("sample %d = %v, want %v", i, s, want)
				}
			}
		})
	}
}

func TestRingWrapAroundManyWrites(t *testing.T) {
	r := NewRing(1024)

	// Interleave odd-sized writes so the write position crosses the wrap
	// point at varying offsets.
	total := 0
	for i := 0; i < 100; i++ {
		n := 37 + i%13
		r.Write(seq(total, n))
		total += n
	}

	got := r.ReadLast(r.Capacity())
	if len(got) != r.Capacity() {
		t.Fatalf("ReadLast(cap) returned %d samples, want %d", len(got), r.Capacity())
	}
	first := float32(total - r.Capacity())
	for i, s := range got {
		if s != first+float32(i) {
			t.Fatalf("sample %d = %v, want %v", i, s, first+float32(i))
		}
	}
}

func TestRingCapacityBounds(t *testing.T) {
	tests := []struct {
		name    string
		request int
		want    int
	}{
		{"below minimum clamps up", 1, minRingCapacity},
		{"rounds up to power of two", 5000, 8192},
		{"exact power of two kept", 4096, 4096},
		{"above maximum clamps down", 1 << 20, maxRingCapacity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewRing(tt.request).Capacity(); got != tt.want {
				t.Errorf("NewRing(%d).Capacity() = %d, want %d", tt.request, got, tt.want)
			}
		})
	}
}

func TestRingReset(t *testing.T) {
	r := NewRing(1024)
	r.Write(seq(0, 500))
	r.Reset()

	if got := r.Filled(); got != 0 {
		t.Errorf("Filled() after Reset = %d, want 0", got)
	}
	if got := r.ReadLast(10); len(got) != 0 {
		t.Errorf("ReadLast after Reset returned %d samples, want 0", len(got))
	}

	// The ring must be immediately usable again.
	r.Write(seq(7, 3))
	got := r.ReadLast(10)
	if len(got) != 3 || got[0] != 7 {
		t.Errorf("ReadLast after Reset+Write = %v, want [7 8 9]", got)
	}
}
