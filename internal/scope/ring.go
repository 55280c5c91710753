// Package scope implements the display path of the oscilloscope: a sample
// history ring per channel, cycle-synchronized window selection, and an
// adaptive display gain that keeps the plotted waveform near full scale
// without clipping.
package scope

import "sync"

const (
	// minRingCapacity bounds the ring so even very high sync frequencies
	// retain a usable history.
	minRingCapacity = 1 << 10
	// maxRingCapacity bounds memory per channel (65536 samples ≈ 1.5s at
	// 44.1kHz, enough for four cycles of a 3Hz fundamental).
	maxRingCapacity = 1 << 16
)

// Ring is a fixed-capacity circular buffer of time-domain samples. The audio
// render goroutine writes into it via the channel tap; the display loop reads
// from it once per frame, so access is mutex-guarded. Capacity is fixed at
// construction and never reallocates.
type Ring struct {
	mu     sync.Mutex
	buf    []float32
	pos    int // next write position
	filled int // valid samples, capped at len(buf)
}

// NewRing returns a ring whose capacity is the smallest power of two that is
// at least capacity, clamped to [minRingCapacity, maxRingCapacity].
func NewRing(capacity int) *Ring {
	c := minRingCapacity
	for c < capacity && c < maxRingCapacity {
		c <<= 1
	}
	return &Ring{buf: make([]float32, c)}
}

// Capacity returns the fixed sample capacity.
func (r *Ring) Capacity() int {
	return len(r.buf)
}

// Filled returns the count of valid samples written so far, capped at
// capacity.
func (r *Ring) Filled() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filled
}

// Write appends all samples of frame, overwriting the oldest history once
// the ring is full. An empty frame is a no-op.
func (r *Ring) Write(frame []float32) {
	if len(frame) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// A frame longer than the whole ring reduces to its tail.
	if len(frame) > len(r.buf) {
		frame = frame[len(frame)-len(r.buf):]
	}

	n := copy(r.buf[r.pos:], frame)
	if n < len(frame) {
		copy(r.buf, frame[n:])
	}
	r.pos = (r.pos + len(frame)) % len(r.buf)
	r.filled += len(frame)
	if r.filled > len(r.buf) {
		r.filled = len(r.buf)
	}
}

// ReadLast returns the most recent min(n, filled, capacity) samples in
// chronological order (oldest first). It never returns nil for n > 0 once
// anything has been written, and has no side effects on the ring.
func (r *Ring) ReadLast(n int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n > r.filled {
		n = r.filled
	}
	if n <= 0 {
		return []float32{}
	}

	out := make([]float32, n)
	start := r.pos - n
	if start < 0 {
		start += len(r.buf)
	}
	m := copy(out, r.buf[start:])
	if m < n {
		copy(out[m:], r.buf)
	}
	return out
}

// Reset discards all history. Called on playback stop so a restart does not
// align against stale samples.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos = 0
	r.filled = 0
}
