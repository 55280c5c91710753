package loudness

import (
	"context"
	"math"
	"sync"
	"time"
)

// Gain derivation tuning.
const (
	// targetRMSMax caps the balance target so quiet mixes are not driven
	// into clipping territory.
	targetRMSMax = 0.35
	// targetRMSMin floors the balance target; matches the valid-RMS floor.
	targetRMSMin = rmsFloor
	// gainMin and gainMax bound each channel's balancing multiplier.
	gainMin = 0.1
	gainMax = 4.0
)

// Manager orchestrates loudness measurement for all channels, derives the
// balancing gains, and serializes concurrent measurement requests: exactly
// one measurement is in flight at a time, and requests arriving while one
// runs coalesce to the latest requested duration.
type Manager struct {
	measurers []*Measurer

	mu       sync.Mutex
	gains    []float64
	snaps    []Snapshot
	inFlight bool
	queued   *time.Duration // latest coalesced request, nil when none
	waiters  []chan []float64
}

// NewManager builds a manager over one recorder per channel. Gains start at
// identity.
func NewManager(recorders []Recorder) *Manager {
	m := &Manager{
		measurers: make([]*Measurer, len(recorders)),
		gains:     make([]float64, len(recorders)),
		snaps:     make([]Snapshot, len(recorders)),
	}
	for i, rec := range recorders {
		m.measurers[i] = NewMeasurer(rec)
		m.gains[i] = 1
		m.snaps[i] = Snapshot{LoudnessDB: MinDB}
	}
	return m
}

// Gains returns a copy of the last completed per-channel gains.
func (m *Manager) Gains() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.gains))
	copy(out, m.gains)
	return out
}

// Snapshots returns a copy of the last completed per-channel measurements.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, len(m.snaps))
	copy(out, m.snaps)
	return out
}

// Measure records loopDuration of every channel concurrently, derives and
// stores balancing gains, and returns them. If a measurement is already in
// flight the request coalesces: its duration replaces any previously queued
// one, and the call resolves after the in-flight run plus one fresh run with
// the latest queued duration. Superseded intermediate requests are dropped.
// Cancellation returns the previously known gains unchanged.
func (m *Manager) Measure(ctx context.Context, loopDuration time.Duration) []float64 {
	m.mu.Lock()
	if m.inFlight {
		// Coalesce: remember only the newest request, wait for the redo.
		d := loopDuration
		m.queued = &d
		done := make(chan []float64, 1)
		m.waiters = append(m.waiters, done)
		m.mu.Unlock()

		select {
		case gains := <-done:
			return gains
		case <-ctx.Done():
			return m.Gains()
		}
	}
	m.inFlight = true
	m.mu.Unlock()

	gains := m.runOnce(ctx, loopDuration)

	// Drain coalesced requests: each loop runs one fresh measurement with
	// the latest queued duration. Waiters resolve only once the queue is
	// empty, so a caller that queued always sees a measurement started
	// after its request.
	for {
		m.mu.Lock()
		if m.queued == nil {
			m.inFlight = false
			waiters := m.waiters
			m.waiters = nil
			m.mu.Unlock()
			for _, w := range waiters {
				w <- gains
			}
			return gains
		}
		d := *m.queued
		m.queued = nil
		m.mu.Unlock()

		gains = m.runOnce(ctx, d)
	}
}

// runOnce performs one complete measurement pass: all channels in parallel,
// then gain derivation. On cancellation the stored gains are left untouched
// and returned as-is.
func (m *Manager) runOnce(ctx context.Context, duration time.Duration) []float64 {
	snaps := make([]Snapshot, len(m.measurers))

	var wg sync.WaitGroup
	for i, meas := range m.measurers {
		wg.Add(1)
		go func(i int, meas *Measurer) {
			defer wg.Done()
			snaps[i] = meas.MeasureLoop(ctx, duration)
		}(i, meas)
	}
	wg.Wait()

	if ctx.Err() != nil {
		// Aborted run: fall back to the previously known gains.
		return m.Gains()
	}

	gains := deriveGains(snaps)

	m.mu.Lock()
	copy(m.snaps, snaps)
	copy(m.gains, gains)
	m.mu.Unlock()

	return gains
}

// deriveGains computes one balancing multiplier per channel: channels with a
// valid RMS are pulled toward the geometric mean of all valid RMS values
// (clamped into the target band); channels without one get identity.
func deriveGains(snaps []Snapshot) []float64 {
	var logSum float64
	var valid int
	for _, s := range snaps {
		if s.Valid && s.RMS > rmsFloor {
			logSum += math.Log(s.RMS)
			valid++
		}
	}

	gains := make([]float64, len(snaps))
	for i := range gains {
		gains[i] = 1
	}
	if valid == 0 {
		return gains
	}

	target := clamp(math.Exp(logSum/float64(valid)), targetRMSMin, targetRMSMax)

	for i, s := range snaps {
		if !s.Valid || s.RMS <= rmsFloor {
			continue
		}
		g := clamp(target/s.RMS, gainMin, gainMax)
		if math.IsNaN(g) || math.IsInf(g, 0) || g <= 0 {
			g = 1
		}
		gains[i] = g
	}
	return gains
}

// clamp restricts val to the range [lo, hi].
func clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
