package ui

import (
	"time"

	"github.com/duoscope/duoscope/internal/loudness"
)

// TickMsg drives one display refresh.
type TickMsg time.Time

// startMsg requests playback start; emitted once from Init so the start runs
// through Update where model changes persist.
type startMsg struct{}

// BalanceResultMsg carries a completed loudness-balancing pass back to the
// display loop.
type BalanceResultMsg struct {
	Gains     []float64
	Snapshots []loudness.Snapshot
}
