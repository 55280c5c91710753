package scope

import "math"

// Alignment search tuning.
const (
	// DefaultCandidateBudget caps the number of start offsets evaluated per
	// frame. The search cost is budget × window length regardless of how much
	// history the ring holds.
	DefaultCandidateBudget = 400

	// stdDevFloor keeps the correlation denominator away from zero for
	// near-silent windows.
	stdDevFloor = 1e-6

	// tieEpsilon is the score margin inside which two candidates count as
	// equally good; the one nearer the previous start wins to avoid visual
	// jumps between equivalent alignments.
	tieEpsilon = 1e-4
)

// Aligner selects, each frame, the start offset of the displayed window
// inside the freshly buffered history so that the new window visually tracks
// the previous one. Matching is normalized cross-correlation against the
// last displayed segment; the search band is at most half a cycle behind the
// newest possible window so recent samples stay on screen.
type Aligner struct {
	prevSegment []float32 // last displayed window (owned copy), nil when invalid
	prevStart   int       // offset prevSegment was taken at
	prevWindow  int       // effective window length prevSegment was computed for
	budget      int       // max candidate start offsets per frame
}

// NewAligner returns an aligner with the given candidate budget; budget <= 0
// selects DefaultCandidateBudget.
func NewAligner(budget int) *Aligner {
	if budget <= 0 {
		budget = DefaultCandidateBudget
	}
	return &Aligner{budget: budget}
}

// Reset invalidates the previous segment, forcing a default alignment on the
// next frame. Called on playback stop/start.
func (a *Aligner) Reset() {
	a.prevSegment = nil
	a.prevStart = 0
	a.prevWindow = 0
}

// Align picks a window of windowLen samples out of buffered (the most recent
// history, oldest first) and returns an owned copy of it. cycleLen is the
// expected samples per waveform cycle. An empty buffered slice yields an
// empty result; a window longer than the history falls back to the full
// history unshaped.
func (a *Aligner) Align(buffered []float32, cycleLen, windowLen int) []float32 {
	available := len(buffered)
	if available == 0 {
		a.Reset()
		return []float32{}
	}
	if windowLen > available {
		windowLen = available
	}
	if windowLen <= 0 {
		windowLen = available
	}

	// A changed effective window length makes the previous segment
	// incomparable: correlation needs equal lengths.
	if windowLen != a.prevWindow {
		a.prevSegment = nil
		a.prevWindow = windowLen
	}

	maxStart := available - windowLen
	start := maxStart

	if a.prevSegment != nil && maxStart > 0 {
		// Search at most half a cycle behind the newest window.
		searchSpan := cycleLen / 2
		if searchSpan > maxStart {
			searchSpan = maxStart
		}
		lo := maxStart - searchSpan
		start = a.searchBest(buffered, lo, maxStart, windowLen)
	}

	segment := make([]float32, windowLen)
	copy(segment, buffered[start:start+windowLen])

	a.prevSegment = segment
	a.prevStart = start

	// Hand out a copy: callers may retain the frame while the aligner keeps
	// its own for next frame's correlation.
	out := make([]float32, windowLen)
	copy(out, segment)
	return out
}

// searchBest evaluates up to budget evenly spaced start offsets in
// [lo, hi] and returns the offset whose window correlates best with the
// previous segment, preferring offsets near the previous start on near-ties.
func (a *Aligner) searchBest(buffered []float32, lo, hi, windowLen int) int {
	span := hi - lo
	candidates := span + 1
	if candidates > a.budget {
		candidates = a.budget
	}

	bestStart := hi
	bestScore := math.Inf(-1)

	for i := 0; i < candidates; i++ {
		start := lo
		if candidates > 1 {
			// Even spacing across [lo, hi], endpoints included.
			start = lo + int(math.Round(float64(i)*float64(span)/float64(candidates-1)))
		}
		score := correlate(buffered[start:start+windowLen], a.prevSegment)

		switch {
		case score > bestScore+tieEpsilon:
			bestScore = score
			bestStart = start
		case score > bestScore-tieEpsilon:
			// Near-tie: keep whichever start is closer to last frame's.
			if absInt(start-a.prevStart) < absInt(bestStart-a.prevStart) {
				bestScore = math.Max(bestScore, score)
				bestStart = start
			}
		}
	}
	return bestStart
}

// correlate returns the Pearson correlation coefficient of two equal-length
// sample windows. Standard deviations are floored so silent windows score
// near zero instead of dividing by zero.
func correlate(x, y []float32) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += float64(x[i])
		sumY += float64(y[i])
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var dot, varX, varY float64
	for i := 0; i < n; i++ {
		dx := float64(x[i]) - meanX
		dy := float64(y[i]) - meanY
		dot += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	sdX := math.Sqrt(varX / float64(n))
	sdY := math.Sqrt(varY / float64(n))
	if sdX < stdDevFloor {
		sdX = stdDevFloor
	}
	if sdY < stdDevFloor {
		sdY = stdDevFloor
	}
	return dot / float64(n) / (sdX * sdY)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
