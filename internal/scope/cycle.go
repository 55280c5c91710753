package scope

import "math"

// CyclesPerWindow is the number of waveform cycles the display window spans.
// Four cycles keeps individual periods legible while bounding buffer cost.
const CyclesPerWindow = 4

// CycleSamples returns the expected number of samples in one waveform cycle
// for the channel's lowest active frequency. Frequencies below 1Hz are
// treated as 1Hz and the result is never below one sample.
func CycleSamples(minFreqHz, sampleRateHz float64) int {
	if minFreqHz < 1 {
		minFreqHz = 1
	}
	n := int(math.Round(sampleRateHz / minFreqHz))
	if n < 1 {
		n = 1
	}
	return n
}

// WindowSamples returns the target display window length for the given
// fundamental: CyclesPerWindow full cycles.
func WindowSamples(minFreqHz, sampleRateHz float64) int {
	return CycleSamples(minFreqHz, sampleRateHz) * CyclesPerWindow
}
