package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitude of the one-sided spectrum of a
// uniformly sampled series.
func PowerSpectrum(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	coeffs := fft.FFTReal(series)
	ps := make([]float64, len(coeffs)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

// DominantFrequency picks the strongest non-DC component, in Hz, for a
// series sampled every dt seconds.
func DominantFrequency(series []float64, dt float64) float64 {
	ps := PowerSpectrum(series)
	if len(ps) < 2 || dt <= 0 {
		return 0
	}

	bestIdx := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[bestIdx] {
			bestIdx = i
		}
	}
	return float64(bestIdx) / (float64(len(series)) * dt)
}
