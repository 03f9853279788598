package soundalign

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// Estimate cross-correlates two fingerprints and returns the best-fit
// lag. A positive LagSeconds means b's content starts that much later
// than a's; the reconciler's trim and pad signs depend on this
// convention.
//
// Each frequency row is a binary signal; their cross-correlations are
// computed in the frequency domain and summed into one aggregate curve
// over all lags from -(wB-1) to wA-1. Because correlation is linear,
// the per-row product spectra are accumulated first and inverted once.
func Estimate(a, b *Fingerprint) (PairwiseOffset, error) {
	if a.config != b.config {
		return PairwiseOffset{}, errConfig("fingerprints were built with different configurations")
	}
	if a.Empty() {
		return PairwiseOffset{}, &NoSignalError{Index: 0}
	}
	if b.Empty() {
		return PairwiseOffset{}, &NoSignalError{Index: 1}
	}

	wA, wB := a.NumFrames(), b.NumFrames()
	n := nextPow2(wA + wB - 1)

	acc := make([]complex128, n)
	padded := make([]float64, n)
	for r := 0; r < a.NumRows(); r++ {
		rowA, rowB := a.rows[r], b.rows[r]
		if !anySet(rowA) || !anySet(rowB) {
			continue
		}

		copy(padded, rowA)
		for i := wA; i < n; i++ {
			padded[i] = 0
		}
		specA := fft.FFTReal(padded)

		copy(padded, rowB)
		for i := wB; i < n; i++ {
			padded[i] = 0
		}
		specB := fft.FFTReal(padded)

		for i := range acc {
			// A times conj(B): correlation, not convolution.
			ar, ai := real(specA[i]), imag(specA[i])
			br, bi := real(specB[i]), imag(specB[i])
			acc[i] += complex(ar*br+ai*bi, ai*br-ar*bi)
		}
	}

	curve := fft.IFFT(acc)

	// The circular correlation places lag l at index l for l >= 0 and at
	// n+l for l < 0. Scan the valid range, preferring the lag closest to
	// zero on ties.
	bestLag := 0
	bestVal := math.Inf(-1)
	for lag := -(wB - 1); lag <= wA-1; lag++ {
		idx := lag
		if idx < 0 {
			idx += n
		}
		v := real(curve[idx])
		if v > bestVal || (v == bestVal && absInt(lag) < absInt(bestLag)) {
			bestVal = v
			bestLag = lag
		}
	}

	shorter := wA
	if wB < shorter {
		shorter = wB
	}

	return PairwiseOffset{
		LagSeconds: float64(bestLag) * a.seconds,
		Confidence: bestVal / float64(shorter),
	}, nil
}

func anySet(row []float64) bool {
	for _, v := range row {
		if v != 0 {
			return true
		}
	}
	return false
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
