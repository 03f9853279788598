package soundalign

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Extract turns a mono sample buffer into a binary time-frequency
// fingerprint. For every analysis frame the frequency row carrying the
// strongest binned magnitude is set to 1 (ties go to the lowest row);
// frames whose spectrum never rises above cfg.SilenceEpsilon stay fully
// zero. The result depends only on where spectral energy dominates, not
// on how loud it is, which is what survives re-encoding and gain
// differences between recordings of the same event.
func Extract(buf AudioBuffer, cfg Config) (*Fingerprint, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	samples := buf.Samples
	if buf.SampleRate != cfg.SampleRate {
		samples = resample(samples, buf.SampleRate, cfg.SampleRate)
	}

	rows := make([][]float64, cfg.NumRows)
	nFrames := 0
	if len(samples) >= cfg.WindowSize {
		nFrames = (len(samples)-cfg.WindowSize)/cfg.HopSize + 1
	}
	for r := range rows {
		rows[r] = make([]float64, nFrames)
	}

	fp := &Fingerprint{
		rows:    rows,
		config:  cfg,
		seconds: cfg.HopDuration(),
	}
	if nFrames == 0 {
		return fp, nil
	}

	window := hamming(cfg.WindowSize)
	frame := make([]float64, cfg.WindowSize)
	binned := make([]float64, cfg.NumRows)

	for t := 0; t < nFrames; t++ {
		start := t * cfg.HopSize
		for i := 0; i < cfg.WindowSize; i++ {
			frame[i] = samples[start+i] * window[i]
		}

		spectrum := fft.FFTReal(frame)
		binMagnitudes(spectrum, binned)

		best, bestMag := -1, cfg.SilenceEpsilon
		for r, m := range binned {
			if m > bestMag {
				best, bestMag = r, m
			}
		}
		if best >= 0 {
			rows[best][t] = 1
			fp.numSet++
		}
	}

	return fp, nil
}

// binMagnitudes folds the positive-frequency half of a complex spectrum
// into len(out) rows by summing bin magnitudes row-wise.
func binMagnitudes(spectrum []complex128, out []float64) {
	half := len(spectrum) / 2
	perRow := half / len(out)
	if perRow < 1 {
		perRow = 1
	}
	for r := range out {
		out[r] = 0
	}
	for i := 0; i < half; i++ {
		r := i / perRow
		if r >= len(out) {
			r = len(out) - 1
		}
		out[r] += cmplx.Abs(spectrum[i])
	}
}

// hamming returns a Hamming window of length n.
func hamming(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// resample converts samples from one rate to another by linear
// interpolation. The media layer already asks the decoder for the
// analysis rate, so this only runs for buffers that arrived at their
// native rate; accuracy beyond one analysis frame is not required.
func resample(in []float64, from, to int) []float64 {
	if from == to || len(in) == 0 {
		return in
	}
	n := int(float64(len(in)) * float64(to) / float64(from))
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}
