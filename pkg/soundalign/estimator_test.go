package soundalign

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fpFromRows builds a fingerprint with one set row per frame; -1 marks
// a silent frame.
func fpFromRows(cfg Config, dominant []int) *Fingerprint {
	rows := make([][]float64, cfg.NumRows)
	for r := range rows {
		rows[r] = make([]float64, len(dominant))
	}
	fp := &Fingerprint{rows: rows, config: cfg, seconds: cfg.HopDuration()}
	for t, r := range dominant {
		if r >= 0 {
			rows[r][t] = 1
			fp.numSet++
		}
	}
	return fp
}

// randomRows generates a reproducible dominant-row sequence.
func randomRows(cfg Config, n int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int, n)
	for i := range out {
		out[i] = rng.Intn(cfg.NumRows)
	}
	return out
}

func TestEstimateSelfAlignment(t *testing.T) {
	cfg := testConfig()
	fp := fpFromRows(cfg, randomRows(cfg, 200, 1))

	po, err := Estimate(fp, fp)
	require.NoError(t, err)

	assert.Zero(t, po.LagSeconds)
	// Every one of the 200 set frames matches itself at lag zero.
	assert.InDelta(t, 1.0, po.Confidence, 0.01)
}

func TestEstimateKnownShift(t *testing.T) {
	cfg := testConfig()
	base := randomRows(cfg, 300, 2)

	tests := []struct {
		name      string
		lagFrames int
	}{
		{"forty frames", 40},
		{"one frame", 1},
		{"large shift", 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := fpFromRows(cfg, base)
			// b starts lagFrames later: its frame 0 is a's frame lagFrames.
			b := fpFromRows(cfg, base[tt.lagFrames:])

			po, err := Estimate(a, b)
			require.NoError(t, err)

			wantLag := float64(tt.lagFrames) * cfg.HopDuration()
			assert.InDelta(t, wantLag, po.LagSeconds, cfg.HopDuration()/2)
			assert.Greater(t, po.Confidence, 0.5)
		})
	}
}

func TestEstimateAntisymmetric(t *testing.T) {
	cfg := testConfig()
	base := randomRows(cfg, 300, 3)
	a := fpFromRows(cfg, base)
	b := fpFromRows(cfg, base[25:])

	ab, err := Estimate(a, b)
	require.NoError(t, err)
	ba, err := Estimate(b, a)
	require.NoError(t, err)

	// Swapping operands negates the lag, up to one frame of
	// quantization.
	assert.InDelta(t, -ab.LagSeconds, ba.LagSeconds, cfg.HopDuration())
}

func TestEstimateSurvivesCorruption(t *testing.T) {
	cfg := testConfig()
	rng := rand.New(rand.NewSource(4))
	base := randomRows(cfg, 400, 5)

	shifted := append([]int(nil), base[60:]...)
	// Corrupt a third of the frames; the correlation peak must still
	// stand out.
	for i := range shifted {
		if rng.Intn(3) == 0 {
			shifted[i] = rng.Intn(cfg.NumRows)
		}
	}

	po, err := Estimate(fpFromRows(cfg, base), fpFromRows(cfg, shifted))
	require.NoError(t, err)
	assert.InDelta(t, 60*cfg.HopDuration(), po.LagSeconds, cfg.HopDuration()/2)
}

func TestEstimateNoSignal(t *testing.T) {
	cfg := testConfig()
	silent := fpFromRows(cfg, []int{-1, -1, -1, -1})
	voiced := fpFromRows(cfg, randomRows(cfg, 50, 6))

	var nse *NoSignalError

	_, err := Estimate(silent, voiced)
	require.Error(t, err)
	assert.ErrorAs(t, err, &nse)

	_, err = Estimate(voiced, silent)
	require.Error(t, err)
	assert.ErrorAs(t, err, &nse)
}

func TestEstimateEndToEndWithTones(t *testing.T) {
	cfg := testConfig()

	// A two-tone "melody" repeated with a half-second head start. Using
	// real extraction exercises the whole pipeline, not just the
	// correlation math.
	pattern := func(skipSeconds float64) []float64 {
		var out []float64
		freqs := []float64{500, 1500, 875, 2250, 625, 1125, 1750, 375}
		for _, f := range freqs {
			out = append(out, sine(f, cfg.SampleRate, 0.25, 0.7)...)
		}
		skip := int(skipSeconds * float64(cfg.SampleRate))
		return out[skip:]
	}

	bufA := AudioBuffer{Samples: pattern(0), SampleRate: cfg.SampleRate}
	bufB := AudioBuffer{Samples: pattern(0.5), SampleRate: cfg.SampleRate}

	a, err := Extract(bufA, cfg)
	require.NoError(t, err)
	b, err := Extract(bufB, cfg)
	require.NoError(t, err)

	po, err := Estimate(a, b)
	require.NoError(t, err)

	// B misses the first half second of the event, i.e. B started
	// recording half a second after A.
	assert.InDelta(t, 0.5, po.LagSeconds, cfg.HopDuration())
}
