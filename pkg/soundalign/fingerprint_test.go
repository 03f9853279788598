package soundalign

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig keeps unit tests fast: a small grid at a low rate.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleRate = 8000
	cfg.WindowSize = 256
	cfg.HopSize = 256
	cfg.NumRows = 32
	return cfg
}

// sine synthesizes amplitude*sin(2*pi*freq*t) at the given rate.
func sine(freq float64, rate int, seconds float64, amplitude float64) []float64 {
	n := int(float64(rate) * seconds)
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func TestExtractDominantRowFollowsTone(t *testing.T) {
	cfg := testConfig()

	// 1 kHz at 8 kHz / 256-sample windows lands in FFT bin 32; with 128
	// positive bins folded into 32 rows that is row 8.
	buf := AudioBuffer{Samples: sine(1000, cfg.SampleRate, 1.0, 0.8), SampleRate: cfg.SampleRate}
	fp, err := Extract(buf, cfg)
	require.NoError(t, err)

	require.Equal(t, cfg.NumRows, fp.NumRows())
	require.Greater(t, fp.NumFrames(), 0)
	assert.False(t, fp.Empty())

	for f := 0; f < fp.NumFrames(); f++ {
		assert.Equal(t, 1.0, fp.rows[8][f], "frame %d should vote for row 8", f)
	}
}

func TestExtractSilenceLeavesFramesEmpty(t *testing.T) {
	cfg := testConfig()

	buf := AudioBuffer{Samples: make([]float64, cfg.SampleRate), SampleRate: cfg.SampleRate}
	fp, err := Extract(buf, cfg)
	require.NoError(t, err)

	assert.True(t, fp.Empty())
	assert.Greater(t, fp.NumFrames(), 0)
}

func TestExtractDeterministic(t *testing.T) {
	cfg := testConfig()
	buf := AudioBuffer{Samples: sine(700, cfg.SampleRate, 0.5, 0.5), SampleRate: cfg.SampleRate}

	a, err := Extract(buf, cfg)
	require.NoError(t, err)
	b, err := Extract(buf, cfg)
	require.NoError(t, err)

	require.Equal(t, a.NumFrames(), b.NumFrames())
	assert.Equal(t, a.rows, b.rows)
	assert.Equal(t, a.numSet, b.numSet)
}

func TestExtractResamplesToAnalysisRate(t *testing.T) {
	cfg := testConfig()

	// The same tone delivered at a different native rate must land on
	// the same dominant row once resampled to the analysis rate.
	buf := AudioBuffer{Samples: sine(1000, 16000, 1.0, 0.8), SampleRate: 16000}
	fp, err := Extract(buf, cfg)
	require.NoError(t, err)

	require.False(t, fp.Empty())
	for f := 0; f < fp.NumFrames(); f++ {
		assert.Equal(t, 1.0, fp.rows[8][f], "frame %d", f)
	}
}

func TestExtractShortBufferYieldsNoFrames(t *testing.T) {
	cfg := testConfig()
	buf := AudioBuffer{Samples: make([]float64, cfg.WindowSize-1), SampleRate: cfg.SampleRate}

	fp, err := Extract(buf, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, fp.NumFrames())
	assert.True(t, fp.Empty())
}

func TestExtractValidatesConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"zero window", func(c *Config) { c.WindowSize = 0 }},
		{"zero hop", func(c *Config) { c.HopSize = 0 }},
		{"zero rows", func(c *Config) { c.NumRows = 0 }},
		{"too many rows", func(c *Config) { c.NumRows = c.WindowSize }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := Extract(AudioBuffer{Samples: sine(440, 8000, 0.1, 1), SampleRate: 8000}, cfg)
			assert.Error(t, err)
		})
	}
}

func TestResample(t *testing.T) {
	in := []float64{0, 1, 2, 3, 4, 5, 6, 7}

	t.Run("identity", func(t *testing.T) {
		assert.Equal(t, in, resample(in, 8000, 8000))
	})

	t.Run("downsample by two", func(t *testing.T) {
		out := resample(in, 8000, 4000)
		require.Len(t, out, 4)
		assert.InDelta(t, 0.0, out[0], 1e-12)
		assert.InDelta(t, 2.0, out[1], 1e-12)
		assert.InDelta(t, 4.0, out[2], 1e-12)
	})

	t.Run("upsample interpolates", func(t *testing.T) {
		out := resample([]float64{0, 2}, 4000, 8000)
		require.Len(t, out, 4)
		assert.InDelta(t, 0.0, out[0], 1e-12)
		assert.InDelta(t, 1.0, out[1], 1e-12)
	})
}
