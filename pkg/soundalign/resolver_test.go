package soundalign

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStarTopology(t *testing.T) {
	cfg := testConfig()
	base := randomRows(cfg, 400, 10)

	fps := []*Fingerprint{
		fpFromRows(cfg, base),
		fpFromRows(cfg, base[30:]),  // started 30 frames later
		fpFromRows(cfg, base[120:]), // started 120 frames later
	}

	offsets, err := NewResolver(cfg, nil, 2).Resolve(context.Background(), fps)
	require.NoError(t, err)
	require.Len(t, offsets, 3)

	hop := cfg.HopDuration()
	assert.True(t, offsets[0].Aligned())
	assert.Zero(t, offsets[0].RelativeStart)
	assert.True(t, offsets[1].Aligned())
	assert.InDelta(t, 30*hop, offsets[1].RelativeStart, hop/2)
	assert.True(t, offsets[2].Aligned())
	assert.InDelta(t, 120*hop, offsets[2].RelativeStart, hop/2)

	// Results are index-addressed regardless of completion order.
	for i, o := range offsets {
		assert.Equal(t, i, o.Index)
	}
}

func TestResolveInsufficientFiles(t *testing.T) {
	cfg := testConfig()
	r := NewResolver(cfg, nil, 0)

	_, err := r.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInsufficientFiles)

	_, err = r.Resolve(context.Background(), []*Fingerprint{fpFromRows(cfg, randomRows(cfg, 10, 1))})
	assert.ErrorIs(t, err, ErrInsufficientFiles)
}

func TestResolveSilentFileBecomesSentinel(t *testing.T) {
	cfg := testConfig()
	base := randomRows(cfg, 200, 11)

	fps := []*Fingerprint{
		fpFromRows(cfg, base),
		fpFromRows(cfg, []int{-1, -1, -1}),
		fpFromRows(cfg, base[40:]),
	}

	offsets, err := NewResolver(cfg, nil, 1).Resolve(context.Background(), fps)
	require.NoError(t, err)

	var nse *NoSignalError
	assert.False(t, offsets[1].Aligned())
	assert.ErrorAs(t, offsets[1].Err, &nse)
	assert.Equal(t, 1, nse.Index)

	// The silent file does not take the rest of the batch down.
	assert.True(t, offsets[0].Aligned())
	assert.True(t, offsets[2].Aligned())
	assert.InDelta(t, 40*cfg.HopDuration(), offsets[2].RelativeStart, cfg.HopDuration()/2)
}

func TestResolveSilentReferenceFailsAll(t *testing.T) {
	cfg := testConfig()
	fps := []*Fingerprint{
		fpFromRows(cfg, []int{-1, -1, -1}),
		fpFromRows(cfg, randomRows(cfg, 100, 12)),
	}

	offsets, err := NewResolver(cfg, nil, 1).Resolve(context.Background(), fps)
	require.NoError(t, err)

	for i, o := range offsets {
		assert.False(t, o.Aligned(), "file %d", i)
	}
}

func TestResolveStrictConfidenceFloor(t *testing.T) {
	cfg := testConfig()
	cfg.MinConfidence = 0.9
	cfg.Strict = true

	base := randomRows(cfg, 300, 13)
	unrelated := randomRows(cfg, 300, 14)

	fps := []*Fingerprint{
		fpFromRows(cfg, base),
		fpFromRows(cfg, base[20:]), // genuine match, confidence near 1
		fpFromRows(cfg, unrelated), // no shared content
	}

	offsets, err := NewResolver(cfg, nil, 1).Resolve(context.Background(), fps)
	require.NoError(t, err)

	assert.True(t, offsets[1].Aligned())

	var lce *LowConfidenceError
	require.False(t, offsets[2].Aligned())
	assert.ErrorAs(t, offsets[2].Err, &lce)
	assert.Equal(t, 2, lce.Index)
	assert.Less(t, lce.Confidence, 0.9)
}

func TestResolveCanceledContext(t *testing.T) {
	cfg := testConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fps := []*Fingerprint{
		fpFromRows(cfg, randomRows(cfg, 2000, 15)),
		fpFromRows(cfg, randomRows(cfg, 2000, 16)),
	}

	_, err := NewResolver(cfg, nil, 1).Resolve(ctx, fps)
	// Either the cancellation won the race or the tiny batch finished;
	// both are acceptable, but a cancellation must surface as one.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
