package soundalign

import (
	"fmt"
	"math"
)

// invariantTolerance absorbs floating-point representation error when
// checking that reconciled trims and pads are non-negative.
const invariantTolerance = 1e-9

// TimelineResult carries both synchronization policies for one file.
// The trim policy cuts footage so every stream begins and ends at the
// common span; the pad policy inserts lead-in/lead-out so every stream
// covers the full union span. Callers pick one.
type TimelineResult struct {
	Trim     float64
	Pad      float64
	TrimPost float64
	PadPost  float64
}

// Reconcile converts relative starts plus original durations into
// head/tail trim and pad amounts for every file. starts and durations
// must be the same length. Every returned quantity is >= 0 by
// construction; a negative value beyond tolerance is a logic defect and
// is escalated as an InvariantViolationError with full inputs.
func Reconcile(starts, durations []float64) ([]TimelineResult, error) {
	n := len(starts)
	if n == 0 {
		return nil, ErrInsufficientFiles
	}
	if len(durations) != n {
		return nil, fmt.Errorf("soundalign: %d starts but %d durations", n, len(durations))
	}

	maxStart, minStart := starts[0], starts[0]
	for _, s := range starts[1:] {
		maxStart = math.Max(maxStart, s)
		minStart = math.Min(minStart, s)
	}

	out := make([]TimelineResult, n)

	// Trim policy: align heads by cutting to the latest starter, then
	// cap every stream at the earliest remaining end.
	commonEnd := math.Inf(1)
	for i := range out {
		out[i].Trim = maxStart - starts[i]
		commonEnd = math.Min(commonEnd, durations[i]-out[i].Trim)
	}
	for i := range out {
		out[i].TrimPost = (durations[i] - out[i].Trim) - commonEnd
	}

	// Pad policy: align heads by padding up to the earliest starter,
	// then extend every stream to the longest padded end.
	longestEnd := math.Inf(-1)
	for i := range out {
		out[i].Pad = starts[i] - minStart
		longestEnd = math.Max(longestEnd, durations[i]+out[i].Pad)
	}
	for i := range out {
		out[i].PadPost = longestEnd - (durations[i] + out[i].Pad)
	}

	for i, r := range out {
		for _, q := range [...]struct {
			name  string
			value float64
		}{
			{"trim", r.Trim},
			{"pad", r.Pad},
			{"trim_post", r.TrimPost},
			{"pad_post", r.PadPost},
		} {
			if q.value < -invariantTolerance {
				return nil, &InvariantViolationError{
					Quantity:  q.name,
					Index:     i,
					Value:     q.value,
					Starts:    append([]float64(nil), starts...),
					Durations: append([]float64(nil), durations...),
				}
			}
		}
	}

	return out, nil
}
