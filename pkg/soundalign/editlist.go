package soundalign

import "fmt"

// Input describes one file as handed to Align / Assemble: its path for
// reporting, its total media duration, and optional probed stream
// descriptors that ride along untouched.
type Input struct {
	Path     string
	Duration float64
	Streams  []StreamInfo
}

// Assemble packages resolved offsets and reconciled timelines into the
// ordered edit list. Entry order matches input order. Files whose
// offset carries an error become sentinel entries; they are excluded
// from reconciliation so one bad file cannot poison the rest.
func Assemble(inputs []Input, offsets []FileOffset) (*EditList, error) {
	if len(inputs) != len(offsets) {
		return nil, fmt.Errorf("soundalign: %d inputs but %d offsets", len(inputs), len(offsets))
	}

	aligned := make([]int, 0, len(offsets))
	starts := make([]float64, 0, len(offsets))
	durations := make([]float64, 0, len(offsets))
	for i, o := range offsets {
		if o.Aligned() {
			aligned = append(aligned, i)
			starts = append(starts, o.RelativeStart)
			durations = append(durations, inputs[i].Duration)
		}
	}

	el := &EditList{Entries: make([]FileTimelineEntry, len(inputs))}
	for i, in := range inputs {
		el.Entries[i] = FileTimelineEntry{
			Path:         in.Path,
			OrigDuration: in.Duration,
			OrigStreams:  in.Streams,
		}
		if err := offsets[i].Err; err != nil {
			el.Entries[i].Error = err.Error()
		}
	}

	if len(aligned) > 0 {
		results, err := Reconcile(starts, durations)
		if err != nil {
			return nil, err
		}
		for k, i := range aligned {
			e := &el.Entries[i]
			e.RelativeStart = normalizeZero(starts[k])
			e.Trim = normalizeZero(results[k].Trim)
			e.Pad = normalizeZero(results[k].Pad)
			e.TrimPost = normalizeZero(results[k].TrimPost)
			e.PadPost = normalizeZero(results[k].PadPost)
		}
	}

	return el, nil
}

// normalizeZero maps negative zero (and sub-tolerance residue) to an
// exact 0.0 so serialized output never carries "-0".
func normalizeZero(v float64) float64 {
	if v == 0 || (v < 0 && v > -invariantTolerance) {
		return 0
	}
	return v
}
