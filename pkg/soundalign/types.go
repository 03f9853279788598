package soundalign

// AudioBuffer is a decoded mono PCM signal handed in by the media
// layer. Samples are float64 in [-1, 1]; Duration is the total length
// of the source media (audio and/or video), which may exceed the
// sampled portion when extraction was bounded.
type AudioBuffer struct {
	Samples    []float64
	SampleRate int
	Duration   float64
}

// Fingerprint is a binary time-frequency indicator grid: rows[r][f] is
// 1 when frequency row r carries the dominant spectral energy at frame
// f, else 0. Silent frames have no set bit in any row.
type Fingerprint struct {
	rows    [][]float64
	numSet  int
	config  Config
	seconds float64 // hop duration, frames to seconds
}

// NumRows returns the fixed fingerprint height.
func (fp *Fingerprint) NumRows() int { return len(fp.rows) }

// NumFrames returns the number of analysis frames.
func (fp *Fingerprint) NumFrames() int {
	if len(fp.rows) == 0 {
		return 0
	}
	return len(fp.rows[0])
}

// Empty reports whether no frame set any row, i.e. the analyzed audio
// was silent throughout.
func (fp *Fingerprint) Empty() bool { return fp.numSet == 0 }

// PairwiseOffset is the result of correlating one fingerprint against a
// reference. LagSeconds is positive when the other file's content
// starts later than the reference's. Confidence values are comparable
// only between offsets computed with the same Config.
type PairwiseOffset struct {
	LagSeconds float64
	Confidence float64
}

// FileOffset is one resolved relative start, or a sentinel failure when
// Err is non-nil. RelativeStart is on an arbitrary shared clock; only
// differences between entries are meaningful.
type FileOffset struct {
	Index         int
	RelativeStart float64
	Confidence    float64
	Err           error
}

// Aligned reports whether the file produced a usable offset.
func (o FileOffset) Aligned() bool { return o.Err == nil }

// StreamInfo describes one media stream as probed from the container.
// The engine never interprets these; they ride along into the edit
// list for downstream tooling.
type StreamInfo struct {
	Type       string  `json:"type"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
	SampleRate int     `json:"sample_rate,omitempty"`
}

// FileTimelineEntry is the per-file synchronization result. The trim
// quantities realize the cut-only policy, the pad quantities the
// insert-only policy; both are always reported and always >= 0.
type FileTimelineEntry struct {
	Path         string       `json:"path"`
	Trim         float64      `json:"trim"`
	Pad          float64      `json:"pad"`
	OrigDuration float64      `json:"orig_duration"`
	TrimPost     float64      `json:"trim_post"`
	PadPost      float64      `json:"pad_post"`
	OrigStreams  []StreamInfo `json:"orig_streams,omitempty"`

	// RelativeStart is the resolved start on the shared clock the trims
	// and pads were derived from.
	RelativeStart float64 `json:"-"`
	// Error is set on sentinel entries for files that failed to align;
	// all numeric fields are zero in that case.
	Error string `json:"error,omitempty"`
}

// Aligned reports whether this entry carries a real result rather than
// a sentinel failure.
func (e FileTimelineEntry) Aligned() bool { return e.Error == "" }

// EditList is the ordered synchronization result. Entry order matches
// the order the files were supplied in; downstream tools rely on that
// positional correspondence.
type EditList struct {
	Entries []FileTimelineEntry `json:"edit_list"`
}

// FileOffsetReport is the legacy result shape: one signed relative
// start per file instead of the trim/pad record. Both shapes describe
// the same underlying relative starts and are derivable from one
// another.
type FileOffsetReport struct {
	Path   string  `json:"path"`
	Offset float64 `json:"offset"`
	Error  string  `json:"error,omitempty"`
}

// Offsets derives the legacy shape from the edit list.
func (el *EditList) Offsets() []FileOffsetReport {
	out := make([]FileOffsetReport, len(el.Entries))
	for i, e := range el.Entries {
		out[i] = FileOffsetReport{Path: e.Path, Error: e.Error}
		if e.Aligned() {
			out[i].Offset = normalizeZero(e.RelativeStart)
		}
	}
	return out
}
