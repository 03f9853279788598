// Package report renders alignment results for people and for
// downstream tooling. The JSON edit-list shape is the stable contract;
// the text rendering mirrors the classic one-line-per-file advice.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/soundalign/soundalign/pkg/soundalign"
)

// WriteJSON writes the edit list as indented JSON:
// {"edit_list": [{path, trim, pad, orig_duration, trim_post, pad_post,
// orig_streams?}, ...]}.
func WriteJSON(w io.Writer, el *soundalign.EditList) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(el)
}

// WriteOffsetsJSON writes the legacy shape: one signed relative start
// per file.
func WriteOffsetsJSON(w io.Writer, el *soundalign.EditList) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(struct {
		Offsets []soundalign.FileOffsetReport `json:"offsets"`
	}{el.Offsets()})
}

// WriteText writes the human report: one line of trim/pad advice per
// file that needs any, or a single all-clear line.
func WriteText(w io.Writer, el *soundalign.EditList) error {
	var lines []string
	for _, e := range el.Entries {
		if !e.Aligned() {
			lines = append(lines, fmt.Sprintf(
				"Result: '%s' could not be aligned: %s", e.Path, e.Error))
			continue
		}
		if e.Trim > 0 {
			lines = append(lines, fmt.Sprintf(
				"Result: The beginning of '%s' needs to be trimmed off %.4f seconds "+
					"(or to be added %.4f seconds padding) for all files to be in sync",
				e.Path, e.Trim, e.Pad))
		}
	}
	if len(lines) == 0 {
		lines = []string{"files are in sync already"}
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// StreamSummary aggregates the probed stream qualities across all
// inputs. Editors that normalize their output format to the "best"
// input use these maxima as defaults.
type StreamSummary struct {
	MaxWidth      int     `json:"max_width,omitempty"`
	MaxHeight     int     `json:"max_height,omitempty"`
	MaxFPS        float64 `json:"max_fps,omitempty"`
	MaxSampleRate int     `json:"max_sample_rate,omitempty"`
}

// Summarize computes the stream-quality maxima over an edit list.
func Summarize(el *soundalign.EditList) StreamSummary {
	var s StreamSummary
	for _, e := range el.Entries {
		for _, st := range e.OrigStreams {
			if st.Width > s.MaxWidth {
				s.MaxWidth = st.Width
			}
			if st.Height > s.MaxHeight {
				s.MaxHeight = st.Height
			}
			if st.FPS > s.MaxFPS {
				s.MaxFPS = st.FPS
			}
			if st.SampleRate > s.MaxSampleRate {
				s.MaxSampleRate = st.SampleRate
			}
		}
	}
	return s
}
