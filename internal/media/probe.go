package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/soundalign/soundalign/pkg/soundalign"
)

// ffprobe prints the information we need on stderr, not stdout, so the
// probe captures stderr and parses it line-wise.
var (
	durationRe = regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2})\.(\d{2})`)
	streamRe   = regexp.MustCompile(`Stream #(\d+):(\d+)(?:\[[^\]]*\])?(?:\(\w+\))?: ([^:]+): (.*)$`)
	resolRe    = regexp.MustCompile(`([1-9]\d*)x([1-9]\d*)`)
	fpsRe      = regexp.MustCompile(`([\d.]+) fps`)
	hzRe       = regexp.MustCompile(`(\d+) Hz`)
)

// Probe runs ffprobe on path and returns the media duration plus one
// descriptor per stream, in stream order.
func (f *FFmpeg) Probe(ctx context.Context, path string) (soundalign.MediaInfo, error) {
	var info soundalign.MediaInfo

	if _, err := os.Stat(path); err != nil {
		return info, err
	}

	if f.cache != nil {
		if cached, ok := f.cache.Get(path); ok {
			f.log.Debugf("probe cache hit: %s", path)
			return cached, nil
		}
	}

	cmd := exec.CommandContext(ctx, "ffprobe", "-hide_banner", path)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	// ffprobe exits non-zero without output args while still dumping a
	// complete report to stderr, so an exit error with output is fine.
	// An exit error with no output means the run itself failed, e.g. the
	// binary is not installed.
	runErr := cmd.Run()
	if ctx.Err() != nil {
		return info, ctx.Err()
	}
	if runErr != nil && strings.TrimSpace(stderr.String()) == "" {
		return info, fmt.Errorf("running ffprobe on %s: %w", path, runErr)
	}

	info, err := parseProbeOutput(stderr.String())
	if err != nil {
		return info, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	if f.cache != nil {
		if err := f.cache.Put(path, info); err != nil {
			f.log.Warnf("probe cache write failed for %s: %v", path, err)
		}
	}
	return info, nil
}

func parseProbeOutput(out string) (soundalign.MediaInfo, error) {
	var info soundalign.MediaInfo
	lines := strings.Split(out, "\n")

	i := 0
	for ; i < len(lines); i++ {
		if m := durationRe.FindStringSubmatch(lines[i]); m != nil {
			h, _ := strconv.Atoi(m[1])
			mi, _ := strconv.Atoi(m[2])
			s, _ := strconv.Atoi(m[3])
			cs, _ := strconv.Atoi(m[4])
			info.Duration = float64(h)*3600 + float64(mi)*60 + float64(s) + float64(cs)/100
			break
		}
	}
	if i == len(lines) {
		return info, fmt.Errorf("no duration in ffprobe output")
	}

	for _, line := range lines[i+1:] {
		m := streamRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		kind, rest := m[3], m[4]
		switch kind {
		case "Video":
			st := soundalign.StreamInfo{Type: kind}
			if r := resolRe.FindStringSubmatch(rest); r != nil {
				st.Width, _ = strconv.Atoi(r[1])
				st.Height, _ = strconv.Atoi(r[2])
			}
			if r := fpsRe.FindStringSubmatch(rest); r != nil {
				st.FPS, _ = strconv.ParseFloat(r[1], 64)
			}
			info.Streams = append(info.Streams, st)
		case "Audio":
			st := soundalign.StreamInfo{Type: kind}
			if r := hzRe.FindStringSubmatch(rest); r != nil {
				st.SampleRate, _ = strconv.Atoi(r[1])
			}
			info.Streams = append(info.Streams, st)
		}
	}

	return info, nil
}
