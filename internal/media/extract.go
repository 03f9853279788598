package media

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/soundalign/soundalign/pkg/soundalign"
)

// ReadMonoAudio extracts mono PCM from path at the requested rate and
// returns it as a sample buffer. skipSeconds of head audio are dropped
// with -ss and at most maxSeconds are decoded (-t); either may be zero.
// Extraction goes through a WAV file in the working directory, which is
// reused when the same file is requested twice with the same
// parameters.
func (f *FFmpeg) ReadMonoAudio(ctx context.Context, path string, sampleRate int, skipSeconds, maxSeconds float64) (soundalign.AudioBuffer, error) {
	var buf soundalign.AudioBuffer

	wavPath, err := f.extractMonoWAV(ctx, path, sampleRate, skipSeconds, maxSeconds)
	if err != nil {
		return buf, err
	}

	samples, rate, err := readWAV(wavPath)
	if err != nil {
		return buf, fmt.Errorf("reading extracted wav: %w", err)
	}

	buf.Samples = samples
	buf.SampleRate = rate
	buf.Duration = float64(len(samples)) / float64(rate)
	return buf, nil
}

func (f *FFmpeg) extractMonoWAV(ctx context.Context, path string, sampleRate int, skipSeconds, maxSeconds float64) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}

	out := f.extractedPath(path, sampleRate, skipSeconds, maxSeconds)
	if _, err := os.Stat(out); err == nil {
		f.log.Debugf("reusing extracted audio: %s", out)
		return out, nil
	}

	args := []string{"-hide_banner", "-y", "-v", "quiet"}
	if skipSeconds > 0 {
		args = append(args, "-ss", hhmmss(skipSeconds))
	}
	if maxSeconds > 0 {
		args = append(args, "-t", fmt.Sprintf("%d", int(maxSeconds)))
	}
	args = append(args,
		"-i", path,
		"-vn",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", "1",
		"-f", "wav",
		out,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed for %s: %v (%s)", path, err, output)
	}
	return out, nil
}

// extractedPath names the working-directory WAV for one (file,
// parameters) combination. The full input path is part of the key, via
// a digest: camera-generated names repeat across directories, and two
// distinct inputs must never resolve to the same extraction.
func (f *FFmpeg) extractedPath(path string, sampleRate int, skipSeconds, maxSeconds float64) string {
	sum := md5.Sum([]byte(path))
	return filepath.Join(f.workDir, fmt.Sprintf("%s-%x[%g-%g-%d].wav",
		filepath.Base(path), sum[:6], skipSeconds, maxSeconds, sampleRate))
}

// hhmmss formats seconds as HH:MM:SS.mmm for ffmpeg's -ss argument.
func hhmmss(seconds float64) string {
	whole := int(seconds)
	ms := int((seconds - float64(whole)) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", whole/3600, (whole/60)%60, whole%60, ms)
}
