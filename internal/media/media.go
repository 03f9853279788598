// Package media is the external collaborator the alignment engine
// leans on: it shells out to ffprobe for container metadata and to
// ffmpeg for mono PCM extraction, and reads the resulting WAV files
// back as float samples. Nothing in here interprets the audio.
package media

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/soundalign/soundalign/pkg/soundalign"
)

// ProbeCache persists probe results between runs so repeated
// alignments of the same files skip ffprobe.
type ProbeCache interface {
	Get(path string) (soundalign.MediaInfo, bool)
	Put(path string, info soundalign.MediaInfo) error
}

// FFmpeg implements soundalign.Decoder on top of the ffmpeg/ffprobe
// binaries. Extracted WAV files live in a per-instance working
// directory that Close removes.
type FFmpeg struct {
	workDir string
	log     soundalign.Logger
	cache   ProbeCache
}

// FFmpegOption configures an FFmpeg decoder.
type FFmpegOption func(*FFmpeg)

// WithLogger sets the decoder's logger.
func WithLogger(log soundalign.Logger) FFmpegOption {
	return func(f *FFmpeg) { f.log = log }
}

// WithProbeCache installs a persistent probe cache.
func WithProbeCache(c ProbeCache) FFmpegOption {
	return func(f *FFmpeg) { f.cache = c }
}

// NewFFmpeg creates a decoder with a fresh working directory under the
// system temp dir.
func NewFFmpeg(opts ...FFmpegOption) (*FFmpeg, error) {
	dir := filepath.Join(os.TempDir(), "soundalign-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating working dir: %w", err)
	}
	f := &FFmpeg{workDir: dir, log: nopLogger{}}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// WorkDir returns the directory holding extracted WAV files.
func (f *FFmpeg) WorkDir() string { return f.workDir }

// Close removes the working directory and everything extracted into it.
func (f *FFmpeg) Close() error {
	return os.RemoveAll(f.workDir)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
func (nopLogger) Debugf(string, ...any) {}
