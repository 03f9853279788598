// Command soundalign reports how far apart independently recorded
// media files of the same event are, and how much to trim or pad each
// one to bring them into sync. It relies on ffmpeg and ffprobe being
// installed.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/soundalign/soundalign/internal/cache"
	"github.com/soundalign/soundalign/internal/media"
	"github.com/soundalign/soundalign/internal/report"
	"github.com/soundalign/soundalign/pkg/logger"
	"github.com/soundalign/soundalign/pkg/soundalign"
)

var (
	jsonOutput      bool
	offsetsOutput   bool
	quiet           bool
	sampleRate      int
	maxMisalignment float64
	knownDelayJSON  string
	confidenceFloor float64
	strict          bool
	concurrency     int
	noCache         bool
	cachePath       string
	version         = "1.0.0"
)

var rootCmd = &cobra.Command{
	Use:   "soundalign <file1> <file2> [file...]",
	Short: "Align media files of the same event by their audio tracks",
	Long: `soundalign estimates the relative time offset between media files that
recorded the same event, and reports how much to trim or pad at the
head and tail of each file so they play in frame-accurate sync.

Example:

    soundalign good_video_bad_audio.mp4 good_audio_bad_video.mp4

Any media that ffmpeg can decode works as input.`,
	Args: cobra.MinimumNArgs(2),
	RunE: run,
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVar(&jsonOutput, "json", false, "report the edit list as JSON")
	flags.BoolVar(&offsetsOutput, "offsets", false, "report the legacy signed-offset shape instead of the edit list")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	flags.IntVar(&sampleRate, "sample-rate", 48000, "analysis sample rate in Hz; lower is faster but less precise")
	flags.Float64Var(&maxMisalignment, "max-misalignment", 120, "largest expected offset in seconds; only 2x this much audio is scanned per file (0 = whole file)")
	flags.StringVar(&knownDelayJSON, "known-delay", "", `JSON map of known minimum delays by input index, e.g. '{"1": 120}'`)
	flags.Float64Var(&confidenceFloor, "confidence-floor", 0, "warn when a pairwise correlation peak falls below this value")
	flags.BoolVar(&strict, "strict", false, "treat low-confidence alignments as per-file failures")
	flags.IntVarP(&concurrency, "concurrency", "j", runtime.NumCPU(), "parallel file analyses")
	flags.BoolVar(&noCache, "no-cache", false, "disable the probe result cache")
	flags.StringVar(&cachePath, "cache-path", cache.DefaultPath(), "probe cache database location")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("soundalign version {{.Version}}\n")
}

func run(cmd *cobra.Command, args []string) error {
	log := logger.GetLogger()
	if quiet {
		log.SetLevel(logger.WARN)
	}

	files, err := resolveFiles(args)
	if err != nil {
		return err
	}

	knownDelays, err := parseKnownDelays(knownDelayJSON, len(files))
	if err != nil {
		return err
	}

	decoderOpts := []media.FFmpegOption{media.WithLogger(log)}
	if !noCache {
		store, err := cache.Open(cachePath)
		if err != nil {
			log.Warnf("probe cache unavailable: %v", err)
		} else {
			defer store.Close()
			decoderOpts = append(decoderOpts, media.WithProbeCache(store))
		}
	}

	decoder, err := media.NewFFmpeg(decoderOpts...)
	if err != nil {
		return err
	}
	defer decoder.Close()

	opts := []soundalign.Option{
		soundalign.WithLogger(log),
		soundalign.WithSampleRate(sampleRate),
		soundalign.WithMaxMisalignment(maxMisalignment),
		soundalign.WithConcurrency(concurrency),
		soundalign.WithConfidenceFloor(confidenceFloor, strict),
	}
	if len(knownDelays) > 0 {
		opts = append(opts, soundalign.WithKnownDelays(knownDelays))
	}

	if !quiet && !jsonOutput && !offsetsOutput {
		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("analyzing audio"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(os.Stderr),
		)
		opts = append(opts, soundalign.WithProgress(func(done, total int) {
			bar.Add(1)
			if done == total {
				bar.Finish()
				fmt.Fprintln(os.Stderr)
			}
		}))
	}

	svc, err := soundalign.NewService(decoder, opts...)
	if err != nil {
		return err
	}

	editList, err := svc.Align(context.Background(), files)
	if err != nil {
		return err
	}

	switch {
	case offsetsOutput:
		return report.WriteOffsetsJSON(os.Stdout, editList)
	case jsonOutput:
		return report.WriteJSON(os.Stdout, editList)
	default:
		return report.WriteText(os.Stdout, editList)
	}
}

// resolveFiles makes every argument absolute and verifies it exists
// before any ffmpeg work starts.
func resolveFiles(args []string) ([]string, error) {
	files := make([]string, len(args))
	for i, a := range args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return nil, err
		}
		if st, err := os.Stat(abs); err != nil || st.IsDir() {
			return nil, fmt.Errorf("%s: no such file", a)
		}
		files[i] = abs
	}
	return files, nil
}

func parseKnownDelays(raw string, numFiles int) (map[int]float64, error) {
	if raw == "" {
		return nil, nil
	}
	var byKey map[string]float64
	if err := json.Unmarshal([]byte(raw), &byKey); err != nil {
		return nil, fmt.Errorf("parsing --known-delay: %w", err)
	}
	out := make(map[int]float64, len(byKey))
	for k, v := range byKey {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || idx >= numFiles {
			return nil, fmt.Errorf("--known-delay key %q is not a valid file index", k)
		}
		if v < 0 {
			return nil, fmt.Errorf("--known-delay for file %d must be >= 0", idx)
		}
		out[idx] = v
	}
	return out, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
