package soundalign

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// MediaInfo is what the probing collaborator reports for one file.
type MediaInfo struct {
	Duration float64
	Streams  []StreamInfo
}

// Decoder is the external media collaborator: it probes container
// metadata and hands decoded mono PCM to the engine. The repository's
// internal/media package implements it on top of ffprobe/ffmpeg.
type Decoder interface {
	Probe(ctx context.Context, path string) (MediaInfo, error)
	// ReadMonoAudio decodes up to maxSeconds of mono audio at the given
	// rate, skipping skipSeconds from the head. maxSeconds <= 0 means
	// the whole file.
	ReadMonoAudio(ctx context.Context, path string, sampleRate int, skipSeconds, maxSeconds float64) (AudioBuffer, error)
}

// Service runs the full alignment pipeline: probe, extract
// fingerprints, resolve offsets, reconcile timelines, assemble the
// edit list.
type Service struct {
	cfg         Config
	decoder     Decoder
	log         Logger
	workers     int
	maxMisalign float64
	knownDelays map[int]float64
	progress    func(done, total int)
}

// Option configures a Service.
type Option func(*Service)

// WithConfig replaces the analysis configuration wholesale.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithSampleRate overrides the analysis sample rate. Lower rates cut
// memory and time at the cost of some accuracy.
func WithSampleRate(rate int) Option {
	return func(s *Service) { s.cfg.SampleRate = rate }
}

// WithLogger sets the logger used for soft warnings and progress.
func WithLogger(log Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithConcurrency bounds the parallel feature extractions and pairwise
// estimations. Zero or negative means one per CPU.
func WithConcurrency(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithMaxMisalignment bounds how far apart recordings may start, in
// seconds. Only 2x this much audio is decoded per file, which keeps
// long media tractable. Zero disables the bound.
func WithMaxMisalignment(seconds float64) Option {
	return func(s *Service) { s.maxMisalign = seconds }
}

// WithKnownDelays supplies per-file lower bounds on the delay, keyed by
// input index. That much head audio is skipped before analysis and the
// resolved offsets are compensated accordingly, which makes very large
// offsets affordable to detect.
func WithKnownDelays(delays map[int]float64) Option {
	return func(s *Service) { s.knownDelays = delays }
}

// WithConfidenceFloor marks alignments whose correlation peak falls
// below floor. strict turns them into per-file failures.
func WithConfidenceFloor(floor float64, strict bool) Option {
	return func(s *Service) {
		s.cfg.MinConfidence = floor
		s.cfg.Strict = strict
	}
}

// WithProgress installs a callback invoked after each file's
// fingerprint is ready.
func WithProgress(fn func(done, total int)) Option {
	return func(s *Service) { s.progress = fn }
}

// NewService builds the alignment pipeline around the given media
// decoder.
func NewService(decoder Decoder, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:     DefaultConfig(),
		decoder: decoder,
		log:     nopLogger{},
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.decoder == nil {
		return nil, errConfig("a media decoder is required")
	}
	if err := s.cfg.validate(); err != nil {
		return nil, err
	}
	if s.workers <= 0 {
		s.workers = runtime.NumCPU()
	}
	return s, nil
}

// Config returns the analysis configuration in effect.
func (s *Service) Config() Config { return s.cfg }

// Align synchronizes the given files and returns the ordered edit
// list. A file that cannot be decoded or aligned becomes a sentinel
// entry; the rest of the batch still completes. Reconciliation
// invariant violations abort the whole run.
func (s *Service) Align(ctx context.Context, files []string) (*EditList, error) {
	if len(files) < 2 {
		return nil, ErrInsufficientFiles
	}

	inputs := make([]Input, len(files))
	fps := make([]*Fingerprint, len(files))
	prepErrs := make([]error, len(files))

	// Per-file probing and feature extraction are independent; fan out
	// with index-addressed slots so completion order never matters.
	var (
		wg   sync.WaitGroup
		done int
		mu   sync.Mutex
	)
	jobs := make(chan int)
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				inputs[i], fps[i], prepErrs[i] = s.prepare(ctx, files[i], i)
				if s.progress != nil {
					mu.Lock()
					done++
					s.progress(done, len(files))
					mu.Unlock()
				}
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	offsets, err := s.resolveOffsets(ctx, fps, prepErrs)
	if err != nil {
		return nil, err
	}

	return Assemble(inputs, offsets)
}

// prepare probes one file and turns its audio into a fingerprint. On
// failure it still returns a usable Input (path only) plus an empty
// fingerprint so the batch keeps its shape.
func (s *Service) prepare(ctx context.Context, path string, idx int) (Input, *Fingerprint, error) {
	in := Input{Path: path}
	empty := &Fingerprint{config: s.cfg, seconds: s.cfg.HopDuration()}

	info, err := s.decoder.Probe(ctx, path)
	if err != nil {
		return in, empty, fmt.Errorf("probing %s: %w", path, err)
	}
	in.Duration = info.Duration
	in.Streams = info.Streams

	buf, err := s.decoder.ReadMonoAudio(ctx, path, s.cfg.SampleRate, s.knownDelays[idx], s.maxSeconds())
	if err != nil {
		return in, empty, fmt.Errorf("decoding %s: %w", path, err)
	}

	fp, err := Extract(buf, s.cfg)
	if err != nil {
		return in, empty, fmt.Errorf("fingerprinting %s: %w", path, err)
	}
	s.log.Debugf("fingerprinted %s: %d frames", path, fp.NumFrames())
	return in, fp, nil
}

func (s *Service) maxSeconds() float64 {
	if s.maxMisalign > 0 {
		return 2 * s.maxMisalign
	}
	return 0
}

func (s *Service) resolveOffsets(ctx context.Context, fps []*Fingerprint, prepErrs []error) ([]FileOffset, error) {
	resolver := NewResolver(s.cfg, s.log, s.workers)
	offsets, err := resolver.Resolve(ctx, fps)
	if err != nil {
		return nil, err
	}

	// A preparation failure is the more informative error for its slot.
	for i, perr := range prepErrs {
		if perr != nil {
			offsets[i].Err = perr
			offsets[i].RelativeStart = 0
			offsets[i].Confidence = 0
		}
	}

	// Known head skips shift the measured starts; undo them so the
	// reported relative starts describe the untouched files.
	for i, d := range s.knownDelays {
		if i < 0 || i >= len(offsets) || d == 0 {
			continue
		}
		for j := range offsets {
			offsets[j].RelativeStart += d
		}
		offsets[i].RelativeStart -= d
	}

	return offsets, nil
}
