package soundalign

// Config holds the analysis parameters shared by the feature extractor
// and the offset estimator. Fingerprints are only comparable when they
// were produced with the same Config, so the value is threaded through
// every call explicitly instead of living in package state.
type Config struct {
	// SampleRate is the fixed analysis rate in Hz. Buffers with a
	// different native rate are resampled to this rate before the STFT.
	SampleRate int
	// WindowSize is the STFT window length in samples.
	WindowSize int
	// HopSize is the STFT hop length in samples. Equal to WindowSize
	// means non-overlapping frames.
	HopSize int
	// NumRows is the number of frequency rows in a fingerprint.
	NumRows int
	// SilenceEpsilon is the magnitude floor below which a frame is
	// considered silent and contributes no row vote.
	SilenceEpsilon float64
	// MinConfidence is the correlation-peak floor below which a pairwise
	// alignment is reported as low confidence. Zero disables the check.
	MinConfidence float64
	// Strict promotes low-confidence alignments from warnings to
	// per-file failures.
	Strict bool
}

// DefaultConfig returns the analysis parameters used when the caller
// does not override them. The geometry (1024-sample window, no overlap,
// 48 kHz) trades sub-frame accuracy for speed on long recordings.
func DefaultConfig() Config {
	return Config{
		SampleRate:     48000,
		WindowSize:     1024,
		HopSize:        1024,
		NumRows:        256,
		SilenceEpsilon: 1e-8,
		MinConfidence:  0,
		Strict:         false,
	}
}

// HopDuration returns the duration of one analysis frame in seconds.
func (c Config) HopDuration() float64 {
	return float64(c.HopSize) / float64(c.SampleRate)
}

func (c Config) validate() error {
	switch {
	case c.SampleRate <= 0:
		return errConfig("sample rate must be positive")
	case c.WindowSize <= 0:
		return errConfig("window size must be positive")
	case c.HopSize <= 0:
		return errConfig("hop size must be positive")
	case c.NumRows <= 0:
		return errConfig("row count must be positive")
	case c.NumRows > c.WindowSize/2:
		return errConfig("row count exceeds the number of spectrum bins")
	}
	return nil
}

type errConfig string

func (e errConfig) Error() string { return "soundalign: invalid config: " + string(e) }
