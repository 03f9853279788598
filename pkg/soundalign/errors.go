package soundalign

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInsufficientFiles is returned when fewer than two inputs are
// supplied; there is nothing to align.
var ErrInsufficientFiles = errors.New("soundalign: at least two files are required")

// NoSignalError reports a fingerprint with no set rows at all, which
// happens when the analyzed audio is silent (or effectively so). Such a
// fingerprint correlates equally badly against every lag, so the
// estimator refuses to guess.
type NoSignalError struct {
	Index int // position of the offending file in the input order
}

func (e *NoSignalError) Error() string {
	return fmt.Sprintf("soundalign: file %d carries no usable audio signal", e.Index)
}

// LowConfidenceError reports a pairwise correlation whose peak fell
// below the configured floor. It is a soft warning unless the run is
// strict.
type LowConfidenceError struct {
	Index      int
	Confidence float64
	Floor      float64
}

func (e *LowConfidenceError) Error() string {
	return fmt.Sprintf("soundalign: file %d aligned with confidence %.4f below floor %.4f",
		e.Index, e.Confidence, e.Floor)
}

// InvariantViolationError reports a negative trim or pad value produced
// by timeline reconciliation. This is a logic defect, never a normal
// outcome, so it aborts the whole batch and carries the inputs that
// produced it for diagnosis.
type InvariantViolationError struct {
	Quantity  string // "trim", "pad", "trim_post" or "pad_post"
	Index     int
	Value     float64
	Starts    []float64
	Durations []float64
}

func (e *InvariantViolationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "soundalign: reconciliation produced negative %s=%g for file %d",
		e.Quantity, e.Value, e.Index)
	fmt.Fprintf(&b, " (starts=%v durations=%v)", e.Starts, e.Durations)
	return b.String()
}
