package soundalign

import (
	"context"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Resolver turns N fingerprints into one relative start per file by
// correlating every file against the first one (the reference). The
// star topology matches the original tool's behavior: it is simple and
// handles any number of files, at the cost of no redundancy when the
// reference audio is degraded for some comparison.
type Resolver struct {
	cfg     Config
	log     Logger
	workers int
}

// NewResolver builds a resolver for fingerprints produced with cfg.
// workers <= 0 means one worker per CPU.
func NewResolver(cfg Config, log Logger, workers int) *Resolver {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Resolver{cfg: cfg, log: log, workers: workers}
}

// Resolve computes a relative start for every fingerprint. The first
// file is the reference and gets relative start zero. Failures of a
// single comparison (silent fingerprint, or low confidence in strict
// mode) mark that file's slot as a sentinel and do not stop the batch.
// The returned error is ErrInsufficientFiles for fewer than two inputs,
// or nil; per-file errors live in the slots.
func (r *Resolver) Resolve(ctx context.Context, fps []*Fingerprint) ([]FileOffset, error) {
	if len(fps) < 2 {
		return nil, ErrInsufficientFiles
	}

	out := make([]FileOffset, len(fps))
	for i := range out {
		out[i] = FileOffset{Index: i}
	}

	ref := fps[0]
	if ref.Empty() {
		// Without a usable reference no comparison can succeed.
		err := &NoSignalError{Index: 0}
		for i := range out {
			out[i].Err = err
		}
		return out, nil
	}

	// Fan out the N-1 pairwise estimations. Every worker reads the same
	// immutable reference and writes only to its own index, so the only
	// synchronization needed is the WaitGroup.
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = r.resolveOne(ref, fps[i], i)
			}
		}()
	}

	done := ctx.Done()
	canceled := false
feed:
	for i := 1; i < len(fps); i++ {
		select {
		case jobs <- i:
		case <-done:
			canceled = true
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if canceled {
		return nil, ctx.Err()
	}

	var agg *multierror.Error
	for _, o := range out {
		if o.Err != nil {
			agg = multierror.Append(agg, o.Err)
		}
	}
	if agg != nil {
		r.log.Warnf("resolved %d files with %d failures: %v",
			len(fps), agg.Len(), agg)
	}

	return out, nil
}

func (r *Resolver) resolveOne(ref, fp *Fingerprint, idx int) FileOffset {
	o := FileOffset{Index: idx}

	if fp.Empty() {
		o.Err = &NoSignalError{Index: idx}
		return o
	}

	po, err := Estimate(ref, fp)
	if err != nil {
		o.Err = err
		return o
	}

	o.RelativeStart = po.LagSeconds
	o.Confidence = po.Confidence

	if r.cfg.MinConfidence > 0 && po.Confidence < r.cfg.MinConfidence {
		lc := &LowConfidenceError{
			Index:      idx,
			Confidence: po.Confidence,
			Floor:      r.cfg.MinConfidence,
		}
		if r.cfg.Strict {
			o.Err = lc
		} else {
			r.log.Warnf("%v", lc)
		}
	}
	return o
}
