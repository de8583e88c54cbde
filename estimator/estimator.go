// Package estimator wires the pipeline together: frame differencing, spatial
// smoothing of the motion evidence, per-region selective history, and median
// reconstruction of the stationary background.
package estimator

import (
	"github.com/backgen/backgen/history"
	"github.com/backgen/backgen/images"
	"github.com/backgen/backgen/images/kernels"
	"github.com/backgen/backgen/motion"
	"github.com/backgen/backgen/regions"
	"github.com/pkg/errors"
)

// Config fixes the pipeline's shape and parameters for a run.
type Config struct {
	// Height and Width are the frame dimensions in pixels.
	Height, Width int
	// Channels is the per-pixel channel count of the sequence.
	Channels int
	// Samples is the S parameter: the per-region history bound.
	Samples int
	// Granularity is the N parameter driving the smoothing kernel size.
	Granularity int
	// Parallel shards per-region and per-row work across goroutines
	// without changing results.
	Parallel bool
}

// Estimator folds a frame sequence into bounded per-region histories and
// reconstructs a background image on demand. Frames must be fed one at a
// time in arrival order.
type Estimator struct {
	cfg    Config
	differ *motion.Differencer
	filter *kernels.Counter
	agg    *history.Aggregator

	raw      *images.ProbabilityMap
	filtered *images.ProbabilityMap

	processed int
	admitted  int
}

// New validates the configuration and builds an empty pipeline. The
// smoothing kernel size is derived from the frame dimensions and N.
func New(cfg Config) (*Estimator, error) {
	if cfg.Height < 1 || cfg.Width < 1 || cfg.Channels < 1 {
		return nil, errors.Errorf("estimator: invalid frame shape %dx%dx%d",
			cfg.Height, cfg.Width, cfg.Channels)
	}
	if cfg.Samples < 1 {
		return nil, errors.Errorf("estimator: S parameter must be positive, got %d", cfg.Samples)
	}
	if cfg.Granularity < 1 {
		return nil, errors.Errorf("estimator: N parameter must be positive, got %d", cfg.Granularity)
	}

	regs, err := regions.Partition(cfg.Height, cfg.Width)
	if err != nil {
		return nil, err
	}
	filter, err := kernels.NewCounter(kernels.Size(cfg.Height, cfg.Width, cfg.Granularity))
	if err != nil {
		return nil, err
	}
	filter.Parallel = cfg.Parallel
	agg, err := history.NewAggregator(regs, cfg.Height, cfg.Width, cfg.Channels, cfg.Samples)
	if err != nil {
		return nil, err
	}
	agg.Parallel = cfg.Parallel
	raw, err := images.NewProbabilityMap(cfg.Height, cfg.Width)
	if err != nil {
		return nil, err
	}
	filtered, err := images.NewProbabilityMap(cfg.Height, cfg.Width)
	if err != nil {
		return nil, err
	}

	return &Estimator{
		cfg:      cfg,
		differ:   motion.NewDifferencer(),
		filter:   filter,
		agg:      agg,
		raw:      raw,
		filtered: filtered,
	}, nil
}

// KernelSize returns the side length of the smoothing kernel in use.
func (e *Estimator) KernelSize() int {
	return e.filter.Size()
}

// Processed returns the number of frames fed into the pipeline.
func (e *Estimator) Processed() int {
	return e.processed
}

// Admitted returns the number of frames offered to the history buffers. The
// first frame only seeds the differencer and is never offered.
func (e *Estimator) Admitted() int {
	return e.admitted
}

// Process folds one frame into the pipeline. The very first frame seeds the
// differencer and is otherwise discarded; every later frame is scored,
// smoothed and offered to each region's history buffer.
func (e *Estimator) Process(frame *images.Frame) error {
	if frame.Height != e.cfg.Height || frame.Width != e.cfg.Width || frame.Channels != e.cfg.Channels {
		return errors.Errorf("estimator: frame shape %dx%dx%d does not match configured %dx%dx%d",
			frame.Height, frame.Width, frame.Channels, e.cfg.Height, e.cfg.Width, e.cfg.Channels)
	}

	e.processed++
	if !e.differ.Process(frame, e.raw) {
		return nil
	}
	if err := e.filter.Compute(e.raw, e.filtered); err != nil {
		return err
	}
	if err := e.agg.Insert(e.filtered, frame); err != nil {
		return err
	}
	e.admitted++
	return nil
}

// Background writes the current background estimate into dst. Valid at any
// point of the run; before any frame has been admitted the output is all
// zeros. Read-only on the histories, so interim and final calls agree with
// the buffers' state at call time.
func (e *Estimator) Background(dst *images.Frame) error {
	return e.agg.Median(dst)
}

// RawMap exposes the last raw probability map, for visualization only. The
// contents are valid until the next Process call.
func (e *Estimator) RawMap() *images.ProbabilityMap {
	return e.raw
}

// FilteredMap exposes the last filtered probability map, for visualization
// only. The contents are valid until the next Process call.
func (e *Estimator) FilteredMap() *images.ProbabilityMap {
	return e.filtered
}
