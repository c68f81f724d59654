// Package pipeline chains filter stages and an optional region detector, and
// applies the chain to single buffers or whole directories of images.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/plate-preprocess/internal/detection"
	"github.com/ironsheep/plate-preprocess/internal/fileio"
	"github.com/ironsheep/plate-preprocess/internal/imaging"
)

// Pipeline runs stages in order, each on the previous stage's output, then
// hands the final buffer to the detector if one is set.
type Pipeline struct {
	stages   []Stage
	detector detection.RegionDetector
	log      logrus.FieldLogger
}

// Options configures New.
type Options struct {
	// Stages are stage names as accepted by ParseStage. Nil means
	// DefaultStages; an empty non-nil slice runs no filters.
	Stages []string

	// Settings parameterize the blur, threshold and binarize stages.
	Settings imaging.FilterSettings

	// Detector is optional. When nil, results carry no region.
	Detector detection.RegionDetector

	// Logger receives per-stage debug output. Nil disables logging.
	Logger logrus.FieldLogger
}

// New validates opts and builds a pipeline.
func New(opts Options) (*Pipeline, error) {
	if err := opts.Settings.Validate(); err != nil {
		return nil, err
	}

	names := opts.Stages
	if names == nil {
		names = DefaultStages
	}
	stages, err := ParseStages(names, opts.Settings)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}

	return &Pipeline{stages: stages, detector: opts.Detector, log: log}, nil
}

// StageNames returns the canonical names of the configured stages.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// StageTiming records how long one stage took.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
}

// Result is the output of Run.
type Result struct {
	// Buffer is the output of the last stage, or a copy of the input when
	// no stages are configured.
	Buffer *imaging.Buffer

	// Region is the detector's result, nil without a detector.
	Region *detection.Region

	// Timings lists per-stage durations in execution order.
	Timings []StageTiming
}

// Run applies the stages to b and then runs detection. b is not modified.
//
// The context is checked before each stage; a cancelled context stops the
// chain and returns ctx.Err(). Stage errors are returned wrapped with the
// stage name.
func (p *Pipeline) Run(ctx context.Context, b *imaging.Buffer) (*Result, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Buffer: b.Clone()}
	for _, st := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		out, err := st.Run(res.Buffer)
		if err != nil {
			return nil, fmt.Errorf("stage %s failed: %w", st.Name, err)
		}
		elapsed := time.Since(start)

		res.Buffer = out
		res.Timings = append(res.Timings, StageTiming{Stage: st.Name, Duration: elapsed})
		p.log.WithFields(logrus.Fields{
			"stage":    st.Name,
			"width":    out.Width,
			"height":   out.Height,
			"duration": elapsed,
		}).Debug("stage complete")
	}

	if p.detector != nil {
		region, err := p.detector.Detect(res.Buffer)
		if err != nil {
			return nil, fmt.Errorf("detection failed: %w", err)
		}
		res.Region = region
		p.log.WithFields(logrus.Fields{
			"method": region.Method,
			"found":  region.Found,
			"bounds": region.Bounds,
		}).Debug("detection complete")
	}

	return res, nil
}

// FileResult reports what happened to one file in ProcessDir.
type FileResult struct {
	Source string            `json:"source"`
	Output string            `json:"output,omitempty"`
	Region *detection.Region `json:"region,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// DirOptions configures ProcessDir.
type DirOptions struct {
	// Extensions filters input files; empty means fileio.DefaultExtensions.
	Extensions []string

	// Recursive also processes subdirectories.
	Recursive bool

	// Overwrite replaces existing processed files instead of failing them.
	Overwrite bool
}

// ProcessFile reads path, runs the pipeline, and saves the result under the
// file's Processed directory.
func (p *Pipeline) ProcessFile(ctx context.Context, path string, overwrite bool) (*FileResult, error) {
	f, err := fileio.Read(path)
	if err != nil {
		return nil, err
	}

	res, err := p.Run(ctx, f.Buffer)
	if err != nil {
		return nil, err
	}

	out, err := fileio.SaveProcessed(f, res.Buffer, overwrite)
	if err != nil {
		return nil, err
	}

	return &FileResult{Source: path, Output: out, Region: res.Region}, nil
}

// ProcessDir processes every matching image in dir.
//
// Files are handled one at a time in path order; the filters themselves
// already spread work over the worker pool. A failing file is logged and
// recorded in its FileResult, and processing continues with the next one.
// The returned error is non-nil only when the directory cannot be scanned or
// the context is cancelled, in which case the results so far are returned
// with it.
func (p *Pipeline) ProcessDir(ctx context.Context, dir string, opts DirOptions) ([]FileResult, error) {
	files, err := fileio.Scan(dir, opts.Extensions, opts.Recursive)
	if err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"dir":    dir,
		"files":  len(files),
		"stages": p.StageNames(),
	}).Info("processing directory")

	results := make([]FileResult, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		start := time.Now()
		fr, err := p.ProcessFile(ctx, path, opts.Overwrite)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return results, err
			}
			p.log.WithError(err).WithField("file", path).Warn("failed to process image")
			results = append(results, FileResult{Source: path, Error: err.Error()})
			continue
		}

		p.log.WithFields(logrus.Fields{
			"file":     path,
			"output":   fr.Output,
			"duration": time.Since(start),
		}).Info("image processed")
		results = append(results, *fr)
	}

	return results, nil
}
