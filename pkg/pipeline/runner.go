package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stacknotice/pkg/aggregate"
	"github.com/matzehuels/stacknotice/pkg/artifact"
	"github.com/matzehuels/stacknotice/pkg/coordinate"
	"github.com/matzehuels/stacknotice/pkg/errors"
	"github.com/matzehuels/stacknotice/pkg/notice"
)

// Runner executes the pipeline. It keeps no per-run state, so one Runner
// can serve concurrent runs.
type Runner struct {
	Aggregator *aggregate.Aggregator
	Notices    notice.Requester
	Sinks      []artifact.Sink
	Logger     *log.Logger

	now func() time.Time
}

// NewRunner creates a runner. A nil logger selects log.Default().
func NewRunner(agg *aggregate.Aggregator, notices notice.Requester, sinks []artifact.Sink, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Aggregator: agg,
		Notices:    notices,
		Sinks:      sinks,
		Logger:     logger,
		now:        time.Now,
	}
}

// Coordinates fetches the dependency graph and maps it to coordinates.
func (r *Runner) Coordinates(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForCoordinates(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	start := time.Now()
	var (
		fetched *aggregate.Result
		err     error
	)
	if opts.Limited {
		fetched, err = r.Aggregator.Fetch(ctx, opts.Owner, opts.Repo, opts.Mode())
	} else {
		fetched, err = r.Aggregator.FetchWithFallback(ctx, opts.Owner, opts.Repo, opts.Limits)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:      artifact.NewRunID(),
		Repository: opts.Repository(),
		Graph:      fetched.Graph,
		Mode:       fetched.Mode,
		Warnings:   fetched.Warnings,
	}
	res.Stats.Fetch = fetched.Stats
	res.Stats.FetchTime = time.Since(start)
	res.Stats.ManifestCount = len(fetched.Graph.Manifests)
	res.Stats.DependencyCount = fetched.Graph.DependencyCount()

	logger.Info("fetched dependency graph",
		"repository", res.Repository,
		"mode", res.Mode,
		"manifests", res.Stats.ManifestCount,
		"dependencies", res.Stats.DependencyCount,
		"duration", res.Stats.FetchTime)

	res.Coordinates = coordinate.MapAll(fetched.Graph, res.Warnings)
	res.Stats.CoordinateCount = len(res.Coordinates)
	logger.Debug("mapped coordinates",
		"coordinates", res.Stats.CoordinateCount,
		"skipped", res.Warnings.Count(errors.ErrCodeUnsupportedEcosystem))

	return res, nil
}

// Execute runs the full pipeline: coordinates, notice and storage. A
// failing sink fails the run.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	res, err := r.Coordinates(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := notice.CheckLimit(res.Coordinates); err != nil {
		return nil, err
	}

	start := time.Now()
	n, err := r.Notices.Notice(ctx, res.Coordinates, opts.Format)
	if err != nil {
		return nil, err
	}
	res.Notice = n
	res.Stats.NoticeTime = time.Since(start)
	n.Report(res.Warnings)

	opts.Logger.Info("generated notice",
		"format", opts.Format,
		"packages", n.Summary.Total,
		"bytes", len(n.Content),
		"duration", res.Stats.NoticeTime)

	if err := r.store(ctx, res, opts); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Runner) store(ctx context.Context, res *Result, opts Options) error {
	start := time.Now()
	a := artifactFor(res, opts, r.clock())
	res.Locations = make(map[string]string, len(r.Sinks))
	for _, sink := range r.Sinks {
		loc, err := sink.Put(ctx, a)
		if err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInternal
			}
			return errors.Wrap(code, err, "store notice in %s", sink.Name())
		}
		res.Locations[sink.Name()] = loc
		opts.Logger.Debug("stored notice", "sink", sink.Name(), "location", loc)
	}
	res.Stats.StoreTime = time.Since(start)
	return nil
}

func (r *Runner) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
