// Package pipeline runs the notice generation pipeline for stacknotice.
//
// The pipeline is shared by the CLI and the HTTP service so both behave
// the same way:
//
//  1. Fetch: read the repository's dependency graph, falling back to a
//     bounded query once if the full query times out
//  2. Map: turn each dependency into a ClearlyDefined coordinate
//  3. Notice: render the notice for the coordinate list
//  4. Store: hand the result to every configured artifact sink
//
// Stages 1 and 2 are available on their own through [Runner.Coordinates].
//
// # Usage
//
//	runner := pipeline.NewRunner(aggregator, notices, sinks, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Owner:  "octo",
//	    Repo:   "widgets",
//	    Format: notice.FormatText,
//	})
//	if err != nil {
//	    return err
//	}
//	for sev, msg := range res.Warnings.All() {
//	    ...
//	}
//
// Degradations never fail a run; they are collected in Result.Warnings and
// left to the caller to report.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stacknotice/pkg/aggregate"
	"github.com/matzehuels/stacknotice/pkg/artifact"
	"github.com/matzehuels/stacknotice/pkg/depgraph"
	"github.com/matzehuels/stacknotice/pkg/diag"
	"github.com/matzehuels/stacknotice/pkg/errors"
	"github.com/matzehuels/stacknotice/pkg/integrations/github"
	"github.com/matzehuels/stacknotice/pkg/notice"
)

// DefaultFilename is the notice file name used when none is given.
const DefaultFilename = "NOTICE"

// Options describes one pipeline run. It supports JSON for service
// requests.
type Options struct {
	Owner    string        `json:"owner"`
	Repo     string        `json:"repo"`
	Format   notice.Format `json:"format,omitempty"`
	Filename string        `json:"filename,omitempty"`

	// Limited skips the full query and fetches a bounded graph directly.
	Limited bool `json:"limited,omitempty"`
	// Limits bound the limited query, forced or as fallback. Zero selects
	// aggregate.DefaultFallbackLimits.
	Limits aggregate.Limits `json:"limits,omitzero"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result is everything a run produced.
type Result struct {
	RunID       string
	Repository  string
	Graph       *depgraph.Graph
	Mode        aggregate.Mode
	Coordinates []string

	// Notice and Locations are set by Execute only. Locations maps sink
	// names to where the artifact was stored.
	Notice    *notice.Result
	Locations map[string]string

	// Warnings holds every degradation, in the order it occurred.
	Warnings *diag.Collector
	Stats    Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Fetch           aggregate.Stats
	ManifestCount   int
	DependencyCount int
	CoordinateCount int
	FetchTime       time.Duration
	NoticeTime      time.Duration
	StoreTime       time.Duration
}

// Repository returns "owner/repo".
func (o *Options) Repository() string {
	return o.Owner + "/" + o.Repo
}

// Mode returns the aggregation mode to start with.
func (o *Options) Mode() aggregate.Mode {
	if o.Limited {
		l := o.Limits.OrDefault()
		return aggregate.Limited(l.MaxManifests, l.MaxDependencies)
	}
	return aggregate.Full()
}

// ValidateForCoordinates checks the repository and limits.
func (o *Options) ValidateForCoordinates() error {
	if err := github.ValidateRepoRef(o.Owner, o.Repo); err != nil {
		return err
	}
	if err := o.Limits.OrDefault().Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateAndSetDefaults checks everything Execute needs and fills in the
// default format and filename. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForCoordinates(); err != nil {
		return err
	}
	format, err := notice.ParseFormat(string(o.Format))
	if err != nil {
		return err
	}
	o.Format = format
	if o.Filename == "" {
		o.Filename = DefaultFilename
	}
	if err := errors.ValidateFilename(o.Filename); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// artifactFor assembles the artifact stored by the sinks.
func artifactFor(res *Result, opts Options, now time.Time) *artifact.Artifact {
	return &artifact.Artifact{
		RunID:       res.RunID,
		Repository:  res.Repository,
		Filename:    opts.Filename,
		Format:      opts.Format,
		Content:     res.Notice.Content,
		Summary:     res.Notice.Summary,
		Mode:        res.Mode.String(),
		Coordinates: res.Coordinates,
		CreatedAt:   now.UTC(),
	}
}
