package aggregate

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stacknotice/pkg/depgraph"
	"github.com/matzehuels/stacknotice/pkg/diag"
	"github.com/matzehuels/stacknotice/pkg/errors"
	"github.com/matzehuels/stacknotice/pkg/observability"
)

// Source is the host's dependency graph API.
type Source interface {
	// Manifests returns the manifest page following after ("" for the
	// first), each manifest carrying its first dependency page.
	Manifests(ctx context.Context, owner, name, after string) (*depgraph.ManifestConnection, error)

	// Dependencies returns the dependency page following after for the
	// manifest at blobPath.
	Dependencies(ctx context.Context, owner, name, blobPath, after string) (*depgraph.DependencyConnection, error)

	// LimitedManifests returns at most maxManifests manifests with at most
	// maxDeps dependencies each. TotalCount fields report the full sizes.
	LimitedManifests(ctx context.Context, owner, name string, maxManifests, maxDeps int) (*depgraph.ManifestConnection, error)
}

// DefaultConcurrency is the number of manifests whose dependency pages are
// followed at the same time.
const DefaultConcurrency = 4

// Aggregator fetches dependency graphs from a Source.
type Aggregator struct {
	source      Source
	concurrency int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithConcurrency bounds the number of concurrent dependency follow-ups.
// Values below 1 select 1.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) { a.concurrency = max(n, 1) }
}

// New creates an Aggregator reading from src.
func New(src Source, opts ...Option) *Aggregator {
	a := &Aggregator{source: src, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Stats counts the requests behind a Result.
type Stats struct {
	ManifestPages   int `json:"manifest_pages"`
	DependencyPages int `json:"dependency_pages"`
	// Incomplete is the number of manifests whose dependency list could not
	// be completed.
	Incomplete int  `json:"incomplete"`
	FellBack   bool `json:"fell_back"`
}

// Result is a fetched graph together with the diagnostics produced while
// fetching it.
type Result struct {
	Graph    *depgraph.Graph
	Mode     Mode
	Warnings *diag.Collector
	Stats    Stats
}

// Fetch retrieves the dependency graph of owner/name in the given mode.
// Errors are fatal for the call and carry an errors.Code; degradations are
// reported in Result.Warnings.
func (a *Aggregator) Fetch(ctx context.Context, owner, name string, mode Mode) (*Result, error) {
	start := time.Now()
	var (
		res *Result
		err error
	)
	if mode.IsLimited() {
		res, err = a.fetchLimited(ctx, owner, name, mode.Limits())
	} else {
		res, err = a.fetchFull(ctx, owner, name)
	}

	n := 0
	if res != nil {
		n = len(res.Graph.Manifests)
	}
	observability.Aggregate().OnFetchComplete(ctx, owner+"/"+name, mode.String(), n, time.Since(start), err)
	return res, err
}

// FetchWithFallback fetches in Full mode and, if that times out, retries
// once in Limited mode with the given limits (DefaultFallbackLimits when
// zero). The limited retry's failure is final.
func (a *Aggregator) FetchWithFallback(ctx context.Context, owner, name string, limits Limits) (*Result, error) {
	limits = limits.OrDefault()
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	res, err := a.Fetch(ctx, owner, name, Full())
	if err == nil || !errors.Is(err, errors.ErrCodeUpstreamTimeout) {
		return res, err
	}

	observability.Aggregate().OnFallback(ctx, owner+"/"+name, err)
	warnings := &diag.Collector{}
	warnings.Warnf(errors.ErrCodeUpstreamTimeout,
		"Full dependency graph query timed out, retrying with at most %d manifests and %d dependencies each: %s",
		limits.MaxManifests, limits.MaxDependencies, errors.UserMessage(err))

	res, lerr := a.Fetch(ctx, owner, name, Limited(limits.MaxManifests, limits.MaxDependencies))
	if lerr != nil {
		code := errors.GetCode(lerr)
		if code == "" {
			code = errors.ErrCodeUpstreamTimeout
		}
		return nil, errors.Wrap(code, lerr, "limited query after timeout failed")
	}

	warnings.Merge(res.Warnings)
	res.Warnings = warnings
	res.Stats.FellBack = true
	return res, nil
}

func (a *Aggregator) fetchFull(ctx context.Context, owner, name string) (*Result, error) {
	repo := owner + "/" + name
	hooks := observability.Aggregate()
	warnings := &diag.Collector{}

	var pages cursor[*depgraph.RawManifest]
	for {
		conn, err := a.source.Manifests(ctx, owner, name, pages.after)
		if err != nil {
			return nil, err
		}
		if pages, err = pages.advance(conn.Nodes, conn.PageInfo, "manifest"); err != nil {
			return nil, err
		}
		hooks.OnManifestPage(ctx, repo, pages.pages, len(conn.Nodes))
		if pages.pages > 1 {
			warnings.Debugf("Fetched dependency manifest page %d (%d manifests)", pages.pages, len(conn.Nodes))
		}
		if !pages.more {
			break
		}
	}

	nodes := dedupe(pages.items)
	stats := Stats{ManifestPages: pages.pages}

	follow := a.completeAll(ctx, owner, name, nodes)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, f := range follow {
		if !f.needed {
			continue
		}
		m := nodes[i]
		stats.DependencyPages += f.pages
		warnings.Debugf("Fetched additional dependencies for %s (%d total)", m.Name(), f.total)
		if f.err != nil {
			stats.Incomplete++
			warnings.Warnf(errors.ErrCodePartialPagination,
				"Could not fetch all dependencies for %s (%d of %d): %s",
				m.Name(), f.fetched, f.total, errors.UserMessage(f.err))
		}
	}

	g, err := depgraph.Parse(owner, name, nodes)
	if err != nil {
		return nil, err
	}
	return &Result{Graph: g, Mode: Full(), Warnings: warnings, Stats: stats}, nil
}

// followUp is the outcome of completing one manifest's dependency list.
type followUp struct {
	needed  bool
	pages   int
	fetched int
	total   int
	err     error
}

// completeAll follows the dependency cursor of every truncated manifest.
// Each goroutine owns exactly one manifest and one slot of the result.
func (a *Aggregator) completeAll(ctx context.Context, owner, name string, nodes []*depgraph.RawManifest) []followUp {
	out := make([]followUp, len(nodes))
	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, m := range nodes {
		if !truncated(m) {
			continue
		}
		g.Go(func() error {
			out[i] = a.complete(ctx, owner, name, m)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func truncated(m *depgraph.RawManifest) bool {
	return m != nil && m.BlobPath != nil && m.Dependencies != nil && m.Dependencies.PageInfo.More()
}

// complete fetches the remaining dependency pages of m and replaces its
// node list with the merged sequence, even when a page fails.
func (a *Aggregator) complete(ctx context.Context, owner, name string, m *depgraph.RawManifest) followUp {
	deps := m.Dependencies
	blobPath := *m.BlobPath
	// An empty embedded page must stay non-nil so a failed follow-up
	// still parses as a present, partial list.
	state := cursor[*depgraph.RawDependency]{
		items: append(make([]*depgraph.RawDependency, 0, len(deps.Nodes)), deps.Nodes...),
		after: deps.PageInfo.Cursor(),
		more:  true,
	}
	res := followUp{needed: true}
	if state.after == "" {
		res.err = errors.New(errors.ErrCodeSchemaInvalid, "dependency page reports more results without an end cursor")
		state.more = false
	}

	for state.more {
		page, err := a.source.Dependencies(ctx, owner, name, blobPath, state.after)
		if err == nil {
			state, err = state.advance(page.Nodes, page.PageInfo, "dependency")
		}
		if err != nil {
			res.err = err
			break
		}
		observability.Aggregate().OnDependencyPage(ctx, owner+"/"+name, blobPath, state.pages, len(page.Nodes))
	}

	m.Dependencies = &depgraph.DependencyConnection{
		TotalCount: deps.TotalCount,
		PageInfo:   &depgraph.PageInfo{HasNextPage: state.more, EndCursor: &state.after},
		Nodes:      state.items,
	}
	res.pages = state.pages
	res.fetched = len(state.items)
	res.total = deps.Total(len(state.items))
	if m.DependenciesCount != nil && *m.DependenciesCount > res.total {
		res.total = *m.DependenciesCount
	}
	return res
}

func (a *Aggregator) fetchLimited(ctx context.Context, owner, name string, limits Limits) (*Result, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	warnings := &diag.Collector{}
	warnings.Debugf("Using limited query mode (max %d manifests, %d deps each)", limits.MaxManifests, limits.MaxDependencies)

	conn, err := a.source.LimitedManifests(ctx, owner, name, limits.MaxManifests, limits.MaxDependencies)
	if err != nil {
		return nil, err
	}
	nodes := dedupe(conn.Nodes)

	if total := conn.Total(len(nodes)); total > limits.MaxManifests {
		warnings.Warnf(errors.ErrCodeManifestTruncated,
			"Repository has %d manifests, only processing first %d", total, limits.MaxManifests)
	}

	cut := 0
	for _, m := range nodes {
		if m == nil || m.Dependencies == nil {
			continue
		}
		if total := m.Dependencies.Total(len(m.Dependencies.Nodes)); total > limits.MaxDependencies {
			cut++
			warnings.Warnf(errors.ErrCodeManifestTruncated,
				"%s has %d dependencies, only processing first %d", m.Name(), total, limits.MaxDependencies)
		}
	}
	if cut > 0 {
		warnings.Warnf(errors.ErrCodeManifestTruncated,
			"%d manifest(s) had dependencies truncated", cut)
	}

	g, err := depgraph.Parse(owner, name, nodes)
	if err != nil {
		return nil, err
	}
	g.Limited = true
	mode := Limited(limits.MaxManifests, limits.MaxDependencies)
	return &Result{Graph: g, Mode: mode, Warnings: warnings, Stats: Stats{ManifestPages: 1, Incomplete: cut}}, nil
}
