package aggregate

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/matzehuels/stacknotice/pkg/depgraph"
	"github.com/matzehuels/stacknotice/pkg/depgraph/depgraphtest"
	"github.com/matzehuels/stacknotice/pkg/diag"
	"github.com/matzehuels/stacknotice/pkg/errors"
)

func TestFetchFullPagination(t *testing.T) {
	src := newFakeSource()
	total := func(i int) int {
		switch {
		case i%25 == 0:
			return 250
		case i == 7:
			return 101
		}
		return 3
	}
	src.addPages(total, 50, 50, 10)

	res, err := New(src).Fetch(context.Background(), "o", "r", Full())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	g := res.Graph
	if len(g.Manifests) != 110 {
		t.Fatalf("manifests = %d, want 110", len(g.Manifests))
	}
	seen := map[string]bool{}
	for i, m := range g.Manifests {
		want := fmt.Sprintf("/o/r/blob/main/m-%d/package.json", i)
		if m.BlobPath != want {
			t.Fatalf("manifest %d = %s, want %s", i, m.BlobPath, want)
		}
		if seen[m.BlobPath] {
			t.Fatalf("duplicate manifest %s", m.BlobPath)
		}
		seen[m.BlobPath] = true
		if len(m.Dependencies) != m.DependenciesCount || m.DependenciesCount != total(i) {
			t.Errorf("manifest %d: %d dependencies, declared %d, want %d", i, len(m.Dependencies), m.DependenciesCount, total(i))
		}
		for j, d := range m.Dependencies {
			if want := fmt.Sprintf("m%d-%d", i, j); d.PackageName != want {
				t.Fatalf("manifest %d dependency %d = %s, want %s", i, j, d.PackageName, want)
			}
		}
	}

	if got := src.manifestCalls; len(got) != 3 || got[0] != "" || got[1] != "page-1" || got[2] != "page-2" {
		t.Errorf("manifest cursors = %v", got)
	}
	// 250 deps take two follow-ups, 101 takes one.
	if n := src.depCalls["/o/r/blob/main/m-0/package.json"]; n != 2 {
		t.Errorf("follow-ups for m-0 = %d, want 2", n)
	}
	if n := src.depCalls["/o/r/blob/main/m-7/package.json"]; n != 1 {
		t.Errorf("follow-ups for m-7 = %d, want 1", n)
	}
	if n := src.depCalls["/o/r/blob/main/m-1/package.json"]; n != 0 {
		t.Errorf("complete manifest was re-fetched %d times", n)
	}

	if res.Stats.ManifestPages != 3 || res.Stats.DependencyPages != 2*5+1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Mode.IsLimited() || g.Limited {
		t.Error("full fetch reported as limited")
	}
	if n := countAtLeast(res.Warnings, diag.SeverityWarning); n != 0 {
		t.Errorf("unexpected warnings: %+v", res.Warnings.Warnings())
	}
}

func TestFetchFullPartialFailure(t *testing.T) {
	const failing = "/o/r/blob/main/m-2/package.json"
	tests := []struct {
		name     string
		embedded bool
		want     int
	}{
		{"failure after embedded page", true, 100},
		{"failure with empty embedded page", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			src.addPages(func(int) int { return 150 }, 5)
			if !tt.embedded {
				src.pages[0].Nodes[2] = depgraphtest.Manifest(failing, 150, nil)
			}
			src.failDep[failing] = errors.New(errors.ErrCodeNetwork, "connection reset")

			res, err := New(src).Fetch(context.Background(), "o", "r", Full())
			if err != nil {
				t.Fatalf("Fetch() error = %v, want degraded result", err)
			}
			if len(res.Graph.Manifests) != 5 {
				t.Fatalf("manifests = %d, want 5", len(res.Graph.Manifests))
			}
			for i, m := range res.Graph.Manifests {
				want := 150
				if m.BlobPath == failing {
					want = tt.want
				}
				if len(m.Dependencies) != want {
					t.Errorf("manifest %d has %d dependencies, want %d", i, len(m.Dependencies), want)
				}
			}
			if n := res.Warnings.Count(errors.ErrCodePartialPagination); n != 1 {
				t.Errorf("partial pagination warnings = %d, want 1", n)
			}
			if res.Stats.Incomplete != 1 {
				t.Errorf("Stats.Incomplete = %d, want 1", res.Stats.Incomplete)
			}
		})
	}
}

func TestFetchFullConcurrencyIsDeterministic(t *testing.T) {
	build := func() *fakeSource {
		src := newFakeSource()
		src.addPages(func(i int) int { return 100 + 37*i }, 12)
		src.failDep["/o/r/blob/main/m-3/package.json"] = errors.New(errors.ErrCodeNetwork, "x")
		src.failDep["/o/r/blob/main/m-9/package.json"] = errors.New(errors.ErrCodeNetwork, "y")
		return src
	}

	serial, err := New(build(), WithConcurrency(1)).Fetch(context.Background(), "o", "r", Full())
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := New(build(), WithConcurrency(8)).Fetch(context.Background(), "o", "r", Full())
	if err != nil {
		t.Fatal(err)
	}

	a, b := serial.Warnings.Warnings(), parallel.Warnings.Warnings()
	if len(a) != len(b) {
		t.Fatalf("warning counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("warning %d differs: %q vs %q", i, a[i].Message, b[i].Message)
		}
	}
	if serial.Graph.DependencyCount() != parallel.Graph.DependencyCount() {
		t.Errorf("dependency counts differ")
	}
}

func TestFetchFullDeduplicates(t *testing.T) {
	src := newFakeSource()
	src.addPages(func(int) int { return 1 }, 2, 2)
	// The host repeats the last manifest of page one on page two.
	src.pages[1].Nodes[0] = src.pages[0].Nodes[1]

	res, err := New(src).Fetch(context.Background(), "o", "r", Full())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Graph.Manifests) != 3 {
		t.Errorf("manifests = %d, want 3", len(res.Graph.Manifests))
	}
}

func TestFetchFullSchemaInvalid(t *testing.T) {
	src := newFakeSource()
	src.addPages(func(int) int { return 2 }, 3)
	src.pages[0].Nodes[1].Dependencies.Nodes[0].PackageName = nil

	res, err := New(src).Fetch(context.Background(), "o", "r", Full())
	if !errors.Is(err, errors.ErrCodeSchemaInvalid) {
		t.Fatalf("error = %v, want %s", err, errors.ErrCodeSchemaInvalid)
	}
	if res != nil {
		t.Error("partial result returned with fatal error")
	}
}

func TestFetchFullMissingCursor(t *testing.T) {
	src := newFakeSource()
	src.addPages(func(int) int { return 1 }, 1, 1)
	src.pages[0].PageInfo.EndCursor = nil

	_, err := New(src).Fetch(context.Background(), "o", "r", Full())
	if !errors.Is(err, errors.ErrCodeSchemaInvalid) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeSchemaInvalid)
	}
}

func TestFetchFullStuckCursor(t *testing.T) {
	src := newFakeSource()
	src.addPages(func(int) int { return 1 }, 1, 1)
	src.pages[1].PageInfo.HasNextPage = true
	src.pages[1].PageInfo.EndCursor = depgraphtest.Ptr("page-1")

	_, err := New(src).Fetch(context.Background(), "o", "r", Full())
	if !errors.Is(err, errors.ErrCodeSchemaInvalid) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeSchemaInvalid)
	}
}

func TestFetchFullMissingDependencyCursor(t *testing.T) {
	src := newFakeSource()
	src.addPages(func(int) int { return 120 }, 2)
	src.pages[0].Nodes[0].Dependencies.PageInfo.EndCursor = nil

	res, err := New(src).Fetch(context.Background(), "o", "r", Full())
	if err != nil {
		t.Fatal(err)
	}
	if n := res.Warnings.Count(errors.ErrCodePartialPagination); n != 1 {
		t.Errorf("partial pagination warnings = %d, want 1", n)
	}
	if got := len(res.Graph.Manifests[0].Dependencies); got != 100 {
		t.Errorf("dependencies = %d, want 100", got)
	}
}

func TestFetchFullCanceled(t *testing.T) {
	src := newFakeSource()
	src.addPages(func(int) int { return 150 }, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(src).Fetch(ctx, "o", "r", Full())
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func limitedConn(total int, manifests ...*depgraph.RawManifest) *depgraph.ManifestConnection {
	return &depgraph.ManifestConnection{TotalCount: depgraphtest.Ptr(total), Nodes: manifests}
}

func TestFetchLimited(t *testing.T) {
	src := newFakeSource()
	src.limited = limitedConn(40,
		depgraphtest.Manifest("/o/r/blob/main/a/package.json", 80, depgraphtest.Deps("a", 0, 30)),
		depgraphtest.Manifest("/o/r/blob/main/b/go.mod", 4, depgraphtest.Deps("b", 0, 4)),
		depgraphtest.Manifest("/o/r/blob/main/c/Cargo.toml", 31, depgraphtest.Deps("c", 0, 30)),
	)

	res, err := New(src).Fetch(context.Background(), "o", "r", Limited(15, 30))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !res.Graph.Limited || !res.Mode.IsLimited() {
		t.Error("limited fetch not marked limited")
	}
	if len(res.Graph.Manifests) != 3 {
		t.Errorf("manifests = %d, want 3", len(res.Graph.Manifests))
	}
	// one for manifests, two per-manifest, one summary
	if n := res.Warnings.Count(errors.ErrCodeManifestTruncated); n != 4 {
		t.Errorf("truncation warnings = %d, want 4: %+v", n, res.Warnings.Warnings())
	}
	if len(src.manifestCalls) != 0 || len(src.depCalls) != 0 {
		t.Error("limited mode issued follow-up requests")
	}
	if got := src.limitedCalls; len(got) != 1 || got[0] != (Limits{15, 30}) {
		t.Errorf("limited calls = %v", got)
	}
}

func TestFetchLimitedNoTruncation(t *testing.T) {
	src := newFakeSource()
	src.limited = limitedConn(1, depgraphtest.Manifest("/o/r/blob/main/go.mod", 2, depgraphtest.Deps("x", 0, 2)))

	res, err := New(src).Fetch(context.Background(), "o", "r", Limited(15, 30))
	if err != nil {
		t.Fatal(err)
	}
	if n := countAtLeast(res.Warnings, diag.SeverityWarning); n != 0 {
		t.Errorf("warnings = %+v", res.Warnings.Warnings())
	}
}

func TestFetchLimitedInvalidLimits(t *testing.T) {
	for _, m := range []Mode{Limited(0, 30), Limited(15, 0), Limited(101, 30)} {
		_, err := New(newFakeSource()).Fetch(context.Background(), "o", "r", m)
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("%s: error = %v, want %s", m, err, errors.ErrCodeInvalidInput)
		}
	}
}

func TestFetchWithFallback(t *testing.T) {
	src := newFakeSource()
	src.manifestErr = errors.New(errors.ErrCodeUpstreamTimeout, "GraphQL query timeout")
	src.limited = limitedConn(1, depgraphtest.Manifest("/o/r/blob/main/go.mod", 2, depgraphtest.Deps("x", 0, 2)))

	res, err := New(src).FetchWithFallback(context.Background(), "o", "r", Limits{})
	if err != nil {
		t.Fatalf("FetchWithFallback() error = %v", err)
	}
	if got := src.limitedCalls; len(got) != 1 || got[0] != DefaultFallbackLimits {
		t.Errorf("limited calls = %v, want exactly one with %v", got, DefaultFallbackLimits)
	}
	if got := DefaultFallbackLimits; got.MaxManifests != 15 || got.MaxDependencies != 30 {
		t.Errorf("DefaultFallbackLimits = %+v", got)
	}
	if !res.Stats.FellBack || !res.Mode.IsLimited() {
		t.Errorf("result not marked as fallback: %+v", res.Stats)
	}
	ws := res.Warnings.Warnings()
	if len(ws) == 0 || ws[0].Code != errors.ErrCodeUpstreamTimeout {
		t.Errorf("first warning should explain the fallback: %+v", ws)
	}
}

func TestFetchWithFallbackLimitedFails(t *testing.T) {
	src := newFakeSource()
	src.manifestErr = errors.New(errors.ErrCodeUpstreamTimeout, "timeout")
	src.limitedErr = errors.New(errors.ErrCodeUpstreamTimeout, "timeout again")

	res, err := New(src).FetchWithFallback(context.Background(), "o", "r", Limits{})
	if err == nil || res != nil {
		t.Fatal("expected fatal error")
	}
	if !errors.Is(err, errors.ErrCodeUpstreamTimeout) {
		t.Errorf("error = %v", err)
	}
	if len(src.manifestCalls) != 1 || len(src.limitedCalls) != 1 {
		t.Errorf("calls: full %d, limited %d; want 1 and 1", len(src.manifestCalls), len(src.limitedCalls))
	}
}

func TestFetchWithFallbackCustomLimits(t *testing.T) {
	src := newFakeSource()
	src.manifestErr = errors.New(errors.ErrCodeUpstreamTimeout, "timeout")
	src.limited = limitedConn(0)

	if _, err := New(src).FetchWithFallback(context.Background(), "o", "r", Limits{5, 10}); err != nil {
		t.Fatal(err)
	}
	if got := src.limitedCalls; len(got) != 1 || got[0] != (Limits{5, 10}) {
		t.Errorf("limited calls = %v", got)
	}
}

func TestFetchWithFallbackNotRetried(t *testing.T) {
	codes := []errors.Code{
		errors.ErrCodeRateLimited,
		errors.ErrCodeUnauthorized,
		errors.ErrCodeSchemaInvalid,
		errors.ErrCodeNetwork,
	}
	for _, code := range codes {
		t.Run(string(code), func(t *testing.T) {
			src := newFakeSource()
			src.manifestErr = errors.New(code, "nope")

			_, err := New(src).FetchWithFallback(context.Background(), "o", "r", Limits{})
			if !errors.Is(err, code) {
				t.Errorf("error = %v, want %s", err, code)
			}
			if len(src.limitedCalls) != 0 {
				t.Error("non-timeout failure fell back to limited mode")
			}
		})
	}
}

func TestFetchWithFallbackSuccessSkipsLimited(t *testing.T) {
	src := newFakeSource()
	src.addPages(func(int) int { return 1 }, 1)

	res, err := New(src).FetchWithFallback(context.Background(), "o", "r", Limits{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.FellBack || len(src.limitedCalls) != 0 {
		t.Error("successful full fetch fell back")
	}
}

func TestModeString(t *testing.T) {
	if Full().String() != "full" {
		t.Errorf("Full() = %s", Full())
	}
	if got := Limited(15, 30).String(); got != "limited(15,30)" {
		t.Errorf("Limited() = %s", got)
	}
}

func countAtLeast(c *diag.Collector, floor diag.Severity) int {
	n := 0
	for range c.AtLeast(floor) {
		n++
	}
	return n
}
