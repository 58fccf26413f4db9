package aggregate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/matzehuels/stacknotice/pkg/depgraph"
	"github.com/matzehuels/stacknotice/pkg/depgraph/depgraphtest"
)

// fakeSource serves a fixed repository. Manifest pages are addressed by the
// cursors "page-1", "page-2", ...; dependency pages by "<blobPath>#<offset>",
// matching depgraphtest.Manifest.
type fakeSource struct {
	mu sync.Mutex

	pages   []*depgraph.ManifestConnection
	deps    map[string][]*depgraph.RawDependency
	failDep map[string]error

	manifestErr error
	limited     *depgraph.ManifestConnection
	limitedErr  error

	manifestCalls []string
	depCalls      map[string]int
	limitedCalls  []Limits
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		deps:     map[string][]*depgraph.RawDependency{},
		failDep:  map[string]error{},
		depCalls: map[string]int{},
	}
}

// addPages splits manifests into pages of the given sizes. Each manifest
// i gets total(i) dependencies, of which at most 100 are embedded.
func (f *fakeSource) addPages(total func(i int) int, sizes ...int) {
	n := 0
	for p, size := range sizes {
		conn := &depgraph.ManifestConnection{PageInfo: &depgraph.PageInfo{}}
		for range size {
			blob := fmt.Sprintf("/o/r/blob/main/m-%d/package.json", n)
			all := depgraphtest.Deps(fmt.Sprintf("m%d", n), 0, total(n))
			f.deps[blob] = all
			conn.Nodes = append(conn.Nodes, depgraphtest.Manifest(blob, len(all), all[:min(len(all), 100)]))
			n++
		}
		if p < len(sizes)-1 {
			conn.PageInfo.HasNextPage = true
			conn.PageInfo.EndCursor = depgraphtest.Ptr(fmt.Sprintf("page-%d", p+1))
		}
		f.pages = append(f.pages, conn)
	}
}

func (f *fakeSource) Manifests(ctx context.Context, owner, name, after string) (*depgraph.ManifestConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manifestCalls = append(f.manifestCalls, after)
	if f.manifestErr != nil {
		return nil, f.manifestErr
	}
	idx := 0
	if after != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(after, "page-"))
		if err != nil {
			return nil, fmt.Errorf("bad cursor %q", after)
		}
		idx = n
	}
	if idx >= len(f.pages) {
		return nil, fmt.Errorf("no page %d", idx)
	}
	return f.pages[idx], nil
}

func (f *fakeSource) Dependencies(ctx context.Context, owner, name, blobPath, after string) (*depgraph.DependencyConnection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.depCalls[blobPath]++
	if err := f.failDep[blobPath]; err != nil {
		return nil, err
	}
	prefix := blobPath + "#"
	if !strings.HasPrefix(after, prefix) {
		return nil, fmt.Errorf("bad cursor %q for %s", after, blobPath)
	}
	offset, err := strconv.Atoi(strings.TrimPrefix(after, prefix))
	if err != nil {
		return nil, err
	}
	all := f.deps[blobPath]
	end := min(offset+100, len(all))
	page := &depgraph.DependencyConnection{
		PageInfo: &depgraph.PageInfo{},
		Nodes:    all[offset:end],
	}
	if end < len(all) {
		page.PageInfo.HasNextPage = true
		page.PageInfo.EndCursor = depgraphtest.Ptr(fmt.Sprintf("%s%d", prefix, end))
	}
	return page, nil
}

func (f *fakeSource) LimitedManifests(ctx context.Context, owner, name string, maxManifests, maxDeps int) (*depgraph.ManifestConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limitedCalls = append(f.limitedCalls, Limits{MaxManifests: maxManifests, MaxDependencies: maxDeps})
	if f.limitedErr != nil {
		return nil, f.limitedErr
	}
	return f.limited, nil
}
