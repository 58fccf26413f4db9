// Package depgraphtest builds raw dependency-graph values for tests.
package depgraphtest

import (
	"fmt"

	"github.com/matzehuels/stacknotice/pkg/depgraph"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Dep returns a complete raw dependency.
func Dep(manager, name, requirements string) *depgraph.RawDependency {
	return &depgraph.RawDependency{
		PackageManager: Ptr(manager),
		PackageName:    Ptr(name),
		Requirements:   Ptr(requirements),
	}
}

// Deps returns n NPM dependencies named "<prefix>-<i>" starting at offset.
func Deps(prefix string, offset, n int) []*depgraph.RawDependency {
	out := make([]*depgraph.RawDependency, n)
	for i := range n {
		out[i] = Dep("NPM", fmt.Sprintf("%s-%d", prefix, offset+i), "^1.0.0")
	}
	return out
}

// Manifest returns a raw manifest at blobPath carrying deps. total is the
// host-reported dependency count; when it exceeds len(deps) the embedded
// connection reports a next page with cursor "<blobPath>#<len(deps)>".
func Manifest(blobPath string, total int, deps []*depgraph.RawDependency) *depgraph.RawManifest {
	if deps == nil {
		deps = []*depgraph.RawDependency{}
	}
	page := &depgraph.PageInfo{}
	if total > len(deps) {
		page.HasNextPage = true
		page.EndCursor = Ptr(fmt.Sprintf("%s#%d", blobPath, len(deps)))
	}
	return &depgraph.RawManifest{
		BlobPath:          Ptr(blobPath),
		Filename:          Ptr(baseName(blobPath)),
		DependenciesCount: Ptr(total),
		ExceedsMaxSize:    Ptr(false),
		Parseable:         Ptr(true),
		Dependencies: &depgraph.DependencyConnection{
			TotalCount: Ptr(total),
			PageInfo:   page,
			Nodes:      deps,
		},
	}
}

func baseName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
