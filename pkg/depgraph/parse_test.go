package depgraph_test

import (
	"testing"

	"github.com/matzehuels/stacknotice/pkg/depgraph"
	"github.com/matzehuels/stacknotice/pkg/depgraph/depgraphtest"
	"github.com/matzehuels/stacknotice/pkg/errors"
)

func TestParse(t *testing.T) {
	nodes := []*depgraph.RawManifest{
		depgraphtest.Manifest("/o/r/blob/main/package.json", 2, []*depgraph.RawDependency{
			depgraphtest.Dep("NPM", "@scope/pkg", "^1.2.3"),
			depgraphtest.Dep("UNKNOWN", "thing", "1"),
		}),
		depgraphtest.Manifest("/o/r/blob/main/go.mod", 1, []*depgraph.RawDependency{
			depgraphtest.Dep("GO", "github.com/user/repo", "v1.4.0"),
		}),
	}

	g, err := depgraph.Parse("o", "r", nodes)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if g.Repository() != "o/r" {
		t.Errorf("Repository() = %q", g.Repository())
	}
	if len(g.Manifests) != 2 {
		t.Fatalf("len(Manifests) = %d, want 2", len(g.Manifests))
	}
	if g.Manifests[0].Filename != "package.json" || g.Manifests[1].Filename != "go.mod" {
		t.Errorf("manifest order not preserved: %q, %q", g.Manifests[0].Filename, g.Manifests[1].Filename)
	}
	if g.DependencyCount() != 3 {
		t.Errorf("DependencyCount() = %d, want 3", g.DependencyCount())
	}
	if got := g.Manifests[0].Dependencies[1].PackageManager; got != "UNKNOWN" {
		t.Errorf("unknown package manager not preserved: %q", got)
	}

	var names []string
	for m, d := range g.Dependencies() {
		names = append(names, m.Filename+":"+d.PackageName)
	}
	want := []string{"package.json:@scope/pkg", "package.json:thing", "go.mod:github.com/user/repo"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Dependencies()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestParseMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *depgraph.RawManifest)
		path   string
	}{
		{"packageName", func(m *depgraph.RawManifest) { m.Dependencies.Nodes[0].PackageName = nil }, "manifests[0].dependencies.nodes[0].packageName"},
		{"packageManager", func(m *depgraph.RawManifest) { m.Dependencies.Nodes[0].PackageManager = nil }, "manifests[0].dependencies.nodes[0].packageManager"},
		{"requirements", func(m *depgraph.RawManifest) { m.Dependencies.Nodes[0].Requirements = nil }, "manifests[0].dependencies.nodes[0].requirements"},
		{"null dependency", func(m *depgraph.RawManifest) { m.Dependencies.Nodes[0] = nil }, "manifests[0].dependencies.nodes[0]"},
		{"dependencies", func(m *depgraph.RawManifest) { m.Dependencies = nil }, "manifests[0].dependencies"},
		{"nodes", func(m *depgraph.RawManifest) { m.Dependencies.Nodes = nil }, "manifests[0].dependencies.nodes"},
		{"blobPath", func(m *depgraph.RawManifest) { m.BlobPath = nil }, "manifests[0].blobPath"},
		{"filename", func(m *depgraph.RawManifest) { m.Filename = nil }, "manifests[0].filename"},
		{"parseable", func(m *depgraph.RawManifest) { m.Parseable = nil }, "manifests[0].parseable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := depgraphtest.Manifest("/o/r/blob/main/package.json", 1, []*depgraph.RawDependency{
				depgraphtest.Dep("NPM", "left-pad", "^1.0.0"),
			})
			tt.mutate(m)

			g, err := depgraph.Parse("o", "r", []*depgraph.RawManifest{m})
			if g != nil {
				t.Error("Parse() returned a graph for invalid input")
			}
			if !errors.Is(err, errors.ErrCodeSchemaInvalid) {
				t.Fatalf("Parse() error = %v, want %s", err, errors.ErrCodeSchemaInvalid)
			}
			want := "dependency graph response is missing " + tt.path
			if msg := errors.UserMessage(err); msg != want {
				t.Errorf("message = %q, want %q", msg, want)
			}
		})
	}
}

func TestParseNullManifest(t *testing.T) {
	_, err := depgraph.Parse("o", "r", []*depgraph.RawManifest{nil})
	if !errors.Is(err, errors.ErrCodeSchemaInvalid) {
		t.Errorf("Parse() error = %v, want %s", err, errors.ErrCodeSchemaInvalid)
	}
}

func TestParseNullDependenciesCount(t *testing.T) {
	m := depgraphtest.Manifest("/o/r/blob/main/Gemfile", 2, depgraphtest.Deps("gem", 0, 2))
	m.DependenciesCount = nil

	g, err := depgraph.Parse("o", "r", []*depgraph.RawManifest{m})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := g.Manifests[0].DependenciesCount; got != 2 {
		t.Errorf("DependenciesCount = %d, want 2", got)
	}
	if !g.Manifests[0].Complete() {
		t.Error("Complete() = false, want true")
	}
}

func TestParseEmpty(t *testing.T) {
	g, err := depgraph.Parse("o", "r", nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(g.Manifests) != 0 || g.DependencyCount() != 0 {
		t.Errorf("expected empty graph, got %+v", g)
	}
}
