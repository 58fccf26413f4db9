package depgraph

import "iter"

// Dependency is one declared dependency inside a manifest.
// PackageManager is kept verbatim; values outside the known ecosystems are
// valid and handled by the coordinate mapper.
type Dependency struct {
	PackageManager string `json:"packageManager"`
	PackageName    string `json:"packageName"`
	Requirements   string `json:"requirements"`
}

// Manifest is one dependency-declaring file in the repository.
type Manifest struct {
	BlobPath          string       `json:"blobPath"`
	Filename          string       `json:"filename"`
	DependenciesCount int          `json:"dependenciesCount"`
	ExceedsMaxSize    bool         `json:"exceedsMaxSize"`
	Parseable         bool         `json:"parseable"`
	Dependencies      []Dependency `json:"dependencies"`
}

// Complete reports whether every dependency the host declared is present.
func (m *Manifest) Complete() bool {
	return len(m.Dependencies) >= m.DependenciesCount
}

// Graph is every manifest of one repository, in host order.
type Graph struct {
	Owner     string     `json:"owner"`
	Name      string     `json:"name"`
	Limited   bool       `json:"limited"`
	Manifests []Manifest `json:"manifests"`
}

// Repository returns "owner/name".
func (g *Graph) Repository() string {
	return g.Owner + "/" + g.Name
}

// DependencyCount returns the number of dependency records across all
// manifests.
func (g *Graph) DependencyCount() int {
	n := 0
	for i := range g.Manifests {
		n += len(g.Manifests[i].Dependencies)
	}
	return n
}

// Dependencies yields every dependency record in graph order, paired with
// the manifest it belongs to.
func (g *Graph) Dependencies() iter.Seq2[*Manifest, Dependency] {
	return func(yield func(*Manifest, Dependency) bool) {
		for i := range g.Manifests {
			m := &g.Manifests[i]
			for _, d := range m.Dependencies {
				if !yield(m, d) {
					return
				}
			}
		}
	}
}
