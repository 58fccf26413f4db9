package depgraph

import (
	"fmt"

	"github.com/matzehuels/stacknotice/pkg/errors"
)

// Parse validates a fully merged list of raw manifests and converts it into
// a Graph. Any missing required field yields a SCHEMA_INVALID error and no
// graph.
//
// Required: the manifest itself, blobPath, filename, exceedsMaxSize,
// parseable, the dependencies connection and its nodes list, and every
// dependency's packageManager, packageName and requirements. A null
// dependenciesCount is read as the number of dependencies present.
// Empty strings are accepted; the mapper decides what they mean.
func Parse(owner, name string, nodes []*RawManifest) (*Graph, error) {
	g := &Graph{
		Owner:     owner,
		Name:      name,
		Manifests: make([]Manifest, 0, len(nodes)),
	}

	for i, raw := range nodes {
		m, err := parseManifest(raw, fmt.Sprintf("manifests[%d]", i))
		if err != nil {
			return nil, err
		}
		g.Manifests = append(g.Manifests, m)
	}
	return g, nil
}

func parseManifest(raw *RawManifest, path string) (Manifest, error) {
	if raw == nil {
		return Manifest{}, missing(path)
	}
	switch {
	case raw.BlobPath == nil:
		return Manifest{}, missing(path + ".blobPath")
	case raw.Filename == nil:
		return Manifest{}, missing(path + ".filename")
	case raw.ExceedsMaxSize == nil:
		return Manifest{}, missing(path + ".exceedsMaxSize")
	case raw.Parseable == nil:
		return Manifest{}, missing(path + ".parseable")
	case raw.Dependencies == nil:
		return Manifest{}, missing(path + ".dependencies")
	case raw.Dependencies.Nodes == nil:
		return Manifest{}, missing(path + ".dependencies.nodes")
	}

	deps := make([]Dependency, 0, len(raw.Dependencies.Nodes))
	for j, d := range raw.Dependencies.Nodes {
		dep, err := parseDependency(d, fmt.Sprintf("%s.dependencies.nodes[%d]", path, j))
		if err != nil {
			return Manifest{}, err
		}
		deps = append(deps, dep)
	}

	count := len(deps)
	if raw.DependenciesCount != nil {
		count = *raw.DependenciesCount
	}

	return Manifest{
		BlobPath:          *raw.BlobPath,
		Filename:          *raw.Filename,
		DependenciesCount: count,
		ExceedsMaxSize:    *raw.ExceedsMaxSize,
		Parseable:         *raw.Parseable,
		Dependencies:      deps,
	}, nil
}

func parseDependency(raw *RawDependency, path string) (Dependency, error) {
	switch {
	case raw == nil:
		return Dependency{}, missing(path)
	case raw.PackageManager == nil:
		return Dependency{}, missing(path + ".packageManager")
	case raw.PackageName == nil:
		return Dependency{}, missing(path + ".packageName")
	case raw.Requirements == nil:
		return Dependency{}, missing(path + ".requirements")
	}
	return Dependency{
		PackageManager: *raw.PackageManager,
		PackageName:    *raw.PackageName,
		Requirements:   *raw.Requirements,
	}, nil
}

func missing(path string) error {
	return errors.New(errors.ErrCodeSchemaInvalid, "dependency graph response is missing %s", path)
}
