package coordinate

import (
	"strings"

	"github.com/matzehuels/stacknotice/pkg/depgraph"
	"github.com/matzehuels/stacknotice/pkg/diag"
	"github.com/matzehuels/stacknotice/pkg/errors"
)

// Coordinate identifies a package revision to ClearlyDefined.
type Coordinate struct {
	Type      string `json:"type"`
	Provider  string `json:"provider"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Revision  string `json:"revision"`
}

// String renders "type/provider/namespace/name/revision".
func (c Coordinate) String() string {
	ns := c.Namespace
	if ns == "" {
		ns = noNamespace
	}
	return c.Type + "/" + c.Provider + "/" + ns + "/" + c.Name + "/" + c.Revision
}

// Map converts one dependency record. The boolean is false when the package
// manager has no mapping.
func Map(dep depgraph.Dependency) (Coordinate, bool) {
	eco, ok := Lookup(dep.PackageManager)
	if !ok {
		return Coordinate{}, false
	}
	ns, name := eco.Split(dep.PackageName)
	return Coordinate{
		Type:      eco.Type,
		Provider:  eco.Provider,
		Namespace: ns,
		Name:      name,
		Revision:  eco.Revision(dep.Requirements),
	}, true
}

// MapAll maps every dependency of g in graph order. Unsupported records are
// dropped with one warning each; the remaining coordinates are returned as
// strings.
func MapAll(g *depgraph.Graph, warnings *diag.Collector) []string {
	out := make([]string, 0, g.DependencyCount())
	for m, dep := range g.Dependencies() {
		c, ok := Map(dep)
		if !ok {
			if warnings != nil {
				warnings.Warnf(errors.ErrCodeUnsupportedEcosystem,
					"Unknown package manager %q for %s in %s", dep.PackageManager, dep.PackageName, m.Filename)
			}
			continue
		}
		if s := c.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Parse splits a coordinate string into its five fields. Go namespaces may
// themselves contain slashes, so the namespace takes every field between the
// provider and the last two.
func Parse(s string) (Coordinate, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 5 {
		return Coordinate{}, errors.New(errors.ErrCodeInvalidInput, "coordinate %q must have five fields", s)
	}
	n := len(parts)
	c := Coordinate{
		Type:      parts[0],
		Provider:  parts[1],
		Namespace: strings.Join(parts[2:n-2], "/"),
		Name:      parts[n-2],
		Revision:  parts[n-1],
	}
	if c.Type == "" || c.Provider == "" || c.Name == "" {
		return Coordinate{}, errors.New(errors.ErrCodeInvalidInput, "coordinate %q has empty fields", s)
	}
	return c, nil
}

// CountByType tallies coordinates per type ("npm", "pypi", ...). Strings
// that do not parse are skipped.
func CountByType(coords []string) map[string]int {
	counts := make(map[string]int)
	for _, s := range coords {
		c, err := Parse(s)
		if err != nil {
			continue
		}
		counts[c.Type]++
	}
	return counts
}
