package coordinate

import "strings"

// Ecosystem is the mapping rule for one package manager.
type Ecosystem struct {
	// Manager is the host's packageManager value, e.g. "NPM".
	Manager  string
	Type     string
	Provider string

	split   func(packageName string) (namespace, name string)
	version func(requirements string) string
}

// Split derives namespace and name from a package name. Namespace is "-"
// when the name carries none.
func (e *Ecosystem) Split(packageName string) (namespace, name string) {
	return e.split(packageName)
}

// Revision derives the revision from a requirements string.
func (e *Ecosystem) Revision(requirements string) string {
	return e.version(requirements)
}

const noNamespace = "-"

var ecosystems = []*Ecosystem{
	{Manager: "NPM", Type: "npm", Provider: "npmjs", split: splitScope, version: npmVersion},
	{Manager: "MAVEN", Type: "maven", Provider: "mavencentral", split: splitMaven, version: verbatim},
	{Manager: "NUGET", Type: "nuget", Provider: "nuget", split: unscoped, version: verbatim},
	{Manager: "RUBYGEMS", Type: "gem", Provider: "rubygems", split: unscoped, version: stripComparator},
	{Manager: "PIP", Type: "pypi", Provider: "pypi", split: unscoped, version: stripComparator},
	{Manager: "CARGO", Type: "crate", Provider: "cratesio", split: unscoped, version: stripComparator},
	{Manager: "COMPOSER", Type: "composer", Provider: "packagist", split: splitSlash, version: stripComparator},
	{Manager: "GO", Type: "go", Provider: "golang", split: splitModulePath, version: goVersion},
	{Manager: "PUB", Type: "pub", Provider: "pub", split: unscoped, version: stripComparator},
	{Manager: "SWIFT", Type: "swift", Provider: "swiftpm", split: splitSlash, version: stripComparator},
}

var byManager = func() map[string]*Ecosystem {
	m := make(map[string]*Ecosystem, len(ecosystems))
	for _, e := range ecosystems {
		m[e.Manager] = e
	}
	return m
}()

// Lookup returns the ecosystem registered for a package manager.
// Matching is exact; the host reports managers in upper case.
func Lookup(manager string) (*Ecosystem, bool) {
	e, ok := byManager[manager]
	return e, ok
}

// Ecosystems returns the supported ecosystems in table order.
func Ecosystems() []*Ecosystem {
	out := make([]*Ecosystem, len(ecosystems))
	copy(out, ecosystems)
	return out
}

// Managers returns the supported packageManager values in table order.
func Managers() []string {
	out := make([]string, len(ecosystems))
	for i, e := range ecosystems {
		out[i] = e.Manager
	}
	return out
}

func unscoped(name string) (string, string) {
	return noNamespace, name
}

// splitScope handles "@scope/name". Segments past the second are dropped.
func splitScope(name string) (string, string) {
	if !strings.Contains(name, "/") {
		return noNamespace, name
	}
	parts := strings.Split(name, "/")
	return strings.TrimPrefix(parts[0], "@"), parts[1]
}

// splitMaven handles "groupId:artifactId".
func splitMaven(name string) (string, string) {
	if !strings.Contains(name, ":") {
		return noNamespace, name
	}
	parts := strings.Split(name, ":")
	return parts[0], parts[1]
}

// splitSlash handles "vendor/package".
func splitSlash(name string) (string, string) {
	if !strings.Contains(name, "/") {
		return noNamespace, name
	}
	parts := strings.Split(name, "/")
	return parts[0], parts[1]
}

// splitModulePath treats everything before the last segment of a module
// path with at least three segments as the namespace.
func splitModulePath(name string) (string, string) {
	parts := strings.Split(name, "/")
	if len(parts) < 3 {
		return noNamespace, name
	}
	last := len(parts) - 1
	return strings.Join(parts[:last], "/"), parts[last]
}

func verbatim(req string) string {
	return req
}

// npmVersion drops the range operator and the space the host puts after it
// ("^1.2.3" and "= 1.2.3" both become "1.2.3").
func npmVersion(req string) string {
	if req != "" && strings.IndexByte("^~=", req[0]) >= 0 {
		req = req[1:]
	}
	return strings.TrimPrefix(req, " ")
}

// stripComparator removes one leading comparator character and trims.
// Only one character goes: ">=1.0" becomes "=1.0".
func stripComparator(req string) string {
	if req != "" && strings.IndexByte("~^>=<", req[0]) >= 0 {
		req = req[1:]
	}
	return strings.TrimSpace(req)
}

func goVersion(req string) string {
	return strings.TrimPrefix(req, "v")
}
