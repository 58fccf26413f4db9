package depgraph

// PageInfo is the GraphQL cursor state of a connection.
type PageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

// Cursor returns the end cursor, or "" when the host sent null.
func (p *PageInfo) Cursor() string {
	if p == nil || p.EndCursor == nil {
		return ""
	}
	return *p.EndCursor
}

// More reports whether another page follows.
func (p *PageInfo) More() bool {
	return p != nil && p.HasNextPage
}

// RawDependency is a dependency node as sent by the host.
type RawDependency struct {
	PackageManager *string `json:"packageManager"`
	PackageName    *string `json:"packageName"`
	Requirements   *string `json:"requirements"`
}

// DependencyConnection is a page of a manifest's dependencies.
type DependencyConnection struct {
	TotalCount *int             `json:"totalCount,omitempty"`
	PageInfo   *PageInfo        `json:"pageInfo,omitempty"`
	Nodes      []*RawDependency `json:"nodes"`
}

// Total returns the host-reported total, or fallback when absent.
func (c *DependencyConnection) Total(fallback int) int {
	if c == nil || c.TotalCount == nil {
		return fallback
	}
	return *c.TotalCount
}

// RawManifest is a manifest node as sent by the host.
type RawManifest struct {
	BlobPath          *string               `json:"blobPath"`
	Filename          *string               `json:"filename"`
	DependenciesCount *int                  `json:"dependenciesCount"`
	ExceedsMaxSize    *bool                 `json:"exceedsMaxSize"`
	Parseable         *bool                 `json:"parseable"`
	Dependencies      *DependencyConnection `json:"dependencies"`
}

// Name returns the manifest filename for messages, falling back to the
// blob path and then to a placeholder.
func (m *RawManifest) Name() string {
	switch {
	case m == nil:
		return "<nil>"
	case m.Filename != nil && *m.Filename != "":
		return *m.Filename
	case m.BlobPath != nil:
		return *m.BlobPath
	}
	return "<unnamed>"
}

// Key identifies the manifest across pages.
func (m *RawManifest) Key() string {
	if m == nil || m.BlobPath == nil {
		return ""
	}
	return *m.BlobPath
}

// ManifestConnection is a page of a repository's manifests.
type ManifestConnection struct {
	TotalCount *int           `json:"totalCount,omitempty"`
	PageInfo   *PageInfo      `json:"pageInfo,omitempty"`
	Nodes      []*RawManifest `json:"nodes"`
}

// Total returns the host-reported total, or fallback when absent.
func (c *ManifestConnection) Total(fallback int) int {
	if c == nil || c.TotalCount == nil {
		return fallback
	}
	return *c.TotalCount
}
