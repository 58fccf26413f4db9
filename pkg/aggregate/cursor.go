package aggregate

import (
	"github.com/matzehuels/stacknotice/pkg/depgraph"
	"github.com/matzehuels/stacknotice/pkg/errors"
)

// cursor is the state of one paginated walk: everything accumulated so
// far, where the next page starts, and whether there is one.
type cursor[T any] struct {
	items []T
	after string
	more  bool
	pages int
}

// advance returns the state after consuming one page. The receiver must not
// be used afterwards; its backing array may be shared with the result.
func (c cursor[T]) advance(nodes []T, info *depgraph.PageInfo, what string) (cursor[T], error) {
	if info == nil {
		return c, errors.New(errors.ErrCodeSchemaInvalid, "%s page is missing pageInfo", what)
	}
	next := cursor[T]{
		items: append(c.items, nodes...),
		after: info.Cursor(),
		more:  info.More(),
		pages: c.pages + 1,
	}
	if next.more {
		if next.after == "" {
			return c, errors.New(errors.ErrCodeSchemaInvalid, "%s page reports more results without an end cursor", what)
		}
		if c.after != "" && next.after == c.after {
			return c, errors.New(errors.ErrCodeSchemaInvalid, "%s cursor did not advance past %q", what, c.after)
		}
	}
	return next, nil
}

// dedupe drops manifests whose blob path was already seen, keeping the
// first occurrence. Manifests without a blob path are kept for the schema
// check to report.
func dedupe(nodes []*depgraph.RawManifest) []*depgraph.RawManifest {
	seen := make(map[string]struct{}, len(nodes))
	out := nodes[:0:0]
	for _, m := range nodes {
		if key := m.Key(); key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, m)
	}
	return out
}
