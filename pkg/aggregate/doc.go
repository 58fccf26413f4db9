// Package aggregate assembles a repository's complete dependency graph from
// the host's paginated API.
//
// # Modes
//
// [Full] walks every page of the manifest list (50 manifests per page),
// then, for each manifest whose embedded dependency list (first 100) was
// cut short, follows that manifest's own dependency cursor until it is
// exhausted. The follow-ups for different manifests run concurrently; each
// manifest's pages are fetched in order by a single goroutine that owns its
// list. A manifest whose follow-up fails keeps what was fetched and the
// run continues with a PARTIAL_PAGINATION_FAILURE warning.
//
// [Limited] issues one bounded request with no follow-up pagination and
// reports how much was left out.
//
// # Fallback
//
// [Aggregator.FetchWithFallback] tries Full first. When that fails with
// UPSTREAM_TIMEOUT it retries exactly once in Limited mode (15 manifests,
// 30 dependencies each by default). Every other failure is returned as is.
//
// The package never logs; diagnostics are returned in [Result.Warnings].
package aggregate
