// Package github queries a repository's dependency graph through the GitHub
// GraphQL API.
//
// # Overview
//
// Three queries are issued, all against the dependency graph preview
// (Accept: application/vnd.github.hawkgirl-preview+json):
//
//   - [Client.Manifests]: one page of 50 manifests, each carrying its first
//     100 dependencies and their pagination state
//   - [Client.Dependencies]: a follow-up page of 100 dependencies for one
//     manifest, addressed by blob path at HEAD
//   - [Client.LimitedManifests]: a single bounded request used when the full
//     graph is too large to fetch
//
// The client performs no retries; recovery is the aggregator's concern.
//
// # Errors
//
// Failures are classified so the aggregator can decide what to do:
//
//   - request timeouts, 408/502/504 and GraphQL timeout messages: UPSTREAM_TIMEOUT
//   - 429, 403 mentioning a rate limit, an exhausted X-RateLimit-Remaining and
//     GraphQL RATE_LIMITED errors: RATE_LIMITED
//   - 401: UNAUTHORIZED
//   - a response without the expected objects: SCHEMA_INVALID
//
// # Usage
//
//	client := github.NewClient(token, 30*time.Second)
//	page, err := client.Manifests(ctx, "owner", "repo", "")
package github
