// Package depgraph defines the dependency graph read from the source-control
// host and the explicit parse step that turns the host's raw GraphQL
// connection shape into it.
//
// The raw types ([RawManifest], [RawDependency] and the connection wrappers)
// mirror the host's JSON with pointer fields, so that an absent or null
// value can be told apart from an empty one. [Parse] checks every required
// field and returns a SCHEMA_INVALID error naming the first offending path.
// A [Graph] is only ever produced from a fully merged structure; dependency
// sublists that are still being paginated never leave the aggregator.
package depgraph
