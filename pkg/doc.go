// Package pkg provides the core libraries for Stacknotice third-party notice
// generation.
//
// # Overview
//
// Stacknotice turns a GitHub repository's dependency graph into a license
// notice file. The pkg directory is organized into four main areas:
//
//  1. Domain logic: [depgraph], [coordinate], [aggregate], [notice]
//  2. Infrastructure: [cache], [artifact], [config], [observability]
//  3. External API clients: [integrations] (GitHub GraphQL, ClearlyDefined)
//  4. Orchestration: [pipeline] and the HTTP [server]
//
// # Architecture
//
// The data flow of one run:
//
//	GitHub dependency graph (GraphQL)
//	         ↓
//	    [aggregate] package (paginate manifests and dependencies, fall back to limited mode)
//	         ↓
//	    [coordinate] package (map each dependency to a ClearlyDefined coordinate)
//	         ↓
//	    [notice] package (request the rendered notice, optionally cached)
//	         ↓
//	    [artifact] package (write the file, upload to S3, record in MongoDB)
//
// Degradations such as a truncated manifest or an unsupported ecosystem
// never fail a run. They are collected by [diag] and reported as warnings.
// Failures carry an [errors.Code].
//
// # Quick Start
//
//	gh := github.NewClient(token, 30*time.Second)
//	agg := aggregate.New(gh)
//	cd := clearlydefined.NewClient(30 * time.Second)
//
//	runner := pipeline.NewRunner(agg, cd, []artifact.Sink{artifact.NewFileSink(".")}, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Owner:  "octo",
//	    Repo:   "widgets",
//	    Format: notice.FormatMarkdown,
//	})
//
// # Testing
//
//	go test ./pkg/...
//
// Tests that need S3 or MongoDB are skipped unless
// STACKNOTICE_TEST_S3_ENDPOINT or STACKNOTICE_TEST_MONGO_URI is set.
//
// [depgraph]: https://pkg.go.dev/github.com/matzehuels/stacknotice/pkg/depgraph
// [coordinate]: https://pkg.go.dev/github.com/matzehuels/stacknotice/pkg/coordinate
// [aggregate]: https://pkg.go.dev/github.com/matzehuels/stacknotice/pkg/aggregate
// [notice]: https://pkg.go.dev/github.com/matzehuels/stacknotice/pkg/notice
// [cache]: https://pkg.go.dev/github.com/matzehuels/stacknotice/pkg/cache
// [artifact]: https://pkg.go.dev/github.com/matzehuels/stacknotice/pkg/artifact
// [config]: https://pkg.go.dev/github.com/matzehuels/stacknotice/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/stacknotice/pkg/observability
// [integrations]: https://pkg.go.dev/github.com/matzehuels/stacknotice/pkg/integrations
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/stacknotice/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/stacknotice/pkg/server
// [diag]: https://pkg.go.dev/github.com/matzehuels/stacknotice/pkg/diag
// [errors.Code]: https://pkg.go.dev/github.com/matzehuels/stacknotice/pkg/errors#Code
package pkg
