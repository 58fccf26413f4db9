// Package artifact persists generated notices.
//
// A [Sink] receives an [Artifact] once per run and reports where it was
// stored. Three sinks are provided:
//
//   - [FileSink] writes the notice into a directory, the usual choice inside
//     a CI workspace.
//   - [S3Sink] uploads it to an S3-compatible object store under
//     <repository>/<run id>/<filename>.
//   - [MongoSink] records the run, including its summary and coordinates,
//     as one document for audit history.
//
// Run IDs come from [NewRunID].
package artifact
