// Package integrations provides the HTTP clients for the two upstream
// services a notice run talks to:
//
//   - [github]: the GitHub GraphQL API, source of the dependency graph
//   - [clearlydefined]: the ClearlyDefined notice renderer
//
// # Shared Infrastructure
//
// [Client] carries default headers, JSON encoding, HTTP hooks and the
// first-pass error classification every subpackage builds on. Transport
// failures are mapped onto [errors.Code] values: timeouts become
// UPSTREAM_TIMEOUT, connection failures and 5xx responses become retryable
// NETWORK_ERROR. A non-2xx response is returned as a [*StatusError] so that
// callers can apply service-specific rules before falling back to
// [ClassifyStatus].
//
// [github]: github.com/matzehuels/stacknotice/pkg/integrations/github
// [clearlydefined]: github.com/matzehuels/stacknotice/pkg/integrations/clearlydefined
// [errors.Code]: github.com/matzehuels/stacknotice/pkg/errors.Code
package integrations
