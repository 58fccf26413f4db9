// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries call the registered hooks; main registers implementations at
// startup. The defaults are no-ops, so nothing is emitted unless a consumer
// opts in.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetAggregateHooks(&myAggregateHooks{})
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Aggregate().OnManifestPage(ctx, repo, page, len(nodes))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Aggregate Hooks
// =============================================================================

// AggregateHooks receives events from dependency graph aggregation.
type AggregateHooks interface {
	// OnManifestPage records one page of the manifest list.
	OnManifestPage(ctx context.Context, repo string, page, manifests int)

	// OnDependencyPage records one follow-up page of a manifest's dependencies.
	OnDependencyPage(ctx context.Context, repo, blobPath string, page, dependencies int)

	// OnFallback records a switch from full to limited retrieval.
	OnFallback(ctx context.Context, repo string, cause error)

	// OnFetchComplete records the end of one aggregation attempt.
	OnFetchComplete(ctx context.Context, repo, mode string, manifests int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAggregateHooks is a no-op implementation of AggregateHooks.
type NoopAggregateHooks struct{}

func (NoopAggregateHooks) OnManifestPage(context.Context, string, int, int)                {}
func (NoopAggregateHooks) OnDependencyPage(context.Context, string, string, int, int)      {}
func (NoopAggregateHooks) OnFallback(context.Context, string, error)                       {}
func (NoopAggregateHooks) OnFetchComplete(context.Context, string, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	aggregateHooks AggregateHooks = NoopAggregateHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	httpHooks      HTTPHooks      = NoopHTTPHooks{}
	hooksMu        sync.RWMutex
)

// SetAggregateHooks registers custom aggregation hooks.
func SetAggregateHooks(h AggregateHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		aggregateHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Aggregate returns the registered aggregation hooks.
func Aggregate() AggregateHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return aggregateHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	aggregateHooks = NoopAggregateHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
