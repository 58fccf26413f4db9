package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// logHooks writes observability events to the debug log of the logger
// carried in the context. Server requests carry none and use fallback.
type logHooks struct {
	fallback *log.Logger
}

func (h logHooks) log(ctx context.Context) *log.Logger {
	return loggerFromContext(ctx, h.fallback)
}

func (h logHooks) OnManifestPage(ctx context.Context, repo string, page, manifests int) {
	h.log(ctx).Debug("manifest page", "repo", repo, "page", page, "manifests", manifests)
}

func (h logHooks) OnDependencyPage(ctx context.Context, repo, blobPath string, page, dependencies int) {
	h.log(ctx).Debug("dependency page", "manifest", blobPath, "page", page, "dependencies", dependencies)
}

func (h logHooks) OnFallback(ctx context.Context, repo string, cause error) {
	h.log(ctx).Info("falling back to limited query", "repo", repo, "cause", cause)
}

func (h logHooks) OnFetchComplete(ctx context.Context, repo, mode string, manifests int, d time.Duration, err error) {
	l := h.log(ctx)
	if err != nil {
		l.Debug("fetch failed", "repo", repo, "mode", mode, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	l.Debug("fetch complete", "repo", repo, "mode", mode, "manifests", manifests, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnRequest(ctx context.Context, method, host, path string) {
	h.log(ctx).Debug("request", "method", method, "host", host, "path", path)
}

func (h logHooks) OnResponse(ctx context.Context, method, host, path string, status int, d time.Duration) {
	h.log(ctx).Debug("response", "method", method, "host", host, "status", status, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnError(ctx context.Context, method, host, path string, err error) {
	h.log(ctx).Debug("request failed", "method", method, "host", host, "path", path, "err", err)
}

func (h logHooks) OnCacheHit(ctx context.Context, keyType string) {
	h.log(ctx).Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(ctx context.Context, keyType string) {
	h.log(ctx).Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	h.log(ctx).Debug("cache set", "type", keyType, "bytes", size)
}
