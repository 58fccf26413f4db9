package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	a := NoopAggregateHooks{}
	a.OnManifestPage(ctx, "o/r", 1, 50)
	a.OnDependencyPage(ctx, "o/r", "/o/r/blob/main/package.json", 2, 100)
	a.OnFallback(ctx, "o/r", errors.New("timeout"))
	a.OnFetchComplete(ctx, "o/r", "full", 110, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "notice")
	c.OnCacheMiss(ctx, "notice")
	c.OnCacheSet(ctx, "notice", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "api.github.com", "/graphql")
	h.OnResponse(ctx, "POST", "api.github.com", "/graphql", 200, time.Second)
	h.OnError(ctx, "POST", "api.github.com", "/graphql", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Aggregate().(NoopAggregateHooks); !ok {
		t.Error("Aggregate() should return NoopAggregateHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customAggregate := &testAggregateHooks{}
	SetAggregateHooks(customAggregate)
	if Aggregate() != customAggregate {
		t.Error("SetAggregateHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Aggregate().(NoopAggregateHooks); !ok {
		t.Error("Reset() should restore NoopAggregateHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testAggregateHooks{}
	SetAggregateHooks(custom)
	SetAggregateHooks(nil)

	if Aggregate() != custom {
		t.Error("SetAggregateHooks(nil) should be ignored")
	}
}

type testAggregateHooks struct{ NoopAggregateHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
