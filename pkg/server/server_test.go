package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stacknotice/pkg/aggregate"
	"github.com/matzehuels/stacknotice/pkg/depgraph"
	"github.com/matzehuels/stacknotice/pkg/depgraph/depgraphtest"
	"github.com/matzehuels/stacknotice/pkg/errors"
	"github.com/matzehuels/stacknotice/pkg/notice"
	"github.com/matzehuels/stacknotice/pkg/pipeline"
)

type source struct {
	mu      sync.Mutex
	err     error
	limited []aggregate.Limits
}

func (s *source) limitedCalls() []aggregate.Limits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]aggregate.Limits(nil), s.limited...)
}

func (s *source) Manifests(ctx context.Context, owner, name, after string) (*depgraph.ManifestConnection, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &depgraph.ManifestConnection{
		PageInfo: &depgraph.PageInfo{},
		Nodes: []*depgraph.RawManifest{
			depgraphtest.Manifest("/o/r/blob/main/package.json", 2, []*depgraph.RawDependency{
				depgraphtest.Dep("NPM", "left-pad", "^1.3.0"),
				depgraphtest.Dep("HEX", "plug", "1.0.0"),
			}),
		},
	}, nil
}

func (s *source) Dependencies(ctx context.Context, owner, name, blobPath, after string) (*depgraph.DependencyConnection, error) {
	return nil, errors.New(errors.ErrCodeNetwork, "unexpected")
}

func (s *source) LimitedManifests(ctx context.Context, owner, name string, maxManifests, maxDeps int) (*depgraph.ManifestConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limited = append(s.limited, aggregate.Limits{MaxManifests: maxManifests, MaxDependencies: maxDeps})
	return &depgraph.ManifestConnection{TotalCount: depgraphtest.Ptr(0)}, nil
}

type requester struct {
	mu     sync.Mutex
	err    error
	format notice.Format
}

func (r *requester) lastFormat() notice.Format {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.format
}

func (r *requester) Notice(ctx context.Context, coordinates []string, format notice.Format) (*notice.Result, error) {
	r.mu.Lock()
	r.format = format
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return &notice.Result{Content: "notice for " + strings.Join(coordinates, ","), Summary: notice.Summary{Total: len(coordinates)}}, nil
}

func newTestServer(t *testing.T, src *source, req *requester) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(aggregate.New(src), req, nil, logger)
	ts := httptest.NewServer(New(runner, logger).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &source{}, &requester{})
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	var body healthResponse
	decode(t, resp, &body)
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		t.Errorf("health = %d %+v", resp.StatusCode, body)
	}
}

func TestCoordinates(t *testing.T) {
	ts := newTestServer(t, &source{}, &requester{})
	resp, err := http.Get(ts.URL + "/v1/repos/o/r/coordinates")
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		RunID       string   `json:"run_id"`
		Repository  string   `json:"repository"`
		Mode        string   `json:"mode"`
		Coordinates []string `json:"coordinates"`
		Warnings    []struct {
			Severity string `json:"severity"`
			Code     string `json:"code"`
			Message  string `json:"message"`
		} `json:"warnings"`
	}
	decode(t, resp, &body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body.Repository != "o/r" || body.Mode != "full" || body.RunID == "" {
		t.Errorf("body = %+v", body)
	}
	if len(body.Coordinates) != 1 || body.Coordinates[0] != "npm/npmjs/-/left-pad/1.3.0" {
		t.Errorf("coordinates = %v", body.Coordinates)
	}
	if len(body.Warnings) != 1 || body.Warnings[0].Code != "UNSUPPORTED_ECOSYSTEM" || body.Warnings[0].Severity != "warning" {
		t.Errorf("warnings = %+v", body.Warnings)
	}
}

func TestNotice(t *testing.T) {
	req := &requester{}
	ts := newTestServer(t, &source{}, req)
	resp, err := http.Post(ts.URL+"/v1/repos/o/r/notice?format=html", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		Format  string         `json:"format"`
		Content string         `json:"content"`
		Summary notice.Summary `json:"summary"`
	}
	decode(t, resp, &body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if req.lastFormat() != notice.FormatHTML || body.Format != "html" {
		t.Errorf("format = %s / %s", req.lastFormat(), body.Format)
	}
	if body.Content != "notice for npm/npmjs/-/left-pad/1.3.0" || body.Summary.Total != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestLimitedQuery(t *testing.T) {
	src := &source{}
	ts := newTestServer(t, src, &requester{})
	resp, err := http.Get(ts.URL + "/v1/repos/o/r/coordinates?limited=true&max_manifests=5")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	want := aggregate.Limits{MaxManifests: 5, MaxDependencies: aggregate.DefaultFallbackLimits.MaxDependencies}
	if got := src.limitedCalls(); len(got) != 1 || got[0] != want {
		t.Errorf("limited calls = %v, want [%v]", got, want)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		src    *source
		req    *requester
		status int
		code   string
	}{
		{"bad format", http.MethodPost, "/v1/repos/o/r/notice?format=pdf", nil, nil, 400, "INVALID_FORMAT"},
		{"bad owner", http.MethodGet, "/v1/repos/-bad/r/coordinates", nil, nil, 400, "INVALID_INPUT"},
		{"bad limits", http.MethodGet, "/v1/repos/o/r/coordinates?max_manifests=x", nil, nil, 400, "INVALID_INPUT"},
		{"limits out of range", http.MethodGet, "/v1/repos/o/r/coordinates?limited=1&max_manifests=500", nil, nil, 400, "INVALID_INPUT"},
		{"unauthorized", http.MethodGet, "/v1/repos/o/r/coordinates",
			&source{err: errors.New(errors.ErrCodeUnauthorized, "bad credentials")}, nil, 401, "UNAUTHORIZED"},
		{"rate limited", http.MethodGet, "/v1/repos/o/r/coordinates",
			&source{err: errors.New(errors.ErrCodeRateLimited, "slow down")}, nil, 429, "RATE_LIMITED"},
		{"schema", http.MethodGet, "/v1/repos/o/r/coordinates",
			&source{err: errors.New(errors.ErrCodeSchemaInvalid, "missing pageInfo")}, nil, 502, "SCHEMA_INVALID"},
		{"notice timeout", http.MethodPost, "/v1/repos/o/r/notice",
			nil, &requester{err: errors.New(errors.ErrCodeUpstreamTimeout, "slow")}, 504, "UPSTREAM_TIMEOUT"},
		{"unknown route", http.MethodGet, "/v2/nothing", nil, nil, 404, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, req := tt.src, tt.req
			if src == nil {
				src = &source{}
			}
			if req == nil {
				req = &requester{}
			}
			ts := newTestServer(t, src, req)
			r, _ := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			resp, err := http.DefaultClient.Do(r)
			if err != nil {
				t.Fatal(err)
			}
			var body map[string]errorPayload
			decode(t, resp, &body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if got := string(body["error"].Code); got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestTimeoutFallsBackOverHTTP(t *testing.T) {
	src := &source{err: errors.New(errors.ErrCodeUpstreamTimeout, "too large")}
	ts := newTestServer(t, src, &requester{})
	resp, err := http.Get(ts.URL + "/v1/repos/o/r/coordinates")
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		Mode string `json:"mode"`
	}
	decode(t, resp, &body)
	if resp.StatusCode != http.StatusOK || body.Mode != "limited(15,30)" || len(src.limitedCalls()) != 1 {
		t.Errorf("status %d, mode %s, limited calls %v", resp.StatusCode, body.Mode, src.limitedCalls())
	}
}

func TestStatusFor(t *testing.T) {
	if got := StatusFor(context.Canceled); got != 499 {
		t.Errorf("canceled = %d", got)
	}
	if got := StatusFor(os.ErrClosed); got != http.StatusInternalServerError {
		t.Errorf("untyped = %d", got)
	}
	if got := StatusFor(errors.New(errors.ErrCodeNotFound, "x")); got != http.StatusNotFound {
		t.Errorf("not found = %d", got)
	}
}
