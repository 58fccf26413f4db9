package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stacknotice/pkg/aggregate"
	"github.com/matzehuels/stacknotice/pkg/buildinfo"
	"github.com/matzehuels/stacknotice/pkg/diag"
	"github.com/matzehuels/stacknotice/pkg/errors"
	"github.com/matzehuels/stacknotice/pkg/notice"
	"github.com/matzehuels/stacknotice/pkg/pipeline"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type coordinatesResponse struct {
	RunID       string          `json:"run_id"`
	Repository  string          `json:"repository"`
	Mode        aggregate.Mode  `json:"mode"`
	Coordinates []string        `json:"coordinates"`
	Warnings    []diag.Warning  `json:"warnings"`
	Stats       aggregate.Stats `json:"stats"`
}

type noticeResponse struct {
	coordinatesResponse
	Format    notice.Format     `json:"format"`
	Content   string            `json:"content"`
	Summary   notice.Summary    `json:"summary"`
	Locations map[string]string `json:"locations,omitempty"`
}

type errorPayload struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func errorBody(code errors.Code, msg string) map[string]errorPayload {
	return map[string]errorPayload{"error": {Code: code, Message: msg}}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Version})
}

func (s *Server) handleCoordinates(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Coordinates(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coordinatesFor(res))
}

func (s *Server) handleNotice(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, noticeResponse{
		coordinatesResponse: coordinatesFor(res),
		Format:              opts.Format,
		Content:             res.Notice.Content,
		Summary:             res.Notice.Summary,
		Locations:           res.Locations,
	})
}

// options reads the repository from the path and the run options from the
// query string.
func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Owner:  chi.URLParam(r, "owner"),
		Repo:   chi.URLParam(r, "repo"),
		Format: notice.Format(strings.TrimSpace(q.Get("format"))),
		Logger: s.logger.With("request_id", requestID(r)),
	}
	if opts.Format == "" {
		opts.Format = notice.FormatText
	}

	if v := q.Get("limited"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid limited=%q", v)
		}
		opts.Limited = b
	}
	for name, dst := range map[string]*int{
		"max_manifests":    &opts.Limits.MaxManifests,
		"max_dependencies": &opts.Limits.MaxDependencies,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid %s=%q", name, v)
		}
		*dst = n
	}
	// One bound alone is completed from the defaults.
	if opts.Limits != (aggregate.Limits{}) {
		if opts.Limits.MaxManifests == 0 {
			opts.Limits.MaxManifests = aggregate.DefaultFallbackLimits.MaxManifests
		}
		if opts.Limits.MaxDependencies == 0 {
			opts.Limits.MaxDependencies = aggregate.DefaultFallbackLimits.MaxDependencies
		}
	}
	return opts, nil
}

func coordinatesFor(res *pipeline.Result) coordinatesResponse {
	coords := res.Coordinates
	if coords == nil {
		coords = []string{}
	}
	var warnings []diag.Warning
	for _, w := range res.Warnings.Warnings() {
		if w.Severity >= diag.SeverityInfo {
			warnings = append(warnings, w)
		}
	}
	if warnings == nil {
		warnings = []diag.Warning{}
	}
	return coordinatesResponse{
		RunID:       res.RunID,
		Repository:  res.Repository,
		Mode:        res.Mode,
		Coordinates: coords,
		Warnings:    warnings,
		Stats:       res.Stats.Fetch,
	}
}

// StatusFor maps an error to an HTTP status by its code.
func StatusFor(err error) int {
	if stderrors.Is(err, context.Canceled) {
		return 499
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeSchemaInvalid, errors.ErrCodeNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "code", code, "err", err, "request_id", requestID(r))
	}
	var rl *errors.RateLimitedError
	if stderrors.As(err, &rl) && rl.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
	}
	writeJSON(w, status, errorBody(code, errors.UserMessage(err)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
