package github

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/matzehuels/stacknotice/pkg/errors"
	"github.com/matzehuels/stacknotice/pkg/integrations"
)

// classify maps a transport-level failure onto an error code, applying the
// GitHub-specific rate-limit rules before the generic status mapping.
func classify(err error) error {
	var se *integrations.StatusError
	if !stderrors.As(err, &se) {
		return err
	}
	if isRateLimited(se) {
		return errors.Wrap(errors.ErrCodeRateLimited,
			&errors.RateLimitedError{RetryAfter: se.RetryAfter()},
			"GitHub API rate limit exceeded")
	}
	switch se.StatusCode {
	case http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return errors.Wrap(errors.ErrCodeUpstreamTimeout, se,
			"GitHub API timeout, the repository may have too many dependencies")
	}
	return integrations.ClassifyStatus(se)
}

func isRateLimited(se *integrations.StatusError) bool {
	if se.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if se.StatusCode != http.StatusForbidden {
		return false
	}
	return se.Header.Get("X-RateLimit-Remaining") == "0" ||
		strings.Contains(strings.ToLower(string(se.Body)), "rate limit")
}

// graphqlFailure classifies the errors array of a 200 response.
func graphqlFailure(errs []graphqlError) error {
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	for _, e := range errs {
		msg := strings.ToLower(e.Message)
		switch {
		case e.Type == "RATE_LIMITED" || strings.Contains(msg, "rate limit"):
			return errors.New(errors.ErrCodeRateLimited, "GitHub API rate limit exceeded: %s", e.Message)
		case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"), strings.Contains(msg, "too large"):
			return errors.New(errors.ErrCodeUpstreamTimeout, "GraphQL query timeout: %s", e.Message)
		}
	}
	switch first.Type {
	case "NOT_FOUND":
		return errors.New(errors.ErrCodeNotFound, "%s", first.Message)
	case "FORBIDDEN":
		return errors.New(errors.ErrCodeUnauthorized, "%s", first.Message)
	}
	return errors.New(errors.ErrCodeNetwork, "GitHub API error: %s", first.Message)
}
