// Package clearlydefined renders license notices through the ClearlyDefined
// API (https://api.clearlydefined.io).
//
// # Usage
//
//	client := clearlydefined.NewClient(60 * time.Second)
//	res, err := client.Notice(ctx, []string{"npm/npmjs/-/react/18.2.0"}, notice.FormatText)
//
// Transient failures (connection errors, 5xx) are retried with backoff;
// 429 responses surface as RATE_LIMITED.
package clearlydefined

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/matzehuels/stacknotice/pkg/cache"
	"github.com/matzehuels/stacknotice/pkg/errors"
	"github.com/matzehuels/stacknotice/pkg/integrations"
	"github.com/matzehuels/stacknotice/pkg/notice"
)

// DefaultBaseURL is the public ClearlyDefined API.
const DefaultBaseURL = "https://api.clearlydefined.io"

// Client implements notice.Requester against ClearlyDefined.
type Client struct {
	*integrations.Client
	baseURL string
	retry   func(context.Context, func() error) error
}

// NewClient creates a ClearlyDefined client. A zero timeout leaves requests
// unbounded.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(timeout, nil),
		baseURL: DefaultBaseURL,
		retry:   cache.RetryWithBackoff,
	}
}

// WithBaseURL points the client at another deployment.
func (c *Client) WithBaseURL(u string) *Client {
	if u != "" {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
	return c
}

type noticeRequest struct {
	Coordinates []string `json:"coordinates"`
	Renderer    string   `json:"renderer"`
}

type noticeResponse struct {
	Content *string `json:"content"`
	Summary *struct {
		Total    *int `json:"total"`
		Warnings *struct {
			NoDefinition []string `json:"noDefinition"`
			NoLicense    []string `json:"noLicense"`
			NoCopyright  []string `json:"noCopyright"`
		} `json:"warnings"`
	} `json:"summary"`
}

// Notice posts the coordinates to /notices and validates the response.
func (c *Client) Notice(ctx context.Context, coordinates []string, format notice.Format) (*notice.Result, error) {
	if err := notice.CheckLimit(coordinates); err != nil {
		return nil, err
	}
	if coordinates == nil {
		coordinates = []string{}
	}

	req := noticeRequest{Coordinates: coordinates, Renderer: string(format)}
	var resp noticeResponse
	err := c.retry(ctx, func() error {
		resp = noticeResponse{}
		err := c.PostJSON(ctx, c.baseURL+"/notices", req, &resp)
		var se *integrations.StatusError
		if stderrors.As(err, &se) {
			return integrations.ClassifyStatus(se)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return parseResponse(&resp)
}

func parseResponse(r *noticeResponse) (*notice.Result, error) {
	switch {
	case r.Content == nil:
		return nil, invalid("content")
	case r.Summary == nil:
		return nil, invalid("summary")
	case r.Summary.Total == nil:
		return nil, invalid("summary.total")
	case r.Summary.Warnings == nil:
		return nil, invalid("summary.warnings")
	case r.Summary.Warnings.NoDefinition == nil:
		return nil, invalid("summary.warnings.noDefinition")
	case r.Summary.Warnings.NoLicense == nil:
		return nil, invalid("summary.warnings.noLicense")
	case r.Summary.Warnings.NoCopyright == nil:
		return nil, invalid("summary.warnings.noCopyright")
	}
	w := r.Summary.Warnings
	return &notice.Result{
		Content: *r.Content,
		Summary: notice.Summary{
			Total: *r.Summary.Total,
			Warnings: notice.Warnings{
				NoDefinition: w.NoDefinition,
				NoLicense:    w.NoLicense,
				NoCopyright:  w.NoCopyright,
			},
		},
	}, nil
}

func invalid(field string) error {
	return errors.New(errors.ErrCodeSchemaInvalid, "invalid response from ClearlyDefined: missing %s", field)
}

var _ notice.Requester = (*Client)(nil)
