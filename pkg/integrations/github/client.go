package github

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/stacknotice/pkg/depgraph"
	"github.com/matzehuels/stacknotice/pkg/errors"
	"github.com/matzehuels/stacknotice/pkg/integrations"
)

// DefaultBaseURL is the public GitHub API.
const DefaultBaseURL = "https://api.github.com"

// PreviewAccept enables the dependency graph schema preview.
const PreviewAccept = "application/vnd.github.hawkgirl-preview+json"

// Client queries the dependency graph of GitHub repositories.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GraphQL client authenticated with token. A zero
// timeout leaves requests unbounded.
func NewClient(token string, timeout time.Duration) *Client {
	headers := map[string]string{
		"Accept":        PreviewAccept,
		"Authorization": "bearer " + token,
	}
	return &Client{
		Client:  integrations.NewClient(timeout, headers),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at another API root, such as GitHub
// Enterprise Server ("https://ghe.example.com/api").
func (c *Client) WithBaseURL(u string) *Client {
	if u != "" {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
	return c
}

// Manifests returns one page of manifests. An empty after requests the
// first page.
func (c *Client) Manifests(ctx context.Context, owner, name, after string) (*depgraph.ManifestConnection, error) {
	vars := map[string]any{"owner": owner, "name": name, "cursor": nil}
	if after != "" {
		vars["cursor"] = after
	}

	var resp graphqlResponse[manifestsData]
	if err := c.query(ctx, manifestsQuery, vars, &resp); err != nil {
		return nil, err
	}
	conn, err := manifestConnection(resp.Data, owner, name)
	if err != nil {
		return nil, err
	}
	if conn.PageInfo == nil {
		return nil, errors.New(errors.ErrCodeSchemaInvalid, "dependencyGraphManifests.pageInfo missing for %s/%s", owner, name)
	}
	return conn, nil
}

// Dependencies returns the page of dependencies following after for the
// manifest at blobPath.
func (c *Client) Dependencies(ctx context.Context, owner, name, blobPath, after string) (*depgraph.DependencyConnection, error) {
	vars := map[string]any{"owner": owner, "name": name, "blobPath": blobPath, "cursor": after}

	var resp graphqlResponse[dependenciesData]
	if err := c.query(ctx, dependenciesQuery, vars, &resp); err != nil {
		return nil, err
	}

	d := resp.Data
	switch {
	case d == nil || d.Repository == nil:
		return nil, errors.New(errors.ErrCodeSchemaInvalid, "repository %s/%s missing from response", owner, name)
	case d.Repository.Object == nil || d.Repository.Object.File == nil:
		return nil, errors.New(errors.ErrCodeSchemaInvalid, "manifest %s not found at HEAD", blobPath)
	case d.Repository.Object.File.DependencyGraphManifest == nil:
		return nil, errors.New(errors.ErrCodeSchemaInvalid, "%s has no dependency graph manifest", blobPath)
	}
	deps := d.Repository.Object.File.DependencyGraphManifest.Dependencies
	if deps == nil || deps.PageInfo == nil {
		return nil, errors.New(errors.ErrCodeSchemaInvalid, "dependencies connection for %s is incomplete", blobPath)
	}
	return deps, nil
}

// LimitedManifests fetches at most maxManifests manifests with at most
// maxDeps dependencies each, in a single request.
func (c *Client) LimitedManifests(ctx context.Context, owner, name string, maxManifests, maxDeps int) (*depgraph.ManifestConnection, error) {
	vars := map[string]any{"owner": owner, "name": name, "maxManifests": maxManifests, "maxDeps": maxDeps}

	var resp graphqlResponse[manifestsData]
	if err := c.query(ctx, limitedQuery, vars, &resp); err != nil {
		return nil, err
	}
	return manifestConnection(resp.Data, owner, name)
}

func (c *Client) query(ctx context.Context, query string, vars map[string]any, out interface{ failure() error }) error {
	err := c.PostJSON(ctx, c.baseURL+"/graphql", graphqlRequest{Query: query, Variables: vars}, out)
	if err != nil {
		return classify(err)
	}
	return out.failure()
}

func (r *graphqlResponse[T]) failure() error {
	return graphqlFailure(r.Errors)
}

func manifestConnection(d *manifestsData, owner, name string) (*depgraph.ManifestConnection, error) {
	if d == nil || d.Repository == nil {
		return nil, errors.New(errors.ErrCodeSchemaInvalid, "repository %s/%s missing from response", owner, name)
	}
	conn := d.Repository.DependencyGraphManifests
	if conn == nil || conn.Nodes == nil {
		return nil, errors.New(errors.ErrCodeSchemaInvalid, "dependencyGraphManifests missing for %s/%s", owner, name)
	}
	return conn, nil
}
