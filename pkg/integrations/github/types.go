package github

import "github.com/matzehuels/stacknotice/pkg/depgraph"

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

type graphqlResponse[T any] struct {
	Data   *T             `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type manifestsData struct {
	Repository *struct {
		DependencyGraphManifests *depgraph.ManifestConnection `json:"dependencyGraphManifests"`
	} `json:"repository"`
}

type dependenciesData struct {
	Repository *struct {
		Object *struct {
			File *struct {
				DependencyGraphManifest *struct {
					Dependencies *depgraph.DependencyConnection `json:"dependencies"`
				} `json:"dependencyGraphManifest"`
			} `json:"file"`
		} `json:"object"`
	} `json:"repository"`
}
