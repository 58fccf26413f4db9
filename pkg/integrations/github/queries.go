package github

// Page sizes used by the full-mode queries.
const (
	ManifestPageSize   = 50
	DependencyPageSize = 100
)

const manifestsQuery = `query ($owner: String!, $name: String!, $cursor: String) {
  repository(owner: $owner, name: $name) {
    dependencyGraphManifests(first: 50, after: $cursor) {
      pageInfo {
        hasNextPage
        endCursor
      }
      nodes {
        blobPath
        dependencies(first: 100) {
          totalCount
          pageInfo {
            hasNextPage
            endCursor
          }
          nodes {
            packageManager
            packageName
            requirements
          }
        }
        dependenciesCount
        exceedsMaxSize
        filename
        parseable
      }
    }
  }
}`

const dependenciesQuery = `query ($owner: String!, $name: String!, $blobPath: String!, $cursor: String!) {
  repository(owner: $owner, name: $name) {
    object(expression: "HEAD") {
      ... on Commit {
        file(path: $blobPath) {
          dependencyGraphManifest {
            dependencies(first: 100, after: $cursor) {
              pageInfo {
                hasNextPage
                endCursor
              }
              nodes {
                packageManager
                packageName
                requirements
              }
            }
          }
        }
      }
    }
  }
}`

const limitedQuery = `query ($owner: String!, $name: String!, $maxManifests: Int!, $maxDeps: Int!) {
  repository(owner: $owner, name: $name) {
    dependencyGraphManifests(first: $maxManifests) {
      totalCount
      nodes {
        blobPath
        dependencies(first: $maxDeps) {
          totalCount
          nodes {
            packageManager
            packageName
            requirements
          }
        }
        dependenciesCount
        exceedsMaxSize
        filename
        parseable
      }
    }
  }
}`
