// Package search provides full-text search over posts and changelog
// entries, backed by Meilisearch with a PostgreSQL fallback.
package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultPost      ResultType = "post"
	ResultChangelog ResultType = "changelog"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type        ResultType `json:"type"`
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Snippet     string     `json:"snippet"`
	WorkspaceID string     `json:"workspaceId"`
	BoardSlug   string     `json:"boardSlug,omitempty"`
	Status      string     `json:"status,omitempty"`
}

// Query describes a search request. WorkspaceID scopes every search,
// results never cross workspaces.
type Query struct {
	Text        string
	WorkspaceID string
	FilterType  ResultType // empty = all types
	Limit       int
	Offset      int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexPost(p PostRecord) error
	IndexChangelog(c ChangelogRecord) error
	DeletePost(id string) error
	DeletePosts(ids []string) error
	DeleteChangelog(id string) error
}

// PostRecord is the data we index for a feedback post.
type PostRecord struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Status      string `json:"status"`
	BoardSlug   string `json:"boardSlug"`
	WorkspaceID string `json:"workspaceId"`
}

// ChangelogRecord is the data we index for a changelog entry.
type ChangelogRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	WorkspaceID string `json:"workspaceId"`
}
