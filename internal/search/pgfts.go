package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across posts and changelog_entries
// using plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultPost {
		postWhere := "p.fts @@ " + tsQuery
		if q.WorkspaceID != "" {
			postWhere += fmt.Sprintf(" AND p.workspace_id = $%d", argN)
			args = append(args, q.WorkspaceID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'post'::text AS type, p.id, p.slug, p.title,
				ts_headline('english', coalesce(p.content, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				p.workspace_id, b.slug AS board_slug, p.status,
				ts_rank(p.fts, %s) AS rank
			FROM posts p
			JOIN boards b ON b.id = p.board_id
			WHERE %s`, tsQuery, tsQuery, postWhere))
	}

	if q.FilterType == "" || q.FilterType == ResultChangelog {
		clWhere := "ce.fts @@ " + tsQuery
		if q.WorkspaceID != "" {
			clWhere += fmt.Sprintf(" AND ce.workspace_id = $%d", argN)
			args = append(args, q.WorkspaceID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'changelog'::text AS type, ce.id, ''::text AS slug, ce.title,
				ts_headline('english', coalesce(ce.content, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				ce.workspace_id, ''::text AS board_slug, ''::text AS status,
				ts_rank(ce.fts, %s) AS rank
			FROM changelog_entries ce
			WHERE %s`, tsQuery, tsQuery, clWhere))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, slug, title, snippet, workspace_id, board_slug, status
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Slug, &r.Title, &r.Snippet, &r.WorkspaceID, &r.BoardSlug, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]PostRecord, []ChangelogRecord, error) {
	postRows, err := p.db.QueryContext(ctx, `
		SELECT p.id, p.slug, p.title, p.content, p.status, b.slug, p.workspace_id
		FROM posts p
		JOIN boards b ON b.id = p.board_id
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load posts: %w", err)
	}
	defer postRows.Close()

	posts := make([]PostRecord, 0)
	for postRows.Next() {
		var p PostRecord
		if err := postRows.Scan(&p.ID, &p.Slug, &p.Title, &p.Content, &p.Status, &p.BoardSlug, &p.WorkspaceID); err != nil {
			return nil, nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := postRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate posts: %w", err)
	}

	clRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, content, workspace_id
		FROM changelog_entries
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load changelog entries: %w", err)
	}
	defer clRows.Close()

	entries := make([]ChangelogRecord, 0)
	for clRows.Next() {
		var c ChangelogRecord
		if err := clRows.Scan(&c.ID, &c.Title, &c.Content, &c.WorkspaceID); err != nil {
			return nil, nil, fmt.Errorf("scan changelog entry: %w", err)
		}
		entries = append(entries, c)
	}
	if err := clRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate changelog entries: %w", err)
	}

	return posts, entries, nil
}
