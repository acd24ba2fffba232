package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// listingPredicate is the single WHERE clause both full listings and the
// navigation resolver apply. The two must stay bit-identical: prev/next on
// a detail page is only correct if the resolver sees exactly the list the
// user came from. Array params arrive as NULL when the dimension is off.
const listingPredicate = `
	p.workspace_id = $1
	AND b.slug NOT IN ('roadmap', 'changelog')
	AND ($2::text[] IS NULL OR p.status = ANY($2))
	AND ($3::text[] IS NULL OR b.slug = ANY($3))
	AND ($4::text[] IS NULL OR EXISTS (
		SELECT 1 FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = p.id AND t.slug = ANY($4)
	))
	AND ($5 = '' OR p.title ILIKE '%' || $5 || '%' OR p.content ILIKE '%' || $5 || '%')
`

// orderClause maps a validated order token onto a deterministic ORDER BY.
// Ties always break on id so pagination and prev/next stay stable.
func orderClause(order string) string {
	switch order {
	case "oldest":
		return "p.created_at ASC, p.id ASC"
	case "likes":
		return "p.upvotes DESC, p.created_at DESC, p.id DESC"
	default:
		return "p.created_at DESC, p.id DESC"
	}
}

func textArray(items []string) any {
	if len(items) == 0 {
		return nil
	}
	return items
}

// ListPosts returns one page of the filtered listing plus the unpaginated
// total.
func (s *PostgresStore) ListPosts(ctx context.Context, workspaceID string, f ListFilter, limit, offset int) ([]Post, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT p.id, p.workspace_id, p.board_id, b.slug, p.slug, p.title, p.content,
			p.status, p.upvotes, p.author_name, COALESCE(p.author_email, ''), COALESCE(p.author_avatar_url, ''),
			(SELECT COALESCE(json_agg(t.slug ORDER BY t.slug), '[]'::json)
				FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
				WHERE pt.post_id = p.id)::text,
			p.created_at, p.updated_at
		FROM posts p
		JOIN boards b ON b.id = p.board_id
		WHERE ` + listingPredicate + `
		ORDER BY ` + orderClause(f.Order) + `
		LIMIT $6 OFFSET $7
	`
	rows, err := s.db.QueryContext(ctx, query,
		workspaceID, textArray(f.Statuses), textArray(f.BoardSlugs), textArray(f.TagSlugs), f.Search,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	items := make([]Post, 0)
	for rows.Next() {
		item, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate posts: %w", err)
	}

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM posts p
		JOIN boards b ON b.id = p.board_id
		WHERE ` + listingPredicate
	err = s.db.QueryRowContext(ctx, countQuery,
		workspaceID, textArray(f.Statuses), textArray(f.BoardSlugs), textArray(f.TagSlugs), f.Search).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	return items, total, nil
}

// ListPostRefs returns the full filtered collection as refs, ordered the
// same way ListPosts orders pages. The navigation resolver walks this to
// find a target's neighbors.
func (s *PostgresStore) ListPostRefs(ctx context.Context, workspaceID string, f ListFilter) ([]PostRef, error) {
	query := `
		SELECT p.id, p.slug, p.title, p.upvotes, p.created_at
		FROM posts p
		JOIN boards b ON b.id = p.board_id
		WHERE ` + listingPredicate + `
		ORDER BY ` + orderClause(f.Order)
	rows, err := s.db.QueryContext(ctx, query,
		workspaceID, textArray(f.Statuses), textArray(f.BoardSlugs), textArray(f.TagSlugs), f.Search)
	if err != nil {
		return nil, fmt.Errorf("list post refs: %w", err)
	}
	defer rows.Close()

	items := make([]PostRef, 0)
	for rows.Next() {
		var item PostRef
		if err := rows.Scan(&item.ID, &item.Slug, &item.Title, &item.Upvotes, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post ref: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post refs: %w", err)
	}
	return items, nil
}

type postScanner interface {
	Scan(dest ...any) error
}

func scanPost(row postScanner) (Post, error) {
	var item Post
	var tagsRaw string
	if err := row.Scan(
		&item.ID,
		&item.WorkspaceID,
		&item.BoardID,
		&item.BoardSlug,
		&item.Slug,
		&item.Title,
		&item.Content,
		&item.Status,
		&item.Upvotes,
		&item.AuthorName,
		&item.AuthorEmail,
		&item.AuthorAvatarURL,
		&tagsRaw,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return Post{}, fmt.Errorf("scan post: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsRaw), &item.TagSlugs); err != nil {
		item.TagSlugs = []string{}
	}
	return item, nil
}

const postColumns = `
	SELECT p.id, p.workspace_id, p.board_id, b.slug, p.slug, p.title, p.content,
		p.status, p.upvotes, p.author_name, COALESCE(p.author_email, ''), COALESCE(p.author_avatar_url, ''),
		(SELECT COALESCE(json_agg(t.slug ORDER BY t.slug), '[]'::json)
			FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.post_id = p.id)::text,
		p.created_at, p.updated_at
	FROM posts p
	JOIN boards b ON b.id = p.board_id
`

// GetPost looks a post up by id or slug, scoped to the workspace. A post
// in another workspace is indistinguishable from a missing one.
func (s *PostgresStore) GetPost(ctx context.Context, workspaceID, idOrSlug string) (Post, error) {
	row := s.db.QueryRowContext(ctx, postColumns+`
		WHERE p.workspace_id=$1 AND (p.id=$2 OR p.slug=$2)
	`, workspaceID, idOrSlug)
	return scanPost(row)
}

func (s *PostgresStore) InsertPost(ctx context.Context, post Post) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, workspace_id, board_id, slug, title, content, status, author_name, author_email, author_avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''))
	`, post.ID, post.WorkspaceID, post.BoardID, post.Slug, post.Title, post.Content, post.Status, post.AuthorName, post.AuthorEmail, post.AuthorAvatarURL)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdatePostStatus(ctx context.Context, workspaceID, postID, status string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE posts SET status=$3, updated_at=NOW()
		WHERE workspace_id=$1 AND id=$2
	`, workspaceID, postID, status)
	if err != nil {
		return false, fmt.Errorf("update post status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update post status rows: %w", err)
	}
	return affected > 0, nil
}

// ReplacePostTags swaps the post's tag set for the given slugs. Slugs
// that do not resolve to a tag in the workspace are ignored.
func (s *PostgresStore) ReplacePostTags(ctx context.Context, workspaceID, postID string, tagSlugs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id=$1`, postID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear post tags: %w", err)
	}
	if len(tagSlugs) > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO post_tags (post_id, tag_id)
			SELECT $1, t.id FROM tags t
			WHERE t.workspace_id=$2 AND t.slug = ANY($3)
			ON CONFLICT DO NOTHING
		`, postID, workspaceID, tagSlugs); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert post tags: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tags: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeletePost(ctx context.Context, workspaceID, postID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM posts WHERE workspace_id=$1 AND id=$2
	`, workspaceID, postID)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete post rows: %w", err)
	}
	return affected > 0, nil
}

// DeletePosts removes the given posts and returns the ids that actually
// existed in the workspace.
func (s *PostgresStore) DeletePosts(ctx context.Context, workspaceID string, postIDs []string) ([]string, error) {
	if len(postIDs) == 0 {
		return []string{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		DELETE FROM posts
		WHERE workspace_id=$1 AND id = ANY($2)
		RETURNING id
	`, workspaceID, postIDs)
	if err != nil {
		return nil, fmt.Errorf("delete posts: %w", err)
	}
	defer rows.Close()

	deleted := make([]string, 0, len(postIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deleted post id: %w", err)
		}
		deleted = append(deleted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted posts: %w", err)
	}
	return deleted, nil
}

// TogglePostVote records or removes a vote for voterKey and keeps the
// denormalized upvote counter in step. Returns whether the vote now
// exists and the new total.
func (s *PostgresStore) TogglePostVote(ctx context.Context, postID, voterKey string) (bool, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin vote: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		DELETE FROM post_votes WHERE post_id=$1 AND voter_key=$2
	`, postID, voterKey)
	if err != nil {
		_ = tx.Rollback()
		return false, 0, fmt.Errorf("delete vote: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return false, 0, fmt.Errorf("delete vote rows: %w", err)
	}

	var voted bool
	var upvotes int
	if removed > 0 {
		err = tx.QueryRowContext(ctx, `
			UPDATE posts SET upvotes=GREATEST(upvotes-1, 0) WHERE id=$1 RETURNING upvotes
		`, postID).Scan(&upvotes)
	} else {
		if _, insErr := tx.ExecContext(ctx, `
			INSERT INTO post_votes (post_id, voter_key) VALUES ($1, $2)
		`, postID, voterKey); insErr != nil {
			_ = tx.Rollback()
			return false, 0, fmt.Errorf("insert vote: %w", insErr)
		}
		voted = true
		err = tx.QueryRowContext(ctx, `
			UPDATE posts SET upvotes=upvotes+1 WHERE id=$1 RETURNING upvotes
		`, postID).Scan(&upvotes)
	}
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return false, 0, sql.ErrNoRows
		}
		return false, 0, fmt.Errorf("update upvotes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit vote: %w", err)
	}
	return voted, upvotes, nil
}

func (s *PostgresStore) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, post_id, author_name, body, created_at
		FROM comments
		WHERE post_id=$1
		ORDER BY created_at ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	items := make([]Comment, 0)
	for rows.Next() {
		var item Comment
		if err := rows.Scan(&item.ID, &item.PostID, &item.AuthorName, &item.Body, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertComment(ctx context.Context, comment Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, author_name, body)
		VALUES ($1, $2, $3, $4)
	`, comment.ID, comment.PostID, comment.AuthorName, comment.Body)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListChangelogEntries(ctx context.Context, workspaceID string) ([]ChangelogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, title, content, published_at
		FROM changelog_entries
		WHERE workspace_id=$1
		ORDER BY published_at DESC, id DESC
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list changelog entries: %w", err)
	}
	defer rows.Close()

	items := make([]ChangelogEntry, 0)
	for rows.Next() {
		var item ChangelogEntry
		if err := rows.Scan(&item.ID, &item.WorkspaceID, &item.Title, &item.Content, &item.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan changelog entry: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changelog entries: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertChangelogEntry(ctx context.Context, entry ChangelogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO changelog_entries (id, workspace_id, title, content)
		VALUES ($1, $2, $3, $4)
	`, entry.ID, entry.WorkspaceID, entry.Title, entry.Content)
	if err != nil {
		return fmt.Errorf("insert changelog entry: %w", err)
	}
	return nil
}
