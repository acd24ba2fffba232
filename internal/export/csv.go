package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"feedbase/api/internal/store"
)

// PostsCSV renders a list of posts as a CSV file. Column order is stable
// so exports can be diffed across runs.
func PostsCSV(workspaceSlug string, posts []store.Post) (*Result, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "slug", "title", "board", "status", "upvotes", "tags", "author", "created_at"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range posts {
		record := []string{
			p.ID,
			p.Slug,
			p.Title,
			p.BoardSlug,
			p.Status,
			strconv.Itoa(p.Upvotes),
			strings.Join(p.TagSlugs, ","),
			p.AuthorName,
			p.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return &Result{
		Data:     buf.Bytes(),
		Filename: sanitizeFilename(workspaceSlug+"-posts") + ".csv",
		MimeType: "text/csv",
	}, nil
}
