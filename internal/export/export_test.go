package export

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"feedbase/api/internal/store"
)

func TestPostsCSV(t *testing.T) {
	created := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	posts := []store.Post{
		{
			ID:         "post_1",
			Slug:       "dark-mode",
			Title:      "Dark mode",
			BoardSlug:  "feature-requests",
			Status:     "planned",
			Upvotes:    42,
			TagSlugs:   []string{"ui", "accessibility"},
			AuthorName: "Maya",
			CreatedAt:  created,
		},
		{
			ID:         "post_2",
			Slug:       "csv-import",
			Title:      "CSV import, with \"quotes\"",
			BoardSlug:  "feature-requests",
			Status:     "pending",
			AuthorName: "Anonymous",
			CreatedAt:  created,
		},
	}

	result, err := PostsCSV("acme", posts)
	if err != nil {
		t.Fatalf("PostsCSV failed: %v", err)
	}

	if result.MimeType != "text/csv" {
		t.Errorf("expected text/csv mime type, got %s", result.MimeType)
	}
	if result.Filename != "acme-posts.csv" {
		t.Errorf("unexpected filename %s", result.Filename)
	}

	records, err := csv.NewReader(strings.NewReader(string(result.Data))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header + 2 records, got %d rows", len(records))
	}
	if records[0][0] != "id" || records[0][4] != "status" {
		t.Errorf("unexpected header row: %v", records[0])
	}
	if records[1][2] != "Dark mode" {
		t.Errorf("expected title in third column, got %v", records[1])
	}
	if records[1][6] != "ui,accessibility" {
		t.Errorf("expected joined tags, got %q", records[1][6])
	}
	if records[1][8] != "2026-03-14T10:30:00Z" {
		t.Errorf("expected RFC3339 timestamp, got %q", records[1][8])
	}
	if records[2][2] != `CSV import, with "quotes"` {
		t.Errorf("quoted title mangled: %q", records[2][2])
	}
}

func TestPostsCSVEmpty(t *testing.T) {
	result, err := PostsCSV("acme", nil)
	if err != nil {
		t.Fatalf("PostsCSV failed: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(string(result.Data))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected header only, got %d rows", len(records))
	}
}

func TestRenderChangelogHTML(t *testing.T) {
	entries := []store.ChangelogEntry{
		{
			ID:          "cl_1",
			Title:       "March release",
			Content:     "We shipped dark mode.",
			PublishedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	html, err := RenderChangelogHTML("Acme", entries)
	if err != nil {
		t.Fatalf("RenderChangelogHTML failed: %v", err)
	}

	if !strings.Contains(html, "Acme Changelog") {
		t.Error("expected workspace name in heading")
	}
	if !strings.Contains(html, "March release") {
		t.Error("expected entry title")
	}
	if !strings.Contains(html, "March 1, 2026") {
		t.Error("expected formatted publish date")
	}
}

func TestRenderChangelogHTMLEmpty(t *testing.T) {
	html, err := RenderChangelogHTML("Acme", nil)
	if err != nil {
		t.Fatalf("RenderChangelogHTML failed: %v", err)
	}
	if !strings.Contains(html, "No changelog entries yet.") {
		t.Error("expected empty state message")
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"hello world", "hello%20world"},
		{"a+b", "a%2Bb"},
		{"<html>", "%3Chtml%3E"},
		{"safe-chars_.~", "safe-chars_.~"},
	}

	for _, tt := range tests {
		if got := percentEncodeForDataURL(tt.input); got != tt.expected {
			t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Acme changelog", "Acme-changelog"},
		{"", "export"},
		{"///", "export"},
		{"with_underscore-and-dash", "with_underscore-and-dash"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.input); got != tt.expected {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
