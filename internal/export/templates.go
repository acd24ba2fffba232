package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"feedbase/api/internal/store"
)

var changelogTemplate = template.Must(template.New("changelog").Funcs(template.FuncMap{
	"formatDate": func(t time.Time) string {
		return t.Format("January 2, 2006")
	},
}).Parse(changelogHTML))

// ChangelogTemplateData holds data for changelog template rendering
type ChangelogTemplateData struct {
	WorkspaceName string
	GeneratedAt   time.Time
	Entries       []store.ChangelogEntry
}

// RenderChangelogHTML renders the printable changelog document.
func RenderChangelogHTML(workspaceName string, entries []store.ChangelogEntry) (string, error) {
	data := ChangelogTemplateData{
		WorkspaceName: workspaceName,
		GeneratedAt:   time.Now(),
		Entries:       entries,
	}

	var buf bytes.Buffer
	if err := changelogTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render changelog template: %w", err)
	}
	return buf.String(), nil
}

const changelogHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.WorkspaceName}} Changelog</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #1f2937; max-width: 700px; margin: 0 auto; padding: 40px 20px; line-height: 1.6; }
        h1 { border-bottom: 2px solid #4f46e5; padding-bottom: 12px; }
        .generated { color: #6b7280; font-size: 13px; margin-bottom: 32px; }
        .entry { page-break-inside: avoid; margin-bottom: 32px; }
        .entry h2 { margin-bottom: 4px; }
        .entry .date { color: #6b7280; font-size: 13px; margin-bottom: 8px; }
        .entry .content { white-space: pre-wrap; }
    </style>
</head>
<body>
    <h1>{{.WorkspaceName}} Changelog</h1>
    <p class="generated">Generated {{formatDate .GeneratedAt}}</p>

    {{range .Entries}}
    <div class="entry">
        <h2>{{.Title}}</h2>
        <p class="date">{{formatDate .PublishedAt}}</p>
        <div class="content">{{.Content}}</div>
    </div>
    {{else}}
    <p>No changelog entries yet.</p>
    {{end}}
</body>
</html>`
