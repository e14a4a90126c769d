package publishers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

// Entries append to one file per day, so repeated runs extend the same
// digest.
const markdownEntryTemplate = `
## [{{.Title}}]({{.URL}})

{{if .Meta}}*{{.Meta}}*

{{end}}{{.Synopsis}}
{{range .KeyPoints}}
- {{.}}{{end}}
`

type markdownEntry struct {
	Title     string
	URL       string
	Meta      string
	Synopsis  string
	KeyPoints []string
}

// markdownPublisher appends each processed document to a dated digest
// file under the configured directory.
type markdownPublisher struct {
	id   string
	typ  string
	dir  string
	tmpl *template.Template
	now  func() time.Time
	log  Logger
}

func newMarkdownPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.Markdown == nil {
		return nil, fmt.Errorf("publisher %q missing markdown configuration", cfg.ID)
	}

	tmpl, err := template.New("entry").Parse(markdownEntryTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse digest template: %w", err)
	}

	return &markdownPublisher{
		id:   cfg.ID,
		typ:  TypeMarkdown,
		dir:  cfg.Markdown.Dir,
		tmpl: tmpl,
		now:  time.Now,
		log:  ensureLogger(log),
	}, nil
}

func (m *markdownPublisher) ID() string   { return m.id }
func (m *markdownPublisher) Type() string { return m.typ }

// Publish appends the entry and returns the digest file path as the
// receipt.
func (m *markdownPublisher) Publish(_ context.Context, evt Event) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("create digest directory: %w", err)
	}

	day := m.now().UTC()
	path := filepath.Join(m.dir, fmt.Sprintf("digest_%s.md", day.Format("20060102")))

	fresh := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fresh = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open digest file: %w", err)
	}
	defer f.Close()

	if fresh {
		header := fmt.Sprintf("# Digest %s\n", day.Format("2006-01-02"))
		if _, err := f.WriteString(header); err != nil {
			return "", fmt.Errorf("write digest header: %w", err)
		}
	}

	entry := markdownEntry{
		Title:     evt.Document.Title,
		URL:       evt.Document.URL,
		Meta:      entryMeta(evt),
		Synopsis:  evt.Summary.Synopsis,
		KeyPoints: evt.Summary.KeyPoints,
	}
	if err := m.tmpl.Execute(f, entry); err != nil {
		return "", fmt.Errorf("render digest entry: %w", err)
	}

	return path, nil
}

func entryMeta(evt Event) string {
	parts := make([]string, 0, 2)
	if evt.SourceName != "" {
		parts = append(parts, evt.SourceName)
	}
	if len(evt.Document.Authors) > 0 {
		parts = append(parts, strings.Join(evt.Document.Authors, ", "))
	}
	return strings.Join(parts, " | ")
}
