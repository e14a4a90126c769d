package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/paperboy-hq/paperboy/internal/domain"
	"github.com/paperboy-hq/paperboy/pkg/httpclient"
)

// RSSFetcher reads RSS/Atom feeds over HTTP and maps entries to documents.
type RSSFetcher struct {
	client httpclient.Client
	parser *gofeed.Parser
}

func NewRSSFetcher(client httpclient.Client) *RSSFetcher {
	return &RSSFetcher{
		client: client,
		parser: gofeed.NewParser(),
	}
}

func (f *RSSFetcher) Type() string { return TypeRSS }

func (f *RSSFetcher) Fetch(ctx context.Context, src Source, cutoff time.Time) ([]domain.Document, error) {
	resp, err := f.client.Get(ctx, src.URL, map[string]string{"Accept": "application/rss+xml, application/atom+xml, application/xml"})
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d: %s", resp.StatusCode(), responseSnippet(resp.Body()))
	}

	feed, err := f.parser.Parse(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	docs := make([]domain.Document, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		id := strings.TrimSpace(item.Link)
		if id == "" {
			id = strings.TrimSpace(item.GUID)
		}
		if id == "" {
			continue
		}

		published := time.Time{}
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}
		if !cutoff.IsZero() && !published.IsZero() && published.Before(cutoff) {
			continue
		}

		content := strings.TrimSpace(item.Description)
		if content == "" {
			content = strings.TrimSpace(item.Content)
		}

		var authors []string
		for _, a := range item.Authors {
			if a != nil && strings.TrimSpace(a.Name) != "" {
				authors = append(authors, strings.TrimSpace(a.Name))
			}
		}

		docs = append(docs, domain.Document{
			ID:          id,
			Title:       strings.TrimSpace(item.Title),
			URL:         strings.TrimSpace(item.Link),
			Authors:     authors,
			Content:     content,
			SourceID:    src.ID,
			SourceName:  src.Name,
			PublishedAt: published,
		})

		if src.MaxResults > 0 && len(docs) >= src.MaxResults {
			break
		}
	}

	return docs, nil
}
