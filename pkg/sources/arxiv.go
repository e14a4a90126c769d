package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paperboy-hq/paperboy/internal/domain"
	"github.com/paperboy-hq/paperboy/pkg/httpclient"
)

const arxivEndpoint = "https://export.arxiv.org/api/query"

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// ArxivFetcher queries the arXiv Atom API.
type ArxivFetcher struct {
	client   httpclient.Client
	endpoint string
}

func NewArxivFetcher(client httpclient.Client) *ArxivFetcher {
	return &ArxivFetcher{client: client, endpoint: arxivEndpoint}
}

func (f *ArxivFetcher) Type() string { return TypeArxiv }

func (f *ArxivFetcher) Fetch(ctx context.Context, src Source, cutoff time.Time) ([]domain.Document, error) {
	params := url.Values{}
	params.Set("search_query", src.Query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(src.MaxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	entries, err := f.query(ctx, params)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(entries))
	for _, entry := range entries {
		doc, ok := entryToDocument(entry, src)
		if !ok {
			continue
		}
		if !cutoff.IsZero() && !doc.PublishedAt.IsZero() && doc.PublishedAt.Before(cutoff) {
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// FetchOne resolves a single paper through the id_list parameter. The id may
// be a bare arXiv identifier or a full abstract URL.
func (f *ArxivFetcher) FetchOne(ctx context.Context, id string) (domain.Document, error) {
	params := url.Values{}
	params.Set("id_list", bareArxivID(id))
	params.Set("max_results", "1")

	entries, err := f.query(ctx, params)
	if err != nil {
		return domain.Document{}, err
	}
	if len(entries) == 0 {
		return domain.Document{}, fmt.Errorf("no entry found for %q", id)
	}

	doc, ok := entryToDocument(entries[0], Source{})
	if !ok {
		return domain.Document{}, fmt.Errorf("entry for %q has no usable id", id)
	}
	return doc, nil
}

func (f *ArxivFetcher) query(ctx context.Context, params url.Values) ([]atomEntry, error) {
	resp, err := f.client.Get(ctx, f.endpoint+"?"+params.Encode(), map[string]string{"Accept": "application/atom+xml"})
	if err != nil {
		return nil, fmt.Errorf("query arxiv: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned status %d: %s", resp.StatusCode(), responseSnippet(resp.Body()))
	}

	var feed atomFeed
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, fmt.Errorf("parse arxiv response: %w", err)
	}
	return feed.Entries, nil
}

func entryToDocument(entry atomEntry, src Source) (domain.Document, bool) {
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		return domain.Document{}, false
	}

	pageURL := id
	for _, link := range entry.Links {
		if link.Rel == "alternate" && strings.TrimSpace(link.Href) != "" {
			pageURL = strings.TrimSpace(link.Href)
			break
		}
	}

	published := time.Time{}
	if ts := strings.TrimSpace(entry.Published); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			published = parsed
		}
	}

	var authors []string
	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	return domain.Document{
		ID:          id,
		Title:       collapseWhitespace(entry.Title),
		URL:         pageURL,
		Authors:     authors,
		Content:     collapseWhitespace(entry.Summary),
		SourceID:    src.ID,
		SourceName:  src.Name,
		PublishedAt: published,
	}, true
}

// bareArxivID strips the abstract URL prefix so both forms work in id_list.
func bareArxivID(id string) string {
	id = strings.TrimSpace(id)
	for _, prefix := range []string{"https://arxiv.org/abs/", "http://arxiv.org/abs/"} {
		if strings.HasPrefix(id, prefix) {
			return strings.TrimPrefix(id, prefix)
		}
	}
	return id
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
