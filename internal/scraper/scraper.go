package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/paperboy-hq/paperboy/pkg/httpclient"
)

const (
	userAgent   = "paperboy/1.0 (+https://github.com/paperboy-hq/paperboy)"
	maxBodySize = 1 << 20
)

// Scraper pulls a short textual excerpt out of a document's web page.
type Scraper struct {
	client httpclient.Client
}

func New(client httpclient.Client) *Scraper {
	return &Scraper{client: client}
}

// Excerpt fetches the page and returns the first description-like text
// found in it.
func (s *Scraper) Excerpt(ctx context.Context, pageURL string) (string, error) {
	resp, err := s.client.Get(ctx, pageURL, map[string]string{"User-Agent": userAgent})
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode())
	}

	body := resp.Body()
	if len(body) > maxBodySize {
		body = body[:maxBodySize]
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	excerpt := firstNonEmpty(doc)
	if excerpt == "" {
		return "", fmt.Errorf("no excerpt found at %s", pageURL)
	}
	return excerpt, nil
}

// firstNonEmpty tries description metadata first and falls back to the
// abstract blockquote used by arXiv pages, then the first paragraph.
func firstNonEmpty(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		if content = strings.TrimSpace(content); content != "" {
			return content
		}
	}
	if content, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		if content = strings.TrimSpace(content); content != "" {
			return content
		}
	}
	if text := strings.TrimSpace(doc.Find("blockquote.abstract").First().Text()); text != "" {
		return strings.TrimSpace(strings.TrimPrefix(text, "Abstract:"))
	}
	return strings.TrimSpace(doc.Find("p").First().Text())
}
