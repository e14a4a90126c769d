package sources

import (
	"context"
	"strings"
	"testing"
	"time"
)

const arxivFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2506.01234v1</id>
    <title>Sparse  Retrieval
      at Scale</title>
    <summary>We study sparse retrieval
      across large corpora.</summary>
    <published>2025-06-02T08:30:00Z</published>
    <author><name>Alice Example</name></author>
    <author><name>Bob Example</name></author>
    <link href="http://arxiv.org/abs/2506.01234v1" rel="alternate" type="text/html"/>
    <link href="http://arxiv.org/pdf/2506.01234v1" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00001v2</id>
    <title>An Older Paper</title>
    <summary>Historical work.</summary>
    <published>2024-01-05T00:00:00Z</published>
  </entry>
</feed>`

// arxivStub records query URLs and always serves the fixture.
func arxivStub(t *testing.T) (*ArxivFetcher, *stubClient) {
	t.Helper()
	client := &stubClient{responses: map[string]stubResponse{}}
	fetcher := NewArxivFetcher(client)
	return fetcher, client
}

func TestArxivFetcherMapsEntries(t *testing.T) {
	fetcher, client := arxivStub(t)
	fetcher.endpoint = "https://stub.test/query"
	client.responses["https://stub.test/query?max_results=50&search_query=cat%3Acs.CL&sortBy=submittedDate&sortOrder=descending&start=0"] = stubResponse{body: []byte(arxivFixture), status: 200}

	src := Source{ID: "papers", Name: "Papers", Type: TypeArxiv, Query: "cat:cs.CL", MaxResults: 50}
	docs, err := fetcher.Fetch(context.Background(), src, time.Time{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	first := docs[0]
	if first.ID != "http://arxiv.org/abs/2506.01234v1" {
		t.Fatalf("unexpected id: %q", first.ID)
	}
	if first.Title != "Sparse Retrieval at Scale" {
		t.Fatalf("title whitespace not collapsed: %q", first.Title)
	}
	if !strings.Contains(first.Content, "sparse retrieval across large corpora") {
		t.Fatalf("summary whitespace not collapsed: %q", first.Content)
	}
	if len(first.Authors) != 2 || first.Authors[0] != "Alice Example" {
		t.Fatalf("authors not mapped: %v", first.Authors)
	}
	if first.PublishedAt.IsZero() {
		t.Fatal("published date not parsed")
	}
	if first.SourceID != "papers" {
		t.Fatalf("source metadata not set: %+v", first)
	}
}

func TestArxivFetcherAppliesCutoff(t *testing.T) {
	fetcher, client := arxivStub(t)
	fetcher.endpoint = "https://stub.test/query"
	client.responses["https://stub.test/query?max_results=10&search_query=cat%3Acs.CL&sortBy=submittedDate&sortOrder=descending&start=0"] = stubResponse{body: []byte(arxivFixture), status: 200}

	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	src := Source{ID: "papers", Name: "Papers", Type: TypeArxiv, Query: "cat:cs.CL", MaxResults: 10}
	docs, err := fetcher.Fetch(context.Background(), src, cutoff)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(docs) != 1 || !strings.Contains(docs[0].ID, "2506.01234") {
		t.Fatalf("cutoff not applied: %v", docs)
	}
}

func TestArxivFetchOne(t *testing.T) {
	fetcher, client := arxivStub(t)
	fetcher.endpoint = "https://stub.test/query"
	client.responses["https://stub.test/query?id_list=2506.01234v1&max_results=1"] = stubResponse{body: []byte(arxivFixture), status: 200}

	doc, err := fetcher.FetchOne(context.Background(), "https://arxiv.org/abs/2506.01234v1")
	if err != nil {
		t.Fatalf("fetch one: %v", err)
	}
	if doc.ID != "http://arxiv.org/abs/2506.01234v1" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestArxivFetchOneNoResult(t *testing.T) {
	fetcher, client := arxivStub(t)
	fetcher.endpoint = "https://stub.test/query"
	client.responses["https://stub.test/query?id_list=9999.99999&max_results=1"] = stubResponse{
		body:   []byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`),
		status: 200,
	}

	if _, err := fetcher.FetchOne(context.Background(), "9999.99999"); err == nil {
		t.Fatal("expected error for an empty result")
	}
}

func TestArxivFetcherNonOKStatus(t *testing.T) {
	fetcher, _ := arxivStub(t)
	fetcher.endpoint = "https://stub.test/query"

	src := Source{ID: "papers", Name: "Papers", Type: TypeArxiv, Query: "cat:cs.CL", MaxResults: 10}
	if _, err := fetcher.Fetch(context.Background(), src, time.Time{}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestBareArxivID(t *testing.T) {
	cases := map[string]string{
		"2506.01234v1":                        "2506.01234v1",
		"https://arxiv.org/abs/2506.01234v1":  "2506.01234v1",
		"http://arxiv.org/abs/2506.01234v1":   "2506.01234v1",
		"  https://arxiv.org/abs/2506.01234 ": "2506.01234",
	}
	for in, want := range cases {
		if got := bareArxivID(in); got != want {
			t.Fatalf("bareArxivID(%q) = %q, want %q", in, got, want)
		}
	}
}
