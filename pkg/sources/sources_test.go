package sources

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRegistryFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write registry file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeRegistryFile(t, "sources.yaml", `
interests:
  - " Retrieval "
  - agents
sources:
  - id: arxiv-cl
    name: arXiv cs.CL
    type: arxiv
    query: cat:cs.CL
  - id: blog
    name: Some Blog
    type: rss
    url: https://example.com/feed.xml
    max_results: 5
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}

	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(all))
	}
	if all[0].MaxResults != defaultMaxResults {
		t.Fatalf("expected default max_results, got %d", all[0].MaxResults)
	}
	if all[1].MaxResults != 5 {
		t.Fatalf("expected configured max_results, got %d", all[1].MaxResults)
	}

	interests := reg.Interests()
	if len(interests) != 2 || interests[0] != "retrieval" || interests[1] != "agents" {
		t.Fatalf("interests not normalized: %v", interests)
	}

	if src, ok := reg.ByID("blog"); !ok || src.Name != "Some Blog" {
		t.Fatalf("ByID lookup failed: %v %v", src, ok)
	}
	if _, ok := reg.ByID("missing"); ok {
		t.Fatal("ByID must miss for unknown ids")
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeRegistryFile(t, "sources.json", `{
  "sources": [
    {"id": "blog", "name": "Blog", "type": "rss", "url": "https://example.com/feed"}
  ]
}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	if len(reg.All()) != 1 {
		t.Fatalf("expected 1 source, got %d", len(reg.All()))
	}
}

func TestLoadRegistryRejectsDuplicateIDs(t *testing.T) {
	path := writeRegistryFile(t, "sources.yaml", `
sources:
  - id: dupe
    name: One
    type: rss
    url: https://one.example.com
  - id: dupe
    name: Two
    type: rss
    url: https://two.example.com
`)

	if _, err := LoadRegistry(path); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestLoadRegistryValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing id", "sources:\n  - name: X\n    type: rss\n    url: https://x.example.com\n"},
		{"missing name", "sources:\n  - id: x\n    type: rss\n    url: https://x.example.com\n"},
		{"rss without url", "sources:\n  - id: x\n    name: X\n    type: rss\n"},
		{"arxiv without query", "sources:\n  - id: x\n    name: X\n    type: arxiv\n"},
		{"unknown type", "sources:\n  - id: x\n    name: X\n    type: gopher\n    url: g://x\n"},
		{"empty file", "sources: []\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeRegistryFile(t, "sources.yaml", tc.body)
			if _, err := LoadRegistry(path); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
