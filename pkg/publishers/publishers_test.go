package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func writePublishersFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write publishers file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	t.Setenv(notionTokenEnv, "")
	path := writePublishersFile(t, "publishers.yaml", `
publishers:
  - id: pages
    type: notion
    notion:
      token: secret
      database_id: db-1
  - id: digest
    type: markdown
    enabled: false
    markdown:
      dir: ""
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}

	if len(reg.All()) != 2 {
		t.Fatalf("expected 2 publishers, got %d", len(reg.All()))
	}

	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "pages" {
		t.Fatalf("enabled filter wrong: %v", enabled)
	}

	digest, ok := reg.ByID("digest")
	if !ok {
		t.Fatal("ByID lookup failed")
	}
	if digest.Markdown.Dir != markdownDefaultDir {
		t.Fatalf("markdown dir default not applied: %q", digest.Markdown.Dir)
	}
}

func TestLoadRegistryNotionTokenFromEnv(t *testing.T) {
	t.Setenv(notionTokenEnv, "env-token")
	path := writePublishersFile(t, "publishers.yaml", `
publishers:
  - id: pages
    type: notion
    notion:
      database_id: db-1
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	cfg, _ := reg.ByID("pages")
	if cfg.Notion.Token != "env-token" {
		t.Fatalf("token env fallback not applied: %q", cfg.Notion.Token)
	}
}

func TestLoadRegistryEmailDefaults(t *testing.T) {
	t.Setenv(emailPasswordEnv, "env-pass")
	path := writePublishersFile(t, "publishers.yaml", `
publishers:
  - id: mail
    type: email
    email:
      host: smtp.example.com
      from: a@example.com
      to:
        - " b@example.com "
        - ""
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	cfg, _ := reg.ByID("mail")
	if cfg.Email.Port != emailDefaultPort {
		t.Fatalf("port default not applied: %d", cfg.Email.Port)
	}
	if cfg.Email.Password != "env-pass" {
		t.Fatalf("password env fallback not applied")
	}
	if len(cfg.Email.To) != 1 || cfg.Email.To[0] != "b@example.com" {
		t.Fatalf("recipients not sanitized: %v", cfg.Email.To)
	}
}

func TestLoadRegistryValidation(t *testing.T) {
	t.Setenv(notionTokenEnv, "")
	cases := []struct {
		name string
		body string
	}{
		{"missing id", "publishers:\n  - type: markdown\n    markdown:\n      dir: ./d\n"},
		{"missing type", "publishers:\n  - id: x\n"},
		{"notion without database", "publishers:\n  - id: x\n    type: notion\n    notion:\n      token: t\n"},
		{"notion without token", "publishers:\n  - id: x\n    type: notion\n    notion:\n      database_id: db\n"},
		{"email without host", "publishers:\n  - id: x\n    type: email\n    email:\n      from: a@b.c\n      to: [d@e.f]\n"},
		{"http without url", "publishers:\n  - id: x\n    type: http\n    http:\n      method: POST\n"},
		{"sqs without region", "publishers:\n  - id: x\n    type: sqs\n    sqs:\n      uri: https://sqs.example.com/q\n"},
		{"sns without topic", "publishers:\n  - id: x\n    type: sns\n    sns:\n      region: eu-central-1\n"},
		{"pubsub without project", "publishers:\n  - id: x\n    type: pubsub\n    pubsub:\n      topic: t\n"},
		{"empty file", "publishers: []\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writePublishersFile(t, "publishers.yaml", tc.body)
			if _, err := LoadRegistry(path); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestLoadRegistryRejectsDuplicateIDs(t *testing.T) {
	path := writePublishersFile(t, "publishers.yaml", `
publishers:
  - id: dupe
    type: markdown
    markdown:
      dir: ./a
  - id: dupe
    type: markdown
    markdown:
      dir: ./b
`)

	if _, err := LoadRegistry(path); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writePublishersFile(t, "publishers.json", `{
  "publishers": [
    {"id": "digest", "type": "markdown", "markdown": {"dir": "./d"}}
  ]
}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	if len(reg.All()) != 1 {
		t.Fatalf("expected 1 publisher, got %d", len(reg.All()))
	}
}

func TestHTTPConfigDefaults(t *testing.T) {
	path := writePublishersFile(t, "publishers.yaml", `
publishers:
  - id: hook
    type: http
    http:
      url: https://hooks.example.com/x
      headers:
        " X-Key ": " v "
        empty: ""
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	cfg, _ := reg.ByID("hook")
	if cfg.HTTP.Method != httpDefaultMethod || cfg.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http defaults not applied: %+v", cfg.HTTP)
	}
	if len(cfg.HTTP.Headers) != 1 || cfg.HTTP.Headers["X-Key"] != "v" {
		t.Fatalf("headers not sanitized: %v", cfg.HTTP.Headers)
	}
}
