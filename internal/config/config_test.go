package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("importer")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppName != "paperboy-importer" {
		t.Fatalf("unexpected app name: %q", cfg.AppName)
	}
	if cfg.SourcesFile != "./configs/importer/sources.yaml" {
		t.Fatalf("unexpected sources file: %q", cfg.SourcesFile)
	}
	if cfg.PublishersFile != "./configs/importer/publishers.yaml" {
		t.Fatalf("unexpected publishers file: %q", cfg.PublishersFile)
	}
	if cfg.StateType != "file" || cfg.StatePath != "./data/importer-state.json" {
		t.Fatalf("unexpected state defaults: %q %q", cfg.StateType, cfg.StatePath)
	}
	if cfg.StateFlush != FlushPerItem {
		t.Fatalf("unexpected flush default: %q", cfg.StateFlush)
	}
	if cfg.GeminiModel != defaultGeminiModel || cfg.GeminiEndpoint != defaultGeminiEndpoint {
		t.Fatalf("unexpected gemini defaults: %q %q", cfg.GeminiModel, cfg.GeminiEndpoint)
	}
	if cfg.Lookback != 24*time.Hour {
		t.Fatalf("unexpected lookback: %v", cfg.Lookback)
	}
	if cfg.DryRun || cfg.ItemID != "" || cfg.Schedule != "" {
		t.Fatalf("unexpected run mode defaults: %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STATE_TYPE", "bbolt")
	t.Setenv("STATE_PATH", "/tmp/s.db")
	t.Setenv("STATE_FLUSH", FlushEndOfRun)
	t.Setenv("LOOKBACK_DAYS", "3")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("ITEM_ID", "arxiv:1234")

	cfg, err := Load("digest")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.StateType != "bbolt" || cfg.StatePath != "/tmp/s.db" {
		t.Fatalf("state overrides not applied: %q %q", cfg.StateType, cfg.StatePath)
	}
	if cfg.StateFlush != FlushEndOfRun {
		t.Fatalf("flush override not applied: %q", cfg.StateFlush)
	}
	if cfg.Lookback != 72*time.Hour {
		t.Fatalf("lookback override not applied: %v", cfg.Lookback)
	}
	if !cfg.DryRun || cfg.ItemID != "arxiv:1234" {
		t.Fatalf("run mode overrides not applied: %+v", cfg)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := Load("importer"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestLoadRejectsInvalidFlushMode(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STATE_FLUSH", "sometimes")

	if _, err := Load("importer"); err == nil {
		t.Fatal("expected error for invalid flush mode")
	}
}

func TestLoadRejectsInvalidLookback(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOOKBACK_DAYS", "0")

	if _, err := Load("importer"); err == nil {
		t.Fatal("expected error for non-positive lookback")
	}
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STATE_TYPE", "postgres")

	if _, err := Load("importer"); err == nil {
		t.Fatal("expected error for postgres state without dsn")
	}

	t.Setenv("STATE_DSN", "postgres://localhost/paperboy")
	if _, err := Load("importer"); err != nil {
		t.Fatalf("load with dsn: %v", err)
	}
}

func TestLoadRejectsUnsupportedStateType(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STATE_TYPE", "redis")

	if _, err := Load("importer"); err == nil {
		t.Fatal("expected error for unsupported state type")
	}
}
