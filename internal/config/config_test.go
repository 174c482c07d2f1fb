package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
db:
  user: securex
  name: securex
sources:
  - type: gdelt_doc
    doc_feed:
      query: "(protest OR violence)"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Interval != time.Hour {
		t.Errorf("Interval = %s, want 1h default", c.Interval)
	}
	if c.DB.Host != "localhost" || c.DB.Port != "5432" || c.DB.SSLMode != "disable" {
		t.Errorf("unexpected DB defaults: %+v", c.DB)
	}
	if c.Web.Addr != ":8080" {
		t.Errorf("Web.Addr = %q, want :8080", c.Web.Addr)
	}
}

func TestLoadNoSources(t *testing.T) {
	path := writeConfig(t, `
db:
  name: securex
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty sources")
	}
}

func TestLoadUnknownSourceType(t *testing.T) {
	path := writeConfig(t, `
sources:
  - type: acled
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown source type")
	}
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, `
db:
  host: db.internal
  name: securex
sources:
  - type: gdelt_event
`)
	t.Setenv("DB_HOST", "override.example")
	t.Setenv("DB_PASSWORD", "s3cret")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DB.Host != "override.example" {
		t.Errorf("DB.Host = %q, want env override", c.DB.Host)
	}
	if c.DB.Password != "s3cret" {
		t.Errorf("DB.Password = %q, want env override", c.DB.Password)
	}
}
