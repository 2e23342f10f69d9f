package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Episodes.GapDays != 28 {
		t.Errorf("expected gap_days 28, got %d", cfg.Episodes.GapDays)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected level INFO, got %q", cfg.Logging.Level)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
server:
  port: 9000
lexicon:
  path: /etc/chartline/lexicon.yaml
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Lexicon.Path != "/etc/chartline/lexicon.yaml" {
		t.Errorf("expected lexicon path, got %q", cfg.Lexicon.Path)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Episodes.GapDays != 28 {
		t.Errorf("expected default gap_days 28, got %d", cfg.Episodes.GapDays)
	}
}

func TestParseRejectsBadGap(t *testing.T) {
	if _, err := parse([]byte("episodes:\n  gap_days: -3\n")); err == nil {
		t.Error("expected error for negative gap_days")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000 from file, got %d", cfg.Server.Port)
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}
