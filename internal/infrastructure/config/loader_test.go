package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadWritesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config written: %v", err)
	}
	if cfg.ConfigFormatVersion != "1" {
		t.Fatalf("unexpected format version %q", cfg.ConfigFormatVersion)
	}
	if cfg.Approval.Mode != "console" {
		t.Fatalf("expected console approval mode, got %q", cfg.Approval.Mode)
	}
}

func TestLoadHydratesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("config_format_version: \"1\"\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.PolicyFile == "" || cfg.Knowledge.Path == "" || cfg.Audit.Dir == "" || cfg.Plans.Dir == "" {
		t.Fatalf("expected hydrated paths, got %+v", cfg)
	}
	if cfg.Execution.TimeoutSeconds != 120 {
		t.Fatalf("expected default timeout 120, got %d", cfg.Execution.TimeoutSeconds)
	}
	if cfg.Execution.MaxOutputBytes != 10<<20 {
		t.Fatalf("expected default output cap, got %d", cfg.Execution.MaxOutputBytes)
	}
}

func TestLoadExpandsTildePaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
policy_file: ~/.aegis/policy.yaml
knowledge:
  path: ~/.aegis/knowledge/knowledge.db
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if strings.HasPrefix(cfg.PolicyFile, "~") {
		t.Fatalf("policy path not expanded: %q", cfg.PolicyFile)
	}
	if strings.HasPrefix(cfg.Knowledge.Path, "~") {
		t.Fatalf("knowledge path not expanded: %q", cfg.Knowledge.Path)
	}
}

func TestLoadHonorsEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("execution:\n  timeout: 5\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("AEGIS_CONFIG", path)

	cfg, err := NewFileLoader("").Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Execution.TimeoutSeconds != 5 {
		t.Fatalf("expected env-selected config, got timeout %d", cfg.Execution.TimeoutSeconds)
	}
}
