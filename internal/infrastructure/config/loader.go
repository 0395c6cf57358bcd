// Package config loads the application configuration.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aegisd/aegis-go/assets"
	"github.com/aegisd/aegis-go/internal/domain"
	"github.com/aegisd/aegis-go/internal/pkg/filesystem"
)

// FileLoader loads YAML configuration from ~/.aegis/config.yaml
// (overridable via AEGIS_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load reads the config file, writing the embedded default on first run.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(path, assets.DefaultConfigYAML, 0o600); err != nil {
				return domain.Config{}, err
			}
			data = assets.DefaultConfigYAML
		} else {
			return domain.Config{}, err
		}
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}
	return hydrateDefaults(cfg), nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv("AEGIS_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".aegis", "config.yaml")
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	home := filesystem.UserHomeDir()
	if cfg.PolicyFile == "" {
		cfg.PolicyFile = filepath.Join(home, ".aegis", "policy.yaml")
	}
	if cfg.Knowledge.Path == "" {
		cfg.Knowledge.Path = filepath.Join(home, ".aegis", "knowledge", "knowledge.db")
	}
	if cfg.Audit.Dir == "" {
		cfg.Audit.Dir = filepath.Join(home, ".aegis", "logs")
	}
	if cfg.Plans.Dir == "" {
		cfg.Plans.Dir = filepath.Join(home, ".aegis", "plans")
	}
	cfg.PolicyFile = expandPath(cfg.PolicyFile)
	cfg.Knowledge.Path = expandPath(cfg.Knowledge.Path)
	cfg.Audit.Dir = expandPath(cfg.Audit.Dir)
	cfg.Plans.Dir = expandPath(cfg.Plans.Dir)
	if cfg.Execution.TimeoutSeconds == 0 {
		cfg.Execution.TimeoutSeconds = 120
	}
	if cfg.Execution.MaxOutputBytes == 0 {
		cfg.Execution.MaxOutputBytes = 10 << 20
	}
	if cfg.Approval.Mode == "" {
		cfg.Approval.Mode = "console"
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}
