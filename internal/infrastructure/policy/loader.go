// Package policy loads and validates the command policy document.
package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aegisd/aegis-go/assets"
	"github.com/aegisd/aegis-go/internal/domain"
	"github.com/aegisd/aegis-go/internal/pkg/filesystem"
)

// Load reads the policy file at path (or the embedded default when the file
// is missing), applies defaults and validates it. Malformed policies are
// fatal: the returned error wraps domain.ErrPolicyLoad.
func Load(path string) (domain.Policy, error) {
	data, err := read(path)
	if err != nil {
		return domain.Policy{}, fmt.Errorf("%w: %v", domain.ErrPolicyLoad, err)
	}

	var pol domain.Policy
	if err := yaml.Unmarshal(data, &pol); err != nil {
		return domain.Policy{}, fmt.Errorf("%w: parse %s: %v", domain.ErrPolicyLoad, path, err)
	}

	hydrate(&pol)
	if err := Validate(pol); err != nil {
		return domain.Policy{}, err
	}
	return pol, nil
}

func read(path string) ([]byte, error) {
	path = ExpandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return assets.DefaultPolicyYAML, nil
		}
		return nil, err
	}
	return data, nil
}

func hydrate(pol *domain.Policy) {
	if pol.Classification.Red.ApprovalTimeout == 0 {
		pol.Classification.Red.ApprovalTimeout = domain.DefaultApprovalTimeoutSeconds
	}
	// RED always requires approval; a policy cannot opt out of the handshake.
	pol.Classification.Red.RequiresApproval = true
}

// Validate rejects policies that could never classify safely: empty entries,
// invalid regular expressions, and patterns that match the empty string.
func Validate(pol domain.Policy) error {
	for _, p := range pol.Blacklist.Patterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: empty blacklist pattern", domain.ErrPolicyLoad)
		}
	}
	for _, e := range pol.Blacklist.Executables {
		if strings.TrimSpace(e) == "" {
			return fmt.Errorf("%w: empty blacklist executable", domain.ErrPolicyLoad)
		}
	}
	tiers := map[string][]string{
		"red":    pol.Classification.Red.Patterns,
		"yellow": pol.Classification.Yellow.Patterns,
		"green":  pol.Classification.Green.Patterns,
	}
	for tier, patterns := range tiers {
		for _, p := range patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return fmt.Errorf("%w: %s pattern %q: %v", domain.ErrPolicyLoad, tier, p, err)
			}
			if re.MatchString("") {
				return fmt.Errorf("%w: %s pattern %q matches the empty string", domain.ErrPolicyLoad, tier, p)
			}
		}
	}
	for _, g := range pol.Classification.Green.AllowedPaths {
		if strings.TrimSpace(g) == "" {
			return fmt.Errorf("%w: empty allowed path glob", domain.ErrPolicyLoad)
		}
	}
	if pol.Classification.Red.ApprovalTimeout <= 0 {
		return fmt.Errorf("%w: approval_timeout must be positive", domain.ErrPolicyLoad)
	}
	return nil
}

// ExpandPath resolves the policy path to an absolute location.
func ExpandPath(path string) string {
	if path == "" {
		return filepath.Join(filesystem.UserHomeDir(), ".aegis", "policy.yaml")
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(path)
}
