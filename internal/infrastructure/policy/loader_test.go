package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aegisd/aegis-go/internal/domain"
)

func TestLoadMissingFileUsesEmbeddedDefault(t *testing.T) {
	pol, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(pol.Blacklist.Patterns) == 0 {
		t.Fatal("default policy should carry blacklist patterns")
	}
	if len(pol.Classification.Red.Patterns) == 0 {
		t.Fatal("default policy should carry red patterns")
	}
	if !pol.Classification.Red.RequiresApproval {
		t.Fatal("red tier must require approval")
	}
	if pol.Classification.Red.ApprovalTimeout <= 0 {
		t.Fatalf("expected positive approval timeout, got %d", pol.Classification.Red.ApprovalTimeout)
	}
}

func TestLoadCustomPolicy(t *testing.T) {
	path := writePolicy(t, `
blacklist:
  patterns:
    - "mkfs."
classification:
  green:
    patterns:
      - "^ls(\\s|$)"
  yellow:
    patterns:
      - "^git push"
  red:
    patterns:
      - "rm\\s+-rf"
    approval_timeout: 60
`)

	pol, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if pol.Classification.Red.ApprovalTimeout != 60 {
		t.Fatalf("expected timeout 60, got %d", pol.Classification.Red.ApprovalTimeout)
	}
	if !pol.Classification.Red.RequiresApproval {
		t.Fatal("hydration must force requires_approval")
	}
}

func TestLoadDefaultsApprovalTimeout(t *testing.T) {
	path := writePolicy(t, `
classification:
  red:
    patterns:
      - "rm\\s+-rf"
`)

	pol, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if pol.Classification.Red.ApprovalTimeout != domain.DefaultApprovalTimeoutSeconds {
		t.Fatalf("expected default timeout, got %d", pol.Classification.Red.ApprovalTimeout)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writePolicy(t, "classification: [not a map")

	if _, err := Load(path); !errors.Is(err, domain.ErrPolicyLoad) {
		t.Fatalf("expected policy load error, got %v", err)
	}
}

func TestValidateRejectsBadPatterns(t *testing.T) {
	tests := []struct {
		name string
		pol  domain.Policy
	}{
		{
			name: "invalid regexp",
			pol: domain.Policy{Classification: domain.ClassificationRules{
				Red: domain.RedRules{Patterns: []string{`(`}, ApprovalTimeout: 300},
			}},
		},
		{
			name: "pattern matching empty string",
			pol: domain.Policy{Classification: domain.ClassificationRules{
				Green: domain.GreenRules{Patterns: []string{`.*`}},
				Red:   domain.RedRules{ApprovalTimeout: 300},
			}},
		},
		{
			name: "empty blacklist pattern",
			pol: domain.Policy{
				Blacklist: domain.BlacklistRules{Patterns: []string{"  "}},
				Classification: domain.ClassificationRules{
					Red: domain.RedRules{ApprovalTimeout: 300},
				},
			},
		},
		{
			name: "missing approval timeout",
			pol:  domain.Policy{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.pol); !errors.Is(err, domain.ErrPolicyLoad) {
				t.Fatalf("expected policy load error, got %v", err)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	if got := ExpandPath("~/policy.yaml"); got != filepath.Join(home, "policy.yaml") {
		t.Fatalf("unexpected expansion: %q", got)
	}
	if got := ExpandPath("/etc/aegis/policy.yaml"); got != "/etc/aegis/policy.yaml" {
		t.Fatalf("absolute path should pass through, got %q", got)
	}
	if got := ExpandPath(""); got != filepath.Join(home, ".aegis", "policy.yaml") {
		t.Fatalf("unexpected default path: %q", got)
	}
}

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing policy: %v", err)
	}
	return path
}
