package domain

// Policy mirrors ~/.aegis/policy.yaml. It is loaded once at startup,
// validated, and never mutated afterwards.
type Policy struct {
	Blacklist      BlacklistRules      `yaml:"blacklist"`
	Classification ClassificationRules `yaml:"classification"`
}

// BlacklistRules are matched before any tier pattern. Patterns are literal
// substrings (case-insensitive), not regular expressions.
type BlacklistRules struct {
	Patterns    []string `yaml:"patterns"`
	Executables []string `yaml:"executables"`
}

// ClassificationRules holds the three tier pattern sets.
type ClassificationRules struct {
	Green  GreenRules  `yaml:"green"`
	Yellow YellowRules `yaml:"yellow"`
	Red    RedRules    `yaml:"red"`
}

// GreenRules describe auto-executable commands and the path globs considered
// safe for green-tier filesystem operations.
type GreenRules struct {
	Patterns     []string `yaml:"patterns"`
	AllowedPaths []string `yaml:"allowed_paths"`
}

// YellowRules describe commands that run after a pre-execution notification.
type YellowRules struct {
	Patterns []string `yaml:"patterns"`
}

// RedRules describe commands that require human approval before running.
type RedRules struct {
	Patterns         []string `yaml:"patterns"`
	RequiresApproval bool     `yaml:"requires_approval"`
	ApprovalTimeout  int      `yaml:"approval_timeout"`
}

// DefaultApprovalTimeoutSeconds bounds the wait for a RED-tier decision when
// the policy does not set one.
const DefaultApprovalTimeoutSeconds = 300
