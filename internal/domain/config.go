package domain

// Config mirrors ~/.aegis/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	PolicyFile          string            `yaml:"policy_file"`
	Knowledge           KnowledgeSettings `yaml:"knowledge"`
	Audit               AuditSettings     `yaml:"audit"`
	Plans               PlanSettings      `yaml:"plans"`
	Execution           ExecutionSettings `yaml:"execution"`
	Approval            ApprovalSettings  `yaml:"approval"`
}

// KnowledgeSettings locates the lesson database.
type KnowledgeSettings struct {
	Path string `yaml:"path"`
}

// AuditSettings locates the JSONL command log directory.
type AuditSettings struct {
	Dir string `yaml:"dir"`
}

// PlanSettings locates the plan document directory.
type PlanSettings struct {
	Dir string `yaml:"dir"`
}

// ExecutionSettings controls how commands run.
type ExecutionSettings struct {
	Shell          string `yaml:"shell"`
	TimeoutSeconds int    `yaml:"timeout"`
	MaxOutputBytes int64  `yaml:"max_output_bytes"`
}

// ApprovalSettings selects the approval channel adapter.
// Mode is one of auto, deny, console, nats.
type ApprovalSettings struct {
	Mode    string `yaml:"mode"`
	NatsURL string `yaml:"nats_url"`
}
