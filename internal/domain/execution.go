package domain

// ExecutionResult captures one subprocess run.
type ExecutionResult struct {
	Ran        bool
	Stdout     string
	Stderr     string
	ExitCode   int
	DurationMS int64
	TimedOut   bool
	Overflowed bool
}

// ReportStatus describes how a guarded execution ended.
type ReportStatus string

const (
	ReportCompleted ReportStatus = "completed"
	ReportFailed    ReportStatus = "failed"
	ReportBlocked   ReportStatus = "blocked"
	ReportDenied    ReportStatus = "denied"
	ReportTimedOut  ReportStatus = "timeout"
)

// ExecutionReport is the structured outcome the guard returns to its caller.
// Guard failures (blocked, denied, timeout, subprocess error) surface here
// rather than as Go errors.
type ExecutionReport struct {
	Success        bool                 `json:"success"`
	Status         ReportStatus         `json:"status"`
	Output         string               `json:"output"`
	Classification ClassificationResult `json:"classification"`
	LessonID       int64                `json:"lesson_id,omitempty"`
	Advice         []string             `json:"advice,omitempty"`
	DurationMS     int64                `json:"duration_ms"`
}

// AuditEntry is one line of the date-partitioned JSONL command log.
type AuditEntry struct {
	Timestamp string `json:"timestamp"`
	Level     Tier   `json:"level"`
	Command   string `json:"command"`
	Result    string `json:"result"`
	Approved  bool   `json:"approved"`
}
