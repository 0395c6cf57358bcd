package domain

import "time"

// Lesson is a persisted record of a task outcome used for future retrieval.
type Lesson struct {
	ID                    int64      `json:"id"`
	CreatedAt             time.Time  `json:"created_at"`
	TaskType              string     `json:"task_type"`
	Category              string     `json:"category,omitempty"`
	Tags                  []string   `json:"tags,omitempty"`
	TaskDescription       string     `json:"task_description"`
	InitialApproach       string     `json:"initial_approach,omitempty"`
	Success               bool       `json:"success"`
	ErrorMessage          string     `json:"error_message,omitempty"`
	ErrorPattern          string     `json:"error_pattern,omitempty"`
	RootCause             string     `json:"root_cause,omitempty"`
	Solution              string     `json:"solution,omitempty"`
	LessonSummary         string     `json:"lesson_summary"`
	AttemptsBeforeSuccess int        `json:"attempts_before_success"`
	TimeToResolutionMS    int64      `json:"time_to_resolution_ms,omitempty"`
	RelevanceScore        float64    `json:"relevance_score"`
	TimesApplied          int        `json:"times_applied"`
	LastAppliedAt         *time.Time `json:"last_applied_at,omitempty"`
}

// MaxRelevanceScore caps the reuse boost applied by MarkLessonApplied.
const MaxRelevanceScore = 10.0

// LessonFilter narrows QueryLessons results. Zero values mean "any".
type LessonFilter struct {
	TaskType     string
	Category     string
	ErrorPattern string
	Success      *bool
	MinRelevance float64
	Limit        int
}

// TaskStatus enumerates task-history entry states.
type TaskStatus string

const (
	TaskStarted   TaskStatus = "started"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskBlocked   TaskStatus = "blocked"
)

// TaskHistoryEntry is an append-only record of one command execution.
type TaskHistoryEntry struct {
	ID          int64      `json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	TaskType    string     `json:"task_type"`
	Description string     `json:"description"`
	Command     string     `json:"command"`
	Status      TaskStatus `json:"status"`
	DurationMS  int64      `json:"duration_ms"`
	Output      string     `json:"output,omitempty"`
	Error       string     `json:"error,omitempty"`
	LessonID    int64      `json:"lesson_id,omitempty"`
}
