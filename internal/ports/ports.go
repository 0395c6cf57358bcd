// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// The guard depends only on these contracts; any adapter satisfying them is
// substitutable without guard changes.
package ports

import (
	"context"
	"time"

	"github.com/aegisd/aegis-go/internal/domain"
)

// ApprovalChannel is the out-of-process mechanism for obtaining human
// sign-off on RED-tier commands and for best-effort notifications.
type ApprovalChannel interface {
	// RequestApproval registers a pending request and returns promptly with
	// an opaque id. It must not block on the human decision.
	RequestApproval(ctx context.Context, command, reason string, timeout time.Duration) (string, error)

	// WaitForApproval blocks until the request resolves or the timeout
	// elapses, after which it resolves to ApprovalTimeout rather than hang.
	WaitForApproval(ctx context.Context, id string, timeout time.Duration) (domain.ApprovalStatus, error)

	// NotifyBlocked is best-effort; failures must not abort the guard's own
	// blocked-result return.
	NotifyBlocked(command, reason string)

	// LogCommand is best-effort, same non-blocking-failure contract.
	LogCommand(command string, tier domain.Tier, excerpt string)
}

// CommandExecutor runs shell commands with mandatory time and output bounds.
type CommandExecutor interface {
	Execute(ctx context.Context, command, workdir string) (domain.ExecutionResult, error)
}

// KnowledgeBase is the lesson store consulted before and after execution.
type KnowledgeBase interface {
	SaveLesson(lesson domain.Lesson) (int64, error)
	QueryLessons(filter domain.LessonFilter) ([]domain.Lesson, error)
	FindLessonsForError(errorMessage string, limit int) ([]domain.Lesson, error)
	MarkLessonApplied(id int64) error
	DecayRelevance(factor float64, olderThan time.Duration) (int64, error)
	LogTaskExecution(entry domain.TaskHistoryEntry) error
	RecentTasks(limit int, status domain.TaskStatus) ([]domain.TaskHistoryEntry, error)
}

// AuditLog appends one line per guarded execution to the local command log.
type AuditLog interface {
	Append(entry domain.AuditEntry) error
}
