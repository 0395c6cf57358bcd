// Package guard orchestrates classify, approval, execution and bookkeeping.
package guard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aegisd/aegis-go/internal/domain"
	"github.com/aegisd/aegis-go/internal/infrastructure/classifier"
	"github.com/aegisd/aegis-go/internal/ports"
)

const taskTypeCommand = "command_execution"

// Guard runs one command at a time through the full safety path:
// classify, hold for approval when required, execute, log, and capture a
// lesson on failure. All guard failures come back as a structured report;
// only missing dependencies or a nil context reach the caller as errors.
type Guard struct {
	Classifier *classifier.Classifier
	Approvals  ports.ApprovalChannel
	Executor   ports.CommandExecutor
	Knowledge  ports.KnowledgeBase
	Audit      ports.AuditLog
	Logger     *log.Logger
}

// Execute runs command through the guard. workdir may be empty.
func (g *Guard) Execute(ctx context.Context, command, workdir string) (domain.ExecutionReport, error) {
	if g.Classifier == nil || g.Approvals == nil || g.Executor == nil ||
		g.Knowledge == nil || g.Audit == nil || g.Logger == nil {
		return domain.ExecutionReport{}, errors.New("guard.Guard dependencies not satisfied")
	}
	if ctx == nil {
		return domain.ExecutionReport{}, errors.New("nil context")
	}
	if strings.TrimSpace(command) == "" {
		return domain.ExecutionReport{}, errors.New("empty command")
	}

	verdict := g.Classifier.Classify(command)
	report := domain.ExecutionReport{Classification: verdict}

	switch verdict.Tier {
	case domain.TierBlacklisted:
		return g.block(verdict, report)
	case domain.TierRed:
		status, err := g.awaitApproval(ctx, verdict)
		if err != nil {
			return g.fail(verdict, report, domain.ReportFailed, fmt.Sprintf("approval channel error: %v", err))
		}
		switch status {
		case domain.ApprovalDenied:
			return g.fail(verdict, report, domain.ReportDenied, "approval denied")
		case domain.ApprovalTimeout:
			return g.fail(verdict, report, domain.ReportTimedOut, "approval timed out")
		}
	case domain.TierYellow:
		g.Approvals.LogCommand(command, verdict.Tier, verdict.Reason)
	}

	return g.run(ctx, verdict, report, workdir)
}

func (g *Guard) block(verdict domain.ClassificationResult, report domain.ExecutionReport) (domain.ExecutionReport, error) {
	g.Approvals.NotifyBlocked(verdict.Command, verdict.Reason)
	g.Logger.Warn("command blocked", "command", verdict.Command, "reason", verdict.Reason)

	report.Success = false
	report.Status = domain.ReportBlocked
	report.Output = fmt.Sprintf("[%s] %s", strings.ToUpper(string(verdict.Tier)), verdict.Reason)

	g.audit(verdict, report.Output, false)
	g.history(verdict, domain.TaskBlocked, 0, "", verdict.Reason, 0)
	return report, nil
}

func (g *Guard) awaitApproval(ctx context.Context, verdict domain.ClassificationResult) (domain.ApprovalStatus, error) {
	timeout := time.Duration(g.Classifier.ApprovalTimeoutSeconds()) * time.Second
	id, err := g.Approvals.RequestApproval(ctx, verdict.Command, verdict.Reason, timeout)
	if err != nil {
		return "", err
	}
	g.Logger.Info("awaiting approval", "id", id, "command", verdict.Command, "timeout", timeout)
	return g.Approvals.WaitForApproval(ctx, id, timeout)
}

func (g *Guard) fail(verdict domain.ClassificationResult, report domain.ExecutionReport, status domain.ReportStatus, message string) (domain.ExecutionReport, error) {
	report.Success = false
	report.Status = status
	report.Output = fmt.Sprintf("[%s] %s", strings.ToUpper(string(verdict.Tier)), message)

	g.audit(verdict, report.Output, false)
	g.history(verdict, domain.TaskBlocked, 0, "", message, 0)
	return report, nil
}

func (g *Guard) run(ctx context.Context, verdict domain.ClassificationResult, report domain.ExecutionReport, workdir string) (domain.ExecutionReport, error) {
	result, execErr := g.Executor.Execute(ctx, verdict.Command, workdir)
	report.DurationMS = result.DurationMS
	report.Output = pickOutput(result)

	if execErr == nil {
		report.Success = true
		report.Status = domain.ReportCompleted
		g.audit(verdict, report.Output, true)
		g.history(verdict, domain.TaskCompleted, result.DurationMS, report.Output, "", 0)
		return report, nil
	}

	errMsg := execErr.Error()
	if strings.TrimSpace(result.Stderr) != "" {
		errMsg = strings.TrimSpace(result.Stderr)
	}
	report.Success = false
	report.Status = domain.ReportFailed
	report.Output = fmt.Sprintf("[%s] execution failed: %s", strings.ToUpper(string(verdict.Tier)), errMsg)

	lessonID := g.captureLesson(verdict, result, errMsg)
	report.LessonID = lessonID
	report.Advice = g.adviceFor(errMsg)

	g.audit(verdict, report.Output, true)
	g.history(verdict, domain.TaskFailed, result.DurationMS, result.Stdout, errMsg, lessonID)
	return report, nil
}

// captureLesson records the failure so future runs can retrieve it.
func (g *Guard) captureLesson(verdict domain.ClassificationResult, result domain.ExecutionResult, errMsg string) int64 {
	summary := fmt.Sprintf("Command %q failed: %s.", verdict.Command, firstLine(errMsg))
	lesson := domain.Lesson{
		TaskType:              taskTypeCommand,
		Category:              string(verdict.Tier),
		TaskDescription:       verdict.Command,
		Success:               false,
		ErrorMessage:          errMsg,
		LessonSummary:         summary,
		AttemptsBeforeSuccess: 1,
		TimeToResolutionMS:    result.DurationMS,
		RelevanceScore:        1.0,
	}
	id, err := g.Knowledge.SaveLesson(lesson)
	if err != nil {
		g.Logger.Error("saving lesson failed", "error", err)
		return 0
	}
	return id
}

// adviceFor surfaces summaries of previously successful lessons matching
// this error, best-effort.
func (g *Guard) adviceFor(errMsg string) []string {
	lessons, err := g.Knowledge.FindLessonsForError(errMsg, 3)
	if err != nil {
		g.Logger.Debug("lesson lookup failed", "error", err)
		return nil
	}
	var advice []string
	for _, l := range lessons {
		if l.Success && l.LessonSummary != "" {
			advice = append(advice, l.LessonSummary)
		}
	}
	return advice
}

func (g *Guard) audit(verdict domain.ClassificationResult, result string, approved bool) {
	entry := domain.AuditEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     verdict.Tier,
		Command:   verdict.Command,
		Result:    result,
		Approved:  approved,
	}
	if err := g.Audit.Append(entry); err != nil {
		g.Logger.Error("audit append failed", "error", err)
	}
}

func (g *Guard) history(verdict domain.ClassificationResult, status domain.TaskStatus, durationMS int64, output, errMsg string, lessonID int64) {
	entry := domain.TaskHistoryEntry{
		TaskType:    taskTypeCommand,
		Description: verdict.Reason,
		Command:     verdict.Command,
		Status:      status,
		DurationMS:  durationMS,
		Output:      output,
		Error:       errMsg,
		LessonID:    lessonID,
	}
	if err := g.Knowledge.LogTaskExecution(entry); err != nil {
		g.Logger.Error("task history append failed", "error", err)
	}
}

// pickOutput prefers stdout, then stderr, then a fixed message.
func pickOutput(result domain.ExecutionResult) string {
	if out := strings.TrimSpace(result.Stdout); out != "" {
		return out
	}
	if out := strings.TrimSpace(result.Stderr); out != "" {
		return out
	}
	return "command completed with no output"
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
