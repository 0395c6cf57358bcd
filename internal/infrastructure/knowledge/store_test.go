package knowledge

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aegisd/aegis-go/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "knowledge.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveLessonDerivesErrorPattern(t *testing.T) {
	store := newTestStore(t)

	id, err := store.SaveLesson(domain.Lesson{
		TaskType:        "command_execution",
		TaskDescription: "npm install",
		Success:         false,
		ErrorMessage:    "ENOENT: no such file /home/dev/package.json",
		LessonSummary:   "Run npm install from the project root.",
	})
	if err != nil {
		t.Fatalf("SaveLesson error: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero lesson id")
	}

	lessons, err := store.QueryLessons(domain.LessonFilter{TaskType: "command_execution"})
	if err != nil {
		t.Fatalf("QueryLessons error: %v", err)
	}
	if len(lessons) != 1 {
		t.Fatalf("expected 1 lesson, got %d", len(lessons))
	}
	if lessons[0].ErrorPattern != "ENOENT: no such file <PATH>" {
		t.Fatalf("unexpected derived pattern: %q", lessons[0].ErrorPattern)
	}
	if lessons[0].RelevanceScore != 1.0 {
		t.Fatalf("expected default relevance 1.0, got %v", lessons[0].RelevanceScore)
	}
}

func TestSaveLessonRequiresSummary(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.SaveLesson(domain.Lesson{TaskType: "command_execution"}); err == nil {
		t.Fatal("expected error for missing summary")
	}
}

func TestFindLessonsForErrorExactPatternMatch(t *testing.T) {
	store := newTestStore(t)

	// A successful lesson sharing the error pattern, and a failed one that
	// must never be returned by the exact-match step.
	mustSave(t, store, domain.Lesson{
		TaskType:        "command_execution",
		TaskDescription: "build step",
		Success:         true,
		ErrorMessage:    "Error at /srv/app/main.go:10:2 on 2024-03-05",
		Solution:        "Fix the import list.",
		LessonSummary:   "Compile errors list the offending file first.",
	})
	mustSave(t, store, domain.Lesson{
		TaskType:        "command_execution",
		TaskDescription: "build step",
		Success:         false,
		ErrorMessage:    "Error at /srv/app/other.go:3:1 on 2024-03-06",
		LessonSummary:   "Unresolved failure.",
	})

	lessons, err := store.FindLessonsForError("Error at /home/ci/job/main.go:77:9 on 2025-01-02", 5)
	if err != nil {
		t.Fatalf("FindLessonsForError error: %v", err)
	}
	if len(lessons) != 1 {
		t.Fatalf("expected 1 lesson, got %d", len(lessons))
	}
	if !lessons[0].Success {
		t.Fatalf("exact match must only surface successful lessons: %+v", lessons[0])
	}
}

func TestFindLessonsForErrorKeywordFallback(t *testing.T) {
	store := newTestStore(t)

	mustSave(t, store, domain.Lesson{
		TaskType:        "command_execution",
		TaskDescription: "database migration",
		Success:         true,
		ErrorMessage:    "connection refused talking to postgres",
		Solution:        "Start the database container first.",
		LessonSummary:   "Migrations need the database up.",
	})

	// Different shape, shared vocabulary; only the keyword fallback can hit.
	lessons, err := store.FindLessonsForError("dial tcp: connection refused", 5)
	if err != nil {
		t.Fatalf("FindLessonsForError error: %v", err)
	}
	if len(lessons) != 1 {
		t.Fatalf("expected keyword fallback hit, got %d lessons", len(lessons))
	}
}

func TestFindLessonsForErrorNoMatch(t *testing.T) {
	store := newTestStore(t)

	lessons, err := store.FindLessonsForError("completely novel failure", 5)
	if err != nil {
		t.Fatalf("FindLessonsForError error: %v", err)
	}
	if len(lessons) != 0 {
		t.Fatalf("expected no lessons, got %d", len(lessons))
	}
}

func TestMarkLessonAppliedBoostsRelevance(t *testing.T) {
	store := newTestStore(t)

	id := mustSave(t, store, domain.Lesson{
		TaskType:        "command_execution",
		TaskDescription: "deploy",
		Success:         true,
		LessonSummary:   "Deploy from a clean tree.",
	})

	if err := store.MarkLessonApplied(id); err != nil {
		t.Fatalf("MarkLessonApplied error: %v", err)
	}

	lessons, err := store.QueryLessons(domain.LessonFilter{})
	if err != nil {
		t.Fatalf("QueryLessons error: %v", err)
	}
	got := lessons[0]
	if got.TimesApplied != 1 {
		t.Fatalf("expected times_applied 1, got %d", got.TimesApplied)
	}
	if got.RelevanceScore < 1.09 || got.RelevanceScore > 1.11 {
		t.Fatalf("expected relevance near 1.1, got %v", got.RelevanceScore)
	}
	if got.LastAppliedAt == nil {
		t.Fatal("expected last_applied_at set")
	}
}

func TestMarkLessonAppliedCapsRelevance(t *testing.T) {
	store := newTestStore(t)

	id := mustSave(t, store, domain.Lesson{
		TaskType:        "command_execution",
		TaskDescription: "deploy",
		Success:         true,
		LessonSummary:   "Deploy from a clean tree.",
		RelevanceScore:  9.8,
	})

	for i := 0; i < 5; i++ {
		if err := store.MarkLessonApplied(id); err != nil {
			t.Fatalf("MarkLessonApplied error: %v", err)
		}
	}

	lessons, err := store.QueryLessons(domain.LessonFilter{})
	if err != nil {
		t.Fatalf("QueryLessons error: %v", err)
	}
	if lessons[0].RelevanceScore > domain.MaxRelevanceScore {
		t.Fatalf("relevance exceeded cap: %v", lessons[0].RelevanceScore)
	}
}

func TestMarkLessonAppliedUnknownID(t *testing.T) {
	store := newTestStore(t)

	if err := store.MarkLessonApplied(9999); !errors.Is(err, ErrLessonNotFound) {
		t.Fatalf("expected ErrLessonNotFound, got %v", err)
	}
}

func TestDecayRelevance(t *testing.T) {
	store := newTestStore(t)

	mustSave(t, store, domain.Lesson{
		TaskType:        "command_execution",
		TaskDescription: "old lesson",
		Success:         true,
		LessonSummary:   "Stale advice.",
		CreatedAt:       time.Now().UTC().Add(-90 * 24 * time.Hour),
	})
	mustSave(t, store, domain.Lesson{
		TaskType:        "command_execution",
		TaskDescription: "fresh lesson",
		Success:         true,
		LessonSummary:   "Current advice.",
	})

	affected, err := store.DecayRelevance(0.9, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("DecayRelevance error: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 decayed lesson, got %d", affected)
	}

	lessons, err := store.QueryLessons(domain.LessonFilter{})
	if err != nil {
		t.Fatalf("QueryLessons error: %v", err)
	}
	for _, l := range lessons {
		switch l.TaskDescription {
		case "old lesson":
			if l.RelevanceScore > 0.91 {
				t.Fatalf("old lesson not decayed: %v", l.RelevanceScore)
			}
		case "fresh lesson":
			if l.RelevanceScore != 1.0 {
				t.Fatalf("fresh lesson should be untouched: %v", l.RelevanceScore)
			}
		}
	}
}

func TestDecayRelevanceRejectsBadFactor(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.DecayRelevance(1.5, time.Hour); err == nil {
		t.Fatal("expected error for factor outside (0, 1)")
	}
	if _, err := store.DecayRelevance(0, time.Hour); err == nil {
		t.Fatal("expected error for zero factor")
	}
}

func TestQueryLessonsFilters(t *testing.T) {
	store := newTestStore(t)

	mustSave(t, store, domain.Lesson{
		TaskType:        "command_execution",
		Category:        "red",
		TaskDescription: "risky",
		Success:         false,
		LessonSummary:   "Risky commands fail loudly.",
	})
	mustSave(t, store, domain.Lesson{
		TaskType:        "planning",
		Category:        "green",
		TaskDescription: "safe",
		Success:         true,
		LessonSummary:   "Safe commands just work.",
	})

	success := true
	lessons, err := store.QueryLessons(domain.LessonFilter{Success: &success})
	if err != nil {
		t.Fatalf("QueryLessons error: %v", err)
	}
	if len(lessons) != 1 || lessons[0].TaskType != "planning" {
		t.Fatalf("unexpected filter result: %+v", lessons)
	}

	lessons, err = store.QueryLessons(domain.LessonFilter{Category: "red"})
	if err != nil {
		t.Fatalf("QueryLessons error: %v", err)
	}
	if len(lessons) != 1 || lessons[0].Category != "red" {
		t.Fatalf("unexpected filter result: %+v", lessons)
	}
}

func TestQueryLessonsOrdersByRelevance(t *testing.T) {
	store := newTestStore(t)

	mustSave(t, store, domain.Lesson{
		TaskType: "command_execution", TaskDescription: "low",
		LessonSummary: "Low relevance.", RelevanceScore: 1.0,
	})
	mustSave(t, store, domain.Lesson{
		TaskType: "command_execution", TaskDescription: "high",
		LessonSummary: "High relevance.", RelevanceScore: 5.0,
	})

	lessons, err := store.QueryLessons(domain.LessonFilter{})
	if err != nil {
		t.Fatalf("QueryLessons error: %v", err)
	}
	if len(lessons) != 2 || lessons[0].TaskDescription != "high" {
		t.Fatalf("expected relevance ordering, got %+v", lessons)
	}
}

func TestLogTaskExecutionTruncatesFields(t *testing.T) {
	store := newTestStore(t)

	err := store.LogTaskExecution(domain.TaskHistoryEntry{
		TaskType: "command_execution",
		Command:  "cat big.log",
		Status:   domain.TaskCompleted,
		Output:   strings.Repeat("a", 20000),
	})
	if err != nil {
		t.Fatalf("LogTaskExecution error: %v", err)
	}

	tasks, err := store.RecentTasks(1, "")
	if err != nil {
		t.Fatalf("RecentTasks error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if len(tasks[0].Output) != 10000 {
		t.Fatalf("expected output truncated to 10000, got %d", len(tasks[0].Output))
	}
}

func TestRecentTasksFiltersAndOrders(t *testing.T) {
	store := newTestStore(t)

	statuses := []domain.TaskStatus{domain.TaskCompleted, domain.TaskFailed, domain.TaskBlocked}
	for i, status := range statuses {
		err := store.LogTaskExecution(domain.TaskHistoryEntry{
			TaskType: "command_execution",
			Command:  strings.Repeat("x", i+1),
			Status:   status,
		})
		if err != nil {
			t.Fatalf("LogTaskExecution error: %v", err)
		}
	}

	tasks, err := store.RecentTasks(10, "")
	if err != nil {
		t.Fatalf("RecentTasks error: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	if tasks[0].Status != domain.TaskBlocked {
		t.Fatalf("expected newest first, got %+v", tasks[0])
	}

	failed, err := store.RecentTasks(10, domain.TaskFailed)
	if err != nil {
		t.Fatalf("RecentTasks error: %v", err)
	}
	if len(failed) != 1 || failed[0].Status != domain.TaskFailed {
		t.Fatalf("unexpected status filter result: %+v", failed)
	}
}

func mustSave(t *testing.T, store *Store, lesson domain.Lesson) int64 {
	t.Helper()
	id, err := store.SaveLesson(lesson)
	if err != nil {
		t.Fatalf("SaveLesson error: %v", err)
	}
	return id
}
