// Package knowledge persists lessons and task history in a SQLite database.
package knowledge

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aegisd/aegis-go/internal/domain"
	"github.com/aegisd/aegis-go/internal/pkg/filesystem"
	"github.com/aegisd/aegis-go/internal/ports"
)

// maxFieldLen bounds output/error fields in task history rows.
const maxFieldLen = 10000

// ErrLessonNotFound is returned when a lesson id does not exist.
var ErrLessonNotFound = errors.New("lesson not found")

// Store is a SQLite-backed knowledge base. SQLite's single-writer
// transactional guarantee covers the append-mostly workload; the mutex only
// serializes writers within this process.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open creates (or opens) the knowledge database at path
// (default ~/.aegis/knowledge/knowledge.db).
func Open(path string) (*Store, error) {
	if path == "" {
		path = filepath.Join(filesystem.UserHomeDir(), ".aegis", "knowledge", "knowledge.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating knowledge dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening knowledge db: %w", err)
	}
	store := &Store{db: db, path: path}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating knowledge db: %w", err)
	}
	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS lessons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			task_type TEXT NOT NULL,
			category TEXT,
			tags TEXT,
			task_description TEXT NOT NULL,
			initial_approach TEXT,
			success INTEGER NOT NULL,
			error_message TEXT,
			error_pattern TEXT,
			root_cause TEXT,
			solution TEXT,
			lesson_summary TEXT NOT NULL,
			attempts_before_success INTEGER NOT NULL DEFAULT 1,
			time_to_resolution_ms INTEGER,
			relevance_score REAL NOT NULL DEFAULT 1.0,
			times_applied INTEGER NOT NULL DEFAULT 0,
			last_applied_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_lessons_error_pattern ON lessons(error_pattern);`,
		`CREATE INDEX IF NOT EXISTS idx_lessons_task_type ON lessons(task_type);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS lessons_fts USING fts5(
			task_description, error_message, solution, lesson_summary
		);`,
		`CREATE TABLE IF NOT EXISTS task_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			task_type TEXT,
			description TEXT,
			command TEXT,
			status TEXT NOT NULL,
			duration_ms INTEGER,
			output TEXT,
			error TEXT,
			lesson_id INTEGER
		);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveLesson implements ports.KnowledgeBase. The error pattern is derived
// from the error message when not supplied.
func (s *Store) SaveLesson(lesson domain.Lesson) (int64, error) {
	if strings.TrimSpace(lesson.LessonSummary) == "" {
		return 0, errors.New("lesson summary is required")
	}
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = time.Now().UTC()
	}
	if lesson.AttemptsBeforeSuccess < 1 {
		lesson.AttemptsBeforeSuccess = 1
	}
	if lesson.RelevanceScore <= 0 {
		lesson.RelevanceScore = 1.0
	}
	if lesson.ErrorPattern == "" && lesson.ErrorMessage != "" {
		lesson.ErrorPattern = NormalizeErrorPattern(lesson.ErrorMessage)
	}
	tags, err := json.Marshal(lesson.Tags)
	if err != nil {
		return 0, fmt.Errorf("encoding tags: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.db.Exec(`INSERT INTO lessons
		(created_at, task_type, category, tags, task_description, initial_approach,
		 success, error_message, error_pattern, root_cause, solution, lesson_summary,
		 attempts_before_success, time_to_resolution_ms, relevance_score, times_applied, last_applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		lesson.CreatedAt.Format(time.RFC3339),
		lesson.TaskType,
		lesson.Category,
		string(tags),
		lesson.TaskDescription,
		lesson.InitialApproach,
		boolToInt(lesson.Success),
		lesson.ErrorMessage,
		lesson.ErrorPattern,
		lesson.RootCause,
		lesson.Solution,
		lesson.LessonSummary,
		lesson.AttemptsBeforeSuccess,
		lesson.TimeToResolutionMS,
		lesson.RelevanceScore,
		lesson.TimesApplied,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting lesson: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting lesson id: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO lessons_fts (rowid, task_description, error_message, solution, lesson_summary)
		VALUES (?, ?, ?, ?, ?)`,
		id, lesson.TaskDescription, lesson.ErrorMessage, lesson.Solution, lesson.LessonSummary)
	if err != nil {
		return 0, fmt.Errorf("indexing lesson: %w", err)
	}
	return id, nil
}

// QueryLessons implements ports.KnowledgeBase. Results are ordered by
// relevance desc, times applied desc, recency desc.
func (s *Store) QueryLessons(filter domain.LessonFilter) ([]domain.Lesson, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + lessonColumns + ` FROM lessons WHERE 1=1`)
	var args []any
	if filter.TaskType != "" {
		b.WriteString(" AND task_type = ?")
		args = append(args, filter.TaskType)
	}
	if filter.Category != "" {
		b.WriteString(" AND category = ?")
		args = append(args, filter.Category)
	}
	if filter.ErrorPattern != "" {
		b.WriteString(" AND error_pattern LIKE ?")
		args = append(args, "%"+filter.ErrorPattern+"%")
	}
	if filter.Success != nil {
		b.WriteString(" AND success = ?")
		args = append(args, boolToInt(*filter.Success))
	}
	if filter.MinRelevance > 0 {
		b.WriteString(" AND relevance_score >= ?")
		args = append(args, filter.MinRelevance)
	}
	b.WriteString(" ORDER BY relevance_score DESC, times_applied DESC, created_at DESC")
	if filter.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying lessons: %w", err)
	}
	defer rows.Close()
	return scanLessons(rows)
}

// FindLessonsForError implements ports.KnowledgeBase: exact error-pattern
// match among successful lessons first, then a keyword search over the
// full-text index as fallback.
func (s *Store) FindLessonsForError(errorMessage string, limit int) ([]domain.Lesson, error) {
	if limit <= 0 {
		limit = 5
	}
	pattern := NormalizeErrorPattern(errorMessage)
	if pattern != "" {
		rows, err := s.db.Query(`SELECT `+lessonColumns+` FROM lessons
			WHERE error_pattern = ? AND success = 1
			ORDER BY relevance_score DESC, times_applied DESC, created_at DESC
			LIMIT ?`, pattern, limit)
		if err != nil {
			return nil, fmt.Errorf("matching error pattern: %w", err)
		}
		lessons, err := scanLessons(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		if len(lessons) > 0 {
			return lessons, nil
		}
	}

	keywords := extractKeywords(errorMessage)
	if len(keywords) == 0 {
		return nil, nil
	}
	match := strings.Join(keywords, " OR ")
	rows, err := s.db.Query(`SELECT `+lessonColumns+` FROM lessons
		WHERE id IN (SELECT rowid FROM lessons_fts WHERE lessons_fts MATCH ?)
		ORDER BY relevance_score DESC, times_applied DESC, created_at DESC
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()
	return scanLessons(rows)
}

// MarkLessonApplied implements ports.KnowledgeBase: bumps the application
// counter and boosts relevance by 1.1x, capped at the maximum score.
func (s *Store) MarkLessonApplied(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.db.Exec(`UPDATE lessons SET
			times_applied = times_applied + 1,
			last_applied_at = ?,
			relevance_score = MIN(relevance_score * 1.1, ?)
		WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), domain.MaxRelevanceScore, id)
	if err != nil {
		return fmt.Errorf("marking lesson applied: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return ErrLessonNotFound
	}
	return nil
}

// DecayRelevance multiplies the relevance of lessons not applied within
// olderThan by factor. Lessons are never deleted here; retention is an
// external concern.
func (s *Store) DecayRelevance(factor float64, olderThan time.Duration) (int64, error) {
	if factor <= 0 || factor >= 1 {
		return 0, fmt.Errorf("decay factor must be in (0, 1), got %v", factor)
	}
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.db.Exec(`UPDATE lessons SET relevance_score = relevance_score * ?
		WHERE COALESCE(last_applied_at, created_at) < ?`, factor, cutoff)
	if err != nil {
		return 0, fmt.Errorf("decaying relevance: %w", err)
	}
	return result.RowsAffected()
}

// LogTaskExecution implements ports.KnowledgeBase. Append-only; output and
// error fields are truncated to 10,000 characters.
func (s *Store) LogTaskExecution(entry domain.TaskHistoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.Output = truncate(entry.Output, maxFieldLen)
	entry.Error = truncate(entry.Error, maxFieldLen)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO task_history
		(created_at, task_type, description, command, status, duration_ms, output, error, lesson_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.CreatedAt.Format(time.RFC3339),
		entry.TaskType,
		entry.Description,
		entry.Command,
		string(entry.Status),
		entry.DurationMS,
		entry.Output,
		entry.Error,
		nullableID(entry.LessonID),
	)
	if err != nil {
		return fmt.Errorf("logging task execution: %w", err)
	}
	return nil
}

// RecentTasks returns task history entries, newest first, optionally
// filtered by status.
func (s *Store) RecentTasks(limit int, status domain.TaskStatus) ([]domain.TaskHistoryEntry, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, created_at, task_type, description, command, status, duration_ms, output, error, lesson_id
		FROM task_history`)
	var args []any
	if status != "" {
		b.WriteString(" WHERE status = ?")
		args = append(args, string(status))
	}
	b.WriteString(" ORDER BY id DESC")
	if limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying task history: %w", err)
	}
	defer rows.Close()

	var entries []domain.TaskHistoryEntry
	for rows.Next() {
		var e domain.TaskHistoryEntry
		var createdAt, status string
		var lessonID sql.NullInt64
		if err := rows.Scan(&e.ID, &createdAt, &e.TaskType, &e.Description, &e.Command,
			&status, &e.DurationMS, &e.Output, &e.Error, &lessonID); err != nil {
			return nil, fmt.Errorf("scanning task history: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}
		e.Status = domain.TaskStatus(status)
		if lessonID.Valid {
			e.LessonID = lessonID.Int64
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const lessonColumns = `id, created_at, task_type, category, tags, task_description, initial_approach,
	success, error_message, error_pattern, root_cause, solution, lesson_summary,
	attempts_before_success, time_to_resolution_ms, relevance_score, times_applied, last_applied_at`

func scanLessons(rows *sql.Rows) ([]domain.Lesson, error) {
	var lessons []domain.Lesson
	for rows.Next() {
		var l domain.Lesson
		var createdAt, tags string
		var success int
		var lastApplied sql.NullString
		if err := rows.Scan(&l.ID, &createdAt, &l.TaskType, &l.Category, &tags,
			&l.TaskDescription, &l.InitialApproach, &success, &l.ErrorMessage,
			&l.ErrorPattern, &l.RootCause, &l.Solution, &l.LessonSummary,
			&l.AttemptsBeforeSuccess, &l.TimeToResolutionMS, &l.RelevanceScore,
			&l.TimesApplied, &lastApplied); err != nil {
			return nil, fmt.Errorf("scanning lesson: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			l.CreatedAt = t
		}
		l.Success = success == 1
		if tags != "" && tags != "null" {
			_ = json.Unmarshal([]byte(tags), &l.Tags)
		}
		if lastApplied.Valid {
			if t, err := time.Parse(time.RFC3339, lastApplied.String); err == nil {
				l.LastAppliedAt = &t
			}
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.KnowledgeBase = (*Store)(nil)
