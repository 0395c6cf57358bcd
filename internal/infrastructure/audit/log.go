// Package audit appends guarded-execution records to date-partitioned JSONL files.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aegisd/aegis-go/internal/domain"
	"github.com/aegisd/aegis-go/internal/pkg/filesystem"
	"github.com/aegisd/aegis-go/internal/ports"
)

// maxResultLen bounds the result excerpt persisted per line.
const maxResultLen = 500

// FileLog writes one JSON object per line to commands-YYYY-MM-DD.jsonl,
// partitioned by UTC date.
type FileLog struct {
	dir string
	mu  sync.Mutex
}

// NewFileLog creates a log rooted at dir (default ~/.aegis/logs).
func NewFileLog(dir string) *FileLog {
	if dir == "" {
		dir = filepath.Join(filesystem.UserHomeDir(), ".aegis", "logs")
	}
	return &FileLog{dir: dir}
}

// Append implements ports.AuditLog.
func (l *FileLog) Append(entry domain.AuditEntry) error {
	now := time.Now().UTC()
	if entry.Timestamp == "" {
		entry.Timestamp = now.Format(time.RFC3339)
	}
	if len(entry.Result) > maxResultLen {
		entry.Result = entry.Result[:maxResultLen]
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(l.PathFor(now), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = file.Write(append(data, '\n'))
	return err
}

// PathFor returns the log file for the given day.
func (l *FileLog) PathFor(t time.Time) string {
	return filepath.Join(l.dir, fmt.Sprintf("commands-%s.jsonl", t.UTC().Format("2006-01-02")))
}

var _ ports.AuditLog = (*FileLog)(nil)
