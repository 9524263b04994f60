// Package audit appends one JSON line per inbound message to a durable
// log file. The field set is a stable contract; see domain.AuditRecord.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"solrem/internal/domain"
)

// Logger is the append-only audit writer. Appends are serialized with
// a mutex so concurrent pipeline invocations never interleave lines.
type Logger struct {
	mu     sync.Mutex
	f      *os.File
	logger *slog.Logger
}

func New(path string, logger *slog.Logger) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create audit log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open audit log %s: %w", path, err)
	}
	return &Logger{f: f, logger: logger}, nil
}

// Append writes one record as a single JSON line.
func (l *Logger) Append(rec domain.AuditRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(line); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
