package shared

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const defaultAuditCapacity = 500

// AuditLog represents a single recorded mutation.
type AuditLog struct {
	ActorID  string         `json:"actorId"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entityId"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

// AuditLogger keeps a bounded, most-recent-first trail of mutations and
// mirrors every entry to the structured log.
type AuditLogger struct {
	logger   *slog.Logger
	mu       sync.Mutex
	entries  []AuditLog
	capacity int
}

// NewAuditLogger returns a new AuditLogger. A non-positive capacity uses the default.
func NewAuditLogger(logger *slog.Logger, capacity int) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	if capacity <= 0 {
		capacity = defaultAuditCapacity
	}
	return &AuditLogger{logger: logger, capacity: capacity}
}

// Record stores the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	if log.At.IsZero() {
		log.At = time.Now().UTC()
	}
	if log.ActorID == "" {
		log.ActorID = ActorFromContext(ctx)
	}

	l.mu.Lock()
	l.entries = append([]AuditLog{log}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "audit",
		slog.String("actor", log.ActorID),
		slog.String("action", log.Action),
		slog.String("entity", log.Entity),
		slog.String("entity_id", log.EntityID),
		slog.Any("meta", log.Meta),
	)
	return nil
}

// Recent returns up to n entries, newest first. n <= 0 returns everything kept.
func (l *AuditLogger) Recent(n int) []AuditLog {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]AuditLog, n)
	copy(out, l.entries[:n])
	return out
}
