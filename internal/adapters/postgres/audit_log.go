package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
)

// AuditLog persists authentication lifecycle events to the audit_events
// table. Callers treat writes as fire-and-forget; a failed write is logged
// upstream and never affects the login/logout outcome.
type AuditLog struct {
	db *sql.DB
}

// NewAuditLog creates an AuditLog on the given database handle.
func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{db: db}
}

// Record inserts a single audit event. Missing IDs and timestamps are
// filled in here so callers can pass sparse events.
func (l *AuditLog) Record(ctx context.Context, ev domainauth.AuditEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	const q = `
		INSERT INTO audit_events (id, action, user_id, email, role, at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := l.db.ExecContext(ctx, q, ev.ID, ev.Action, ev.UserID, ev.Email, string(ev.Role), ev.At); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}
