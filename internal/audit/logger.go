// Package audit records security-relevant events: logins, session
// revocations, account and institution changes.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ordayna/backend/internal/audit/domain"
	auditrepo "ordayna/backend/internal/audit/repository"
)

// Logger writes audit events. Best-effort: persistence failures are logged
// and never surfaced to the caller.
type Logger struct {
	repo auditrepo.Repository
	log  zerolog.Logger
}

// NewLogger returns an audit logger persisting to repo. repo may be nil,
// which disables persistence but keeps the structured log line.
func NewLogger(repo auditrepo.Repository, log zerolog.Logger) *Logger {
	return &Logger{repo: repo, log: log}
}

// LogEvent writes one audit entry. userID is 0 when no user authenticated.
func (l *Logger) LogEvent(ctx context.Context, userID int64, action, resource, ip, metadata string) {
	l.log.Info().
		Int64("user_id", userID).
		Str("action", action).
		Str("resource", resource).
		Str("ip", ip).
		Msg("audit event")

	if l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.Error().Err(err).Str("action", action).Str("resource", resource).Msg("audit event not persisted")
	}
}
