package repository

import (
	"context"
	"database/sql"

	"ordayna/backend/internal/audit/domain"
)

// PostgresRepository persists audit log entries in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO audit_logs (user_id, action, resource, ip, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		entry.UserID, entry.Action, entry.Resource, entry.IP, entry.Metadata, entry.CreatedAt,
	).Scan(&entry.ID)
}
