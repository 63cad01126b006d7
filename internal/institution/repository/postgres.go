package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ordayna/backend/internal/institution/domain"
)

// PostgresRepository persists institutions and memberships in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an institution repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists a new institution and its first admin member in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, name string, adminUserID int64) (*domain.Institution, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	inst := &domain.Institution{Name: name, CreatedAt: now}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO institutions (name, created_at) VALUES ($1, $2) RETURNING id`,
		name, now,
	).Scan(&inst.ID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO institution_members (institution_id, user_id, accepted, is_admin, created_at)
		 VALUES ($1, $2, TRUE, TRUE, $3)`,
		inst.ID, adminUserID, now,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return inst, nil
}

// Delete removes the institution; scoped rows go with it via ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM institutions WHERE id = $1`, id)
	return err
}

// ListForUser returns the institutions the user is a member of, invitations included.
func (r *PostgresRepository) ListForUser(ctx context.Context, userID int64) ([]domain.Institution, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT i.id, i.name, i.created_at
		 FROM institutions i
		 JOIN institution_members m ON m.institution_id = i.id
		 WHERE m.user_id = $1
		 ORDER BY i.id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Institution
	for rows.Next() {
		var inst domain.Institution
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// GetMembership returns the user's membership row, or nil if none.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetMembership(ctx context.Context, institutionID, userID int64) (*domain.Membership, error) {
	var m domain.Membership
	err := r.db.QueryRowContext(ctx,
		`SELECT institution_id, user_id, accepted, is_admin, created_at
		 FROM institution_members
		 WHERE institution_id = $1 AND user_id = $2`,
		institutionID, userID,
	).Scan(&m.InstitutionID, &m.UserID, &m.Accepted, &m.Admin, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// Invite adds a not-yet-accepted membership.
func (r *PostgresRepository) Invite(ctx context.Context, institutionID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO institution_members (institution_id, user_id, accepted, is_admin, created_at)
		 VALUES ($1, $2, FALSE, FALSE, $3)`,
		institutionID, userID, time.Now().UTC(),
	)
	return err
}

// AcceptInvite marks the membership accepted.
func (r *PostgresRepository) AcceptInvite(ctx context.Context, institutionID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE institution_members SET accepted = TRUE
		 WHERE institution_id = $1 AND user_id = $2`,
		institutionID, userID,
	)
	return err
}

// DeleteOrphaned removes institutions that no longer have any members.
// Run after a user deletion cascades through institution_members.
func (r *PostgresRepository) DeleteOrphaned(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM institutions
		 WHERE NOT EXISTS (
			SELECT 1 FROM institution_members m WHERE m.institution_id = institutions.id
		 )`,
	)
	return err
}
