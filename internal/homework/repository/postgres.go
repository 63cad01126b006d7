package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ordayna/backend/internal/homework/domain"
)

// PostgresRepository persists homework and attachment metadata in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a homework repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, h *domain.Homework) error {
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO homeworks (institution_id, published, due, lesson_id, teacher_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		h.InstitutionID, now, h.Due, h.LessonID, h.TeacherID,
	).Scan(&h.ID)
	if err != nil {
		return err
	}
	h.Published = now
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, h *domain.Homework) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE homeworks SET due = $1, lesson_id = $2, teacher_id = $3
		 WHERE institution_id = $4 AND id = $5`,
		h.Due, h.LessonID, h.TeacherID, h.InstitutionID, h.ID)
	return err
}

// Delete removes the homework; its attachments go with it via cascade.
func (r *PostgresRepository) Delete(ctx context.Context, institutionID, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM homeworks WHERE institution_id = $1 AND id = $2`, institutionID, id)
	return err
}

func (r *PostgresRepository) Exists(ctx context.Context, institutionID, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM homeworks WHERE institution_id = $1 AND id = $2)`,
		institutionID, id).Scan(&exists)
	return exists, err
}

// ListDetailed returns every homework joined with lesson and teacher names
// and its attachments, ordered by id.
func (r *PostgresRepository) ListDetailed(ctx context.Context, institutionID int64) ([]domain.HomeworkDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT h.id, h.institution_id, h.published, h.due, h.lesson_id, h.teacher_id, l.name, t.name
		 FROM homeworks h
		 LEFT JOIN lessons l ON l.id = h.lesson_id
		 LEFT JOIN teachers t ON t.id = h.teacher_id
		 WHERE h.institution_id = $1
		 ORDER BY h.id`,
		institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.HomeworkDetail{}
	index := map[int64]int{}
	for rows.Next() {
		var d domain.HomeworkDetail
		if err := rows.Scan(&d.ID, &d.InstitutionID, &d.Published, &d.Due, &d.LessonID, &d.TeacherID,
			&d.LessonName, &d.TeacherName); err != nil {
			return nil, err
		}
		d.Attachments = []domain.Attachment{}
		index[d.ID] = len(out)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attRows, err := r.db.QueryContext(ctx,
		`SELECT id, institution_id, homework_id, file_name
		 FROM attachments
		 WHERE institution_id = $1
		 ORDER BY id`,
		institutionID)
	if err != nil {
		return nil, err
	}
	defer attRows.Close()

	for attRows.Next() {
		var a domain.Attachment
		if err := attRows.Scan(&a.ID, &a.InstitutionID, &a.HomeworkID, &a.FileName); err != nil {
			return nil, err
		}
		if i, ok := index[a.HomeworkID]; ok {
			out[i].Attachments = append(out[i].Attachments, a)
		}
	}
	return out, attRows.Err()
}

func (r *PostgresRepository) CreateAttachment(ctx context.Context, a *domain.Attachment) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO attachments (institution_id, homework_id, file_name)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		a.InstitutionID, a.HomeworkID, a.FileName,
	).Scan(&a.ID)
}

func (r *PostgresRepository) DeleteAttachment(ctx context.Context, institutionID, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM attachments WHERE institution_id = $1 AND id = $2`, institutionID, id)
	return err
}

// GetAttachment returns the attachment, or nil if not found.
func (r *PostgresRepository) GetAttachment(ctx context.Context, institutionID, id int64) (*domain.Attachment, error) {
	var a domain.Attachment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, institution_id, homework_id, file_name
		 FROM attachments
		 WHERE institution_id = $1 AND id = $2`,
		institutionID, id,
	).Scan(&a.ID, &a.InstitutionID, &a.HomeworkID, &a.FileName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
