package repository

import (
	"context"
	"database/sql"

	"ordayna/backend/internal/timetable/domain"
)

// PostgresRepository persists timetable elements in Postgres. Duration maps
// to a TIME column, the date bounds to DATE columns.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a timetable repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *domain.Element) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO timetable_elements
			(institution_id, duration, day, valid_from, valid_until, group_id, lesson_id, teacher_id, room_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		e.InstitutionID, e.Duration, e.Day, e.From, e.Until, e.GroupID, e.LessonID, e.TeacherID, e.RoomID,
	).Scan(&e.ID)
}

func (r *PostgresRepository) Update(ctx context.Context, e *domain.Element) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE timetable_elements
		 SET duration = $1, day = $2, valid_from = $3, valid_until = $4,
		     group_id = $5, lesson_id = $6, teacher_id = $7, room_id = $8
		 WHERE institution_id = $9 AND id = $10`,
		e.Duration, e.Day, e.From, e.Until, e.GroupID, e.LessonID, e.TeacherID, e.RoomID,
		e.InstitutionID, e.ID)
	return err
}

func (r *PostgresRepository) Delete(ctx context.Context, institutionID, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM timetable_elements WHERE institution_id = $1 AND id = $2`,
		institutionID, id)
	return err
}

func (r *PostgresRepository) List(ctx context.Context, institutionID int64) ([]domain.Element, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, institution_id, to_char(duration, 'HH24:MI:SS'),
		        day, to_char(valid_from, 'YYYY-MM-DD'), to_char(valid_until, 'YYYY-MM-DD'),
		        group_id, lesson_id, teacher_id, room_id
		 FROM timetable_elements
		 WHERE institution_id = $1
		 ORDER BY id`,
		institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Element{}
	for rows.Next() {
		var e domain.Element
		if err := rows.Scan(&e.ID, &e.InstitutionID, &e.Duration, &e.Day, &e.From, &e.Until,
			&e.GroupID, &e.LessonID, &e.TeacherID, &e.RoomID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Exists(ctx context.Context, institutionID, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM timetable_elements WHERE institution_id = $1 AND id = $2)`,
		institutionID, id).Scan(&exists)
	return exists, err
}
