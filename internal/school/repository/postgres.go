package repository

import (
	"context"
	"database/sql"

	"ordayna/backend/internal/school/domain"
)

// PostgresRepository persists school-structure entities in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a school repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&exists)
	return exists, err
}

// Classes

func (r *PostgresRepository) CreateClass(ctx context.Context, c *domain.Class) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO classes (institution_id, name, headcount) VALUES ($1, $2, $3) RETURNING id`,
		c.InstitutionID, c.Name, c.Headcount,
	).Scan(&c.ID)
}

func (r *PostgresRepository) UpdateClass(ctx context.Context, institutionID, id int64, name string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE classes SET name = $1 WHERE institution_id = $2 AND id = $3`,
		name, institutionID, id)
	return err
}

func (r *PostgresRepository) DeleteClass(ctx context.Context, institutionID, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM classes WHERE institution_id = $1 AND id = $2`, institutionID, id)
	return err
}

func (r *PostgresRepository) ListClasses(ctx context.Context, institutionID int64) ([]domain.Class, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, institution_id, name, headcount FROM classes WHERE institution_id = $1 ORDER BY id`,
		institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Class{}
	for rows.Next() {
		var c domain.Class
		if err := rows.Scan(&c.ID, &c.InstitutionID, &c.Name, &c.Headcount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ClassExists(ctx context.Context, institutionID, id int64) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM classes WHERE institution_id = $1 AND id = $2)`,
		institutionID, id)
}

// Groups

func (r *PostgresRepository) CreateGroup(ctx context.Context, g *domain.Group) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO groups (institution_id, name, headcount, class_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		g.InstitutionID, g.Name, g.Headcount, g.ClassID,
	).Scan(&g.ID)
}

func (r *PostgresRepository) UpdateGroup(ctx context.Context, institutionID, id int64, name string, headcount int, classID *int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE groups SET name = $1, headcount = $2, class_id = $3
		 WHERE institution_id = $4 AND id = $5`,
		name, headcount, classID, institutionID, id)
	return err
}

func (r *PostgresRepository) DeleteGroup(ctx context.Context, institutionID, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM groups WHERE institution_id = $1 AND id = $2`, institutionID, id)
	return err
}

func (r *PostgresRepository) ListGroups(ctx context.Context, institutionID int64) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, institution_id, name, headcount, class_id FROM groups WHERE institution_id = $1 ORDER BY id`,
		institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Group{}
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.InstitutionID, &g.Name, &g.Headcount, &g.ClassID); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GroupExists(ctx context.Context, institutionID, id int64) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM groups WHERE institution_id = $1 AND id = $2)`,
		institutionID, id)
}

func (r *PostgresRepository) CohortNameTaken(ctx context.Context, institutionID int64, name string) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM classes WHERE institution_id = $1 AND name = $2)
		 OR EXISTS(SELECT 1 FROM groups WHERE institution_id = $1 AND name = $2)`,
		institutionID, name)
}

// Lessons

func (r *PostgresRepository) CreateLesson(ctx context.Context, l *domain.Lesson) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO lessons (institution_id, name) VALUES ($1, $2) RETURNING id`,
		l.InstitutionID, l.Name,
	).Scan(&l.ID)
}

func (r *PostgresRepository) UpdateLesson(ctx context.Context, institutionID, id int64, name string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE lessons SET name = $1 WHERE institution_id = $2 AND id = $3`,
		name, institutionID, id)
	return err
}

func (r *PostgresRepository) DeleteLesson(ctx context.Context, institutionID, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM lessons WHERE institution_id = $1 AND id = $2`, institutionID, id)
	return err
}

func (r *PostgresRepository) ListLessons(ctx context.Context, institutionID int64) ([]domain.Lesson, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, institution_id, name FROM lessons WHERE institution_id = $1 ORDER BY id`,
		institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Lesson{}
	for rows.Next() {
		var l domain.Lesson
		if err := rows.Scan(&l.ID, &l.InstitutionID, &l.Name); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) LessonExists(ctx context.Context, institutionID, id int64) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM lessons WHERE institution_id = $1 AND id = $2)`,
		institutionID, id)
}

func (r *PostgresRepository) LessonNameTaken(ctx context.Context, institutionID int64, name string) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM lessons WHERE institution_id = $1 AND name = $2)`,
		institutionID, name)
}

// Rooms

func (r *PostgresRepository) CreateRoom(ctx context.Context, room *domain.Room) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO rooms (institution_id, name, room_type, space) VALUES ($1, $2, $3, $4) RETURNING id`,
		room.InstitutionID, room.Name, room.Type, room.Space,
	).Scan(&room.ID)
}

func (r *PostgresRepository) UpdateRoom(ctx context.Context, institutionID, id int64, name string, roomType *string, space int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET name = $1, room_type = $2, space = $3
		 WHERE institution_id = $4 AND id = $5`,
		name, roomType, space, institutionID, id)
	return err
}

func (r *PostgresRepository) DeleteRoom(ctx context.Context, institutionID, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM rooms WHERE institution_id = $1 AND id = $2`, institutionID, id)
	return err
}

func (r *PostgresRepository) ListRooms(ctx context.Context, institutionID int64) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, institution_id, name, room_type, space FROM rooms WHERE institution_id = $1 ORDER BY id`,
		institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Room{}
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.ID, &room.InstitutionID, &room.Name, &room.Type, &room.Space); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) RoomExists(ctx context.Context, institutionID, id int64) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM rooms WHERE institution_id = $1 AND id = $2)`,
		institutionID, id)
}

func (r *PostgresRepository) RoomNameTaken(ctx context.Context, institutionID int64, name string) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM rooms WHERE institution_id = $1 AND name = $2)`,
		institutionID, name)
}

// Teachers

func (r *PostgresRepository) CreateTeacher(ctx context.Context, t *domain.Teacher) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO teachers (institution_id, name, job, user_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		t.InstitutionID, t.Name, t.Job, t.UserID,
	).Scan(&t.ID)
}

func (r *PostgresRepository) UpdateTeacher(ctx context.Context, institutionID, id int64, name, job string, userID *int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE teachers SET name = $1, job = $2, user_id = $3
		 WHERE institution_id = $4 AND id = $5`,
		name, job, userID, institutionID, id)
	return err
}

func (r *PostgresRepository) DeleteTeacher(ctx context.Context, institutionID, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM teachers WHERE institution_id = $1 AND id = $2`, institutionID, id)
	return err
}

func (r *PostgresRepository) ListTeachers(ctx context.Context, institutionID int64) ([]domain.Teacher, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, institution_id, name, job, user_id FROM teachers WHERE institution_id = $1 ORDER BY id`,
		institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Teacher{}
	for rows.Next() {
		var t domain.Teacher
		if err := rows.Scan(&t.ID, &t.InstitutionID, &t.Name, &t.Job, &t.UserID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) TeacherExists(ctx context.Context, institutionID, id int64) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM teachers WHERE institution_id = $1 AND id = $2)`,
		institutionID, id)
}

func (r *PostgresRepository) UserIsTeacher(ctx context.Context, institutionID, userID int64) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM teachers WHERE institution_id = $1 AND user_id = $2)`,
		institutionID, userID)
}

func (r *PostgresRepository) UserBacksTeacher(ctx context.Context, institutionID, teacherID, userID int64) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM teachers WHERE institution_id = $1 AND id = $2 AND user_id = $3)`,
		institutionID, teacherID, userID)
}
