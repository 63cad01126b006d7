package repository

import (
	"context"

	"ordayna/backend/internal/school/domain"
)

// Repository defines persistence for the school-structure entities. All
// lookups are scoped to one institution; an ID from another institution
// simply does not exist.
type Repository interface {
	CreateClass(ctx context.Context, c *domain.Class) error
	UpdateClass(ctx context.Context, institutionID, id int64, name string) error
	DeleteClass(ctx context.Context, institutionID, id int64) error
	ListClasses(ctx context.Context, institutionID int64) ([]domain.Class, error)
	ClassExists(ctx context.Context, institutionID, id int64) (bool, error)

	CreateGroup(ctx context.Context, g *domain.Group) error
	UpdateGroup(ctx context.Context, institutionID, id int64, name string, headcount int, classID *int64) error
	DeleteGroup(ctx context.Context, institutionID, id int64) error
	ListGroups(ctx context.Context, institutionID int64) ([]domain.Group, error)
	GroupExists(ctx context.Context, institutionID, id int64) (bool, error)

	// CohortNameTaken reports whether a class or group with the given name
	// exists; the two entity kinds share a name namespace.
	CohortNameTaken(ctx context.Context, institutionID int64, name string) (bool, error)

	CreateLesson(ctx context.Context, l *domain.Lesson) error
	UpdateLesson(ctx context.Context, institutionID, id int64, name string) error
	DeleteLesson(ctx context.Context, institutionID, id int64) error
	ListLessons(ctx context.Context, institutionID int64) ([]domain.Lesson, error)
	LessonExists(ctx context.Context, institutionID, id int64) (bool, error)
	LessonNameTaken(ctx context.Context, institutionID int64, name string) (bool, error)

	CreateRoom(ctx context.Context, r *domain.Room) error
	UpdateRoom(ctx context.Context, institutionID, id int64, name string, roomType *string, space int) error
	DeleteRoom(ctx context.Context, institutionID, id int64) error
	ListRooms(ctx context.Context, institutionID int64) ([]domain.Room, error)
	RoomExists(ctx context.Context, institutionID, id int64) (bool, error)
	RoomNameTaken(ctx context.Context, institutionID int64, name string) (bool, error)

	CreateTeacher(ctx context.Context, t *domain.Teacher) error
	UpdateTeacher(ctx context.Context, institutionID, id int64, name, job string, userID *int64) error
	DeleteTeacher(ctx context.Context, institutionID, id int64) error
	ListTeachers(ctx context.Context, institutionID int64) ([]domain.Teacher, error)
	TeacherExists(ctx context.Context, institutionID, id int64) (bool, error)
	// UserIsTeacher reports whether the user already backs a teacher record
	// in the institution.
	UserIsTeacher(ctx context.Context, institutionID, userID int64) (bool, error)
	// UserBacksTeacher reports whether the user backs this specific teacher
	// record.
	UserBacksTeacher(ctx context.Context, institutionID, teacherID, userID int64) (bool, error)
}
