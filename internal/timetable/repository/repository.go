package repository

import (
	"context"

	"ordayna/backend/internal/timetable/domain"
)

// Repository defines persistence for timetable elements.
type Repository interface {
	Create(ctx context.Context, e *domain.Element) error
	Update(ctx context.Context, e *domain.Element) error
	Delete(ctx context.Context, institutionID, id int64) error
	List(ctx context.Context, institutionID int64) ([]domain.Element, error)
	Exists(ctx context.Context, institutionID, id int64) (bool, error)
}
