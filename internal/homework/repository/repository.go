package repository

import (
	"context"

	"ordayna/backend/internal/homework/domain"
)

// Repository defines persistence for homework and attachment metadata.
type Repository interface {
	Create(ctx context.Context, h *domain.Homework) error
	Update(ctx context.Context, h *domain.Homework) error
	Delete(ctx context.Context, institutionID, id int64) error
	Exists(ctx context.Context, institutionID, id int64) (bool, error)
	// ListDetailed returns every homework of the institution joined with its
	// lesson and teacher names and its attachments.
	ListDetailed(ctx context.Context, institutionID int64) ([]domain.HomeworkDetail, error)

	CreateAttachment(ctx context.Context, a *domain.Attachment) error
	DeleteAttachment(ctx context.Context, institutionID, id int64) error
	GetAttachment(ctx context.Context, institutionID, id int64) (*domain.Attachment, error)
}
