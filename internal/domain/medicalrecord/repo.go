package medicalrecord

import (
	"context"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/platform/apperr"
)

type Repository interface {
	Create(ctx context.Context, m *MedicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	List(ctx context.Context, f access.Filter) ([]*MedicalRecord, error)
	Update(ctx context.Context, m *MedicalRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
}

func notFound(id uuid.UUID) error {
	return apperr.NotFound("No medical record found with id %s", id)
}
