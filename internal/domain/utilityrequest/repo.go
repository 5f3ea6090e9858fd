package utilityrequest

import (
	"context"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/platform/apperr"
)

type Repository interface {
	Create(ctx context.Context, r *UtilityRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*UtilityRequest, error)
	List(ctx context.Context, f access.Filter) ([]*UtilityRequest, error)
	Update(ctx context.Context, r *UtilityRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
}

func notFound(id uuid.UUID) error {
	return apperr.NotFound("No utility request found with id %s", id)
}
