package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/platform/apperr"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// GetMany returns the appointments that exist among ids, in no
	// particular order.
	GetMany(ctx context.Context, ids []uuid.UUID) ([]*Appointment, error)
	List(ctx context.Context, f access.Filter) ([]*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

func notFound(id uuid.UUID) error {
	return apperr.NotFound("No appointment found with id %s", id)
}
