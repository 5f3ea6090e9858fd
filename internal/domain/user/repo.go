package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/platform/auth"
)

// Repository persists user accounts. Missing ids are reported as
// apperr.NotFound; a duplicate email on Create or Update is ErrEmailTaken.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, f access.Filter) ([]*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Directory resolves user references into snapshots in one batched
// lookup. Ids with no matching account are absent from the result.
type Directory interface {
	Resolve(ctx context.Context, ids []uuid.UUID, p Projection) (map[uuid.UUID]Snapshot, error)
}

// Store is what both backends provide.
type Store interface {
	Repository
	Directory
}

// Lookup resolves a single id; ok is false when the account is gone.
func Lookup(ctx context.Context, d Directory, id uuid.UUID, p Projection) (Snapshot, bool, error) {
	m, err := d.Resolve(ctx, []uuid.UUID{id}, p)
	if err != nil {
		return Snapshot{}, false, err
	}
	s, ok := m[id]
	return s, ok, nil
}

// Accounts backs the per-request account check of auth.JWTMiddleware.
func Accounts(d Directory) auth.AccountLookup {
	return func(ctx context.Context, id uuid.UUID) (auth.Role, bool, error) {
		s, ok, err := Lookup(ctx, d, id, RoleOnly)
		return s.Role, ok, err
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// SnapshotOf returns the resolved snapshot for id, or nil when the
// account no longer exists.
func SnapshotOf(m map[uuid.UUID]Snapshot, id uuid.UUID) *Snapshot {
	s, ok := m[id]
	if !ok {
		return nil
	}
	return &s
}
