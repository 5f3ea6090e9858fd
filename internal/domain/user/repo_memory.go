package user

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/platform/apperr"
)

type userRepoMemory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]User
}

// NewRepoMemory returns a process-local store for the memory driver.
func NewRepoMemory() Store {
	return &userRepoMemory{users: make(map[uuid.UUID]User)}
}

func (r *userRepoMemory) emailTaken(email string, except uuid.UUID) bool {
	for id, u := range r.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (r *userRepoMemory) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.Email = NormalizeEmail(u.Email)
	if r.emailTaken(u.Email, uuid.Nil) {
		return ErrEmailTaken
	}
	u.ID = uuid.New()
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.users[u.ID] = *u
	return nil
}

func (r *userRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound("No user found with id %s", id)
	}
	return &u, nil
}

func (r *userRepoMemory) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, apperr.NotFound("No user found with email %s", email)
}

func (r *userRepoMemory) List(_ context.Context, f access.Filter) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*User
	for _, u := range r.users {
		if f.MatchesUser(u.Role, u.IsVerified) {
			u := u
			items = append(items, &u)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (r *userRepoMemory) Update(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; !ok {
		return apperr.NotFound("No user found with id %s", u.ID)
	}
	u.Email = NormalizeEmail(u.Email)
	if r.emailTaken(u.Email, u.ID) {
		return ErrEmailTaken
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[u.ID] = *u
	return nil
}

func (r *userRepoMemory) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return apperr.NotFound("No user found with id %s", id)
	}
	delete(r.users, id)
	return nil
}

func (r *userRepoMemory) Resolve(_ context.Context, ids []uuid.UUID, p Projection) (map[uuid.UUID]Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[uuid.UUID]Snapshot, len(ids))
	for _, id := range uniqueIDs(ids) {
		if u, ok := r.users[id]; ok {
			out[id] = p.Project(&u)
		}
	}
	return out, nil
}
