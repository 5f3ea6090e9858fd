package utilityrequest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/domain/access"
)

type requestRepoMemory struct {
	mu    sync.RWMutex
	items map[uuid.UUID]UtilityRequest
}

// NewRepoMemory returns a process-local store for the memory driver.
func NewRepoMemory() Repository {
	return &requestRepoMemory{items: make(map[uuid.UUID]UtilityRequest)}
}

func (r *requestRepoMemory) Create(_ context.Context, u *UtilityRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.ID = uuid.New()
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.items[u.ID] = *u
	return nil
}

func (r *requestRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*UtilityRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return nil, notFound(id)
	}
	return &u, nil
}

func (r *requestRepoMemory) List(_ context.Context, f access.Filter) ([]*UtilityRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*UtilityRequest
	for _, u := range r.items {
		if f.DoctorID == nil || *f.DoctorID == u.DoctorID {
			u := u
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *requestRepoMemory) Update(_ context.Context, u *UtilityRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[u.ID]; !ok {
		return notFound(u.ID)
	}
	u.UpdatedAt = time.Now().UTC()
	r.items[u.ID] = *u
	return nil
}

func (r *requestRepoMemory) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return notFound(id)
	}
	delete(r.items, id)
	return nil
}
