package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/domain/access"
)

type appointmentRepoMemory struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Appointment
}

// NewRepoMemory returns a process-local store for the memory driver.
func NewRepoMemory() Repository {
	return &appointmentRepoMemory{items: make(map[uuid.UUID]Appointment)}
}

func (r *appointmentRepoMemory) Create(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = uuid.New()
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	r.items[a.ID] = *a
	return nil
}

func (r *appointmentRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok {
		return nil, notFound(id)
	}
	return &a, nil
}

func (r *appointmentRepoMemory) GetMany(_ context.Context, ids []uuid.UUID) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Appointment
	for _, id := range ids {
		if a, ok := r.items[id]; ok {
			out = append(out, &a)
		}
	}
	return out, nil
}

func (r *appointmentRepoMemory) List(_ context.Context, f access.Filter) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Appointment
	for _, a := range r.items {
		if f.Matches(a.PatientID, a.DoctorID) {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *appointmentRepoMemory) Update(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[a.ID]; !ok {
		return notFound(a.ID)
	}
	a.UpdatedAt = time.Now().UTC()
	r.items[a.ID] = *a
	return nil
}

func (r *appointmentRepoMemory) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return notFound(id)
	}
	delete(r.items, id)
	return nil
}
