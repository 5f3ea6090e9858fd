package medicalrecord

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/domain/access"
)

type recordRepoMemory struct {
	mu    sync.RWMutex
	items map[uuid.UUID]MedicalRecord
}

// NewRepoMemory returns a process-local store for the memory driver.
func NewRepoMemory() Repository {
	return &recordRepoMemory{items: make(map[uuid.UUID]MedicalRecord)}
}

// clone copies the slices so callers never alias stored state.
func clone(m MedicalRecord) *MedicalRecord {
	m.Prescription = append([]Prescription{}, m.Prescription...)
	m.Attachments = append([]Attachment{}, m.Attachments...)
	if m.AppointmentID != nil {
		id := *m.AppointmentID
		m.AppointmentID = &id
	}
	return &m
}

func (r *recordRepoMemory) Create(_ context.Context, m *MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m.ID = uuid.New()
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	m.normalize()
	r.items[m.ID] = *clone(*m)
	return nil
}

func (r *recordRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[id]
	if !ok {
		return nil, notFound(id)
	}
	return clone(m), nil
}

func (r *recordRepoMemory) List(_ context.Context, f access.Filter) ([]*MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*MedicalRecord
	for _, m := range r.items {
		if f.Matches(m.PatientID, m.DoctorID) {
			out = append(out, clone(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *recordRepoMemory) Update(_ context.Context, m *MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[m.ID]; !ok {
		return notFound(m.ID)
	}
	m.UpdatedAt = time.Now().UTC()
	m.normalize()
	r.items[m.ID] = *clone(*m)
	return nil
}

func (r *recordRepoMemory) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return notFound(id)
	}
	delete(r.items, id)
	return nil
}
