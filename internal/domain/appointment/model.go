package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/domain/user"
)

// DateLayout is the wire format of appointment dates.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle step follows s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time
	Time      string
	Status    Status
	Reason    string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary is how other records show a referenced appointment.
type Summary struct {
	ID     uuid.UUID `json:"id"`
	Date   string    `json:"date"`
	Time   string    `json:"time"`
	Status Status    `json:"status"`
	Reason string    `json:"reason"`
}

func (a *Appointment) Summary() Summary {
	return Summary{ID: a.ID, Date: a.Date.Format(DateLayout), Time: a.Time, Status: a.Status, Reason: a.Reason}
}

// View is the response shape, with both parties expanded. A party whose
// account no longer exists renders as null.
type View struct {
	ID        uuid.UUID      `json:"id"`
	Patient   *user.Snapshot `json:"patient"`
	Doctor    *user.Snapshot `json:"doctor"`
	Date      string         `json:"date"`
	Time      string         `json:"time"`
	Status    Status         `json:"status"`
	Reason    string         `json:"reason"`
	Notes     string         `json:"notes,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// CreateInput is the body of POST /api/appointments.
type CreateInput struct {
	Patient string `json:"patient"`
	Doctor  string `json:"doctor"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Time    string `json:"time" validate:"required"`
	Reason  string `json:"reason" validate:"required"`
	Notes   string `json:"notes"`
}

// Patch is the body of PUT /api/appointments/:id. Nil fields were not sent.
type Patch struct {
	Date    *string `json:"date"`
	Time    *string `json:"time"`
	Reason  *string `json:"reason"`
	Notes   *string `json:"notes"`
	Status  *string `json:"status"`
	Doctor  *string `json:"doctor"`
	Patient *string `json:"patient"`
}

// Fields lists the submitted fields by their JSON names.
func (p Patch) Fields() []string {
	var f []string
	add := func(present bool, name string) {
		if present {
			f = append(f, name)
		}
	}
	add(p.Date != nil, "date")
	add(p.Time != nil, "time")
	add(p.Reason != nil, "reason")
	add(p.Notes != nil, "notes")
	add(p.Status != nil, "status")
	add(p.Doctor != nil, "doctor")
	add(p.Patient != nil, "patient")
	return f
}
