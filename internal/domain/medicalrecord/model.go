package medicalrecord

import (
	"time"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/domain/appointment"
	"github.com/medicare/medicare/internal/domain/user"
)

// Prescription is one medication line. Every field is required.
type Prescription struct {
	Medication string `json:"medication" bson:"medication"`
	Dosage     string `json:"dosage" bson:"dosage"`
	Frequency  string `json:"frequency" bson:"frequency"`
	Duration   string `json:"duration" bson:"duration"`
}

type Attachment struct {
	Name string `json:"name" bson:"name"`
	URL  string `json:"url" bson:"url"`
	Type string `json:"type" bson:"type"`
}

type MedicalRecord struct {
	ID            uuid.UUID
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	AppointmentID *uuid.UUID
	Diagnosis     string
	Prescription  []Prescription
	Notes         string
	Attachments   []Attachment
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// normalize replaces nil lists with empty ones so they store and render
// as [].
func (m *MedicalRecord) normalize() {
	if m.Prescription == nil {
		m.Prescription = []Prescription{}
	}
	if m.Attachments == nil {
		m.Attachments = []Attachment{}
	}
}

// View is the response shape with patient, doctor and appointment
// expanded. References that no longer resolve render as null.
type View struct {
	ID           uuid.UUID            `json:"id"`
	Patient      *user.Snapshot       `json:"patient"`
	Doctor       *user.Snapshot       `json:"doctor"`
	Appointment  *appointment.Summary `json:"appointment"`
	Diagnosis    string               `json:"diagnosis"`
	Prescription []Prescription       `json:"prescription"`
	Notes        string               `json:"notes,omitempty"`
	Attachments  []Attachment         `json:"attachments"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// CreateInput is the body of POST /api/medical-records.
type CreateInput struct {
	Patient      string         `json:"patient"`
	Doctor       string         `json:"doctor"`
	Appointment  string         `json:"appointment"`
	Diagnosis    string         `json:"diagnosis" validate:"required"`
	Prescription []Prescription `json:"prescription"`
	Notes        string         `json:"notes"`
	Attachments  []Attachment   `json:"attachments"`
}

// Patch is the body of PUT /api/medical-records/:id. Nil fields were not
// sent; an empty appointment clears the link.
type Patch struct {
	Diagnosis    *string         `json:"diagnosis"`
	Prescription *[]Prescription `json:"prescription"`
	Notes        *string         `json:"notes"`
	Attachments  *[]Attachment   `json:"attachments"`
	Appointment  *string         `json:"appointment"`
	Patient      *string         `json:"patient"`
	Doctor       *string         `json:"doctor"`
}

// Fields lists the submitted fields by their JSON names.
func (p Patch) Fields() []string {
	var f []string
	add := func(present bool, name string) {
		if present {
			f = append(f, name)
		}
	}
	add(p.Diagnosis != nil, "diagnosis")
	add(p.Prescription != nil, "prescription")
	add(p.Notes != nil, "notes")
	add(p.Attachments != nil, "attachments")
	add(p.Appointment != nil, "appointment")
	add(p.Patient != nil, "patient")
	add(p.Doctor != nil, "doctor")
	return f
}
