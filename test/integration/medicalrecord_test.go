package integration

import (
	"context"
	"testing"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/domain/medicalrecord"
	"github.com/medicare/medicare/internal/domain/user"
	"github.com/medicare/medicare/internal/platform/auth"
)

func TestMedicalRecordRepoPG(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	users := user.NewRepoPG(globalPool)
	repo := medicalrecord.NewRepoPG(globalPool)

	pat := createUser(t, users, "pat", auth.RolePatient, false)
	house := createUser(t, users, "house", auth.RoleDoctor, true)

	rec := &medicalrecord.MedicalRecord{
		PatientID: pat.ID,
		DoctorID:  house.ID,
		Diagnosis: "Hypertension",
		Prescription: []medicalrecord.Prescription{
			{Medication: "Lisinopril", Dosage: "10mg", Frequency: "daily", Duration: "30 days"},
		},
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("JSON columns round trip", func(t *testing.T) {
		got, err := repo.GetByID(ctx, rec.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(got.Prescription) != 1 || got.Prescription[0].Medication != "Lisinopril" {
			t.Errorf("unexpected prescription %+v", got.Prescription)
		}
		if got.Attachments == nil || len(got.Attachments) != 0 {
			t.Errorf("expected empty attachments, got %#v", got.Attachments)
		}
		if got.AppointmentID != nil {
			t.Errorf("expected no appointment, got %v", got.AppointmentID)
		}
	})

	t.Run("List by patient", func(t *testing.T) {
		got, err := repo.List(ctx, access.Filter{PatientID: &pat.ID})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 record, got %d", len(got))
		}

		got, err = repo.List(ctx, access.Filter{PatientID: &house.ID})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no records, got %d", len(got))
		}
	})

	t.Run("Update attachments", func(t *testing.T) {
		rec.Attachments = []medicalrecord.Attachment{{Name: "ecg.pdf", URL: "https://files.example.com/ecg.pdf", Type: "application/pdf"}}
		if err := repo.Update(ctx, rec); err != nil {
			t.Fatalf("update: %v", err)
		}
		got, err := repo.GetByID(ctx, rec.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(got.Attachments) != 1 || got.Attachments[0].Name != "ecg.pdf" {
			t.Errorf("unexpected attachments %+v", got.Attachments)
		}
	})
}
