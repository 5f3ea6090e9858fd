package medicalrecord

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/domain/appointment"
	"github.com/medicare/medicare/internal/domain/user"
	"github.com/medicare/medicare/internal/platform/apperr"
	"github.com/medicare/medicare/internal/platform/auth"
)

type fixture struct {
	svc          *Service
	repo         Repository
	appointments appointment.Repository
	users        user.Store
	patient      auth.Actor
	other        auth.Actor
	doctor       auth.Actor
	doctor2      auth.Actor
	admin        auth.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := user.NewRepoMemory()
	appts := appointment.NewRepoMemory()
	repo := NewRepoMemory()
	mk := func(name string, role auth.Role) auth.Actor {
		u := &user.User{Name: name, Email: name + "@example.com", Password: "x", Role: role, Specialization: "GP"}
		require.NoError(t, users.Create(context.Background(), u))
		return u.Actor()
	}
	return &fixture{
		svc:          NewService(repo, users, appts),
		repo:         repo,
		appointments: appts,
		users:        users,
		patient:      mk("pat", auth.RolePatient),
		other:        mk("otto", auth.RolePatient),
		doctor:       mk("house", auth.RoleDoctor),
		doctor2:      mk("grey", auth.RoleDoctor),
		admin:        mk("root", auth.RoleAdmin),
	}
}

func (f *fixture) record(t *testing.T) *View {
	t.Helper()
	v, err := f.svc.Create(context.Background(), f.doctor, CreateInput{
		Patient:   f.patient.ID.String(),
		Diagnosis: "flu",
		Prescription: []Prescription{
			{Medication: "rest", Dosage: "n/a", Frequency: "daily", Duration: "5 days"},
		},
	})
	require.NoError(t, err)
	return v
}

func strPtr(s string) *string { return &s }

func TestCreate_DoctorIsForcedToActor(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.Create(context.Background(), f.doctor, CreateInput{
		Patient: f.patient.ID.String(), Doctor: f.doctor2.ID.String(), Diagnosis: "flu",
	})
	require.NoError(t, err)
	require.NotNil(t, v.Doctor)
	assert.Equal(t, f.doctor.ID, v.Doctor.ID)
	assert.Equal(t, "GP", v.Doctor.Specialization)
	assert.Empty(t, v.Doctor.Email, "doctor projection carries no email")
	require.NotNil(t, v.Patient)
	assert.Equal(t, "pat@example.com", v.Patient.Email)
	assert.NotNil(t, v.Prescription)
	assert.NotNil(t, v.Attachments)
	assert.Nil(t, v.Appointment)
}

func TestCreate_AdminMustNameADoctor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.admin, CreateInput{Patient: f.patient.ID.String(), Diagnosis: "flu"})
	assert.EqualError(t, err, "Invalid doctor selected")

	_, err = f.svc.Create(ctx, f.admin, CreateInput{
		Patient: f.patient.ID.String(), Doctor: f.other.ID.String(), Diagnosis: "flu",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidReference))

	v, err := f.svc.Create(ctx, f.admin, CreateInput{
		Patient: f.patient.ID.String(), Doctor: f.doctor2.ID.String(), Diagnosis: "flu",
	})
	require.NoError(t, err)
	assert.Equal(t, f.doctor2.ID, v.Doctor.ID)
}

func TestCreate_PatientForbidden(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.patient, CreateInput{Patient: f.patient.ID.String(), Diagnosis: "x"})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.doctor, CreateInput{Patient: f.patient.ID.String()})
	assert.EqualError(t, err, "Please add a diagnosis")

	_, err = f.svc.Create(ctx, f.doctor, CreateInput{
		Patient:   f.patient.ID.String(),
		Diagnosis: "flu",
		Prescription: []Prescription{
			{Medication: "a", Dosage: "b", Frequency: "c", Duration: "d"},
			{Medication: "a", Dosage: "b", Frequency: "c"},
		},
	})
	assert.EqualError(t, err, "prescription[1].duration is required")

	_, err = f.svc.Create(ctx, f.doctor, CreateInput{Patient: f.doctor2.ID.String(), Diagnosis: "flu"})
	assert.EqualError(t, err, "Invalid patient selected")
}

func TestCreate_AppointmentLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.doctor, CreateInput{
		Patient: f.patient.ID.String(), Diagnosis: "flu", Appointment: uuid.NewString(),
	})
	assert.EqualError(t, err, "Invalid appointment selected")

	appt := &appointment.Appointment{
		PatientID: f.patient.ID, DoctorID: f.doctor.ID,
		Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Time: "10:00",
		Status: appointment.StatusCompleted, Reason: "cough",
	}
	require.NoError(t, f.appointments.Create(ctx, appt))

	v, err := f.svc.Create(ctx, f.doctor, CreateInput{
		Patient: f.patient.ID.String(), Diagnosis: "flu", Appointment: appt.ID.String(),
	})
	require.NoError(t, err)
	require.NotNil(t, v.Appointment)
	assert.Equal(t, "2025-03-01", v.Appointment.Date)
	assert.Equal(t, appointment.StatusCompleted, v.Appointment.Status)
	assert.Equal(t, "cough", v.Appointment.Reason)
}

func (f *fixture) appointment(t *testing.T, patient, doctor auth.Actor, reason string) *appointment.Appointment {
	t.Helper()
	a := &appointment.Appointment{
		PatientID: patient.ID, DoctorID: doctor.ID,
		Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Time: "10:00",
		Status: appointment.StatusCompleted, Reason: reason,
	}
	require.NoError(t, f.appointments.Create(context.Background(), a))
	return a
}

func TestCreate_AppointmentMustBelongToPatientAndDoctor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	private := f.appointment(t, f.patient, f.doctor, "private followup")

	// Another doctor links it to a record for a different patient.
	_, err := f.svc.Create(ctx, f.doctor2, CreateInput{
		Patient: f.other.ID.String(), Diagnosis: "cold", Appointment: private.ID.String(),
	})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidReference), "got %v", err)
	assert.EqualError(t, err, "Invalid appointment selected")

	// Right patient, but not this doctor's appointment.
	_, err = f.svc.Create(ctx, f.doctor2, CreateInput{
		Patient: f.patient.ID.String(), Diagnosis: "cold", Appointment: private.ID.String(),
	})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidReference), "got %v", err)

	// Admin still may not cross patients.
	_, err = f.svc.Create(ctx, f.admin, CreateInput{
		Patient: f.other.ID.String(), Doctor: f.doctor.ID.String(), Diagnosis: "cold", Appointment: private.ID.String(),
	})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidReference), "got %v", err)

	all, err := f.repo.List(ctx, access.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all, "rejected links must not write a record")

	got, err := f.svc.List(ctx, f.other)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdate_AppointmentMustBelongToPatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.record(t)
	foreign := f.appointment(t, f.other, f.doctor, "someone else's visit")
	own := f.appointment(t, f.patient, f.doctor, "cough")

	_, err := f.svc.Update(ctx, f.doctor, v.ID, Patch{Appointment: strPtr(foreign.ID.String())})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidReference), "got %v", err)

	stored, err := f.repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AppointmentID)

	got, err := f.svc.Update(ctx, f.doctor, v.ID, Patch{Appointment: strPtr(own.ID.String())})
	require.NoError(t, err)
	require.NotNil(t, got.Appointment)
	assert.Equal(t, "cough", got.Appointment.Reason)

	// Moving the record to another patient while it still points at the
	// first patient's appointment is refused.
	_, err = f.svc.Update(ctx, f.admin, v.ID, Patch{Patient: strPtr(f.other.ID.String())})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidReference), "got %v", err)

	got, err = f.svc.Update(ctx, f.admin, v.ID, Patch{
		Patient: strPtr(f.other.ID.String()), Appointment: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, got.Patient.ID)
	assert.Nil(t, got.Appointment)
}

func TestList_Scoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.record(t)
	_, err := f.svc.Create(ctx, f.doctor2, CreateInput{Patient: f.other.ID.String(), Diagnosis: "cold"})
	require.NoError(t, err)

	got, err := f.svc.List(ctx, f.patient)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "flu", got[0].Diagnosis)

	got, err = f.svc.List(ctx, f.doctor2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cold", got[0].Diagnosis)

	got, err = f.svc.List(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGet_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.record(t)

	_, err := f.svc.Get(ctx, f.other, uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = f.svc.Get(ctx, f.other, v.ID)
	assert.EqualError(t, err, "Not authorized to access this medical record")

	_, err = f.svc.Get(ctx, f.doctor2, v.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = f.svc.Get(ctx, f.patient, v.ID)
	assert.NoError(t, err)
}

func TestUpdate_OwnerDoctor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.record(t)

	got, err := f.svc.Update(ctx, f.doctor, v.ID, Patch{
		Notes:       strPtr("recheck in a week"),
		Attachments: &[]Attachment{{Name: "xray", URL: "https://files.example.com/x.png", Type: "image/png"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "recheck in a week", got.Notes)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "flu", got.Diagnosis, "untouched fields keep their value")

	_, err = f.svc.Update(ctx, f.doctor, v.ID, Patch{Patient: strPtr(f.other.ID.String())})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = f.svc.Update(ctx, f.doctor2, v.ID, Patch{Notes: strPtr("not mine")})
	assert.EqualError(t, err, "Not authorized to update this medical record")

	_, err = f.svc.Update(ctx, f.patient, v.ID, Patch{Notes: strPtr("mine")})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = f.svc.Update(ctx, f.doctor, v.ID, Patch{Prescription: &[]Prescription{{Medication: "x"}}})
	assert.EqualError(t, err, "prescription[0].dosage is required")
}

func TestUpdate_AdminReassigns(t *testing.T) {
	f := newFixture(t)
	v := f.record(t)

	got, err := f.svc.Update(context.Background(), f.admin, v.ID, Patch{
		Patient: strPtr(f.other.ID.String()), Doctor: strPtr(f.doctor2.ID.String()),
	})
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, got.Patient.ID)
	assert.Equal(t, f.doctor2.ID, got.Doctor.ID)
}

func TestDelete_AdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.record(t)

	err := f.svc.Delete(ctx, f.doctor, v.ID)
	assert.EqualError(t, err, "Only admins can delete medical records")

	require.NoError(t, f.svc.Delete(ctx, f.admin, v.ID))
	err = f.svc.Delete(ctx, f.admin, v.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
