package medicalrecord

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/domain/appointment"
	"github.com/medicare/medicare/internal/domain/user"
	"github.com/medicare/medicare/internal/platform/apperr"
	"github.com/medicare/medicare/internal/platform/auth"
)

// Appointments is the read access records need to link and expand
// appointments.
type Appointments interface {
	GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]*appointment.Appointment, error)
}

type Service struct {
	repo         Repository
	users        user.Directory
	appointments Appointments
}

func NewService(repo Repository, users user.Directory, appointments Appointments) *Service {
	return &Service{repo: repo, users: users, appointments: appointments}
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*View, error) {
	if err := access.Evaluate(actor, access.Resource{Kind: access.KindMedicalRecord}, access.ActionCreate).Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Diagnosis) == "" {
		return nil, apperr.Validation("Please add a diagnosis")
	}
	if err := checkPrescription(in.Prescription); err != nil {
		return nil, err
	}

	patientID, err := s.checkParty(ctx, in.Patient, auth.RolePatient, "Invalid patient selected")
	if err != nil {
		return nil, err
	}
	doctorID := actor.ID
	if !actor.IsDoctor() {
		if doctorID, err = s.checkParty(ctx, in.Doctor, auth.RoleDoctor, "Invalid doctor selected"); err != nil {
			return nil, err
		}
	}
	appointmentID, err := parseAppointment(in.Appointment)
	if err != nil {
		return nil, err
	}

	m := &MedicalRecord{
		PatientID:     patientID,
		DoctorID:      doctorID,
		AppointmentID: appointmentID,
		Diagnosis:     in.Diagnosis,
		Prescription:  in.Prescription,
		Notes:         in.Notes,
		Attachments:   in.Attachments,
	}
	if err := s.checkAppointment(ctx, actor, m); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return s.view(ctx, m)
}

func checkPrescription(items []Prescription) error {
	for i, p := range items {
		switch {
		case strings.TrimSpace(p.Medication) == "":
			return apperr.Validation("prescription[%d].medication is required", i)
		case strings.TrimSpace(p.Dosage) == "":
			return apperr.Validation("prescription[%d].dosage is required", i)
		case strings.TrimSpace(p.Frequency) == "":
			return apperr.Validation("prescription[%d].frequency is required", i)
		case strings.TrimSpace(p.Duration) == "":
			return apperr.Validation("prescription[%d].duration is required", i)
		}
	}
	return nil
}

func (s *Service) checkParty(ctx context.Context, raw string, role auth.Role, msg string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.InvalidReference("%s", msg)
	}
	snap, ok, err := user.Lookup(ctx, s.users, id, user.RoleOnly)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok || snap.Role != role {
		return uuid.Nil, apperr.InvalidReference("%s", msg)
	}
	return id, nil
}

// parseAppointment reads an optional appointment link. Empty means none.
func parseAppointment(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.InvalidReference("Invalid appointment selected")
	}
	return &id, nil
}

// checkAppointment requires a linked appointment to exist and to belong to
// the record's patient. A doctor may only link their own appointments.
// Every mismatch reads the same as a missing appointment.
func (s *Service) checkAppointment(ctx context.Context, actor auth.Actor, m *MedicalRecord) error {
	if m.AppointmentID == nil {
		return nil
	}
	a, err := s.appointments.GetByID(ctx, *m.AppointmentID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.InvalidReference("Invalid appointment selected")
		}
		return err
	}
	if a.PatientID != m.PatientID || (actor.IsDoctor() && a.DoctorID != actor.ID) {
		return apperr.InvalidReference("Invalid appointment selected")
	}
	return nil
}

func (s *Service) List(ctx context.Context, actor auth.Actor) ([]*View, error) {
	filter, err := access.Scope(actor, access.KindMedicalRecord)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, items)
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*View, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Evaluate(actor, resource(m), access.ActionRead).Err(); err != nil {
		return nil, err
	}
	return s.view(ctx, m)
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, p Patch) (*View, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Evaluate(actor, resource(m), access.ActionUpdate).Err(); err != nil {
		return nil, err
	}
	kept, err := access.PatchPolicyFor(actor, access.KindMedicalRecord).Apply(p.Fields())
	if err != nil {
		return nil, err
	}

	if kept[access.FieldDiagnosis] {
		if strings.TrimSpace(*p.Diagnosis) == "" {
			return nil, apperr.Validation("Please add a diagnosis")
		}
		m.Diagnosis = *p.Diagnosis
	}
	if kept[access.FieldPrescription] {
		if err := checkPrescription(*p.Prescription); err != nil {
			return nil, err
		}
		m.Prescription = *p.Prescription
	}
	if kept[access.FieldNotes] {
		m.Notes = *p.Notes
	}
	if kept[access.FieldAttachments] {
		m.Attachments = *p.Attachments
	}
	if kept[access.FieldAppointment] {
		if m.AppointmentID, err = parseAppointment(*p.Appointment); err != nil {
			return nil, err
		}
	}
	if kept[access.FieldPatient] {
		if m.PatientID, err = s.checkParty(ctx, *p.Patient, auth.RolePatient, "Invalid patient selected"); err != nil {
			return nil, err
		}
	}
	if kept[access.FieldDoctor] {
		if m.DoctorID, err = s.checkParty(ctx, *p.Doctor, auth.RoleDoctor, "Invalid doctor selected"); err != nil {
			return nil, err
		}
	}
	if kept[access.FieldAppointment] || kept[access.FieldPatient] || kept[access.FieldDoctor] {
		if err := s.checkAppointment(ctx, actor, m); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return s.view(ctx, m)
}

func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Evaluate(actor, resource(m), access.ActionDelete).Err(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func resource(m *MedicalRecord) access.Resource {
	return access.Resource{Kind: access.KindMedicalRecord, PatientID: m.PatientID, DoctorID: m.DoctorID}
}

func (s *Service) view(ctx context.Context, m *MedicalRecord) (*View, error) {
	views, err := s.views(ctx, []*MedicalRecord{m})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *Service) views(ctx context.Context, items []*MedicalRecord) ([]*View, error) {
	patientIDs := make([]uuid.UUID, 0, len(items))
	doctorIDs := make([]uuid.UUID, 0, len(items))
	var apptIDs []uuid.UUID
	for _, m := range items {
		patientIDs = append(patientIDs, m.PatientID)
		doctorIDs = append(doctorIDs, m.DoctorID)
		if m.AppointmentID != nil {
			apptIDs = append(apptIDs, *m.AppointmentID)
		}
	}
	patients, err := s.users.Resolve(ctx, patientIDs, user.PatientName)
	if err != nil {
		return nil, err
	}
	doctors, err := s.users.Resolve(ctx, doctorIDs, user.DoctorName)
	if err != nil {
		return nil, err
	}
	summaries := make(map[uuid.UUID]appointment.Summary)
	if len(apptIDs) > 0 {
		appts, err := s.appointments.GetMany(ctx, apptIDs)
		if err != nil {
			return nil, err
		}
		for _, a := range appts {
			summaries[a.ID] = a.Summary()
		}
	}

	out := make([]*View, len(items))
	for i, m := range items {
		v := &View{
			ID:           m.ID,
			Patient:      user.SnapshotOf(patients, m.PatientID),
			Doctor:       user.SnapshotOf(doctors, m.DoctorID),
			Diagnosis:    m.Diagnosis,
			Prescription: m.Prescription,
			Notes:        m.Notes,
			Attachments:  m.Attachments,
			CreatedAt:    m.CreatedAt,
			UpdatedAt:    m.UpdatedAt,
		}
		if m.AppointmentID != nil {
			if sum, ok := summaries[*m.AppointmentID]; ok {
				v.Appointment = &sum
			}
		}
		out[i] = v
	}
	return out, nil
}
