package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/domain/user"
	"github.com/medicare/medicare/internal/platform/apperr"
	"github.com/medicare/medicare/internal/platform/auth"
)

type Service struct {
	repo  Repository
	users user.Directory
}

func NewService(repo Repository, users user.Directory) *Service {
	return &Service{repo: repo, users: users}
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*View, error) {
	if err := access.Evaluate(actor, access.Resource{Kind: access.KindAppointment}, access.ActionCreate).Err(); err != nil {
		return nil, err
	}

	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Time) == "" {
		return nil, apperr.Validation("Please add an appointment time")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, apperr.Validation("Please add a reason for the appointment")
	}

	patientID, err := s.bookingPatient(ctx, actor, in.Patient)
	if err != nil {
		return nil, err
	}
	doctorID, err := s.checkParty(ctx, in.Doctor, auth.RoleDoctor, "Invalid doctor selected")
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      date,
		Time:      strings.TrimSpace(in.Time),
		Status:    StatusUpcoming,
		Reason:    in.Reason,
		Notes:     in.Notes,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return s.view(ctx, a)
}

// bookingPatient works out who the appointment is for. Patients always
// book for themselves; staff must name a patient account.
func (s *Service) bookingPatient(ctx context.Context, actor auth.Actor, raw string) (uuid.UUID, error) {
	if actor.IsPatient() {
		if raw == "" {
			return actor.ID, nil
		}
		id, err := uuid.Parse(raw)
		if err != nil || id != actor.ID {
			return uuid.Nil, apperr.Forbidden("Patients can only book appointments for themselves")
		}
		return id, nil
	}
	return s.checkParty(ctx, raw, auth.RolePatient, "Invalid patient selected")
}

// checkParty parses raw and confirms it names an account with the given role.
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

func (s *Service) List(ctx context.Context, actor auth.Actor) ([]*View, error) {
	filter, err := access.Scope(actor, access.KindAppointment)
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
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Evaluate(actor, resource(a), access.ActionRead).Err(); err != nil {
		return nil, err
	}
	return s.view(ctx, a)
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, p Patch) (*View, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Evaluate(actor, resource(a), access.ActionUpdate).Err(); err != nil {
		return nil, err
	}
	kept, err := access.PatchPolicyFor(actor, access.KindAppointment).Apply(p.Fields())
	if err != nil {
		return nil, err
	}

	if kept[access.FieldStatus] {
		to := Status(*p.Status)
		if !to.Valid() {
			return nil, apperr.Validation("status must be one of upcoming, completed, cancelled")
		}
		if err := CheckTransition(actor, a.Status, to); err != nil {
			return nil, err
		}
		a.Status = to
	}
	if kept[access.FieldDate] {
		if a.Date, err = parseDate(*p.Date); err != nil {
			return nil, err
		}
	}
	if kept[access.FieldTime] {
		if strings.TrimSpace(*p.Time) == "" {
			return nil, apperr.Validation("Please add an appointment time")
		}
		a.Time = strings.TrimSpace(*p.Time)
	}
	if kept[access.FieldReason] {
		if strings.TrimSpace(*p.Reason) == "" {
			return nil, apperr.Validation("Please add a reason for the appointment")
		}
		a.Reason = *p.Reason
	}
	if kept[access.FieldNotes] {
		a.Notes = *p.Notes
	}
	if kept[access.FieldDoctor] {
		if a.DoctorID, err = s.checkParty(ctx, *p.Doctor, auth.RoleDoctor, "Invalid doctor selected"); err != nil {
			return nil, err
		}
	}
	if kept[access.FieldPatient] {
		if a.PatientID, err = s.checkParty(ctx, *p.Patient, auth.RolePatient, "Invalid patient selected"); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.view(ctx, a)
}

// CheckTransition enforces who may move an appointment from one status to
// another. Patients may only cancel an upcoming appointment. Doctors may
// move freely while it is upcoming. Admins may reconsider any outcome.
func CheckTransition(actor auth.Actor, from, to Status) error {
	switch actor.Role {
	case auth.RoleAdmin:
		return nil
	case auth.RolePatient:
		if from == StatusUpcoming && to == StatusCancelled {
			return nil
		}
		return apperr.Forbidden("Patients can only cancel appointments")
	case auth.RoleDoctor:
		if from == to || !from.Terminal() {
			return nil
		}
		return apperr.InvalidState("Cannot change the status of a %s appointment", from)
	}
	return apperr.Forbidden("Not authorized")
}

func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Evaluate(actor, resource(a), access.ActionDelete).Err(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func resource(a *Appointment) access.Resource {
	return access.Resource{Kind: access.KindAppointment, PatientID: a.PatientID, DoctorID: a.DoctorID}
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperr.Validation("Please add an appointment date in YYYY-MM-DD format")
	}
	return d, nil
}

func (s *Service) view(ctx context.Context, a *Appointment) (*View, error) {
	views, err := s.views(ctx, []*Appointment{a})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// views expands patient and doctor references with one directory lookup
// per projection.
func (s *Service) views(ctx context.Context, items []*Appointment) ([]*View, error) {
	patientIDs := make([]uuid.UUID, len(items))
	doctorIDs := make([]uuid.UUID, len(items))
	for i, a := range items {
		patientIDs[i] = a.PatientID
		doctorIDs[i] = a.DoctorID
	}
	patients, err := s.users.Resolve(ctx, patientIDs, user.PatientContact)
	if err != nil {
		return nil, err
	}
	doctors, err := s.users.Resolve(ctx, doctorIDs, user.DoctorCard)
	if err != nil {
		return nil, err
	}

	out := make([]*View, len(items))
	for i, a := range items {
		out[i] = &View{
			ID:        a.ID,
			Patient:   user.SnapshotOf(patients, a.PatientID),
			Doctor:    user.SnapshotOf(doctors, a.DoctorID),
			Date:      a.Date.Format(DateLayout),
			Time:      a.Time,
			Status:    a.Status,
			Reason:    a.Reason,
			Notes:     a.Notes,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		}
	}
	return out, nil
}
