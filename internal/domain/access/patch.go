package access

import (
	"github.com/medicare/medicare/internal/platform/apperr"
	"github.com/medicare/medicare/internal/platform/auth"
)

// Patch field names, as they appear in request bodies.
const (
	FieldDate           = "date"
	FieldTime           = "time"
	FieldReason         = "reason"
	FieldNotes          = "notes"
	FieldStatus         = "status"
	FieldPatient        = "patient"
	FieldDoctor         = "doctor"
	FieldDiagnosis      = "diagnosis"
	FieldPrescription   = "prescription"
	FieldAttachments    = "attachments"
	FieldAppointment    = "appointment"
	FieldItemName       = "itemName"
	FieldItemType       = "itemType"
	FieldQuantity       = "quantity"
	FieldUrgency        = "urgency"
	FieldAdminNotes     = "adminNotes"
	FieldName           = "name"
	FieldEmail          = "email"
	FieldPhone          = "phone"
	FieldAddress        = "address"
	FieldGender         = "gender"
	FieldSpecialization = "specialization"
	FieldRole           = "role"
	FieldPassword       = "password"
	FieldIsVerified     = "isVerified"
)

type FieldSet map[string]bool

func fields(names ...string) FieldSet {
	s := make(FieldSet, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

// PatchPolicy is the mutation surface an actor has on a record kind.
// Strict policies reject a patch that names a field outside Allowed;
// lenient ones drop such fields silently.
type PatchPolicy struct {
	Allowed FieldSet
	Strict  bool
	Reason  string
}

var (
	appointmentPatient = PatchPolicy{
		Allowed: fields(FieldStatus),
		Strict:  true,
		Reason:  "Patients can only cancel appointments",
	}
	appointmentDoctor = PatchPolicy{
		Allowed: fields(FieldDate, FieldTime, FieldReason, FieldNotes, FieldStatus, FieldDoctor),
		Strict:  true,
		Reason:  "Doctors cannot reassign the patient of an appointment",
	}
	appointmentAdmin = PatchPolicy{
		Allowed: fields(FieldDate, FieldTime, FieldReason, FieldNotes, FieldStatus, FieldDoctor, FieldPatient),
	}

	medicalRecordDoctor = PatchPolicy{
		Allowed: fields(FieldDiagnosis, FieldPrescription, FieldNotes, FieldAttachments, FieldAppointment),
		Strict:  true,
		Reason:  "Doctors cannot reassign the patient or doctor of a medical record",
	}
	medicalRecordAdmin = PatchPolicy{
		Allowed: fields(FieldDiagnosis, FieldPrescription, FieldNotes, FieldAttachments, FieldAppointment, FieldPatient, FieldDoctor),
	}

	utilityRequestAdmin = PatchPolicy{
		Allowed: fields(FieldStatus, FieldAdminNotes),
	}

	userSelf = PatchPolicy{
		Allowed: fields(FieldName, FieldEmail, FieldPhone, FieldAddress, FieldGender, FieldSpecialization),
	}
	userAdmin = PatchPolicy{
		Allowed: fields(FieldName, FieldEmail, FieldPhone, FieldAddress, FieldGender, FieldSpecialization, FieldRole),
	}
)

// PatchPolicyFor returns the patch allow-list for actor on kind. The
// caller must already hold an update Decision for the record.
func PatchPolicyFor(actor auth.Actor, kind Kind) PatchPolicy {
	switch kind {
	case KindAppointment:
		switch actor.Role {
		case auth.RoleAdmin:
			return appointmentAdmin
		case auth.RoleDoctor:
			return appointmentDoctor
		case auth.RolePatient:
			return appointmentPatient
		}
	case KindMedicalRecord:
		switch actor.Role {
		case auth.RoleAdmin:
			return medicalRecordAdmin
		case auth.RoleDoctor:
			return medicalRecordDoctor
		}
	case KindUtilityRequest:
		if actor.IsAdmin() {
			return utilityRequestAdmin
		}
	case KindUser:
		if actor.IsAdmin() {
			return userAdmin
		}
		return userSelf
	}
	return PatchPolicy{Allowed: FieldSet{}, Strict: true, Reason: "Not authorized"}
}

// Apply filters the fields present in a patch. It returns the fields the
// caller may write, or Forbidden when a strict policy is violated.
func (p PatchPolicy) Apply(present []string) (FieldSet, error) {
	kept := make(FieldSet, len(present))
	for _, f := range present {
		if p.Allowed[f] {
			kept[f] = true
			continue
		}
		if p.Strict {
			return nil, apperr.Forbidden("%s", p.Reason)
		}
	}
	return kept, nil
}
