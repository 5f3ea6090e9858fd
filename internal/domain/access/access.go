// Package access holds the authorization rules for every record kind. The
// rules are pure: callers load the record first (so a missing record is
// reported as not found before any decision), then ask for a Decision.
package access

import (
	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/platform/apperr"
	"github.com/medicare/medicare/internal/platform/auth"
)

type Kind string

const (
	KindAppointment    Kind = "appointment"
	KindMedicalRecord  Kind = "medical_record"
	KindUtilityRequest Kind = "utility_request"
	KindUser           Kind = "user"
)

type Action string

const (
	ActionCreate         Action = "create"
	ActionList           Action = "list"
	ActionRead           Action = "read"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionVerify         Action = "verify"
	ActionListDoctors    Action = "list_doctors"
	ActionListUnverified Action = "list_unverified"
)

// Resource carries the ownership attributes of a loaded record. SubjectID
// is the target account for user operations.
type Resource struct {
	Kind      Kind
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	SubjectID uuid.UUID
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Err converts a denial into a Forbidden error.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperr.Forbidden("%s", d.Reason)
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// Evaluate decides whether actor may perform action on res.
func Evaluate(actor auth.Actor, res Resource, action Action) Decision {
	if !actor.Role.Valid() || actor.ID == uuid.Nil {
		return deny("Not authorized")
	}

	switch res.Kind {
	case KindAppointment:
		return evaluateAppointment(actor, res, action)
	case KindMedicalRecord:
		return evaluateMedicalRecord(actor, res, action)
	case KindUtilityRequest:
		return evaluateUtilityRequest(actor, res, action)
	case KindUser:
		return evaluateUser(actor, res, action)
	}
	return deny("no policy for " + string(res.Kind))
}

func isParty(actor auth.Actor, res Resource) bool {
	switch actor.Role {
	case auth.RolePatient:
		return res.PatientID == actor.ID
	case auth.RoleDoctor:
		return res.DoctorID == actor.ID
	}
	return false
}

func evaluateAppointment(actor auth.Actor, res Resource, action Action) Decision {
	switch action {
	case ActionCreate, ActionList:
		return allow("authenticated")
	case ActionRead:
		if actor.IsAdmin() || isParty(actor, res) {
			return allow("party to appointment")
		}
		return deny("Not authorized to access this appointment")
	case ActionUpdate:
		if actor.IsAdmin() || isParty(actor, res) {
			return allow("party to appointment")
		}
		return deny("Not authorized to update this appointment")
	case ActionDelete:
		if actor.IsAdmin() {
			return allow("admin role")
		}
		return deny("Only admins can delete appointments")
	}
	return deny("unsupported action " + string(action))
}

func evaluateMedicalRecord(actor auth.Actor, res Resource, action Action) Decision {
	switch action {
	case ActionCreate:
		if actor.IsAdmin() || actor.IsDoctor() {
			return allow("clinical role")
		}
		return deny("Only doctors can create medical records")
	case ActionList:
		return allow("authenticated")
	case ActionRead:
		if actor.IsAdmin() || isParty(actor, res) {
			return allow("party to record")
		}
		return deny("Not authorized to access this medical record")
	case ActionUpdate:
		if actor.IsAdmin() || (actor.IsDoctor() && res.DoctorID == actor.ID) {
			return allow("record owner")
		}
		return deny("Not authorized to update this medical record")
	case ActionDelete:
		if actor.IsAdmin() {
			return allow("admin role")
		}
		return deny("Only admins can delete medical records")
	}
	return deny("unsupported action " + string(action))
}

func evaluateUtilityRequest(actor auth.Actor, res Resource, action Action) Decision {
	switch action {
	case ActionCreate:
		if actor.IsAdmin() || actor.IsDoctor() {
			return allow("clinical role")
		}
		return deny("Only doctors can create utility requests")
	case ActionList:
		if actor.IsAdmin() || actor.IsDoctor() {
			return allow("clinical role")
		}
		return deny("Not authorized to view utility requests")
	case ActionRead:
		if actor.IsAdmin() || (actor.IsDoctor() && res.DoctorID == actor.ID) {
			return allow("requester")
		}
		return deny("Not authorized to access this utility request")
	case ActionUpdate:
		if actor.IsAdmin() {
			return allow("admin role")
		}
		return deny("Only admins can update utility request status")
	case ActionDelete:
		if actor.IsAdmin() {
			return allow("admin role")
		}
		return deny("Only admins can delete utility requests")
	}
	return deny("unsupported action " + string(action))
}

func evaluateUser(actor auth.Actor, res Resource, action Action) Decision {
	switch action {
	case ActionRead, ActionListDoctors:
		return allow("authenticated")
	case ActionList:
		if actor.IsAdmin() {
			return allow("admin role")
		}
		return deny("Only admins can list users")
	case ActionListUnverified:
		if actor.IsAdmin() {
			return allow("admin role")
		}
		return deny("Only admins can view unverified doctors")
	case ActionUpdate:
		if actor.IsAdmin() || res.SubjectID == actor.ID {
			return allow("self or admin")
		}
		return deny("Not authorized to update this user")
	case ActionVerify:
		if actor.IsAdmin() {
			return allow("admin role")
		}
		return deny("Only admins can verify doctors")
	case ActionDelete:
		if actor.IsAdmin() {
			return allow("admin role")
		}
		return deny("Only admins can delete users")
	}
	return deny("unsupported action " + string(action))
}

// Filter is the equality filter a store applies to a list query. Nil
// fields do not constrain the result.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Role      *auth.Role
	Verified  *bool
}

// Matches reports whether a record with the given attributes passes the
// filter. Stores that cannot push a filter down use it to post-filter.
func (f Filter) Matches(patientID, doctorID uuid.UUID) bool {
	if f.PatientID != nil && *f.PatientID != patientID {
		return false
	}
	if f.DoctorID != nil && *f.DoctorID != doctorID {
		return false
	}
	return true
}

// MatchesUser reports whether an account passes the role/verification filter.
func (f Filter) MatchesUser(role auth.Role, verified bool) bool {
	if f.Role != nil && *f.Role != role {
		return false
	}
	if f.Verified != nil && *f.Verified != verified {
		return false
	}
	return true
}

// Scope returns the list filter for actor on kind: patients see their own
// records, doctors theirs, admins everything.
func Scope(actor auth.Actor, kind Kind) (Filter, error) {
	if err := Evaluate(actor, Resource{Kind: kind}, ActionList).Err(); err != nil {
		return Filter{}, err
	}
	if actor.IsAdmin() {
		return Filter{}, nil
	}

	id := actor.ID
	switch kind {
	case KindAppointment, KindMedicalRecord:
		if actor.IsPatient() {
			return Filter{PatientID: &id}, nil
		}
		return Filter{DoctorID: &id}, nil
	case KindUtilityRequest:
		return Filter{DoctorID: &id}, nil
	}
	return Filter{}, apperr.Forbidden("Not authorized")
}

// DoctorFilter selects doctor accounts, optionally by verification state.
func DoctorFilter(verified *bool) Filter {
	role := auth.RoleDoctor
	return Filter{Role: &role, Verified: verified}
}
