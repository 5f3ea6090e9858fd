package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/platform/auth"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	Role           auth.Role `json:"role"`
	Phone          string    `json:"phone,omitempty"`
	Address        string    `json:"address,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	IsVerified     bool      `json:"isVerified"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Actor returns the identity the user acts as once authenticated.
func (u *User) Actor() auth.Actor {
	return auth.Actor{ID: u.ID, Role: u.Role}
}

// NormalizeEmail lowercases and trims an address; emails are unique
// case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Snapshot is the populated view of a referenced user. It has no
// password field, so no populated response can carry one.
type Snapshot struct {
	ID             uuid.UUID `json:"id"`
	Role           auth.Role `json:"-"`
	Name           string    `json:"name,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
}

// Projection selects which user fields a Snapshot carries.
type Projection struct {
	Name           bool
	Email          bool
	Phone          bool
	Specialization bool
}

var (
	// PatientContact is how appointments show their patient.
	PatientContact = Projection{Name: true, Email: true, Phone: true}
	// DoctorCard is how appointments and utility requests show their doctor.
	DoctorCard = Projection{Name: true, Email: true, Specialization: true}
	// PatientName is how medical records show their patient.
	PatientName = Projection{Name: true, Email: true}
	// DoctorName is how medical records show their doctor.
	DoctorName = Projection{Name: true, Specialization: true}
	// RoleOnly is used to check references without exposing anything.
	RoleOnly = Projection{}
)

// Project builds the snapshot of u under p.
func (p Projection) Project(u *User) Snapshot {
	s := Snapshot{ID: u.ID, Role: u.Role}
	if p.Name {
		s.Name = u.Name
	}
	if p.Email {
		s.Email = u.Email
	}
	if p.Phone {
		s.Phone = u.Phone
	}
	if p.Specialization {
		s.Specialization = u.Specialization
	}
	return s
}

// RegisterInput is the body of POST /api/auth/register.
type RegisterInput struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	Role           string `json:"role" validate:"omitempty,oneof=patient doctor"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	Gender         string `json:"gender"`
	Specialization string `json:"specialization"`
}

// LoginInput is the body of POST /api/auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Patch is the body of PUT /api/users/:id. Nil fields are not submitted.
// Role, Password and IsVerified are accepted only so the allow-list can
// strip them.
type Patch struct {
	Name           *string `json:"name"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	Gender         *string `json:"gender"`
	Specialization *string `json:"specialization"`
	Role           *string `json:"role"`
	Password       *string `json:"password"`
	IsVerified     *bool   `json:"isVerified"`
}

// Fields lists the submitted fields by their JSON names.
func (p Patch) Fields() []string {
	var f []string
	add := func(present bool, name string) {
		if present {
			f = append(f, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.Email != nil, "email")
	add(p.Phone != nil, "phone")
	add(p.Address != nil, "address")
	add(p.Gender != nil, "gender")
	add(p.Specialization != nil, "specialization")
	add(p.Role != nil, "role")
	add(p.Password != nil, "password")
	add(p.IsVerified != nil, "isVerified")
	return f
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// AdminSeed describes the default administrator account.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
}
