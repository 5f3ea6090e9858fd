package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/platform/apperr"
	"github.com/medicare/medicare/internal/platform/auth"
)

const minPasswordLen = 6

// TokenSigner issues a signed session token for an actor.
type TokenSigner interface {
	Issue(a auth.Actor) (string, error)
}

type Service struct {
	users   Repository
	tokens  TokenSigner
	revoked auth.RevocationStore
}

func NewService(users Repository, tokens TokenSigner, revoked auth.RevocationStore) *Service {
	return &Service{users: users, tokens: tokens, revoked: revoked}
}

// -- Accounts --

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, apperr.Validation("email is required")
	}
	if len(in.Password) < minPasswordLen {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLen)
	}
	role := auth.RolePatient
	if in.Role != "" {
		role = auth.Role(in.Role)
	}
	if role != auth.RolePatient && role != auth.RoleDoctor {
		return nil, apperr.Validation("role must be patient or doctor")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "hash password")
	}
	u := &User{
		Name:           strings.TrimSpace(in.Name),
		Email:          in.Email,
		Password:       hash,
		Role:           role,
		Phone:          in.Phone,
		Address:        in.Address,
		Gender:         in.Gender,
		Specialization: in.Specialization,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.authenticate(u)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, in.Email)
	if apperr.IsKind(err, apperr.KindNotFound) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	ok, err := auth.CheckPassword(u.Password, in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "check password")
	}
	if !ok {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	return s.authenticate(u)
}

func (s *Service) authenticate(u *User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.Actor())
	if err != nil {
		return nil, apperr.Internal(err, "issue token")
	}
	return &AuthResult{Token: token, User: u}, nil
}

func (s *Service) Me(ctx context.Context, actor auth.Actor) (*User, error) {
	return s.users.GetByID(ctx, actor.ID)
}

// Logout revokes the presented token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, tok auth.TokenInfo) error {
	if tok.JTI == "" {
		return apperr.Unauthorized("Not authorized, token failed")
	}
	return s.revoked.Revoke(ctx, tok.JTI, time.Unix(tok.ExpiresAt, 0))
}

// SeedAdmin makes sure the administrator account exists. It reports
// whether a new account was created. Losing a creation race to another
// process counts as already seeded.
func (s *Service) SeedAdmin(ctx context.Context, seed AdminSeed) (bool, error) {
	_, err := s.users.GetByEmail(ctx, seed.Email)
	if err == nil {
		return false, nil
	}
	if !apperr.IsKind(err, apperr.KindNotFound) {
		return false, err
	}

	hash, err := auth.HashPassword(seed.Password)
	if err != nil {
		return false, apperr.Internal(err, "hash password")
	}
	admin := &User{
		Name:       seed.Name,
		Email:      seed.Email,
		Password:   hash,
		Role:       auth.RoleAdmin,
		IsVerified: true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// -- Directory --

func (s *Service) ListUsers(ctx context.Context, actor auth.Actor) ([]*User, error) {
	if err := access.Evaluate(actor, access.Resource{Kind: access.KindUser}, access.ActionList).Err(); err != nil {
		return nil, err
	}
	return s.users.List(ctx, access.Filter{})
}

func (s *Service) ListDoctors(ctx context.Context, actor auth.Actor) ([]*User, error) {
	return s.listDoctors(ctx, actor, access.ActionListDoctors, nil)
}

func (s *Service) ListVerifiedDoctors(ctx context.Context, actor auth.Actor) ([]*User, error) {
	verified := true
	return s.listDoctors(ctx, actor, access.ActionListDoctors, &verified)
}

func (s *Service) ListUnverifiedDoctors(ctx context.Context, actor auth.Actor) ([]*User, error) {
	verified := false
	return s.listDoctors(ctx, actor, access.ActionListUnverified, &verified)
}

func (s *Service) listDoctors(ctx context.Context, actor auth.Actor, action access.Action, verified *bool) ([]*User, error) {
	if err := access.Evaluate(actor, access.Resource{Kind: access.KindUser}, action).Err(); err != nil {
		return nil, err
	}
	return s.users.List(ctx, access.DoctorFilter(verified))
}

func (s *Service) GetUser(ctx context.Context, actor auth.Actor, id uuid.UUID) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Evaluate(actor, access.Resource{Kind: access.KindUser, SubjectID: id}, access.ActionRead).Err(); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUser merges the permitted fields of p into the account. Fields the
// actor may not touch are dropped rather than rejected.
func (s *Service) UpdateUser(ctx context.Context, actor auth.Actor, id uuid.UUID, p Patch) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Evaluate(actor, access.Resource{Kind: access.KindUser, SubjectID: id}, access.ActionUpdate).Err(); err != nil {
		return nil, err
	}
	kept, err := access.PatchPolicyFor(actor, access.KindUser).Apply(p.Fields())
	if err != nil {
		return nil, err
	}

	if kept[access.FieldName] {
		if strings.TrimSpace(*p.Name) == "" {
			return nil, apperr.Validation("name is required")
		}
		u.Name = strings.TrimSpace(*p.Name)
	}
	if kept[access.FieldEmail] {
		if strings.TrimSpace(*p.Email) == "" {
			return nil, apperr.Validation("email is required")
		}
		u.Email = *p.Email
	}
	if kept[access.FieldPhone] {
		u.Phone = *p.Phone
	}
	if kept[access.FieldAddress] {
		u.Address = *p.Address
	}
	if kept[access.FieldGender] {
		u.Gender = *p.Gender
	}
	if kept[access.FieldSpecialization] {
		u.Specialization = *p.Specialization
	}
	if kept[access.FieldRole] {
		role := auth.Role(*p.Role)
		if !role.Valid() {
			return nil, apperr.Validation("role must be one of patient, doctor, admin")
		}
		u.Role = role
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) VerifyDoctor(ctx context.Context, actor auth.Actor, id uuid.UUID) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if apperr.IsKind(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("Doctor not found")
	}
	if err != nil {
		return nil, err
	}
	if err := access.Evaluate(actor, access.Resource{Kind: access.KindUser, SubjectID: id}, access.ActionVerify).Err(); err != nil {
		return nil, err
	}
	if u.Role != auth.RoleDoctor {
		return nil, apperr.InvalidState("User is not a doctor")
	}

	u.IsVerified = true
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	if err := access.Evaluate(actor, access.Resource{Kind: access.KindUser, SubjectID: id}, access.ActionDelete).Err(); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}
