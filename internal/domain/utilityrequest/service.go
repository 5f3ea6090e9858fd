package utilityrequest

import (
	"context"
	"strings"

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
	if err := access.Evaluate(actor, access.Resource{Kind: access.KindUtilityRequest}, access.ActionCreate).Err(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.ItemName) == "" {
		return nil, apperr.Validation("Please add the item name")
	}
	itemType := ItemType(in.ItemType)
	if !itemType.Valid() {
		return nil, apperr.Validation("Please specify the item type")
	}
	if in.Quantity <= 0 {
		return nil, apperr.Validation("Please specify the quantity needed")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, apperr.Validation("Please provide a reason for the request")
	}
	urgency := UrgencyMedium
	if in.Urgency != "" {
		urgency = Urgency(in.Urgency)
	}
	if !urgency.Valid() {
		return nil, apperr.Validation("urgency must be one of Low, Medium, High, Critical")
	}

	r := &UtilityRequest{
		DoctorID: actor.ID,
		ItemName: strings.TrimSpace(in.ItemName),
		ItemType: itemType,
		Quantity: in.Quantity,
		Urgency:  urgency,
		Reason:   in.Reason,
		Status:   StatusPending,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	return s.view(ctx, r)
}

func (s *Service) List(ctx context.Context, actor auth.Actor) ([]*View, error) {
	filter, err := access.Scope(actor, access.KindUtilityRequest)
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
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Evaluate(actor, resource(r), access.ActionRead).Err(); err != nil {
		return nil, err
	}
	return s.view(ctx, r)
}

// Review applies an admin decision. Only status and adminNotes are taken
// from the patch; anything else in it is ignored.
func (s *Service) Review(ctx context.Context, actor auth.Actor, id uuid.UUID, p Patch) (*View, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Evaluate(actor, resource(r), access.ActionUpdate).Err(); err != nil {
		return nil, err
	}
	kept, err := access.PatchPolicyFor(actor, access.KindUtilityRequest).Apply(p.Fields())
	if err != nil {
		return nil, err
	}

	if kept[access.FieldStatus] {
		to := Status(*p.Status)
		if !to.Valid() {
			return nil, apperr.Validation("status must be one of pending, approved, rejected")
		}
		if err := CheckTransition(r.Status, to); err != nil {
			return nil, err
		}
		r.Status = to
	}
	if kept[access.FieldAdminNotes] {
		r.AdminNotes = *p.AdminNotes
	}

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return s.view(ctx, r)
}

// CheckTransition allows deciding a pending request and re-deciding a
// decided one, but never reopening it.
func CheckTransition(from, to Status) error {
	if from == to {
		return nil
	}
	if to == StatusPending {
		return apperr.InvalidState("A %s request cannot be returned to pending", from)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Evaluate(actor, resource(r), access.ActionDelete).Err(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func resource(r *UtilityRequest) access.Resource {
	return access.Resource{Kind: access.KindUtilityRequest, DoctorID: r.DoctorID}
}

func (s *Service) view(ctx context.Context, r *UtilityRequest) (*View, error) {
	views, err := s.views(ctx, []*UtilityRequest{r})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *Service) views(ctx context.Context, items []*UtilityRequest) ([]*View, error) {
	ids := make([]uuid.UUID, len(items))
	for i, r := range items {
		ids[i] = r.DoctorID
	}
	doctors, err := s.users.Resolve(ctx, ids, user.DoctorCard)
	if err != nil {
		return nil, err
	}

	out := make([]*View, len(items))
	for i, r := range items {
		out[i] = &View{
			ID:         r.ID,
			Doctor:     user.SnapshotOf(doctors, r.DoctorID),
			ItemName:   r.ItemName,
			ItemType:   r.ItemType,
			Quantity:   r.Quantity,
			Urgency:    r.Urgency,
			Reason:     r.Reason,
			Status:     r.Status,
			AdminNotes: r.AdminNotes,
			CreatedAt:  r.CreatedAt,
			UpdatedAt:  r.UpdatedAt,
		}
	}
	return out, nil
}
