package integration

import (
	"context"
	"testing"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/domain/user"
	"github.com/medicare/medicare/internal/domain/utilityrequest"
	"github.com/medicare/medicare/internal/platform/auth"
)

func TestUtilityRequestRepoPG(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	users := user.NewRepoPG(globalPool)
	repo := utilityrequest.NewRepoPG(globalPool)

	house := createUser(t, users, "house", auth.RoleDoctor, true)
	grey := createUser(t, users, "grey", auth.RoleDoctor, true)

	mk := func(doctor *user.User, item string) *utilityrequest.UtilityRequest {
		r := &utilityrequest.UtilityRequest{
			DoctorID: doctor.ID,
			ItemName: item,
			ItemType: utilityrequest.ItemEquipment,
			Quantity: 2,
			Urgency:  utilityrequest.UrgencyHigh,
			Reason:   "ward 3",
			Status:   utilityrequest.StatusPending,
		}
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
		return r
	}
	mine := mk(house, "Stethoscope")
	mk(grey, "Defibrillator pads")

	got, err := repo.List(ctx, access.Filter{DoctorID: &house.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ItemName != "Stethoscope" {
		t.Errorf("unexpected list %v", got)
	}

	mine.Status = utilityrequest.StatusApproved
	mine.AdminNotes = "ordered"
	if err := repo.Update(ctx, mine); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, err := repo.GetByID(ctx, mine.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != utilityrequest.StatusApproved || stored.AdminNotes != "ordered" {
		t.Errorf("unexpected request %+v", stored)
	}
}
