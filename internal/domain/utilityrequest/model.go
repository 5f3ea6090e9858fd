package utilityrequest

import (
	"time"

	"github.com/google/uuid"

	"github.com/medicare/medicare/internal/domain/user"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type ItemType string

const (
	ItemEquipment  ItemType = "Equipment"
	ItemMedicine   ItemType = "Medicine"
	ItemConsumable ItemType = "Consumable"
	ItemDevice     ItemType = "Device"
	ItemOther      ItemType = "Other"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemEquipment, ItemMedicine, ItemConsumable, ItemDevice, ItemOther:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyLow      Urgency = "Low"
	UrgencyMedium   Urgency = "Medium"
	UrgencyHigh     Urgency = "High"
	UrgencyCritical Urgency = "Critical"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

type UtilityRequest struct {
	ID         uuid.UUID
	DoctorID   uuid.UUID
	ItemName   string
	ItemType   ItemType
	Quantity   int
	Urgency    Urgency
	Reason     string
	Status     Status
	AdminNotes string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// View is the response shape with the requesting doctor expanded.
type View struct {
	ID         uuid.UUID      `json:"id"`
	Doctor     *user.Snapshot `json:"doctor"`
	ItemName   string         `json:"itemName"`
	ItemType   ItemType       `json:"itemType"`
	Quantity   int            `json:"quantity"`
	Urgency    Urgency        `json:"urgency"`
	Reason     string         `json:"reason"`
	Status     Status         `json:"status"`
	AdminNotes string         `json:"adminNotes,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// CreateInput is the body of POST /api/utility-requests. Any doctor or
// status in the body is ignored.
type CreateInput struct {
	ItemName string `json:"itemName" validate:"required"`
	ItemType string `json:"itemType" validate:"required,oneof=Equipment Medicine Consumable Device Other"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Urgency  string `json:"urgency" validate:"omitempty,oneof=Low Medium High Critical"`
	Reason   string `json:"reason" validate:"required"`
}

// Patch is the body of PUT /api/utility-requests/:id. Only status and
// adminNotes are ever applied; the other fields exist so they can be
// recognised and dropped.
type Patch struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"adminNotes"`
	ItemName   *string `json:"itemName"`
	ItemType   *string `json:"itemType"`
	Quantity   *int    `json:"quantity"`
	Urgency    *string `json:"urgency"`
	Reason     *string `json:"reason"`
	Doctor     *string `json:"doctor"`
}

// Fields lists the submitted fields by their JSON names.
func (p Patch) Fields() []string {
	var f []string
	add := func(present bool, name string) {
		if present {
			f = append(f, name)
		}
	}
	add(p.Status != nil, "status")
	add(p.AdminNotes != nil, "adminNotes")
	add(p.ItemName != nil, "itemName")
	add(p.ItemType != nil, "itemType")
	add(p.Quantity != nil, "quantity")
	add(p.Urgency != nil, "urgency")
	add(p.Reason != nil, "reason")
	add(p.Doctor != nil, "doctor")
	return f
}
