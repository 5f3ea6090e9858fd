package user

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/platform/auth"
)

func TestUserDoc_RoundTripThroughBSON(t *testing.T) {
	created := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	want := &User{
		ID: uuid.New(), Name: "Gregory House", Email: "house@example.com", Password: "$2a$10$hash",
		Role: auth.RoleDoctor, Phone: "555-0100", Address: "Princeton", Gender: "male",
		Specialization: "Diagnostics", IsVerified: true, CreatedAt: created, UpdatedAt: created,
	}

	raw, err := bson.Marshal(toUserDoc(want))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if v, err := bson.Raw(raw).LookupErr("isVerified"); err != nil || !v.Boolean() {
		t.Errorf("expected isVerified=true in document, got %v (err %v)", v, err)
	}

	var d userDoc
	if err := bson.Unmarshal(raw, &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got, err := d.user()
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("timestamps changed: got %v / %v", got.CreatedAt, got.UpdatedAt)
	}
	got.CreatedAt, got.UpdatedAt = want.CreatedAt, want.UpdatedAt
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestUserDoc_OptionalFieldsOmitted(t *testing.T) {
	raw, err := bson.Marshal(toUserDoc(&User{ID: uuid.New(), Name: "pat", Email: "pat@example.com", Role: auth.RolePatient}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"phone", "address", "gender", "specialization"} {
		if _, err := bson.Raw(raw).LookupErr(key); err == nil {
			t.Errorf("expected empty %s to be omitted", key)
		}
	}
}

func TestUserDoc_BadID(t *testing.T) {
	if _, err := (userDoc{ID: "507f1f77bcf86cd799439011"}).user(); err == nil {
		t.Error("expected an error for a non-uuid id")
	}
}

func TestListFilter(t *testing.T) {
	verified := false
	role := auth.RoleDoctor

	tests := []struct {
		name string
		in   access.Filter
		want bson.D
	}{
		{"all users", access.Filter{}, bson.D{}},
		{"doctors", access.Filter{Role: &role}, bson.D{{Key: "role", Value: "doctor"}}},
		{"unverified doctors", access.DoctorFilter(&verified), bson.D{
			{Key: "role", Value: "doctor"},
			{Key: "isVerified", Value: false},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := listFilter(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
