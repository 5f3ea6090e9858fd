package utilityrequest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/platform/mongodb"
)

type requestDoc struct {
	ID         string    `bson:"_id"`
	Doctor     string    `bson:"doctor"`
	ItemName   string    `bson:"itemName"`
	ItemType   string    `bson:"itemType"`
	Quantity   int       `bson:"quantity"`
	Urgency    string    `bson:"urgency"`
	Reason     string    `bson:"reason"`
	Status     string    `bson:"status"`
	AdminNotes string    `bson:"adminNotes,omitempty"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

func toRequestDoc(u *UtilityRequest) requestDoc {
	return requestDoc{
		ID: u.ID.String(), Doctor: u.DoctorID.String(), ItemName: u.ItemName, ItemType: string(u.ItemType),
		Quantity: u.Quantity, Urgency: string(u.Urgency), Reason: u.Reason, Status: string(u.Status),
		AdminNotes: u.AdminNotes, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (d requestDoc) request() (*UtilityRequest, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("utility request doc id %q: %w", d.ID, err)
	}
	doctor, err := uuid.Parse(d.Doctor)
	if err != nil {
		return nil, fmt.Errorf("utility request doc %s: bad doctor %q: %w", d.ID, d.Doctor, err)
	}
	return &UtilityRequest{
		ID: id, DoctorID: doctor, ItemName: d.ItemName, ItemType: ItemType(d.ItemType), Quantity: d.Quantity,
		Urgency: Urgency(d.Urgency), Reason: d.Reason, Status: Status(d.Status), AdminNotes: d.AdminNotes,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}, nil
}

type requestRepoMongo struct {
	coll *mongo.Collection
}

func NewRepoMongo(store *mongodb.Store) Repository {
	return &requestRepoMongo{coll: store.DB.Collection(mongodb.UtilityRequestsCollection)}
}

func (r *requestRepoMongo) Create(ctx context.Context, u *UtilityRequest) error {
	u.ID = uuid.New()
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, toRequestDoc(u)); err != nil {
		return fmt.Errorf("utility request create: %w", err)
	}
	return nil
}

func (r *requestRepoMongo) GetByID(ctx context.Context, id uuid.UUID) (*UtilityRequest, error) {
	var d requestDoc
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&d)
	if mongodb.IsNoDocuments(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("utility request get by id: %w", err)
	}
	return d.request()
}

func (r *requestRepoMongo) List(ctx context.Context, f access.Filter) ([]*UtilityRequest, error) {
	cur, err := r.coll.Find(ctx, listFilter(f), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("utility request list: %w", err)
	}
	var docs []requestDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("utility request list decode: %w", err)
	}

	items := make([]*UtilityRequest, 0, len(docs))
	for _, d := range docs {
		u, err := d.request()
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, nil
}

func (r *requestRepoMongo) Update(ctx context.Context, u *UtilityRequest) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: u.ID.String()}}, toRequestDoc(u))
	if err != nil {
		return fmt.Errorf("utility request update: %w", err)
	}
	if res.MatchedCount == 0 {
		return notFound(u.ID)
	}
	return nil
}

func (r *requestRepoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return fmt.Errorf("utility request delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// listFilter scopes requests to one doctor; patient ids do not apply.
func listFilter(f access.Filter) bson.D {
	if f.DoctorID == nil {
		return bson.D{}
	}
	return bson.D{{Key: "doctor", Value: f.DoctorID.String()}}
}
