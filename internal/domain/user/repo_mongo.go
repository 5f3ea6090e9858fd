package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/platform/apperr"
	"github.com/medicare/medicare/internal/platform/auth"
	"github.com/medicare/medicare/internal/platform/mongodb"
)

// userDoc is the stored shape. Ids are kept as their string form so the
// collection stays readable from the mongo shell.
type userDoc struct {
	ID             string    `bson:"_id"`
	Name           string    `bson:"name"`
	Email          string    `bson:"email"`
	Password       string    `bson:"password"`
	Role           string    `bson:"role"`
	Phone          string    `bson:"phone,omitempty"`
	Address        string    `bson:"address,omitempty"`
	Gender         string    `bson:"gender,omitempty"`
	Specialization string    `bson:"specialization,omitempty"`
	IsVerified     bool      `bson:"isVerified"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

func toUserDoc(u *User) userDoc {
	return userDoc{
		ID: u.ID.String(), Name: u.Name, Email: u.Email, Password: u.Password, Role: string(u.Role),
		Phone: u.Phone, Address: u.Address, Gender: u.Gender, Specialization: u.Specialization,
		IsVerified: u.IsVerified, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (d userDoc) user() (*User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("user doc id %q: %w", d.ID, err)
	}
	return &User{
		ID: id, Name: d.Name, Email: d.Email, Password: d.Password, Role: auth.Role(d.Role),
		Phone: d.Phone, Address: d.Address, Gender: d.Gender, Specialization: d.Specialization,
		IsVerified: d.IsVerified, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}, nil
}

type userRepoMongo struct {
	coll *mongo.Collection
}

func NewRepoMongo(store *mongodb.Store) Store {
	return &userRepoMongo{coll: store.DB.Collection(mongodb.UsersCollection)}
}

func (r *userRepoMongo) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	u.Email = NormalizeEmail(u.Email)

	_, err := r.coll.InsertOne(ctx, toUserDoc(u))
	if mongodb.IsDuplicateKey(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

func (r *userRepoMongo) findOne(ctx context.Context, filter bson.D) (*User, error) {
	var d userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, err
	}
	return d.user()
}

func (r *userRepoMongo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := r.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if mongodb.IsNoDocuments(err) {
		return nil, apperr.NotFound("No user found with id %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("user get by id: %w", err)
	}
	return u, nil
}

func (r *userRepoMongo) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := r.findOne(ctx, bson.D{{Key: "email", Value: NormalizeEmail(email)}})
	if mongodb.IsNoDocuments(err) {
		return nil, apperr.NotFound("No user found with email %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("user get by email: %w", err)
	}
	return u, nil
}

func (r *userRepoMongo) List(ctx context.Context, f access.Filter) ([]*User, error) {
	return r.find(ctx, listFilter(f))
}

func listFilter(f access.Filter) bson.D {
	filter := bson.D{}
	if f.Role != nil {
		filter = append(filter, bson.E{Key: "role", Value: string(*f.Role)})
	}
	if f.Verified != nil {
		filter = append(filter, bson.E{Key: "isVerified", Value: *f.Verified})
	}
	return filter
}

func (r *userRepoMongo) find(ctx context.Context, filter bson.D) ([]*User, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("user find: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("user find decode: %w", err)
	}

	items := make([]*User, 0, len(docs))
	for _, d := range docs {
		u, err := d.user()
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, nil
}

func (r *userRepoMongo) Update(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now().UTC()
	u.Email = NormalizeEmail(u.Email)
	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: u.ID.String()}}, toUserDoc(u))
	if mongodb.IsDuplicateKey(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("user update: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("No user found with id %s", u.ID)
	}
	return nil
}

func (r *userRepoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return fmt.Errorf("user delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("No user found with id %s", id)
	}
	return nil
}

func (r *userRepoMongo) Resolve(ctx context.Context, ids []uuid.UUID, p Projection) (map[uuid.UUID]Snapshot, error) {
	out := make(map[uuid.UUID]Snapshot)
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	users, err := r.find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: keys}}}})
	if err != nil {
		return nil, fmt.Errorf("user resolve: %w", err)
	}
	for _, u := range users {
		out[u.ID] = p.Project(u)
	}
	return out, nil
}
