package appointment

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

type appointmentDoc struct {
	ID        string    `bson:"_id"`
	Patient   string    `bson:"patient"`
	Doctor    string    `bson:"doctor"`
	Date      time.Time `bson:"date"`
	Time      string    `bson:"time"`
	Status    string    `bson:"status"`
	Reason    string    `bson:"reason"`
	Notes     string    `bson:"notes,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toAppointmentDoc(a *Appointment) appointmentDoc {
	return appointmentDoc{
		ID: a.ID.String(), Patient: a.PatientID.String(), Doctor: a.DoctorID.String(),
		Date: a.Date, Time: a.Time, Status: string(a.Status), Reason: a.Reason, Notes: a.Notes,
		CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
	}
}

func (d appointmentDoc) appointment() (*Appointment, error) {
	var ids [3]uuid.UUID
	for i, s := range []string{d.ID, d.Patient, d.Doctor} {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("appointment doc %s: bad id %q: %w", d.ID, s, err)
		}
		ids[i] = id
	}
	return &Appointment{
		ID: ids[0], PatientID: ids[1], DoctorID: ids[2],
		Date: d.Date.UTC(), Time: d.Time, Status: Status(d.Status), Reason: d.Reason, Notes: d.Notes,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}, nil
}

type appointmentRepoMongo struct {
	coll *mongo.Collection
}

func NewRepoMongo(store *mongodb.Store) Repository {
	return &appointmentRepoMongo{coll: store.DB.Collection(mongodb.AppointmentsCollection)}
}

func (r *appointmentRepoMongo) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, toAppointmentDoc(a)); err != nil {
		return fmt.Errorf("appointment create: %w", err)
	}
	return nil
}

func (r *appointmentRepoMongo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var d appointmentDoc
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&d)
	if mongodb.IsNoDocuments(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("appointment get by id: %w", err)
	}
	return d.appointment()
}

func (r *appointmentRepoMongo) GetMany(ctx context.Context, ids []uuid.UUID) ([]*Appointment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	return r.find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: keys}}}})
}

func (r *appointmentRepoMongo) List(ctx context.Context, f access.Filter) ([]*Appointment, error) {
	return r.find(ctx, listFilter(f))
}

// listFilter pushes the party constraints of f down to the query.
func listFilter(f access.Filter) bson.D {
	filter := bson.D{}
	if f.PatientID != nil {
		filter = append(filter, bson.E{Key: "patient", Value: f.PatientID.String()})
	}
	if f.DoctorID != nil {
		filter = append(filter, bson.E{Key: "doctor", Value: f.DoctorID.String()})
	}
	return filter
}

func (r *appointmentRepoMongo) find(ctx context.Context, filter bson.D) ([]*Appointment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("appointment find: %w", err)
	}
	var docs []appointmentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("appointment find decode: %w", err)
	}

	items := make([]*Appointment, 0, len(docs))
	for _, d := range docs {
		a, err := d.appointment()
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, nil
}

func (r *appointmentRepoMongo) Update(ctx context.Context, a *Appointment) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: a.ID.String()}}, toAppointmentDoc(a))
	if err != nil {
		return fmt.Errorf("appointment update: %w", err)
	}
	if res.MatchedCount == 0 {
		return notFound(a.ID)
	}
	return nil
}

func (r *appointmentRepoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return fmt.Errorf("appointment delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}
