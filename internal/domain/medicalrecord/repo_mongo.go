package medicalrecord

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

type recordDoc struct {
	ID           string         `bson:"_id"`
	Patient      string         `bson:"patient"`
	Doctor       string         `bson:"doctor"`
	Appointment  string         `bson:"appointment,omitempty"`
	Diagnosis    string         `bson:"diagnosis"`
	Prescription []Prescription `bson:"prescription"`
	Notes        string         `bson:"notes,omitempty"`
	Attachments  []Attachment   `bson:"attachments"`
	CreatedAt    time.Time      `bson:"createdAt"`
	UpdatedAt    time.Time      `bson:"updatedAt"`
}

func toRecordDoc(m *MedicalRecord) recordDoc {
	d := recordDoc{
		ID: m.ID.String(), Patient: m.PatientID.String(), Doctor: m.DoctorID.String(),
		Diagnosis: m.Diagnosis, Prescription: m.Prescription, Notes: m.Notes, Attachments: m.Attachments,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
	if m.AppointmentID != nil {
		d.Appointment = m.AppointmentID.String()
	}
	return d
}

func (d recordDoc) record() (*MedicalRecord, error) {
	parse := func(s string) (uuid.UUID, error) {
		id, err := uuid.Parse(s)
		if err != nil {
			return uuid.Nil, fmt.Errorf("medical record doc %s: bad id %q: %w", d.ID, s, err)
		}
		return id, nil
	}
	m := &MedicalRecord{
		Diagnosis: d.Diagnosis, Prescription: d.Prescription, Notes: d.Notes, Attachments: d.Attachments,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
	var err error
	if m.ID, err = parse(d.ID); err != nil {
		return nil, err
	}
	if m.PatientID, err = parse(d.Patient); err != nil {
		return nil, err
	}
	if m.DoctorID, err = parse(d.Doctor); err != nil {
		return nil, err
	}
	if d.Appointment != "" {
		aid, err := parse(d.Appointment)
		if err != nil {
			return nil, err
		}
		m.AppointmentID = &aid
	}
	m.normalize()
	return m, nil
}

type recordRepoMongo struct {
	coll *mongo.Collection
}

func NewRepoMongo(store *mongodb.Store) Repository {
	return &recordRepoMongo{coll: store.DB.Collection(mongodb.MedicalRecordsCollection)}
}

func (r *recordRepoMongo) Create(ctx context.Context, m *MedicalRecord) error {
	m.ID = uuid.New()
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	m.normalize()
	if _, err := r.coll.InsertOne(ctx, toRecordDoc(m)); err != nil {
		return fmt.Errorf("medical record create: %w", err)
	}
	return nil
}

func (r *recordRepoMongo) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	var d recordDoc
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&d)
	if mongodb.IsNoDocuments(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("medical record get by id: %w", err)
	}
	return d.record()
}

func (r *recordRepoMongo) List(ctx context.Context, f access.Filter) ([]*MedicalRecord, error) {
	cur, err := r.coll.Find(ctx, listFilter(f), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("medical record list: %w", err)
	}
	var docs []recordDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("medical record list decode: %w", err)
	}

	items := make([]*MedicalRecord, 0, len(docs))
	for _, d := range docs {
		m, err := d.record()
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, nil
}

func (r *recordRepoMongo) Update(ctx context.Context, m *MedicalRecord) error {
	m.UpdatedAt = time.Now().UTC()
	m.normalize()
	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: m.ID.String()}}, toRecordDoc(m))
	if err != nil {
		return fmt.Errorf("medical record update: %w", err)
	}
	if res.MatchedCount == 0 {
		return notFound(m.ID)
	}
	return nil
}

func (r *recordRepoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return fmt.Errorf("medical record delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

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
