// Package mongodb connects the document store backend and owns its
// collection names and indexes.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	UsersCollection           = "users"
	AppointmentsCollection    = "appointments"
	MedicalRecordsCollection  = "medicalrecords"
	UtilityRequestsCollection = "utilityrequests"
)

// Store holds the client and the application database.
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Connect opens a client for uri, verifies it with a ping and selects the
// named database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{Client: client, DB: client.Database(database)}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// Ping satisfies db.Pinger for the /health/store endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

// Indexes lists the indexes each collection needs. The unique email index
// backs duplicate registration detection.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "isVerified", Value: 1}}},
		},
		AppointmentsCollection: {
			{Keys: bson.D{{Key: "patient", Value: 1}}},
			{Keys: bson.D{{Key: "doctor", Value: 1}}},
		},
		MedicalRecordsCollection: {
			{Keys: bson.D{{Key: "patient", Value: 1}}},
			{Keys: bson.D{{Key: "doctor", Value: 1}}},
		},
		UtilityRequestsCollection: {
			{Keys: bson.D{{Key: "doctor", Value: 1}}},
		},
	}
}

// EnsureIndexes creates every index from Indexes. Creating an existing
// index is a no-op on the server.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for coll, models := range Indexes() {
		if _, err := s.DB.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// IsNoDocuments reports whether err means the lookup matched nothing.
func IsNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
