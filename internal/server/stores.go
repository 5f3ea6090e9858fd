package server

import (
	"github.com/medicare/medicare/internal/domain/appointment"
	"github.com/medicare/medicare/internal/domain/medicalrecord"
	"github.com/medicare/medicare/internal/domain/user"
	"github.com/medicare/medicare/internal/domain/utilityrequest"
	"github.com/medicare/medicare/internal/platform/db"
	"github.com/medicare/medicare/internal/platform/mongodb"
)

// Stores bundles one repository per record kind, all backed by the same
// driver.
type Stores struct {
	Users           user.Store
	Appointments    appointment.Repository
	MedicalRecords  medicalrecord.Repository
	UtilityRequests utilityrequest.Repository
}

func NewPostgresStores(q db.Querier) Stores {
	return Stores{
		Users:           user.NewRepoPG(q),
		Appointments:    appointment.NewRepoPG(q),
		MedicalRecords:  medicalrecord.NewRepoPG(q),
		UtilityRequests: utilityrequest.NewRepoPG(q),
	}
}

func NewMongoStores(store *mongodb.Store) Stores {
	return Stores{
		Users:           user.NewRepoMongo(store),
		Appointments:    appointment.NewRepoMongo(store),
		MedicalRecords:  medicalrecord.NewRepoMongo(store),
		UtilityRequests: utilityrequest.NewRepoMongo(store),
	}
}

func NewMemoryStores() Stores {
	return Stores{
		Users:           user.NewRepoMemory(),
		Appointments:    appointment.NewRepoMemory(),
		MedicalRecords:  medicalrecord.NewRepoMemory(),
		UtilityRequests: utilityrequest.NewRepoMemory(),
	}
}
