package medicalrecord

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/platform/db"
)

type recordRepoPG struct {
	q db.Querier
}

func NewRepoPG(q db.Querier) Repository {
	return &recordRepoPG{q: q}
}

const recordCols = `id, patient_id, doctor_id, appointment_id, diagnosis, prescription, notes, attachments,
	created_at, updated_at`

func (r *recordRepoPG) Create(ctx context.Context, m *MedicalRecord) error {
	m.ID = uuid.New()
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	m.normalize()

	presc, attach, err := encodeLists(m)
	if err != nil {
		return fmt.Errorf("medical record create: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO medical_records (id, patient_id, doctor_id, appointment_id, diagnosis, prescription, notes,
			attachments, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		m.ID, m.PatientID, m.DoctorID, m.AppointmentID, m.Diagnosis, presc, m.Notes, attach, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("medical record create: %w", err)
	}
	return nil
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	m, err := scanRecord(r.q.QueryRow(ctx, `SELECT `+recordCols+` FROM medical_records WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("medical record get by id: %w", err)
	}
	return m, nil
}

func (r *recordRepoPG) List(ctx context.Context, f access.Filter) ([]*MedicalRecord, error) {
	query := `SELECT ` + recordCols + ` FROM medical_records`
	var where []string
	var args []interface{}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where = append(where, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		where = append(where, fmt.Sprintf("doctor_id = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("medical record list: %w", err)
	}
	defer rows.Close()

	var items []*MedicalRecord
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("medical record list scan: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *recordRepoPG) Update(ctx context.Context, m *MedicalRecord) error {
	m.UpdatedAt = time.Now().UTC()
	m.normalize()

	presc, attach, err := encodeLists(m)
	if err != nil {
		return fmt.Errorf("medical record update: %w", err)
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE medical_records SET patient_id=$2, doctor_id=$3, appointment_id=$4, diagnosis=$5,
			prescription=$6, notes=$7, attachments=$8, updated_at=$9
		WHERE id = $1`,
		m.ID, m.PatientID, m.DoctorID, m.AppointmentID, m.Diagnosis, presc, m.Notes, attach, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("medical record update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(m.ID)
	}
	return nil
}

func (r *recordRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("medical record delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func encodeLists(m *MedicalRecord) ([]byte, []byte, error) {
	presc, err := json.Marshal(m.Prescription)
	if err != nil {
		return nil, nil, err
	}
	attach, err := json.Marshal(m.Attachments)
	if err != nil {
		return nil, nil, err
	}
	return presc, attach, nil
}

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var m MedicalRecord
	var presc, attach []byte
	err := row.Scan(&m.ID, &m.PatientID, &m.DoctorID, &m.AppointmentID, &m.Diagnosis, &presc, &m.Notes, &attach,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(presc, &m.Prescription); err != nil {
		return nil, fmt.Errorf("decode prescription: %w", err)
	}
	if err := json.Unmarshal(attach, &m.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	m.normalize()
	return &m, nil
}
