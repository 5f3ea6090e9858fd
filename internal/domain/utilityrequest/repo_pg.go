package utilityrequest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/platform/db"
)

type requestRepoPG struct {
	q db.Querier
}

func NewRepoPG(q db.Querier) Repository {
	return &requestRepoPG{q: q}
}

const requestCols = `id, doctor_id, item_name, item_type, quantity, urgency, reason, status, admin_notes,
	created_at, updated_at`

func (r *requestRepoPG) Create(ctx context.Context, u *UtilityRequest) error {
	u.ID = uuid.New()
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.q.Exec(ctx, `
		INSERT INTO utility_requests (id, doctor_id, item_name, item_type, quantity, urgency, reason, status,
			admin_notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		u.ID, u.DoctorID, u.ItemName, string(u.ItemType), u.Quantity, string(u.Urgency), u.Reason, string(u.Status),
		u.AdminNotes, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("utility request create: %w", err)
	}
	return nil
}

func (r *requestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*UtilityRequest, error) {
	u, err := scanRequest(r.q.QueryRow(ctx, `SELECT `+requestCols+` FROM utility_requests WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("utility request get by id: %w", err)
	}
	return u, nil
}

func (r *requestRepoPG) List(ctx context.Context, f access.Filter) ([]*UtilityRequest, error) {
	query := `SELECT ` + requestCols + ` FROM utility_requests`
	var args []interface{}
	if f.DoctorID != nil {
		query += ` WHERE doctor_id = $1`
		args = append(args, *f.DoctorID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("utility request list: %w", err)
	}
	defer rows.Close()

	var items []*UtilityRequest
	for rows.Next() {
		u, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("utility request list scan: %w", err)
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

func (r *requestRepoPG) Update(ctx context.Context, u *UtilityRequest) error {
	u.UpdatedAt = time.Now().UTC()
	tag, err := r.q.Exec(ctx, `
		UPDATE utility_requests SET doctor_id=$2, item_name=$3, item_type=$4, quantity=$5, urgency=$6,
			reason=$7, status=$8, admin_notes=$9, updated_at=$10
		WHERE id = $1`,
		u.ID, u.DoctorID, u.ItemName, string(u.ItemType), u.Quantity, string(u.Urgency), u.Reason, string(u.Status),
		u.AdminNotes, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("utility request update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(u.ID)
	}
	return nil
}

func (r *requestRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM utility_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("utility request delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func scanRequest(row pgx.Row) (*UtilityRequest, error) {
	var u UtilityRequest
	var itemType, urgency, status string
	err := row.Scan(&u.ID, &u.DoctorID, &u.ItemName, &itemType, &u.Quantity, &urgency, &u.Reason, &status,
		&u.AdminNotes, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.ItemType, u.Urgency, u.Status = ItemType(itemType), Urgency(urgency), Status(status)
	return &u, nil
}
