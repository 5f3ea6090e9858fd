package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medicare/medicare/internal/domain/access"
	"github.com/medicare/medicare/internal/platform/apperr"
	"github.com/medicare/medicare/internal/platform/auth"
	"github.com/medicare/medicare/internal/platform/db"
)

var ErrEmailTaken = apperr.Validation("User already exists")

type userRepoPG struct {
	q db.Querier
}

func NewRepoPG(q db.Querier) Store {
	return &userRepoPG{q: q}
}

const userCols = `id, name, email, password, role, phone, address, gender, specialization,
	is_verified, created_at, updated_at`

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	u.Email = NormalizeEmail(u.Email)

	_, err := r.q.Exec(ctx, `
		INSERT INTO users (id, name, email, password, role, phone, address, gender, specialization,
			is_verified, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		u.ID, u.Name, u.Email, u.Password, string(u.Role), u.Phone, u.Address, u.Gender, u.Specialization,
		u.IsVerified, u.CreatedAt, u.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("No user found with id %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("user get by id: %w", err)
	}
	return u, nil
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, NormalizeEmail(email)))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("No user found with email %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("user get by email: %w", err)
	}
	return u, nil
}

func (r *userRepoPG) List(ctx context.Context, f access.Filter) ([]*User, error) {
	query := `SELECT ` + userCols + ` FROM users`
	var where []string
	var args []interface{}
	idx := 1
	if f.Role != nil {
		where = append(where, fmt.Sprintf("role = $%d", idx))
		args = append(args, string(*f.Role))
		idx++
	}
	if f.Verified != nil {
		where = append(where, fmt.Sprintf("is_verified = $%d", idx))
		args = append(args, *f.Verified)
		idx++
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("user list: %w", err)
	}
	defer rows.Close()

	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("user list scan: %w", err)
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now().UTC()
	u.Email = NormalizeEmail(u.Email)
	tag, err := r.q.Exec(ctx, `
		UPDATE users SET name=$2, email=$3, password=$4, role=$5, phone=$6, address=$7, gender=$8,
			specialization=$9, is_verified=$10, updated_at=$11
		WHERE id = $1`,
		u.ID, u.Name, u.Email, u.Password, string(u.Role), u.Phone, u.Address, u.Gender,
		u.Specialization, u.IsVerified, u.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("user update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("No user found with id %s", u.ID)
	}
	return nil
}

func (r *userRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("user delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("No user found with id %s", id)
	}
	return nil
}

func (r *userRepoPG) Resolve(ctx context.Context, ids []uuid.UUID, p Projection) (map[uuid.UUID]Snapshot, error) {
	out := make(map[uuid.UUID]Snapshot)
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.q.Query(ctx, `SELECT `+userCols+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("user resolve: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("user resolve scan: %w", err)
		}
		out[u.ID] = p.Project(u)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &role, &u.Phone, &u.Address, &u.Gender, &u.Specialization,
		&u.IsVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	return &u, nil
}
