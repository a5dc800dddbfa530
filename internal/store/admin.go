package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/askmate/apiserver/types"
)

// AdminRepository handles persistence for admin accounts.
type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetByID(ctx context.Context, id int) (types.Admin, error) {
	const query = `
		SELECT id, admin_id, email, password_hash, created_at, updated_at
		FROM admins
		WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *AdminRepository) GetByAdminID(ctx context.Context, adminID string) (types.Admin, error) {
	const query = `
		SELECT id, admin_id, email, password_hash, created_at, updated_at
		FROM admins
		WHERE admin_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, adminID))
}

func (r *AdminRepository) Create(ctx context.Context, admin types.Admin) (types.Admin, error) {
	now := time.Now()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	const query = `
		INSERT INTO admins (admin_id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		admin.AdminID,
		admin.Email,
		admin.PasswordHash,
		admin.CreatedAt,
		admin.UpdatedAt,
	).Scan(&admin.ID); err != nil {
		return types.Admin{}, mapError(err)
	}
	return admin, nil
}

func (r *AdminRepository) Update(ctx context.Context, admin types.Admin) (types.Admin, error) {
	admin.UpdatedAt = time.Now()

	const query = `
		UPDATE admins
		SET email = $1,
			password_hash = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, admin.Email, admin.PasswordHash, admin.UpdatedAt, admin.ID)
	if err != nil {
		return types.Admin{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Admin{}, err
	}
	if affected == 0 {
		return types.Admin{}, ErrNotFound
	}
	return admin, nil
}

func (r *AdminRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM admins WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AdminRepository) scanOne(row *sql.Row) (types.Admin, error) {
	var admin types.Admin
	err := row.Scan(
		&admin.ID,
		&admin.AdminID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Admin{}, ErrNotFound
		}
		return types.Admin{}, err
	}
	return admin, nil
}
