package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/askmate/apiserver/types"
)

// LecturerRepository handles persistence for lecturers.
type LecturerRepository struct {
	db *sql.DB
}

func NewLecturerRepository(db *sql.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

func (r *LecturerRepository) GetByID(ctx context.Context, id int) (types.Lecturer, error) {
	const query = `
		SELECT id, lecturer_id, email, password_hash, created_at, updated_at
		FROM lecturers
		WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *LecturerRepository) GetByLecturerID(ctx context.Context, lecturerID string) (types.Lecturer, error) {
	const query = `
		SELECT id, lecturer_id, email, password_hash, created_at, updated_at
		FROM lecturers
		WHERE lecturer_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, lecturerID))
}

func (r *LecturerRepository) List(ctx context.Context) ([]types.Lecturer, error) {
	const query = `
		SELECT id, lecturer_id, email, password_hash, created_at, updated_at
		FROM lecturers
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lecturers []types.Lecturer
	for rows.Next() {
		var lecturer types.Lecturer
		if err := rows.Scan(
			&lecturer.ID,
			&lecturer.LecturerID,
			&lecturer.Email,
			&lecturer.PasswordHash,
			&lecturer.CreatedAt,
			&lecturer.UpdatedAt,
		); err != nil {
			return nil, err
		}
		lecturers = append(lecturers, lecturer)
	}
	return lecturers, rows.Err()
}

func (r *LecturerRepository) Create(ctx context.Context, lecturer types.Lecturer) (types.Lecturer, error) {
	now := time.Now()
	lecturer.CreatedAt = now
	lecturer.UpdatedAt = now

	const query = `
		INSERT INTO lecturers (lecturer_id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		lecturer.LecturerID,
		lecturer.Email,
		lecturer.PasswordHash,
		lecturer.CreatedAt,
		lecturer.UpdatedAt,
	).Scan(&lecturer.ID); err != nil {
		return types.Lecturer{}, mapError(err)
	}
	return lecturer, nil
}

func (r *LecturerRepository) Update(ctx context.Context, lecturer types.Lecturer) (types.Lecturer, error) {
	lecturer.UpdatedAt = time.Now()

	const query = `
		UPDATE lecturers
		SET email = $1,
			password_hash = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(
		ctx,
		query,
		lecturer.Email,
		lecturer.PasswordHash,
		lecturer.UpdatedAt,
		lecturer.ID,
	)
	if err != nil {
		return types.Lecturer{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Lecturer{}, err
	}
	if affected == 0 {
		return types.Lecturer{}, ErrNotFound
	}
	return lecturer, nil
}

func (r *LecturerRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM lecturers WHERE id = $1`
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

func (r *LecturerRepository) scanOne(row *sql.Row) (types.Lecturer, error) {
	var lecturer types.Lecturer
	err := row.Scan(
		&lecturer.ID,
		&lecturer.LecturerID,
		&lecturer.Email,
		&lecturer.PasswordHash,
		&lecturer.CreatedAt,
		&lecturer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Lecturer{}, ErrNotFound
		}
		return types.Lecturer{}, err
	}
	return lecturer, nil
}
