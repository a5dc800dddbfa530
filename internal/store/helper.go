package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/askmate/apiserver/types"
	"github.com/lib/pq"
)

// HelperRepository handles persistence for helpers.
type HelperRepository struct {
	db *sql.DB
}

func NewHelperRepository(db *sql.DB) *HelperRepository {
	return &HelperRepository{db: db}
}

const helperColumns = `id, name, student_id, email, password_hash, graduation_year, skills,
	expertise_level, preferred_modules, admin_approved, available_for_urgent_help, reputation,
	created_at, updated_at`

func (r *HelperRepository) GetByID(ctx context.Context, id int) (types.Helper, error) {
	query := `SELECT ` + helperColumns + ` FROM helpers WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *HelperRepository) GetByEmail(ctx context.Context, email string) (types.Helper, error) {
	query := `SELECT ` + helperColumns + ` FROM helpers WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *HelperRepository) GetByStudentID(ctx context.Context, studentID string) (types.Helper, error) {
	query := `SELECT ` + helperColumns + ` FROM helpers WHERE student_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, studentID))
}

func (r *HelperRepository) List(ctx context.Context) ([]types.Helper, error) {
	query := `SELECT ` + helperColumns + ` FROM helpers ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var helpers []types.Helper
	for rows.Next() {
		helper, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		helpers = append(helpers, helper)
	}
	return helpers, rows.Err()
}

func (r *HelperRepository) Create(ctx context.Context, helper types.Helper) (types.Helper, error) {
	now := time.Now()
	helper.CreatedAt = now
	helper.UpdatedAt = now

	const query = `
		INSERT INTO helpers (name, student_id, email, password_hash, graduation_year, skills,
			expertise_level, preferred_modules, admin_approved, available_for_urgent_help,
			reputation, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		helper.Name,
		helper.StudentID,
		helper.Email,
		helper.PasswordHash,
		helper.GraduationYear,
		pq.Array(helper.Skills),
		helper.ExpertiseLevel,
		pq.Array(helper.PreferredModules),
		helper.AdminApproved,
		helper.AvailableForUrgentHelp,
		helper.Reputation,
		helper.CreatedAt,
		helper.UpdatedAt,
	).Scan(&helper.ID); err != nil {
		return types.Helper{}, mapError(err)
	}
	return helper, nil
}

func (r *HelperRepository) Update(ctx context.Context, helper types.Helper) (types.Helper, error) {
	helper.UpdatedAt = time.Now()

	const query = `
		UPDATE helpers
		SET name = $1,
			email = $2,
			password_hash = $3,
			graduation_year = $4,
			skills = $5,
			expertise_level = $6,
			preferred_modules = $7,
			admin_approved = $8,
			available_for_urgent_help = $9,
			reputation = $10,
			updated_at = $11
		WHERE id = $12`
	result, err := r.db.ExecContext(
		ctx,
		query,
		helper.Name,
		helper.Email,
		helper.PasswordHash,
		helper.GraduationYear,
		pq.Array(helper.Skills),
		helper.ExpertiseLevel,
		pq.Array(helper.PreferredModules),
		helper.AdminApproved,
		helper.AvailableForUrgentHelp,
		helper.Reputation,
		helper.UpdatedAt,
		helper.ID,
	)
	if err != nil {
		return types.Helper{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Helper{}, err
	}
	if affected == 0 {
		return types.Helper{}, ErrNotFound
	}
	return helper, nil
}

// SetApproval flips the admin approval gate on a helper account.
func (r *HelperRepository) SetApproval(ctx context.Context, id int, approved bool) (types.Helper, error) {
	const query = `
		UPDATE helpers
		SET admin_approved = $1, updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, approved, time.Now(), id)
	if err != nil {
		return types.Helper{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Helper{}, err
	}
	if affected == 0 {
		return types.Helper{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// AddReputation increments a helper's reputation score. The helper is
// looked up by external student id since answers snapshot that id.
func (r *HelperRepository) AddReputation(ctx context.Context, studentID string, delta int) error {
	const query = `
		UPDATE helpers
		SET reputation = reputation + $1, updated_at = $2
		WHERE student_id = $3`
	_, err := r.db.ExecContext(ctx, query, delta, time.Now(), studentID)
	return err
}

func (r *HelperRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM helpers WHERE id = $1`
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

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *HelperRepository) scanOne(row *sql.Row) (types.Helper, error) {
	helper, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Helper{}, ErrNotFound
		}
		return types.Helper{}, err
	}
	return helper, nil
}

func (r *HelperRepository) scanRow(row rowScanner) (types.Helper, error) {
	var helper types.Helper
	err := row.Scan(
		&helper.ID,
		&helper.Name,
		&helper.StudentID,
		&helper.Email,
		&helper.PasswordHash,
		&helper.GraduationYear,
		pq.Array(&helper.Skills),
		&helper.ExpertiseLevel,
		pq.Array(&helper.PreferredModules),
		&helper.AdminApproved,
		&helper.AvailableForUrgentHelp,
		&helper.Reputation,
		&helper.CreatedAt,
		&helper.UpdatedAt,
	)
	if err != nil {
		return types.Helper{}, err
	}
	return helper, nil
}
