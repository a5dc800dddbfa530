package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/askmate/apiserver/types"
)

// YearRepository handles persistence for academic years.
type YearRepository struct {
	db *sql.DB
}

func NewYearRepository(db *sql.DB) *YearRepository {
	return &YearRepository{db: db}
}

func (r *YearRepository) List(ctx context.Context) ([]types.Year, error) {
	const query = `SELECT id, name, created_at, updated_at FROM years ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var years []types.Year
	for rows.Next() {
		var year types.Year
		if err := rows.Scan(&year.ID, &year.Name, &year.CreatedAt, &year.UpdatedAt); err != nil {
			return nil, err
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

func (r *YearRepository) Create(ctx context.Context, year types.Year) (types.Year, error) {
	now := time.Now()
	year.CreatedAt = now
	year.UpdatedAt = now

	const query = `
		INSERT INTO years (name, created_at, updated_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, year.Name, year.CreatedAt, year.UpdatedAt).Scan(&year.ID); err != nil {
		return types.Year{}, mapError(err)
	}
	return year, nil
}

// Delete removes a year. Semesters and modules underneath it go with it
// via the cascading foreign keys.
func (r *YearRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM years WHERE id = $1`
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

// SemesterRepository handles persistence for semesters.
type SemesterRepository struct {
	db *sql.DB
}

func NewSemesterRepository(db *sql.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// List returns semesters, optionally restricted to one year when yearID > 0.
func (r *SemesterRepository) List(ctx context.Context, yearID int) ([]types.Semester, error) {
	const query = `
		SELECT id, name, year_id, created_at, updated_at
		FROM semesters
		WHERE ($1 = 0 OR year_id = $1)
		ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, yearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var semesters []types.Semester
	for rows.Next() {
		var semester types.Semester
		if err := rows.Scan(&semester.ID, &semester.Name, &semester.YearID, &semester.CreatedAt, &semester.UpdatedAt); err != nil {
			return nil, err
		}
		semesters = append(semesters, semester)
	}
	return semesters, rows.Err()
}

func (r *SemesterRepository) Create(ctx context.Context, semester types.Semester) (types.Semester, error) {
	now := time.Now()
	semester.CreatedAt = now
	semester.UpdatedAt = now

	const query = `
		INSERT INTO semesters (name, year_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		semester.Name,
		semester.YearID,
		semester.CreatedAt,
		semester.UpdatedAt,
	).Scan(&semester.ID); err != nil {
		return types.Semester{}, mapError(err)
	}
	return semester, nil
}

func (r *SemesterRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM semesters WHERE id = $1`
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

// ModuleRepository handles persistence for modules.
type ModuleRepository struct {
	db *sql.DB
}

func NewModuleRepository(db *sql.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

func (r *ModuleRepository) Get(ctx context.Context, id int) (types.Module, error) {
	const query = `
		SELECT id, name, code, description, semester_id, created_at, updated_at
		FROM modules
		WHERE id = $1`
	var module types.Module
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&module.ID,
		&module.Name,
		&module.Code,
		&module.Description,
		&module.SemesterID,
		&module.CreatedAt,
		&module.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Module{}, ErrNotFound
		}
		return types.Module{}, err
	}
	return module, nil
}

// List returns modules, optionally restricted to one semester when semesterID > 0.
func (r *ModuleRepository) List(ctx context.Context, semesterID int) ([]types.Module, error) {
	const query = `
		SELECT id, name, code, description, semester_id, created_at, updated_at
		FROM modules
		WHERE ($1 = 0 OR semester_id = $1)
		ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, semesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []types.Module
	for rows.Next() {
		var module types.Module
		if err := rows.Scan(
			&module.ID,
			&module.Name,
			&module.Code,
			&module.Description,
			&module.SemesterID,
			&module.CreatedAt,
			&module.UpdatedAt,
		); err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}
	return modules, rows.Err()
}

func (r *ModuleRepository) Create(ctx context.Context, module types.Module) (types.Module, error) {
	now := time.Now()
	module.CreatedAt = now
	module.UpdatedAt = now

	const query = `
		INSERT INTO modules (name, code, description, semester_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		module.Name,
		module.Code,
		module.Description,
		module.SemesterID,
		module.CreatedAt,
		module.UpdatedAt,
	).Scan(&module.ID); err != nil {
		return types.Module{}, mapError(err)
	}
	return module, nil
}

func (r *ModuleRepository) Update(ctx context.Context, module types.Module) (types.Module, error) {
	module.UpdatedAt = time.Now()

	const query = `
		UPDATE modules
		SET name = $1,
			code = $2,
			description = $3,
			semester_id = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		module.Name,
		module.Code,
		module.Description,
		module.SemesterID,
		module.UpdatedAt,
		module.ID,
	)
	if err != nil {
		return types.Module{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Module{}, err
	}
	if affected == 0 {
		return types.Module{}, ErrNotFound
	}
	return module, nil
}

func (r *ModuleRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM modules WHERE id = $1`
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
