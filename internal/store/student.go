package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/askmate/apiserver/types"
)

// StudentRepository handles persistence for students.
type StudentRepository struct {
	db *sql.DB
}

func NewStudentRepository(db *sql.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) GetByID(ctx context.Context, id int) (types.Student, error) {
	const query = `
		SELECT id, student_id, email, password_hash, year_label, semester_label, created_at, updated_at
		FROM students
		WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *StudentRepository) GetByStudentID(ctx context.Context, studentID string) (types.Student, error) {
	const query = `
		SELECT id, student_id, email, password_hash, year_label, semester_label, created_at, updated_at
		FROM students
		WHERE student_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, studentID))
}

func (r *StudentRepository) List(ctx context.Context) ([]types.Student, error) {
	const query = `
		SELECT id, student_id, email, password_hash, year_label, semester_label, created_at, updated_at
		FROM students
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []types.Student
	for rows.Next() {
		var student types.Student
		if err := rows.Scan(
			&student.ID,
			&student.StudentID,
			&student.Email,
			&student.PasswordHash,
			&student.YearLabel,
			&student.SemesterLabel,
			&student.CreatedAt,
			&student.UpdatedAt,
		); err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func (r *StudentRepository) Create(ctx context.Context, student types.Student) (types.Student, error) {
	now := time.Now()
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `
		INSERT INTO students (student_id, email, password_hash, year_label, semester_label, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		student.StudentID,
		student.Email,
		student.PasswordHash,
		student.YearLabel,
		student.SemesterLabel,
		student.CreatedAt,
		student.UpdatedAt,
	).Scan(&student.ID); err != nil {
		return types.Student{}, mapError(err)
	}
	return student, nil
}

func (r *StudentRepository) Update(ctx context.Context, student types.Student) (types.Student, error) {
	student.UpdatedAt = time.Now()

	const query = `
		UPDATE students
		SET email = $1,
			password_hash = $2,
			year_label = $3,
			semester_label = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		student.Email,
		student.PasswordHash,
		student.YearLabel,
		student.SemesterLabel,
		student.UpdatedAt,
		student.ID,
	)
	if err != nil {
		return types.Student{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Student{}, err
	}
	if affected == 0 {
		return types.Student{}, ErrNotFound
	}
	return student, nil
}

func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM students WHERE id = $1`
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

func (r *StudentRepository) scanOne(row *sql.Row) (types.Student, error) {
	var student types.Student
	err := row.Scan(
		&student.ID,
		&student.StudentID,
		&student.Email,
		&student.PasswordHash,
		&student.YearLabel,
		&student.SemesterLabel,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, ErrNotFound
		}
		return types.Student{}, err
	}
	return student, nil
}
