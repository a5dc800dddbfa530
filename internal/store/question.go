package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/askmate/apiserver/types"
	"github.com/lib/pq"
)

// QuestionRepository handles persistence for questions.
type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, student_id, title, description, module_id, topic, tags,
	difficulty_level, urgency_level, views, upvotes, answers_count, is_resolved,
	last_answered_at, created_at, updated_at`

func (r *QuestionRepository) Get(ctx context.Context, id int) (types.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	question, err := r.scanRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Question{}, ErrNotFound
		}
		return types.Question{}, err
	}
	return question, nil
}

// List returns questions, optionally filtered by module and resolution state.
// resolved is a tri-state: nil means both resolved and open questions.
func (r *QuestionRepository) List(ctx context.Context, moduleID int, resolved *bool) ([]types.Question, error) {
	query := `SELECT ` + questionColumns + `
		FROM questions
		WHERE ($1 = 0 OR module_id = $1)
		  AND ($2::boolean IS NULL OR is_resolved = $2)
		ORDER BY created_at DESC`

	var resolvedArg sql.NullBool
	if resolved != nil {
		resolvedArg = sql.NullBool{Bool: *resolved, Valid: true}
	}

	rows, err := r.db.QueryContext(ctx, query, moduleID, resolvedArg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []types.Question
	for rows.Next() {
		question, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

func (r *QuestionRepository) Create(ctx context.Context, question types.Question) (types.Question, error) {
	now := time.Now()
	question.CreatedAt = now
	question.UpdatedAt = now

	const query = `
		INSERT INTO questions (student_id, title, description, module_id, topic, tags,
			difficulty_level, urgency_level, views, upvotes, answers_count, is_resolved,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		question.StudentID,
		question.Title,
		question.Description,
		question.ModuleID,
		question.Topic,
		pq.Array(question.Tags),
		question.DifficultyLevel,
		question.UrgencyLevel,
		question.Views,
		question.Upvotes,
		question.AnswersCount,
		question.IsResolved,
		question.CreatedAt,
		question.UpdatedAt,
	).Scan(&question.ID); err != nil {
		return types.Question{}, mapError(err)
	}
	return question, nil
}

// IncrementViews bumps the view counter when a question is fetched.
func (r *QuestionRepository) IncrementViews(ctx context.Context, id int) error {
	const query = `UPDATE questions SET views = views + 1 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// RecordAnswer bumps the answer counter and the last-answered timestamp.
func (r *QuestionRepository) RecordAnswer(ctx context.Context, id int, answeredAt time.Time) error {
	const query = `
		UPDATE questions
		SET answers_count = answers_count + 1, last_answered_at = $1, updated_at = $1
		WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, answeredAt, id)
	return err
}

// MarkResolved flags a question as resolved.
func (r *QuestionRepository) MarkResolved(ctx context.Context, id int) error {
	const query = `UPDATE questions SET is_resolved = TRUE, updated_at = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
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

func (r *QuestionRepository) scanRow(row rowScanner) (types.Question, error) {
	var question types.Question
	var lastAnswered sql.NullTime
	err := row.Scan(
		&question.ID,
		&question.StudentID,
		&question.Title,
		&question.Description,
		&question.ModuleID,
		&question.Topic,
		pq.Array(&question.Tags),
		&question.DifficultyLevel,
		&question.UrgencyLevel,
		&question.Views,
		&question.Upvotes,
		&question.AnswersCount,
		&question.IsResolved,
		&lastAnswered,
		&question.CreatedAt,
		&question.UpdatedAt,
	)
	if err != nil {
		return types.Question{}, err
	}
	if lastAnswered.Valid {
		question.LastAnsweredAt = &lastAnswered.Time
	}
	return question, nil
}

// AnswerRepository handles persistence for answers.
type AnswerRepository struct {
	db *sql.DB
}

func NewAnswerRepository(db *sql.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

const answerColumns = `id, question_id, helper_id, content, is_concept_based,
	is_assignment_solution, upvotes, downvotes, is_accepted, helpful_score, created_at, updated_at`

func (r *AnswerRepository) Get(ctx context.Context, id int) (types.Answer, error) {
	query := `SELECT ` + answerColumns + ` FROM answers WHERE id = $1`
	answer, err := r.scanRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Answer{}, ErrNotFound
		}
		return types.Answer{}, err
	}
	return answer, nil
}

// ListByQuestion returns a question's answers, best-voted first.
func (r *AnswerRepository) ListByQuestion(ctx context.Context, questionID int) ([]types.Answer, error) {
	query := `SELECT ` + answerColumns + `
		FROM answers
		WHERE question_id = $1
		ORDER BY upvotes DESC, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []types.Answer
	for rows.Next() {
		answer, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		answers = append(answers, answer)
	}
	return answers, rows.Err()
}

func (r *AnswerRepository) Create(ctx context.Context, answer types.Answer) (types.Answer, error) {
	now := time.Now()
	answer.CreatedAt = now
	answer.UpdatedAt = now

	const query = `
		INSERT INTO answers (question_id, helper_id, content, is_concept_based,
			is_assignment_solution, upvotes, downvotes, is_accepted, helpful_score,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		answer.QuestionID,
		answer.HelperID,
		answer.Content,
		answer.IsConceptBased,
		answer.IsAssignmentSolution,
		answer.Upvotes,
		answer.Downvotes,
		answer.IsAccepted,
		answer.HelpfulScore,
		answer.CreatedAt,
		answer.UpdatedAt,
	).Scan(&answer.ID); err != nil {
		return types.Answer{}, mapError(err)
	}
	return answer, nil
}

// MarkAccepted flags an answer as the accepted one for its question.
func (r *AnswerRepository) MarkAccepted(ctx context.Context, id int) error {
	const query = `UPDATE answers SET is_accepted = TRUE, updated_at = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
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

func (r *AnswerRepository) scanRow(row rowScanner) (types.Answer, error) {
	var answer types.Answer
	err := row.Scan(
		&answer.ID,
		&answer.QuestionID,
		&answer.HelperID,
		&answer.Content,
		&answer.IsConceptBased,
		&answer.IsAssignmentSolution,
		&answer.Upvotes,
		&answer.Downvotes,
		&answer.IsAccepted,
		&answer.HelpfulScore,
		&answer.CreatedAt,
		&answer.UpdatedAt,
	)
	if err != nil {
		return types.Answer{}, err
	}
	return answer, nil
}
