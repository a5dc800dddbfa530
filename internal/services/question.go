package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/askmate/apiserver/internal/store"
	"github.com/askmate/apiserver/types"
)

// QuestionRepository defines persistence operations for questions.
type QuestionRepository interface {
	Get(ctx context.Context, id int) (types.Question, error)
	List(ctx context.Context, moduleID int, resolved *bool) ([]types.Question, error)
	Create(ctx context.Context, question types.Question) (types.Question, error)
	IncrementViews(ctx context.Context, id int) error
	RecordAnswer(ctx context.Context, id int, answeredAt time.Time) error
	MarkResolved(ctx context.Context, id int) error
}

// AnswerRepository defines persistence operations for answers.
type AnswerRepository interface {
	Get(ctx context.Context, id int) (types.Answer, error)
	ListByQuestion(ctx context.Context, questionID int) ([]types.Answer, error)
	Create(ctx context.Context, answer types.Answer) (types.Answer, error)
	MarkAccepted(ctx context.Context, id int) error
}

// QuestionService handles the Q&A flow: students ask, approved helpers
// answer, and the asking student accepts an answer to resolve.
type QuestionService struct {
	questions QuestionRepository
	answers   AnswerRepository
	helpers   HelperRepository
	modules   ModuleGetter
}

func NewQuestionService(questions QuestionRepository, answers AnswerRepository, helpers HelperRepository, modules ModuleGetter) *QuestionService {
	return &QuestionService{
		questions: questions,
		answers:   answers,
		helpers:   helpers,
		modules:   modules,
	}
}

// AskInput carries a new question.
type AskInput struct {
	Title           string
	Description     string
	ModuleID        int
	Topic           string
	Tags            []string
	DifficultyLevel string
	UrgencyLevel    string
}

// Ask creates a question for the calling student.
func (s *QuestionService) Ask(ctx context.Context, principal types.Principal, input AskInput) (types.Question, error) {
	if principal.Role != types.RoleStudent {
		return types.Question{}, ErrForbidden
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return types.Question{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(input.Description) == "" {
		return types.Question{}, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if input.ModuleID == 0 {
		return types.Question{}, fmt.Errorf("%w: moduleId is required", ErrValidation)
	}
	if _, err := s.modules.Get(ctx, input.ModuleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Question{}, fmt.Errorf("%w: module does not exist", ErrValidation)
		}
		return types.Question{}, err
	}

	if input.DifficultyLevel == "" {
		input.DifficultyLevel = "Medium"
	}
	if input.UrgencyLevel == "" {
		input.UrgencyLevel = "Normal"
	}

	question := types.Question{
		StudentID:       principal.ExternalID,
		Title:           input.Title,
		Description:     input.Description,
		ModuleID:        input.ModuleID,
		Topic:           input.Topic,
		Tags:            input.Tags,
		DifficultyLevel: input.DifficultyLevel,
		UrgencyLevel:    input.UrgencyLevel,
	}
	return s.questions.Create(ctx, question)
}

// List returns questions, optionally narrowed by module and resolution
// state. resolved == nil returns both open and resolved questions.
func (s *QuestionService) List(ctx context.Context, moduleID int, resolved *bool) ([]types.Question, error) {
	return s.questions.List(ctx, moduleID, resolved)
}

// Get fetches a question and bumps its view counter.
func (s *QuestionService) Get(ctx context.Context, id int) (types.Question, []types.Answer, error) {
	question, err := s.questions.Get(ctx, id)
	if err != nil {
		return types.Question{}, nil, err
	}
	if err := s.questions.IncrementViews(ctx, id); err != nil {
		log.Printf("increment views for question %d: %v", id, err)
	} else {
		question.Views++
	}

	answers, err := s.answers.ListByQuestion(ctx, id)
	if err != nil {
		return types.Question{}, nil, err
	}
	return question, answers, nil
}

// AnswerInput carries a new answer.
type AnswerInput struct {
	Content              string
	IsConceptBased       bool
	IsAssignmentSolution bool
}

// Answer posts an answer. Only approved helpers may answer.
func (s *QuestionService) Answer(ctx context.Context, principal types.Principal, questionID int, input AnswerInput) (types.Answer, error) {
	if principal.Role != types.RoleHelper {
		return types.Answer{}, ErrForbidden
	}
	helper, err := s.helpers.GetByStudentID(ctx, principal.ExternalID)
	if err != nil {
		return types.Answer{}, err
	}
	if !helper.AdminApproved {
		return types.Answer{}, fmt.Errorf("%w: helper account is awaiting admin approval", ErrForbidden)
	}

	if strings.TrimSpace(input.Content) == "" {
		return types.Answer{}, fmt.Errorf("%w: content is required", ErrValidation)
	}

	if _, err := s.questions.Get(ctx, questionID); err != nil {
		return types.Answer{}, err
	}

	answer := types.Answer{
		QuestionID:           questionID,
		HelperID:             principal.ExternalID,
		Content:              input.Content,
		IsConceptBased:       input.IsConceptBased,
		IsAssignmentSolution: input.IsAssignmentSolution,
	}
	created, err := s.answers.Create(ctx, answer)
	if err != nil {
		return types.Answer{}, err
	}

	if err := s.questions.RecordAnswer(ctx, questionID, created.CreatedAt); err != nil {
		log.Printf("record answer for question %d: %v", questionID, err)
	}
	return created, nil
}

// Accept marks an answer as accepted, resolves the question, and awards
// the answering helper a reputation point. Only the asking student may
// accept; accepting an already-accepted answer is a no-op.
func (s *QuestionService) Accept(ctx context.Context, principal types.Principal, questionID, answerID int) (types.Answer, error) {
	question, err := s.questions.Get(ctx, questionID)
	if err != nil {
		return types.Answer{}, err
	}
	if question.StudentID != principal.ExternalID {
		return types.Answer{}, ErrForbidden
	}

	answer, err := s.answers.Get(ctx, answerID)
	if err != nil {
		return types.Answer{}, err
	}
	if answer.QuestionID != questionID {
		return types.Answer{}, fmt.Errorf("%w: answer does not belong to this question", ErrValidation)
	}
	if answer.IsAccepted {
		return answer, nil
	}

	if err := s.answers.MarkAccepted(ctx, answerID); err != nil {
		return types.Answer{}, err
	}
	if !question.IsResolved {
		if err := s.questions.MarkResolved(ctx, questionID); err != nil {
			log.Printf("mark question %d resolved: %v", questionID, err)
		}
	}
	if err := s.helpers.AddReputation(ctx, answer.HelperID, 1); err != nil {
		log.Printf("add reputation for helper %s: %v", answer.HelperID, err)
	}

	answer.IsAccepted = true
	return answer, nil
}
