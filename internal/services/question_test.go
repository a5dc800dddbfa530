package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/askmate/apiserver/internal/store"
	"github.com/askmate/apiserver/types"
)

type fakeQuestionRepo struct {
	questions map[int]types.Question
	nextID    int
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{questions: map[int]types.Question{}, nextID: 1}
}

func (r *fakeQuestionRepo) Get(_ context.Context, id int) (types.Question, error) {
	question, ok := r.questions[id]
	if !ok {
		return types.Question{}, store.ErrNotFound
	}
	return question, nil
}

func (r *fakeQuestionRepo) List(_ context.Context, moduleID int, resolved *bool) ([]types.Question, error) {
	var out []types.Question
	for _, question := range r.questions {
		if moduleID != 0 && question.ModuleID != moduleID {
			continue
		}
		if resolved != nil && question.IsResolved != *resolved {
			continue
		}
		out = append(out, question)
	}
	return out, nil
}

func (r *fakeQuestionRepo) Create(_ context.Context, question types.Question) (types.Question, error) {
	question.ID = r.nextID
	r.nextID++
	question.CreatedAt = time.Now()
	question.UpdatedAt = question.CreatedAt
	r.questions[question.ID] = question
	return question, nil
}

func (r *fakeQuestionRepo) IncrementViews(_ context.Context, id int) error {
	question, ok := r.questions[id]
	if !ok {
		return store.ErrNotFound
	}
	question.Views++
	r.questions[id] = question
	return nil
}

func (r *fakeQuestionRepo) RecordAnswer(_ context.Context, id int, answeredAt time.Time) error {
	question, ok := r.questions[id]
	if !ok {
		return store.ErrNotFound
	}
	question.AnswersCount++
	question.LastAnsweredAt = &answeredAt
	r.questions[id] = question
	return nil
}

func (r *fakeQuestionRepo) MarkResolved(_ context.Context, id int) error {
	question, ok := r.questions[id]
	if !ok {
		return store.ErrNotFound
	}
	question.IsResolved = true
	r.questions[id] = question
	return nil
}

type fakeAnswerRepo struct {
	answers map[int]types.Answer
	nextID  int
}

func newFakeAnswerRepo() *fakeAnswerRepo {
	return &fakeAnswerRepo{answers: map[int]types.Answer{}, nextID: 1}
}

func (r *fakeAnswerRepo) Get(_ context.Context, id int) (types.Answer, error) {
	answer, ok := r.answers[id]
	if !ok {
		return types.Answer{}, store.ErrNotFound
	}
	return answer, nil
}

func (r *fakeAnswerRepo) ListByQuestion(_ context.Context, questionID int) ([]types.Answer, error) {
	var out []types.Answer
	for _, answer := range r.answers {
		if answer.QuestionID == questionID {
			out = append(out, answer)
		}
	}
	return out, nil
}

func (r *fakeAnswerRepo) Create(_ context.Context, answer types.Answer) (types.Answer, error) {
	answer.ID = r.nextID
	r.nextID++
	answer.CreatedAt = time.Now()
	answer.UpdatedAt = answer.CreatedAt
	r.answers[answer.ID] = answer
	return answer, nil
}

func (r *fakeAnswerRepo) MarkAccepted(_ context.Context, id int) error {
	answer, ok := r.answers[id]
	if !ok {
		return store.ErrNotFound
	}
	answer.IsAccepted = true
	r.answers[id] = answer
	return nil
}

func newQuestionService() (*QuestionService, *fakeQuestionRepo, *fakeAnswerRepo, *fakeHelperRepo) {
	questions := newFakeQuestionRepo()
	answers := newFakeAnswerRepo()
	helpers := newFakeHelperRepo()
	modules := &fakeModuleGetter{modules: map[int]types.Module{1: {ID: 1, Name: "Databases", Code: "SE2030"}}}
	service := NewQuestionService(questions, answers, helpers, modules)
	return service, questions, answers, helpers
}

var helperPrincipal = types.Principal{ID: 1, ExternalID: "IT21004455", Role: types.RoleHelper, Email: "it21004455@my.sliit.lk"}

func approveHelper(t *testing.T, helpers *fakeHelperRepo) {
	t.Helper()
	helper, err := helpers.Create(context.Background(), types.Helper{
		StudentID:     helperPrincipal.ExternalID,
		Email:         helperPrincipal.Email,
		AdminApproved: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	helperPrincipal.ID = helper.ID
}

func TestAskQuestion(t *testing.T) {
	service, _, _, _ := newQuestionService()

	question, err := service.Ask(context.Background(), studentPrincipal, AskInput{
		Title:       "How do transactions work?",
		Description: "I do not understand isolation levels.",
		ModuleID:    1,
	})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if question.StudentID != studentPrincipal.ExternalID {
		t.Errorf("studentId = %s", question.StudentID)
	}
	if question.DifficultyLevel != "Medium" || question.UrgencyLevel != "Normal" {
		t.Errorf("defaults not applied: %s/%s", question.DifficultyLevel, question.UrgencyLevel)
	}
}

func TestAskRequiresStudentRole(t *testing.T) {
	service, _, _, _ := newQuestionService()

	_, err := service.Ask(context.Background(), lecturerPrincipal, AskInput{
		Title:       "Test",
		Description: "Test",
		ModuleID:    1,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestGetQuestionBumpsViews(t *testing.T) {
	service, questions, _, _ := newQuestionService()
	ctx := context.Background()

	created, err := service.Ask(ctx, studentPrincipal, AskInput{
		Title:       "Views test",
		Description: "Does the counter move?",
		ModuleID:    1,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, _, err := service.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Views != 1 {
		t.Errorf("views = %d, want 1", got.Views)
	}
	stored, _ := questions.Get(ctx, created.ID)
	if stored.Views != 1 {
		t.Errorf("stored views = %d, want 1", stored.Views)
	}
}

func TestAnswerRequiresApprovedHelper(t *testing.T) {
	service, _, _, helpers := newQuestionService()
	ctx := context.Background()

	question, err := service.Ask(ctx, studentPrincipal, AskInput{
		Title:       "Needs help",
		Description: "Please explain.",
		ModuleID:    1,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Unapproved helper is rejected.
	unapproved, err := helpers.Create(ctx, types.Helper{StudentID: "IT20009999", Email: "it20009999@my.sliit.lk"})
	if err != nil {
		t.Fatal(err)
	}
	principal := types.Principal{ID: unapproved.ID, ExternalID: unapproved.StudentID, Role: types.RoleHelper}
	if _, err := service.Answer(ctx, principal, question.ID, AnswerInput{Content: "Answer"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unapproved helper must be rejected, got %v", err)
	}

	// A student cannot answer at all.
	if _, err := service.Answer(ctx, studentPrincipal, question.ID, AnswerInput{Content: "Answer"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("student must not answer, got %v", err)
	}
}

func TestAnswerAndAcceptFlow(t *testing.T) {
	service, questions, _, helpers := newQuestionService()
	ctx := context.Background()
	approveHelper(t, helpers)

	question, err := service.Ask(ctx, studentPrincipal, AskInput{
		Title:       "Accept flow",
		Description: "Full round trip.",
		ModuleID:    1,
	})
	if err != nil {
		t.Fatal(err)
	}

	answer, err := service.Answer(ctx, helperPrincipal, question.ID, AnswerInput{
		Content:        "Isolation levels control visibility of concurrent writes.",
		IsConceptBased: true,
	})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}

	stored, _ := questions.Get(ctx, question.ID)
	if stored.AnswersCount != 1 || stored.LastAnsweredAt == nil {
		t.Errorf("answer counters not updated: %+v", stored)
	}

	// Only the asking student may accept.
	other := types.Principal{ID: 9, ExternalID: "IT20000001", Role: types.RoleStudent}
	if _, err := service.Accept(ctx, other, question.ID, answer.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-asker accept must be forbidden, got %v", err)
	}

	accepted, err := service.Accept(ctx, studentPrincipal, question.ID, answer.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !accepted.IsAccepted {
		t.Error("answer not marked accepted")
	}

	resolved, _ := questions.Get(ctx, question.ID)
	if !resolved.IsResolved {
		t.Error("question not resolved")
	}

	helper, err := helpers.GetByStudentID(ctx, helperPrincipal.ExternalID)
	if err != nil {
		t.Fatal(err)
	}
	if helper.Reputation != 1 {
		t.Errorf("reputation = %d, want 1", helper.Reputation)
	}

	// Accepting again is a no-op; reputation stays at 1.
	if _, err := service.Accept(ctx, studentPrincipal, question.ID, answer.ID); err != nil {
		t.Fatalf("repeat accept: %v", err)
	}
	helper, _ = helpers.GetByStudentID(ctx, helperPrincipal.ExternalID)
	if helper.Reputation != 1 {
		t.Errorf("repeat accept must not add reputation, got %d", helper.Reputation)
	}
}
