package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/askmate/apiserver/internal/services"
	"github.com/askmate/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// QuestionHandler provides HTTP handlers for the Q&A flow.
type QuestionHandler struct {
	questions *services.QuestionService
}

func NewQuestionHandler(questions *services.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

// QuestionRouter registers question routes on the given router.
func QuestionRouter(r chi.Router, questions *services.QuestionService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewQuestionHandler(questions)

	r.Get("/", handler.ListQuestions)
	r.With(authMiddleware).Post("/", handler.AskQuestion)
	r.Route("/{questionID}", func(r chi.Router) {
		r.Get("/", handler.GetQuestion)
		r.With(authMiddleware).Post("/answers", handler.PostAnswer)
		r.With(authMiddleware).Post("/answers/{answerID}/accept", handler.AcceptAnswer)
	})
}

// ListQuestions returns questions. Query params: moduleId, resolved
// ("true"/"false"; absent returns both).
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	var resolved *bool
	if raw := strings.TrimSpace(r.URL.Query().Get("resolved")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid resolved filter")
			return
		}
		resolved = &value
	}

	questions, err := h.questions.List(r.Context(), queryInt(r, "moduleId"), resolved)
	if err != nil {
		writeServiceError(w, err, "failed to list questions")
		return
	}
	if questions == nil {
		questions = []types.Question{}
	}
	writeJSON(w, http.StatusOK, questions)
}

type askQuestionRequest struct {
	Title           string   `json:"title" validate:"required"`
	Description     string   `json:"description" validate:"required"`
	ModuleID        int      `json:"moduleId" validate:"required"`
	Topic           string   `json:"topic"`
	Tags            []string `json:"tags"`
	DifficultyLevel string   `json:"difficultyLevel" validate:"omitempty,oneof=Easy Medium Hard"`
	UrgencyLevel    string   `json:"urgencyLevel" validate:"omitempty,oneof=Normal Urgent"`
}

func (h *QuestionHandler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req askQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid fields")
		return
	}

	question, err := h.questions.Ask(r.Context(), principal, services.AskInput{
		Title:           req.Title,
		Description:     req.Description,
		ModuleID:        req.ModuleID,
		Topic:           req.Topic,
		Tags:            req.Tags,
		DifficultyLevel: req.DifficultyLevel,
		UrgencyLevel:    req.UrgencyLevel,
	})
	if err != nil {
		writeServiceError(w, err, "failed to create question")
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

// QuestionDetail is a question together with its answers.
type QuestionDetail struct {
	Question types.Question `json:"question"`
	Answers  []types.Answer `json:"answers"`
}

func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "questionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}

	question, answers, err := h.questions.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to load question")
		return
	}
	if answers == nil {
		answers = []types.Answer{}
	}
	writeJSON(w, http.StatusOK, QuestionDetail{Question: question, Answers: answers})
}

type postAnswerRequest struct {
	Content              string `json:"content" validate:"required"`
	IsConceptBased       bool   `json:"isConceptBased"`
	IsAssignmentSolution bool   `json:"isAssignmentSolution"`
}

func (h *QuestionHandler) PostAnswer(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	questionID, err := urlParamInt(r, "questionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}

	var req postAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid fields")
		return
	}

	answer, err := h.questions.Answer(r.Context(), principal, questionID, services.AnswerInput{
		Content:              req.Content,
		IsConceptBased:       req.IsConceptBased,
		IsAssignmentSolution: req.IsAssignmentSolution,
	})
	if err != nil {
		writeServiceError(w, err, "failed to post answer")
		return
	}
	writeJSON(w, http.StatusCreated, answer)
}

// AcceptAnswer marks an answer accepted and resolves the question.
func (h *QuestionHandler) AcceptAnswer(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	questionID, err := urlParamInt(r, "questionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}
	answerID, err := urlParamInt(r, "answerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid answer id")
		return
	}

	answer, err := h.questions.Accept(r.Context(), principal, questionID, answerID)
	if err != nil {
		writeServiceError(w, err, "failed to accept answer")
		return
	}
	writeJSON(w, http.StatusOK, answer)
}
