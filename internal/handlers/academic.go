package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/askmate/apiserver/internal/services"
	"github.com/askmate/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// AcademicHandler provides HTTP handlers for the academic hierarchy.
type AcademicHandler struct {
	academic *services.AcademicService
}

func NewAcademicHandler(academic *services.AcademicService) *AcademicHandler {
	return &AcademicHandler{academic: academic}
}

// AcademicCatalogRouter registers the read-only hierarchy routes used
// for browsing.
func AcademicCatalogRouter(r chi.Router, academic *services.AcademicService) {
	handler := NewAcademicHandler(academic)

	r.Get("/years", handler.ListYears)
	r.Get("/semesters", handler.ListSemesters)
	r.Get("/modules", handler.ListModules)
	r.Get("/modules/{moduleID}", handler.GetModule)
}

// AcademicAdminRouter registers the admin-only hierarchy CRUD routes.
func AcademicAdminRouter(r chi.Router, academic *services.AcademicService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewAcademicHandler(academic)

	r.Use(authMiddleware, RequireRoles(types.RoleAdmin))
	r.Get("/years", handler.ListYears)
	r.Post("/years", handler.CreateYear)
	r.Delete("/years/{yearID}", handler.DeleteYear)
	r.Get("/semesters", handler.ListSemesters)
	r.Post("/semesters", handler.CreateSemester)
	r.Delete("/semesters/{semesterID}", handler.DeleteSemester)
	r.Get("/modules", handler.ListModules)
	r.Post("/modules", handler.CreateModule)
	r.Put("/modules/{moduleID}", handler.UpdateModule)
	r.Delete("/modules/{moduleID}", handler.DeleteModule)
}

func (h *AcademicHandler) ListYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.academic.ListYears(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to list years")
		return
	}
	if years == nil {
		years = []types.Year{}
	}
	writeJSON(w, http.StatusOK, years)
}

func (h *AcademicHandler) CreateYear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	year, err := h.academic.CreateYear(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err, "failed to create year")
		return
	}
	writeJSON(w, http.StatusCreated, year)
}

func (h *AcademicHandler) DeleteYear(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "yearID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year id")
		return
	}
	if err := h.academic.DeleteYear(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to delete year")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Year deleted"})
}

// ListSemesters returns semesters, optionally filtered by yearId.
func (h *AcademicHandler) ListSemesters(w http.ResponseWriter, r *http.Request) {
	semesters, err := h.academic.ListSemesters(r.Context(), queryInt(r, "yearId"))
	if err != nil {
		writeServiceError(w, err, "failed to list semesters")
		return
	}
	if semesters == nil {
		semesters = []types.Semester{}
	}
	writeJSON(w, http.StatusOK, semesters)
}

func (h *AcademicHandler) CreateSemester(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		YearID int    `json:"yearId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	semester, err := h.academic.CreateSemester(r.Context(), types.Semester{Name: req.Name, YearID: req.YearID})
	if err != nil {
		writeServiceError(w, err, "failed to create semester")
		return
	}
	writeJSON(w, http.StatusCreated, semester)
}

func (h *AcademicHandler) DeleteSemester(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "semesterID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid semester id")
		return
	}
	if err := h.academic.DeleteSemester(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to delete semester")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Semester deleted"})
}

// ListModules returns the module catalog, optionally filtered by
// semesterId.
func (h *AcademicHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.academic.ListModules(r.Context(), queryInt(r, "semesterId"))
	if err != nil {
		writeServiceError(w, err, "failed to list modules")
		return
	}
	if modules == nil {
		modules = []types.Module{}
	}
	writeJSON(w, http.StatusOK, modules)
}

func (h *AcademicHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "moduleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid module id")
		return
	}
	module, err := h.academic.GetModule(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to load module")
		return
	}
	writeJSON(w, http.StatusOK, module)
}

type moduleRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	SemesterID  int    `json:"semesterId"`
}

func (h *AcademicHandler) CreateModule(w http.ResponseWriter, r *http.Request) {
	var req moduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	module, err := h.academic.CreateModule(r.Context(), types.Module{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		SemesterID:  req.SemesterID,
	})
	if err != nil {
		writeServiceError(w, err, "failed to create module")
		return
	}
	writeJSON(w, http.StatusCreated, module)
}

func (h *AcademicHandler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "moduleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid module id")
		return
	}

	var req moduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	existing, err := h.academic.GetModule(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to load module")
		return
	}

	existing.Name = req.Name
	existing.Code = req.Code
	existing.Description = req.Description
	if req.SemesterID != 0 {
		existing.SemesterID = req.SemesterID
	}

	module, err := h.academic.UpdateModule(r.Context(), existing)
	if err != nil {
		writeServiceError(w, err, "failed to update module")
		return
	}
	writeJSON(w, http.StatusOK, module)
}

func (h *AcademicHandler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "moduleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid module id")
		return
	}
	if err := h.academic.DeleteModule(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to delete module")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Module deleted"})
}
