package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/askmate/apiserver/internal/services"
	"github.com/askmate/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	maxMultipartMemory = 32 << 20
	maxUploadBytes     = 64 << 20

	formFieldFile        = "file"
	formFieldTitle       = "title"
	formFieldDescription = "description"
	formFieldType        = "resourceType"
	formFieldCategory    = "category"
	formFieldURL         = "url"
	formFieldModuleID    = "moduleId"
	formFieldStatus      = "status"
)

// ResourceHandler provides HTTP handlers for resources.
type ResourceHandler struct {
	resources *services.ResourceService
}

func NewResourceHandler(resources *services.ResourceService) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

// ResourceRouter registers resource routes on the given router.
func ResourceRouter(r chi.Router, resources *services.ResourceService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewResourceHandler(resources)

	r.Get("/", handler.ListResources)
	r.With(authMiddleware).Post("/", handler.CreateResource)
	r.Route("/{resourceID}", func(r chi.Router) {
		r.Get("/", handler.GetResource)
		r.Get("/file", handler.DownloadFile)
		r.With(authMiddleware).Get("/history", handler.GetHistory)
		r.With(authMiddleware).Patch("/", handler.UpdateResource)
		r.With(authMiddleware).Put("/", handler.UpdateResource)
		r.With(authMiddleware).Delete("/", handler.DeleteResource)
	})
}

// ListResources returns resources, by default approved ones only.
// Query params: moduleId, userId, status ("all" lifts the filter).
func (h *ResourceHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	input := services.ListInput{
		ModuleID:   queryInt(r, "moduleId"),
		UploadedBy: strings.TrimSpace(r.URL.Query().Get("userId")),
		Status:     strings.TrimSpace(r.URL.Query().Get("status")),
	}

	resources, err := h.resources.List(r.Context(), input)
	if err != nil {
		writeServiceError(w, err, "failed to list resources")
		return
	}
	if resources == nil {
		resources = []types.Resource{}
	}
	writeJSON(w, http.StatusOK, resources)
}

type createResourceRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ResourceType string `json:"resourceType"`
	Category     string `json:"category"`
	URL          string `json:"url"`
	ModuleID     int    `json:"moduleId"`
}

// CreateResource accepts either a JSON body (link resources) or a
// multipart form with a file part (uploads).
func (h *ResourceHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var input services.CreateResourceInput
	if isMultipart(r) {
		input, err = parseMultipartResource(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		var req createResourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		input = services.CreateResourceInput{
			Title:        req.Title,
			Description:  req.Description,
			ResourceType: types.ResourceType(req.ResourceType),
			Category:     req.Category,
			URL:          req.URL,
			ModuleID:     req.ModuleID,
		}
	}

	resource, err := h.resources.Create(r.Context(), principal, input)
	if err != nil {
		writeServiceError(w, err, "failed to create resource")
		return
	}
	writeJSON(w, http.StatusCreated, resource)
}

func (h *ResourceHandler) GetResource(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "resourceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	resource, err := h.resources.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to load resource")
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

// DownloadFile streams a resource's stored file.
func (h *ResourceHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "resourceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	resource, reader, err := h.resources.Open(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to open file")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentTypeFor(resource))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", downloadName(resource)))
	_, _ = io.Copy(w, reader)
}

// GetHistory returns a resource's moderation audit trail.
func (h *ResourceHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "resourceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	events, err := h.resources.History(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to load history")
		return
	}
	if events == nil {
		events = []types.ModerationEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

type updateResourceRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	URL         *string `json:"url"`
	Status      *string `json:"status"`
}

// UpdateResource applies a partial update; only present fields change.
// A multipart body may carry a replacement file alongside the metadata.
func (h *ResourceHandler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := urlParamInt(r, "resourceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	var input services.UpdateResourceInput
	if isMultipart(r) {
		input, err = parseMultipartUpdate(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		var req updateResourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		input = services.UpdateResourceInput{
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			URL:         req.URL,
		}
		if req.Status != nil {
			status := types.ResourceStatus(*req.Status)
			input.Status = &status
		}
	}

	resource, err := h.resources.Update(r.Context(), principal, id, input)
	if err != nil {
		writeServiceError(w, err, "failed to update resource")
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

func (h *ResourceHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := urlParamInt(r, "resourceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	if err := h.resources.Delete(r.Context(), principal, id); err != nil {
		writeServiceError(w, err, "failed to delete resource")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Resource deleted"})
}

func isMultipart(r *http.Request) bool {
	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return contentType == "multipart/form-data"
}

func parseMultipartResource(r *http.Request) (services.CreateResourceInput, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return services.CreateResourceInput{}, fmt.Errorf("invalid multipart form: %w", err)
	}

	moduleID, _ := strconv.Atoi(r.FormValue(formFieldModuleID))
	input := services.CreateResourceInput{
		Title:        r.FormValue(formFieldTitle),
		Description:  r.FormValue(formFieldDescription),
		ResourceType: types.ResourceType(r.FormValue(formFieldType)),
		Category:     r.FormValue(formFieldCategory),
		URL:          r.FormValue(formFieldURL),
		ModuleID:     moduleID,
	}

	file, header, err := r.FormFile(formFieldFile)
	if err == http.ErrMissingFile {
		return input, nil
	}
	if err != nil {
		return services.CreateResourceInput{}, fmt.Errorf("invalid file part: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return services.CreateResourceInput{}, fmt.Errorf("failed to read file: %w", err)
	}

	input.File = &services.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	return input, nil
}

// parseMultipartUpdate reads a partial update from a multipart form.
// Absent form fields stay nil so the service leaves them untouched.
func parseMultipartUpdate(r *http.Request) (services.UpdateResourceInput, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return services.UpdateResourceInput{}, fmt.Errorf("invalid multipart form: %w", err)
	}

	input := services.UpdateResourceInput{
		Title:       multipartField(r, formFieldTitle),
		Description: multipartField(r, formFieldDescription),
		Category:    multipartField(r, formFieldCategory),
		URL:         multipartField(r, formFieldURL),
	}
	if value := multipartField(r, formFieldStatus); value != nil {
		status := types.ResourceStatus(*value)
		input.Status = &status
	}

	file, header, err := r.FormFile(formFieldFile)
	if err == http.ErrMissingFile {
		return input, nil
	}
	if err != nil {
		return services.UpdateResourceInput{}, fmt.Errorf("invalid file part: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return services.UpdateResourceInput{}, fmt.Errorf("failed to read file: %w", err)
	}

	input.File = &services.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	return input, nil
}

func multipartField(r *http.Request, name string) *string {
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

func contentTypeFor(resource types.Resource) string {
	switch resource.ResourceType {
	case types.ResourcePDF:
		return "application/pdf"
	case types.ResourceWord:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case types.ResourceText:
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func downloadName(resource types.Resource) string {
	name := strings.TrimSpace(resource.Title)
	if name == "" {
		name = "resource"
	}
	if ext := filepath.Ext(resource.ObjectKey); ext != "" {
		name += ext
	}
	return name
}
