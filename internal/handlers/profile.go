package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/askmate/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// ProfileHandler provides self-service profile endpoints.
type ProfileHandler struct {
	identity *services.IdentityService
}

func NewProfileHandler(identity *services.IdentityService) *ProfileHandler {
	return &ProfileHandler{identity: identity}
}

// ProfileRouter registers profile routes. All routes require a token.
func ProfileRouter(r chi.Router, identity *services.IdentityService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewProfileHandler(identity)

	r.Use(authMiddleware)
	r.Get("/profile", handler.GetProfile)
	r.Put("/profile", handler.UpdateProfile)
	r.Delete("/profile", handler.DeleteAccount)
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.identity.GetProfile(r.Context(), principal)
	if err != nil {
		writeServiceError(w, err, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	Email                  *string  `json:"email"`
	Password               *string  `json:"password"`
	Year                   *string  `json:"year"`
	Semester               *string  `json:"semester"`
	Name                   *string  `json:"name"`
	Skills                 []string `json:"skills"`
	ExpertiseLevel         *string  `json:"expertiseLevel"`
	AvailableForUrgentHelp *bool    `json:"availableForUrgentHelp"`
}

// UpdateProfile applies a partial update to the caller's own account.
// The external id is immutable; fields not present are left unchanged.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	profile, err := h.identity.UpdateProfile(r.Context(), principal, services.ProfileUpdate{
		Email:                  req.Email,
		Password:               req.Password,
		Year:                   req.Year,
		Semester:               req.Semester,
		Name:                   req.Name,
		Skills:                 req.Skills,
		ExpertiseLevel:         req.ExpertiseLevel,
		AvailableForUrgentHelp: req.AvailableForUrgentHelp,
	})
	if err != nil {
		writeServiceError(w, err, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// DeleteAccount removes the caller's own account.
func (h *ProfileHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.identity.DeleteAccount(r.Context(), principal); err != nil {
		writeServiceError(w, err, "failed to delete account")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Account deleted"})
}
