package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/askmate/apiserver/internal/services"
	"github.com/askmate/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// AdminHandler provides admin-only user management endpoints.
type AdminHandler struct {
	identity *services.IdentityService
}

func NewAdminHandler(identity *services.IdentityService) *AdminHandler {
	return &AdminHandler{identity: identity}
}

// AdminRouter registers admin routes. Every route requires an admin token.
func AdminRouter(r chi.Router, identity *services.IdentityService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewAdminHandler(identity)

	r.Use(authMiddleware, RequireRoles(types.RoleAdmin))
	r.Get("/users", handler.ListUsers)
	r.Patch("/users/{userID}", handler.UpdateUser)
	r.Delete("/users/{userID}", handler.DeleteUser)
}

// ListUsers returns every student, helper, and lecturer account.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	directory, err := h.identity.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, directory)
}

// UpdateUser applies an admin action to an account. The only action is
// helper approval: body {action: approve|disapprove, role: helper}.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		Action string `json:"action"`
		Role   string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if types.Role(req.Role) != types.RoleHelper {
		writeError(w, http.StatusBadRequest, "only helper accounts support admin actions")
		return
	}

	var approved bool
	switch req.Action {
	case "approve":
		approved = true
	case "disapprove":
		approved = false
	default:
		writeError(w, http.StatusBadRequest, "invalid action")
		return
	}

	helper, err := h.identity.SetHelperApproval(r.Context(), id, approved)
	if err != nil {
		writeServiceError(w, err, "failed to update approval")
		return
	}
	writeJSON(w, http.StatusOK, helper)
}

// DeleteUser removes an account; the role comes from the request body.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	role := types.Role(req.Role)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if err := h.identity.DeleteUser(r.Context(), role, id); err != nil {
		writeServiceError(w, err, "failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User deleted"})
}
