package handler

import (
	"net/http"

	"github.com/yndnr/snapback/internal/core/domain"
)

// handleListUsers handles GET /users.
func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	h.respondWithUsers(w, r, http.StatusOK)
}

// handleCreateUser handles POST /users.
func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrMissingArgument.Code, "email is required", nil)
		return
	}

	if err := h.users.CreateUser(r.Context(), domain.NewUser(req.Email, req.Name)); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondWithUsers(w, r, http.StatusCreated)
}

// handleUpdateUser handles PUT /users/{email}.
func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	var req UpdateUserRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if email == "" || req.Name == "" {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrMissingArgument.Code, "email and name are required", nil)
		return
	}

	if err := h.users.UpdateUser(r.Context(), domain.NewUser(email, req.Name)); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondWithUsers(w, r, http.StatusOK)
}

// handleRollbackUser handles POST /users/{email}/rollback.
func (h *Handler) handleRollbackUser(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if email == "" {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrMissingArgument.Code, "email is required", nil)
		return
	}

	if err := h.users.RollbackUser(r.Context(), email); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondWithUsers(w, r, http.StatusCreated)
}

// respondWithUsers writes the current listing with the given status.
func (h *Handler) respondWithUsers(w http.ResponseWriter, r *http.Request, status int) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, status, toUserResponses(users))
}
