package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/services"
)

// CreateUserRequest is the admin account creation body.
type CreateUserRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	Role     string  `json:"role" validate:"omitempty,oneof=user admin"`
}

// UpdateUserRequest changes role and/or active flag.
type UpdateUserRequest struct {
	Role     *string `json:"role" validate:"omitempty,oneof=user admin"`
	IsActive *bool   `json:"is_active"`
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.CreateUser(r.Context(), identity(r), services.NewUser{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(chi.URLParam(r, "id"))
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	var req UpdateUserRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	upd := services.UserUpdate{IsActive: req.IsActive}
	if req.Role != nil {
		role := models.Role(*req.Role)
		upd.Role = &role
	}
	user, err := h.users.UpdateUser(r.Context(), identity(r), userID, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes an account with its forms and reviews.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(chi.URLParam(r, "id"))
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if err := h.users.DeleteUser(r.Context(), identity(r), userID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
