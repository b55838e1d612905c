package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CreateFormRequest creates a public collection form. Question defaults to
// the standard prompt when omitted.
type CreateFormRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Question *string `json:"question" validate:"omitempty,max=1000"`
}

func (h *Handler) CreateForm(w http.ResponseWriter, r *http.Request) {
	var req CreateFormRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	form, err := h.forms.CreateForm(r.Context(), identity(r), req.Name, req.Question)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, form)
}

// ListForms returns the caller's forms, or every form for admins.
func (h *Handler) ListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.forms.ListForms(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forms)
}

func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(chi.URLParam(r, "id"))
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid form id")
		return
	}

	form, err := h.forms.GetForm(r.Context(), identity(r), formID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// DeleteForm removes the form together with its reviews.
func (h *Handler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(chi.URLParam(r, "id"))
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid form id")
		return
	}

	if err := h.forms.DeleteForm(r.Context(), identity(r), formID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FormStats summarizes the reviews submitted through one form.
func (h *Handler) FormStats(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(chi.URLParam(r, "id"))
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid form id")
		return
	}
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	stats, err := h.summary.FormStats(r.Context(), identity(r), formID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
