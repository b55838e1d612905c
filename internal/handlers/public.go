package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PublicSubmissionRequest is an anonymous review sent through a shared form.
// Content and author are checked by the pipeline after the form resolves, so
// an unknown form is reported before anything about the body.
type PublicSubmissionRequest struct {
	Content string  `json:"content"`
	Author  *string `json:"author"`
}

// GetPublicForm shows what a visitor needs to fill in a form, nothing more.
func (h *Handler) GetPublicForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.ResolvePublic(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form.Public())
}

// SubmitPublicReview handles anonymous submissions. An unknown form is
// reported before the body is read.
func (h *Handler) SubmitPublicReview(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "uuid")
	if _, err := h.forms.ResolvePublic(r.Context(), publicID); err != nil {
		writeError(w, r, err)
		return
	}

	var req PublicSubmissionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.pipeline.SubmitPublic(r.Context(), publicID, req.Content, req.Author); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Thank you for your feedback!")
}
