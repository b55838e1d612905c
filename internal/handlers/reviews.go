package handlers

import (
	"errors"
	"net/http"
)

// CreateReviewRequest is a manually entered review. Source may only be
// "manual" when present.
type CreateReviewRequest struct {
	Content string `json:"content" validate:"required"`
	Source  string `json:"source" validate:"omitempty,oneof=manual"`
}

// CreateReview stores and classifies one review for the caller.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	review, err := h.pipeline.SubmitManual(r.Context(), identity(r), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// ListReviews returns the caller's account reviews, newest first.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	offset, ok := queryInt(r, "offset")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	reviews, err := h.summary.ListReviews(r.Context(), identity(r), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// ImportReviews ingests a multipart CSV upload sent as the "file" field.
func (h *Handler) ImportReviews(w http.ResponseWriter, r *http.Request) {
	// Room for multipart framing on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.importer.MaxBytes()+64<<10)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, "Expected a multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	report, err := h.importer.ImportCSV(r.Context(), identity(r), header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// ListImports returns the caller's archived imports.
func (h *Handler) ListImports(w http.ResponseWriter, r *http.Request) {
	if h.imports == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Import history is not configured")
		return
	}
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	imports, err := h.imports.ListImports(r.Context(), identity(r), int64(limit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, imports)
}

// Dashboard summarizes every review in the caller's account.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.summary.Dashboard(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
