package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/services"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		services.ErrValidation:     http.StatusBadRequest,
		services.ErrNotFound:       http.StatusNotFound,
		services.ErrForbidden:      http.StatusForbidden,
		services.ErrClassification: http.StatusUnprocessableEntity,
		services.ErrConflict:       http.StatusConflict,
		services.ErrUnauthorized:   http.StatusUnauthorized,
		errors.New("boom"):         http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(services.KindOf(err)), err.Error())
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/reviews", nil)
	w := httptest.NewRecorder()
	writeError(w, r, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Internal server error"}`, w.Body.String())
}

func TestWriteErrorSkipsCanceledRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := httptest.NewRequest(http.MethodGet, "/api/reviews", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	writeError(w, r, context.Canceled)
	assert.Empty(t, w.Body.String())
}

func TestDecodeJSONMessages(t *testing.T) {
	h := New(Deps{})
	cases := []struct {
		body string
		want string
	}{
		{"", "Request body is required"},
		{"{", "Invalid request body"},
		{`{"email":"ana@example.com"}`, "password is required"},
		{`{"email":"ana@example.com","password":"pw","role":"root"}`, "password must be at least 8 characters"},
		{`{"email":"ana@example.com","password":"password123","role":"root"}`, "role must be one of: user, admin"},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(tc.body))
		w := httptest.NewRecorder()
		var req CreateUserRequest
		assert.False(t, h.decodeJSON(w, r, &req), tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), tc.want, tc.body)
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=20&offset=-1&bad=x", nil)
	n, ok := queryInt(r, "limit")
	assert.True(t, ok)
	assert.Equal(t, 20, n)
	_, ok = queryInt(r, "offset")
	assert.False(t, ok)
	_, ok = queryInt(r, "bad")
	assert.False(t, ok)
	n, ok = queryInt(r, "missing")
	assert.True(t, ok)
	assert.Zero(t, n)
}
