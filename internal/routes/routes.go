package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/handlers"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/middleware"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/observability"
)

// Limits are the per-IP buckets for unauthenticated write paths. Nil entries
// disable that limit.
type Limits struct {
	Login  *middleware.IPLimiter
	Public *middleware.IPLimiter
}

func throttle(l *middleware.IPLimiter, mw func(*middleware.IPLimiter) func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw(l)
}

func SetupRoutes(r chi.Router, h *handlers.Handler, auth middleware.Authenticator, limits Limits) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", observability.Handler())

	requireAuth := middleware.RequireAuth(auth)

	// Auth
	r.Post("/api/auth/register", h.Register)
	r.With(throttle(limits.Login, middleware.LoginRateLimit)).Post("/api/auth/login", h.Login)
	r.With(requireAuth).Post("/api/auth/logout", h.Logout)
	r.With(requireAuth).Get("/api/auth/me", h.Me)

	// Public form submissions (no account)
	r.Get("/api/public/{uuid}", h.GetPublicForm)
	r.With(throttle(limits.Public, middleware.PublicRateLimit)).Post("/api/public/{uuid}", h.SubmitPublicReview)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/api/reviews", h.CreateReview)
		r.Get("/api/reviews", h.ListReviews)
		r.Post("/api/reviews/import", h.ImportReviews)
		r.Get("/api/reviews/imports", h.ListImports)
		r.Get("/api/dashboard", h.Dashboard)

		r.Post("/api/forms", h.CreateForm)
		r.Get("/api/forms", h.ListForms)
		r.Get("/api/forms/{id}", h.GetForm)
		r.Delete("/api/forms/{id}", h.DeleteForm)
		r.Get("/api/forms/{id}/stats", h.FormStats)

		// Realtime review feed
		r.Get("/ws/reviews", h.ReviewStream)

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/api/users", h.ListUsers)
			r.Post("/api/users", h.CreateUser)
			r.Patch("/api/users/{id}", h.UpdateUser)
			r.Delete("/api/users/{id}", h.DeleteUser)
		})
	})
}
