// Package handlers exposes the review services over JSON HTTP.
package handlers

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/services"
)

// ImportHistory lists archived imports. It is optional; without it the
// history endpoint reports the feature as unavailable.
type ImportHistory interface {
	ListImports(ctx context.Context, id services.Identity, limit int64) ([]services.ImportSummary, error)
}

// Deps are the services the HTTP layer delegates to.
type Deps struct {
	Users    *services.UserService
	Forms    *services.FormRegistry
	Pipeline *services.Pipeline
	Importer *services.Importer
	Summary  *services.Aggregator
	Feed     *services.ReviewFeed
	Imports  ImportHistory

	// AllowedOrigins restricts WebSocket upgrades. Empty allows any origin.
	AllowedOrigins []string
}

type Handler struct {
	users    *services.UserService
	forms    *services.FormRegistry
	pipeline *services.Pipeline
	importer *services.Importer
	summary  *services.Aggregator
	feed     *services.ReviewFeed
	imports  ImportHistory
	origins  []string
	validate *validator.Validate
}

func New(d Deps) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		users:    d.Users,
		forms:    d.Forms,
		pipeline: d.Pipeline,
		importer: d.Importer,
		summary:  d.Summary,
		feed:     d.Feed,
		imports:  d.Imports,
		origins:  d.AllowedOrigins,
		validate: v,
	}
}
