package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/repository"
)

const (
	maxFormNameRunes     = 255
	maxFormQuestionRunes = 1000
	maxPublicIDAttempts  = 5
)

// FormRegistry manages feedback forms and their public identifiers.
type FormRegistry struct {
	forms repository.Forms
	newID func() string
	now   func() time.Time
}

func NewFormRegistry(forms repository.Forms) *FormRegistry {
	return &FormRegistry{
		forms: forms,
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// CreateForm creates a form owned by the caller. A blank question falls back
// to models.DefaultQuestion. The public identifier is drawn fresh and redrawn
// on collision, never reused.
func (r *FormRegistry) CreateForm(ctx context.Context, id Identity, name string, question *string) (*models.FeedbackForm, error) {
	if id.UserID == 0 {
		return nil, ErrUnauthorized
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("form name is required")
	}
	if utf8.RuneCountInString(name) > maxFormNameRunes {
		return nil, validationError(fmt.Sprintf("form name must be at most %d characters", maxFormNameRunes))
	}

	q := models.DefaultQuestion
	if question != nil {
		if trimmed := strings.TrimSpace(*question); trimmed != "" {
			q = trimmed
		}
	}
	if utf8.RuneCountInString(q) > maxFormQuestionRunes {
		return nil, validationError(fmt.Sprintf("question must be at most %d characters", maxFormQuestionRunes))
	}

	for attempt := 1; attempt <= maxPublicIDAttempts; attempt++ {
		form := &models.FeedbackForm{
			UUID:      r.newID(),
			Name:      name,
			Question:  q,
			OwnerID:   id.UserID,
			CreatedAt: r.now(),
		}
		err := r.forms.CreateForm(ctx, form)
		if err == nil {
			return form, nil
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("create form: %w", err)
		}
		log.Warn().Int("attempt", attempt).Msg("public form id collision, drawing a new one")
	}
	return nil, conflictError("could not allocate a unique public form id", repository.ErrDuplicate)
}

// ListForms returns the caller's forms newest first. Admins see every form.
func (r *FormRegistry) ListForms(ctx context.Context, id Identity) ([]models.FeedbackForm, error) {
	ownerID := id.UserID
	if id.IsAdmin() {
		ownerID = 0
	}
	forms, err := r.forms.ListForms(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return forms, nil
}

// GetForm returns a form the caller owns, or any form for admins.
func (r *FormRegistry) GetForm(ctx context.Context, id Identity, formID int64) (*models.FeedbackForm, error) {
	form, err := r.forms.GetForm(ctx, formID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("form not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get form: %w", err)
	}
	if !id.CanAccess(form.OwnerID) {
		return nil, forbiddenError("you do not have access to this form")
	}
	return form, nil
}

// ResolvePublic looks a form up by its public identifier without any
// identity. Unknown and deleted forms fail the same way.
func (r *FormRegistry) ResolvePublic(ctx context.Context, publicID string) (*models.FeedbackForm, error) {
	form, err := r.forms.GetFormByUUID(ctx, strings.TrimSpace(publicID))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("form not found")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve form: %w", err)
	}
	return form, nil
}

// DeleteForm removes the form and all of its reviews.
func (r *FormRegistry) DeleteForm(ctx context.Context, id Identity, formID int64) error {
	if _, err := r.GetForm(ctx, id, formID); err != nil {
		return err
	}
	err := r.forms.DeleteForm(ctx, formID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundError("form not found")
	}
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	return nil
}
