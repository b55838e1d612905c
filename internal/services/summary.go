package services

import (
	"context"
	"fmt"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/repository"
)

const (
	DefaultRecentLimit = 5
	MaxRecentLimit     = 50

	DefaultListLimit = 100
	MaxListLimit     = 500
)

// Aggregator computes sentiment summaries on read. Nothing it returns is
// cached or stored.
type Aggregator struct {
	reviews repository.Reviews
	forms   *FormRegistry
}

func NewAggregator(reviews repository.Reviews, forms *FormRegistry) *Aggregator {
	return &Aggregator{reviews: reviews, forms: forms}
}

// Summarize counts reviews per label in scope and lists the limit most recent
// ones. An empty scope yields zero counts and an empty list.
func (a *Aggregator) Summarize(ctx context.Context, scope models.Scope, limit int) (*models.DashboardSummary, error) {
	if limit < 0 {
		limit = 0
	}
	counts, recent, err := a.reviews.Summarize(ctx, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("summarize reviews: %w", err)
	}
	if recent == nil {
		recent = []models.Review{}
	}
	return &models.DashboardSummary{
		TotalReviews:  counts.Total(),
		Positive:      counts.Positive,
		Neutral:       counts.Neutral,
		Negative:      counts.Negative,
		LatestReviews: recent,
	}, nil
}

// Dashboard summarizes the caller's whole account.
func (a *Aggregator) Dashboard(ctx context.Context, id Identity) (*models.DashboardSummary, error) {
	if id.UserID == 0 {
		return nil, ErrUnauthorized
	}
	return a.Summarize(ctx, models.AccountScope(id.UserID), DefaultRecentLimit)
}

// FormStats summarizes one form for its owner or an admin. limit 0 means the
// default; anything above MaxRecentLimit is rejected.
func (a *Aggregator) FormStats(ctx context.Context, id Identity, formID int64, limit int) (*models.DashboardSummary, error) {
	switch {
	case limit == 0:
		limit = DefaultRecentLimit
	case limit < 0 || limit > MaxRecentLimit:
		return nil, validationError(fmt.Sprintf("limit must be between 1 and %d", MaxRecentLimit))
	}
	form, err := a.forms.GetForm(ctx, id, formID)
	if err != nil {
		return nil, err
	}
	return a.Summarize(ctx, models.FormScope(form.ID), limit)
}

// ListReviews pages through the caller's account scope, newest first.
// limit 0 means DefaultListLimit.
func (a *Aggregator) ListReviews(ctx context.Context, id Identity, limit, offset int) ([]models.Review, error) {
	if id.UserID == 0 {
		return nil, ErrUnauthorized
	}
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 0 || limit > MaxListLimit {
		return nil, validationError(fmt.Sprintf("limit must be between 1 and %d", MaxListLimit))
	}
	if offset < 0 {
		return nil, validationError("offset must not be negative")
	}
	reviews, err := a.reviews.ListReviews(ctx, models.AccountScope(id.UserID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
