// Package repository persists users, feedback forms and reviews.
//
// Two implementations exist: Postgres for deployments and Memory for tests and
// local runs. Both keep the same guarantees: a review insert is atomic, and
// deleting a form or user removes every dependent review in the same unit of
// work.
package repository

import (
	"context"
	"errors"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("repository: not found")
	ErrDuplicate = errors.New("repository: duplicate key")
)

// Users stores accounts. Emails are unique.
type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	// DeleteUser removes the user, their forms and every review in their
	// account scope atomically.
	DeleteUser(ctx context.Context, id int64) error
}

// Forms stores feedback forms. Public UUIDs are unique.
type Forms interface {
	CreateForm(ctx context.Context, f *models.FeedbackForm) error
	GetForm(ctx context.Context, id int64) (*models.FeedbackForm, error)
	GetFormByUUID(ctx context.Context, uuid string) (*models.FeedbackForm, error)
	// ListForms returns forms newest first. ownerID 0 lists every form.
	ListForms(ctx context.Context, ownerID int64) ([]models.FeedbackForm, error)
	// DeleteForm removes the form and its reviews atomically.
	DeleteForm(ctx context.Context, id int64) error
}

// Reviews stores classified reviews.
type Reviews interface {
	// InsertReview validates and stores r, assigning its ID. ErrNotFound is
	// returned when the owning user or form no longer exists.
	InsertReview(ctx context.Context, r *models.Review) error
	// ListReviews returns reviews in scope, newest first.
	ListReviews(ctx context.Context, scope models.Scope, limit, offset int) ([]models.Review, error)
	// Summarize counts reviews in scope per label and returns the limit most
	// recent ones ordered by created_at desc, id desc, from one snapshot.
	Summarize(ctx context.Context, scope models.Scope, limit int) (models.SentimentCounts, []models.Review, error)
}

// Store is everything the services need from persistence.
type Store interface {
	Users
	Forms
	Reviews
	Ping(ctx context.Context) error
}
