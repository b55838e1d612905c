package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// Postgres is the lib/pq backed Store.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// mapError turns driver errors into repository sentinels.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrNotFound, pqErr.Constraint)
		}
	}
	return err
}

const userColumns = `id, email, password_hash, full_name, role, is_active, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var fullName sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &fullName, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	if fullName.Valid {
		u.FullName = &fullName.String
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, u *models.User) error {
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, full_name, role, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		u.Email, u.PasswordHash, u.FullName, u.Role, u.IsActive,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return mapError(err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return nil
}

func (p *Postgres) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (p *Postgres) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (p *Postgres) UpdateUser(ctx context.Context, u *models.User) error {
	err := p.db.QueryRowContext(ctx,
		`UPDATE users SET email = $2, password_hash = $3, full_name = $4, role = $5, is_active = $6
		 WHERE id = $1
		 RETURNING created_at`,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Role, u.IsActive,
	).Scan(&u.CreatedAt)
	if err != nil {
		return mapError(err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return nil
}

// DeleteUser relies on ON DELETE CASCADE for forms and reviews; the explicit
// deletes keep the cascade inside one transaction even on schemas created
// without it.
func (p *Postgres) DeleteUser(ctx context.Context, id int64) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM reviews WHERE form_id IN (SELECT id FROM feedback_forms WHERE owner_id = $1)`,
		`DELETE FROM reviews WHERE owner_id = $1`,
		`DELETE FROM feedback_forms WHERE owner_id = $1`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete user dependents: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

const formColumns = `id, uuid, name, question, owner_id, created_at`

func scanForm(row interface{ Scan(...any) error }) (*models.FeedbackForm, error) {
	var f models.FeedbackForm
	if err := row.Scan(&f.ID, &f.UUID, &f.Name, &f.Question, &f.OwnerID, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.CreatedAt = f.CreatedAt.UTC()
	return &f, nil
}

func (p *Postgres) CreateForm(ctx context.Context, f *models.FeedbackForm) error {
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO feedback_forms (uuid, name, question, owner_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		f.UUID, f.Name, f.Question, f.OwnerID,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return mapError(err)
	}
	f.CreatedAt = f.CreatedAt.UTC()
	return nil
}

func (p *Postgres) GetForm(ctx context.Context, id int64) (*models.FeedbackForm, error) {
	f, err := scanForm(p.db.QueryRowContext(ctx,
		`SELECT `+formColumns+` FROM feedback_forms WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return f, nil
}

func (p *Postgres) GetFormByUUID(ctx context.Context, publicID string) (*models.FeedbackForm, error) {
	// A malformed UUID would make Postgres fail the cast; treat it as absent.
	parsed, err := uuid.Parse(publicID)
	if err != nil {
		return nil, ErrNotFound
	}
	f, err := scanForm(p.db.QueryRowContext(ctx,
		`SELECT `+formColumns+` FROM feedback_forms WHERE uuid = $1`, parsed.String()))
	if err != nil {
		return nil, mapError(err)
	}
	return f, nil
}

func (p *Postgres) ListForms(ctx context.Context, ownerID int64) ([]models.FeedbackForm, error) {
	query := `SELECT ` + formColumns + ` FROM feedback_forms`
	var args []any
	if ownerID != 0 {
		query += ` WHERE owner_id = $1`
		args = append(args, ownerID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	forms := make([]models.FeedbackForm, 0)
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		forms = append(forms, *f)
	}
	return forms, rows.Err()
}

func (p *Postgres) DeleteForm(ctx context.Context, id int64) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete form: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE form_id = $1`, id); err != nil {
		return fmt.Errorf("delete form reviews: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM feedback_forms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

const reviewColumns = `r.id, r.content, r.author, r.sentiment, r.sentiment_score, r.source, r.owner_id, r.form_id, r.created_at`

func scanReview(row interface{ Scan(...any) error }) (*models.Review, error) {
	var (
		r       models.Review
		author  sql.NullString
		ownerID sql.NullInt64
		formID  sql.NullInt64
	)
	if err := row.Scan(&r.ID, &r.Content, &author, &r.Sentiment, &r.SentimentScore, &r.Source, &ownerID, &formID, &r.CreatedAt); err != nil {
		return nil, err
	}
	if author.Valid {
		r.Author = &author.String
	}
	switch {
	case ownerID.Valid:
		r.Owner = models.UserOwner(ownerID.Int64)
	case formID.Valid:
		r.Owner = models.FormOwner(formID.Int64)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

func (p *Postgres) InsertReview(ctx context.Context, r *models.Review) error {
	if err := r.Validate(); err != nil {
		return err
	}

	var ownerID, formID sql.NullInt64
	if id, ok := r.Owner.UserID(); ok {
		ownerID = sql.NullInt64{Int64: id, Valid: true}
	}
	if id, ok := r.Owner.FormID(); ok {
		formID = sql.NullInt64{Int64: id, Valid: true}
	}
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err := p.db.QueryRowContext(ctx,
		`INSERT INTO reviews (content, author, sentiment, sentiment_score, source, owner_id, form_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		r.Content, r.Author, r.Sentiment, r.SentimentScore, r.Source, ownerID, formID, createdAt,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return mapError(err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return nil
}

// scopeFilter returns the WHERE clause selecting reviews in scope with the
// scope id bound to $1.
func scopeFilter(scope models.Scope) (string, error) {
	switch scope.Kind() {
	case models.ScopeAccount:
		return `(r.owner_id = $1 OR r.form_id IN (SELECT id FROM feedback_forms WHERE owner_id = $1))`, nil
	case models.ScopeForm:
		return `r.form_id = $1`, nil
	}
	return "", fmt.Errorf("unknown scope kind %d", scope.Kind())
}

func (p *Postgres) ListReviews(ctx context.Context, scope models.Scope, limit, offset int) ([]models.Review, error) {
	where, err := scopeFilter(scope)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + reviewColumns + ` FROM reviews r WHERE ` + where +
		` ORDER BY r.created_at DESC, r.id DESC OFFSET $2`
	args := []any{scope.ID(), offset}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	return p.queryReviews(ctx, p.db, query, args...)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (p *Postgres) queryReviews(ctx context.Context, q queryer, query string, args ...any) ([]models.Review, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]models.Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

// Summarize reads counts and the recent list inside one read-only
// repeatable-read transaction so both come from the same snapshot.
func (p *Postgres) Summarize(ctx context.Context, scope models.Scope, limit int) (models.SentimentCounts, []models.Review, error) {
	var counts models.SentimentCounts

	where, err := scopeFilter(scope)
	if err != nil {
		return counts, nil, err
	}

	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return counts, nil, fmt.Errorf("begin summary: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT r.sentiment, COUNT(*) FROM reviews r WHERE `+where+` GROUP BY r.sentiment`, scope.ID())
	if err != nil {
		return counts, nil, fmt.Errorf("count reviews: %w", err)
	}
	for rows.Next() {
		var label models.Sentiment
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			rows.Close()
			return counts, nil, fmt.Errorf("scan count: %w", err)
		}
		counts.Add(label, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return counts, nil, err
	}
	rows.Close()

	recent, err := p.queryReviews(ctx, tx,
		`SELECT `+reviewColumns+` FROM reviews r WHERE `+where+
			` ORDER BY r.created_at DESC, r.id DESC LIMIT $2`, scope.ID(), limit)
	if err != nil {
		return counts, nil, err
	}

	if err := tx.Commit(); err != nil {
		return counts, nil, fmt.Errorf("commit summary: %w", err)
	}
	return counts, recent, nil
}
