package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
)

// Memory is an in-process Store. The lock is only held for map access, never
// across classification or any other blocking call.
type Memory struct {
	mu      sync.RWMutex
	users   map[int64]models.User
	forms   map[int64]models.FeedbackForm
	reviews map[int64]models.Review

	userSeq   int64
	formSeq   int64
	reviewSeq int64

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[int64]models.User),
		forms:   make(map[int64]models.FeedbackForm),
		reviews: make(map[int64]models.Review),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	m.userSeq++
	u.ID = m.userSeq
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.now()
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range m.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return ErrDuplicate
		}
	}
	u.CreatedAt = existing.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) DeleteUser(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	for rid, r := range m.reviews {
		if models.AccountScope(id).Includes(r.Owner, m.formOwnerLocked(r.Owner)) {
			delete(m.reviews, rid)
		}
	}
	for fid, f := range m.forms {
		if f.OwnerID == id {
			delete(m.forms, fid)
		}
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) CreateForm(ctx context.Context, f *models.FeedbackForm) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[f.OwnerID]; !ok {
		return ErrNotFound
	}
	for _, existing := range m.forms {
		if existing.UUID == f.UUID {
			return ErrDuplicate
		}
	}
	m.formSeq++
	f.ID = m.formSeq
	if f.CreatedAt.IsZero() {
		f.CreatedAt = m.now()
	}
	m.forms[f.ID] = *f
	return nil
}

func (m *Memory) GetForm(ctx context.Context, id int64) (*models.FeedbackForm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.forms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (m *Memory) GetFormByUUID(ctx context.Context, uuid string) (*models.FeedbackForm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, f := range m.forms {
		if f.UUID == uuid {
			f := f
			return &f, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListForms(ctx context.Context, ownerID int64) ([]models.FeedbackForm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.FeedbackForm, 0)
	for _, f := range m.forms {
		if ownerID == 0 || f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) DeleteForm(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.forms[id]; !ok {
		return ErrNotFound
	}
	for rid, r := range m.reviews {
		if formID, ok := r.Owner.FormID(); ok && formID == id {
			delete(m.reviews, rid)
		}
	}
	delete(m.forms, id)
	return nil
}

func (m *Memory) InsertReview(ctx context.Context, r *models.Review) error {
	if err := r.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := r.Owner.UserID(); ok {
		if _, exists := m.users[id]; !exists {
			return ErrNotFound
		}
	}
	if id, ok := r.Owner.FormID(); ok {
		if _, exists := m.forms[id]; !exists {
			return ErrNotFound
		}
	}
	m.reviewSeq++
	r.ID = m.reviewSeq
	m.reviews[r.ID] = *r
	return nil
}

func (m *Memory) ListReviews(ctx context.Context, scope models.Scope, limit, offset int) ([]models.Review, error) {
	m.mu.RLock()
	scoped := m.scopedLocked(scope)
	m.mu.RUnlock()

	sortRecent(scoped)
	if offset >= len(scoped) {
		return []models.Review{}, nil
	}
	scoped = scoped[offset:]
	if limit > 0 && limit < len(scoped) {
		scoped = scoped[:limit]
	}
	return scoped, nil
}

func (m *Memory) Summarize(ctx context.Context, scope models.Scope, limit int) (models.SentimentCounts, []models.Review, error) {
	m.mu.RLock()
	scoped := m.scopedLocked(scope)
	m.mu.RUnlock()

	var counts models.SentimentCounts
	for _, r := range scoped {
		counts.Add(r.Sentiment, 1)
	}
	sortRecent(scoped)
	if limit >= 0 && limit < len(scoped) {
		scoped = scoped[:limit]
	}
	return counts, scoped, nil
}

func (m *Memory) scopedLocked(scope models.Scope) []models.Review {
	out := make([]models.Review, 0)
	for _, r := range m.reviews {
		if scope.Includes(r.Owner, m.formOwnerLocked(r.Owner)) {
			out = append(out, r)
		}
	}
	return out
}

func (m *Memory) formOwnerLocked(o models.Owner) int64 {
	if id, ok := o.FormID(); ok {
		return m.forms[id].OwnerID
	}
	return 0
}

// sortRecent orders newest first; equal timestamps fall back to the higher id.
func sortRecent(reviews []models.Review) {
	sort.Slice(reviews, func(i, j int) bool {
		if !reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
		}
		return reviews[i].ID > reviews[j].ID
	})
}
