package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultSessionTTL is 7 days
	DefaultSessionTTL = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
)

// Sessions issues and resolves opaque bearer tokens. A user holds at most one
// session; creating a new one invalidates the previous token.
type Sessions interface {
	Create(ctx context.Context, userID int64) (string, error)
	// Resolve returns the user behind token, or ok=false when the token is
	// unknown or expired.
	Resolve(ctx context.Context, token string) (userID int64, ok bool, err error)
	Revoke(ctx context.Context, token string) error
	RevokeUser(ctx context.Context, userID int64) error
}

func newSessionToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(tokenBytes), nil
}

// RedisSessions stores sessions in Redis with a sliding TTL per login.
type RedisSessions struct {
	redis redis.Cmdable
	ttl   time.Duration
}

func NewRedisSessions(client redis.Cmdable, ttl time.Duration) *RedisSessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessions{redis: client, ttl: ttl}
}

func userSessionKey(userID int64) string {
	return UserSessionKeyPrefix + strconv.FormatInt(userID, 10)
}

func (s *RedisSessions) Create(ctx context.Context, userID int64) (string, error) {
	if err := s.RevokeUser(ctx, userID); err != nil {
		return "", err
	}

	token, err := newSessionToken()
	if err != nil {
		return "", err
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, SessionKeyPrefix+token, userID, s.ttl)
	pipe.Set(ctx, userSessionKey(userID), token, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisSessions) Resolve(ctx context.Context, token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	userID, err := s.redis.Get(ctx, SessionKeyPrefix+token).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return userID, true, nil
}

func (s *RedisSessions) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	sessionKey := SessionKeyPrefix + token

	userID, err := s.redis.Get(ctx, sessionKey).Int64()
	if err == nil {
		s.redis.Del(ctx, userSessionKey(userID))
	}
	return s.redis.Del(ctx, sessionKey).Err()
}

func (s *RedisSessions) RevokeUser(ctx context.Context, userID int64) error {
	key := userSessionKey(userID)

	token, err := s.redis.Get(ctx, key).Result()
	if err == nil && token != "" {
		s.redis.Del(ctx, SessionKeyPrefix+token)
	} else if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return s.redis.Del(ctx, key).Err()
}

// MemorySessions keeps sessions in process memory for local runs without
// Redis.
type MemorySessions struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	tokens  map[string]memorySession
	current map[int64]string
}

type memorySession struct {
	userID  int64
	expires time.Time
}

func NewMemorySessions(ttl time.Duration) *MemorySessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessions{
		ttl:     ttl,
		now:     time.Now,
		tokens:  make(map[string]memorySession),
		current: make(map[int64]string),
	}
}

func (s *MemorySessions) Create(ctx context.Context, userID int64) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.current[userID]; ok {
		delete(s.tokens, old)
	}
	s.tokens[token] = memorySession{userID: userID, expires: s.now().Add(s.ttl)}
	s.current[userID] = token
	return token, nil
}

func (s *MemorySessions) Resolve(ctx context.Context, token string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.tokens[token]
	if !ok {
		return 0, false, nil
	}
	if !s.now().Before(sess.expires) {
		delete(s.tokens, token)
		delete(s.current, sess.userID)
		return 0, false, nil
	}
	return sess.userID, true, nil
}

func (s *MemorySessions) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.tokens[token]; ok {
		delete(s.current, sess.userID)
		delete(s.tokens, token)
	}
	return nil
}

func (s *MemorySessions) RevokeUser(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.current[userID]; ok {
		delete(s.tokens, token)
		delete(s.current, userID)
	}
	return nil
}
