package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// SentimentCacheKeyPrefix is the Redis key prefix for cached verdicts
	SentimentCacheKeyPrefix = "cache:sentiment:"
	DefaultSentimentCacheTTL = 30 * 24 * time.Hour
)

// CachedClassifier memoizes another classifier's verdicts in Redis keyed by
// the SHA-256 of the text. Cache failures fall through to the inner
// classifier; only valid verdicts are stored.
type CachedClassifier struct {
	inner Classifier
	redis redis.Cmdable
	ttl   time.Duration
}

func NewCachedClassifier(inner Classifier, client redis.Cmdable, ttl time.Duration) *CachedClassifier {
	if ttl <= 0 {
		ttl = DefaultSentimentCacheTTL
	}
	return &CachedClassifier{inner: inner, redis: client, ttl: ttl}
}

func sentimentCacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return SentimentCacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedClassifier) Classify(ctx context.Context, text string) (Judgment, error) {
	key := sentimentCacheKey(text)

	val, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var j Judgment
		if jsonErr := json.Unmarshal([]byte(val), &j); jsonErr == nil && checkJudgment(j) == nil {
			return j, nil
		}
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Msg("sentiment cache read failed")
	}

	j, err := c.inner.Classify(ctx, text)
	if err != nil {
		return Judgment{}, err
	}
	if checkJudgment(j) != nil {
		return j, nil
	}

	data, err := json.Marshal(j)
	if err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Msg("sentiment cache write failed")
		}
	}
	return j, nil
}
