package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"quiz-battle-service/internal/domain"
)

// QuizLoader fetches the quiz pool from a backing store (e.g., Postgres).
type QuizLoader interface {
	LoadQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// PoolKey holds the JSON-encoded quiz pool.
const PoolKey = "quiz:pool"

// QuizCache caches the loader's quiz pool in Redis and falls back to the loader on a miss.
type QuizCache struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuizCache(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) LoadQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	if quizzes, ok := c.cached(ctx); ok {
		return quizzes, nil
	}

	result, err, _ := c.sf.Do(PoolKey, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if quizzes, ok := c.cached(ctx); ok {
			return quizzes, nil
		}

		quizzes, err := c.loader.LoadQuizzes(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(quizzes)
		if err != nil {
			return nil, fmt.Errorf("encode quiz pool: %w", err)
		}
		if err := c.client.Set(ctx, PoolKey, raw, c.ttlWithJitter()).Err(); err != nil {
			log.Warn().Err(err).Msg("quiz pool not cached")
		}
		return quizzes, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Quiz), nil
}

// Invalidate drops the cached pool so the next load reaches the loader.
func (c *QuizCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, PoolKey).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", PoolKey, err)
	}
	return nil
}

func (c *QuizCache) cached(ctx context.Context) ([]domain.Quiz, bool) {
	raw, err := c.client.Get(ctx, PoolKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("quiz cache read failed")
		}
		return nil, false
	}
	var quizzes []domain.Quiz
	if err := json.Unmarshal(raw, &quizzes); err != nil {
		log.Warn().Err(err).Msg("discarding corrupt quiz cache entry")
		return nil, false
	}
	return quizzes, true
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
