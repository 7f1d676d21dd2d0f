package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"wumpus-maze-service/internal/domain"
)

// QuestionLoader fetches the uploaded question pool from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

const poolKey = "questions:pool"

// QuestionCache keeps the question pool as JSON in Redis and falls back to
// the loader on a miss. Concurrent misses are collapsed with singleflight
// and the TTL is jittered to spread expirations across instances.
type QuestionCache struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	if cached, ok := c.fromCache(ctx); ok {
		return cached, nil
	}

	result, err, _ := c.sf.Do(poolKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if cached, ok := c.fromCache(ctx); ok {
			return cached, nil
		}

		questions, err := c.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(questions); err == nil {
			_ = c.client.Set(ctx, poolKey, data, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached pool, called after an admin upload.
func (c *QuestionCache) Invalidate(ctx context.Context) {
	_ = c.client.Del(ctx, poolKey).Err()
}

func (c *QuestionCache) fromCache(ctx context.Context) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, poolKey).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
