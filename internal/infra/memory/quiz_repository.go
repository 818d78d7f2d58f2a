package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"quiz-battle-service/internal/domain"
)

// QuizLoader fetches the initial quiz pool from a backing store (Postgres, a seed file, a cache).
type QuizLoader interface {
	LoadQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// Invalidator is implemented by caching loaders that can drop their cached copy.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// QuizRepository is the process-wide, validated quiz pool. Matches draw
// independent copies from it; admin edits never reach a running match.
type QuizRepository struct {
	loader QuizLoader
	sf     singleflight.Group

	mu      sync.RWMutex
	rnd     *rand.Rand
	quizzes []domain.Quiz
}

func NewQuizRepository(loader QuizLoader) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Load replaces the pool with the loader's quizzes. Invalid items are skipped.
// Concurrent calls share one load.
func (r *QuizRepository) Load(ctx context.Context) (int, error) {
	if r.loader == nil {
		return r.Len(), nil
	}
	result, err, _ := r.sf.Do("load", func() (interface{}, error) {
		loaded, err := r.loader.LoadQuizzes(ctx)
		if err != nil {
			return 0, fmt.Errorf("load quizzes: %w", err)
		}
		pool := make([]domain.Quiz, 0, len(loaded))
		for i, q := range loaded {
			if err := domain.ValidateQuiz(q); err != nil {
				log.Warn().Err(err).Int("index", i).Msg("skipping invalid quiz")
				continue
			}
			pool = append(pool, q.Clone())
		}
		r.mu.Lock()
		r.quizzes = pool
		r.mu.Unlock()
		return len(pool), nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

// Reload drops any cached copy held by the loader and loads again. The pool
// is replaced, so quizzes added or edited in memory since the last load are lost.
func (r *QuizRepository) Reload(ctx context.Context) (int, error) {
	if inv, ok := r.loader.(Invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			return 0, fmt.Errorf("invalidate quiz cache: %w", err)
		}
	}
	return r.Load(ctx)
}

// List returns a snapshot of the pool in index order.
func (r *QuizRepository) List() []domain.Quiz {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Quiz, len(r.quizzes))
	for i, q := range r.quizzes {
		out[i] = q.Clone()
	}
	return out
}

// Len returns the pool size.
func (r *QuizRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.quizzes)
}

// Add validates candidate, appends it and returns its index.
func (r *QuizRepository) Add(candidate domain.Quiz) (int, error) {
	if err := domain.ValidateQuiz(candidate); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quizzes = append(r.quizzes, candidate.Clone())
	return len(r.quizzes) - 1, nil
}

// AddBulk adds every valid candidate and reports the rejected ones by position.
func (r *QuizRepository) AddBulk(candidates []domain.Quiz) domain.BulkResult {
	result := domain.BulkResult{Failures: []domain.BulkFailure{}}
	valid := make([]domain.Quiz, 0, len(candidates))
	for i, c := range candidates {
		if err := domain.ValidateQuiz(c); err != nil {
			result.Failures = append(result.Failures, domain.BulkFailure{Index: i, Reason: err.Error()})
			continue
		}
		valid = append(valid, c.Clone())
	}

	r.mu.Lock()
	r.quizzes = append(r.quizzes, valid...)
	r.mu.Unlock()

	result.SuccessCount = len(valid)
	result.FailedCount = len(result.Failures)
	return result
}

// Update replaces the quiz at index after validating candidate.
func (r *QuizRepository) Update(index int, candidate domain.Quiz) error {
	if err := domain.ValidateQuiz(candidate); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.quizzes) {
		return fmt.Errorf("update quiz %d: %w", index, domain.ErrOutOfRange)
	}
	r.quizzes[index] = candidate.Clone()
	return nil
}

// Delete removes the quiz at index; later quizzes shift down by one.
func (r *QuizRepository) Delete(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.quizzes) {
		return fmt.Errorf("delete quiz %d: %w", index, domain.ErrOutOfRange)
	}
	r.quizzes = append(r.quizzes[:index], r.quizzes[index+1:]...)
	return nil
}

// DrawRandom returns min(n, Len()) distinct quizzes in random order as
// independent copies.
func (r *QuizRepository) DrawRandom(n int) []domain.Quiz {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > len(r.quizzes) {
		n = len(r.quizzes)
	}
	if n <= 0 {
		return nil
	}
	perm := r.rnd.Perm(len(r.quizzes))
	out := make([]domain.Quiz, n)
	for i := 0; i < n; i++ {
		out[i] = r.quizzes[perm[i]].Clone()
	}
	return out
}
