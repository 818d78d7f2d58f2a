package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"quiz-battle-service/internal/domain"
)

func TestQuizRepositoryAddValidates(t *testing.T) {
	repo := NewQuizRepository(nil)

	idx, err := repo.Add(sampleQuiz("What is 2 + 2?"))
	if err != nil || idx != 0 {
		t.Fatalf("add: idx=%d err=%v", idx, err)
	}

	bad := sampleQuiz("What is 3 + 3?")
	bad.Options = bad.Options[:3]
	_, err = repo.Add(bad)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "options" {
		t.Fatalf("expected options validation error, got %v", err)
	}
	if repo.Len() != 1 {
		t.Fatalf("rejected quiz must not be stored, len=%d", repo.Len())
	}
}

func TestQuizRepositoryAddBulkIsBestEffort(t *testing.T) {
	repo := NewQuizRepository(nil)
	bad := sampleQuiz("broken")
	bad.CorrectIndex = 4

	result := repo.AddBulk([]domain.Quiz{sampleQuiz("one"), bad, sampleQuiz("three")})
	if result.SuccessCount != 2 || result.FailedCount != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Failures) != 1 || result.Failures[0].Index != 1 {
		t.Fatalf("expected failure at index 1, got %+v", result.Failures)
	}
	if result.Failures[0].Reason != "invalid correctIndex: must be between 0 and 3" {
		t.Fatalf("unexpected reason %q", result.Failures[0].Reason)
	}
	if repo.Len() != 2 {
		t.Fatalf("expected 2 stored, got %d", repo.Len())
	}
}

func TestQuizRepositoryUpdateDelete(t *testing.T) {
	repo := NewQuizRepository(nil)
	repo.AddBulk([]domain.Quiz{sampleQuiz("one"), sampleQuiz("two"), sampleQuiz("three")})

	if err := repo.Update(5, sampleQuiz("x")); !errors.Is(err, domain.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := repo.Update(0, domain.Quiz{}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := repo.Update(1, sampleQuiz("two again")); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.Delete(-1); !errors.Is(err, domain.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := repo.Delete(0); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got := repo.List()
	if len(got) != 2 || got[0].Question != "two again" || got[1].Question != "three" {
		t.Fatalf("unexpected pool %+v", got)
	}
}

func TestDrawRandomReturnsIndependentDistinctCopies(t *testing.T) {
	repo := NewQuizRepository(nil)
	for i := 0; i < 20; i++ {
		repo.Add(sampleQuiz(fmt.Sprintf("q%d", i)))
	}

	drawn := repo.DrawRandom(10)
	if len(drawn) != 10 {
		t.Fatalf("expected 10 quizzes, got %d", len(drawn))
	}
	seen := make(map[string]bool)
	for _, q := range drawn {
		if seen[q.Question] {
			t.Fatalf("duplicate draw %s", q.Question)
		}
		seen[q.Question] = true
	}

	// Edits to the pool must not reach a drawn snapshot and vice versa.
	drawn[0].Options[0] = "mutated"
	for i := 0; i < repo.Len(); i++ {
		if err := repo.Update(i, sampleQuiz("replaced")); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	if drawn[1].Question == "replaced" {
		t.Fatalf("snapshot changed after pool update")
	}
	for _, q := range repo.List() {
		if q.Options[0] == "mutated" {
			t.Fatalf("pool changed after snapshot mutation")
		}
	}
}

func TestDrawRandomSmallPool(t *testing.T) {
	repo := NewQuizRepository(nil)
	if got := repo.DrawRandom(10); len(got) != 0 {
		t.Fatalf("expected empty draw, got %d", len(got))
	}
	repo.AddBulk([]domain.Quiz{sampleQuiz("a"), sampleQuiz("b"), sampleQuiz("c")})
	if got := repo.DrawRandom(10); len(got) != 3 {
		t.Fatalf("expected whole pool, got %d", len(got))
	}
}

func TestLoadSkipsInvalidAndReloadInvalidates(t *testing.T) {
	bad := sampleQuiz("")
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader([]domain.Quiz{sampleQuiz("one"), bad, sampleQuiz("two")})}
	repo := NewQuizRepository(loader)

	n, err := repo.Load(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("load: n=%d err=%v", n, err)
	}
	repo.Add(sampleQuiz("extra"))

	n, err = repo.Reload(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("reload: n=%d err=%v", n, err)
	}
	if loader.invalidated != 1 {
		t.Fatalf("expected cache invalidated once, got %d", loader.invalidated)
	}
	if loader.calls != 2 {
		t.Fatalf("expected two loads, got %d", loader.calls)
	}
}

func TestLoadPropagatesLoaderError(t *testing.T) {
	repo := NewQuizRepository(failingLoader{})
	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFileQuizLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizzes.yaml")
	content := `quizzes:
  - question: "Capital of France?"
    options: ["Paris", "Rome", "Madrid", "Berlin"]
    correctIndex: 0
  - question: "No answer recorded"
    options: ["a", "b", "c", "d"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	repo := NewQuizRepository(NewFileQuizLoader(path))
	if n, err := repo.Load(context.Background()); err != nil || n != 1 {
		t.Fatalf("load: n=%d err=%v", n, err)
	}
	if q := repo.List()[0]; q.Options[0] != "Paris" || q.CorrectIndex != 0 {
		t.Fatalf("unexpected quiz %+v", q)
	}
}

type countingLoader struct {
	QuizLoader
	mu          sync.Mutex
	calls       int
	invalidated int
}

func (l *countingLoader) LoadQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.QuizLoader.LoadQuizzes(ctx)
}

func (l *countingLoader) Invalidate(context.Context) error {
	l.mu.Lock()
	l.invalidated++
	l.mu.Unlock()
	return nil
}

type failingLoader struct{}

func (failingLoader) LoadQuizzes(context.Context) ([]domain.Quiz, error) {
	return nil, errors.New("db down")
}

func sampleQuiz(question string) domain.Quiz {
	return domain.Quiz{
		Question:     question,
		Options:      []string{"3", "4", "5", "6"},
		CorrectIndex: 1,
	}
}
