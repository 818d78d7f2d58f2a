package memory

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"quiz-battle-service/internal/domain"
)

// StaticQuizLoader serves a fixed pool (useful for tests/demos and the built-in defaults).
type StaticQuizLoader struct {
	quizzes []domain.Quiz
}

func NewStaticQuizLoader(quizzes []domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuizzes(_ context.Context) ([]domain.Quiz, error) {
	out := make([]domain.Quiz, len(l.quizzes))
	for i, q := range l.quizzes {
		out[i] = q.Clone()
	}
	return out, nil
}

// QuizFile is the YAML layout of a quiz seed file.
type QuizFile struct {
	Quizzes []domain.QuizInput `yaml:"quizzes"`
}

// FileQuizLoader reads a YAML seed file on every load.
type FileQuizLoader struct {
	path string
}

func NewFileQuizLoader(path string) *FileQuizLoader {
	return &FileQuizLoader{path: path}
}

// LoadQuizzes returns the file's valid quizzes; invalid items are skipped.
func (l *FileQuizLoader) LoadQuizzes(_ context.Context) ([]domain.Quiz, error) {
	items, err := ReadQuizFile(l.path)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Quiz, 0, len(items))
	for i, item := range items {
		q, err := item.Quiz()
		if err != nil {
			log.Warn().Err(err).Int("index", i).Str("file", l.path).Msg("skipping invalid quiz")
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// ReadQuizFile parses a YAML seed file without validating its items.
func ReadQuizFile(path string) ([]domain.QuizInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quiz file: %w", err)
	}
	var file QuizFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse quiz file: %w", err)
	}
	return file.Quizzes, nil
}
