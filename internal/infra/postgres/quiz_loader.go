package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-battle-service/internal/domain"
)

// QuizLoader loads the quiz pool from the quizzes table.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := l.pool.Query(ctx, `SELECT question, options, correct_index FROM quizzes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var (
			q   domain.Quiz
			raw []byte
		)
		if err := rows.Scan(&q.Question, &raw, &q.CorrectIndex); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		quizzes = append(quizzes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}
	return quizzes, nil
}

// InsertQuizzes appends quizzes to the table. Used to seed a fresh database.
func InsertQuizzes(ctx context.Context, pool *pgxpool.Pool, quizzes []domain.Quiz) error {
	for i, q := range quizzes {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("marshal options %d: %w", i, err)
		}
		_, err = pool.Exec(ctx,
			`INSERT INTO quizzes (question, options, correct_index) VALUES ($1, $2, $3)`,
			q.Question, string(options), q.CorrectIndex)
		if err != nil {
			return fmt.Errorf("insert quiz %d: %w", i, err)
		}
	}
	return nil
}
