package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"olympiad-quiz-service/internal/domain"
)

// SeedLoader reads the curated starter questions from Postgres. Each row
// holds one question as JSONB.
type SeedLoader struct {
	pool *pgxpool.Pool
}

func NewSeedLoader(pool *pgxpool.Pool) *SeedLoader {
	return &SeedLoader{pool: pool}
}

func (l *SeedLoader) Load(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM question_bank ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	return questions, nil
}

// Store inserts questions into the bank table, skipping IDs already present.
func (l *SeedLoader) Store(ctx context.Context, questions []domain.Question) error {
	for _, q := range questions {
		raw, err := json.Marshal(q)
		if err != nil {
			return err
		}
		_, err = l.pool.Exec(ctx,
			`INSERT INTO question_bank (question_id, data) VALUES ($1, $2)
			 ON CONFLICT (question_id) DO NOTHING`, q.ID, raw)
		if err != nil {
			return fmt.Errorf("store question %s: %w", q.ID, err)
		}
	}
	return nil
}
