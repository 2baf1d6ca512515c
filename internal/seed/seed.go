// Package seed ships a small curated starter bank so a fresh install can run
// its first quiz offline.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"olympiad-quiz-service/internal/domain"
)

//go:embed questions.json
var questionsJSON []byte

// Questions decodes the embedded starter bank.
func Questions() ([]domain.Question, error) {
	var questions []domain.Question
	if err := json.Unmarshal(questionsJSON, &questions); err != nil {
		return nil, fmt.Errorf("decode embedded questions: %w", err)
	}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("embedded question: %w", err)
		}
	}
	return questions, nil
}

// Source is an app.SeedSource backed by the embedded bank.
type Source struct{}

func NewSource() Source { return Source{} }

func (Source) Load(context.Context) ([]domain.Question, error) {
	return Questions()
}
