package memory

import (
	"context"
	"encoding/json"
	"sync"

	"olympiad-quiz-service/internal/domain"
)

// KeyValueStore is an in-memory implementation of app.KeyValueStore. Values
// are stored as JSON so behavior matches the Redis-backed store.
type KeyValueStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewKeyValueStore() *KeyValueStore {
	return &KeyValueStore{values: make(map[string][]byte)}
}

func (s *KeyValueStore) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *KeyValueStore) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *KeyValueStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

// StaticSeedSource is a seed source backed by a fixed slice (useful for
// tests and demos).
type StaticSeedSource struct {
	questions []domain.Question
}

func NewStaticSeedSource(questions []domain.Question) *StaticSeedSource {
	return &StaticSeedSource{questions: questions}
}

func (s *StaticSeedSource) Load(_ context.Context) ([]domain.Question, error) {
	return domain.CloneQuestions(s.questions), nil
}
