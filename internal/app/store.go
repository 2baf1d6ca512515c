package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"golang.org/x/sync/singleflight"

	"olympiad-quiz-service/internal/domain"
)

// Storage keys. Each key holds one JSON document.
const (
	keyHistory  = "quizHistory"
	keyBank     = "questionBank"
	keyBadges   = "unlockedBadges"
	keyStats    = "userStats"
	keySeedDone = "questionBankSeeded"
)

// historyLimit caps the number of retained quiz results. Older results are
// evicted oldest-first.
const historyLimit = 10

// KeyValueStore abstracts the persistence backend (in-memory, Redis, etc).
// Get reports found=false for missing keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// HistoryRepository persists completed quiz results, newest first.
type HistoryRepository struct {
	store KeyValueStore
}

func NewHistoryRepository(store KeyValueStore) *HistoryRepository {
	return &HistoryRepository{store: store}
}

// All returns the stored history, newest first. A corrupt document is treated
// as absent rather than failing every read after it.
func (r *HistoryRepository) All(ctx context.Context) ([]domain.QuizResult, error) {
	var history []domain.QuizResult
	found, err := r.store.Get(ctx, keyHistory, &history)
	if err != nil {
		if isCorrupt(err) {
			log.Printf("history: discarding corrupt document: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return history, nil
}

// Append prepends a result and evicts beyond the retention cap.
func (r *HistoryRepository) Append(ctx context.Context, result domain.QuizResult) error {
	history, err := r.All(ctx)
	if err != nil {
		return err
	}
	history = append([]domain.QuizResult{result}, history...)
	if len(history) > historyLimit {
		history = history[:historyLimit]
	}
	return r.store.Set(ctx, keyHistory, history)
}

// Find returns the result with the given ID.
func (r *HistoryRepository) Find(ctx context.Context, id string) (domain.QuizResult, error) {
	history, err := r.All(ctx)
	if err != nil {
		return domain.QuizResult{}, err
	}
	for _, result := range history {
		if result.ID == id {
			return result, nil
		}
	}
	return domain.QuizResult{}, domain.ErrResultNotFound
}

// Clear removes all stored results.
func (r *HistoryRepository) Clear(ctx context.Context) error {
	return r.store.Delete(ctx, keyHistory)
}

// SeedSource provides the initial question bank content, typically a
// database table or an embedded file.
type SeedSource interface {
	Load(ctx context.Context) ([]domain.Question, error)
}

// QuestionBank is the persistent pool of every question the user has seen.
// It backs both offline assembly and duplicate exclusion during generation.
type QuestionBank struct {
	store KeyValueStore
	seed  SeedSource
	group singleflight.Group
}

func NewQuestionBank(store KeyValueStore, seed SeedSource) *QuestionBank {
	return &QuestionBank{store: store, seed: seed}
}

// All returns every banked question.
func (b *QuestionBank) All(ctx context.Context) ([]domain.Question, error) {
	var bank []domain.Question
	found, err := b.store.Get(ctx, keyBank, &bank)
	if err != nil {
		if isCorrupt(err) {
			log.Printf("bank: discarding corrupt document: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return bank, nil
}

// Add merges freshly generated questions into the bank, dropping any whose ID
// is already present.
func (b *QuestionBank) Add(ctx context.Context, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	bank, err := b.All(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(bank))
	for _, q := range bank {
		seen[q.ID] = struct{}{}
	}
	added := false
	for _, q := range questions {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		seen[q.ID] = struct{}{}
		bank = append(bank, q)
		added = true
	}
	if !added {
		return nil
	}
	return b.store.Set(ctx, keyBank, bank)
}

// EnsureSeeded populates an empty bank from the seed source once. Concurrent
// callers share a single load.
func (b *QuestionBank) EnsureSeeded(ctx context.Context) error {
	if b.seed == nil {
		return nil
	}
	_, err, _ := b.group.Do(keySeedDone, func() (interface{}, error) {
		var done bool
		if found, err := b.store.Get(ctx, keySeedDone, &done); err == nil && found && done {
			return nil, nil
		}
		questions, err := b.seed.Load(ctx)
		if err != nil {
			return nil, err
		}
		if err := b.Add(ctx, questions); err != nil {
			return nil, err
		}
		return nil, b.store.Set(ctx, keySeedDone, true)
	})
	return err
}

// ProfileStore persists lifetime stats and the unlocked badge set.
type ProfileStore struct {
	store KeyValueStore
}

func NewProfileStore(store KeyValueStore) *ProfileStore {
	return &ProfileStore{store: store}
}

func (p *ProfileStore) Stats(ctx context.Context) (domain.UserStats, error) {
	var stats domain.UserStats
	found, err := p.store.Get(ctx, keyStats, &stats)
	if err != nil {
		if isCorrupt(err) {
			log.Printf("profile: discarding corrupt stats: %v", err)
			return domain.UserStats{}, nil
		}
		return domain.UserStats{}, err
	}
	if !found {
		return domain.UserStats{}, nil
	}
	return stats, nil
}

func (p *ProfileStore) SaveStats(ctx context.Context, stats domain.UserStats) error {
	return p.store.Set(ctx, keyStats, stats)
}

// Unlocked returns the set of unlocked badge IDs.
func (p *ProfileStore) Unlocked(ctx context.Context) (map[domain.BadgeID]bool, error) {
	var ids []domain.BadgeID
	found, err := p.store.Get(ctx, keyBadges, &ids)
	if err != nil {
		if isCorrupt(err) {
			log.Printf("profile: discarding corrupt badge set: %v", err)
			return map[domain.BadgeID]bool{}, nil
		}
		return nil, err
	}
	unlocked := make(map[domain.BadgeID]bool, len(ids))
	if !found {
		return unlocked, nil
	}
	for _, id := range ids {
		unlocked[id] = true
	}
	return unlocked, nil
}

// Unlock adds badge IDs to the unlocked set and returns the ones that were
// newly added. Unlocks are monotonic.
func (p *ProfileStore) Unlock(ctx context.Context, ids ...domain.BadgeID) ([]domain.BadgeID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	unlocked, err := p.Unlocked(ctx)
	if err != nil {
		return nil, err
	}
	var added []domain.BadgeID
	for _, id := range ids {
		if unlocked[id] {
			continue
		}
		unlocked[id] = true
		added = append(added, id)
	}
	if len(added) == 0 {
		return nil, nil
	}
	all := make([]domain.BadgeID, 0, len(unlocked))
	for _, def := range domain.BadgeDefs {
		if unlocked[def.ID] {
			all = append(all, def.ID)
		}
	}
	return added, p.store.Set(ctx, keyBadges, all)
}

// isCorrupt reports whether a read failed because of an undecodable stored
// value rather than a backend error.
func isCorrupt(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
