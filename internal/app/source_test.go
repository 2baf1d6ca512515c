package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"olympiad-quiz-service/internal/ai"
	"olympiad-quiz-service/internal/app"
	"olympiad-quiz-service/internal/domain"
	"olympiad-quiz-service/internal/infra/memory"
)

type stubGenerator struct {
	calls    int
	lastReq  ai.GenerationRequest
	generate func(req ai.GenerationRequest) ([]domain.Question, error)
}

func (g *stubGenerator) Generate(_ context.Context, req ai.GenerationRequest) ([]domain.Question, error) {
	g.calls++
	g.lastReq = req
	return g.generate(req)
}

func generatedBatch(prefix string, req ai.GenerationRequest) []domain.Question {
	batch := make([]domain.Question, req.Count)
	for i := range batch {
		q := mathQuestion(fmt.Sprintf("%s-%d", prefix, i), req.Topics[0], 0)
		q.Subject = req.Subject
		q.Difficulty = req.Difficulty
		q.Grade = req.Grade
		batch[i] = q
	}
	return batch
}

func emptyHistory() *app.HistoryRepository {
	return app.NewHistoryRepository(memory.NewKeyValueStore())
}

func newBank(t *testing.T, cached ...domain.Question) *app.QuestionBank {
	t.Helper()
	bank := app.NewQuestionBank(memory.NewKeyValueStore(), nil)
	if len(cached) > 0 {
		if err := bank.Add(context.Background(), cached); err != nil {
			t.Fatalf("seed bank: %v", err)
		}
	}
	return bank
}

func TestAssembleServedFromCache(t *testing.T) {
	cached := []domain.Question{
		mathQuestion("c1", "Algebra", 0),
		mathQuestion("c2", "Algebra", 1),
		mathQuestion("c3", "Geometry", 2),
	}
	gen := &stubGenerator{generate: func(ai.GenerationRequest) ([]domain.Question, error) {
		return nil, errors.New("must not be called")
	}}
	source := app.NewQuestionSource(newBank(t, cached...), emptyHistory(), gen)

	assembly, err := source.Assemble(context.Background(), practiceRequest(3))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if assembly.Partial {
		t.Fatal("full cache hit must not be partial")
	}
	if len(assembly.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(assembly.Questions))
	}
	if gen.calls != 0 {
		t.Fatalf("generator called %d times on a cache hit", gen.calls)
	}
}

func TestAssembleFiltersByRequest(t *testing.T) {
	cached := []domain.Question{
		mathQuestion("match", "Algebra", 0),
	}
	wrongSubject := mathQuestion("nso", "Algebra", 0)
	wrongSubject.Subject = domain.SubjectNSO
	wrongTopic := mathQuestion("topic", "Number Sense", 0)
	wrongDifficulty := mathQuestion("hard", "Algebra", 0)
	wrongDifficulty.Difficulty = domain.DifficultyHard
	cached = append(cached, wrongSubject, wrongTopic, wrongDifficulty)

	gen := &stubGenerator{generate: func(req ai.GenerationRequest) ([]domain.Question, error) {
		return generatedBatch("g", req), nil
	}}
	source := app.NewQuestionSource(newBank(t, cached...), emptyHistory(), gen)

	assembly, err := source.Assemble(context.Background(), practiceRequest(2))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(assembly.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(assembly.Questions))
	}
	if gen.lastReq.Count != 1 {
		t.Fatalf("expected generation of the shortfall only, asked for %d", gen.lastReq.Count)
	}
}

func TestAssembleExcludesBankedIDs(t *testing.T) {
	cached := []domain.Question{mathQuestion("c1", "Algebra", 0)}
	gen := &stubGenerator{generate: func(req ai.GenerationRequest) ([]domain.Question, error) {
		return generatedBatch("g", req), nil
	}}
	source := app.NewQuestionSource(newBank(t, cached...), emptyHistory(), gen)

	if _, err := source.Assemble(context.Background(), practiceRequest(3)); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(gen.lastReq.ExcludedIDs) != 1 || gen.lastReq.ExcludedIDs[0] != "c1" {
		t.Fatalf("expected banked IDs excluded, got %v", gen.lastReq.ExcludedIDs)
	}
}

func TestAssembleNeverRepeatsHistoryQuestions(t *testing.T) {
	cached := []domain.Question{
		mathQuestion("c1", "Algebra", 0),
		mathQuestion("c2", "Algebra", 1),
	}
	history := emptyHistory()
	if err := history.Append(context.Background(), domain.QuizResult{
		ID:        "2026-03-14T10:00:00Z",
		Questions: []domain.Question{mathQuestion("c1", "Algebra", 0)},
	}); err != nil {
		t.Fatalf("seed history: %v", err)
	}
	gen := &stubGenerator{generate: func(req ai.GenerationRequest) ([]domain.Question, error) {
		return generatedBatch("g", req), nil
	}}
	source := app.NewQuestionSource(newBank(t, cached...), history, gen)

	assembly, err := source.Assemble(context.Background(), practiceRequest(2))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	for _, q := range assembly.Questions {
		if q.ID == "c1" {
			t.Fatal("question from a past quiz was served again")
		}
	}
	if gen.lastReq.Count != 1 {
		t.Fatalf("expected generation of the shortfall only, asked for %d", gen.lastReq.Count)
	}
	found := false
	for _, id := range gen.lastReq.ExcludedIDs {
		if id == "c1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected history IDs excluded from generation, got %v", gen.lastReq.ExcludedIDs)
	}
}

func TestAssembleDropsDuplicateGeneratedIDs(t *testing.T) {
	cached := []domain.Question{mathQuestion("c1", "Algebra", 0)}
	gen := &stubGenerator{generate: func(req ai.GenerationRequest) ([]domain.Question, error) {
		return []domain.Question{
			mathQuestion("c1", "Algebra", 0),
			mathQuestion("g1", "Algebra", 1),
		}, nil
	}}
	source := app.NewQuestionSource(newBank(t, cached...), emptyHistory(), gen)

	assembly, err := source.Assemble(context.Background(), practiceRequest(2))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	ids := make(map[string]int)
	for _, q := range assembly.Questions {
		ids[q.ID]++
	}
	if ids["c1"] != 1 || ids["g1"] != 1 {
		t.Fatalf("expected c1 and g1 exactly once, got %v", ids)
	}
}

func TestAssembleCachesGeneratedQuestions(t *testing.T) {
	gen := &stubGenerator{generate: func(req ai.GenerationRequest) ([]domain.Question, error) {
		return generatedBatch("g", req), nil
	}}
	bank := newBank(t)
	source := app.NewQuestionSource(bank, emptyHistory(), gen)

	if _, err := source.Assemble(context.Background(), practiceRequest(2)); err != nil {
		t.Fatalf("assemble: %v", err)
	}

	banked, err := bank.All(context.Background())
	if err != nil {
		t.Fatalf("bank read: %v", err)
	}
	if len(banked) != 2 {
		t.Fatalf("expected generated questions banked, got %d", len(banked))
	}

	// A repeat request is now a pure cache hit.
	if _, err := source.Assemble(context.Background(), practiceRequest(2)); err != nil {
		t.Fatalf("assemble again: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected one generation, got %d", gen.calls)
	}
}

func TestAssembleProgressiveReveal(t *testing.T) {
	cached := []domain.Question{
		mathQuestion("c1", "Algebra", 0),
		mathQuestion("c2", "Geometry", 1),
	}
	gen := &stubGenerator{generate: func(req ai.GenerationRequest) ([]domain.Question, error) {
		return generatedBatch("g", req), nil
	}}
	source := app.NewQuestionSource(newBank(t, cached...), emptyHistory(), gen)

	assembly, err := source.Assemble(context.Background(), practiceRequest(10))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !assembly.Partial {
		t.Fatal("large request with cached questions should start partial")
	}
	if len(assembly.Questions) != 2 {
		t.Fatalf("expected the cached pair immediately, got %d", len(assembly.Questions))
	}

	select {
	case batch := <-assembly.Deferred:
		if len(batch) != 8 {
			t.Fatalf("expected 8 deferred questions, got %d", len(batch))
		}
	case <-time.After(time.Second):
		t.Fatal("deferred batch never arrived")
	}
}

func TestAssembleProgressiveFailureClosesChannel(t *testing.T) {
	cached := []domain.Question{mathQuestion("c1", "Algebra", 0)}
	gen := &stubGenerator{generate: func(ai.GenerationRequest) ([]domain.Question, error) {
		return nil, domain.ErrGenerationFailed
	}}
	source := app.NewQuestionSource(newBank(t, cached...), emptyHistory(), gen)

	assembly, err := source.Assemble(context.Background(), practiceRequest(10))
	if err != nil {
		t.Fatalf("partial assembly must not fail with the cached portion: %v", err)
	}
	select {
	case batch, ok := <-assembly.Deferred:
		if ok {
			t.Fatalf("expected closed channel, got batch of %d", len(batch))
		}
	case <-time.After(time.Second):
		t.Fatal("deferred channel never closed")
	}
}

func TestAssembleGenerationFailureWithEmptyCache(t *testing.T) {
	gen := &stubGenerator{generate: func(ai.GenerationRequest) ([]domain.Question, error) {
		return nil, domain.ErrGenerationFailed
	}}
	source := app.NewQuestionSource(newBank(t), emptyHistory(), gen)

	_, err := source.Assemble(context.Background(), practiceRequest(3))
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}
