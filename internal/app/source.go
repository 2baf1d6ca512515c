package app

import (
	"context"
	"log"
	"math/rand"

	"olympiad-quiz-service/internal/ai"
	"olympiad-quiz-service/internal/domain"
)

// progressiveThreshold is the quiz size above which assembly serves cached
// questions immediately and delivers the generated remainder asynchronously.
const progressiveThreshold = 5

// QuestionGenerator produces fresh question batches. Satisfied by ai.Gateway.
type QuestionGenerator interface {
	Generate(ctx context.Context, req ai.GenerationRequest) ([]domain.Question, error)
}

// Assembly is the outcome of sourcing questions for a quiz. When Partial is
// true the quiz can start with Questions while Deferred later delivers the
// generated remainder (or closes empty if generation failed).
type Assembly struct {
	Questions []domain.Question
	Partial   bool
	Deferred  <-chan []domain.Question
}

// QuestionSource assembles quiz content cache-first: banked questions that
// match the request are reused, and only the shortfall is generated. Questions
// already seen in a past quiz are never served again, and every generated
// question is merged back into the bank.
type QuestionSource struct {
	bank      *QuestionBank
	history   *HistoryRepository
	generator QuestionGenerator
}

func NewQuestionSource(bank *QuestionBank, history *HistoryRepository, generator QuestionGenerator) *QuestionSource {
	return &QuestionSource{bank: bank, history: history, generator: generator}
}

// Assemble gathers questions for the request. Cached matches are shuffled so
// repeat quizzes on the same topics vary, and the merged list is shuffled
// again so cached and generated questions are indistinguishable by position.
func (s *QuestionSource) Assemble(ctx context.Context, req domain.QuizRequest) (Assembly, error) {
	seen, err := s.historyIDs(ctx)
	if err != nil {
		return Assembly{}, err
	}
	bank, err := s.bank.All(ctx)
	if err != nil {
		return Assembly{}, err
	}

	matched := filterBank(bank, req, seen)
	shuffle(matched)
	if len(matched) >= req.Count {
		return Assembly{Questions: matched[:req.Count]}, nil
	}

	remaining := req.Count - len(matched)
	excluded := make([]string, 0, len(bank)+len(seen))
	for id := range seen {
		excluded = append(excluded, id)
	}
	for _, q := range bank {
		if _, ok := seen[q.ID]; !ok {
			excluded = append(excluded, q.ID)
		}
	}

	if req.Count > progressiveThreshold && len(matched) > 0 {
		ch := make(chan []domain.Question, 1)
		go s.fetchDeferred(context.WithoutCancel(ctx), req, remaining, excluded, idSet(matched), ch)
		return Assembly{Questions: matched, Partial: true, Deferred: ch}, nil
	}

	generated, err := s.generate(ctx, req, remaining, excluded)
	if err != nil {
		return Assembly{}, err
	}
	merged := mergeByID(matched, generated)
	shuffle(merged)
	if len(merged) > req.Count {
		merged = merged[:req.Count]
	}
	return Assembly{Questions: merged}, nil
}

func (s *QuestionSource) generate(ctx context.Context, req domain.QuizRequest, count int, excluded []string) ([]domain.Question, error) {
	generated, err := s.generator.Generate(ctx, ai.GenerationRequest{
		Subject:     req.Subject,
		Topics:      req.Topics,
		Count:       count,
		Difficulty:  req.Difficulty,
		Grade:       req.Grade,
		ExcludedIDs: excluded,
	})
	if err != nil {
		return nil, err
	}
	if err := s.bank.Add(ctx, generated); err != nil {
		log.Printf("source: caching generated questions failed: %v", err)
	}
	return generated, nil
}

// fetchDeferred generates the remainder for a quiz that already started with
// cached questions. Failures are logged; the quiz continues with what it has.
func (s *QuestionSource) fetchDeferred(ctx context.Context, req domain.QuizRequest, count int, excluded []string, served map[string]struct{}, ch chan<- []domain.Question) {
	defer close(ch)
	generated, err := s.generate(ctx, req, count, excluded)
	if err != nil {
		log.Printf("source: deferred generation failed, continuing with cached questions: %v", err)
		return
	}
	batch := generated[:0:0]
	for _, q := range generated {
		if _, ok := served[q.ID]; ok {
			continue
		}
		batch = append(batch, q)
	}
	if len(batch) > count {
		batch = batch[:count]
	}
	if len(batch) > 0 {
		ch <- batch
	}
}

// historyIDs collects the ID of every question that appeared in a stored
// result, so no quiz repeats a question the user has already answered.
func (s *QuestionSource) historyIDs(ctx context.Context) (map[string]struct{}, error) {
	results, err := s.history.All(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, result := range results {
		for _, q := range result.Questions {
			seen[q.ID] = struct{}{}
		}
	}
	return seen, nil
}

func filterBank(bank []domain.Question, req domain.QuizRequest, seen map[string]struct{}) []domain.Question {
	topics := make(map[string]struct{}, len(req.Topics))
	for _, t := range req.Topics {
		topics[t] = struct{}{}
	}
	var matched []domain.Question
	for _, q := range bank {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		if q.Subject != req.Subject || q.Grade != req.Grade || q.Difficulty != req.Difficulty {
			continue
		}
		if _, ok := topics[q.Topic]; !ok {
			continue
		}
		matched = append(matched, q)
	}
	return matched
}

// mergeByID appends generated questions to the cached set, dropping any
// generated question whose ID collides with one already picked.
func mergeByID(cached, generated []domain.Question) []domain.Question {
	picked := idSet(cached)
	merged := cached
	for _, q := range generated {
		if _, ok := picked[q.ID]; ok {
			continue
		}
		picked[q.ID] = struct{}{}
		merged = append(merged, q)
	}
	return merged
}

func idSet(questions []domain.Question) map[string]struct{} {
	set := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		set[q.ID] = struct{}{}
	}
	return set
}

func shuffle(questions []domain.Question) {
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}
