package app

import (
	"context"
	"log"

	"github.com/google/uuid"

	"olympiad-quiz-service/internal/domain"
)

// Canned report-card responses for when the suggestion pass is impossible or
// the providers are down.
const (
	suggestionAllCorrect  = "Excellent work! You answered all questions correctly. Keep practicing to maintain this great performance."
	suggestionUnavailable = "Could not generate improvement suggestions at this time."
)

// Suggester produces improvement suggestions. Satisfied by ai.Gateway.
type Suggester interface {
	Suggest(ctx context.Context, grade domain.Grade, topics []string) (string, error)
}

// BadgeStatus is the report-card view of one badge.
type BadgeStatus struct {
	domain.Badge
	Unlocked bool `json:"unlocked"`
	// Current/Target report progress for counter-based badges; Target is 0
	// for badges that unlock on a single event.
	Current int `json:"current,omitempty"`
	Target  int `json:"target,omitempty"`
}

// QuizService ties sourcing, sessions, revalidation, and the profile together
// into the quiz use cases.
type QuizService struct {
	sessions    SessionRepository
	source      *QuestionSource
	history     *HistoryRepository
	profile     *ProfileStore
	revalidator *RevalidationCoordinator
	suggester   Suggester
}

func NewQuizService(
	sessions SessionRepository,
	source *QuestionSource,
	history *HistoryRepository,
	profile *ProfileStore,
	revalidator *RevalidationCoordinator,
	suggester Suggester,
) *QuizService {
	return &QuizService{
		sessions:    sessions,
		source:      source,
		history:     history,
		profile:     profile,
		revalidator: revalidator,
		suggester:   suggester,
	}
}

// Start assembles questions for the request and opens a session. Mock exams
// additionally arm the countdown timer and kick off a background fact-check
// of the whole paper.
func (s *QuizService) Start(ctx context.Context, req domain.QuizRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	assembly, err := s.source.Assemble(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(assembly.Questions) == 0 {
		return nil, domain.ErrNoQuestionsAvailable
	}

	session := NewSession(uuid.NewString(), req, assembly.Questions)
	s.sessions.Put(session)

	if assembly.Partial {
		go func() {
			if batch, ok := <-assembly.Deferred; ok {
				session.Append(batch)
			}
		}()
	}

	if req.FromSuggestion {
		if err := s.markSuggestionPracticed(ctx); err != nil {
			log.Printf("service: recording suggestion practice failed: %v", err)
		}
	}

	if req.Mock {
		detached := context.WithoutCancel(ctx)
		session.StartTimer(func() {
			if _, _, err := s.Submit(detached, session.ID()); err != nil {
				log.Printf("service: auto-submit of expired mock %s failed: %v", session.ID(), err)
			}
		})
		go s.revalidator.RevalidateAll(detached, session)
	}
	return session, nil
}

// Session returns a live session by ID.
func (s *QuizService) Session(id string) (*Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Submit finalizes a session, regrades mock exams against a fresh fact-check
// of the missed questions, persists the result, and returns it along with any
// newly unlocked badges. The session is gone afterwards.
func (s *QuizService) Submit(ctx context.Context, sessionID string) (domain.QuizResult, []domain.BadgeID, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.QuizResult{}, nil, domain.ErrSessionNotFound
	}

	result, err := session.Submit()
	if err != nil {
		return domain.QuizResult{}, nil, err
	}
	if result.IsMock {
		result = s.revalidator.Regrade(ctx, result)
	}

	if err := s.history.Append(ctx, result); err != nil {
		return domain.QuizResult{}, nil, err
	}

	stats, err := s.profile.Stats(ctx)
	if err != nil {
		return domain.QuizResult{}, nil, err
	}
	stats, earned := ApplyResult(stats, result)
	if err := s.profile.SaveStats(ctx, stats); err != nil {
		return domain.QuizResult{}, nil, err
	}
	unlocked, err := s.profile.Unlock(ctx, earned...)
	if err != nil {
		return domain.QuizResult{}, nil, err
	}

	s.sessions.Delete(sessionID)
	return result, unlocked, nil
}

// RevalidateQuestion runs a user-requested fact-check of one question in a
// live session. First use unlocks the fact-checker badge.
func (s *QuizService) RevalidateQuestion(ctx context.Context, sessionID string, index int) (domain.Question, bool, []domain.BadgeID, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Question{}, false, nil, domain.ErrSessionNotFound
	}

	checked, changed, err := s.revalidator.RevalidateAt(ctx, session, index)
	if err != nil {
		return domain.Question{}, false, nil, err
	}

	unlocked, err := s.markRevalidationUsed(ctx)
	if err != nil {
		log.Printf("service: recording revalidation use failed: %v", err)
	}
	return checked, changed, unlocked, nil
}

// History returns stored results, newest first.
func (s *QuizService) History(ctx context.Context) ([]domain.QuizResult, error) {
	return s.history.All(ctx)
}

// Result looks up one stored result by ID.
func (s *QuizService) Result(ctx context.Context, id string) (domain.QuizResult, error) {
	return s.history.Find(ctx, id)
}

// ClearHistory removes all stored results. Stats and badges are kept; unlocks
// are monotonic.
func (s *QuizService) ClearHistory(ctx context.Context) error {
	return s.history.Clear(ctx)
}

// Trends derives per-subject and per-topic performance trends from history.
func (s *QuizService) Trends(ctx context.Context) ([]domain.SubjectTrend, error) {
	history, err := s.history.All(ctx)
	if err != nil {
		return nil, err
	}
	return DeriveTrends(history), nil
}

// Badges returns the full catalog annotated with unlock state and progress.
func (s *QuizService) Badges(ctx context.Context) ([]BadgeStatus, error) {
	unlocked, err := s.profile.Unlocked(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.profile.Stats(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]BadgeStatus, 0, len(domain.BadgeDefs))
	for _, def := range domain.BadgeDefs {
		status := BadgeStatus{Badge: def, Unlocked: unlocked[def.ID]}
		if current, target, ok := BadgeProgress(stats, def.ID); ok {
			status.Current = current
			status.Target = target
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Stats returns the lifetime profile counters.
func (s *QuizService) Stats(ctx context.Context) (domain.UserStats, error) {
	return s.profile.Stats(ctx)
}

// Suggest builds the report-card improvement suggestions from the topics of
// recently missed questions. Provider failures degrade to a canned message
// rather than an error.
func (s *QuizService) Suggest(ctx context.Context, grade domain.Grade) (string, error) {
	history, err := s.history.All(ctx)
	if err != nil {
		return "", err
	}

	var missed []string
	seen := make(map[string]struct{})
	for _, result := range history {
		for i, q := range result.Questions {
			if result.Correct(i) {
				continue
			}
			if _, ok := seen[q.Topic]; ok {
				continue
			}
			seen[q.Topic] = struct{}{}
			missed = append(missed, q.Topic)
		}
	}
	if len(missed) == 0 {
		return suggestionAllCorrect, nil
	}

	text, err := s.suggester.Suggest(ctx, grade, missed)
	if err != nil {
		log.Printf("service: suggestion generation failed: %v", err)
		return suggestionUnavailable, nil
	}
	return text, nil
}

func (s *QuizService) markSuggestionPracticed(ctx context.Context) error {
	stats, err := s.profile.Stats(ctx)
	if err != nil {
		return err
	}
	if !stats.PracticedFromSuggestion {
		stats.PracticedFromSuggestion = true
		if err := s.profile.SaveStats(ctx, stats); err != nil {
			return err
		}
	}
	_, err = s.profile.Unlock(ctx, domain.BadgeTopicExplorer)
	return err
}

func (s *QuizService) markRevalidationUsed(ctx context.Context) ([]domain.BadgeID, error) {
	stats, err := s.profile.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if !stats.RevalidationUsed {
		stats.RevalidationUsed = true
		if err := s.profile.SaveStats(ctx, stats); err != nil {
			return nil, err
		}
	}
	return s.profile.Unlock(ctx, domain.BadgeRevalidator)
}
