package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"olympiad-quiz-service/internal/app"
	"olympiad-quiz-service/internal/domain"
)

type stubRevalidator struct {
	mu         sync.Mutex
	calls      int
	revalidate func(q domain.Question) (domain.Question, error)
}

func (r *stubRevalidator) Revalidate(_ context.Context, q domain.Question) (domain.Question, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.revalidate(q)
}

func (r *stubRevalidator) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func confirmAsIs(q domain.Question) (domain.Question, error) { return q, nil }

func TestRevalidateAtAppliesCorrection(t *testing.T) {
	q := mathQuestion("q1", "Algebra", 1)
	session := app.NewSession("s1", practiceRequest(1), []domain.Question{q})

	rev := &stubRevalidator{revalidate: func(in domain.Question) (domain.Question, error) {
		in.CorrectAnswerIndex = 3
		return in, nil
	}}
	coordinator := app.NewRevalidationCoordinator(rev)

	checked, changed, err := coordinator.RevalidateAt(context.Background(), session, 0)
	if err != nil {
		t.Fatalf("revalidate: %v", err)
	}
	if !changed {
		t.Fatal("expected a correction")
	}
	if checked.CorrectAnswerIndex != 3 {
		t.Fatalf("expected corrected key, got %d", checked.CorrectAnswerIndex)
	}
	if got := session.Questions()[0].CorrectAnswerIndex; got != 3 {
		t.Fatalf("session not updated, key=%d", got)
	}
}

func TestRevalidateAtOncePerQuestion(t *testing.T) {
	session := app.NewSession("s1", practiceRequest(1), []domain.Question{
		mathQuestion("q1", "Algebra", 1),
	})
	rev := &stubRevalidator{revalidate: confirmAsIs}
	coordinator := app.NewRevalidationCoordinator(rev)

	if _, _, err := coordinator.RevalidateAt(context.Background(), session, 0); err != nil {
		t.Fatalf("first revalidate: %v", err)
	}
	checked, changed, err := coordinator.RevalidateAt(context.Background(), session, 0)
	if err != nil {
		t.Fatalf("second revalidate: %v", err)
	}
	if changed {
		t.Fatal("repeat revalidation must be a no-op")
	}
	if checked.ID != "q1" {
		t.Fatalf("expected current question back, got %q", checked.ID)
	}
	if rev.callCount() != 1 {
		t.Fatalf("provider called %d times, want 1", rev.callCount())
	}
}

func TestRevalidateAtFailureAllowsRetry(t *testing.T) {
	session := app.NewSession("s1", practiceRequest(1), []domain.Question{
		mathQuestion("q1", "Algebra", 1),
	})
	fail := true
	rev := &stubRevalidator{revalidate: func(q domain.Question) (domain.Question, error) {
		if fail {
			return domain.Question{}, domain.ErrRevalidationFailed
		}
		return q, nil
	}}
	coordinator := app.NewRevalidationCoordinator(rev)

	if _, _, err := coordinator.RevalidateAt(context.Background(), session, 0); !errors.Is(err, domain.ErrRevalidationFailed) {
		t.Fatalf("expected failure, got %v", err)
	}

	fail = false
	if _, _, err := coordinator.RevalidateAt(context.Background(), session, 0); err != nil {
		t.Fatalf("retry after failure must be possible: %v", err)
	}
	if rev.callCount() != 2 {
		t.Fatalf("provider called %d times, want 2", rev.callCount())
	}
}

func TestRevalidateAllSettlesEveryQuestion(t *testing.T) {
	questions := []domain.Question{
		mathQuestion("q1", "Algebra", 0),
		mathQuestion("q2", "Geometry", 1),
		mathQuestion("q3", "Algebra", 2),
	}
	session := app.NewSession("s1", practiceRequest(3), questions)

	rev := &stubRevalidator{revalidate: func(q domain.Question) (domain.Question, error) {
		switch q.ID {
		case "q2":
			return domain.Question{}, domain.ErrRevalidationFailed
		case "q3":
			q.CorrectAnswerIndex = 0
			return q, nil
		default:
			return q, nil
		}
	}}
	coordinator := app.NewRevalidationCoordinator(rev)
	coordinator.RevalidateAll(context.Background(), session)

	got := session.Questions()
	if got[1].CorrectAnswerIndex != 1 {
		t.Fatal("failed revalidation must leave the question as generated")
	}
	if got[2].CorrectAnswerIndex != 0 {
		t.Fatal("correction from the background pass was not applied")
	}
	if rev.callCount() != 3 {
		t.Fatalf("provider called %d times, want 3", rev.callCount())
	}
}

func TestRegradeRescoresAnsweredIncorrect(t *testing.T) {
	one, two := 1, 2
	result := domain.QuizResult{
		ID: "r1",
		Questions: []domain.Question{
			mathQuestion("q1", "Algebra", 1),  // answered 1: correct, not rechecked
			mathQuestion("q2", "Geometry", 0), // answered 2: wrong under old key
			mathQuestion("q3", "Algebra", 3),  // unanswered: skipped
		},
		UserAnswers: []*int{&one, &two, nil},
		Score:       1,
		Subject:     domain.SubjectIMO,
		Grade:       domain.Grade6,
		IsMock:      true,
	}

	rev := &stubRevalidator{revalidate: func(q domain.Question) (domain.Question, error) {
		if q.ID != "q2" {
			t.Errorf("unexpected recheck of %s", q.ID)
		}
		q.CorrectAnswerIndex = 2
		return q, nil
	}}
	coordinator := app.NewRevalidationCoordinator(rev)

	regraded := coordinator.Regrade(context.Background(), result)
	if regraded.Score != 2 {
		t.Fatalf("expected rescued score 2, got %d", regraded.Score)
	}
	if len(regraded.OriginalQuestions) != 3 {
		t.Fatal("regrade must preserve the pre-regrade questions")
	}
	if regraded.OriginalQuestions[1].CorrectAnswerIndex != 0 {
		t.Fatal("original snapshot must keep the old key")
	}
	if rev.callCount() != 1 {
		t.Fatalf("provider called %d times, want 1", rev.callCount())
	}
}

func TestRegradeSkipsNetworkWhenAllCorrect(t *testing.T) {
	one := 1
	result := domain.QuizResult{
		ID:          "r1",
		Questions:   []domain.Question{mathQuestion("q1", "Algebra", 1)},
		UserAnswers: []*int{&one},
		Score:       1,
		IsMock:      true,
	}
	rev := &stubRevalidator{revalidate: func(q domain.Question) (domain.Question, error) {
		t.Error("no recheck expected")
		return q, nil
	}}
	coordinator := app.NewRevalidationCoordinator(rev)

	regraded := coordinator.Regrade(context.Background(), result)
	if regraded.Score != 1 {
		t.Fatalf("score changed to %d", regraded.Score)
	}
	if len(regraded.OriginalQuestions) != 1 {
		t.Fatal("regrade must still snapshot the questions")
	}
}
