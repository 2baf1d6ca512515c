package app

import (
	"context"
	"log"

	"olympiad-quiz-service/internal/domain"
)

// QuestionRevalidator fact-checks a single question. Satisfied by ai.Gateway.
type QuestionRevalidator interface {
	Revalidate(ctx context.Context, q domain.Question) (domain.Question, error)
}

// RevalidationCoordinator runs fact-check passes against live sessions and
// finished results. Corrections flow back through the session so the answer
// key stays consistent with whatever the user ends up being graded on.
type RevalidationCoordinator struct {
	revalidator QuestionRevalidator
}

func NewRevalidationCoordinator(revalidator QuestionRevalidator) *RevalidationCoordinator {
	return &RevalidationCoordinator{revalidator: revalidator}
}

// RevalidateAt fact-checks one question of a live session on user demand.
// Each question is checked at most once per session; repeat requests are
// no-ops. Returns the question now in place and whether it changed.
func (c *RevalidationCoordinator) RevalidateAt(ctx context.Context, session *Session, index int) (domain.Question, bool, error) {
	claimed, err := session.ClaimRevalidation(index)
	if err != nil {
		return domain.Question{}, false, err
	}
	if !claimed {
		q, err := session.QuestionAt(index)
		return q, false, err
	}

	q, err := session.QuestionAt(index)
	if err != nil {
		session.ReleaseRevalidation(index)
		return domain.Question{}, false, err
	}
	checked, err := c.revalidator.Revalidate(ctx, q)
	if err != nil {
		// Free the claim so the user can retry.
		session.ReleaseRevalidation(index)
		return domain.Question{}, false, err
	}
	changed := session.ApplyCorrection(checked)
	return checked, changed, nil
}

type revalidationOutcome struct {
	index   int
	checked domain.Question
	err     error
}

// RevalidateAll fact-checks every question of a session concurrently and
// applies corrections as they settle. Used for the background pass that runs
// while a mock exam is in progress. Individual failures leave the question
// as generated.
func (c *RevalidationCoordinator) RevalidateAll(ctx context.Context, session *Session) {
	questions := session.Questions()
	if len(questions) == 0 {
		return
	}

	outcomes := make(chan revalidationOutcome, len(questions))
	for i, q := range questions {
		claimed, err := session.ClaimRevalidation(i)
		if err != nil || !claimed {
			outcomes <- revalidationOutcome{index: i, err: err}
			continue
		}
		go func(i int, q domain.Question) {
			checked, err := c.revalidator.Revalidate(ctx, q)
			outcomes <- revalidationOutcome{index: i, checked: checked, err: err}
		}(i, q)
	}

	for range questions {
		outcome := <-outcomes
		if outcome.err != nil {
			log.Printf("revalidation: question %d failed, keeping as generated: %v", outcome.index, outcome.err)
			continue
		}
		if outcome.checked.ID == "" {
			continue
		}
		session.ApplyCorrection(outcome.checked)
	}
}

// Regrade runs the post-submission pass of a mock exam: every answered but
// incorrect question is fact-checked once more, and the score is recomputed
// against the corrected key. The pre-regrade questions are preserved in
// OriginalQuestions so the report can show what the user actually saw.
// Unanswered questions are skipped; no key change can rescue a blank.
func (c *RevalidationCoordinator) Regrade(ctx context.Context, result domain.QuizResult) domain.QuizResult {
	if result.OriginalQuestions == nil {
		result.OriginalQuestions = domain.CloneQuestions(result.Questions)
	}

	var suspect []int
	for i, q := range result.Questions {
		if i >= len(result.UserAnswers) || result.UserAnswers[i] == nil {
			continue
		}
		if *result.UserAnswers[i] != q.CorrectAnswerIndex {
			suspect = append(suspect, i)
		}
	}
	if len(suspect) == 0 {
		return result
	}

	outcomes := make(chan revalidationOutcome, len(suspect))
	for _, i := range suspect {
		go func(i int, q domain.Question) {
			checked, err := c.revalidator.Revalidate(ctx, q)
			outcomes <- revalidationOutcome{index: i, checked: checked, err: err}
		}(i, result.Questions[i])
	}

	questions := domain.CloneQuestions(result.Questions)
	for range suspect {
		outcome := <-outcomes
		if outcome.err != nil {
			log.Printf("regrade: question %d failed, keeping original grading: %v", outcome.index, outcome.err)
			continue
		}
		if outcome.checked.ID != questions[outcome.index].ID {
			log.Printf("regrade: question %d returned mismatched id %q, dropping", outcome.index, outcome.checked.ID)
			continue
		}
		questions[outcome.index] = outcome.checked
	}
	result.Questions = questions

	score := 0
	for i, q := range result.Questions {
		if i < len(result.UserAnswers) && result.UserAnswers[i] != nil && *result.UserAnswers[i] == q.CorrectAnswerIndex {
			score++
		}
	}
	result.Score = score
	return result
}
