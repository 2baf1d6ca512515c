package domain

import "time"

// QuizRequest is the ephemeral configuration a student submits to start a
// quiz. FromSuggestion marks quizzes launched from a report-card suggestion
// so the topicExplorer badge can fire.
type QuizRequest struct {
	Subject         Subject    `json:"subject"`
	Topics          []string   `json:"topics"`
	Count           int        `json:"count"`
	Difficulty      Difficulty `json:"difficulty"`
	Grade           Grade      `json:"grade"`
	Mock            bool       `json:"mock"`
	InstantFeedback bool       `json:"instantFeedback"`
	FromSuggestion  bool       `json:"fromSuggestion"`
}

// Validate rejects requests that can never be fulfilled.
func (r QuizRequest) Validate() error {
	if len(r.Topics) == 0 {
		return ErrNoTopics
	}
	if r.Count <= 0 {
		return ErrInvalidCount
	}
	if r.Grade != Grade6 && r.Grade != Grade7 {
		return ErrInvalidGrade
	}
	return nil
}

// QuizResult is the immutable record of a finished quiz. Regrading may adjust
// score and questions exactly once, strictly before first persistence.
// OriginalQuestions holds the pre-revalidation snapshot and is present only
// when revalidation ran.
type QuizResult struct {
	ID                string     `json:"id"`
	Date              time.Time  `json:"date"`
	Questions         []Question `json:"questions"`
	OriginalQuestions []Question `json:"originalQuestions,omitempty"`
	UserAnswers       []*int     `json:"userAnswers"`
	Score             int        `json:"score"`
	Subject           Subject    `json:"subject"`
	Grade             Grade      `json:"grade"`
	Topics            []string   `json:"topics"`
	TimeTaken         int        `json:"timeTaken"`
	IsMock            bool       `json:"isMock"`
}

// Percentage is the score as a percentage of the question count.
func (r QuizResult) Percentage() float64 {
	if len(r.Questions) == 0 {
		return 0
	}
	return float64(r.Score) / float64(len(r.Questions)) * 100
}

// Correct reports whether the answer at index i was recorded and matches
// the current correct answer. Unanswered indices are incorrect.
func (r QuizResult) Correct(i int) bool {
	if i >= len(r.Questions) || i >= len(r.UserAnswers) || r.UserAnswers[i] == nil {
		return false
	}
	return *r.UserAnswers[i] == r.Questions[i].CorrectAnswerIndex
}
