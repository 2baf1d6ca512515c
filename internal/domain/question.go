package domain

import "fmt"

// Subject identifies one of the supported Olympiad exam tracks.
type Subject string

const (
	SubjectIMO  Subject = "IMO"
	SubjectNSO  Subject = "NSO"
	SubjectIEO  Subject = "IEO"
	SubjectICSO Subject = "ICSO"
)

// Subjects lists every supported subject in a stable order.
var Subjects = []Subject{SubjectIMO, SubjectNSO, SubjectIEO, SubjectICSO}

// Difficulty grades a question. HOTS is a distinct higher-order-reasoning
// category, not just a harder label.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
	DifficultyHOTS   Difficulty = "HOTS (Achiever Section)"
)

// Grade is the student's school grade. Only 6 and 7 are supported.
type Grade int

const (
	Grade6 Grade = 6
	Grade7 Grade = 7
)

// OptionCount is the fixed number of choices every question carries.
const OptionCount = 4

// Question is a single multiple-choice question. Content is immutable once
// created, but revalidation may replace a question wholesale with a corrected
// copy carrying the same ID.
type Question struct {
	ID                 string     `json:"id"`
	QuestionText       string     `json:"questionText"`
	Options            []string   `json:"options"`
	CorrectAnswerIndex int        `json:"correctAnswerIndex"`
	Explanation        string     `json:"explanation"`
	Topic              string     `json:"topic"`
	Subject            Subject    `json:"subject"`
	Difficulty         Difficulty `json:"difficulty"`
	Grade              Grade      `json:"grade"`
	ImageSVG           string     `json:"imageSvg,omitempty"`
}

// Validate checks the structural invariants: exactly four options and a
// correct-answer index pointing at one of them.
func (q Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("question has no id")
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("question %s: expected %d options, got %d", q.ID, OptionCount, len(q.Options))
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= OptionCount {
		return fmt.Errorf("question %s: correct answer index %d out of range", q.ID, q.CorrectAnswerIndex)
	}
	return nil
}

// Equal reports full structural equality. Revalidation uses it to decide
// whether a returned question was corrected or merely confirmed.
func (q Question) Equal(other Question) bool {
	if q.ID != other.ID ||
		q.QuestionText != other.QuestionText ||
		q.CorrectAnswerIndex != other.CorrectAnswerIndex ||
		q.Explanation != other.Explanation ||
		q.Topic != other.Topic ||
		q.Subject != other.Subject ||
		q.Difficulty != other.Difficulty ||
		q.Grade != other.Grade ||
		q.ImageSVG != other.ImageSVG {
		return false
	}
	if len(q.Options) != len(other.Options) {
		return false
	}
	for i := range q.Options {
		if q.Options[i] != other.Options[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy, so snapshots cannot be mutated through shared
// option slices.
func (q Question) Clone() Question {
	c := q
	c.Options = append([]string(nil), q.Options...)
	return c
}

// CloneQuestions deep-copies a question list.
func CloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = q.Clone()
	}
	return out
}
