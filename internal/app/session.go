package app

import (
	"sync"
	"time"

	"olympiad-quiz-service/internal/domain"
)

// mockSecondsPerQuestion fixes the mock exam time allowance.
const mockSecondsPerQuestion = 60

// EventType labels a session event pushed to subscribers.
type EventType string

const (
	EventAnswerSelected EventType = "answerSelected"
	EventAdvanced       EventType = "advanced"
	EventJumped         EventType = "jumped"
	EventAppended       EventType = "appended"
	EventCorrected      EventType = "corrected"
	EventSubmitted      EventType = "submitted"
)

// Event describes a session state change.
type Event struct {
	Type EventType `json:"type"`
	// Index is the question index the event concerns.
	Index int `json:"index"`
	// Appended carries the questions added by an appended event.
	Appended []domain.Question `json:"appended,omitempty"`
	// Question carries the updated question for a corrected event.
	Question *domain.Question `json:"question,omitempty"`
	// Changed reports whether a corrected event altered the question.
	Changed bool `json:"changed,omitempty"`
	// AtCurrent reports whether a correction landed on the question the
	// user is currently viewing.
	AtCurrent bool `json:"atCurrent,omitempty"`
	// Result carries the final result for a submitted event.
	Result *domain.QuizResult `json:"result,omitempty"`
}

// SessionState is a read snapshot of a session for transports.
type SessionState struct {
	ID           string            `json:"id"`
	Questions    []domain.Question `json:"questions"`
	UserAnswers  []*int            `json:"userAnswers"`
	Pending      *int              `json:"pending,omitempty"`
	CurrentIndex int               `json:"currentIndex"`
	IsMock       bool              `json:"isMock"`
	Submitted    bool              `json:"submitted"`
	// RemainingSeconds is the mock countdown left, -1 for untimed quizzes.
	RemainingSeconds int `json:"remainingSeconds"`
}

// SessionRepository stores live sessions by ID.
type SessionRepository interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// Session is the in-flight state of one quiz attempt. All methods are safe
// for concurrent use; the revalidation workers and the mock timer race the
// user's own actions.
type Session struct {
	id      string
	request domain.QuizRequest

	mu        sync.RWMutex
	questions []domain.Question
	// original snapshots the pre-revalidation questions of a mock exam so
	// the result can show what the user actually saw.
	original     []domain.Question
	answers      []*int
	pending      *int
	index        int
	startedAt    time.Time
	deadline     time.Time
	timer        *time.Timer
	revalidating map[int]bool
	submitted    bool
	subscribers  map[chan Event]struct{}

	now func() time.Time
}

func NewSession(id string, req domain.QuizRequest, questions []domain.Question) *Session {
	return NewSessionWithClock(id, req, questions, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id string, req domain.QuizRequest, questions []domain.Question, now func() time.Time) *Session {
	s := &Session{
		id:           id,
		request:      req,
		questions:    domain.CloneQuestions(questions),
		answers:      make([]*int, len(questions)),
		startedAt:    now(),
		revalidating: make(map[int]bool),
		subscribers:  make(map[chan Event]struct{}),
		now:          now,
	}
	if req.Mock {
		s.original = domain.CloneQuestions(questions)
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Request() domain.QuizRequest { return s.request }

// SelectAnswer stages an option for the current question without recording
// it. Selections become permanent when the user advances or jumps away.
func (s *Session) SelectAnswer(option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return domain.ErrSessionSubmitted
	}
	if option < 0 || option >= domain.OptionCount {
		return domain.ErrInvalidOption
	}
	o := option
	s.pending = &o
	s.broadcastLocked(Event{Type: EventAnswerSelected, Index: s.index})
	return nil
}

// Advance commits the staged selection and moves to the next question. The
// index stays on the last question once there is nowhere further to go.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return domain.ErrSessionSubmitted
	}
	if s.pending == nil && s.answers[s.index] == nil {
		return domain.ErrNoSelection
	}
	s.commitLocked()
	if s.index+1 < len(s.questions) {
		s.index++
	}
	s.broadcastLocked(Event{Type: EventAdvanced, Index: s.index})
	return nil
}

// JumpTo commits any staged selection and moves to an arbitrary question.
// Used by mock exams for free navigation.
func (s *Session) JumpTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return domain.ErrSessionSubmitted
	}
	if index < 0 || index >= len(s.questions) {
		return domain.ErrInvalidIndex
	}
	s.commitLocked()
	s.index = index
	s.broadcastLocked(Event{Type: EventJumped, Index: s.index})
	return nil
}

// Append extends the quiz with late-arriving questions. The answer list grows
// in lockstep so indices stay aligned. Appends after submission are dropped.
func (s *Session) Append(questions []domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted || len(questions) == 0 {
		return
	}
	at := len(s.questions)
	s.questions = append(s.questions, domain.CloneQuestions(questions)...)
	s.answers = append(s.answers, make([]*int, len(questions))...)
	if s.original != nil {
		s.original = append(s.original, domain.CloneQuestions(questions)...)
	}
	s.broadcastLocked(Event{Type: EventAppended, Index: at, Appended: domain.CloneQuestions(questions)})
}

// ApplyCorrection swaps in a revalidated question by ID and reports whether
// anything actually changed. Corrections after submission are dropped.
func (s *Session) ApplyCorrection(checked domain.Question) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return false
	}
	for i := range s.questions {
		if s.questions[i].ID != checked.ID {
			continue
		}
		changed := !s.questions[i].Equal(checked)
		if changed {
			s.questions[i] = checked.Clone()
		}
		q := checked.Clone()
		s.broadcastLocked(Event{
			Type:      EventCorrected,
			Index:     i,
			Question:  &q,
			Changed:   changed,
			AtCurrent: i == s.index,
		})
		return changed
	}
	return false
}

// ClaimRevalidation marks a question as having an in-flight revalidation.
// A question is revalidated at most once per session; a false return means
// the claim was already taken.
func (s *Session) ClaimRevalidation(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return false, domain.ErrSessionSubmitted
	}
	if index < 0 || index >= len(s.questions) {
		return false, domain.ErrInvalidIndex
	}
	if s.revalidating[index] {
		return false, nil
	}
	s.revalidating[index] = true
	return true, nil
}

// ReleaseRevalidation frees a claim after a failed revalidation so the user
// can retry.
func (s *Session) ReleaseRevalidation(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.revalidating, index)
}

// Submit finalizes the attempt, scores it against the current answer key, and
// returns the result. Submitting twice fails with ErrSessionSubmitted.
func (s *Session) Submit() (domain.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return domain.QuizResult{}, domain.ErrSessionSubmitted
	}
	if len(s.questions) == 0 {
		return domain.QuizResult{}, domain.ErrNoQuestionsAvailable
	}
	s.commitLocked()
	s.submitted = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	now := s.now()
	score := 0
	answers := make([]*int, len(s.questions))
	copy(answers, s.answers)
	for i, q := range s.questions {
		if answers[i] != nil && *answers[i] == q.CorrectAnswerIndex {
			score++
		}
	}

	result := domain.QuizResult{
		ID:          now.Format(time.RFC3339Nano),
		Date:        now,
		Questions:   domain.CloneQuestions(s.questions),
		UserAnswers: answers,
		Score:       score,
		Subject:     s.request.Subject,
		Grade:       s.request.Grade,
		Topics:      distinctTopics(s.questions),
		TimeTaken:   int(now.Sub(s.startedAt) / time.Second),
		IsMock:      s.request.Mock,
	}
	if s.request.Mock && s.original != nil {
		result.OriginalQuestions = domain.CloneQuestions(s.original)
	}
	s.broadcastLocked(Event{Type: EventSubmitted, Index: s.index, Result: &result})
	return result, nil
}

// StartTimer arms the mock exam countdown at one minute per question. The
// callback fires from the timer goroutine when time runs out.
func (s *Session) StartTimer(onExpire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil || s.submitted {
		return
	}
	d := time.Duration(len(s.questions)) * mockSecondsPerQuestion * time.Second
	s.deadline = s.now().Add(d)
	s.timer = time.AfterFunc(d, onExpire)
}

// Remaining returns the mock countdown left, or -1 for untimed sessions.
func (s *Session) Remaining() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deadline.IsZero() {
		return -1
	}
	left := s.deadline.Sub(s.now())
	if left < 0 {
		return 0
	}
	return left
}

// Submitted reports whether the session has been finalized.
func (s *Session) Submitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submitted
}

// Questions returns a copy of the current question list.
func (s *Session) Questions() []domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneQuestions(s.questions)
}

// QuestionAt returns a copy of the question at the given index.
func (s *Session) QuestionAt(index int) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.questions) {
		return domain.Question{}, domain.ErrInvalidIndex
	}
	return s.questions[index].Clone(), nil
}

// Snapshot returns the full transport-facing view of the session.
func (s *Session) Snapshot() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	answers := make([]*int, len(s.answers))
	copy(answers, s.answers)

	remaining := -1
	if !s.deadline.IsZero() {
		left := int(s.deadline.Sub(s.now()) / time.Second)
		if left < 0 {
			left = 0
		}
		remaining = left
	}
	return SessionState{
		ID:               s.id,
		Questions:        domain.CloneQuestions(s.questions),
		UserAnswers:      answers,
		Pending:          s.pending,
		CurrentIndex:     s.index,
		IsMock:           s.request.Mock,
		Submitted:        s.submitted,
		RemainingSeconds: remaining,
	}
}

// Subscribe returns a channel of session events. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) commitLocked() {
	if s.pending != nil {
		v := *s.pending
		s.answers[s.index] = &v
		s.pending = nil
	}
}

func (s *Session) broadcastLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest queued event rather than block the session.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func distinctTopics(questions []domain.Question) []string {
	seen := make(map[string]struct{}, len(questions))
	var topics []string
	for _, q := range questions {
		if _, ok := seen[q.Topic]; ok {
			continue
		}
		seen[q.Topic] = struct{}{}
		topics = append(topics, q.Topic)
	}
	return topics
}
