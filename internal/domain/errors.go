package domain

import "errors"

var (
	// ErrNoQuestionsAvailable means both the bank and the AI were exhausted
	// without producing a single question for the request.
	ErrNoQuestionsAvailable = errors.New("no questions available for the selected criteria")
	// ErrGenerationFailed means both AI providers failed to produce a batch.
	ErrGenerationFailed = errors.New("question generation failed")
	// ErrRevalidationFailed means both AI providers failed to fact-check a question.
	ErrRevalidationFailed = errors.New("question revalidation failed")
	// ErrIdentityChanged means a revalidation response came back with a
	// different question ID, which violates the gateway contract.
	ErrIdentityChanged = errors.New("revalidated question changed identity")

	// ErrSessionNotFound is returned when acting on a quiz session that does
	// not exist or was already torn down.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionSubmitted is returned when acting on an already-submitted session.
	ErrSessionSubmitted = errors.New("quiz session already submitted")
	// ErrNoSelection is returned by advance when no option is selected.
	ErrNoSelection = errors.New("no option selected")
	// ErrInvalidOption is returned for an option index outside 0..3.
	ErrInvalidOption = errors.New("option index out of range")
	// ErrInvalidIndex is returned for question indices outside the list.
	ErrInvalidIndex = errors.New("question index out of range")

	// ErrNoTopics rejects quiz requests with an empty topic set.
	ErrNoTopics = errors.New("at least one topic is required")
	// ErrInvalidCount rejects non-positive question counts.
	ErrInvalidCount = errors.New("question count must be positive")
	// ErrInvalidGrade rejects grades other than 6 and 7.
	ErrInvalidGrade = errors.New("grade must be 6 or 7")

	// ErrResultNotFound is returned when a history lookup misses.
	ErrResultNotFound = errors.New("quiz result not found")
)
