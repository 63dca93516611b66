package domain

import "errors"

var (
	// ErrNameRequired is returned when a quiz is started without a display name.
	ErrNameRequired = errors.New("display name required")
	// ErrNoActiveQuiz is returned when a session has no quiz in progress.
	ErrNoActiveQuiz = errors.New("no active quiz")
	// ErrQuizInProgress is returned when finalizing a quiz that still has unanswered questions.
	ErrQuizInProgress = errors.New("quiz still in progress")
	// ErrQuizCompleted is returned when acting on a quiz whose questions are all answered.
	ErrQuizCompleted = errors.New("quiz already completed")
	// ErrUpstream wraps every failure of the external trivia API.
	ErrUpstream = errors.New("trivia api unavailable")
)
