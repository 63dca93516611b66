package app

import (
	"time"

	"trivia-quiz/internal/domain"
)

// QuizState is the progression state of a visitor's quiz.
type QuizState int

const (
	StateNotStarted QuizState = iota
	StateInProgress
	StateCompleted
)

func (s QuizState) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	default:
		return "not_started"
	}
}

// ActiveQuiz is the transient per-session quiz. Fields are exported so session
// stores can serialize it; mutate it only through QuizService.
type ActiveQuiz struct {
	AttemptID string            `json:"attemptId"`
	Username  string            `json:"username"`
	Questions []domain.Question `json:"questions"`
	Index     int               `json:"index"`
	Score     int               `json:"score"`
	StartedAt time.Time         `json:"startedAt"`
}

// NewActiveQuiz is exported for infrastructure layers that need to seed sessions.
func NewActiveQuiz(attemptID, username string, questions []domain.Question, startedAt time.Time) *ActiveQuiz {
	return &ActiveQuiz{
		AttemptID: attemptID,
		Username:  username,
		Questions: questions,
		StartedAt: startedAt,
	}
}

// State derives the progression state. A nil quiz has not started.
func (q *ActiveQuiz) State() QuizState {
	if q == nil {
		return StateNotStarted
	}
	if q.Index >= len(q.Questions) {
		return StateCompleted
	}
	return StateInProgress
}

func (q *ActiveQuiz) current() (domain.QuestionView, error) {
	if q.State() != StateInProgress {
		return domain.QuestionView{}, domain.ErrQuizCompleted
	}
	total := len(q.Questions)
	return domain.QuestionView{
		Question: q.Questions[q.Index],
		Number:   q.Index + 1,
		Total:    total,
		Progress: float64((q.Index+1)*100) / float64(total),
	}, nil
}

func (q *ActiveQuiz) answer(selected string) (domain.AnswerOutcome, error) {
	if q.State() != StateInProgress {
		return domain.AnswerOutcome{}, domain.ErrQuizCompleted
	}
	correct := selected == q.Questions[q.Index].CorrectAnswer
	if correct {
		q.Score++
	}
	q.Index++
	return domain.AnswerOutcome{
		Correct:   correct,
		Score:     q.Score,
		Completed: q.State() == StateCompleted,
	}, nil
}

func (q *ActiveQuiz) result() domain.QuizResult {
	total := len(q.Questions)
	percentage := 0.0
	if total > 0 {
		percentage = float64(q.Score*100) / float64(total)
	}
	return domain.QuizResult{
		Username:   q.Username,
		Score:      q.Score,
		Total:      total,
		Percentage: percentage,
	}
}
