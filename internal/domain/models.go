package domain

import "time"

// Question is a multiple-choice trivia question with decoded text.
type Question struct {
	Prompt        string   `json:"prompt"`
	CorrectAnswer string   `json:"correctAnswer"`
	Options       []string `json:"options"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
}

// User is the aggregate record of a named player.
type User struct {
	ID           int64
	Username     string
	TotalScore   int
	QuizzesTaken int
	LastPlayed   time.Time
	CreatedAt    time.Time
}

// QuizAttempt is one finalized quiz. Immutable once written.
type QuizAttempt struct {
	ID             string
	UserID         int64
	Score          int
	TotalQuestions int
	CreatedAt      time.Time
}

// AttemptRecord is what finalization hands to the score store.
type AttemptRecord struct {
	AttemptID   string
	Username    string
	Score       int
	Total       int
	CompletedAt time.Time
}

// LeaderboardEntry is a ranked view of a user.
type LeaderboardEntry struct {
	Rank         int       `json:"rank"`
	Username     string    `json:"username"`
	TotalScore   int       `json:"totalScore"`
	QuizzesTaken int       `json:"quizzesTaken"`
	LastPlayed   time.Time `json:"lastPlayed"`
}

// Leaderboard captures the ordered scoreboard across all users.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// QuizResult is shown once a quiz has been finalized.
type QuizResult struct {
	Username   string  `json:"username"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// QuestionView is the current question of an active quiz as rendered to the visitor.
type QuestionView struct {
	Question Question
	Number   int
	Total    int
	Progress float64
}

// AnswerOutcome summarizes a single submission.
type AnswerOutcome struct {
	Correct   bool
	Score     int
	Completed bool
}

// Category is an Open Trivia DB category.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// FetchRequest selects questions from a question source.
type FetchRequest struct {
	Amount     int
	Category   string
	Difficulty string
}

// FetchResult is the outcome of a question fetch: either Questions or Err.
type FetchResult struct {
	Questions []Question
	Err       error
}

// Fetched wraps a successful fetch.
func Fetched(questions []Question) FetchResult {
	return FetchResult{Questions: questions}
}

// FetchFailed wraps a failed fetch.
func FetchFailed(err error) FetchResult {
	return FetchResult{Err: err}
}

// OK reports whether the fetch produced usable questions.
func (r FetchResult) OK() bool {
	return r.Err == nil && len(r.Questions) > 0
}
