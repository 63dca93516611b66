package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"trivia-quiz/internal/domain"
)

// SessionRepository abstracts how active quizzes are stored (in-memory, Redis, etc).
// Get reports ok=false, err=nil when the session has no quiz.
type SessionRepository interface {
	Get(ctx context.Context, sessionID string) (*ActiveQuiz, bool, error)
	Save(ctx context.Context, sessionID string, quiz *ActiveQuiz) error
	Delete(ctx context.Context, sessionID string) error
}

// QuestionSource always yields a usable question sequence.
type QuestionSource interface {
	Questions(ctx context.Context, req domain.FetchRequest) []domain.Question
}

// ScoreRepository persists finalized attempts and serves the leaderboard.
// RecordAttempt must apply the attempt row and the user update together,
// and must be a no-op for an attempt ID it has already recorded.
type ScoreRepository interface {
	RecordAttempt(ctx context.Context, record domain.AttemptRecord) error
	Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// StartRequest carries the start form.
type StartRequest struct {
	Username   string
	Category   string
	Difficulty string
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	sessions  SessionRepository
	questions QuestionSource
	scores    ScoreRepository
	hub       *LeaderboardHub
	now       func() time.Time
	newID     func() string
	amount    int
}

func NewQuizService(sessions SessionRepository, questions QuestionSource, scores ScoreRepository, hub *LeaderboardHub) *QuizService {
	return NewQuizServiceWithClock(sessions, questions, scores, hub, time.Now)
}

// NewQuizServiceWithClock injects the clock used for attempt and snapshot timestamps.
func NewQuizServiceWithClock(sessions SessionRepository, questions QuestionSource, scores ScoreRepository, hub *LeaderboardHub, now func() time.Time) *QuizService {
	return &QuizService{
		sessions:  sessions,
		questions: questions,
		scores:    scores,
		hub:       hub,
		now:       now,
		newID:     uuid.NewString,
		amount:    DefaultQuestionCount,
	}
}

// WithQuestionCount sets how many questions a quiz requests. Non-positive counts keep the default.
func (s *QuizService) WithQuestionCount(n int) *QuizService {
	if n > 0 {
		s.amount = n
	}
	return s
}

// State reports where the session's quiz is in its progression.
func (s *QuizService) State(ctx context.Context, sessionID string) (QuizState, error) {
	quiz, _, err := s.load(ctx, sessionID)
	if err != nil {
		return StateNotStarted, err
	}
	return quiz.State(), nil
}

// Start begins a new quiz for the session, replacing any abandoned one.
// An empty name leaves the session untouched.
func (s *QuizService) Start(ctx context.Context, sessionID string, req StartRequest) (*ActiveQuiz, error) {
	name := strings.TrimSpace(req.Username)
	if name == "" {
		return nil, domain.ErrNameRequired
	}

	questions := s.questions.Questions(ctx, domain.FetchRequest{
		Amount:     s.amount,
		Category:   strings.TrimSpace(req.Category),
		Difficulty: strings.TrimSpace(req.Difficulty),
	})

	quiz := NewActiveQuiz(s.newID(), name, questions, s.now())
	if err := s.sessions.Save(ctx, sessionID, quiz); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return quiz, nil
}

// CurrentQuestion returns the question the visitor should answer next.
func (s *QuizService) CurrentQuestion(ctx context.Context, sessionID string) (domain.QuestionView, error) {
	quiz, ok, err := s.load(ctx, sessionID)
	if err != nil {
		return domain.QuestionView{}, err
	}
	if !ok {
		return domain.QuestionView{}, domain.ErrNoActiveQuiz
	}
	return quiz.current()
}

// SubmitAnswer scores the answer to the current question and advances the quiz.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID, answer string) (domain.AnswerOutcome, error) {
	quiz, ok, err := s.load(ctx, sessionID)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}
	if !ok {
		return domain.AnswerOutcome{}, domain.ErrNoActiveQuiz
	}

	outcome, err := quiz.answer(answer)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}
	if err := s.sessions.Save(ctx, sessionID, quiz); err != nil {
		return domain.AnswerOutcome{}, fmt.Errorf("save session: %w", err)
	}
	return outcome, nil
}

// Finalize records a completed quiz and clears the session. When recording
// fails the session is kept so the whole finalization can be retried.
func (s *QuizService) Finalize(ctx context.Context, sessionID string) (domain.QuizResult, error) {
	quiz, ok, err := s.load(ctx, sessionID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	if !ok {
		return domain.QuizResult{}, domain.ErrNoActiveQuiz
	}
	if quiz.State() != StateCompleted {
		return domain.QuizResult{}, domain.ErrQuizInProgress
	}

	result := quiz.result()
	record := domain.AttemptRecord{
		AttemptID:   quiz.AttemptID,
		Username:    quiz.Username,
		Score:       result.Score,
		Total:       result.Total,
		CompletedAt: s.now(),
	}
	if err := s.scores.RecordAttempt(ctx, record); err != nil {
		return domain.QuizResult{}, fmt.Errorf("record attempt: %w", err)
	}

	// Recording is idempotent per attempt ID, so a failed delete cannot double count.
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		log.Printf("finalize: clear session %s: %v", sessionID, err)
	}

	s.publishLeaderboard(ctx)
	return result, nil
}

// Leaderboard returns all users ordered by aggregate score.
func (s *QuizService) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	entries, err := s.scores.Leaderboard(ctx)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("load leaderboard: %w", err)
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now()}, nil
}

// Subscribe returns a channel that receives leaderboard snapshots, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	if s.hub == nil {
		return nil, nil, fmt.Errorf("leaderboard hub not configured")
	}
	ch, cancel := s.hub.subscribe()
	seq := s.hub.ticket()
	lb, err := s.Leaderboard(ctx)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	s.hub.offer(ch, seq, lb)
	return ch, cancel, nil
}

func (s *QuizService) publishLeaderboard(ctx context.Context) {
	if s.hub == nil {
		return
	}
	seq := s.hub.ticket()
	lb, err := s.Leaderboard(ctx)
	if err != nil {
		log.Printf("finalize: refresh leaderboard: %v", err)
		return
	}
	s.hub.publish(seq, lb)
}

func (s *QuizService) load(ctx context.Context, sessionID string) (*ActiveQuiz, bool, error) {
	if sessionID == "" {
		return nil, false, nil
	}
	quiz, ok, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return quiz, true, nil
}
