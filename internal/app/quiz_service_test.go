package app_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
	"trivia-quiz/internal/infra/memory"
)

func TestStartRequiresName(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionStore(time.Minute)
	service := app.NewQuizService(sessions, app.NewQuestionProvider(failingFetcher{}), memory.NewScoreStore(), nil)

	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := service.Start(ctx, "s1", app.StartRequest{Username: name}); !errors.Is(err, domain.ErrNameRequired) {
			t.Fatalf("name %q: expected ErrNameRequired, got %v", name, err)
		}
	}
	if sessions.Len() != 0 {
		t.Fatalf("expected no session state, got %d sessions", sessions.Len())
	}
}

func TestStartUsesFallbackWhenSourceFails(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(failingFetcher{})

	quiz, err := service.Start(ctx, "s1", app.StartRequest{Username: "Ada"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(quiz.Questions) != 5 {
		t.Fatalf("expected 5 fallback questions, got %d", len(quiz.Questions))
	}
	if quiz.Index != 0 || quiz.Score != 0 || quiz.AttemptID == "" {
		t.Fatalf("unexpected initial quiz %+v", quiz)
	}
	state, _ := service.State(ctx, "s1")
	if state != app.StateInProgress {
		t.Fatalf("expected in progress, got %s", state)
	}
}

func TestAdaScoresThreeOfFive(t *testing.T) {
	ctx := context.Background()
	service, scores, sessions := newTestService(failingFetcher{})

	if _, err := service.Start(ctx, "s1", app.StartRequest{Username: "Ada"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	answers := []string{"Paris", "Venus", "Leonardo da Vinci", "Elephant", "1945"}
	for i, answer := range answers {
		view, err := service.CurrentQuestion(ctx, "s1")
		if err != nil {
			t.Fatalf("question %d: %v", i+1, err)
		}
		if view.Number != i+1 || view.Total != 5 {
			t.Fatalf("unexpected view %+v", view)
		}
		outcome, err := service.SubmitAnswer(ctx, "s1", answer)
		if err != nil {
			t.Fatalf("answer %d: %v", i+1, err)
		}
		if outcome.Completed != (i == len(answers)-1) {
			t.Fatalf("answer %d: unexpected completion %v", i+1, outcome.Completed)
		}
	}

	if _, err := service.CurrentQuestion(ctx, "s1"); !errors.Is(err, domain.ErrQuizCompleted) {
		t.Fatalf("expected completed quiz, got %v", err)
	}
	if _, err := service.SubmitAnswer(ctx, "s1", "Paris"); !errors.Is(err, domain.ErrQuizCompleted) {
		t.Fatalf("expected answers rejected after completion, got %v", err)
	}

	result, err := service.Finalize(ctx, "s1")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if result.Score != 3 || result.Total != 5 || result.Percentage != 60 || result.Username != "Ada" {
		t.Fatalf("unexpected result %+v", result)
	}

	user, ok := scores.User("Ada")
	if !ok || user.TotalScore != 3 || user.QuizzesTaken != 1 {
		t.Fatalf("unexpected user %+v (found=%v)", user, ok)
	}
	attempts := scores.Attempts()
	if len(attempts) != 1 || attempts[0].Score != 3 || attempts[0].TotalQuestions != 5 {
		t.Fatalf("unexpected attempts %+v", attempts)
	}
	if sessions.Len() != 0 {
		t.Fatalf("expected session cleared after finalize")
	}
	if _, err := service.Finalize(ctx, "s1"); !errors.Is(err, domain.ErrNoActiveQuiz) {
		t.Fatalf("expected second finalize to find no quiz, got %v", err)
	}
}

func TestFinalizeAddsToExistingUser(t *testing.T) {
	ctx := context.Background()
	service, scores, _ := newTestService(failingFetcher{})

	playAll(t, service, "s1", "Ada", "Paris")
	before, _ := scores.User("Ada")

	playAll(t, service, "s2", "Ada", "Paris")
	result, err := service.Finalize(ctx, "s2")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	after, _ := scores.User("Ada")
	if after.QuizzesTaken != before.QuizzesTaken+1 {
		t.Fatalf("expected quizzes +1, before=%d after=%d", before.QuizzesTaken, after.QuizzesTaken)
	}
	if after.TotalScore != before.TotalScore+result.Score {
		t.Fatalf("expected total +%d, before=%d after=%d", result.Score, before.TotalScore, after.TotalScore)
	}
}

func TestFinalizeRequiresCompletion(t *testing.T) {
	ctx := context.Background()
	service, scores, _ := newTestService(failingFetcher{})

	if _, err := service.Finalize(ctx, "missing"); !errors.Is(err, domain.ErrNoActiveQuiz) {
		t.Fatalf("expected no active quiz, got %v", err)
	}
	if _, err := service.Finalize(ctx, ""); !errors.Is(err, domain.ErrNoActiveQuiz) {
		t.Fatalf("expected no active quiz for empty session, got %v", err)
	}

	_, _ = service.Start(ctx, "s1", app.StartRequest{Username: "Ada"})
	_, _ = service.SubmitAnswer(ctx, "s1", "Paris")
	if _, err := service.Finalize(ctx, "s1"); !errors.Is(err, domain.ErrQuizInProgress) {
		t.Fatalf("expected in progress, got %v", err)
	}
	if len(scores.Attempts()) != 0 {
		t.Fatalf("expected no attempt rows")
	}
}

func TestFinalizeKeepsSessionWhenRecordFails(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionStore(time.Minute)
	scores := &flakyScores{ScoreStore: memory.NewScoreStore(), failures: 1}
	service := app.NewQuizService(sessions, app.NewQuestionProvider(failingFetcher{}), scores, nil)

	playAll(t, service, "s1", "Ada", "Paris")
	if _, err := service.Finalize(ctx, "s1"); err == nil {
		t.Fatalf("expected record failure")
	}
	if state, _ := service.State(ctx, "s1"); state != app.StateCompleted {
		t.Fatalf("expected completed session kept for retry, got %s", state)
	}
	if _, ok := scores.User("Ada"); ok {
		t.Fatalf("expected no partial user update")
	}

	if _, err := service.Finalize(ctx, "s1"); err != nil {
		t.Fatalf("retry finalize: %v", err)
	}
	user, _ := scores.User("Ada")
	if user.QuizzesTaken != 1 || len(scores.Attempts()) != 1 {
		t.Fatalf("expected exactly one application, got user=%+v attempts=%d", user, len(scores.Attempts()))
	}
}

func TestScoreMatchesCorrectSubmissions(t *testing.T) {
	ctx := context.Background()
	rnd := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		service, _, _ := newTestService(failingFetcher{})
		quiz, err := service.Start(ctx, "s1", app.StartRequest{Username: "Ada"})
		if err != nil {
			t.Fatalf("start: %v", err)
		}

		want := 0
		for _, q := range quiz.Questions {
			answer := q.Options[rnd.Intn(len(q.Options))]
			if answer == q.CorrectAnswer {
				want++
			}
			outcome, err := service.SubmitAnswer(ctx, "s1", answer)
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if outcome.Score < 0 || outcome.Score > len(quiz.Questions) {
				t.Fatalf("score out of bounds: %d", outcome.Score)
			}
		}

		result, err := service.Finalize(ctx, "s1")
		if err != nil {
			t.Fatalf("finalize: %v", err)
		}
		if result.Score != want {
			t.Fatalf("round %d: expected score %d, got %d", round, want, result.Score)
		}
	}
}

func TestStartPassesFiltersAndUsesFetchedQuestions(t *testing.T) {
	ctx := context.Background()
	fetcher := &recordingFetcher{questions: []domain.Question{
		{Prompt: "Q1", CorrectAnswer: "A", Options: []string{"A", "B", "C", "D"}},
		{Prompt: "Q2", CorrectAnswer: "B", Options: []string{"A", "B", "C", "D"}},
	}}
	service, _, _ := newTestService(fetcher)

	quiz, err := service.Start(ctx, "s1", app.StartRequest{Username: " Ada ", Category: "22", Difficulty: "hard"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if quiz.Username != "Ada" {
		t.Fatalf("expected trimmed name, got %q", quiz.Username)
	}
	if fetcher.req.Amount != app.DefaultQuestionCount || fetcher.req.Category != "22" || fetcher.req.Difficulty != "hard" {
		t.Fatalf("unexpected fetch request %+v", fetcher.req)
	}
	if len(quiz.Questions) != 2 || quiz.Questions[0].Prompt != "Q1" {
		t.Fatalf("expected fetched questions, got %+v", quiz.Questions)
	}
}

func TestStartReplacesAbandonedQuiz(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(failingFetcher{})

	first, _ := service.Start(ctx, "s1", app.StartRequest{Username: "Ada"})
	_, _ = service.SubmitAnswer(ctx, "s1", "Paris")

	second, err := service.Start(ctx, "s1", app.StartRequest{Username: "Bob"})
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if second.AttemptID == first.AttemptID {
		t.Fatalf("expected a fresh attempt id")
	}
	view, _ := service.CurrentQuestion(ctx, "s1")
	if view.Number != 1 {
		t.Fatalf("expected restart at question 1, got %d", view.Number)
	}
}

func TestLeaderboardNonIncreasing(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(failingFetcher{})

	players := []struct {
		name   string
		answer string
	}{
		{"Ada", "Paris"}, {"Bob", "Mars"}, {"Cy", "nothing"}, {"Ada", "1945"}, {"Dee", "Paris"},
	}
	for i, p := range players {
		session := string(rune('a' + i))
		playAll(t, service, session, p.name, p.answer)
		if _, err := service.Finalize(ctx, session); err != nil {
			t.Fatalf("finalize %s: %v", p.name, err)
		}

		lb, err := service.Leaderboard(ctx)
		if err != nil {
			t.Fatalf("leaderboard: %v", err)
		}
		for j := 1; j < len(lb.Entries); j++ {
			if lb.Entries[j].TotalScore > lb.Entries[j-1].TotalScore {
				t.Fatalf("leaderboard not ordered: %+v", lb.Entries)
			}
		}
	}
}

func TestFinalizePublishesLeaderboard(t *testing.T) {
	ctx := context.Background()
	hub := app.NewLeaderboardHub()
	service := app.NewQuizService(memory.NewSessionStore(time.Minute), app.NewQuestionProvider(failingFetcher{}), memory.NewScoreStore(), hub)

	ch, cancel, err := service.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	initial := <-ch
	if len(initial.Entries) != 0 {
		t.Fatalf("expected empty initial leaderboard, got %+v", initial.Entries)
	}

	playAll(t, service, "s1", "Ada", "Paris")
	if _, err := service.Finalize(ctx, "s1"); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	select {
	case update := <-ch:
		if len(update.Entries) != 1 || update.Entries[0].Username != "Ada" || update.Entries[0].TotalScore != 1 {
			t.Fatalf("unexpected update %+v", update.Entries)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for leaderboard update")
	}
}

// playAll starts a quiz and submits the same answer to every question.
func playAll(t *testing.T, service *app.QuizService, sessionID, name, answer string) {
	t.Helper()
	ctx := context.Background()
	if _, err := service.Start(ctx, sessionID, app.StartRequest{Username: name}); err != nil {
		t.Fatalf("start: %v", err)
	}
	for {
		outcome, err := service.SubmitAnswer(ctx, sessionID, answer)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if outcome.Completed {
			return
		}
	}
}

func newTestService(fetcher app.QuestionFetcher) (*app.QuizService, *memory.ScoreStore, *memory.SessionStore) {
	sessions := memory.NewSessionStore(time.Minute)
	scores := memory.NewScoreStore()
	return app.NewQuizService(sessions, app.NewQuestionProvider(fetcher), scores, nil), scores, sessions
}

type failingFetcher struct{}

func (failingFetcher) Fetch(context.Context, domain.FetchRequest) domain.FetchResult {
	return domain.FetchFailed(domain.ErrUpstream)
}

type recordingFetcher struct {
	questions []domain.Question
	req       domain.FetchRequest
}

func (f *recordingFetcher) Fetch(_ context.Context, req domain.FetchRequest) domain.FetchResult {
	f.req = req
	return domain.Fetched(f.questions)
}

type flakyScores struct {
	*memory.ScoreStore
	failures int
}

func (f *flakyScores) RecordAttempt(ctx context.Context, record domain.AttemptRecord) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("database unavailable")
	}
	return f.ScoreStore.RecordAttempt(ctx, record)
}

func TestWithQuestionCountSetsFetchAmount(t *testing.T) {
	ctx := context.Background()
	fetcher := &recordingFetcher{questions: []domain.Question{
		{Prompt: "Q1", CorrectAnswer: "A", Options: []string{"A", "B", "C", "D"}},
	}}
	service := app.NewQuizService(memory.NewSessionStore(time.Minute), app.NewQuestionProvider(fetcher), memory.NewScoreStore(), nil).
		WithQuestionCount(10)
	if _, err := service.Start(ctx, "s1", app.StartRequest{Username: "Ada"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if fetcher.req.Amount != 10 {
		t.Fatalf("expected amount 10, got %d", fetcher.req.Amount)
	}

	service.WithQuestionCount(0)
	if _, err := service.Start(ctx, "s2", app.StartRequest{Username: "Bob"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if fetcher.req.Amount != 10 {
		t.Fatalf("expected zero count to be ignored, got %d", fetcher.req.Amount)
	}
}

func TestFinalizeStampsAttemptWithClock(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 12, 1, 9, 30, 0, 0, time.UTC)
	scores := memory.NewScoreStore()
	service := app.NewQuizServiceWithClock(memory.NewSessionStore(time.Minute), app.NewQuestionProvider(failingFetcher{}), scores, nil, func() time.Time { return fixed })

	quiz, err := service.Start(ctx, "s1", app.StartRequest{Username: "Ada"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !quiz.StartedAt.Equal(fixed) {
		t.Fatalf("expected start time %v, got %v", fixed, quiz.StartedAt)
	}
	playAll(t, service, "s1", "Ada", "Paris")
	if _, err := service.Finalize(ctx, "s1"); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	lb, err := service.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if !lb.UpdatedAt.Equal(fixed) {
		t.Fatalf("expected snapshot time %v, got %v", fixed, lb.UpdatedAt)
	}
	if len(lb.Entries) != 1 || !lb.Entries[0].LastPlayed.Equal(fixed) {
		t.Fatalf("expected last played %v, got %+v", fixed, lb.Entries)
	}
}

// racingScores finalizes a completed quiz while Subscribe reads its first snapshot.
type racingScores struct {
	*memory.ScoreStore
	raced bool
	race  func()
}

func (r *racingScores) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	entries, err := r.ScoreStore.Leaderboard(ctx)
	if !r.raced {
		r.raced = true
		r.race()
	}
	return entries, err
}

func TestSubscribeSeesFinalizeDuringFirstRead(t *testing.T) {
	ctx := context.Background()
	hub := app.NewLeaderboardHub()
	scores := &racingScores{ScoreStore: memory.NewScoreStore()}
	service := app.NewQuizService(memory.NewSessionStore(time.Minute), app.NewQuestionProvider(failingFetcher{}), scores, hub)
	playAll(t, service, "s1", "Ada", "Paris")

	scores.race = func() {
		if _, err := service.Finalize(ctx, "s1"); err != nil {
			t.Errorf("finalize: %v", err)
		}
	}

	ch, cancel, err := service.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	timeout := time.After(time.Second)
	for {
		select {
		case lb := <-ch:
			if len(lb.Entries) == 1 && lb.Entries[0].Username == "Ada" {
				return
			}
		case <-timeout:
			t.Fatalf("subscriber never saw the finalized attempt")
		}
	}
}
