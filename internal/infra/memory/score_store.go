package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"trivia-quiz/internal/domain"
)

// ScoreStore is an in-memory implementation of app.ScoreRepository.
// One mutex covers users and attempts so a record is applied all at once.
type ScoreStore struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[string]*domain.User
	attempts map[string]domain.QuizAttempt
	order    []string
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		users:    make(map[string]*domain.User),
		attempts: make(map[string]domain.QuizAttempt),
	}
}

func (s *ScoreStore) RecordAttempt(_ context.Context, record domain.AttemptRecord) error {
	if record.AttemptID == "" {
		return fmt.Errorf("record attempt: missing attempt id")
	}
	if record.Username == "" {
		return fmt.Errorf("record attempt: missing username")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.attempts[record.AttemptID]; seen {
		return nil
	}

	user, ok := s.users[record.Username]
	if !ok {
		s.nextID++
		user = &domain.User{
			ID:        s.nextID,
			Username:  record.Username,
			CreatedAt: record.CompletedAt,
		}
		s.users[record.Username] = user
	}
	user.TotalScore += record.Score
	user.QuizzesTaken++
	user.LastPlayed = record.CompletedAt

	s.attempts[record.AttemptID] = domain.QuizAttempt{
		ID:             record.AttemptID,
		UserID:         user.ID,
		Score:          record.Score,
		TotalQuestions: record.Total,
		CreatedAt:      record.CompletedAt,
	}
	s.order = append(s.order, record.AttemptID)
	return nil
}

func (s *ScoreStore) Leaderboard(_ context.Context) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	s.mu.RUnlock()

	// Score desc, then insertion order.
	sort.Slice(users, func(i, j int) bool {
		if users[i].TotalScore != users[j].TotalScore {
			return users[i].TotalScore > users[j].TotalScore
		}
		return users[i].ID < users[j].ID
	})

	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:         i + 1,
			Username:     u.Username,
			TotalScore:   u.TotalScore,
			QuizzesTaken: u.QuizzesTaken,
			LastPlayed:   u.LastPlayed,
		})
	}
	return entries, nil
}

// User returns a copy of the named user.
func (s *ScoreStore) User(username string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return domain.User{}, false
	}
	return *u, true
}

// Attempts returns recorded attempts in insertion order.
func (s *ScoreStore) Attempts() []domain.QuizAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizAttempt, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.attempts[id])
	}
	return out
}
