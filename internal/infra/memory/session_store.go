package memory

import (
	"context"
	"sync"
	"time"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Quizzes are copied on the way in and out so callers never share state.
// Entries idle longer than ttl count as abandoned.
type SessionStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	clock    func() time.Time
	sessions map[string]sessionEntry
}

type sessionEntry struct {
	quiz      *app.ActiveQuiz
	expiresAt time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]sessionEntry),
	}
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (*app.ActiveQuiz, bool, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.ttl > 0 && !entry.expiresAt.After(s.clock()) {
		s.mu.Lock()
		if current, ok := s.sessions[sessionID]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(s.sessions, sessionID)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return cloneQuiz(entry.quiz), true, nil
}

func (s *SessionStore) Save(_ context.Context, sessionID string, quiz *app.ActiveQuiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = sessionEntry{
		quiz:      cloneQuiz(quiz),
		expiresAt: s.clock().Add(s.ttl),
	}
	return nil
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Len reports how many sessions are held, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func cloneQuiz(q *app.ActiveQuiz) *app.ActiveQuiz {
	if q == nil {
		return nil
	}
	out := *q
	out.Questions = make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		out.Questions[i] = question
	}
	return &out
}
