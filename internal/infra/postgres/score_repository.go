package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"trivia-quiz/internal/domain"
)

// ScoreRepository persists users and quiz attempts in Postgres.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// RecordAttempt writes the attempt row and the user aggregate in one transaction.
// A repeated attempt ID leaves both untouched.
func (r *ScoreRepository) RecordAttempt(ctx context.Context, record domain.AttemptRecord) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO users (username, last_played, created_at) VALUES ($1, $2, $2) ON CONFLICT (username) DO NOTHING`,
		record.Username, record.CompletedAt,
	); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	var userID int64
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE username=$1`, record.Username).Scan(&userID); err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO quiz_attempts (id, user_id, score, total_questions, created_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
		record.AttemptID, userID, record.Score, record.Total, record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	if tag.RowsAffected() == 1 {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET total_score = total_score + $2, quizzes_taken = quizzes_taken + 1, last_played = $3 WHERE id=$1`,
			userID, record.Score, record.CompletedAt,
		); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit attempt: %w", err)
	}
	return nil
}

// Leaderboard returns every user, highest aggregate score first, ties by insertion order.
func (r *ScoreRepository) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT username, total_score, quizzes_taken, last_played FROM users ORDER BY total_score DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		entry := domain.LeaderboardEntry{Rank: len(entries) + 1}
		if err := rows.Scan(&entry.Username, &entry.TotalScore, &entry.QuizzesTaken, &entry.LastPlayed); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return entries, nil
}

// User loads a single user by name.
func (r *ScoreRepository) User(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, total_score, quizzes_taken, last_played, created_at FROM users WHERE username=$1`, username,
	).Scan(&u.ID, &u.Username, &u.TotalScore, &u.QuizzesTaken, &u.LastPlayed, &u.CreatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// AttemptsFor lists a user's attempts, oldest first.
func (r *ScoreRepository) AttemptsFor(ctx context.Context, userID int64) ([]domain.QuizAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, user_id, score, total_questions, created_at FROM quiz_attempts WHERE user_id=$1 ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.QuizAttempt
	for rows.Next() {
		var a domain.QuizAttempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.Score, &a.TotalQuestions, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
