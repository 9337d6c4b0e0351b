package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AttemptRepository struct {
	db *sql.DB
}

func NewAttemptRepository(db *sql.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Attempt is one persisted run of a lesson or exam. It is created empty
// when the flow starts and filled in exactly once on finalize.
type Attempt struct {
	ID          string
	UserID      int64
	LessonKey   string
	Score       sql.NullInt64
	Completed   bool
	StartedAt   time.Time
	CompletedAt sql.NullTime
}

func (r *AttemptRepository) Create(ctx context.Context, userID int64, lessonKey string) (*Attempt, error) {
	attempt := &Attempt{
		ID:        uuid.New().String(),
		UserID:    userID,
		LessonKey: lessonKey,
		StartedAt: time.Now(),
	}

	query := `
		INSERT INTO lesson_attempts (id, user_id, lesson_key, started_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.UserID,
		attempt.LessonKey,
		attempt.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}
	return attempt, nil
}

func (r *AttemptRepository) Complete(ctx context.Context, attemptID string, score int, passed bool, completedAt time.Time) error {
	query := `
		UPDATE lesson_attempts
		SET score = $1, completed = $2, completed_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, score, passed, completedAt, attemptID)
	if err != nil {
		return fmt.Errorf("failed to complete attempt: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("attempt %s not found", attemptID)
	}
	return nil
}

func (r *AttemptRepository) HasCompleted(ctx context.Context, userID int64, lessonKey string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM lesson_attempts
			WHERE user_id = $1 AND lesson_key = $2 AND completed = TRUE
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, lessonKey).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check completed attempt: %w", err)
	}
	return exists, nil
}

func (r *AttemptRepository) ListByUser(ctx context.Context, userID int64) ([]*Attempt, error) {
	query := `
		SELECT id, user_id, lesson_key, score, completed, started_at, completed_at
		FROM lesson_attempts
		WHERE user_id = $1
		ORDER BY started_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*Attempt
	for rows.Next() {
		attempt := &Attempt{}
		err := rows.Scan(
			&attempt.ID,
			&attempt.UserID,
			&attempt.LessonKey,
			&attempt.Score,
			&attempt.Completed,
			&attempt.StartedAt,
			&attempt.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}
