// Package engine implements the per-user lesson and exam flow state
// machines. Engines read and write flow state through the session store,
// persist attempts through the attempt store, and talk to the CRM only
// through the narrow collaborator interfaces below, so every side effect
// can be faked in tests.
package engine

import (
	"context"
	"errors"
	"time"

	"education-service/internal/repository"
)

var (
	ErrAccessDenied    = errors.New("access denied")
	ErrNoActiveSession = errors.New("no active session")
	ErrUnknownLesson   = errors.New("unknown lesson")
	// ErrPersistence wraps repository failures during finalize; the session
	// is kept so the user can retry.
	ErrPersistence = errors.New("persistence failure")
)

// AttemptStore is the repository capability the engines consume.
type AttemptStore interface {
	Create(ctx context.Context, userID int64, lessonKey string) (*repository.Attempt, error)
	Complete(ctx context.Context, attemptID string, score int, passed bool, completedAt time.Time) error
	HasCompleted(ctx context.Context, userID int64, lessonKey string) (bool, error)
}

// CRM is the external pipeline capability. Calls may fail independently of
// scoring; failures never roll a persisted score back.
type CRM interface {
	AttachNote(ctx context.Context, leadID int64, text string) error
	GetCurrentStage(ctx context.Context, leadID int64) (int64, error)
	PushStage(ctx context.Context, stageID, leadID int64) error
}

// Publisher emits best-effort domain events; a nil Publisher disables them.
type Publisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

// Event queue names.
const (
	QueueLessonCompleted = "education.lesson_completed"
	QueueExamCompleted   = "education.exam_completed"
	QueueCRMSyncFailed   = "education.crm_sync_failed"
)
