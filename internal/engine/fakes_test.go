package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"education-service/internal/repository"
)

// fakeAttempts records attempt lifecycle calls in memory.
type fakeAttempts struct {
	mu          sync.Mutex
	nextID      int
	created     []string // lesson keys in creation order
	completed   map[string]completedCall
	completeErr error
	done        map[string]bool // "userID:lessonKey" -> completed
}

type completedCall struct {
	Score  int
	Passed bool
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{
		completed: map[string]completedCall{},
		done:      map[string]bool{},
	}
}

func (f *fakeAttempts) Create(ctx context.Context, userID int64, lessonKey string) (*repository.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.created = append(f.created, lessonKey)
	return &repository.Attempt{
		ID:        fmt.Sprintf("attempt-%d", f.nextID),
		UserID:    userID,
		LessonKey: lessonKey,
		StartedAt: time.Now(),
	}, nil
}

func (f *fakeAttempts) Complete(ctx context.Context, attemptID string, score int, passed bool, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completed[attemptID] = completedCall{Score: score, Passed: passed}
	return nil
}

func (f *fakeAttempts) HasCompleted(ctx context.Context, userID int64, lessonKey string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done[fmt.Sprintf("%d:%s", userID, lessonKey)], nil
}

func (f *fakeAttempts) markDone(userID int64, lessonKey string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done[fmt.Sprintf("%d:%s", userID, lessonKey)] = true
}

// fakeCRM serves a fixed current stage and records notes and pushes.
type fakeCRM struct {
	currentStage int64
	noteErr      error
	stageErr     error
	pushErr      error
	notes        []string
	pushedStages []int64
}

func (f *fakeCRM) AttachNote(ctx context.Context, leadID int64, text string) error {
	if f.noteErr != nil {
		return f.noteErr
	}
	f.notes = append(f.notes, text)
	return nil
}

func (f *fakeCRM) GetCurrentStage(ctx context.Context, leadID int64) (int64, error) {
	if f.stageErr != nil {
		return 0, f.stageErr
	}
	return f.currentStage, nil
}

func (f *fakeCRM) PushStage(ctx context.Context, stageID, leadID int64) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushedStages = append(f.pushedStages, stageID)
	f.currentStage = stageID
	return nil
}

// fakePublisher collects published event bodies per queue.
type fakePublisher struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: map[string][][]byte{}}
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[queueName] = append(f.published[queueName], body)
	return nil
}

func (f *fakePublisher) count(queueName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published[queueName])
}

func linkedUser(messengerID int64) *repository.User {
	return &repository.User{
		ID:           7,
		MessengerID:  messengerID,
		FirstName:    "Test",
		AmoContactID: sql.NullInt64{Int64: 501, Valid: true},
		AmoDealID:    sql.NullInt64{Int64: 9001, Valid: true},
	}
}
