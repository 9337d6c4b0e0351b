package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"education-service/internal/client"
	"education-service/internal/repository"
)

// fakeUsers keeps user rows in a map keyed by messenger id.
type fakeUsers struct {
	nextID int64
	byMsg  map[int64]*repository.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byMsg: map[int64]*repository.User{}}
}

func (f *fakeUsers) GetByMessengerID(ctx context.Context, messengerID int64) (*repository.User, error) {
	user, ok := f.byMsg[messengerID]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUsers) Create(ctx context.Context, user *repository.User) error {
	f.nextID++
	user.ID = f.nextID
	copied := *user
	f.byMsg[user.MessengerID] = &copied
	return nil
}

func (f *fakeUsers) Update(ctx context.Context, user *repository.User) error {
	if _, ok := f.byMsg[user.MessengerID]; !ok {
		return sql.ErrNoRows
	}
	copied := *user
	f.byMsg[user.MessengerID] = &copied
	return nil
}

func (f *fakeUsers) SetAdmin(ctx context.Context, messengerID int64, isAdmin bool) error {
	user, ok := f.byMsg[messengerID]
	if !ok {
		return sql.ErrNoRows
	}
	user.IsAdmin = isAdmin
	return nil
}

func (f *fakeUsers) Delete(ctx context.Context, messengerID int64) error {
	if _, ok := f.byMsg[messengerID]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byMsg, messengerID)
	return nil
}

func (f *fakeUsers) List(ctx context.Context) ([]*repository.User, error) {
	var users []*repository.User
	for _, user := range f.byMsg {
		copied := *user
		users = append(users, &copied)
	}
	return users, nil
}

// fakeAttempts backs both the engines and the menu gating reads.
type fakeAttempts struct {
	nextID   int
	done     map[string]bool // "userID:lessonKey"
	attempts []*repository.Attempt
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{done: map[string]bool{}}
}

func (f *fakeAttempts) key(userID int64, lessonKey string) string {
	return fmt.Sprintf("%d:%s", userID, lessonKey)
}

func (f *fakeAttempts) markDone(userID int64, lessonKey string) {
	f.done[f.key(userID, lessonKey)] = true
}

func (f *fakeAttempts) Create(ctx context.Context, userID int64, lessonKey string) (*repository.Attempt, error) {
	f.nextID++
	attempt := &repository.Attempt{
		ID:        fmt.Sprintf("attempt-%d", f.nextID),
		UserID:    userID,
		LessonKey: lessonKey,
		StartedAt: time.Now(),
	}
	f.attempts = append(f.attempts, attempt)
	return attempt, nil
}

func (f *fakeAttempts) Complete(ctx context.Context, attemptID string, score int, passed bool, completedAt time.Time) error {
	for _, attempt := range f.attempts {
		if attempt.ID == attemptID {
			attempt.Score = sql.NullInt64{Int64: int64(score), Valid: true}
			attempt.Completed = passed
			attempt.CompletedAt = sql.NullTime{Time: completedAt, Valid: true}
			if passed {
				f.done[f.key(attempt.UserID, attempt.LessonKey)] = true
			}
			return nil
		}
	}
	return fmt.Errorf("attempt %s not found", attemptID)
}

func (f *fakeAttempts) HasCompleted(ctx context.Context, userID int64, lessonKey string) (bool, error) {
	return f.done[f.key(userID, lessonKey)], nil
}

func (f *fakeAttempts) ListByUser(ctx context.Context, userID int64) ([]*repository.Attempt, error) {
	var out []*repository.Attempt
	for _, attempt := range f.attempts {
		if attempt.UserID == userID {
			out = append(out, attempt)
		}
	}
	return out, nil
}

// sentMessage is one message captured by fakeChat.
type sentMessage struct {
	ChatID   int64
	Text     string
	Keyboard client.Keyboard
}

type fakeChat struct {
	sent []sentMessage
}

func (f *fakeChat) SendMessage(ctx context.Context, chatID int64, text string, keyboard client.Keyboard) error {
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, Keyboard: keyboard})
	return nil
}

func (f *fakeChat) last() sentMessage {
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

// fakeCRM serves both the auth flow and the engine sync interface.
type fakeCRM struct {
	contactsByPhone map[string]int64
	leadsByContact  map[int64]int64
	currentStage    int64

	nextContactID   int64
	nextLeadID      int64
	createdContacts []string
	createdLeads    []int64
	pushedStages    []int64
	notes           []string
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		contactsByPhone: map[string]int64{},
		leadsByContact:  map[int64]int64{},
		nextContactID:   100,
		nextLeadID:      9000,
	}
}

func (f *fakeCRM) FindContactByPhone(ctx context.Context, phone string) (*client.Contact, error) {
	id, ok := f.contactsByPhone[phone]
	if !ok {
		return nil, nil
	}
	return &client.Contact{ID: id}, nil
}

func (f *fakeCRM) CreateContact(ctx context.Context, firstName, lastName, phone string) (int64, error) {
	f.nextContactID++
	f.contactsByPhone[phone] = f.nextContactID
	f.createdContacts = append(f.createdContacts, phone)
	return f.nextContactID, nil
}

func (f *fakeCRM) FindLeadByContact(ctx context.Context, contactID int64) (int64, error) {
	return f.leadsByContact[contactID], nil
}

func (f *fakeCRM) CreateLead(ctx context.Context, contactID, stageID int64) (int64, error) {
	f.nextLeadID++
	f.leadsByContact[contactID] = f.nextLeadID
	f.createdLeads = append(f.createdLeads, stageID)
	f.currentStage = stageID
	return f.nextLeadID, nil
}

func (f *fakeCRM) GetCurrentStage(ctx context.Context, leadID int64) (int64, error) {
	return f.currentStage, nil
}

func (f *fakeCRM) PushStage(ctx context.Context, stageID, leadID int64) error {
	f.pushedStages = append(f.pushedStages, stageID)
	f.currentStage = stageID
	return nil
}

func (f *fakeCRM) AttachNote(ctx context.Context, leadID int64, text string) error {
	f.notes = append(f.notes, text)
	return nil
}
