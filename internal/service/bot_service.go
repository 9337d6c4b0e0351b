// Package service routes incoming chat updates to the lesson and exam
// engines and renders their views back into messages. All session
// read-modify-write happens behind a per-user lock so parallel webhook
// deliveries for one user cannot interleave.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"education-service/internal/client"
	"education-service/internal/course"
	"education-service/internal/engine"
	"education-service/internal/repository"
	"education-service/internal/session"
)

// UserStore is the user repository capability the service consumes.
type UserStore interface {
	GetByMessengerID(ctx context.Context, messengerID int64) (*repository.User, error)
	Create(ctx context.Context, user *repository.User) error
	Update(ctx context.Context, user *repository.User) error
	SetAdmin(ctx context.Context, messengerID int64, isAdmin bool) error
	Delete(ctx context.Context, messengerID int64) error
	List(ctx context.Context) ([]*repository.User, error)
}

// AttemptLog is the read side of the attempt repository used for menu
// gating and stats.
type AttemptLog interface {
	HasCompleted(ctx context.Context, userID int64, lessonKey string) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]*repository.Attempt, error)
}

// ChatSender delivers rendered messages to the messenger.
type ChatSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard client.Keyboard) error
}

// AuthCRM covers the contact and lead calls of the authorization flow.
type AuthCRM interface {
	FindContactByPhone(ctx context.Context, phone string) (*client.Contact, error)
	CreateContact(ctx context.Context, firstName, lastName, phone string) (int64, error)
	FindLeadByContact(ctx context.Context, contactID int64) (int64, error)
	CreateLead(ctx context.Context, contactID, stageID int64) (int64, error)
	GetCurrentStage(ctx context.Context, leadID int64) (int64, error)
	PushStage(ctx context.Context, stageID, leadID int64) error
}

type BotService struct {
	users    UserStore
	attempts AttemptLog
	sessions session.Store
	lessons  *engine.LessonEngine
	exam     *engine.ExamEngine
	chat     ChatSender
	crm      AuthCRM

	rootAdminID int64
	locks       sync.Map // messenger id -> *sync.Mutex
}

func NewBotService(
	users UserStore,
	attempts AttemptLog,
	sessions session.Store,
	lessons *engine.LessonEngine,
	exam *engine.ExamEngine,
	chat ChatSender,
	crm AuthCRM,
	rootAdminID int64,
) *BotService {
	return &BotService{
		users:       users,
		attempts:    attempts,
		sessions:    sessions,
		lessons:     lessons,
		exam:        exam,
		chat:        chat,
		crm:         crm,
		rootAdminID: rootAdminID,
	}
}

// Profile is the sender identity carried by every update.
type Profile struct {
	MessengerID int64
	Username    string
	FirstName   string
	LastName    string
}

func (s *BotService) userLock(messengerID int64) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(messengerID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// HandleMessage processes one plain text message from a user.
func (s *BotService) HandleMessage(ctx context.Context, profile Profile, text string) error {
	lock := s.userLock(profile.MessengerID)
	lock.Lock()
	defer lock.Unlock()

	user, err := s.ensureUser(ctx, profile)
	if err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	switch {
	case text == "/start":
		if err := s.send(ctx, user, "Welcome to the installer training. Pick a lesson from the menu below.", nil); err != nil {
			return err
		}
		return s.sendMenu(ctx, user)
	case text == "/menu":
		return s.sendMenu(ctx, user)
	case text == "/auth":
		return s.startAuth(ctx, user)
	case text == "/stats":
		return s.sendStats(ctx, user)
	case text == "/exam":
		return s.startExam(ctx, user)
	case text == "/admin":
		return s.sendAdminMenu(ctx, user)
	case strings.HasPrefix(text, "/lesson"):
		n, err := strconv.Atoi(strings.TrimPrefix(text, "/lesson"))
		if err != nil {
			return s.send(ctx, user, "Unknown command. Try /menu.", nil)
		}
		return s.startLesson(ctx, user, fmt.Sprintf("lesson_%d", n))
	}

	// non-command text only matters inside input modes
	sess, err := s.sessions.Get(ctx, user.MessengerID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	switch {
	case sess != nil && sess.Mode == session.ModeAwaitPhone:
		return s.handleAuthPhone(ctx, user, text)
	case sess != nil && sess.Mode == session.ModeAdminInput:
		return s.handleAdminInput(ctx, user, sess, text)
	}
	return s.send(ctx, user, "Use the buttons or /menu to navigate.", nil)
}

// HandleCallback processes one inline keyboard press.
func (s *BotService) HandleCallback(ctx context.Context, profile Profile, payload string) error {
	lock := s.userLock(profile.MessengerID)
	lock.Lock()
	defer lock.Unlock()

	user, err := s.ensureUser(ctx, profile)
	if err != nil {
		return err
	}

	switch {
	case payload == payloadMenuMain:
		return s.sendMenu(ctx, user)
	case payload == payloadMenuExam:
		return s.startExam(ctx, user)
	case payload == payloadMenuAuth:
		return s.startAuth(ctx, user)
	case payload == payloadMenuStats:
		return s.sendStats(ctx, user)
	case strings.HasPrefix(payload, payloadMenuLesson):
		return s.startLesson(ctx, user, strings.TrimPrefix(payload, payloadMenuLesson))

	case strings.HasPrefix(payload, payloadLessonPick):
		index, err := strconv.Atoi(strings.TrimPrefix(payload, payloadLessonPick))
		if err != nil {
			return s.send(ctx, user, "Unknown action.", nil)
		}
		view, err := s.lessons.Pick(ctx, user.MessengerID, index)
		return s.sendFlow(ctx, user, view, err)
	case payload == payloadLessonClear:
		view, err := s.lessons.Clear(ctx, user.MessengerID)
		return s.sendFlow(ctx, user, view, err)
	case payload == payloadLessonSubmit:
		view, err := s.lessons.Submit(ctx, user.MessengerID)
		return s.sendFlow(ctx, user, view, err)
	case payload == payloadLessonFinish:
		view, err := s.lessons.Finalize(ctx, user)
		return s.sendFlow(ctx, user, view, err)
	case payload == payloadLessonRestart:
		view, err := s.lessons.Restart(ctx, user.MessengerID)
		return s.sendFlow(ctx, user, view, err)

	case strings.HasPrefix(payload, payloadExamInc):
		index, err := strconv.Atoi(strings.TrimPrefix(payload, payloadExamInc))
		if err != nil {
			return s.send(ctx, user, "Unknown action.", nil)
		}
		view, err := s.exam.Adjust(ctx, user.MessengerID, index, 1)
		return s.sendFlow(ctx, user, view, err)
	case strings.HasPrefix(payload, payloadExamDec):
		index, err := strconv.Atoi(strings.TrimPrefix(payload, payloadExamDec))
		if err != nil {
			return s.send(ctx, user, "Unknown action.", nil)
		}
		view, err := s.exam.Adjust(ctx, user.MessengerID, index, -1)
		return s.sendFlow(ctx, user, view, err)
	case payload == payloadExamClear:
		view, err := s.exam.Clear(ctx, user.MessengerID)
		return s.sendFlow(ctx, user, view, err)
	case payload == payloadExamSubmit:
		view, err := s.exam.Submit(ctx, user)
		return s.sendFlow(ctx, user, view, err)

	case payload == payloadAdminStats, payload == payloadAdminGrant, payload == payloadAdminDelete:
		return s.handleAdminAction(ctx, user, payload)
	}
	return s.send(ctx, user, "Unknown action. Try /menu.", nil)
}

// ensureUser loads the sender's user row, creating it on first contact and
// keeping the profile fields fresh.
func (s *BotService) ensureUser(ctx context.Context, profile Profile) (*repository.User, error) {
	user, err := s.users.GetByMessengerID(ctx, profile.MessengerID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &repository.User{
			MessengerID: profile.MessengerID,
			Username:    profile.Username,
			FirstName:   profile.FirstName,
			LastName:    profile.LastName,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if profile.Username != "" && (user.Username != profile.Username ||
		user.FirstName != profile.FirstName || user.LastName != profile.LastName) {
		user.Username = profile.Username
		user.FirstName = profile.FirstName
		user.LastName = profile.LastName
		if err := s.users.Update(ctx, user); err != nil {
			log.Printf("Failed to refresh profile of user %d: %v", user.MessengerID, err)
		}
	}
	return user, nil
}

func (s *BotService) startLesson(ctx context.Context, user *repository.User, lessonKey string) error {
	lesson, ok := course.LessonByKey(lessonKey)
	if !ok {
		return s.send(ctx, user, "Unknown lesson. Try /menu.", nil)
	}

	view, err := s.lessons.Start(ctx, user, lessonKey)
	if errors.Is(err, engine.ErrAccessDenied) {
		return s.send(ctx, user, "Finish the previous lesson first.", nil)
	}
	if err != nil {
		return s.sendFlow(ctx, user, nil, err)
	}

	intro := fmt.Sprintf("%s\nWatch the video, then answer the questions.\n%s", lesson.Title, lesson.VideoURL)
	if err := s.send(ctx, user, intro, nil); err != nil {
		return err
	}
	return s.sendFlow(ctx, user, view, nil)
}

func (s *BotService) startExam(ctx context.Context, user *repository.User) error {
	view, err := s.exam.Start(ctx, user)
	if errors.Is(err, engine.ErrAccessDenied) {
		return s.send(ctx, user, "The exam is available after authorization. Use /auth first.", nil)
	}
	return s.sendFlow(ctx, user, view, err)
}

// sendFlow renders a flow view, translating engine errors into user-facing
// messages.
func (s *BotService) sendFlow(ctx context.Context, user *repository.User, view *engine.View, err error) error {
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrNoActiveSession):
		return s.send(ctx, user, "Nothing in progress. Open /menu to start.", nil)
	case errors.Is(err, engine.ErrAccessDenied):
		return s.send(ctx, user, "This step is not available yet.", nil)
	case errors.Is(err, engine.ErrUnknownLesson):
		return s.send(ctx, user, "Unknown lesson. Try /menu.", nil)
	case errors.Is(err, engine.ErrPersistence):
		log.Printf("Persistence failure for user %d: %v", user.MessengerID, err)
		return s.send(ctx, user, "Could not save your result. Please press the button again.", nil)
	default:
		return err
	}

	text, keyboard := renderView(view)
	return s.send(ctx, user, text, keyboard)
}

func (s *BotService) send(ctx context.Context, user *repository.User, text string, keyboard client.Keyboard) error {
	if err := s.chat.SendMessage(ctx, user.MessengerID, text, keyboard); err != nil {
		return fmt.Errorf("failed to send message to %d: %w", user.MessengerID, err)
	}
	return nil
}

// sendMenu renders the main menu with one row per lesson. Icons mark the
// lesson state: completed, available next, or still locked.
func (s *BotService) sendMenu(ctx context.Context, user *repository.User) error {
	var keyboard client.Keyboard
	previousDone := true
	allDone := true
	for _, lesson := range course.Lessons() {
		done, err := s.attempts.HasCompleted(ctx, user.ID, lesson.Key)
		if err != nil {
			return fmt.Errorf("failed to check lesson completion: %w", err)
		}

		icon := "🔒"
		switch {
		case done:
			icon = "✅"
		case previousDone:
			icon = "▶️"
		}
		keyboard = append(keyboard, []client.Button{{
			Text:    fmt.Sprintf("%s %s", icon, lesson.Title),
			Payload: payloadMenuLesson + lesson.Key,
		}})
		previousDone = done
		allDone = allDone && done
	}

	if allDone {
		keyboard = append(keyboard, []client.Button{{
			Text:    "🎓 Final exam",
			Payload: payloadMenuExam,
		}})
	}
	if !user.Authorized() {
		keyboard = append(keyboard, []client.Button{{
			Text:    "📱 Authorization",
			Payload: payloadMenuAuth,
		}})
	}
	keyboard = append(keyboard, []client.Button{{
		Text:    "📊 My results",
		Payload: payloadMenuStats,
	}})

	return s.send(ctx, user, "Training menu:", keyboard)
}

// sendStats renders the user's best completed score per lesson and exam.
func (s *BotService) sendStats(ctx context.Context, user *repository.User) error {
	attempts, err := s.attempts.ListByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to list attempts: %w", err)
	}

	best := map[string]int64{}
	runs := map[string]int{}
	for _, attempt := range attempts {
		runs[attempt.LessonKey]++
		if attempt.Completed && attempt.Score.Valid {
			if score, ok := best[attempt.LessonKey]; !ok || attempt.Score.Int64 > score {
				best[attempt.LessonKey] = attempt.Score.Int64
			}
		}
	}

	var b strings.Builder
	b.WriteString("Your results:\n\n")
	for _, lesson := range course.Lessons() {
		if score, ok := best[lesson.Key]; ok {
			fmt.Fprintf(&b, "%s: %d%% (%d runs)\n", lesson.Title, score, runs[lesson.Key])
		} else {
			fmt.Fprintf(&b, "%s: not completed\n", lesson.Title)
		}
	}
	if score, ok := best[course.ExamKey]; ok {
		exam := course.FinalExam()
		fmt.Fprintf(&b, "Exam: %d of %d tasks\n", score, len(exam.Questions))
	} else {
		b.WriteString("Exam: not completed\n")
	}

	return s.send(ctx, user, b.String(), client.Keyboard{{
		{Text: "Menu", Payload: payloadMenuMain},
	}})
}
