package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"education-service/internal/client"
	"education-service/internal/course"
	"education-service/internal/repository"
	"education-service/internal/session"
)

// isAdmin reports whether the user may use the admin commands. The root
// admin from config always may, even before their row carries the flag.
func (s *BotService) isAdmin(user *repository.User) bool {
	return user.IsAdmin || (s.rootAdminID != 0 && user.MessengerID == s.rootAdminID)
}

func (s *BotService) sendAdminMenu(ctx context.Context, user *repository.User) error {
	if !s.isAdmin(user) {
		return s.send(ctx, user, "Unknown command. Try /menu.", nil)
	}
	return s.send(ctx, user, "Admin actions:", client.Keyboard{
		{{Text: "Trainee overview", Payload: payloadAdminStats}},
		{{Text: "Grant admin", Payload: payloadAdminGrant}},
		{{Text: "Delete user", Payload: payloadAdminDelete}},
	})
}

func (s *BotService) handleAdminAction(ctx context.Context, user *repository.User, payload string) error {
	if !s.isAdmin(user) {
		return s.send(ctx, user, "Unknown action. Try /menu.", nil)
	}

	switch payload {
	case payloadAdminStats:
		return s.sendAdminStats(ctx, user)
	case payloadAdminGrant:
		return s.promptAdminInput(ctx, user, session.AdminActionGrant,
			"Send the messenger id of the user to grant admin rights to.")
	case payloadAdminDelete:
		return s.promptAdminInput(ctx, user, session.AdminActionDeleteUser,
			"Send the messenger id of the user to delete. This removes their attempts too.")
	}
	return s.send(ctx, user, "Unknown action.", nil)
}

func (s *BotService) promptAdminInput(ctx context.Context, user *repository.User, action, prompt string) error {
	sess := session.New(session.ModeAdminInput)
	sess.AdminAction = action
	if err := s.sessions.Put(ctx, user.MessengerID, sess); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return s.send(ctx, user, prompt, nil)
}

// handleAdminInput consumes the id the admin sent for the pending action.
func (s *BotService) handleAdminInput(ctx context.Context, user *repository.User, sess *session.Session, text string) error {
	if !s.isAdmin(user) {
		return s.send(ctx, user, "Unknown command. Try /menu.", nil)
	}

	targetID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return s.send(ctx, user, "Send a numeric messenger id.", nil)
	}

	if err := s.sessions.Delete(ctx, user.MessengerID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	switch sess.AdminAction {
	case session.AdminActionGrant:
		err = s.users.SetAdmin(ctx, targetID, true)
	case session.AdminActionDeleteUser:
		err = s.users.Delete(ctx, targetID)
	default:
		return s.send(ctx, user, "Nothing pending. Open /admin.", nil)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return s.send(ctx, user, fmt.Sprintf("No user with id %d.", targetID), nil)
	}
	if err != nil {
		return fmt.Errorf("failed to apply admin action: %w", err)
	}
	return s.send(ctx, user, "Done.", nil)
}

// sendAdminStats renders a one-line-per-trainee progress overview.
func (s *BotService) sendAdminStats(ctx context.Context, admin *repository.User) error {
	users, err := s.users.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Trainees: %d\n\n", len(users))
	for _, u := range users {
		completed := 0
		for _, lesson := range course.Lessons() {
			done, err := s.attempts.HasCompleted(ctx, u.ID, lesson.Key)
			if err != nil {
				return fmt.Errorf("failed to check lesson completion: %w", err)
			}
			if done {
				completed++
			}
		}
		examDone, err := s.attempts.HasCompleted(ctx, u.ID, course.ExamKey)
		if err != nil {
			return fmt.Errorf("failed to check exam completion: %w", err)
		}

		state := "not authorized"
		if u.Authorized() {
			state = "authorized"
		}
		if examDone {
			state = "exam passed"
		}
		name := strings.TrimSpace(u.FirstName + " " + u.LastName)
		if name == "" {
			name = fmt.Sprintf("id %d", u.MessengerID)
		}
		fmt.Fprintf(&b, "%s (%d): %d/%d lessons, %s\n",
			name, u.MessengerID, completed, len(course.Lessons()), state)
	}

	return s.send(ctx, admin, b.String(), nil)
}
