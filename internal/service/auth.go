package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"education-service/internal/pipeline"
	"education-service/internal/repository"
	"education-service/internal/session"
)

// startAuth switches the user into the phone input mode. Authorized users
// are just pointed back to the menu.
func (s *BotService) startAuth(ctx context.Context, user *repository.User) error {
	if user.Authorized() {
		return s.send(ctx, user, "You are already authorized. Open /menu to continue.", nil)
	}

	if err := s.sessions.Put(ctx, user.MessengerID, session.New(session.ModeAwaitPhone)); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return s.send(ctx, user, "Send the phone number you registered with, e.g. +7 900 123-45-67.", nil)
}

// handleAuthPhone links the user to a CRM contact and lead by the phone
// number they sent. The contact and lead are created when missing; an
// existing lead is pushed forward to the authorized stage if the guard
// allows.
func (s *BotService) handleAuthPhone(ctx context.Context, user *repository.User, text string) error {
	phone, ok := normalizePhone(text)
	if !ok {
		return s.send(ctx, user, "That does not look like a phone number. Send it as +7 900 123-45-67.", nil)
	}

	contact, err := s.crm.FindContactByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("failed to look up contact: %w", err)
	}
	var contactID int64
	if contact != nil {
		contactID = contact.ID
	} else {
		contactID, err = s.crm.CreateContact(ctx, user.FirstName, user.LastName, phone)
		if err != nil {
			return fmt.Errorf("failed to create contact: %w", err)
		}
	}

	authorizedStage, _ := pipeline.StageID("authorized_in_bot")
	leadID, err := s.crm.FindLeadByContact(ctx, contactID)
	if err != nil {
		return fmt.Errorf("failed to look up lead: %w", err)
	}
	if leadID == 0 {
		leadID, err = s.crm.CreateLead(ctx, contactID, authorizedStage)
		if err != nil {
			return fmt.Errorf("failed to create lead: %w", err)
		}
	} else if err := s.pushLeadForward(ctx, leadID, "authorized_in_bot"); err != nil {
		log.Printf("Failed to push lead %d to authorized_in_bot: %v", leadID, err)
	}

	user.PhoneNumber = sql.NullString{String: phone, Valid: true}
	user.AmoContactID = sql.NullInt64{Int64: contactID, Valid: true}
	user.AmoDealID = sql.NullInt64{Int64: leadID, Valid: true}
	if !user.StartedTrainingAt.Valid {
		user.StartedTrainingAt = sql.NullTime{Time: time.Now(), Valid: true}
	}
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to save authorization: %w", err)
	}

	if err := s.sessions.Delete(ctx, user.MessengerID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	if err := s.send(ctx, user, "Authorization complete. The exam will unlock after the last lesson.", nil); err != nil {
		return err
	}
	return s.sendMenu(ctx, user)
}

func (s *BotService) pushLeadForward(ctx context.Context, leadID int64, statusKey string) error {
	currentStage, err := s.crm.GetCurrentStage(ctx, leadID)
	if err != nil {
		return fmt.Errorf("failed to get current stage: %w", err)
	}
	if !pipeline.MayAdvance(statusKey, currentStage) {
		return nil
	}
	targetStage, ok := pipeline.StageID(statusKey)
	if !ok {
		return fmt.Errorf("unknown pipeline stage key %s", statusKey)
	}
	return s.crm.PushStage(ctx, targetStage, leadID)
}

// normalizePhone reduces free-form input to the +7XXXXXXXXXX form. A
// leading 8 is treated as the Russian trunk prefix.
func normalizePhone(text string) (string, bool) {
	var digits strings.Builder
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	number := digits.String()
	if len(number) == 10 {
		number = "7" + number
	}
	if len(number) != 11 {
		return "", false
	}
	if number[0] == '8' {
		number = "7" + number[1:]
	}
	if number[0] != '7' {
		return "", false
	}
	return "+" + number, true
}
