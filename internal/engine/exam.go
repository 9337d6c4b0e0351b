package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"education-service/internal/course"
	"education-service/internal/repository"
	"education-service/internal/scoring"
	"education-service/internal/session"
)

// Draft counts are clamped to this range.
const (
	minItemCount = 0
	maxItemCount = 99
)

// ExamEngine drives one user through the numeric-count exam questions.
// There is no confirm step; finalize runs after the last submit.
type ExamEngine struct {
	sessions session.Store
	attempts AttemptStore
	crm      CRM
	events   Publisher
	exam     course.Exam
}

func NewExamEngine(sessions session.Store, attempts AttemptStore, crm CRM, events Publisher) *ExamEngine {
	return &ExamEngine{
		sessions: sessions,
		attempts: attempts,
		crm:      crm,
		events:   events,
		exam:     course.FinalExam(),
	}
}

// Start opens the exam for an authorized user and nudges the lead toward
// the ready_to_exam stage. The push is best-effort and never blocks the
// flow.
func (e *ExamEngine) Start(ctx context.Context, user *repository.User) (*View, error) {
	if !user.Authorized() {
		return nil, ErrAccessDenied
	}

	attempt, err := e.attempts.Create(ctx, user.ID, course.ExamKey)
	if err != nil {
		return nil, fmt.Errorf("%w: create attempt: %v", ErrPersistence, err)
	}

	sess := session.New(session.ModeExamQuestion)
	sess.LessonKey = course.ExamKey
	sess.AttemptID = attempt.ID
	e.zeroDraft(sess)
	if err := e.sessions.Put(ctx, user.MessengerID, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	if user.AmoDealID.Valid {
		if err := pushForward(ctx, e.crm, user.AmoDealID.Int64, "ready_to_exam"); err != nil {
			log.Printf("Failed to push lead %d to ready_to_exam: %v", user.AmoDealID.Int64, err)
		}
	}

	return e.examView(sess, ""), nil
}

// Adjust changes one item's draft count by delta, clamped to [0, 99]. An
// out-of-range item index redraws the question unchanged.
func (e *ExamEngine) Adjust(ctx context.Context, userID int64, itemIndex, delta int) (*View, error) {
	sess, err := e.activeExam(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.ExamIndex >= len(e.exam.Questions) {
		return nil, ErrNoActiveSession
	}

	question := e.exam.Questions[sess.ExamIndex]
	if itemIndex < 1 || itemIndex > len(question.Items) {
		return e.examView(sess, ""), nil
	}

	item := question.Items[itemIndex-1]
	count := sess.ExamDraftCounts[item] + delta
	if count < minItemCount {
		count = minItemCount
	}
	if count > maxItemCount {
		count = maxItemCount
	}
	sess.ExamDraftCounts[item] = count

	if err := e.sessions.Put(ctx, userID, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return e.examView(sess, ""), nil
}

// Clear zeroes every draft count of the current question.
func (e *ExamEngine) Clear(ctx context.Context, userID int64) (*View, error) {
	sess, err := e.activeExam(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.ExamIndex >= len(e.exam.Questions) {
		return nil, ErrNoActiveSession
	}

	sess.ExamDraftCounts = map[string]int{}
	e.zeroDraft(sess)
	if err := e.sessions.Put(ctx, userID, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return e.examView(sess, ""), nil
}

// Submit records the current counts and advances; after the last question
// it finalizes. When a previous finalize failed on persistence the session
// is still at the end of the exam and Submit retries the finalize.
func (e *ExamEngine) Submit(ctx context.Context, user *repository.User) (*View, error) {
	sess, err := e.activeExam(ctx, user.MessengerID)
	if err != nil {
		return nil, err
	}

	if sess.ExamIndex < len(e.exam.Questions) {
		question := e.exam.Questions[sess.ExamIndex]
		submitted := make(map[string]int, len(question.Items))
		for _, item := range question.Items {
			submitted[item] = sess.ExamDraftCounts[item]
		}
		sess.ExamAnswers[question.Key] = submitted
		sess.ExamIndex++
		sess.ExamDraftCounts = map[string]int{}

		if sess.ExamIndex < len(e.exam.Questions) {
			e.zeroDraft(sess)
			if err := e.sessions.Put(ctx, user.MessengerID, sess); err != nil {
				return nil, fmt.Errorf("failed to store session: %w", err)
			}
			return e.examView(sess, ""), nil
		}

		if err := e.sessions.Put(ctx, user.MessengerID, sess); err != nil {
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
	}

	return e.finalize(ctx, user, sess)
}

func (e *ExamEngine) finalize(ctx context.Context, user *repository.User, sess *session.Session) (*View, error) {
	result := scoring.EvaluateExam(sess.ExamAnswers, e.exam)

	if err := e.attempts.Complete(ctx, sess.AttemptID, result.CorrectQuestions, result.Passed, time.Now()); err != nil {
		return nil, fmt.Errorf("%w: complete attempt: %v", ErrPersistence, err)
	}

	noteText := "Exam results:\n" + result.NoteText
	syncFailed := syncResult(ctx, e.crm, user.AmoDealID, noteText, "compleat_exam", result.Passed)
	if syncFailed {
		publishEvent(ctx, e.events, QueueCRMSyncFailed, crmSyncFailedEvent{
			UserID:    user.ID,
			DealID:    user.AmoDealID.Int64,
			LessonKey: course.ExamKey,
		})
	}

	publishEvent(ctx, e.events, QueueExamCompleted, examCompletedEvent{
		UserID:           user.ID,
		AttemptID:        sess.AttemptID,
		CorrectQuestions: result.CorrectQuestions,
		TotalQuestions:   result.Total,
		Passed:           result.Passed,
	})

	if err := e.sessions.Delete(ctx, user.MessengerID); err != nil {
		return nil, fmt.Errorf("failed to clear session: %w", err)
	}

	verdict := "Exam not passed ❌ You can take it again from the menu."
	if result.Passed {
		verdict = "Exam passed ✅ Congratulations, your training is complete."
	}
	report := result.Summary + "\n\n" + verdict
	return &View{Result: &ResultView{Report: report, Passed: result.Passed, SyncFailed: syncFailed}}, nil
}

func (e *ExamEngine) activeExam(ctx context.Context, userID int64) (*session.Session, error) {
	sess, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil || sess.Mode != session.ModeExamQuestion {
		return nil, ErrNoActiveSession
	}
	return sess, nil
}

// zeroDraft seeds a zero count for every item of the current question so a
// submit always carries a full mapping.
func (e *ExamEngine) zeroDraft(sess *session.Session) {
	if sess.ExamIndex >= len(e.exam.Questions) {
		return
	}
	for _, item := range e.exam.Questions[sess.ExamIndex].Items {
		sess.ExamDraftCounts[item] = 0
	}
}

func (e *ExamEngine) examView(sess *session.Session, notice string) *View {
	question := e.exam.Questions[sess.ExamIndex]
	items := make([]ItemView, 0, len(question.Items))
	for i, item := range question.Items {
		items = append(items, ItemView{
			Index: i + 1,
			Name:  item,
			Count: sess.ExamDraftCounts[item],
		})
	}
	return &View{
		Notice: notice,
		Exam: &ExamView{
			Number: sess.ExamIndex + 1,
			Total:  len(e.exam.Questions),
			Prompt: question.Prompt,
			Items:  items,
		},
	}
}

type examCompletedEvent struct {
	UserID           int64  `json:"user_id"`
	AttemptID        string `json:"attempt_id"`
	CorrectQuestions int    `json:"correct_questions"`
	TotalQuestions   int    `json:"total_questions"`
	Passed           bool   `json:"passed"`
}
