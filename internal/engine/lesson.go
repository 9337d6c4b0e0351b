package engine

import (
	"context"
	"fmt"
	"time"

	"education-service/internal/course"
	"education-service/internal/repository"
	"education-service/internal/scoring"
	"education-service/internal/session"
)

// LessonEngine drives one user through the ordered questions of a lesson:
// not started -> lesson_question(i) -> lesson_confirm -> finalized, with
// restart back to the first question.
type LessonEngine struct {
	sessions session.Store
	attempts AttemptStore
	crm      CRM
	events   Publisher
}

func NewLessonEngine(sessions session.Store, attempts AttemptStore, crm CRM, events Publisher) *LessonEngine {
	return &LessonEngine{
		sessions: sessions,
		attempts: attempts,
		crm:      crm,
		events:   events,
	}
}

// Start opens a lesson for the user. Every lesson after the first requires
// a completed attempt of the previous one.
func (e *LessonEngine) Start(ctx context.Context, user *repository.User, lessonKey string) (*View, error) {
	lesson, ok := course.LessonByKey(lessonKey)
	if !ok {
		return nil, ErrUnknownLesson
	}

	if idx := course.LessonIndex(lessonKey); idx > 0 {
		previous := course.Lessons()[idx-1].Key
		done, err := e.attempts.HasCompleted(ctx, user.ID, previous)
		if err != nil {
			return nil, fmt.Errorf("failed to check lesson prerequisite: %w", err)
		}
		if !done {
			return nil, ErrAccessDenied
		}
	}

	attempt, err := e.attempts.Create(ctx, user.ID, lessonKey)
	if err != nil {
		return nil, fmt.Errorf("%w: create attempt: %v", ErrPersistence, err)
	}

	sess := session.New(session.ModeLessonQuestion)
	sess.LessonKey = lessonKey
	sess.AttemptID = attempt.ID
	if err := e.sessions.Put(ctx, user.MessengerID, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return lessonQuestionView(lesson, sess, ""), nil
}

// Pick toggles an option on a multi-select question or replaces the
// selection on a single-select one. An out-of-range index redraws the
// question unchanged.
func (e *LessonEngine) Pick(ctx context.Context, userID int64, optionIndex int) (*View, error) {
	sess, lesson, err := e.activeLesson(ctx, userID, session.ModeLessonQuestion)
	if err != nil {
		return nil, err
	}

	question := lesson.Questions[sess.QuestionIndex]
	if optionIndex < 1 || optionIndex > len(question.Options) {
		return lessonQuestionView(lesson, sess, ""), nil
	}

	if question.Multi() {
		if sess.DraftSelection[optionIndex] {
			delete(sess.DraftSelection, optionIndex)
		} else {
			sess.DraftSelection[optionIndex] = true
		}
	} else {
		sess.DraftSelection = map[int]bool{optionIndex: true}
	}

	if err := e.sessions.Put(ctx, userID, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return lessonQuestionView(lesson, sess, ""), nil
}

// Clear empties the draft selection of the current question.
func (e *LessonEngine) Clear(ctx context.Context, userID int64) (*View, error) {
	sess, lesson, err := e.activeLesson(ctx, userID, session.ModeLessonQuestion)
	if err != nil {
		return nil, err
	}

	sess.DraftSelection = map[int]bool{}
	if err := e.sessions.Put(ctx, userID, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return lessonQuestionView(lesson, sess, ""), nil
}

// Submit records the per-option correctness of the current question and
// advances. After the last question the flow moves to the confirm step.
func (e *LessonEngine) Submit(ctx context.Context, userID int64) (*View, error) {
	sess, lesson, err := e.activeLesson(ctx, userID, session.ModeLessonQuestion)
	if err != nil {
		return nil, err
	}

	if len(sess.DraftSelection) == 0 {
		return lessonQuestionView(lesson, sess, "Select at least one option before answering."), nil
	}

	question := lesson.Questions[sess.QuestionIndex]
	perOption := make(map[string]bool, len(question.Options))
	for i, opt := range question.Options {
		selected := sess.DraftSelection[i+1]
		perOption[opt.Label] = selected == opt.Correct
	}
	sess.Answers[question.Key] = perOption
	sess.QuestionIndex++
	sess.DraftSelection = map[int]bool{}

	if sess.QuestionIndex < len(lesson.Questions) {
		if err := e.sessions.Put(ctx, userID, sess); err != nil {
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
		return lessonQuestionView(lesson, sess, ""), nil
	}

	sess.Mode = session.ModeLessonConfirm
	if err := e.sessions.Put(ctx, userID, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	progress := scoring.LessonProgress(sess.Answers, len(lesson.Questions))
	return &View{Confirm: &ConfirmView{
		Answered:       progress.Answered,
		Skipped:        progress.Skipped,
		Total:          progress.Total,
		SkippedNumbers: progress.SkippedNumbers,
	}}, nil
}

// Finalize scores the attempt, persists it, syncs the CRM and clears the
// session. A persistence failure aborts before any external call and keeps
// the session so finalize can be retried.
func (e *LessonEngine) Finalize(ctx context.Context, user *repository.User) (*View, error) {
	sess, lesson, err := e.activeLesson(ctx, user.MessengerID, session.ModeLessonConfirm)
	if err != nil {
		return nil, err
	}

	total := len(lesson.Questions)
	result := scoring.EvaluateLesson(sess.Answers, total)
	report := scoring.FormatLessonReport(sess.Answers, total)

	if err := e.attempts.Complete(ctx, sess.AttemptID, result.Score(), result.Passed, time.Now()); err != nil {
		return nil, fmt.Errorf("%w: complete attempt: %v", ErrPersistence, err)
	}

	noteText := lesson.NoteTitle + ":\n" + report
	syncFailed := syncResult(ctx, e.crm, user.AmoDealID, noteText, lesson.StatusKey, result.Passed)
	if syncFailed {
		publishEvent(ctx, e.events, QueueCRMSyncFailed, crmSyncFailedEvent{
			UserID:    user.ID,
			DealID:    user.AmoDealID.Int64,
			LessonKey: lesson.Key,
		})
	}

	publishEvent(ctx, e.events, QueueLessonCompleted, lessonCompletedEvent{
		UserID:    user.ID,
		LessonKey: lesson.Key,
		AttemptID: sess.AttemptID,
		Score:     result.Score(),
		Passed:    result.Passed,
	})

	if err := e.sessions.Delete(ctx, user.MessengerID); err != nil {
		return nil, fmt.Errorf("failed to clear session: %w", err)
	}

	return &View{Result: &ResultView{Report: report, Passed: result.Passed, SyncFailed: syncFailed}}, nil
}

// Restart resets the lesson to its first question with all answers
// discarded.
func (e *LessonEngine) Restart(ctx context.Context, userID int64) (*View, error) {
	sess, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil || sess.LessonKey == "" || sess.LessonKey == course.ExamKey {
		return nil, ErrNoActiveSession
	}
	lesson, ok := course.LessonByKey(sess.LessonKey)
	if !ok {
		return nil, ErrNoActiveSession
	}

	sess.Mode = session.ModeLessonQuestion
	sess.QuestionIndex = 0
	sess.Answers = map[string]map[string]bool{}
	sess.DraftSelection = map[int]bool{}
	if err := e.sessions.Put(ctx, userID, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return lessonQuestionView(lesson, sess, ""), nil
}

func (e *LessonEngine) activeLesson(ctx context.Context, userID int64, mode session.Mode) (*session.Session, course.Lesson, error) {
	sess, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return nil, course.Lesson{}, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil || sess.Mode != mode {
		return nil, course.Lesson{}, ErrNoActiveSession
	}
	lesson, ok := course.LessonByKey(sess.LessonKey)
	if !ok {
		return nil, course.Lesson{}, ErrNoActiveSession
	}
	return sess, lesson, nil
}

func lessonQuestionView(lesson course.Lesson, sess *session.Session, notice string) *View {
	question := lesson.Questions[sess.QuestionIndex]
	options := make([]OptionView, 0, len(question.Options))
	for i, opt := range question.Options {
		options = append(options, OptionView{
			Index:    i + 1,
			Label:    opt.Label,
			Selected: sess.DraftSelection[i+1],
		})
	}
	return &View{
		Notice: notice,
		Question: &QuestionView{
			LessonTitle: lesson.Title,
			Number:      sess.QuestionIndex + 1,
			Total:       len(lesson.Questions),
			Prompt:      question.Prompt,
			Multi:       question.Multi(),
			Options:     options,
		},
	}
}

type lessonCompletedEvent struct {
	UserID    int64  `json:"user_id"`
	LessonKey string `json:"lesson_key"`
	AttemptID string `json:"attempt_id"`
	Score     int    `json:"score"`
	Passed    bool   `json:"passed"`
}

type crmSyncFailedEvent struct {
	UserID    int64  `json:"user_id"`
	DealID    int64  `json:"deal_id"`
	LessonKey string `json:"lesson_key"`
}
