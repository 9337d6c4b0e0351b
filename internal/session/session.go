// Package session holds the ephemeral per-user flow state and the store
// abstraction it lives in. A user has at most one session at a time; no
// session means the user is idle at the menu.
package session

import "context"

type Mode string

const (
	ModeLessonQuestion Mode = "lesson_question"
	ModeLessonConfirm  Mode = "lesson_confirm"
	ModeExamQuestion   Mode = "exam_question"
	ModeAwaitPhone     Mode = "await_phone"
	ModeAdminInput     Mode = "admin_input"
)

// Admin input targets for ModeAdminInput.
const (
	AdminActionGrant      = "grant"
	AdminActionDeleteUser = "delete_user"
)

// Session is one in-flight flow. Draft state (DraftSelection,
// ExamDraftCounts) always belongs to the currently indexed question only
// and is discarded on every index advance.
type Session struct {
	Mode      Mode   `json:"mode"`
	LessonKey string `json:"lesson_key,omitempty"`
	AttemptID string `json:"attempt_id,omitempty"`

	QuestionIndex  int                        `json:"question_index"`
	Answers        map[string]map[string]bool `json:"answers,omitempty"`
	DraftSelection map[int]bool               `json:"draft_selection,omitempty"`

	ExamIndex       int                       `json:"exam_index"`
	ExamAnswers     map[string]map[string]int `json:"exam_answers,omitempty"`
	ExamDraftCounts map[string]int            `json:"exam_draft_counts,omitempty"`

	AdminAction string `json:"admin_action,omitempty"`
}

// New returns a session in the given mode with all progress maps
// initialized.
func New(mode Mode) *Session {
	return &Session{
		Mode:            mode,
		Answers:         map[string]map[string]bool{},
		DraftSelection:  map[int]bool{},
		ExamAnswers:     map[string]map[string]int{},
		ExamDraftCounts: map[string]int{},
	}
}

// Clone deep-copies the session so a stored snapshot cannot be mutated
// through a previously returned pointer.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Answers = make(map[string]map[string]bool, len(s.Answers))
	for k, entry := range s.Answers {
		inner := make(map[string]bool, len(entry))
		for label, v := range entry {
			inner[label] = v
		}
		c.Answers[k] = inner
	}
	c.DraftSelection = make(map[int]bool, len(s.DraftSelection))
	for idx, v := range s.DraftSelection {
		c.DraftSelection[idx] = v
	}
	c.ExamAnswers = make(map[string]map[string]int, len(s.ExamAnswers))
	for k, entry := range s.ExamAnswers {
		inner := make(map[string]int, len(entry))
		for item, v := range entry {
			inner[item] = v
		}
		c.ExamAnswers[k] = inner
	}
	c.ExamDraftCounts = make(map[string]int, len(s.ExamDraftCounts))
	for item, v := range s.ExamDraftCounts {
		c.ExamDraftCounts[item] = v
	}
	return &c
}

// Store is the keyed session storage. Get returns (nil, nil) when the user
// has no session. Implementations must be safe for concurrent use across
// different user keys.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Put(ctx context.Context, userID int64, sess *Session) error
	Delete(ctx context.Context, userID int64) error
}
