package engine

// View is the render instruction returned by every flow operation. Exactly
// one of the sub-views is set; Notice optionally carries a re-prompt text
// shown alongside the unchanged state.
type View struct {
	Question *QuestionView
	Confirm  *ConfirmView
	Exam     *ExamView
	Result   *ResultView
	Notice   string
}

type OptionView struct {
	Index    int // 1-based
	Label    string
	Selected bool
}

type QuestionView struct {
	LessonTitle string
	Number      int // 1-based
	Total       int
	Prompt      string
	Multi       bool
	Options     []OptionView
}

type ConfirmView struct {
	Answered       int
	Skipped        int
	Total          int
	SkippedNumbers []int
}

type ItemView struct {
	Index int // 1-based
	Name  string
	Count int
}

type ExamView struct {
	Number int // 1-based
	Total  int
	Prompt string
	Items  []ItemView
}

type ResultView struct {
	Report string
	Passed bool
	// SyncFailed marks results that were scored and persisted but whose CRM
	// sync did not go through; the CRM record is stale until retried.
	SyncFailed bool
}
