package service

import (
	"fmt"
	"strings"

	"education-service/internal/client"
	"education-service/internal/engine"
)

// Callback payloads understood by the webhook router. Option and item
// indexes are appended 1-based, e.g. "lesson:pick:2".
const (
	payloadLessonPick    = "lesson:pick:"
	payloadLessonClear   = "lesson:clear"
	payloadLessonSubmit  = "lesson:submit"
	payloadLessonFinish  = "lesson:finish"
	payloadLessonRestart = "lesson:restart"

	payloadExamInc    = "exam:inc:"
	payloadExamDec    = "exam:dec:"
	payloadExamClear  = "exam:clear"
	payloadExamSubmit = "exam:submit"

	payloadMenuMain   = "menu:main"
	payloadMenuLesson = "menu:lesson:" // followed by the lesson key
	payloadMenuExam   = "menu:exam"
	payloadMenuAuth   = "menu:auth"
	payloadMenuStats  = "menu:stats"

	payloadAdminStats  = "admin:stats"
	payloadAdminGrant  = "admin:grant"
	payloadAdminDelete = "admin:delete"
)

// renderView turns an engine view into chat text plus an inline keyboard.
func renderView(view *engine.View) (string, client.Keyboard) {
	switch {
	case view.Question != nil:
		return renderQuestion(view)
	case view.Confirm != nil:
		return renderConfirm(view.Confirm)
	case view.Exam != nil:
		return renderExam(view)
	case view.Result != nil:
		return renderResult(view.Result)
	}
	return view.Notice, nil
}

func renderQuestion(view *engine.View) (string, client.Keyboard) {
	q := view.Question
	var b strings.Builder
	if view.Notice != "" {
		b.WriteString(view.Notice + "\n\n")
	}
	fmt.Fprintf(&b, "%s\nQuestion %d of %d\n\n%s\n", q.LessonTitle, q.Number, q.Total, q.Prompt)
	if q.Multi {
		b.WriteString("Select all answers that apply.\n")
	}
	b.WriteString("\n")
	for _, opt := range q.Options {
		mark := "▫️"
		if opt.Selected {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %d. %s\n", mark, opt.Index, opt.Label)
	}

	var keyboard client.Keyboard
	row := make([]client.Button, 0, len(q.Options))
	for _, opt := range q.Options {
		row = append(row, client.Button{
			Text:    fmt.Sprintf("%d", opt.Index),
			Payload: fmt.Sprintf("%s%d", payloadLessonPick, opt.Index),
		})
	}
	keyboard = append(keyboard, row)
	keyboard = append(keyboard, []client.Button{
		{Text: "Reset", Payload: payloadLessonClear},
		{Text: "Answer", Payload: payloadLessonSubmit},
	})
	return b.String(), keyboard
}

func renderConfirm(confirm *engine.ConfirmView) (string, client.Keyboard) {
	var b strings.Builder
	fmt.Fprintf(&b, "You answered %d of %d questions.\n", confirm.Answered, confirm.Total)
	if confirm.Skipped > 0 {
		numbers := make([]string, 0, len(confirm.SkippedNumbers))
		for _, n := range confirm.SkippedNumbers {
			numbers = append(numbers, fmt.Sprintf("%d", n))
		}
		fmt.Fprintf(&b, "Skipped: %s.\n", strings.Join(numbers, ", "))
	}
	b.WriteString("\nFinish the lesson or start over?")

	return b.String(), client.Keyboard{{
		{Text: "Finish", Payload: payloadLessonFinish},
		{Text: "Start over", Payload: payloadLessonRestart},
	}}
}

func renderExam(view *engine.View) (string, client.Keyboard) {
	e := view.Exam
	var b strings.Builder
	if view.Notice != "" {
		b.WriteString(view.Notice + "\n\n")
	}
	fmt.Fprintf(&b, "Exam. Task %d of %d\n\n%s\n\n", e.Number, e.Total, e.Prompt)
	for _, item := range e.Items {
		fmt.Fprintf(&b, "%s: %d\n", item.Name, item.Count)
	}

	var keyboard client.Keyboard
	for _, item := range e.Items {
		keyboard = append(keyboard, []client.Button{
			{Text: "− " + item.Name, Payload: fmt.Sprintf("%s%d", payloadExamDec, item.Index)},
			{Text: "+ " + item.Name, Payload: fmt.Sprintf("%s%d", payloadExamInc, item.Index)},
		})
	}
	keyboard = append(keyboard, []client.Button{
		{Text: "Reset", Payload: payloadExamClear},
		{Text: "Answer", Payload: payloadExamSubmit},
	})
	return b.String(), keyboard
}

func renderResult(result *engine.ResultView) (string, client.Keyboard) {
	text := result.Report
	if result.SyncFailed {
		text += "\n\nYour result is saved, but syncing it to the training record failed. It will be retried."
	}
	return text, client.Keyboard{{
		{Text: "Menu", Payload: payloadMenuMain},
	}}
}
