package scoring

import (
	"fmt"
	"sort"
	"strings"

	"education-service/internal/course"
)

// ExamResult is the outcome of evaluating a full exam attempt. Summary is
// the short per-question verdict for the user; NoteText is the verbose
// per-item breakdown attached to the CRM note.
type ExamResult struct {
	CorrectQuestions int
	Total            int
	Passed           bool
	Summary          string
	NoteText         string
}

// EvaluateExam scores submitted item counts against the exam definition.
// A question is correct only when every expected item count matches
// exactly and the submission carries no extra items; the exam passes only
// when every question is correct.
func EvaluateExam(answers map[string]map[string]int, exam course.Exam) ExamResult {
	var summaryLines, noteLines []string
	correct := 0

	for number, q := range exam.Questions {
		submitted := answers[q.Key]

		questionCorrect := true
		noteLines = append(noteLines, fmt.Sprintf("Question %d:", number+1))

		for _, item := range q.Items {
			expected := q.Expected[item]
			actual, given := submitted[item]
			ok := given && actual == expected
			if !ok {
				questionCorrect = false
			}

			shown := "not given"
			if given {
				shown = fmt.Sprintf("%d", actual)
			}
			noteLines = append(noteLines, fmt.Sprintf("%s — %s %s", item, shown, mark(ok)))
		}

		var extras []string
		for item := range submitted {
			if _, expected := q.Expected[item]; !expected {
				extras = append(extras, item)
			}
		}
		sort.Strings(extras)
		for _, item := range extras {
			questionCorrect = false
			noteLines = append(noteLines, fmt.Sprintf("%s — %d ❌", item, submitted[item]))
		}

		if questionCorrect {
			correct++
		}
		summaryLines = append(summaryLines, fmt.Sprintf("Question %d %s", number+1, mark(questionCorrect)))
	}

	return ExamResult{
		CorrectQuestions: correct,
		Total:            len(exam.Questions),
		Passed:           correct == len(exam.Questions),
		Summary:          strings.Join(summaryLines, "\n"),
		NoteText:         strings.Join(noteLines, "\n"),
	}
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}
