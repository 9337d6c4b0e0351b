// Package scoring evaluates submitted lesson and exam answers. All
// functions are pure: same input, same output, no I/O.
package scoring

import (
	"fmt"
	"math"
	"strings"
)

// PassPercent is the lesson pass threshold; a result of exactly this
// percent passes.
const PassPercent = 100 * 0.8

// LessonResult is the outcome of evaluating one full lesson attempt.
type LessonResult struct {
	Correct int
	Total   int
	Percent float64
	Passed  bool
}

// Score is the integer percent persisted on the attempt.
func (r LessonResult) Score() int {
	return int(math.Round(r.Percent))
}

// questionCorrect: an answered question is correct iff every per-option
// selection matched expectation. A missing or empty entry counts as
// incorrect.
func questionCorrect(entry map[string]bool) bool {
	if len(entry) == 0 {
		return false
	}
	for _, matched := range entry {
		if !matched {
			return false
		}
	}
	return true
}

// EvaluateLesson scores a lesson answers mapping (question key ->
// option label -> selection matched) against the question count.
func EvaluateLesson(answers map[string]map[string]bool, totalQuestions int) LessonResult {
	result := LessonResult{Total: totalQuestions}
	if totalQuestions <= 0 {
		return result
	}

	for n := 1; n <= totalQuestions; n++ {
		if questionCorrect(answers[fmt.Sprintf("q%d", n)]) {
			result.Correct++
		}
	}

	percent := float64(result.Correct) / float64(totalQuestions) * 100
	result.Percent = math.Round(percent*10) / 10
	result.Passed = result.Percent >= PassPercent
	return result
}

// FormatLessonReport renders the per-question verdict list shown to the
// user and attached to the CRM note.
func FormatLessonReport(answers map[string]map[string]bool, totalQuestions int) string {
	result := EvaluateLesson(answers, totalQuestions)

	var lines []string
	for n := 1; n <= totalQuestions; n++ {
		verdict := "❌ incorrect"
		if questionCorrect(answers[fmt.Sprintf("q%d", n)]) {
			verdict = "✅ correct"
		}
		lines = append(lines, fmt.Sprintf("Question %d — %s", n, verdict))
	}

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("Correct answers: %d/%d (%.1f%%)", result.Correct, result.Total, result.Percent))
	if result.Passed {
		lines = append(lines, "Lesson passed ✅")
	} else {
		lines = append(lines, "Lesson not passed ❌")
	}

	return strings.Join(lines, "\n")
}

// Progress summarizes which questions have an entry before finalize.
type Progress struct {
	Answered       int
	Skipped        int
	Total          int
	SkippedNumbers []int
}

// LessonProgress counts answered and skipped questions. A question is
// answered when its entry exists and is non-empty.
func LessonProgress(answers map[string]map[string]bool, totalQuestions int) Progress {
	p := Progress{Total: totalQuestions}
	for n := 1; n <= totalQuestions; n++ {
		if len(answers[fmt.Sprintf("q%d", n)]) > 0 {
			p.Answered++
		} else {
			p.Skipped++
			p.SkippedNumbers = append(p.SkippedNumbers, n)
		}
	}
	return p
}
