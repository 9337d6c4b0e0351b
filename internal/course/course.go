package course

import (
	"strconv"
	"strings"
)

// Option is one selectable answer of a lesson question. Correct marks
// whether the option is expected to be selected.
type Option struct {
	Label   string
	Tag     string
	Correct bool
}

// Question key encodes the 1-based ordinal, e.g. "q7".
type Question struct {
	Key     string
	Prompt  string
	Options []Option
}

// Multi reports whether the question expects multiple selections. It is a
// property of the definition, not of what the user picks.
func (q Question) Multi() bool {
	correct := 0
	for _, opt := range q.Options {
		if opt.Correct {
			correct++
		}
	}
	return correct > 1
}

// Number returns the 1-based ordinal encoded in the question key, 0 if the
// key is malformed.
func (q Question) Number() int {
	n, err := strconv.Atoi(strings.TrimPrefix(q.Key, "q"))
	if err != nil {
		return 0
	}
	return n
}

type Lesson struct {
	Key       string
	Title     string
	StatusKey string
	NoteTitle string
	VideoURL  string
	Questions []Question
}

// ExamQuestion expects an exact item -> count mapping. Items keeps the
// render order; Expected is the answer key.
type ExamQuestion struct {
	Key      string
	Prompt   string
	Items    []string
	Expected map[string]int
}

type Exam struct {
	Questions []ExamQuestion
}

// ExamKey is the attempt lesson key used for exam runs.
const ExamKey = "exam"

// Lessons returns the ordered lesson catalog.
func Lessons() []Lesson {
	return catalogLessons
}

// LessonByKey looks a lesson up by its key ("lesson_3").
func LessonByKey(key string) (Lesson, bool) {
	for _, l := range catalogLessons {
		if l.Key == key {
			return l, true
		}
	}
	return Lesson{}, false
}

// LessonIndex returns the 0-based position of the lesson in the catalog,
// -1 when unknown.
func LessonIndex(key string) int {
	for i, l := range catalogLessons {
		if l.Key == key {
			return i
		}
	}
	return -1
}

// FinalExam returns the exam definition.
func FinalExam() Exam {
	return catalogExam
}
