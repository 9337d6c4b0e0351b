package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"education-service/internal/session"
)

const (
	stageAuthorizedInBot = int64(65758021)
	stageLesson1         = int64(35444481)
	stageLesson3         = int64(41608782)
	stageReadyToExam     = int64(41608797)
	stageExamDone        = int64(41608800)
)

type lessonFixture struct {
	engine   *LessonEngine
	sessions *session.MemoryStore
	attempts *fakeAttempts
	crm      *fakeCRM
	events   *fakePublisher
}

func newLessonFixture() *lessonFixture {
	f := &lessonFixture{
		sessions: session.NewMemoryStore(),
		attempts: newFakeAttempts(),
		crm:      &fakeCRM{currentStage: stageAuthorizedInBot},
		events:   newFakePublisher(),
	}
	f.engine = NewLessonEngine(f.sessions, f.attempts, f.crm, f.events)
	return f
}

func selectedIndexes(view *View) []int {
	var picked []int
	for _, opt := range view.Question.Options {
		if opt.Selected {
			picked = append(picked, opt.Index)
		}
	}
	return picked
}

func TestLessonStart_FirstLessonOpensFirstQuestion(t *testing.T) {
	f := newLessonFixture()
	user := linkedUser(1001)

	view, err := f.engine.Start(context.Background(), user, "lesson_1")
	require.NoError(t, err)
	require.NotNil(t, view.Question)
	assert.Equal(t, 1, view.Question.Number)
	assert.Equal(t, 3, view.Question.Total)
	assert.Empty(t, selectedIndexes(view))
	assert.Equal(t, []string{"lesson_1"}, f.attempts.created)
}

func TestLessonStart_UnknownLesson(t *testing.T) {
	f := newLessonFixture()
	_, err := f.engine.Start(context.Background(), linkedUser(1001), "lesson_99")
	assert.ErrorIs(t, err, ErrUnknownLesson)
}

func TestLessonStart_LockedWithoutPreviousLesson(t *testing.T) {
	f := newLessonFixture()
	user := linkedUser(1001)

	_, err := f.engine.Start(context.Background(), user, "lesson_2")
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, f.attempts.created)

	f.attempts.markDone(user.ID, "lesson_1")
	view, err := f.engine.Start(context.Background(), user, "lesson_2")
	require.NoError(t, err)
	assert.NotNil(t, view.Question)
}

func TestLessonPick_SingleSelectReplacesSelection(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()
	user := linkedUser(1001)
	_, err := f.engine.Start(ctx, user, "lesson_1")
	require.NoError(t, err)

	view, err := f.engine.Pick(ctx, user.MessengerID, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, selectedIndexes(view))

	view, err = f.engine.Pick(ctx, user.MessengerID, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, selectedIndexes(view))
}

func TestLessonPick_MultiSelectToggles(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()
	user := linkedUser(1001)
	_, err := f.engine.Start(ctx, user, "lesson_1")
	require.NoError(t, err)

	// advance past the single-select first question to the multi-select one
	_, err = f.engine.Pick(ctx, user.MessengerID, 1)
	require.NoError(t, err)
	view, err := f.engine.Submit(ctx, user.MessengerID)
	require.NoError(t, err)
	require.True(t, view.Question.Multi)

	_, err = f.engine.Pick(ctx, user.MessengerID, 1)
	require.NoError(t, err)
	_, err = f.engine.Pick(ctx, user.MessengerID, 2)
	require.NoError(t, err)
	view, err = f.engine.Pick(ctx, user.MessengerID, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, selectedIndexes(view))
}

func TestLessonPick_OutOfRangeRedraws(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()
	user := linkedUser(1001)
	_, err := f.engine.Start(ctx, user, "lesson_1")
	require.NoError(t, err)

	_, err = f.engine.Pick(ctx, user.MessengerID, 2)
	require.NoError(t, err)
	view, err := f.engine.Pick(ctx, user.MessengerID, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, selectedIndexes(view))
}

func TestLessonPick_NoActiveSession(t *testing.T) {
	f := newLessonFixture()
	_, err := f.engine.Pick(context.Background(), 1001, 1)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestLessonSubmit_EmptySelectionReprompts(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()
	user := linkedUser(1001)
	_, err := f.engine.Start(ctx, user, "lesson_1")
	require.NoError(t, err)

	view, err := f.engine.Submit(ctx, user.MessengerID)
	require.NoError(t, err)
	require.NotNil(t, view.Question)
	assert.Equal(t, 1, view.Question.Number)
	assert.NotEmpty(t, view.Notice)
}

func TestLessonClear_EmptiesDraft(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()
	user := linkedUser(1001)
	_, err := f.engine.Start(ctx, user, "lesson_1")
	require.NoError(t, err)

	_, err = f.engine.Pick(ctx, user.MessengerID, 1)
	require.NoError(t, err)
	view, err := f.engine.Clear(ctx, user.MessengerID)
	require.NoError(t, err)
	assert.Empty(t, selectedIndexes(view))
}

// answerLesson1 walks lesson_1 through all three questions with the given
// picks per question and stops at the confirm step.
func answerLesson1(t *testing.T, f *lessonFixture, userID int64, picks [][]int) *View {
	t.Helper()
	ctx := context.Background()
	var view *View
	var err error
	for _, questionPicks := range picks {
		for _, p := range questionPicks {
			_, err = f.engine.Pick(ctx, userID, p)
			require.NoError(t, err)
		}
		view, err = f.engine.Submit(ctx, userID)
		require.NoError(t, err)
	}
	return view
}

func TestLessonFlow_AllCorrectEndToEnd(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()
	user := linkedUser(1001)
	_, err := f.engine.Start(ctx, user, "lesson_1")
	require.NoError(t, err)

	view := answerLesson1(t, f, user.MessengerID, [][]int{{1}, {1, 2}, {1}})
	require.NotNil(t, view.Confirm)
	assert.Equal(t, 3, view.Confirm.Answered)
	assert.Equal(t, 0, view.Confirm.Skipped)

	view, err = f.engine.Finalize(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, view.Result)
	assert.True(t, view.Result.Passed)
	assert.False(t, view.Result.SyncFailed)

	require.Len(t, f.attempts.completed, 1)
	for _, call := range f.attempts.completed {
		assert.Equal(t, 100, call.Score)
		assert.True(t, call.Passed)
	}
	require.Len(t, f.crm.notes, 1)
	assert.Contains(t, f.crm.notes[0], "Lesson 1 results")
	assert.Equal(t, []int64{stageLesson1}, f.crm.pushedStages)
	assert.Equal(t, 1, f.events.count(QueueLessonCompleted))
	assert.Equal(t, 0, f.events.count(QueueCRMSyncFailed))

	sess, err := f.sessions.Get(ctx, user.MessengerID)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestLessonFlow_FailedScoreSkipsStagePush(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()
	user := linkedUser(1001)
	_, err := f.engine.Start(ctx, user, "lesson_1")
	require.NoError(t, err)

	// one of three correct is well below the pass threshold
	answerLesson1(t, f, user.MessengerID, [][]int{{1}, {3}, {2}})
	view, err := f.engine.Finalize(ctx, user)
	require.NoError(t, err)
	assert.False(t, view.Result.Passed)
	assert.False(t, view.Result.SyncFailed)

	// the note is still attached but the lead stays put
	require.Len(t, f.crm.notes, 1)
	assert.Empty(t, f.crm.pushedStages)
}

func TestLessonFinalize_GuardBlocksBackwardPush(t *testing.T) {
	f := newLessonFixture()
	f.crm.currentStage = stageLesson3
	ctx := context.Background()
	user := linkedUser(1001)
	_, err := f.engine.Start(ctx, user, "lesson_1")
	require.NoError(t, err)

	answerLesson1(t, f, user.MessengerID, [][]int{{1}, {1, 2}, {1}})
	view, err := f.engine.Finalize(ctx, user)
	require.NoError(t, err)
	assert.True(t, view.Result.Passed)
	assert.False(t, view.Result.SyncFailed)
	assert.Empty(t, f.crm.pushedStages)
	assert.Equal(t, stageLesson3, f.crm.currentStage)
}

func TestLessonFinalize_PersistenceFailureKeepsSession(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()
	user := linkedUser(1001)
	_, err := f.engine.Start(ctx, user, "lesson_1")
	require.NoError(t, err)
	answerLesson1(t, f, user.MessengerID, [][]int{{1}, {1, 2}, {1}})

	f.attempts.completeErr = assert.AnError
	_, err = f.engine.Finalize(ctx, user)
	require.ErrorIs(t, err, ErrPersistence)
	assert.Empty(t, f.crm.notes)
	assert.Equal(t, 0, f.events.count(QueueLessonCompleted))

	sess, err := f.sessions.Get(ctx, user.MessengerID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, session.ModeLessonConfirm, sess.Mode)

	// second attempt goes through once the store recovers
	f.attempts.completeErr = nil
	view, err := f.engine.Finalize(ctx, user)
	require.NoError(t, err)
	assert.True(t, view.Result.Passed)
}

func TestLessonFinalize_CRMFailureFlagsResult(t *testing.T) {
	f := newLessonFixture()
	f.crm.noteErr = assert.AnError
	ctx := context.Background()
	user := linkedUser(1001)
	_, err := f.engine.Start(ctx, user, "lesson_1")
	require.NoError(t, err)
	answerLesson1(t, f, user.MessengerID, [][]int{{1}, {1, 2}, {1}})

	view, err := f.engine.Finalize(ctx, user)
	require.NoError(t, err)
	assert.True(t, view.Result.Passed)
	assert.True(t, view.Result.SyncFailed)
	assert.Equal(t, 1, f.events.count(QueueCRMSyncFailed))
	assert.Equal(t, 1, f.events.count(QueueLessonCompleted))

	// the score is kept and the session is gone despite the failed sync
	require.Len(t, f.attempts.completed, 1)
	sess, err := f.sessions.Get(ctx, user.MessengerID)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestLessonRestart_ResetsToFirstQuestion(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()
	user := linkedUser(1001)
	_, err := f.engine.Start(ctx, user, "lesson_1")
	require.NoError(t, err)

	_, err = f.engine.Pick(ctx, user.MessengerID, 1)
	require.NoError(t, err)
	_, err = f.engine.Submit(ctx, user.MessengerID)
	require.NoError(t, err)

	view, err := f.engine.Restart(ctx, user.MessengerID)
	require.NoError(t, err)
	require.NotNil(t, view.Question)
	assert.Equal(t, 1, view.Question.Number)
	assert.Empty(t, selectedIndexes(view))

	sess, err := f.sessions.Get(ctx, user.MessengerID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Empty(t, sess.Answers)
}
