package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Store = (*MemoryStore)(nil)
var _ Store = (*RedisStore)(nil)

func TestMemoryStore_GetMissingReturnsNil(t *testing.T) {
	store := NewMemoryStore()
	sess, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestMemoryStore_PutGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess := New(ModeLessonQuestion)
	sess.LessonKey = "lesson_1"
	sess.DraftSelection[2] = true
	require.NoError(t, store.Put(ctx, 1, sess))

	loaded, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, ModeLessonQuestion, loaded.Mode)
	assert.Equal(t, "lesson_1", loaded.LessonKey)
	assert.True(t, loaded.DraftSelection[2])

	require.NoError(t, store.Delete(ctx, 1))
	loaded, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryStore_GetReturnsSnapshot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess := New(ModeExamQuestion)
	sess.ExamDraftCounts["relay module"] = 2
	require.NoError(t, store.Put(ctx, 1, sess))

	// mutating a loaded snapshot must not leak into the store
	loaded, _ := store.Get(ctx, 1)
	loaded.ExamDraftCounts["relay module"] = 99

	reloaded, _ := store.Get(ctx, 1)
	assert.Equal(t, 2, reloaded.ExamDraftCounts["relay module"])
}

func TestMemoryStore_ConcurrentUsers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			sess := New(ModeLessonQuestion)
			sess.QuestionIndex = int(userID)
			_ = store.Put(ctx, userID, sess)
			loaded, err := store.Get(ctx, userID)
			assert.NoError(t, err)
			assert.Equal(t, int(userID), loaded.QuestionIndex)
		}(int64(i))
	}
	wg.Wait()
}

func TestSession_CloneIsDeep(t *testing.T) {
	sess := New(ModeLessonQuestion)
	sess.Answers["q1"] = map[string]bool{"a": true}
	sess.ExamAnswers["q1"] = map[string]int{"apple": 1}

	clone := sess.Clone()
	clone.Answers["q1"]["a"] = false
	clone.ExamAnswers["q1"]["apple"] = 7
	clone.DraftSelection[3] = true

	assert.True(t, sess.Answers["q1"]["a"])
	assert.Equal(t, 1, sess.ExamAnswers["q1"]["apple"])
	assert.Empty(t, sess.DraftSelection)
}
