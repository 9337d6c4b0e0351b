package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMayAdvance_Forward(t *testing.T) {
	authorized, ok := StageID("authorized_in_bot")
	require.True(t, ok)

	assert.True(t, MayAdvance("compleat_lesson_1", authorized))
	assert.True(t, MayAdvance("compleat_training", authorized))
}

func TestMayAdvance_NoRegression(t *testing.T) {
	lesson1, ok := StageID("compleat_lesson_1")
	require.True(t, ok)

	assert.False(t, MayAdvance("authorized_in_bot", lesson1))
	assert.False(t, MayAdvance("admitted_to_training", lesson1))
}

func TestMayAdvance_SameStage(t *testing.T) {
	lesson3, ok := StageID("compleat_lesson_3")
	require.True(t, ok)

	assert.False(t, MayAdvance("compleat_lesson_3", lesson3))
}

func TestMayAdvance_UnknownCurrentStageRanksLowest(t *testing.T) {
	// a stage id the pipeline does not know (e.g. a manually added stage)
	// must not block forward pushes
	assert.True(t, MayAdvance("compleat_lesson_1", 99999999))
	assert.False(t, MayAdvance("admitted_to_training", 99999999))
}

func TestMayAdvance_UnknownTargetNeverAdvances(t *testing.T) {
	authorized, _ := StageID("authorized_in_bot")
	assert.False(t, MayAdvance("no_such_stage", authorized))
}

func TestStageID_Unknown(t *testing.T) {
	_, ok := StageID("no_such_stage")
	assert.False(t, ok)
}
