// Package pipeline holds the fixed order of CRM pipeline stages and the
// guard that only ever allows a lead to move forward through them.
package pipeline

// Stage couples the internal stage key with the stable id of the stage in
// the external CRM pipeline.
type Stage struct {
	Key string
	ID  int64
}

// stages is the full training pipeline in order, from admission to
// completed training. Position in this slice is the stage rank.
var stages = []Stage{
	{Key: "admitted_to_training", ID: 47244117},
	{Key: "authorized_in_bot", ID: 65758021},
	{Key: "compleat_lesson_1", ID: 35444481},
	{Key: "compleat_lesson_2", ID: 35444484},
	{Key: "compleat_lesson_3", ID: 41608782},
	{Key: "compleat_lesson_4", ID: 41608785},
	{Key: "compleat_lesson_5", ID: 41608788},
	{Key: "compleat_lesson_6", ID: 41608791},
	{Key: "compleat_lesson_7", ID: 58699973},
	{Key: "ready_to_exam", ID: 41608797},
	{Key: "compleat_exam", ID: 41608800},
	{Key: "compleat_training", ID: 35440800},
}

// StageID resolves a stage key to its external id.
func StageID(key string) (int64, bool) {
	for _, s := range stages {
		if s.Key == key {
			return s.ID, true
		}
	}
	return 0, false
}

func rankOfKey(key string) int {
	for i, s := range stages {
		if s.Key == key {
			return i
		}
	}
	return 0
}

func rankOfID(id int64) int {
	for i, s := range stages {
		if s.ID == id {
			return i
		}
	}
	// unknown external stage ranks lowest, so a push is allowed
	return 0
}

// MayAdvance reports whether a lead currently at currentStageID may be
// pushed to the stage named by targetKey. Only strictly forward movement is
// allowed: a same-stage repeat or a regression is rejected, which keeps
// racing finalizations and manual operator moves from walking the lead
// backwards.
func MayAdvance(targetKey string, currentStageID int64) bool {
	return rankOfID(currentStageID) < rankOfKey(targetKey)
}
