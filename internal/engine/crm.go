package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"education-service/internal/pipeline"
)

// syncResult attaches the result note to the user's lead and, when the
// attempt passed and the stage guard allows it, pushes the lead forward.
// Returns true when any step failed and the CRM record is stale; the
// failure is logged and never surfaced to the user flow.
func syncResult(ctx context.Context, crm CRM, dealID sql.NullInt64, noteText, statusKey string, passed bool) bool {
	if !dealID.Valid {
		log.Printf("CRM sync skipped: user has no linked deal (status %s)", statusKey)
		return true
	}
	leadID := dealID.Int64

	if err := crm.AttachNote(ctx, leadID, noteText); err != nil {
		log.Printf("Failed to attach result note to lead %d: %v", leadID, err)
		return true
	}

	currentStage, err := crm.GetCurrentStage(ctx, leadID)
	if err != nil {
		log.Printf("Failed to get current stage of lead %d: %v", leadID, err)
		return true
	}

	if passed && pipeline.MayAdvance(statusKey, currentStage) {
		targetStage, ok := pipeline.StageID(statusKey)
		if !ok {
			log.Printf("Unknown pipeline stage key %s", statusKey)
			return true
		}
		if err := crm.PushStage(ctx, targetStage, leadID); err != nil {
			log.Printf("Failed to push lead %d to stage %s: %v", leadID, statusKey, err)
			return true
		}
	}
	return false
}

// pushForward moves the lead to the named stage if the guard allows it.
func pushForward(ctx context.Context, crm CRM, leadID int64, statusKey string) error {
	currentStage, err := crm.GetCurrentStage(ctx, leadID)
	if err != nil {
		return fmt.Errorf("failed to get current stage: %w", err)
	}
	if !pipeline.MayAdvance(statusKey, currentStage) {
		return nil
	}
	targetStage, ok := pipeline.StageID(statusKey)
	if !ok {
		return fmt.Errorf("unknown pipeline stage key %s", statusKey)
	}
	return crm.PushStage(ctx, targetStage, leadID)
}

// publishEvent marshals and publishes best-effort; failures are logged only.
func publishEvent(ctx context.Context, events Publisher, queueName string, event interface{}) {
	if events == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", queueName, err)
		return
	}
	if err := events.Publish(ctx, queueName, body); err != nil {
		log.Printf("Failed to publish %s event: %v", queueName, err)
	}
}
