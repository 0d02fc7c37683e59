// internal/worker/tasks.go
package worker

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TypeGenerateListing = "listing:generate"

type GenerateListingPayload struct {
	RunID uuid.UUID `json:"run_id"`
}

// NewGenerateListingTask builds the queue task for one reserved run.
// Runs are never retried: a failed run is final and the user starts a new one.
func NewGenerateListingTask(runID uuid.UUID, queue string) (*asynq.Task, error) {
	payload, err := json.Marshal(GenerateListingPayload{RunID: runID})
	if err != nil {
		return nil, fmt.Errorf("marshal payload failed: %w", err)
	}
	opts := []asynq.Option{asynq.MaxRetry(0)}
	if queue != "" {
		opts = append(opts, asynq.Queue(queue))
	}
	return asynq.NewTask(TypeGenerateListing, payload, opts...), nil
}

func parseGenerateListing(t *asynq.Task) (uuid.UUID, error) {
	var payload GenerateListingPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return uuid.Nil, err
	}
	if payload.RunID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("missing run_id")
	}
	return payload.RunID, nil
}
