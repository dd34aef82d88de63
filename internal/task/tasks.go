package task

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/vidsmith/genmedia-ms-go/internal/model"
	"github.com/vidsmith/genmedia-ms-go/internal/request"
)

const TypeRunGeneration = "generation:run"

// OnError selects batch failure semantics.
type OnError string

const (
	OnErrorContinue OnError = "continue"
	OnErrorAbort    OnError = "abort"
)

// BatchItem pairs a job id with the raw parameters for one generation.
type BatchItem struct {
	JobID  string         `json:"job_id"`
	Mode   model.Mode     `json:"mode"`
	Params request.Params `json:"params"`
}

// RunGenerationPayload is one enqueued batch. Items run sequentially.
type RunGenerationPayload struct {
	BatchID string      `json:"batch_id"`
	Items   []BatchItem `json:"items"`
	OnError OnError     `json:"on_error"`
}

// NewRunGenerationTask creates an Asynq task for running a generation batch.
func NewRunGenerationTask(p RunGenerationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("could not marshal run-generation payload: %w", err)
	}
	return asynq.NewTask(TypeRunGeneration, data, asynq.MaxRetry(0)), nil
}

// ParseRunGenerationPayload parses the task payload.
func ParseRunGenerationPayload(t *asynq.Task) (RunGenerationPayload, error) {
	var p RunGenerationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return RunGenerationPayload{}, fmt.Errorf("could not unmarshal payload: %w", err)
	}
	return p, nil
}
