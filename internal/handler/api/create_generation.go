package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidsmith/genmedia-ms-go/internal/generation"
	"github.com/vidsmith/genmedia-ms-go/internal/model"
	"github.com/vidsmith/genmedia-ms-go/internal/request"
	"github.com/vidsmith/genmedia-ms-go/internal/task"
)

// JobSaver persists new job records.
type JobSaver interface {
	Save(ctx context.Context, job *model.GenerationJob) error
}

// BatchDispatcher hands a validated batch to the worker queue.
type BatchDispatcher interface {
	EnqueueRunGeneration(ctx context.Context, p task.RunGenerationPayload) error
}

// ToolProber checks that the external transcoding tool is runnable.
type ToolProber interface {
	Probe(ctx context.Context) error
}

type CreateGenerationRequest struct {
	Items   []CreateGenerationItem `json:"items"`
	OnError task.OnError           `json:"on_error,omitempty"`
}

type CreateGenerationItem struct {
	Mode   model.Mode     `json:"mode"`
	Params request.Params `json:"params"`
}

type CreateGenerationResponse struct {
	BatchID string              `json:"batch_id"`
	Jobs    []GenerationJobInfo `json:"jobs"`
}

type GenerationJobInfo struct {
	ID     string          `json:"id"`
	Mode   model.Mode      `json:"mode"`
	Status model.JobStatus `json:"status"`
}

// CreateGenerationHandler validates a batch eagerly, records one job per
// item and enqueues the batch for the worker. Every item must pass
// validation before anything is enqueued.
func CreateGenerationHandler(store JobSaver, dispatcher BatchDispatcher, prober ToolProber) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGenerationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request payload", err)
			return
		}
		if len(req.Items) == 0 {
			WriteError(w, http.StatusBadRequest, "at least one item is required", nil)
			return
		}
		switch req.OnError {
		case "", task.OnErrorContinue:
			req.OnError = task.OnErrorContinue
		case task.OnErrorAbort:
		default:
			WriteError(w, http.StatusBadRequest, "on_error must be \"continue\" or \"abort\"", nil)
			return
		}

		needsTool := false
		for _, item := range req.Items {
			if _, err := request.Build(item.Mode, item.Params); err != nil {
				var verr *generation.ValidationError
				if errors.As(err, &verr) {
					WriteError(w, http.StatusBadRequest, verr.Error(), nil)
					return
				}
				WriteError(w, http.StatusBadRequest, generation.Sanitize(err.Error()), nil)
				return
			}
			if item.Mode == model.ModeLivePhoto {
				needsTool = true
			}
		}

		// Live-photo has no degradation path; refuse the whole batch up
		// front when the tool is missing rather than fail it later.
		if needsTool {
			if err := prober.Probe(r.Context()); err != nil {
				WriteError(w, http.StatusFailedDependency, generation.Sanitize(err.Error()), nil)
				return
			}
		}

		now := time.Now().UTC()
		batchID := uuid.NewString()
		payload := task.RunGenerationPayload{BatchID: batchID, OnError: req.OnError}
		resp := CreateGenerationResponse{BatchID: batchID}

		for _, item := range req.Items {
			job := &model.GenerationJob{
				ID:        uuid.NewString(),
				Mode:      item.Mode,
				Status:    model.StatusSubmitted,
				CreatedAt: now,
			}
			if err := store.Save(r.Context(), job); err != nil {
				WriteError(w, http.StatusInternalServerError, "could not record generation job", err)
				return
			}
			payload.Items = append(payload.Items, task.BatchItem{
				JobID:  job.ID,
				Mode:   item.Mode,
				Params: item.Params,
			})
			resp.Jobs = append(resp.Jobs, GenerationJobInfo{ID: job.ID, Mode: item.Mode, Status: job.Status})
		}

		if err := dispatcher.EnqueueRunGeneration(r.Context(), payload); err != nil {
			WriteError(w, http.StatusInternalServerError, "could not enqueue generation batch", err)
			return
		}

		RespondJSON(w, http.StatusAccepted, resp)
		log.Printf("✅  Accepted generation batch #%s with %d item(s)", batchID, len(resp.Jobs))
	}
}
