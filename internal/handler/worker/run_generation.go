package worker

import (
	"context"
	"log"

	"github.com/vidsmith/genmedia-ms-go/internal/pipeline"
	"github.com/vidsmith/genmedia-ms-go/internal/task"
)

// BatchRunner drives one generation batch to completion.
type BatchRunner interface {
	RunBatch(ctx context.Context, items []task.BatchItem, onError task.OnError) []pipeline.ItemResult
}

// RunGenerationHandler handles a run-generation task. Per-item failures are
// recorded against their jobs by the pipeline; the task itself only fails on
// a malformed payload, so Asynq never retries a half-finished batch.
func RunGenerationHandler(ctx context.Context, p task.RunGenerationPayload, runner BatchRunner) error {
	log.Printf("🚀 Running generation batch #%s with %d item(s)", p.BatchID, len(p.Items))

	results := runner.RunBatch(ctx, p.Items, p.OnError)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		log.Printf("⚠️  Finished generation batch #%s: %d/%d item(s) failed", p.BatchID, failed, len(results))
	} else {
		log.Printf("✅  Successfully finished generation batch #%s", p.BatchID)
	}
	return nil
}
