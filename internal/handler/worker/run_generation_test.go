package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/vidsmith/genmedia-ms-go/internal/pipeline"
	"github.com/vidsmith/genmedia-ms-go/internal/task"
)

type mockRunner struct {
	results []pipeline.ItemResult
	items   []task.BatchItem
	onError task.OnError
}

func (m *mockRunner) RunBatch(ctx context.Context, items []task.BatchItem, onError task.OnError) []pipeline.ItemResult {
	m.items = items
	m.onError = onError
	return m.results
}

func TestRunGenerationHandler(t *testing.T) {
	runner := &mockRunner{results: []pipeline.ItemResult{{JobID: "job-1"}}}
	p := task.RunGenerationPayload{
		BatchID: "batch-1",
		Items:   []task.BatchItem{{JobID: "job-1"}},
		OnError: task.OnErrorContinue,
	}

	if err := RunGenerationHandler(context.Background(), p, runner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runner.items) != 1 || runner.onError != task.OnErrorContinue {
		t.Fatalf("unexpected batch run: %+v %q", runner.items, runner.onError)
	}
}

func TestRunGenerationHandler_ItemFailuresDoNotFailTask(t *testing.T) {
	runner := &mockRunner{results: []pipeline.ItemResult{
		{JobID: "job-1", Err: errors.New("provider down")},
	}}
	p := task.RunGenerationPayload{BatchID: "batch-1", Items: []task.BatchItem{{JobID: "job-1"}}}

	if err := RunGenerationHandler(context.Background(), p, runner); err != nil {
		t.Fatalf("per-item failures must not fail the task: %v", err)
	}
}
