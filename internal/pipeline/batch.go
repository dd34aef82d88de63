package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/vidsmith/genmedia-ms-go/internal/generation"
	"github.com/vidsmith/genmedia-ms-go/internal/model"
	"github.com/vidsmith/genmedia-ms-go/internal/request"
	"github.com/vidsmith/genmedia-ms-go/internal/task"
)

// ItemResult is the per-job outcome of a batch run.
type ItemResult struct {
	JobID  string
	Result *model.UploadResult
	Err    error
}

// RunBatch executes the batch items sequentially. With OnErrorContinue a
// failed item does not stop the rest; with OnErrorAbort the remaining items
// are marked failed without running.
func (p *Pipeline) RunBatch(ctx context.Context, items []task.BatchItem, onError task.OnError) []ItemResult {
	results := make([]ItemResult, 0, len(items))

	for i, item := range items {
		job, pl, err := p.prepareItem(ctx, item)
		if err == nil {
			var res *model.UploadResult
			res, err = p.RunItem(ctx, job, pl)
			if err == nil {
				results = append(results, ItemResult{JobID: item.JobID, Result: res})
				continue
			}
		}

		log.Printf("batch item #%s failed: %v", item.JobID, err)
		results = append(results, ItemResult{JobID: item.JobID, Err: err})

		if onError == task.OnErrorAbort {
			for _, rest := range items[i+1:] {
				if serr := p.store.SetStatus(ctx, rest.JobID, model.StatusFailed, "", "batch aborted"); serr != nil {
					log.Printf("failed to abort job #%s: %v", rest.JobID, serr)
				}
				results = append(results, ItemResult{JobID: rest.JobID, Err: fmt.Errorf("batch aborted")})
			}
			break
		}
	}
	return results
}

// prepareItem rebuilds the typed payload from the queued raw params and loads
// the job record. Build errors are recorded against the job like any other
// failure.
func (p *Pipeline) prepareItem(ctx context.Context, item task.BatchItem) (*model.GenerationJob, request.Payload, error) {
	pl, err := request.Build(item.Mode, item.Params)
	if err != nil {
		if serr := p.store.SetStatus(ctx, item.JobID, model.StatusFailed, "", generation.Sanitize(err.Error())); serr != nil {
			log.Printf("failed to record failure for job #%s: %v", item.JobID, serr)
		}
		return nil, nil, err
	}
	job, err := p.store.Get(ctx, item.JobID)
	if err != nil {
		return nil, nil, err
	}
	return job, pl, nil
}
