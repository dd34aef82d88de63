package task

import (
	"context"

	"github.com/hibiken/asynq"
)

// Dispatcher enqueues generation batches for the worker.
type Dispatcher struct {
	client *asynq.Client
}

func NewDispatcher(addr, password string) *Dispatcher {
	c := asynq.NewClient(asynq.RedisClientOpt{Addr: addr, Password: password})
	return &Dispatcher{client: c}
}

func (d *Dispatcher) EnqueueRunGeneration(ctx context.Context, p RunGenerationPayload) error {
	t, err := NewRunGenerationTask(p)
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, t); err != nil {
		return err
	}
	return nil
}
