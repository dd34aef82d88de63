// Package jobstore keeps generation job state in redis so the API can
// answer status queries while the worker drives the pipeline.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vidsmith/genmedia-ms-go/internal/model"
)

// ErrNotFound is returned when no job exists under the given id.
var ErrNotFound = errors.New("jobstore: job not found")

// Records expire after a day.
const recordTTL = 24 * time.Hour

func jobKey(id string) string { return "job:" + id }

type Store struct {
	client *redis.Client
}

func New(addr, password string) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return &Store{client: rdb}
}

func (s *Store) Save(ctx context.Context, job *model.GenerationJob) error {
	job.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.client.Set(ctx, jobKey(job.ID), data, recordTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.GenerationJob, error) {
	val, err := s.client.Get(ctx, jobKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var job model.GenerationJob
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

// SetStatus records a status change; terminal states also carry the result
// URL or the error message.
func (s *Store) SetStatus(ctx context.Context, id string, status model.JobStatus, resultURL, errMsg string) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		log.Printf("job #%s is already terminal (%s), ignoring transition to %s", id, job.Status, status)
		return nil
	}
	job.Status = status
	job.ResultURL = resultURL
	job.Error = errMsg
	return s.Save(ctx, job)
}
