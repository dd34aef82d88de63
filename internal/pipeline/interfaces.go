package pipeline

import (
	"context"
	"time"

	"github.com/vidsmith/genmedia-ms-go/internal/model"
	"github.com/vidsmith/genmedia-ms-go/internal/provider"
	"github.com/vidsmith/genmedia-ms-go/internal/request"
	"github.com/vidsmith/genmedia-ms-go/internal/speech"
)

// Generator is the abstracted provider generation API.
type Generator interface {
	SubmitVideo(ctx context.Context, p *request.VideoProviderPayload) (string, error)
	PollOperation(ctx context.Context, handle string) (*provider.Operation, error)
	GenerateImage(ctx context.Context, p *request.ImagePayload) (*model.MediaArtifact, error)
	StreamSpeech(ctx context.Context, req provider.SpeechRequest) ([]speech.Fragment, error)
}

// Fetcher resolves remote artifact references to bytes.
type Fetcher interface {
	Resolve(ctx context.Context, a *model.MediaArtifact) error
}

// PostProcessor runs the external transcoding tool.
type PostProcessor interface {
	Probe(ctx context.Context) error
	StripAudio(ctx context.Context, data []byte) ([]byte, bool)
	ComposeLivePhoto(ctx context.Context, data []byte, aspectRatio string) ([]byte, error)
}

// Uploader pushes a buffer to object storage and returns the hosted URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, mimeType string) (*model.UploadResult, error)
}

// StatusRecorder persists job state transitions for status queries.
type StatusRecorder interface {
	Save(ctx context.Context, job *model.GenerationJob) error
	Get(ctx context.Context, id string) (*model.GenerationJob, error)
	SetStatus(ctx context.Context, id string, status model.JobStatus, resultURL, errMsg string) error
}

// Sleeper is an injectable cooperative wait.
type Sleeper func(ctx context.Context, d time.Duration) error
