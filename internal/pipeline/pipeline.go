// Package pipeline orchestrates one generation item end to end: build the
// provider payload, submit, poll, validate, fetch, post-process, upload.
package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/vidsmith/genmedia-ms-go/internal/generation"
	"github.com/vidsmith/genmedia-ms-go/internal/model"
	"github.com/vidsmith/genmedia-ms-go/internal/provider"
	"github.com/vidsmith/genmedia-ms-go/internal/request"
	"github.com/vidsmith/genmedia-ms-go/internal/speech"
	"github.com/vidsmith/genmedia-ms-go/internal/voice"
)

type Pipeline struct {
	gen    Generator
	fetch  Fetcher
	post   PostProcessor
	upload Uploader
	store  StatusRecorder
	poller *Poller

	// seed feeds the per-request voice assigner; injectable for tests.
	seed func() int64
}

func New(gen Generator, fetch Fetcher, post PostProcessor, upload Uploader, store StatusRecorder, poller *Poller) *Pipeline {
	return &Pipeline{
		gen:    gen,
		fetch:  fetch,
		post:   post,
		upload: upload,
		store:  store,
		poller: poller,
		seed:   func() int64 { return time.Now().UnixNano() },
	}
}

// RunItem drives one generation job to completion and records every state
// transition. The returned error is already sanitized.
func (p *Pipeline) RunItem(ctx context.Context, job *model.GenerationJob, pl request.Payload) (*model.UploadResult, error) {
	res, err := p.runItem(ctx, job, pl)
	if err != nil {
		status := model.StatusFailed
		var timeout *generation.TimeoutError
		if errors.As(err, &timeout) {
			status = model.StatusTimedOut
		}
		if serr := p.store.SetStatus(ctx, job.ID, status, "", generation.Sanitize(err.Error())); serr != nil {
			log.Printf("failed to record %s for job #%s: %v", status, job.ID, serr)
		}
		return nil, err
	}
	if serr := p.store.SetStatus(ctx, job.ID, model.StatusCompleted, res.URL, ""); serr != nil {
		log.Printf("failed to record completion for job #%s: %v", job.ID, serr)
	}
	return res, nil
}

func (p *Pipeline) runItem(ctx context.Context, job *model.GenerationJob, pl request.Payload) (*model.UploadResult, error) {
	switch v := pl.(type) {
	case *request.ImagePayload:
		return p.runImage(ctx, v)
	case *request.SpeechPayload:
		return p.runSpeech(ctx, v)
	default:
		return p.runVideo(ctx, job, pl)
	}
}

func (p *Pipeline) runImage(ctx context.Context, pl *request.ImagePayload) (*model.UploadResult, error) {
	art, err := p.gen.GenerateImage(ctx, pl)
	if err != nil {
		return nil, err
	}
	return p.upload.Upload(ctx, art.Data, art.MimeType)
}

// runSpeech streams synchronously: there is no long-running operation, so
// the assembler replaces the poller and validator.
func (p *Pipeline) runSpeech(ctx context.Context, pl *request.SpeechPayload) (*model.UploadResult, error) {
	sr := provider.SpeechRequest{Model: pl.Model, Text: pl.Text}

	// The assigner's used-voice set lives only for this request.
	assigner := voice.NewAssigner(p.seed())
	if pl.MultiSpeaker() {
		for _, s := range pl.Speakers {
			sr.Speakers = append(sr.Speakers, provider.SpeakerVoice{
				Speaker:   s.Label,
				VoiceName: assigner.Assign(s.Voice.Name, category(s.Voice.Category)),
			})
		}
	} else {
		sr.VoiceName = assigner.Assign(pl.Voice.Name, category(pl.Voice.Category))
	}

	fragments, err := p.gen.StreamSpeech(ctx, sr)
	if err != nil {
		return nil, err
	}
	buf, mime, err := speech.Assemble(fragments)
	if err != nil {
		return nil, err
	}
	// An empty stream is not an assembly error, but there is nothing worth
	// hosting, so the job fails here.
	if len(buf) == 0 {
		return nil, &generation.ProviderError{Detail: "no usable output"}
	}
	return p.upload.Upload(ctx, buf, mime)
}

func (p *Pipeline) runVideo(ctx context.Context, job *model.GenerationJob, pl request.Payload) (*model.UploadResult, error) {
	live, isLive := pl.(*request.LivePhotoPayload)

	// The live-photo transform has no degradation path, so the tool is
	// probed before any network work for this mode begins.
	if isLive {
		if err := p.post.Probe(ctx); err != nil {
			return nil, err
		}
	}

	if err := p.resolveInputs(ctx, pl); err != nil {
		return nil, err
	}

	wire, err := request.BuildVideoProviderPayload(pl)
	if err != nil {
		return nil, err
	}

	handle, err := p.gen.SubmitVideo(ctx, wire)
	if err != nil {
		return nil, err
	}

	// Deadline is fixed at submission and immutable afterwards.
	job.Handle = handle
	job.Status = model.StatusPolling
	job.Deadline = p.poller.Deadline()
	if serr := p.store.Save(ctx, job); serr != nil {
		log.Printf("failed to record polling state for job #%s: %v", job.ID, serr)
	}

	op, err := p.poller.Await(ctx, handle, job.Deadline, p.gen.PollOperation)
	if err != nil {
		return nil, err
	}

	art, err := provider.ExtractArtifact(op)
	if err != nil {
		return nil, err
	}
	// The job is terminal now; only then is the artifact fetched.
	if err := p.fetch.Resolve(ctx, art); err != nil {
		return nil, err
	}

	data, mime := art.Data, art.MimeType
	switch {
	case isLive:
		data, err = p.post.ComposeLivePhoto(ctx, data, live.Config.AspectRatio)
		if err != nil {
			return nil, err
		}
		mime = "video/mp4"
	case stripWanted(pl):
		var ok bool
		data, ok = p.post.StripAudio(ctx, data)
		if !ok {
			log.Printf("audio strip failed for job #%s, uploading original", job.ID)
		}
	}

	return p.upload.Upload(ctx, data, mime)
}

func (p *Pipeline) resolveInputs(ctx context.Context, pl request.Payload) error {
	for _, a := range inputArtifacts(pl) {
		if err := p.fetch.Resolve(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func inputArtifacts(pl request.Payload) []*model.MediaArtifact {
	var refs []*model.MediaArtifact
	switch v := pl.(type) {
	case *request.FramesToVideoPayload:
		refs = append(refs, v.StartFrame)
		if v.LastFrame != nil {
			refs = append(refs, v.LastFrame)
		}
	case *request.ReferencesToVideoPayload:
		refs = append(refs, v.References...)
	case *request.LivePhotoPayload:
		refs = append(refs, v.StartFrame)
	}
	return refs
}

func stripWanted(pl request.Payload) bool {
	switch v := pl.(type) {
	case *request.TextToVideoPayload:
		return v.Config.StripAudio
	case *request.FramesToVideoPayload:
		return v.Config.StripAudio
	case *request.ReferencesToVideoPayload:
		return v.Config.StripAudio
	case *request.ExtendVideoPayload:
		return v.Config.StripAudio
	}
	return false
}

func category(s string) voice.Category {
	switch s {
	case "male":
		return voice.CategoryMale
	case "female":
		return voice.CategoryFemale
	default:
		return voice.CategoryAny
	}
}
