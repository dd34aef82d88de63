package pipeline

import (
	"context"

	"github.com/vidsmith/genmedia-ms-go/internal/jobstore"
	"github.com/vidsmith/genmedia-ms-go/internal/model"
	"github.com/vidsmith/genmedia-ms-go/internal/provider"
	"github.com/vidsmith/genmedia-ms-go/internal/request"
	"github.com/vidsmith/genmedia-ms-go/internal/speech"
)

type mockGenerator struct {
	submitHandle string
	submitErr    error
	submitted    *request.VideoProviderPayload

	ops      []*provider.Operation
	pollErr  error
	pollN    int
	imageArt *model.MediaArtifact
	imageErr error

	fragments []speech.Fragment
	speechErr error
	speechReq provider.SpeechRequest
}

func (m *mockGenerator) SubmitVideo(ctx context.Context, p *request.VideoProviderPayload) (string, error) {
	m.submitted = p
	if m.submitErr != nil {
		return "", m.submitErr
	}
	return m.submitHandle, nil
}

func (m *mockGenerator) PollOperation(ctx context.Context, handle string) (*provider.Operation, error) {
	if m.pollErr != nil {
		return nil, m.pollErr
	}
	op := m.ops[m.pollN]
	if m.pollN < len(m.ops)-1 {
		m.pollN++
	}
	return op, nil
}

func (m *mockGenerator) GenerateImage(ctx context.Context, p *request.ImagePayload) (*model.MediaArtifact, error) {
	if m.imageErr != nil {
		return nil, m.imageErr
	}
	return m.imageArt, nil
}

func (m *mockGenerator) StreamSpeech(ctx context.Context, req provider.SpeechRequest) ([]speech.Fragment, error) {
	m.speechReq = req
	if m.speechErr != nil {
		return nil, m.speechErr
	}
	return m.fragments, nil
}

type mockFetcher struct {
	err      error
	data     []byte
	mimeType string
	resolved []string
}

func (m *mockFetcher) Resolve(ctx context.Context, a *model.MediaArtifact) error {
	if m.err != nil {
		return m.err
	}
	m.resolved = append(m.resolved, a.URI)
	a.Data = m.data
	a.MimeType = m.mimeType
	return nil
}

type mockPost struct {
	probeErr    error
	probeCalled bool

	stripOut    []byte
	stripOK     bool
	stripCalled bool

	composeOut    []byte
	composeErr    error
	composeAspect string
}

func (m *mockPost) Probe(ctx context.Context) error {
	m.probeCalled = true
	return m.probeErr
}

func (m *mockPost) StripAudio(ctx context.Context, data []byte) ([]byte, bool) {
	m.stripCalled = true
	if !m.stripOK {
		return data, false
	}
	return m.stripOut, true
}

func (m *mockPost) ComposeLivePhoto(ctx context.Context, data []byte, aspectRatio string) ([]byte, error) {
	m.composeAspect = aspectRatio
	if m.composeErr != nil {
		return nil, m.composeErr
	}
	return m.composeOut, nil
}

type mockUploader struct {
	result *model.UploadResult
	err    error

	gotData []byte
	gotMime string
	calls   int
}

func (m *mockUploader) Upload(ctx context.Context, data []byte, mimeType string) (*model.UploadResult, error) {
	m.calls++
	m.gotData = data
	m.gotMime = mimeType
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type statusChange struct {
	id        string
	status    model.JobStatus
	resultURL string
	errMsg    string
}

type mockStore struct {
	jobs    map[string]*model.GenerationJob
	saveErr error
	saved   []*model.GenerationJob
	changes []statusChange
}

func newMockStore() *mockStore {
	return &mockStore{jobs: make(map[string]*model.GenerationJob)}
}

func (m *mockStore) Save(ctx context.Context, job *model.GenerationJob) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *job
	m.saved = append(m.saved, &cp)
	live := *job
	m.jobs[job.ID] = &live
	return nil
}

func (m *mockStore) Get(ctx context.Context, id string) (*model.GenerationJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, jobstore.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *mockStore) SetStatus(ctx context.Context, id string, status model.JobStatus, resultURL, errMsg string) error {
	m.changes = append(m.changes, statusChange{id: id, status: status, resultURL: resultURL, errMsg: errMsg})
	if job, ok := m.jobs[id]; ok {
		job.Status = status
		job.ResultURL = resultURL
		job.Error = errMsg
	}
	return nil
}
