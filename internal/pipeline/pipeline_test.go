package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vidsmith/genmedia-ms-go/internal/generation"
	"github.com/vidsmith/genmedia-ms-go/internal/model"
	"github.com/vidsmith/genmedia-ms-go/internal/provider"
	"github.com/vidsmith/genmedia-ms-go/internal/request"
	"github.com/vidsmith/genmedia-ms-go/internal/speech"
	"github.com/vidsmith/genmedia-ms-go/internal/task"
	"github.com/vidsmith/genmedia-ms-go/internal/voice"
)

type fixtures struct {
	gen    *mockGenerator
	fetch  *mockFetcher
	post   *mockPost
	upload *mockUploader
	store  *mockStore
	pipe   *Pipeline
}

func newFixtures() *fixtures {
	f := &fixtures{
		gen: &mockGenerator{
			submitHandle: "operations/op-1",
			ops: []*provider.Operation{{
				Name: "operations/op-1",
				Done: true,
				Response: &provider.OpResponse{
					GeneratedVideos: []provider.GeneratedSample{
						{Video: &provider.VideoArtifact{URI: "https://host/files/out"}},
					},
				},
			}},
		},
		fetch:  &mockFetcher{data: []byte("video bytes"), mimeType: "video/mp4"},
		post:   &mockPost{},
		upload: &mockUploader{result: &model.UploadResult{URL: "https://cdn/x.mp4"}},
		store:  newMockStore(),
	}
	poller := NewPoller(time.Millisecond, time.Minute)
	poller.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	f.pipe = New(f.gen, f.fetch, f.post, f.upload, f.store, poller)
	f.pipe.seed = func() int64 { return 1 }
	return f
}

func mustBuild(t *testing.T, mode model.Mode, p request.Params) request.Payload {
	t.Helper()
	pl, err := request.Build(mode, p)
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	return pl
}

func TestRunItem_Video_HappyPath(t *testing.T) {
	f := newFixtures()
	job := &model.GenerationJob{ID: "job-1", Mode: model.ModeTextToVideo, Status: model.StatusSubmitted}
	pl := mustBuild(t, model.ModeTextToVideo, request.Params{Prompt: "a storm"})

	res, err := f.pipe.RunItem(context.Background(), job, pl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.URL != "https://cdn/x.mp4" {
		t.Fatalf("unexpected result: %+v", res)
	}

	// Polling state was recorded with handle and deadline before waiting.
	if len(f.store.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(f.store.saved))
	}
	saved := f.store.saved[0]
	if saved.Status != model.StatusPolling || saved.Handle != "operations/op-1" || saved.Deadline.IsZero() {
		t.Fatalf("unexpected polling record: %+v", saved)
	}

	if len(f.fetch.resolved) != 1 || f.fetch.resolved[0] != "https://host/files/out" {
		t.Fatalf("expected output fetch, got %v", f.fetch.resolved)
	}
	if string(f.upload.gotData) != "video bytes" || f.upload.gotMime != "video/mp4" {
		t.Fatalf("unexpected upload: %q %q", f.upload.gotData, f.upload.gotMime)
	}

	last := f.store.changes[len(f.store.changes)-1]
	if last.status != model.StatusCompleted || last.resultURL != "https://cdn/x.mp4" {
		t.Fatalf("unexpected final status: %+v", last)
	}
}

func TestRunItem_Video_StripAudioPreference(t *testing.T) {
	f := newFixtures()
	f.post.stripOK = true
	f.post.stripOut = []byte("silent bytes")
	job := &model.GenerationJob{ID: "job-1", Mode: model.ModeTextToVideo}
	pl := mustBuild(t, model.ModeTextToVideo, request.Params{Prompt: "a storm", StripAudio: true})

	if _, err := f.pipe.RunItem(context.Background(), job, pl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.post.stripCalled {
		t.Fatal("expected strip-audio to run")
	}
	if string(f.upload.gotData) != "silent bytes" {
		t.Fatalf("expected stripped bytes uploaded, got %q", f.upload.gotData)
	}
}

func TestRunItem_Video_StripAudioSoftFail(t *testing.T) {
	f := newFixtures()
	f.post.stripOK = false
	job := &model.GenerationJob{ID: "job-1", Mode: model.ModeTextToVideo}
	pl := mustBuild(t, model.ModeTextToVideo, request.Params{Prompt: "a storm", StripAudio: true})

	if _, err := f.pipe.RunItem(context.Background(), job, pl); err != nil {
		t.Fatalf("strip failure must not fail the job: %v", err)
	}
	if string(f.upload.gotData) != "video bytes" {
		t.Fatalf("expected original bytes uploaded, got %q", f.upload.gotData)
	}
}

func TestRunItem_Video_Timeout(t *testing.T) {
	f := newFixtures()
	f.gen.ops = []*provider.Operation{{Name: "operations/op-1"}}
	poller := NewPoller(time.Second, 3*time.Second)
	clock := &fakeClock{now: time.Now()}
	poller.Now = clock.Now
	poller.Sleep = clock.Sleep
	f.pipe.poller = poller

	job := &model.GenerationJob{ID: "job-1", Mode: model.ModeTextToVideo}
	pl := mustBuild(t, model.ModeTextToVideo, request.Params{Prompt: "a storm"})

	_, err := f.pipe.RunItem(context.Background(), job, pl)
	var terr *generation.TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}

	last := f.store.changes[len(f.store.changes)-1]
	if last.status != model.StatusTimedOut {
		t.Fatalf("expected timed_out status, got %q", last.status)
	}
	if !strings.Contains(last.errMsg, "timed out") {
		t.Fatalf("expected timeout message, got %q", last.errMsg)
	}
	if f.upload.calls != 0 {
		t.Fatal("nothing must be uploaded after a timeout")
	}
}

func TestRunItem_Video_SafetyRejection(t *testing.T) {
	f := newFixtures()
	f.gen.ops = []*provider.Operation{{
		Name: "operations/op-1",
		Done: true,
		Response: &provider.OpResponse{
			RaiMediaFilteredCount:   1,
			RaiMediaFilteredReasons: []string{"violence"},
		},
	}}
	job := &model.GenerationJob{ID: "job-1", Mode: model.ModeTextToVideo}
	pl := mustBuild(t, model.ModeTextToVideo, request.Params{Prompt: "a storm"})

	_, err := f.pipe.RunItem(context.Background(), job, pl)
	var serr *generation.SafetyFilterError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SafetyFilterError, got %v", err)
	}
	last := f.store.changes[len(f.store.changes)-1]
	if last.status != model.StatusFailed || !strings.Contains(last.errMsg, "content safety rejection") {
		t.Fatalf("unexpected final status: %+v", last)
	}
}

func TestRunItem_FramesToVideo_ResolvesInputsFirst(t *testing.T) {
	f := newFixtures()
	job := &model.GenerationJob{ID: "job-1", Mode: model.ModeFramesToVideo}
	pl := mustBuild(t, model.ModeFramesToVideo, request.Params{
		StartFrame: "https://cdn.example/start.png",
		LastFrame:  "https://cdn.example/end.png",
	})

	if _, err := f.pipe.RunItem(context.Background(), job, pl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Two inputs plus the output.
	if len(f.fetch.resolved) != 3 {
		t.Fatalf("expected 3 fetches, got %v", f.fetch.resolved)
	}
	if f.fetch.resolved[0] != "https://cdn.example/start.png" || f.fetch.resolved[1] != "https://cdn.example/end.png" {
		t.Fatalf("inputs must be fetched before submission: %v", f.fetch.resolved)
	}
	if f.gen.submitted.Image == nil || f.gen.submitted.Config.LastFrame == nil {
		t.Fatalf("expected resolved frames on the provider payload: %+v", f.gen.submitted)
	}
}

func TestRunItem_LivePhoto_ProbeBeforeNetwork(t *testing.T) {
	f := newFixtures()
	f.post.probeErr = &generation.ToolUnavailableError{Tool: "ffmpeg", Err: errors.New("not found")}
	job := &model.GenerationJob{ID: "job-1", Mode: model.ModeLivePhoto}
	pl := mustBuild(t, model.ModeLivePhoto, request.Params{
		StartFrame:      "https://cdn.example/photo.png",
		DurationSeconds: 4,
	})

	_, err := f.pipe.RunItem(context.Background(), job, pl)
	var terr *generation.ToolUnavailableError
	if !errors.As(err, &terr) {
		t.Fatalf("expected ToolUnavailableError, got %v", err)
	}
	if len(f.fetch.resolved) != 0 {
		t.Fatal("no fetch may happen when the tool is missing")
	}
	if f.gen.submitted != nil {
		t.Fatal("no submission may happen when the tool is missing")
	}
}

func TestRunItem_LivePhoto_Composes(t *testing.T) {
	f := newFixtures()
	f.post.composeOut = []byte("live photo bytes")
	job := &model.GenerationJob{ID: "job-1", Mode: model.ModeLivePhoto}
	pl := mustBuild(t, model.ModeLivePhoto, request.Params{
		StartFrame:      "https://cdn.example/photo.png",
		AspectRatio:     "9:16",
		DurationSeconds: 4,
	})

	if _, err := f.pipe.RunItem(context.Background(), job, pl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.post.probeCalled {
		t.Fatal("expected probe before the work")
	}
	if f.post.composeAspect != "9:16" {
		t.Fatalf("expected aspect ratio passthrough, got %q", f.post.composeAspect)
	}
	if string(f.upload.gotData) != "live photo bytes" || f.upload.gotMime != "video/mp4" {
		t.Fatalf("unexpected upload: %q %q", f.upload.gotData, f.upload.gotMime)
	}
}

func TestRunItem_Image(t *testing.T) {
	f := newFixtures()
	f.gen.imageArt = &model.MediaArtifact{Data: []byte("png bytes"), MimeType: "image/png", Role: model.RoleOutputResult}
	job := &model.GenerationJob{ID: "job-1", Mode: model.ModeImage}
	pl := mustBuild(t, model.ModeImage, request.Params{Prompt: "a lighthouse"})

	res, err := f.pipe.RunItem(context.Background(), job, pl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.URL != "https://cdn/x.mp4" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if string(f.upload.gotData) != "png bytes" || f.upload.gotMime != "image/png" {
		t.Fatalf("unexpected upload: %q %q", f.upload.gotData, f.upload.gotMime)
	}
	if f.gen.submitted != nil {
		t.Fatal("image generation must not go through the video flow")
	}
}

func TestRunItem_Speech_SingleVoice(t *testing.T) {
	f := newFixtures()
	f.gen.fragments = []speech.Fragment{
		{MimeType: "audio/L16;codec=pcm;rate=24000", Data: base64.StdEncoding.EncodeToString([]byte{1, 2})},
	}
	job := &model.GenerationJob{ID: "job-1", Mode: model.ModeSpeech}
	pl := mustBuild(t, model.ModeSpeech, request.Params{Text: "hello", Voice: request.VoiceSpec{Name: "Kore"}})

	if _, err := f.pipe.RunItem(context.Background(), job, pl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.gen.speechReq.VoiceName != "Kore" {
		t.Fatalf("expected literal voice, got %q", f.gen.speechReq.VoiceName)
	}
	if f.upload.gotMime != "audio/wav" {
		t.Fatalf("expected WAV upload, got %q", f.upload.gotMime)
	}
}

func TestRunItem_Speech_MultiSpeakerAssignsDistinctVoices(t *testing.T) {
	f := newFixtures()
	f.gen.fragments = []speech.Fragment{
		{MimeType: "audio/L16;codec=pcm;rate=24000", Data: base64.StdEncoding.EncodeToString([]byte{1, 2})},
	}
	job := &model.GenerationJob{ID: "job-1", Mode: model.ModeSpeech}
	pl := mustBuild(t, model.ModeSpeech, request.Params{
		Text: "hello",
		Speakers: []request.Speaker{
			{Label: "host", Voice: request.VoiceSpec{Category: "female"}},
			{Label: "guest", Voice: request.VoiceSpec{Category: "female"}},
		},
	})

	if _, err := f.pipe.RunItem(context.Background(), job, pl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sp := f.gen.speechReq.Speakers
	if len(sp) != 2 {
		t.Fatalf("expected 2 speaker bindings, got %d", len(sp))
	}
	if sp[0].VoiceName == sp[1].VoiceName {
		t.Fatalf("expected distinct voices, both got %q", sp[0].VoiceName)
	}
	for _, s := range sp {
		if !voice.Known(s.VoiceName) {
			t.Fatalf("assigned voice %q is not in the catalog", s.VoiceName)
		}
	}
}

func TestRunItem_Speech_EmptyStreamFails(t *testing.T) {
	f := newFixtures()
	job := &model.GenerationJob{ID: "job-1", Mode: model.ModeSpeech}
	pl := mustBuild(t, model.ModeSpeech, request.Params{Text: "hello"})

	_, err := f.pipe.RunItem(context.Background(), job, pl)
	want := "provider: no usable output"
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}
	if f.upload.calls != 0 {
		t.Fatal("an empty stream must not be hosted")
	}
	last := f.store.changes[len(f.store.changes)-1]
	if last.status != model.StatusFailed {
		t.Fatalf("expected failed status, got %q", last.status)
	}
}

func TestRunBatch_ContinueOnError(t *testing.T) {
	f := newFixtures()
	f.gen.submitErr = errors.New("provider down")
	for _, id := range []string{"job-1", "job-2"} {
		f.store.jobs[id] = &model.GenerationJob{ID: id, Mode: model.ModeTextToVideo, Status: model.StatusSubmitted}
	}
	items := []task.BatchItem{
		{JobID: "job-1", Mode: model.ModeTextToVideo, Params: request.Params{Prompt: "one"}},
		{JobID: "job-2", Mode: model.ModeTextToVideo, Params: request.Params{Prompt: "two"}},
	}

	results := f.pipe.RunBatch(context.Background(), items, task.OnErrorContinue)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err == nil || results[1].Err == nil {
		t.Fatalf("expected both items to run and fail: %+v", results)
	}
}

func TestRunBatch_AbortMarksRemaining(t *testing.T) {
	f := newFixtures()
	f.gen.submitErr = errors.New("provider down")
	for _, id := range []string{"job-1", "job-2", "job-3"} {
		f.store.jobs[id] = &model.GenerationJob{ID: id, Mode: model.ModeTextToVideo, Status: model.StatusSubmitted}
	}
	items := []task.BatchItem{
		{JobID: "job-1", Mode: model.ModeTextToVideo, Params: request.Params{Prompt: "one"}},
		{JobID: "job-2", Mode: model.ModeTextToVideo, Params: request.Params{Prompt: "two"}},
		{JobID: "job-3", Mode: model.ModeTextToVideo, Params: request.Params{Prompt: "three"}},
	}

	results := f.pipe.RunBatch(context.Background(), items, task.OnErrorAbort)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Err == nil {
			t.Fatalf("result %d: expected error", i)
		}
	}
	if f.store.jobs["job-2"].Error != "batch aborted" || f.store.jobs["job-3"].Error != "batch aborted" {
		t.Fatalf("remaining jobs must be marked aborted: %+v %+v", f.store.jobs["job-2"], f.store.jobs["job-3"])
	}
}

func TestRunBatch_BuildFailureRecordsJob(t *testing.T) {
	f := newFixtures()
	f.store.jobs["job-1"] = &model.GenerationJob{ID: "job-1", Mode: model.ModeImage, Status: model.StatusSubmitted}
	items := []task.BatchItem{
		{JobID: "job-1", Mode: model.ModeImage, Params: request.Params{}},
	}

	results := f.pipe.RunBatch(context.Background(), items, task.OnErrorContinue)
	if results[0].Err == nil {
		t.Fatal("expected build error")
	}
	if f.store.jobs["job-1"].Status != model.StatusFailed {
		t.Fatalf("expected job marked failed, got %q", f.store.jobs["job-1"].Status)
	}
}

func TestRunItem_ExtendVideo_NoFetches(t *testing.T) {
	f := newFixtures()
	job := &model.GenerationJob{ID: "job-1", Mode: model.ModeExtendVideo}
	pl := mustBuild(t, model.ModeExtendVideo, request.Params{InputVideo: "files/abc123"})

	if _, err := f.pipe.RunItem(context.Background(), job, pl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Only the output gets fetched; the input stays a provider-side ref.
	if len(f.fetch.resolved) != 1 {
		t.Fatalf("expected only the output fetch, got %v", f.fetch.resolved)
	}
	if f.gen.submitted.Video != "files/abc123" {
		t.Fatalf("expected file ref on submission, got %q", f.gen.submitted.Video)
	}
}
