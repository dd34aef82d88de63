package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/vidsmith/genmedia-ms-go/internal/generation"
	"github.com/vidsmith/genmedia-ms-go/internal/model"
)

func wantFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *generation.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != field {
		t.Fatalf("expected field %q, got %q (%v)", field, verr.Field, err)
	}
}

func TestBuild_UnknownMode(t *testing.T) {
	_, err := Build("dream", Params{})
	wantFieldError(t, err, "mode")
}

func TestBuild_Image_Defaults(t *testing.T) {
	pl, err := Build(model.ModeImage, Params{Prompt: "a lighthouse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img := pl.(*ImagePayload)
	if img.Model != DefaultImageModel {
		t.Fatalf("expected default model, got %q", img.Model)
	}
}

func TestBuild_Image_PromptRequired(t *testing.T) {
	_, err := Build(model.ModeImage, Params{})
	wantFieldError(t, err, "prompt")
}

func TestBuild_Speech_TextRequired(t *testing.T) {
	_, err := Build(model.ModeSpeech, Params{})
	wantFieldError(t, err, "text")
}

func TestBuild_Speech_SingleSpeakerRejected(t *testing.T) {
	_, err := Build(model.ModeSpeech, Params{
		Text:     "hello",
		Speakers: []Speaker{{Label: "host"}},
	})
	wantFieldError(t, err, "speakers")
}

func TestBuild_TextToVideo_Defaults(t *testing.T) {
	pl, err := Build(model.ModeTextToVideo, Params{Prompt: "a storm at sea"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := pl.(*TextToVideoPayload)
	if v.Model != DefaultVideoModel {
		t.Fatalf("expected default model, got %q", v.Model)
	}
	if v.Config.Resolution != "720p" || v.Config.AspectRatio != "16:9" || v.Config.DurationSeconds != 8 {
		t.Fatalf("unexpected config defaults: %+v", v.Config)
	}
}

func TestBuild_TextToVideo_PromptRequired(t *testing.T) {
	_, err := Build(model.ModeTextToVideo, Params{})
	wantFieldError(t, err, "prompt")
}

func TestBuild_DurationMatrix(t *testing.T) {
	cases := []struct {
		resolution string
		duration   int
		ok         bool
	}{
		{"720p", 4, true},
		{"720p", 6, true},
		{"720p", 8, true},
		{"720p", 5, false},
		{"1080p", 8, true},
		{"1080p", 4, false},
		{"1080p", 6, false},
	}
	for _, tc := range cases {
		_, err := Build(model.ModeTextToVideo, Params{
			Prompt:          "x",
			Resolution:      tc.resolution,
			DurationSeconds: tc.duration,
		})
		if tc.ok && err != nil {
			t.Fatalf("%s/%ds: unexpected error: %v", tc.resolution, tc.duration, err)
		}
		if !tc.ok {
			wantFieldError(t, err, "duration_seconds")
		}
	}
}

func TestBuild_InvalidResolution(t *testing.T) {
	_, err := Build(model.ModeTextToVideo, Params{Prompt: "x", Resolution: "480p"})
	wantFieldError(t, err, "resolution")
}

func TestBuild_GroundingDroppedOnUnsupportedModel(t *testing.T) {
	pl, err := Build(model.ModeTextToVideo, Params{
		Prompt:          "x",
		Model:           "veo-2.0-generate-001",
		EnableGrounding: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pl.(*TextToVideoPayload).Config.EnableGrounding {
		t.Fatal("expected grounding to be dropped for a veo-2 model")
	}
}

func TestBuild_GroundingKeptOnVeo3(t *testing.T) {
	pl, err := Build(model.ModeTextToVideo, Params{Prompt: "x", EnableGrounding: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pl.(*TextToVideoPayload).Config.EnableGrounding {
		t.Fatal("expected grounding to be kept for the default veo-3 model")
	}
}

func TestBuild_FramesToVideo_StartFrameRequired(t *testing.T) {
	_, err := Build(model.ModeFramesToVideo, Params{Prompt: "x"})
	wantFieldError(t, err, "start_frame")
}

func TestBuild_FramesToVideo_Roles(t *testing.T) {
	pl, err := Build(model.ModeFramesToVideo, Params{
		StartFrame: "https://cdn.example/start.png",
		LastFrame:  "https://cdn.example/end.png",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := pl.(*FramesToVideoPayload)
	if v.StartFrame.Role != model.RoleInputReference {
		t.Fatalf("expected input-reference role, got %q", v.StartFrame.Role)
	}
	if v.LastFrame == nil || v.LastFrame.URI != "https://cdn.example/end.png" {
		t.Fatalf("unexpected last frame: %+v", v.LastFrame)
	}
}

func TestBuild_ReferencesToVideo_RequiresReferences(t *testing.T) {
	_, err := Build(model.ModeReferencesToVideo, Params{Prompt: "x"})
	wantFieldError(t, err, "reference_images")
}

func TestBuild_ReferencesToVideo_StyleRole(t *testing.T) {
	pl, err := Build(model.ModeReferencesToVideo, Params{
		Prompt:          "x",
		ReferenceImages: []string{"https://cdn.example/a.png", "https://cdn.example/b.png"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := pl.(*ReferencesToVideoPayload)
	if len(v.References) != 2 {
		t.Fatalf("expected 2 references, got %d", len(v.References))
	}
	for _, ref := range v.References {
		if ref.Role != model.RoleStyleReference {
			t.Fatalf("expected style-reference role, got %q", ref.Role)
		}
	}
}

func TestBuild_ExtendVideo_InputRequired(t *testing.T) {
	_, err := Build(model.ModeExtendVideo, Params{})
	wantFieldError(t, err, "input_video")
}

func TestBuild_ExtendVideo_RejectsForeignURL(t *testing.T) {
	_, err := Build(model.ModeExtendVideo, Params{InputVideo: "http://evil.example/x"})
	wantFieldError(t, err, "input_video")
}

func TestBuild_ExtendVideo_NormalizesAndDropsAspect(t *testing.T) {
	pl, err := Build(model.ModeExtendVideo, Params{InputVideo: "abc123", AspectRatio: "9:16"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := pl.(*ExtendVideoPayload)
	if v.InputVideo != "files/abc123" {
		t.Fatalf("expected normalized ref, got %q", v.InputVideo)
	}
	if v.Config.AspectRatio != "" {
		t.Fatalf("expected no aspect ratio for extend-video, got %q", v.Config.AspectRatio)
	}
}

func TestBuild_LivePhoto_MinimumDuration(t *testing.T) {
	_, err := Build(model.ModeLivePhoto, Params{
		StartFrame:      "https://cdn.example/photo.png",
		DurationSeconds: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = Build(model.ModeLivePhoto, Params{
		StartFrame:      "https://cdn.example/photo.png",
		Resolution:      "720p",
		DurationSeconds: 6,
	})
	if err != nil {
		t.Fatalf("unexpected error at 6s: %v", err)
	}
}

func TestBuild_LivePhoto_StartFrameRequired(t *testing.T) {
	_, err := Build(model.ModeLivePhoto, Params{})
	wantFieldError(t, err, "start_frame")
}

func TestSupportsGrounding(t *testing.T) {
	if !SupportsGrounding("veo-3.0-generate-001") {
		t.Fatal("expected veo-3 tier to support grounding")
	}
	if SupportsGrounding("veo-2.0-generate-001") {
		t.Fatal("expected veo-2 tier not to support grounding")
	}
}

func TestValidationError_NamesField(t *testing.T) {
	_, err := Build(model.ModeImage, Params{})
	if err == nil || !strings.Contains(err.Error(), `"prompt"`) {
		t.Fatalf("expected error naming the field, got %v", err)
	}
}
