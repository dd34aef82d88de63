package request

import (
	"github.com/vidsmith/genmedia-ms-go/internal/model"
)

// Default model tiers used when the caller does not name one.
const (
	DefaultVideoModel  = "veo-3.0-generate-001"
	DefaultImageModel  = "imagen-3.0-generate-002"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"
)

// Params is the raw, mode-independent parameter bag supplied by the caller.
// Build turns it into the payload variant for the requested mode; fields that
// do not apply to the mode are ignored.
type Params struct {
	Model            string   `json:"model,omitempty"`
	Prompt           string   `json:"prompt,omitempty"`
	NegativePrompt   string   `json:"negative_prompt,omitempty"`
	Resolution       string   `json:"resolution,omitempty"`
	AspectRatio      string   `json:"aspect_ratio,omitempty"`
	DurationSeconds  int      `json:"duration_seconds,omitempty"`
	PersonGeneration string   `json:"person_generation,omitempty"`
	NumberOfVideos   int      `json:"number_of_videos,omitempty"`
	EnableGrounding  bool     `json:"enable_grounding,omitempty"`
	StripAudio       bool     `json:"strip_audio,omitempty"`
	StartFrame       string   `json:"start_frame,omitempty"`
	LastFrame        string   `json:"last_frame,omitempty"`
	ReferenceImages  []string `json:"reference_images,omitempty"`
	InputVideo       string   `json:"input_video,omitempty"`

	// speech only
	Text     string    `json:"text,omitempty"`
	Voice    VoiceSpec `json:"voice,omitzero"`
	Speakers []Speaker `json:"speakers,omitempty"`
}

// VoiceSpec selects a voice either by literal id or by randomized pick from a
// category pool (any, male, female).
type VoiceSpec struct {
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty" validate:"omitempty,oneof=any male female"`
}

// Speaker is one labelled turn owner in a multi-speaker speech request.
type Speaker struct {
	Label string    `json:"label" validate:"required"`
	Voice VoiceSpec `json:"voice,omitzero"`
}

// VideoConfig is the config block shared by the video payload variants.
// AspectRatio is left empty for extend-video; the allowed duration set
// depends on the resolution.
type VideoConfig struct {
	Resolution       string `json:"resolution" validate:"omitempty,oneof=720p 1080p"`
	AspectRatio      string `json:"aspect_ratio" validate:"omitempty,oneof=16:9 9:16"`
	DurationSeconds  int    `json:"duration_seconds"`
	PersonGeneration string `json:"person_generation,omitempty"`
	NumberOfVideos   int    `json:"number_of_videos,omitempty" validate:"omitempty,min=1,max=4"`
	EnableGrounding  bool   `json:"enable_grounding,omitempty"`
	// StripAudio asks for a silent remux of the output; stripping is a soft
	// preference and never fails the job.
	StripAudio bool `json:"strip_audio,omitempty"`
}

// Payload is the tagged union of mode payloads. Each variant carries only the
// fields valid for its mode.
type Payload interface {
	GenMode() model.Mode
}

type ImagePayload struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt" validate:"required"`
	AspectRatio string `json:"aspect_ratio,omitempty" validate:"omitempty,oneof=1:1 16:9 9:16 3:4 4:3"`
}

func (*ImagePayload) GenMode() model.Mode { return model.ModeImage }

type SpeechPayload struct {
	Model    string    `json:"model"`
	Text     string    `json:"text" validate:"required"`
	Voice    VoiceSpec `json:"voice,omitzero"`
	Speakers []Speaker `json:"speakers,omitempty" validate:"omitempty,min=2,dive"`
}

func (*SpeechPayload) GenMode() model.Mode { return model.ModeSpeech }

// MultiSpeaker reports whether the request assigns voices per speaker label.
func (p *SpeechPayload) MultiSpeaker() bool { return len(p.Speakers) > 0 }

type TextToVideoPayload struct {
	Model          string      `json:"model"`
	Prompt         string      `json:"prompt" validate:"required"`
	NegativePrompt string      `json:"negative_prompt,omitempty"`
	Config         VideoConfig `json:"config"`
}

func (*TextToVideoPayload) GenMode() model.Mode { return model.ModeTextToVideo }

type FramesToVideoPayload struct {
	Model          string               `json:"model"`
	Prompt         string               `json:"prompt,omitempty"`
	NegativePrompt string               `json:"negative_prompt,omitempty"`
	StartFrame     *model.MediaArtifact `json:"-"`
	LastFrame      *model.MediaArtifact `json:"-"`
	Config         VideoConfig          `json:"config"`
}

func (*FramesToVideoPayload) GenMode() model.Mode { return model.ModeFramesToVideo }

type ReferencesToVideoPayload struct {
	Model          string                 `json:"model"`
	Prompt         string                 `json:"prompt" validate:"required"`
	NegativePrompt string                 `json:"negative_prompt,omitempty"`
	References     []*model.MediaArtifact `json:"-"`
	Config         VideoConfig            `json:"config"`
}

func (*ReferencesToVideoPayload) GenMode() model.Mode { return model.ModeReferencesToVideo }

type ExtendVideoPayload struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	// InputVideo is normalized to the files/<id> form.
	InputVideo string      `json:"input_video"`
	Config     VideoConfig `json:"config"`
}

func (*ExtendVideoPayload) GenMode() model.Mode { return model.ModeExtendVideo }

type LivePhotoPayload struct {
	Model          string               `json:"model"`
	Prompt         string               `json:"prompt,omitempty"`
	NegativePrompt string               `json:"negative_prompt,omitempty"`
	StartFrame     *model.MediaArtifact `json:"-"`
	Config         VideoConfig          `json:"config"`
}

func (*LivePhotoPayload) GenMode() model.Mode { return model.ModeLivePhoto }
