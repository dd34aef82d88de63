package request

import (
	"strings"

	"github.com/vidsmith/genmedia-ms-go/internal/generation"
	"github.com/vidsmith/genmedia-ms-go/internal/model"
	"github.com/vidsmith/genmedia-ms-go/internal/validation"
)

// Durations accepted per resolution, in seconds.
var allowedDurations = map[string][]int{
	"720p":  {4, 6, 8},
	"1080p": {8},
}

const (
	defaultResolution = "720p"
	defaultAspect     = "16:9"
	defaultDuration   = 8
)

// SupportsGrounding reports whether the model tier can attach the grounding
// tool. Only the veo-3 tier exposes it.
func SupportsGrounding(mdl string) bool {
	return strings.HasPrefix(mdl, "veo-3")
}

// Build validates the raw parameters for the given mode and returns the
// payload variant for it. It is a pure transform: no I/O, no clock, no
// randomness. All failures are ValidationErrors naming the offending field.
func Build(mode model.Mode, p Params) (Payload, error) {
	if !mode.IsValid() {
		return nil, generation.NewValidationError("mode", "is not a known generation mode")
	}

	switch mode {
	case model.ModeImage:
		return buildImage(p)
	case model.ModeSpeech:
		return buildSpeech(p)
	case model.ModeTextToVideo:
		pl := &TextToVideoPayload{
			Model:          orDefault(p.Model, DefaultVideoModel),
			Prompt:         p.Prompt,
			NegativePrompt: p.NegativePrompt,
			Config:         videoConfig(p, true),
		}
		return finishVideo(pl, pl.Model, &pl.Config)
	case model.ModeFramesToVideo:
		if strings.TrimSpace(p.StartFrame) == "" {
			return nil, generation.NewValidationError("start_frame", "is required for frames-to-video")
		}
		pl := &FramesToVideoPayload{
			Model:          orDefault(p.Model, DefaultVideoModel),
			Prompt:         p.Prompt,
			NegativePrompt: p.NegativePrompt,
			StartFrame:     inputRef(p.StartFrame),
			Config:         videoConfig(p, true),
		}
		if p.LastFrame != "" {
			pl.LastFrame = inputRef(p.LastFrame)
		}
		return finishVideo(pl, pl.Model, &pl.Config)
	case model.ModeReferencesToVideo:
		if len(p.ReferenceImages) == 0 {
			return nil, generation.NewValidationError("reference_images", "must contain at least one reference image")
		}
		pl := &ReferencesToVideoPayload{
			Model:          orDefault(p.Model, DefaultVideoModel),
			Prompt:         p.Prompt,
			NegativePrompt: p.NegativePrompt,
			Config:         videoConfig(p, true),
		}
		for _, uri := range p.ReferenceImages {
			ref := inputRef(uri)
			ref.Role = model.RoleStyleReference
			pl.References = append(pl.References, ref)
		}
		return finishVideo(pl, pl.Model, &pl.Config)
	case model.ModeExtendVideo:
		if strings.TrimSpace(p.InputVideo) == "" {
			return nil, generation.NewValidationError("input_video", "is required for extend-video")
		}
		ref, err := NormalizeVideoRef(p.InputVideo)
		if err != nil {
			return nil, generation.NewValidationError("input_video", err.Error())
		}
		pl := &ExtendVideoPayload{
			Model:          orDefault(p.Model, DefaultVideoModel),
			Prompt:         p.Prompt,
			NegativePrompt: p.NegativePrompt,
			InputVideo:     ref,
			// extend keeps the source framing: no aspect ratio.
			Config: videoConfig(p, false),
		}
		return finishVideo(pl, pl.Model, &pl.Config)
	case model.ModeLivePhoto:
		if strings.TrimSpace(p.StartFrame) == "" {
			return nil, generation.NewValidationError("start_frame", "is required for live-photo")
		}
		pl := &LivePhotoPayload{
			Model:          orDefault(p.Model, DefaultVideoModel),
			Prompt:         p.Prompt,
			NegativePrompt: p.NegativePrompt,
			StartFrame:     inputRef(p.StartFrame),
			Config:         videoConfig(p, true),
		}
		// The effect holds the frame at the 3s mark, so the source must
		// cover at least 4 seconds.
		if pl.Config.DurationSeconds < 4 {
			return nil, generation.NewValidationError("duration_seconds", "must be at least 4 for live-photo")
		}
		return finishVideo(pl, pl.Model, &pl.Config)
	}
	return nil, generation.NewValidationError("mode", "is not a known generation mode")
}

func buildImage(p Params) (Payload, error) {
	pl := &ImagePayload{
		Model:       orDefault(p.Model, DefaultImageModel),
		Prompt:      p.Prompt,
		AspectRatio: p.AspectRatio,
	}
	if err := validation.ValidateStruct(pl); err != nil {
		return nil, toValidationError(err)
	}
	return pl, nil
}

func buildSpeech(p Params) (Payload, error) {
	pl := &SpeechPayload{
		Model:    orDefault(p.Model, DefaultSpeechModel),
		Text:     p.Text,
		Voice:    p.Voice,
		Speakers: p.Speakers,
	}
	if err := validation.ValidateStruct(pl); err != nil {
		return nil, toValidationError(err)
	}
	return pl, nil
}

func videoConfig(p Params, withAspect bool) VideoConfig {
	cfg := VideoConfig{
		Resolution:       orDefault(p.Resolution, defaultResolution),
		DurationSeconds:  p.DurationSeconds,
		PersonGeneration: p.PersonGeneration,
		NumberOfVideos:   p.NumberOfVideos,
		EnableGrounding:  p.EnableGrounding,
		StripAudio:       p.StripAudio,
	}
	if cfg.DurationSeconds == 0 {
		cfg.DurationSeconds = defaultDuration
	}
	if withAspect {
		cfg.AspectRatio = orDefault(p.AspectRatio, defaultAspect)
	}
	return cfg
}

// finishVideo runs the shared validation for video payloads: struct tags,
// the duration × resolution matrix, and grounding eligibility.
func finishVideo(pl Payload, mdl string, cfg *VideoConfig) (Payload, error) {
	if err := validation.ValidateStruct(pl); err != nil {
		return nil, toValidationError(err)
	}
	if !durationAllowed(cfg.Resolution, cfg.DurationSeconds) {
		return nil, generation.NewValidationError("duration_seconds",
			"is not supported at resolution "+cfg.Resolution)
	}
	// A grounding request on a tier that cannot ground is silently dropped
	// rather than rejected; the tool is attached only when both sides agree.
	if cfg.EnableGrounding && !SupportsGrounding(mdl) {
		cfg.EnableGrounding = false
	}
	return pl, nil
}

func durationAllowed(resolution string, seconds int) bool {
	for _, d := range allowedDurations[resolution] {
		if d == seconds {
			return true
		}
	}
	return false
}

func inputRef(uri string) *model.MediaArtifact {
	return &model.MediaArtifact{URI: uri, Role: model.RoleInputReference}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func toValidationError(err error) error {
	field, rule := validation.FirstFieldError(err)
	if field == "" {
		return generation.NewValidationError("params", err.Error())
	}
	reason := "is required"
	if rule != "required" {
		reason = "failed rule " + rule
	}
	return generation.NewValidationError(field, reason)
}
