package request

import (
	"fmt"

	"github.com/vidsmith/genmedia-ms-go/internal/model"
)

// Blob is an inline binary input shipped with a provider payload.
type Blob struct {
	MimeType string
	Data     []byte
}

// Tool is an optional capability attached to a video request. Only the
// grounding (web search) tool exists today.
type Tool struct {
	GoogleSearch bool
}

// ProviderConfig is the config block of the abstracted provider payload.
type ProviderConfig struct {
	Resolution       string
	AspectRatio      string
	DurationSeconds  int
	PersonGeneration string
	NumberOfVideos   int
	LastFrame        *Blob
	ReferenceImages  []Blob
	Tools            []Tool
}

// VideoProviderPayload is what gets submitted for the long-running video
// modes. The provider client maps it onto the wire format.
type VideoProviderPayload struct {
	ModelID        string
	Prompt         string
	NegativePrompt string
	Image          *Blob  // start frame, when present
	Video          string // files/<id> for extend-video
	Config         ProviderConfig
}

// BuildVideoProviderPayload assembles the provider payload for a video
// payload variant. Every remote artifact referenced by the payload must
// already be resolved to bytes; this function performs no I/O.
func BuildVideoProviderPayload(pl Payload) (*VideoProviderPayload, error) {
	switch v := pl.(type) {
	case *TextToVideoPayload:
		out := base(v.Model, v.Prompt, v.NegativePrompt, v.Config)
		return out, nil
	case *FramesToVideoPayload:
		out := base(v.Model, v.Prompt, v.NegativePrompt, v.Config)
		img, err := blob(v.StartFrame)
		if err != nil {
			return nil, err
		}
		out.Image = img
		if v.LastFrame != nil {
			lf, err := blob(v.LastFrame)
			if err != nil {
				return nil, err
			}
			out.Config.LastFrame = lf
		}
		return out, nil
	case *ReferencesToVideoPayload:
		out := base(v.Model, v.Prompt, v.NegativePrompt, v.Config)
		for _, ref := range v.References {
			b, err := blob(ref)
			if err != nil {
				return nil, err
			}
			out.Config.ReferenceImages = append(out.Config.ReferenceImages, *b)
		}
		return out, nil
	case *ExtendVideoPayload:
		out := base(v.Model, v.Prompt, v.NegativePrompt, v.Config)
		out.Video = v.InputVideo
		return out, nil
	case *LivePhotoPayload:
		out := base(v.Model, v.Prompt, v.NegativePrompt, v.Config)
		img, err := blob(v.StartFrame)
		if err != nil {
			return nil, err
		}
		out.Image = img
		return out, nil
	}
	return nil, fmt.Errorf("payload %T does not submit through the video flow", pl)
}

func base(mdl, prompt, negative string, cfg VideoConfig) *VideoProviderPayload {
	out := &VideoProviderPayload{
		ModelID:        mdl,
		Prompt:         prompt,
		NegativePrompt: negative,
		Config: ProviderConfig{
			Resolution:       cfg.Resolution,
			AspectRatio:      cfg.AspectRatio,
			DurationSeconds:  cfg.DurationSeconds,
			PersonGeneration: cfg.PersonGeneration,
			NumberOfVideos:   cfg.NumberOfVideos,
		},
	}
	if cfg.EnableGrounding {
		out.Config.Tools = append(out.Config.Tools, Tool{GoogleSearch: true})
	}
	return out
}

func blob(a *model.MediaArtifact) (*Blob, error) {
	if !a.Resolved() {
		return nil, fmt.Errorf("artifact %q has not been fetched", a.URI)
	}
	return &Blob{MimeType: a.MimeType, Data: a.Data}, nil
}
