// Package provider talks to the generative-media API: submitting
// long-running video jobs, polling their operations, synchronous image
// generation and streamed speech synthesis.
package provider

// Operation is a long-running operation as returned by the provider. Done
// with neither Error nor Response set is treated as a missing response.
type Operation struct {
	Name     string      `json:"name"`
	Done     bool        `json:"done"`
	Error    *OpError    `json:"error,omitempty"`
	Response *OpResponse `json:"response,omitempty"`
	Metadata *OpMetadata `json:"metadata,omitempty"`
}

// OpError is the provider's explicit terminal error object.
type OpError struct {
	Code    int    `json:"code,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// OpMetadata carries progress hints; it is informational only.
type OpMetadata struct {
	State string `json:"state,omitempty"`
}

// OpResponse holds the terminal payload. The provider has shipped two shapes
// for the sample collection over time; both are decoded and the older
// generateVideoResponse wrapper wins when both are present. Neither shape is
// assumed deprecated — this is API version skew, not a migration.
type OpResponse struct {
	GenerateVideoResponse *VideoResponse    `json:"generateVideoResponse,omitempty"`
	GeneratedVideos       []GeneratedSample `json:"generatedVideos,omitempty"`

	RaiMediaFilteredCount   int      `json:"raiMediaFilteredCount,omitempty"`
	RaiMediaFilteredReasons []string `json:"raiMediaFilteredReasons,omitempty"`
}

// VideoResponse is the older response wrapper.
type VideoResponse struct {
	GeneratedSamples        []GeneratedSample `json:"generatedSamples,omitempty"`
	RaiMediaFilteredCount   int               `json:"raiMediaFilteredCount,omitempty"`
	RaiMediaFilteredReasons []string          `json:"raiMediaFilteredReasons,omitempty"`
}

// GeneratedSample is one generated video sample.
type GeneratedSample struct {
	Video *VideoArtifact `json:"video,omitempty"`
}

// VideoArtifact points at the produced media.
type VideoArtifact struct {
	URI string `json:"uri,omitempty"`
}

// SpeakerVoice binds a speaker label to a concrete voice id for one request.
type SpeakerVoice struct {
	Speaker   string
	VoiceName string
}

// SpeechRequest is a fully resolved speech synthesis request: voice
// randomization has already happened by the time it reaches the client.
type SpeechRequest struct {
	Model     string
	Text      string
	VoiceName string
	Speakers  []SpeakerVoice
}
