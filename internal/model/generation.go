package model

import (
	"time"
)

// Mode identifies one generation mode. Each mode carries its own payload
// variant; see the request package.
type Mode string

const (
	ModeImage             Mode = "image"
	ModeSpeech            Mode = "speech"
	ModeTextToVideo       Mode = "text-to-video"
	ModeFramesToVideo     Mode = "frames-to-video"
	ModeReferencesToVideo Mode = "references-to-video"
	ModeExtendVideo       Mode = "extend-video"
	ModeLivePhoto         Mode = "live-photo"
)

// IsVideo reports whether the mode produces a video artifact through the
// long-running operation flow.
func (m Mode) IsVideo() bool {
	switch m {
	case ModeTextToVideo, ModeFramesToVideo, ModeReferencesToVideo, ModeExtendVideo, ModeLivePhoto:
		return true
	}
	return false
}

// IsValid reports whether m is one of the known generation modes.
func (m Mode) IsValid() bool {
	return m == ModeImage || m == ModeSpeech || m.IsVideo()
}

// JobStatus is the lifecycle state of a generation job. A job transitions
// exactly once from StatusPolling to one of the terminal states.
type JobStatus string

const (
	StatusSubmitted JobStatus = "submitted"
	StatusPolling   JobStatus = "polling"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusTimedOut  JobStatus = "timed_out"
)

// IsTerminal reports whether the status is final.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusTimedOut
}

// GenerationJob tracks one submitted generation request until it reaches a
// terminal state. Deadline is computed once at submission and never changes.
type GenerationJob struct {
	ID        string    `json:"id"`
	Mode      Mode      `json:"mode"`
	Handle    string    `json:"handle,omitempty"`
	Status    JobStatus `json:"status"`
	Deadline  time.Time `json:"deadline,omitzero"`
	ResultURL string    `json:"result_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArtifactRole says what an artifact is for within a single job.
type ArtifactRole string

const (
	RoleInputReference ArtifactRole = "input_reference"
	RoleStyleReference ArtifactRole = "style_reference"
	RoleOutputResult   ArtifactRole = "output_result"
)

// MediaArtifact is either a remote reference awaiting fetch (URI set, Data
// nil) or resolved bytes with their MIME type. Input references are fetched
// once per job submission and never reused.
type MediaArtifact struct {
	URI      string
	Data     []byte
	MimeType string
	Role     ArtifactRole
}

// Resolved reports whether the artifact bytes have been fetched.
func (a *MediaArtifact) Resolved() bool {
	return a != nil && a.Data != nil
}

// UploadResult describes a hosted artifact after a successful upload.
type UploadResult struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	Bucket   string `json:"bucket"`
	MimeType string `json:"mime_type"`
}
