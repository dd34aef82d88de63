package provider

import (
	"net/url"

	"github.com/vidsmith/genmedia-ms-go/internal/generation"
	"github.com/vidsmith/genmedia-ms-go/internal/model"
)

// ExtractArtifact inspects a terminal operation and returns the primary
// output artifact reference. Checks run in strict order: missing response,
// explicit provider error, content-safety rejection, then sample extraction.
// Only the first sample is kept; additional samples are discarded on purpose
// (one hosted artifact per job).
func ExtractArtifact(op *Operation) (*model.MediaArtifact, error) {
	if op == nil {
		return nil, &generation.ProviderError{Detail: "no response from provider"}
	}
	if op.Error != nil {
		return nil, &generation.ProviderError{Detail: op.Error.Message}
	}
	if op.Response == nil {
		return nil, &generation.ProviderError{Detail: "no response from provider"}
	}

	count, reasons := filtered(op.Response)
	if count > 0 {
		return nil, &generation.SafetyFilterError{Reasons: reasons}
	}

	samples := op.Response.GeneratedVideos
	if op.Response.GenerateVideoResponse != nil {
		samples = op.Response.GenerateVideoResponse.GeneratedSamples
	}
	if len(samples) == 0 || samples[0].Video == nil || samples[0].Video.URI == "" {
		return nil, &generation.ProviderError{Detail: "no usable output"}
	}

	uri := samples[0].Video.URI
	if decoded, err := url.PathUnescape(uri); err == nil {
		uri = decoded
	}
	return &model.MediaArtifact{URI: uri, Role: model.RoleOutputResult}, nil
}

func filtered(resp *OpResponse) (int, []string) {
	if vr := resp.GenerateVideoResponse; vr != nil && vr.RaiMediaFilteredCount > 0 {
		return vr.RaiMediaFilteredCount, vr.RaiMediaFilteredReasons
	}
	return resp.RaiMediaFilteredCount, resp.RaiMediaFilteredReasons
}
