package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/vidsmith/genmedia-ms-go/internal/generation"
	"github.com/vidsmith/genmedia-ms-go/internal/model"
	"github.com/vidsmith/genmedia-ms-go/internal/request"
	"github.com/vidsmith/genmedia-ms-go/internal/speech"
)

// DefaultBaseURL is the provider's REST endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client drives the generative API over plain HTTP/JSON.
type Client struct {
	http    httpDoer
	baseURL string
	apiKey  string
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// --- wire shapes ---

type videoInstance struct {
	Prompt          string          `json:"prompt,omitempty"`
	Image           *inlineBlob     `json:"image,omitempty"`
	LastFrame       *inlineBlob     `json:"lastFrame,omitempty"`
	ReferenceImages []referenceBlob `json:"referenceImages,omitempty"`
	Video           *videoSource    `json:"video,omitempty"`
}

type inlineBlob struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType,omitempty"`
}

type referenceBlob struct {
	Image         inlineBlob `json:"image"`
	ReferenceType string     `json:"referenceType,omitempty"`
}

type videoSource struct {
	FileURI string `json:"fileUri"`
}

type videoParameters struct {
	NegativePrompt   string     `json:"negativePrompt,omitempty"`
	AspectRatio      string     `json:"aspectRatio,omitempty"`
	Resolution       string     `json:"resolution,omitempty"`
	DurationSeconds  int        `json:"durationSeconds,omitempty"`
	PersonGeneration string     `json:"personGeneration,omitempty"`
	NumberOfVideos   int        `json:"numberOfVideos,omitempty"`
	Tools            []toolWire `json:"tools,omitempty"`
}

type toolWire struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type predictRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// SubmitVideo starts a long-running video generation and returns the opaque
// operation name as the job handle. A job accepted by the provider cannot be
// aborted; only the polling deadline bounds it.
func (c *Client) SubmitVideo(ctx context.Context, p *request.VideoProviderPayload) (string, error) {
	inst := videoInstance{Prompt: p.Prompt}
	if p.Image != nil {
		inst.Image = toInline(p.Image)
	}
	if p.Config.LastFrame != nil {
		inst.LastFrame = toInline(p.Config.LastFrame)
	}
	for _, ref := range p.Config.ReferenceImages {
		inst.ReferenceImages = append(inst.ReferenceImages, referenceBlob{
			Image:         *toInline(&ref),
			ReferenceType: "style",
		})
	}
	if p.Video != "" {
		inst.Video = &videoSource{FileURI: p.Video}
	}

	body := predictRequest{
		Instances: []videoInstance{inst},
		Parameters: videoParameters{
			NegativePrompt:   p.NegativePrompt,
			AspectRatio:      p.Config.AspectRatio,
			Resolution:       p.Config.Resolution,
			DurationSeconds:  p.Config.DurationSeconds,
			PersonGeneration: p.Config.PersonGeneration,
			NumberOfVideos:   p.Config.NumberOfVideos,
		},
	}
	for _, t := range p.Config.Tools {
		if t.GoogleSearch {
			body.Parameters.Tools = append(body.Parameters.Tools, toolWire{GoogleSearch: &struct{}{}})
		}
	}

	var op Operation
	url := fmt.Sprintf("%s/models/%s:predictLongRunning", c.baseURL, p.ModelID)
	if err := c.postJSON(ctx, url, body, &op); err != nil {
		return "", err
	}
	if op.Name == "" {
		return "", &generation.ProviderError{Detail: "submit returned no operation handle"}
	}
	log.Printf("submitted video job, operation %q...", op.Name)
	return op.Name, nil
}

// PollOperation refreshes the state of a previously submitted job.
func (c *Client) PollOperation(ctx context.Context, name string) (*Operation, error) {
	var op Operation
	url := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimPrefix(name, "/"))
	if err := c.getJSON(ctx, url, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

type imagePredictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// GenerateImage runs the synchronous image endpoint and returns a resolved
// artifact. Image generation has no long-running operation to poll.
func (c *Client) GenerateImage(ctx context.Context, p *request.ImagePayload) (*model.MediaArtifact, error) {
	body := map[string]any{
		"instances": []map[string]any{{"prompt": p.Prompt}},
		"parameters": map[string]any{
			"sampleCount": 1,
		},
	}
	if p.AspectRatio != "" {
		body["parameters"].(map[string]any)["aspectRatio"] = p.AspectRatio
	}

	var resp imagePredictResponse
	url := fmt.Sprintf("%s/models/%s:predict", c.baseURL, p.Model)
	if err := c.postJSON(ctx, url, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Predictions) == 0 || resp.Predictions[0].BytesBase64Encoded == "" {
		return nil, &generation.ProviderError{Detail: "no usable output"}
	}

	data, err := base64.StdEncoding.DecodeString(resp.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, &generation.ProviderError{Detail: "image payload is not valid base64"}
	}
	mime := resp.Predictions[0].MimeType
	if mime == "" {
		mime = "image/png"
	}
	return &model.MediaArtifact{Data: data, MimeType: mime, Role: model.RoleOutputResult}, nil
}

// --- speech streaming ---

type speechContent struct {
	Parts []speechPart `json:"parts"`
}

type speechPart struct {
	Text string `json:"text,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig struct {
		VoiceName string `json:"voiceName"`
	} `json:"prebuiltVoiceConfig"`
}

type speakerVoiceConfig struct {
	Speaker     string      `json:"speaker"`
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type multiSpeakerWire struct {
	SpeakerVoiceConfigs []speakerVoiceConfig `json:"speakerVoiceConfigs"`
}

type speechConfigWire struct {
	VoiceConfig             *voiceConfig      `json:"voiceConfig,omitempty"`
	MultiSpeakerVoiceConfig *multiSpeakerWire `json:"multiSpeakerVoiceConfig,omitempty"`
}

type streamChunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// StreamSpeech synthesizes speech over the streaming endpoint and returns the
// fragments in arrival order. Voice selection must already be resolved to
// concrete voice ids.
func (c *Client) StreamSpeech(ctx context.Context, req SpeechRequest) ([]speech.Fragment, error) {
	cfg := speechConfigWire{}
	if len(req.Speakers) > 0 {
		ms := &multiSpeakerWire{}
		for _, s := range req.Speakers {
			svc := speakerVoiceConfig{Speaker: s.Speaker}
			svc.VoiceConfig.PrebuiltVoiceConfig.VoiceName = s.VoiceName
			ms.SpeakerVoiceConfigs = append(ms.SpeakerVoiceConfigs, svc)
		}
		cfg.MultiSpeakerVoiceConfig = ms
	} else {
		vc := &voiceConfig{}
		vc.PrebuiltVoiceConfig.VoiceName = req.VoiceName
		cfg.VoiceConfig = vc
	}

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []speechPart{{Text: req.Text}}},
		},
		"generationConfig": map[string]any{
			"responseModalities": []string{"AUDIO"},
			"speechConfig":       cfg,
		},
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, req.Model)
	resp, err := c.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var fragments []speech.Fragment
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == "" || payload == "[DONE]" {
			continue
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return nil, &generation.ProviderError{Detail: "malformed stream chunk: " + err.Error()}
		}
		for _, cand := range chunk.Candidates {
			for _, part := range cand.Content.Parts {
				if part.InlineData == nil {
					continue
				}
				fragments = append(fragments, speech.Fragment{
					MimeType: part.InlineData.MimeType,
					Data:     part.InlineData.Data,
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading speech stream: %w", err)
	}
	return fragments, nil
}

// --- plumbing ---

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	resp, err := c.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) do(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		var ae apiError
		detail := string(raw)
		if json.Unmarshal(raw, &ae) == nil && ae.Error.Message != "" {
			detail = ae.Error.Message
		}
		return nil, &generation.ProviderError{
			Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, detail),
		}
	}
	return resp, nil
}

func toInline(b *request.Blob) *inlineBlob {
	return &inlineBlob{
		BytesBase64Encoded: base64.StdEncoding.EncodeToString(b.Data),
		MimeType:           b.MimeType,
	}
}
