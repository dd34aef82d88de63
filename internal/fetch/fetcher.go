// Package fetch downloads remote media artifacts and normalizes them to a
// single byte buffer with a MIME type.
package fetch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vidsmith/genmedia-ms-go/internal/model"
)

const maxDownloadBytes = 512 * 1024 * 1024

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher resolves MediaArtifact references to bytes. For generated outputs
// the provider requires the caller's credential as a query parameter; input
// references are fetched plain. Nothing is cached: input bytes are fetched
// once per job submission and never reused across submissions.
type Fetcher struct {
	http   httpDoer
	apiKey string
}

func New(apiKey string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		http:   &http.Client{Timeout: timeout},
		apiKey: apiKey,
	}
}

// Resolve downloads the artifact's URI and fills Data and MimeType in place.
// Output artifacts get the credential query parameter attached.
func (f *Fetcher) Resolve(ctx context.Context, a *model.MediaArtifact) error {
	if a.Resolved() {
		return fmt.Errorf("artifact %q is already resolved", a.URI)
	}
	uri := a.URI
	if a.Role == model.RoleOutputResult {
		var err error
		uri, err = withKey(uri, f.apiKey)
		if err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("download %q: %w", a.URI, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %q: unexpected status %d", a.URI, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return fmt.Errorf("read download body: %w", err)
	}

	data, mime := normalize(raw, resp.Header.Get("Content-Type"))
	a.Data = data
	a.MimeType = mime
	return nil
}

// normalize folds the transport's body representations into one buffer. The
// provider returns either raw binary, a bare base64 text body, or a small
// JSON envelope with base64 inside; all collapse to plain bytes.
func normalize(raw []byte, contentType string) ([]byte, string) {
	mime := contentType
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}

	switch {
	case strings.HasPrefix(mime, "application/json"), mime == "text/json":
		var env struct {
			Data               string `json:"data"`
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
			MimeType           string `json:"mimeType"`
		}
		if err := json.Unmarshal(raw, &env); err == nil {
			b64 := env.Data
			if b64 == "" {
				b64 = env.BytesBase64Encoded
			}
			if decoded, err := base64.StdEncoding.DecodeString(b64); err == nil && len(decoded) > 0 {
				if env.MimeType != "" {
					return decoded, env.MimeType
				}
				return decoded, "application/octet-stream"
			}
		}
	case strings.HasPrefix(mime, "text/plain"):
		trimmed := strings.TrimSpace(string(raw))
		if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil && len(decoded) > 0 {
			return decoded, "application/octet-stream"
		}
	}

	if mime == "" {
		mime = "application/octet-stream"
	}
	return raw, mime
}

func withKey(uri, key string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse artifact URI %q: %w", uri, err)
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
