// Package speech assembles streamed synthesis fragments into one playback-
// ready audio buffer.
package speech

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultSampleRate = 24000
	bitsPerSample     = 16
	channels          = 1
)

// Fragment is one streamed chunk as it arrives: base64-encoded PCM plus the
// provider's MIME string (e.g. "audio/L16;codec=pcm;rate=24000").
type Fragment struct {
	MimeType string
	Data     string
}

// Assemble decodes each fragment and appends it strictly in arrival order,
// then wraps the concatenated PCM in a WAV container. An empty or partial
// stream yields an empty buffer and no error; callers decide whether that is
// acceptable.
func Assemble(fragments []Fragment) ([]byte, string, error) {
	var pcm bytes.Buffer
	rate := defaultSampleRate

	for i, f := range fragments {
		if f.Data == "" {
			continue
		}
		chunk, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			return nil, "", fmt.Errorf("decode audio fragment %d: %w", i, err)
		}
		if r := sampleRate(f.MimeType); r > 0 {
			rate = r
		}
		pcm.Write(chunk)
	}

	if pcm.Len() == 0 {
		return []byte{}, "audio/wav", nil
	}
	return wrapWAV(pcm.Bytes(), rate, bitsPerSample, channels), "audio/wav", nil
}

// sampleRate pulls the rate parameter out of a MIME string like
// "audio/L16;codec=pcm;rate=24000". Returns 0 when absent.
func sampleRate(mime string) int {
	for _, part := range strings.Split(mime, ";") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, "rate="); ok {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return 0
}
