// Package ffmpeg runs the external transcoding tool over temp files for the
// two fixed transforms the pipeline needs: audio stripping and the
// live-photo freeze-frame effect.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Runner abstracts subprocess execution so the transforms can be tested
// without the tool installed.
type Runner interface {
	Run(ctx context.Context, bin string, args ...string) error
}

type execRunner struct {
	timeout time.Duration
}

// NewRunner returns a Runner that executes the tool with a hard timeout per
// invocation. A subprocess cannot be cancelled except by this timeout or the
// caller's context.
func NewRunner(timeout time.Duration) Runner {
	return &execRunner{timeout: timeout}
}

func (r *execRunner) Run(ctx context.Context, bin string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s timed out after %s", bin, r.timeout)
		}
		return fmt.Errorf("%s failed: %w: %s", bin, err, tail(stderr.Bytes(), 512))
	}
	return nil
}

// tail keeps the last n bytes of tool output, which is where the tool puts
// the actual error.
func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
