package ffmpeg

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/vidsmith/genmedia-ms-go/internal/generation"
)

// Fixed output settings for the live-photo compose.
const (
	liveFrameRate = 24
	liveCRF       = "23"
	holdAtSeconds = 3
	outSeconds    = 4
)

// Resolutions implied by the supported target aspect ratios.
var aspectResolutions = map[string][2]int{
	"16:9": {1280, 720},
	"9:16": {720, 1280},
	"1:1":  {960, 960},
}

// Processor invokes the transcoding tool against temp files. Temp files are
// exclusively owned by the invocation that created them and removed on every
// exit path; removal failures are swallowed.
type Processor struct {
	bin    string
	runner Runner

	probeOnce sync.Once
	probeErr  error
}

func NewProcessor(bin string, runner Runner) *Processor {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Processor{bin: bin, runner: runner}
}

// Probe checks tool availability exactly once per process. It must be called
// before any network work begins for a mode that has no degradation path.
func (p *Processor) Probe(ctx context.Context) error {
	p.probeOnce.Do(func() {
		if err := p.runner.Run(ctx, p.bin, "-version"); err != nil {
			p.probeErr = &generation.ToolUnavailableError{Tool: p.bin, Err: err}
		}
	})
	return p.probeErr
}

// StripAudio remuxes the video dropping the audio stream, copying the video
// stream without re-encoding. Failure is non-fatal: the original bytes come
// back unchanged with ok=false, since a silent video is a preference rather
// than a correctness requirement.
func (p *Processor) StripAudio(ctx context.Context, data []byte) (out []byte, ok bool) {
	in, cleanupIn, err := tempInput(data)
	if err != nil {
		log.Printf("strip-audio: %v", err)
		return data, false
	}
	defer cleanupIn()

	outPath, cleanupOut, err := tempOutput()
	if err != nil {
		log.Printf("strip-audio: %v", err)
		return data, false
	}
	defer cleanupOut()

	args := []string{
		"-y",
		"-i", in,
		"-c:v", "copy",
		"-an",
		outPath,
	}
	if err := p.runner.Run(ctx, p.bin, args...); err != nil {
		log.Printf("strip-audio failed, keeping original: %v", err)
		return data, false
	}

	result, err := os.ReadFile(outPath)
	if err != nil || len(result) == 0 {
		log.Printf("strip-audio: could not read output: %v", err)
		return data, false
	}
	return result, true
}

// ComposeLivePhoto builds the freeze-frame-hold effect: exactly 4 seconds of
// output at a fixed frame rate, scaled and letterbox-padded to the target
// aspect ratio's resolution, with the last second a frozen hold of the frame
// at the 3-second mark, audio removed, re-encoded at a fixed quality.
func (p *Processor) ComposeLivePhoto(ctx context.Context, data []byte, aspectRatio string) ([]byte, error) {
	if err := p.Probe(ctx); err != nil {
		return nil, err
	}
	res, ok := aspectResolutions[aspectRatio]
	if !ok {
		return nil, fmt.Errorf("no target resolution for aspect ratio %q", aspectRatio)
	}

	in, cleanupIn, err := tempInput(data)
	if err != nil {
		return nil, err
	}
	defer cleanupIn()

	outPath, cleanupOut, err := tempOutput()
	if err != nil {
		return nil, err
	}
	defer cleanupOut()

	w, h := res[0], res[1]
	filter := fmt.Sprintf(
		"[0:v]trim=0:%d,setpts=PTS-STARTPTS,"+
			"scale=%d:%d:force_original_aspect_ratio=decrease,"+
			"pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black,"+
			"fps=%d,"+
			"tpad=stop_mode=clone:stop_duration=%d[v]",
		holdAtSeconds, w, h, w, h, liveFrameRate, outSeconds-holdAtSeconds,
	)
	args := []string{
		"-y",
		"-i", in,
		"-filter_complex", filter,
		"-map", "[v]",
		"-an",
		"-t", fmt.Sprintf("%d", outSeconds),
		"-c:v", "libx264",
		"-crf", liveCRF,
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		outPath,
	}
	if err := p.runner.Run(ctx, p.bin, args...); err != nil {
		return nil, fmt.Errorf("live-photo compose: %w", err)
	}

	result, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("live-photo compose: read output: %w", err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("live-photo compose: empty output")
	}
	return result, nil
}

// tempInput writes data to a temp file and returns its path with a cleanup
// func. Cleanup is best effort on every exit path.
func tempInput(data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "genmedia_in_*.mp4")
	if err != nil {
		return "", nil, fmt.Errorf("could not create temp input: %w", err)
	}
	name := f.Name()
	cleanup := func() {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			log.Printf("failed to remove temp file %q: %v", name, err)
		}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("could not write temp input: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("could not close temp input: %w", err)
	}
	return name, cleanup, nil
}

func tempOutput() (string, func(), error) {
	f, err := os.CreateTemp("", "genmedia_out_*.mp4")
	if err != nil {
		return "", nil, fmt.Errorf("could not create temp output: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	cleanup := func() {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			log.Printf("failed to remove temp file %q: %v", name, err)
		}
	}
	return name, cleanup, nil
}
