// Package ffmpeg wraps the ffmpeg binary as the pipeline's transcoder.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
)

var execCommandContext = exec.CommandContext

// Transcoder re-encodes audio files at a target bitrate by shelling out to
// ffmpeg. A given input/bitrate pair is treated as deterministic.
type Transcoder struct{}

func New() *Transcoder {
	return &Transcoder{}
}

// Encode re-encodes input into output at the given bitrate. The caller is
// responsible for writing to a temporary path and renaming, so a failed
// encode never leaves a partial canonical artifact.
func (t *Transcoder) Encode(ctx context.Context, input, output string, bitrateKbps int) error {
	cmd := execCommandContext(ctx, "ffmpeg",
		"-i", input,
		"-y",
		"-ac", "2",
		"-b:a", fmt.Sprintf("%dk", bitrateKbps),
		output,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg encode at %dk failed: %w, output: %s", bitrateKbps, err, string(out))
	}
	return nil
}
