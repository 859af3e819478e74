package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// transcode runs the payload through ffmpeg to produce a PCM WAV file,
// preserving the source sample rate and channel count.
func (d *Decoder) transcode(ctx context.Context, encoded []byte) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "align-decode-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, "input")
	outPath := filepath.Join(tmpDir, "output.wav")
	if err := os.WriteFile(inPath, encoded, 0o600); err != nil {
		return nil, fmt.Errorf("write temp input: %w", err)
	}

	tctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(tctx, d.ffmpeg, "-y", "-i", inPath, "-f", "wav", outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if tctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("ffmpeg timed out after %v", d.timeout)
		}
		return nil, fmt.Errorf("ffmpeg failed: %s: %w", stderrTail(stderr.String()), err)
	}

	d.log.Debug().
		Dur("duration", time.Since(start)).
		Int("inputBytes", len(encoded)).
		Msg("Transcoded payload to WAV")

	return os.ReadFile(outPath)
}

// stderrTail keeps the last few lines of ffmpeg output, which carry the
// actual failure reason.
func stderrTail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}
