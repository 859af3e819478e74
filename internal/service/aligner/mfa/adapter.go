// Package mfa aligns audio by shelling out to the Montreal Forced
// Aligner command line and parsing the TextGrid it produces.
package mfa

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Vidnolunovich/vo-mfa-service/internal/audio"
	"github.com/Vidnolunovich/vo-mfa-service/internal/models"
	"github.com/Vidnolunovich/vo-mfa-service/internal/observability/logging"
	"github.com/Vidnolunovich/vo-mfa-service/internal/service/aligner"
)

// MFA acoustic models are trained on 16 kHz audio.
const modelSampleRate = 16000

// Config holds the external commands and timeouts for one adapter.
type Config struct {
	// Command is the MFA binary, resolved through PATH.
	Command string
	// FFmpeg conforms input audio to the model sample rate.
	FFmpeg string
	// RootDir overrides MFA_ROOT_DIR for model storage when set.
	RootDir string

	AlignTimeout    time.Duration
	ResampleTimeout time.Duration
}

// Adapter runs one alignment per call in a private temp directory.
type Adapter struct {
	cfg Config
	log zerolog.Logger
}

func New(cfg Config) *Adapter {
	if cfg.Command == "" {
		cfg.Command = "mfa"
	}
	if cfg.FFmpeg == "" {
		cfg.FFmpeg = "ffmpeg"
	}
	if cfg.AlignTimeout <= 0 {
		cfg.AlignTimeout = 300 * time.Second
	}
	if cfg.ResampleTimeout <= 0 {
		cfg.ResampleTimeout = 60 * time.Second
	}
	return &Adapter{cfg: cfg, log: logging.WithComponent("mfa")}
}

func (a *Adapter) Name() string { return "mfa" }

func (a *Adapter) Close() error { return nil }

// Verify checks both external binaries are resolvable.
func (a *Adapter) Verify(ctx context.Context) error {
	if _, err := exec.LookPath(a.cfg.Command); err != nil {
		return &aligner.AlignmentError{Kind: aligner.KindUnavailable, Message: "mfa binary not found", Err: err}
	}
	if _, err := exec.LookPath(a.cfg.FFmpeg); err != nil {
		return &aligner.AlignmentError{Kind: aligner.KindUnavailable, Message: "ffmpeg binary not found", Err: err}
	}
	a.log.Info().
		Strs("languages", aligner.Languages()).
		Str("rootDir", a.cfg.RootDir).
		Msg("mfa engine verified")
	return nil
}

// Align writes the clip and transcript to disk, runs mfa align_one and
// parses the resulting TextGrid.
func (a *Adapter) Align(ctx context.Context, clip *audio.Clip, transcript string, model aligner.Model) ([]models.WordInterval, error) {
	if clip == nil || len(clip.Samples) == 0 {
		return nil, aligner.Errorf(aligner.KindMismatch, "empty audio")
	}

	dir, err := os.MkdirTemp("", "align-mfa-")
	if err != nil {
		return nil, &aligner.AlignmentError{Kind: aligner.KindInternal, Message: "create work dir", Err: err}
	}
	defer os.RemoveAll(dir)

	audioPath := filepath.Join(dir, "audio.wav")
	textPath := filepath.Join(dir, "audio.txt")
	outPath := filepath.Join(dir, "audio.TextGrid")

	if err := a.conform(ctx, dir, clip, audioPath); err != nil {
		return nil, err
	}
	if err := os.WriteFile(textPath, []byte(transcript), 0o600); err != nil {
		return nil, &aligner.AlignmentError{Kind: aligner.KindInternal, Message: "write transcript", Err: err}
	}
	if err := a.runAlign(ctx, audioPath, textPath, model, outPath); err != nil {
		return nil, err
	}

	f, err := os.Open(outPath)
	if err != nil {
		return nil, &aligner.AlignmentError{Kind: aligner.KindInternal, Message: "aligner produced no TextGrid", Err: err}
	}
	defer f.Close()

	words, err := parseTextGrid(f)
	if err != nil {
		return nil, &aligner.AlignmentError{Kind: aligner.KindInternal, Message: "parse TextGrid", Err: err}
	}
	if len(words) == 0 {
		return nil, aligner.Errorf(aligner.KindMismatch, "no words aligned; transcript may not match audio")
	}
	return words, nil
}

// conform writes the clip at the model sample rate. Audio already at
// 16 kHz is written directly; anything else goes through ffmpeg.
func (a *Adapter) conform(ctx context.Context, dir string, clip *audio.Clip, outPath string) error {
	if clip.Rate == modelSampleRate {
		if err := os.WriteFile(outPath, audio.EncodeWAV(clip), 0o600); err != nil {
			return &aligner.AlignmentError{Kind: aligner.KindInternal, Message: "write audio", Err: err}
		}
		return nil
	}

	inPath := filepath.Join(dir, "input.wav")
	if err := os.WriteFile(inPath, audio.EncodeWAV(clip), 0o600); err != nil {
		return &aligner.AlignmentError{Kind: aligner.KindInternal, Message: "write audio", Err: err}
	}

	tctx, cancel := context.WithTimeout(ctx, a.cfg.ResampleTimeout)
	defer cancel()

	cmd := exec.CommandContext(tctx, a.cfg.FFmpeg, resampleArgs(inPath, outPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return classifyExec(tctx, err, stderr.String(), "ffmpeg resample")
	}
	return nil
}

func (a *Adapter) runAlign(ctx context.Context, audioPath, textPath string, model aligner.Model, outPath string) error {
	tctx, cancel := context.WithTimeout(ctx, a.cfg.AlignTimeout)
	defer cancel()

	cmd := exec.CommandContext(tctx, a.cfg.Command, alignArgs(audioPath, textPath, model, outPath)...)
	cmd.Env = os.Environ()
	if a.cfg.RootDir != "" {
		cmd.Env = append(cmd.Env, "MFA_ROOT_DIR="+a.cfg.RootDir)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	a.log.Debug().
		Dur("elapsed", time.Since(start)).
		Str("acoustic", model.Acoustic).
		Msg("mfa align_one finished")
	if err != nil {
		return classifyExec(tctx, err, stderr.String(), "mfa align_one")
	}
	return nil
}

func resampleArgs(inPath, outPath string) []string {
	return []string{"-y", "-i", inPath, "-ar", "16000", "-ac", "1", "-sample_fmt", "s16", "-f", "wav", outPath}
}

func alignArgs(audioPath, textPath string, model aligner.Model, outPath string) []string {
	return []string{
		"align_one",
		audioPath,
		textPath,
		model.Dictionary,
		model.Acoustic,
		outPath,
		"--uses_speaker_adaptation", "false",
		"--no_textgrid_cleanup",
	}
}

func classifyExec(ctx context.Context, err error, stderr, what string) error {
	var notFound *exec.Error
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &aligner.AlignmentError{Kind: aligner.KindTimeout, Message: what + " timed out", Err: err}
	case errors.As(err, &notFound):
		return &aligner.AlignmentError{Kind: aligner.KindUnavailable, Message: what + " not available", Err: err}
	default:
		return &aligner.AlignmentError{Kind: aligner.KindInternal, Message: what + " failed: " + stderrTail(stderr), Err: err}
	}
}

// stderrTail keeps the last few lines of tool output for error
// messages.
func stderrTail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}
