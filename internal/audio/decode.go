package audio

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/Vidnolunovich/vo-mfa-service/internal/observability/logging"
	"github.com/Vidnolunovich/vo-mfa-service/internal/observability/metrics"
)

// Limits defines safety guardrails for audio decoding. They prevent
// unbounded resource usage from oversized payloads.
type Limits struct {
	MaxEncodedBytes int64         // Max encoded payload size
	MaxDuration     time.Duration // Max decoded clip duration
}

// DefaultLimits returns sensible default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxEncodedBytes: 50 * 1024 * 1024, // 50MB (~18 minutes at 24kHz 16-bit mono)
		MaxDuration:     10 * time.Minute,
	}
}

// DecoderConfig configures a Decoder.
type DecoderConfig struct {
	FFmpeg  string        // ffmpeg binary for non-WAV payloads
	Timeout time.Duration // per-transcode timeout
	Limits  Limits
}

// Decoder turns encoded audio payloads into mono clips. WAV payloads are
// parsed natively; anything else is transcoded through ffmpeg first.
type Decoder struct {
	ffmpeg  string
	timeout time.Duration
	limits  Limits
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewDecoder creates a Decoder, filling in defaults for zero-value config.
func NewDecoder(cfg DecoderConfig) *Decoder {
	if cfg.FFmpeg == "" {
		cfg.FFmpeg = "ffmpeg"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Limits == (Limits{}) {
		cfg.Limits = DefaultLimits()
	}
	return &Decoder{
		ffmpeg:  cfg.FFmpeg,
		timeout: cfg.Timeout,
		limits:  cfg.Limits,
		metrics: metrics.DefaultMetrics,
		log:     logging.WithComponent("decoder"),
	}
}

// Decode parses an encoded payload into a mono clip. The rate embedded in
// the payload is authoritative for decoding; when targetRate differs, the
// clip is resampled to targetRate so downstream time windows stay
// consistent. All-zero samples are a valid result, never an error.
func (d *Decoder) Decode(ctx context.Context, encoded []byte, targetRate int) (*Clip, error) {
	if len(encoded) == 0 {
		return nil, decodeErr("empty audio payload")
	}
	if d.limits.MaxEncodedBytes > 0 && int64(len(encoded)) > d.limits.MaxEncodedBytes {
		d.metrics.RecordLimitExceeded("bytes")
		return nil, decodeErr("payload is %d bytes, limit is %d", len(encoded), d.limits.MaxEncodedBytes)
	}

	clip, err := d.decodePayload(ctx, encoded)
	if err != nil {
		return nil, err
	}

	if targetRate > 0 && targetRate != clip.Rate {
		d.log.Debug().
			Int("embeddedRate", clip.Rate).
			Int("targetRate", targetRate).
			Msg("Resampling decoded audio")
		clip = &Clip{Samples: resample(clip.Samples, clip.Rate, targetRate), Rate: targetRate}
	}

	if d.limits.MaxDuration > 0 && clip.Duration() > d.limits.MaxDuration.Seconds() {
		d.metrics.RecordLimitExceeded("duration")
		return nil, decodeErr("audio is %.1fs, limit is %.1fs", clip.Duration(), d.limits.MaxDuration.Seconds())
	}

	d.metrics.RecordAudioDecoded(len(encoded), clip.Duration())
	return clip, nil
}

func (d *Decoder) decodePayload(ctx context.Context, encoded []byte) (*Clip, error) {
	if isRIFF(encoded) {
		clip, err := parseWAV(encoded)
		if err == nil {
			return clip, nil
		}
		// Exotic WAV codecs (ADPCM, mu-law containers) go through ffmpeg.
		if !errors.Is(err, errUnsupportedFormat) {
			return nil, err
		}
	}

	wav, err := d.transcode(ctx, encoded)
	if err != nil {
		return nil, &DecodeError{Message: "unsupported or malformed audio payload", Err: err}
	}
	clip, err := parseWAV(wav)
	if err != nil {
		return nil, &DecodeError{Message: "transcoded payload is not decodable", Err: err}
	}
	return clip, nil
}

// resample converts samples between rates by linear interpolation.
func resample(samples []float64, from, to int) []float64 {
	if from == to || len(samples) == 0 {
		return samples
	}
	n := int(math.Round(float64(len(samples)) * float64(to) / float64(from)))
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	ratio := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		i0 := int(pos)
		if i0 >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(i0)
		out[i] = samples[i0]*(1-frac) + samples[i0+1]*frac
	}
	return out
}
