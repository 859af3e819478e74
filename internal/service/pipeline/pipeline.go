package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/Vidnolunovich/vo-mfa-service/internal/audio"
	"github.com/Vidnolunovich/vo-mfa-service/internal/events"
	"github.com/Vidnolunovich/vo-mfa-service/internal/models"
	"github.com/Vidnolunovich/vo-mfa-service/internal/observability/logging"
	"github.com/Vidnolunovich/vo-mfa-service/internal/observability/metrics"
	"github.com/Vidnolunovich/vo-mfa-service/internal/refine"
	"github.com/Vidnolunovich/vo-mfa-service/internal/schema"
	"github.com/Vidnolunovich/vo-mfa-service/internal/service/aligner"
)

// publishTimeout bounds event publishing so a slow broker cannot hold
// a finished request.
const publishTimeout = 5 * time.Second

// Config wires a pipeline's collaborators.
type Config struct {
	Engine    aligner.Aligner
	Decoder   *audio.Decoder
	Publisher *events.Publisher
	Validator *schema.Validator
	Metrics   *metrics.Metrics

	// DefaultSampleRate applies when a request does not name one.
	DefaultSampleRate int
	// AlignTimeout bounds a single engine invocation.
	AlignTimeout time.Duration
}

// Pipeline runs alignment requests through validate, decode, align and
// refine stages, emitting events and metrics along the way.
type Pipeline struct {
	engine       aligner.Aligner
	decoder      *audio.Decoder
	publisher    *events.Publisher
	validator    *schema.Validator
	metrics      *metrics.Metrics
	gen          *Generator
	defaultRate  int
	alignTimeout time.Duration
	log          zerolog.Logger
}

func New(cfg Config) *Pipeline {
	if cfg.Decoder == nil {
		cfg.Decoder = audio.NewDecoder(audio.DecoderConfig{})
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.New(nil)
	}
	if cfg.Validator == nil {
		cfg.Validator = schema.New()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.DefaultMetrics
	}
	if cfg.DefaultSampleRate <= 0 {
		cfg.DefaultSampleRate = 24000
	}
	if cfg.AlignTimeout <= 0 {
		cfg.AlignTimeout = 300 * time.Second
	}
	return &Pipeline{
		engine:       cfg.Engine,
		decoder:      cfg.Decoder,
		publisher:    cfg.Publisher,
		validator:    cfg.Validator,
		metrics:      cfg.Metrics,
		gen:          NewGenerator(),
		defaultRate:  cfg.DefaultSampleRate,
		alignTimeout: cfg.AlignTimeout,
		log:          logging.WithComponent("pipeline"),
	}
}

// Process runs one request to completion.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	requestID := p.gen.Next()
	lc := NewLifecycle(requestID)
	start := time.Now()
	log := logging.WithRequest(requestID, req.Language)

	p.metrics.RecordRequestStart()

	fail := func(stage string, err error) (*Result, error) {
		lc.Fail()
		p.emitFailed(requestID, req.Language, stage, err)
		p.metrics.RecordRequestEnd(req.Language, "error", time.Since(start).Seconds())
		log.Warn().Err(err).Str("stage", stage).Msg("alignment request failed")
		return nil, err
	}

	model, err := req.validate()
	if err != nil {
		return fail("validate", err)
	}
	p.advance(lc, StateValidated)

	encoded, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return fail("decode", &audio.DecodeError{Message: "invalid base64 audio", Err: err})
	}
	rate := req.SampleRate
	if rate == 0 {
		rate = p.defaultRate
	}

	decodeStart := time.Now()
	clip, err := p.decoder.Decode(ctx, encoded, rate)
	if err != nil {
		return fail("decode", err)
	}
	p.metrics.RecordStage("decode", time.Since(decodeStart).Seconds())
	p.advance(lc, StateDecoded)

	stats := refine.Analyze(clip)
	log.Debug().
		Float64("peakDb", stats.PeakDB).
		Float64("meanDb", stats.MeanDB).
		Float64("silenceRatio", stats.SilenceRatio).
		Float64("durationSec", stats.DurationSec).
		Msg("audio decoded")

	alignStart := time.Now()
	actx, cancel := context.WithTimeout(ctx, p.alignTimeout)
	words, err := p.engine.Align(actx, clip, req.Transcript, model)
	cancel()
	p.metrics.RecordEngineInvocation(p.engine.Name(), err)
	if err != nil {
		return fail("align", err)
	}
	p.metrics.RecordStage("align", time.Since(alignStart).Seconds())
	p.metrics.RecordWordsAligned(len(words))
	p.advance(lc, StateAligned)

	refined := false
	var avgShift float64
	if req.Refine {
		refineStart := time.Now()
		out := refine.Refine(clip, words)
		moved := 0
		var totalShift float64
		for i := range out {
			shift := (out[i].End - words[i].End) * 1000
			if shift != 0 {
				moved++
				totalShift += shift
				p.metrics.RecordEndpointShift(shift)
			}
		}
		if moved > 0 {
			avgShift = totalShift / float64(moved)
		}
		p.metrics.RecordStage("refine", time.Since(refineStart).Seconds())
		log.Info().
			Int("moved", moved).
			Float64("avgShiftMs", avgShift).
			Msg("word endpoints refined")
		words = out
		refined = true
		p.advance(lc, StateRefined)
	}
	p.advance(lc, StateCompleted)

	elapsed := time.Since(start)
	result := &Result{
		Words:            words,
		TotalDuration:    clip.Duration(),
		ProcessingTimeMs: int64(math.Round(elapsed.Seconds() * 1000)),
		ModelUsed:        model.Acoustic,
		Refined:          refined,
	}

	p.emitCompleted(requestID, req.Language, result, avgShift)
	p.metrics.RecordRequestEnd(req.Language, "ok", elapsed.Seconds())
	log.Info().
		Int("words", len(words)).
		Int64("processingTimeMs", result.ProcessingTimeMs).
		Str("model", result.ModelUsed).
		Msg("alignment request completed")
	return result, nil
}

// advance moves the lifecycle; a rejected edge is a programming error
// worth a log line, not a request failure.
func (p *Pipeline) advance(lc *Lifecycle, next State) {
	if err := lc.Advance(next); err != nil {
		p.log.Error().Err(err).Str("requestId", lc.RequestID()).Msg("lifecycle transition rejected")
	}
}

func (p *Pipeline) emitCompleted(requestID, language string, result *Result, avgShift float64) {
	event := models.AlignmentCompleted{
		EventType:        models.EventAlignmentCompleted,
		RequestID:        requestID,
		Language:         language,
		Model:            result.ModelUsed,
		WordCount:        len(result.Words),
		TotalDuration:    result.TotalDuration,
		ProcessingTimeMs: result.ProcessingTimeMs,
		Refined:          result.Refined,
		AvgShiftMs:       avgShift,
		Timestamp:        time.Now().UnixMilli(),
	}
	if err := p.validator.Validate(event); err != nil {
		p.log.Error().Err(err).Str("requestId", requestID).Msg("completed event failed validation")
		return
	}

	// Publishing is best-effort: the caller already has the result.
	pctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.publisher.PublishCompleted(pctx, requestID, event); err != nil {
		p.log.Error().Err(err).Str("requestId", requestID).Msg("failed to publish completed event")
	}
}

func (p *Pipeline) emitFailed(requestID, language, stage string, cause error) {
	event := models.AlignmentFailed{
		EventType: models.EventAlignmentFailed,
		RequestID: requestID,
		Language:  language,
		Stage:     stage,
		Kind:      failureKind(cause),
		Message:   cause.Error(),
		Timestamp: time.Now().UnixMilli(),
	}
	if err := p.validator.Validate(event); err != nil {
		p.log.Error().Err(err).Str("requestId", requestID).Msg("failed event failed validation")
		return
	}

	pctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.publisher.PublishFailed(pctx, requestID, event); err != nil {
		p.log.Error().Err(err).Str("requestId", requestID).Msg("failed to publish failed event")
	}
}

// failureKind reduces an error to the classification consumers switch
// on.
func failureKind(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return "validation"
	}
	var de *audio.DecodeError
	if errors.As(err, &de) {
		return "decode"
	}
	var ae *aligner.AlignmentError
	if errors.As(err, &ae) {
		return string(ae.Kind)
	}
	return "internal"
}
