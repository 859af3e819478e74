// Package gcloud aligns transcripts using word time offsets from
// Google Cloud Speech-to-Text.
package gcloud

import (
	"context"
	"math"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Vidnolunovich/vo-mfa-service/internal/audio"
	"github.com/Vidnolunovich/vo-mfa-service/internal/models"
	"github.com/Vidnolunovich/vo-mfa-service/internal/observability/logging"
	"github.com/Vidnolunovich/vo-mfa-service/internal/service/aligner"
)

// Config controls recognition requests.
type Config struct {
	// Model selects the recognizer, e.g. "latest_long".
	Model string
}

func DefaultConfig() Config {
	return Config{Model: "latest_long"}
}

// locales maps registry language codes to Speech API locales.
var locales = map[string]string{
	"en": "en-US",
	"ru": "ru-RU",
	"es": "es-ES",
	"de": "de-DE",
	"pt": "pt-PT",
}

// Adapter implements aligner.Aligner against the synchronous
// Recognize API.
type Adapter struct {
	client *speech.Client
	cfg    Config
	log    zerolog.Logger
}

// New dials the Speech API. Requires GOOGLE_APPLICATION_CREDENTIALS to
// be set in the environment.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	return &Adapter{client: c, cfg: cfg, log: logging.WithComponent("gcloud")}, nil
}

func (a *Adapter) Name() string { return "gcloud" }

func (a *Adapter) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

func (a *Adapter) Verify(ctx context.Context) error {
	if a.client == nil {
		return aligner.Errorf(aligner.KindUnavailable, "speech client not initialized")
	}
	return nil
}

// Align recognizes the clip with word offsets enabled and overlays the
// caller's transcript tokens on the returned timing. The transcript is
// authoritative for word text; recognition output only supplies the
// boundaries.
func (a *Adapter) Align(ctx context.Context, clip *audio.Clip, transcript string, model aligner.Model) ([]models.WordInterval, error) {
	if clip == nil || len(clip.Samples) == 0 {
		return nil, aligner.Errorf(aligner.KindMismatch, "empty audio")
	}
	tokens := strings.Fields(transcript)
	if len(tokens) == 0 {
		return nil, aligner.Errorf(aligner.KindMismatch, "empty transcript")
	}

	resp, err := a.client.Recognize(ctx, recognizeRequest(clip, localeFor(model.Language), a.cfg.Model))
	if err != nil {
		return nil, classifyStatus(err)
	}

	words := collectWords(resp)
	if len(words) == 0 {
		return nil, aligner.Errorf(aligner.KindMismatch, "recognizer returned no word offsets")
	}
	if len(words) != len(tokens) {
		a.log.Warn().
			Int("expected", len(tokens)).
			Int("recognized", len(words)).
			Msg("recognizer word count diverges from transcript")
		return nil, aligner.Errorf(aligner.KindMismatch, "expected %d words, recognized %d", len(tokens), len(words))
	}
	for i := range words {
		words[i].Word = tokens[i]
	}
	return words, nil
}

func localeFor(language string) string {
	if locale, ok := locales[language]; ok {
		return locale
	}
	return language
}

func recognizeRequest(clip *audio.Clip, locale, model string) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:       int32(clip.Rate),
			LanguageCode:          locale,
			Model:                 model,
			EnableWordTimeOffsets: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio.PCM16Bytes(clip)},
		},
	}
}

func collectWords(resp *speechpb.RecognizeResponse) []models.WordInterval {
	var out []models.WordInterval
	for _, res := range resp.GetResults() {
		alts := res.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		for _, w := range alts[0].GetWords() {
			out = append(out, models.WordInterval{
				Word:  w.GetWord(),
				Start: round4(w.GetStartTime().AsDuration().Seconds()),
				End:   round4(w.GetEndTime().AsDuration().Seconds()),
			})
		}
	}
	return out
}

func classifyStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return &aligner.AlignmentError{Kind: aligner.KindInternal, Message: "recognize failed", Err: err}
	}
	switch st.Code() {
	case codes.DeadlineExceeded, codes.Canceled:
		return &aligner.AlignmentError{Kind: aligner.KindTimeout, Message: "recognize timed out", Err: err}
	case codes.Unavailable, codes.Unauthenticated, codes.PermissionDenied:
		return &aligner.AlignmentError{Kind: aligner.KindUnavailable, Message: "speech api unavailable", Err: err}
	default:
		return &aligner.AlignmentError{Kind: aligner.KindInternal, Message: "recognize failed", Err: err}
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
