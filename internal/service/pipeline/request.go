package pipeline

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/Vidnolunovich/vo-mfa-service/internal/models"
	"github.com/Vidnolunovich/vo-mfa-service/internal/service/aligner"
)

// ValidationError reports a request the caller can fix.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Request is one alignment job after JSON decoding. The audio stays
// base64-encoded until validation has passed.
type Request struct {
	AudioBase64 string
	Transcript  string
	Language    string
	SampleRate  int
	Refine      bool
}

// validate checks the request fields in a fixed order, so a request
// with several problems always reports the same one: transcript, then
// language, then audio, then sample rate.
func (r *Request) validate() (aligner.Model, error) {
	if strings.TrimSpace(r.Transcript) == "" {
		return aligner.Model{}, &ValidationError{Message: "transcript must not be empty"}
	}
	model, ok := aligner.ModelFor(r.Language)
	if !ok {
		return aligner.Model{}, &ValidationError{
			Message: fmt.Sprintf("unsupported language %q; supported: %s",
				r.Language, strings.Join(aligner.Languages(), ", ")),
		}
	}
	if r.AudioBase64 == "" {
		return aligner.Model{}, &ValidationError{Message: "audio must not be empty"}
	}
	if r.SampleRate < 0 {
		return aligner.Model{}, &ValidationError{Message: "sample_rate must not be negative"}
	}
	return model, nil
}

// Result is the outcome of a completed request.
type Result struct {
	Words            []models.WordInterval
	TotalDuration    float64
	ProcessingTimeMs int64
	ModelUsed        string
	Refined          bool
}

// Generator hands out sequential request IDs.
type Generator struct {
	counter uint64
}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Next() string {
	n := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("align-%d", n)
}
