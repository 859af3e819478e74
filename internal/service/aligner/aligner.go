// Package aligner defines the forced-alignment engine contract and the
// registry of language models the service can serve.
package aligner

import (
	"context"
	"fmt"
	"sort"

	"github.com/Vidnolunovich/vo-mfa-service/internal/audio"
	"github.com/Vidnolunovich/vo-mfa-service/internal/models"
)

// Model names the acoustic model and pronunciation dictionary used to
// align one language.
type Model struct {
	// Language is the ISO 639-1 code the model was registered under.
	Language   string
	Acoustic   string
	Dictionary string
}

// Aligner produces word-level timestamps for a transcript known to
// match the audio.
type Aligner interface {
	// Align returns one interval per transcript word, ordered by start
	// time. Implementations return *AlignmentError for failures the
	// caller can classify.
	Align(ctx context.Context, clip *audio.Clip, transcript string, model Model) ([]models.WordInterval, error)

	// Verify checks that the engine is usable before the service
	// reports itself ready.
	Verify(ctx context.Context) error

	Name() string
	Close() error
}

// modelTable maps ISO 639-1 language codes to the published MFA model
// pair for that language. Acoustic model and dictionary share a name
// upstream.
var modelTable = map[string]Model{
	"en": {Acoustic: "english_us_arpa", Dictionary: "english_us_arpa"},
	"ru": {Acoustic: "russian_mfa", Dictionary: "russian_mfa"},
	"es": {Acoustic: "spanish_mfa", Dictionary: "spanish_mfa"},
	"de": {Acoustic: "german_mfa", Dictionary: "german_mfa"},
	"pt": {Acoustic: "portuguese_mfa", Dictionary: "portuguese_mfa"},
}

// ModelFor resolves the model pair for a language code.
func ModelFor(language string) (Model, bool) {
	m, ok := modelTable[language]
	if ok {
		m.Language = language
	}
	return m, ok
}

// Languages lists the supported language codes in sorted order.
func Languages() []string {
	out := make([]string, 0, len(modelTable))
	for code := range modelTable {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// ErrorKind classifies alignment failures for transport mapping and
// metrics.
type ErrorKind string

const (
	KindUnavailable ErrorKind = "unavailable"
	KindTimeout     ErrorKind = "timeout"
	KindMismatch    ErrorKind = "mismatch"
	KindInternal    ErrorKind = "internal"
)

// AlignmentError describes an engine failure.
type AlignmentError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AlignmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("alignment %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("alignment %s: %s", e.Kind, e.Message)
}

func (e *AlignmentError) Unwrap() error {
	return e.Err
}

// Errorf builds an AlignmentError with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *AlignmentError {
	return &AlignmentError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
