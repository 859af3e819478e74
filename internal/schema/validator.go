// Package schema validates event payloads before they are published.
package schema

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Vidnolunovich/vo-mfa-service/internal/models"
	"github.com/Vidnolunovich/vo-mfa-service/internal/observability/logging"
)

// knownKinds are the failure classifications consumers switch on.
var knownKinds = map[string]bool{
	"validation":  true,
	"decode":      true,
	"unavailable": true,
	"timeout":     true,
	"mismatch":    true,
	"internal":    true,
}

// Validator checks event payloads against the documented contract
// before they leave the service.
type Validator struct {
	log zerolog.Logger
}

func New() *Validator {
	return &Validator{log: logging.WithComponent("schema")}
}

// Validate rejects events with missing required fields or an unknown
// payload type.
func (v *Validator) Validate(event any) error {
	switch e := event.(type) {
	case models.AlignmentCompleted:
		return v.validateCompleted(e)
	case *models.AlignmentCompleted:
		return v.validateCompleted(*e)
	case models.AlignmentFailed:
		return v.validateFailed(e)
	case *models.AlignmentFailed:
		return v.validateFailed(*e)
	default:
		return fmt.Errorf("unknown event type %T", event)
	}
}

func (v *Validator) validateCompleted(e models.AlignmentCompleted) error {
	if e.EventType != models.EventAlignmentCompleted {
		return fmt.Errorf("completed event has type %q", e.EventType)
	}
	if e.RequestID == "" {
		return fmt.Errorf("completed event missing requestId")
	}
	if e.Language == "" {
		return fmt.Errorf("completed event missing language")
	}
	if e.WordCount <= 0 {
		return fmt.Errorf("completed event has word count %d", e.WordCount)
	}
	if e.Timestamp <= 0 {
		return fmt.Errorf("completed event missing timestamp")
	}
	v.log.Debug().Str("requestId", e.RequestID).Msg("completed event validated")
	return nil
}

func (v *Validator) validateFailed(e models.AlignmentFailed) error {
	if e.EventType != models.EventAlignmentFailed {
		return fmt.Errorf("failed event has type %q", e.EventType)
	}
	if e.RequestID == "" {
		return fmt.Errorf("failed event missing requestId")
	}
	if e.Stage == "" {
		return fmt.Errorf("failed event missing stage")
	}
	if !knownKinds[e.Kind] {
		return fmt.Errorf("failed event has unknown kind %q", e.Kind)
	}
	if e.Message == "" {
		return fmt.Errorf("failed event missing message")
	}
	if e.Timestamp <= 0 {
		return fmt.Errorf("failed event missing timestamp")
	}
	v.log.Debug().Str("requestId", e.RequestID).Msg("failed event validated")
	return nil
}
