package schema

import (
	"testing"
	"time"

	"github.com/Vidnolunovich/vo-mfa-service/internal/models"
)

func validCompleted() models.AlignmentCompleted {
	return models.AlignmentCompleted{
		EventType:        models.EventAlignmentCompleted,
		RequestID:        "align-1",
		Language:         "en",
		Model:            "english_us_arpa",
		WordCount:        3,
		TotalDuration:    2.5,
		ProcessingTimeMs: 840,
		Refined:          true,
		AvgShiftMs:       4.2,
		Timestamp:        time.Now().UnixMilli(),
	}
}

func validFailed() models.AlignmentFailed {
	return models.AlignmentFailed{
		EventType: models.EventAlignmentFailed,
		RequestID: "align-2",
		Language:  "en",
		Stage:     "align",
		Kind:      "timeout",
		Message:   "mfa align_one timed out",
		Timestamp: time.Now().UnixMilli(),
	}
}

func TestValidate_Completed(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		mutate  func(*models.AlignmentCompleted)
		wantErr bool
	}{
		{"valid", func(e *models.AlignmentCompleted) {}, false},
		{"wrong event type", func(e *models.AlignmentCompleted) { e.EventType = "alignment.done" }, true},
		{"missing request id", func(e *models.AlignmentCompleted) { e.RequestID = "" }, true},
		{"missing language", func(e *models.AlignmentCompleted) { e.Language = "" }, true},
		{"zero word count", func(e *models.AlignmentCompleted) { e.WordCount = 0 }, true},
		{"missing timestamp", func(e *models.AlignmentCompleted) { e.Timestamp = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validCompleted()
			tt.mutate(&e)
			err := v.Validate(e)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidate_Failed(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		mutate  func(*models.AlignmentFailed)
		wantErr bool
	}{
		{"valid", func(e *models.AlignmentFailed) {}, false},
		{"wrong event type", func(e *models.AlignmentFailed) { e.EventType = "alignment.error" }, true},
		{"missing request id", func(e *models.AlignmentFailed) { e.RequestID = "" }, true},
		{"missing stage", func(e *models.AlignmentFailed) { e.Stage = "" }, true},
		{"unknown kind", func(e *models.AlignmentFailed) { e.Kind = "exploded" }, true},
		{"missing message", func(e *models.AlignmentFailed) { e.Message = "" }, true},
		{"missing timestamp", func(e *models.AlignmentFailed) { e.Timestamp = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validFailed()
			tt.mutate(&e)
			err := v.Validate(e)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidate_PointerAndUnknownTypes(t *testing.T) {
	v := New()

	completed := validCompleted()
	if err := v.Validate(&completed); err != nil {
		t.Errorf("pointer form should validate, got %v", err)
	}
	failed := validFailed()
	if err := v.Validate(&failed); err != nil {
		t.Errorf("pointer form should validate, got %v", err)
	}

	if err := v.Validate("not an event"); err == nil {
		t.Error("expected error for unknown payload type")
	}
	if err := v.Validate(nil); err == nil {
		t.Error("expected error for nil payload")
	}
}
