package events

import (
	"context"
	"testing"
	"time"

	"github.com/Vidnolunovich/vo-mfa-service/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerCompleted != nil {
				t.Error("expected nil completed writer when disabled")
			}
			if p.writerFailed != nil {
				t.Error("expected nil failed writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:        false,
		Brokers:        []string{"localhost:9092"},
		TopicCompleted: "test.completed",
		TopicFailed:    "test.failed",
		ClientID:       "test-service",
	}

	p := New(cfg)

	if p.clientID != "test-service" {
		t.Errorf("expected client id 'test-service', got %s", p.clientID)
	}
	if p.topicCompleted != "test.completed" {
		t.Errorf("expected completed topic 'test.completed', got %s", p.topicCompleted)
	}
	if p.topicFailed != "test.failed" {
		t.Errorf("expected failed topic 'test.failed', got %s", p.topicFailed)
	}
}

func TestPublisher_PublishCompleted_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	event := models.AlignmentCompleted{
		EventType:        models.EventAlignmentCompleted,
		RequestID:        "align-1",
		Language:         "en",
		Model:            "english_us_arpa",
		WordCount:        2,
		TotalDuration:    1.5,
		ProcessingTimeMs: 420,
		Refined:          true,
		Timestamp:        time.Now().UnixMilli(),
	}

	if err := p.PublishCompleted(context.Background(), "align-1", event); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishFailed_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	event := models.AlignmentFailed{
		EventType: models.EventAlignmentFailed,
		RequestID: "align-2",
		Language:  "en",
		Stage:     "align",
		Kind:      "timeout",
		Message:   "mfa align_one timed out",
		Timestamp: time.Now().UnixMilli(),
	}

	if err := p.PublishFailed(context.Background(), "align-2", event); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Publish_InvalidJSON(t *testing.T) {
	p := New(&Config{Enabled: false})

	// A channel cannot be marshaled.
	event := make(chan int)
	if err := p.PublishCompleted(context.Background(), "key", event); err == nil {
		t.Error("expected error for unmarshalable completed event")
	}
	if err := p.PublishFailed(context.Background(), "key", event); err == nil {
		t.Error("expected error for unmarshalable failed event")
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})
	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_Close_NilWriters(t *testing.T) {
	p := &Publisher{}
	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing publisher with nil writers, got %v", err)
	}
}
