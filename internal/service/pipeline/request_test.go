package pipeline

import (
	"errors"
	"strings"
	"testing"
)

func TestRequest_Validate(t *testing.T) {
	valid := Request{
		AudioBase64: "UklGRg==",
		Transcript:  "hello world",
		Language:    "en",
		SampleRate:  16000,
		Refine:      true,
	}

	t.Run("valid request resolves the model", func(t *testing.T) {
		model, err := valid.validate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if model.Acoustic != "english_us_arpa" || model.Language != "en" {
			t.Errorf("unexpected model: %+v", model)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*Request)
		message string
	}{
		{
			"empty transcript",
			func(r *Request) { r.Transcript = "" },
			"transcript",
		},
		{
			"whitespace transcript",
			func(r *Request) { r.Transcript = "   \t" },
			"transcript",
		},
		{
			"unsupported language",
			func(r *Request) { r.Language = "fr" },
			"unsupported language",
		},
		{
			"empty audio",
			func(r *Request) { r.AudioBase64 = "" },
			"audio",
		},
		{
			"negative sample rate",
			func(r *Request) { r.SampleRate = -1 },
			"sample_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			_, err := r.validate()

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !strings.Contains(ve.Message, tt.message) {
				t.Errorf("expected message to mention %q, got %q", tt.message, ve.Message)
			}
		})
	}
}

func TestRequest_ValidationOrder(t *testing.T) {
	// A request that is broken in several ways reports the transcript
	// problem first; the audio is never even base64-decoded.
	r := Request{AudioBase64: "!!!not-base64!!!", Transcript: "", Language: "xx"}

	_, err := r.validate()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(ve.Message, "transcript") {
		t.Errorf("expected the transcript error to win, got %q", ve.Message)
	}
}

func TestValidationError_SupportedLanguagesListed(t *testing.T) {
	r := Request{AudioBase64: "UklGRg==", Transcript: "hi", Language: "ja"}

	_, err := r.validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, code := range []string{"de", "en", "es", "pt", "ru"} {
		if !strings.Contains(err.Error(), code) {
			t.Errorf("expected %q in the error message, got %q", code, err.Error())
		}
	}
}

func TestGenerator_Sequential(t *testing.T) {
	g := NewGenerator()

	for i, want := range []string{"align-1", "align-2", "align-3"} {
		if got := g.Next(); got != want {
			t.Errorf("call %d: expected %q, got %q", i, want, got)
		}
	}
}
