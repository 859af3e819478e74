package aligner

import (
	"errors"
	"fmt"
	"testing"
)

func TestModelFor(t *testing.T) {
	tests := []struct {
		language string
		acoustic string
		ok       bool
	}{
		{"en", "english_us_arpa", true},
		{"ru", "russian_mfa", true},
		{"es", "spanish_mfa", true},
		{"de", "german_mfa", true},
		{"pt", "portuguese_mfa", true},
		{"fr", "", false},
		{"EN", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("language_%q", tt.language), func(t *testing.T) {
			m, ok := ModelFor(tt.language)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if m.Acoustic != tt.acoustic {
				t.Errorf("expected acoustic %q, got %q", tt.acoustic, m.Acoustic)
			}
			if ok && m.Dictionary != m.Acoustic {
				t.Errorf("model pair should share a name, got %q/%q", m.Acoustic, m.Dictionary)
			}
		})
	}
}

func TestLanguages_Sorted(t *testing.T) {
	got := Languages()
	want := []string{"de", "en", "es", "pt", "ru"}
	if len(got) != len(want) {
		t.Fatalf("expected %d languages, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestAlignmentError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &AlignmentError{Kind: KindUnavailable, Message: "engine not reachable", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}

	var ae *AlignmentError
	if !errors.As(fmt.Errorf("processing: %w", err), &ae) {
		t.Fatal("expected errors.As to find AlignmentError through wrapping")
	}
	if ae.Kind != KindUnavailable {
		t.Errorf("expected kind unavailable, got %q", ae.Kind)
	}

	plain := Errorf(KindMismatch, "expected %d words, got %d", 3, 2)
	if plain.Error() != "alignment mismatch: expected 3 words, got 2" {
		t.Errorf("unexpected message: %q", plain.Error())
	}
}
