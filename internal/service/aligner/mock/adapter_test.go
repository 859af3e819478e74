package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Vidnolunovich/vo-mfa-service/internal/audio"
	"github.com/Vidnolunovich/vo-mfa-service/internal/service/aligner"
)

func secondClip() *audio.Clip {
	return &audio.Clip{Samples: make([]float64, 16000), Rate: 16000}
}

func TestAlign_EvenSpacing(t *testing.T) {
	a := New()
	words, err := a.Align(context.Background(), secondClip(), "one two three four", aligner.Model{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		word       string
		start, end float64
	}{
		{"one", 0, 0.2},
		{"two", 0.25, 0.45},
		{"three", 0.5, 0.7},
		{"four", 0.75, 0.95},
	}
	if len(words) != len(want) {
		t.Fatalf("expected %d words, got %d", len(want), len(words))
	}
	for i, w := range want {
		if words[i].Word != w.word || words[i].Start != w.start || words[i].End != w.end {
			t.Errorf("word %d: expected %+v, got %+v", i, w, words[i])
		}
	}
	if a.Calls() != 1 {
		t.Errorf("expected 1 completed call, got %d", a.Calls())
	}
}

func TestAlign_EmptyInputs(t *testing.T) {
	a := New()

	_, err := a.Align(context.Background(), secondClip(), "   ", aligner.Model{})
	var ae *aligner.AlignmentError
	if !errors.As(err, &ae) || ae.Kind != aligner.KindMismatch {
		t.Errorf("expected mismatch for blank transcript, got %v", err)
	}

	_, err = a.Align(context.Background(), &audio.Clip{Rate: 16000}, "hello", aligner.Model{})
	if !errors.As(err, &ae) || ae.Kind != aligner.KindMismatch {
		t.Errorf("expected mismatch for empty clip, got %v", err)
	}
	if a.Calls() != 0 {
		t.Errorf("failed calls must not count, got %d", a.Calls())
	}
}

func TestAlign_InjectedError(t *testing.T) {
	boom := aligner.Errorf(aligner.KindInternal, "injected")
	a := New()
	a.Err = boom

	_, err := a.Align(context.Background(), secondClip(), "hello", aligner.Model{})
	if !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
}

func TestAlign_DelayRespectsContext(t *testing.T) {
	a := New()
	a.Delay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := a.Align(ctx, secondClip(), "hello", aligner.Model{})
	var ae *aligner.AlignmentError
	if !errors.As(err, &ae) || ae.Kind != aligner.KindTimeout {
		t.Errorf("expected timeout error, got %v", err)
	}
}
