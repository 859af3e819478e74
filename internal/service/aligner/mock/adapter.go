// Package mock provides a deterministic aligner for testing without
// the MFA toolchain or cloud credentials. Transcript words are spread
// evenly across the clip, with a fixed share of each slot left as an
// inter-word gap.
package mock

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Vidnolunovich/vo-mfa-service/internal/audio"
	"github.com/Vidnolunovich/vo-mfa-service/internal/models"
	"github.com/Vidnolunovich/vo-mfa-service/internal/service/aligner"
)

// gapFraction is the share of each word slot left silent before the
// next word starts.
const gapFraction = 0.2

// Adapter implements aligner.Aligner with synthetic timing. The error
// and delay fields inject failure modes for tests; they must be set
// before the adapter is shared between goroutines.
type Adapter struct {
	// Err, when set, is returned from every Align call.
	Err error
	// VerifyErr, when set, is returned from Verify.
	VerifyErr error
	// Delay simulates engine latency before each result.
	Delay time.Duration

	mu    sync.Mutex
	calls int
}

func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Name() string { return "mock" }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) Verify(ctx context.Context) error { return a.VerifyErr }

// Calls reports how many Align invocations completed successfully.
func (a *Adapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func (a *Adapter) Align(ctx context.Context, clip *audio.Clip, transcript string, model aligner.Model) ([]models.WordInterval, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return nil, &aligner.AlignmentError{Kind: aligner.KindTimeout, Message: "mock alignment interrupted", Err: ctx.Err()}
		}
	}

	tokens := strings.Fields(transcript)
	if len(tokens) == 0 {
		return nil, aligner.Errorf(aligner.KindMismatch, "empty transcript")
	}
	duration := clip.Duration()
	if duration <= 0 {
		return nil, aligner.Errorf(aligner.KindMismatch, "empty audio")
	}

	slot := duration / float64(len(tokens))
	gap := slot * gapFraction
	out := make([]models.WordInterval, len(tokens))
	for i, token := range tokens {
		start := float64(i) * slot
		out[i] = models.WordInterval{
			Word:  token,
			Start: round4(start),
			End:   round4(start + slot - gap),
		}
	}

	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	return out, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
