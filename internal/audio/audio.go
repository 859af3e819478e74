// Package audio decodes encoded audio payloads into mono PCM sample
// sequences for alignment and refinement.
package audio

import "fmt"

// Clip is decoded mono audio: float64 samples in [-1, 1] at a known rate.
// A clip is never mutated after decode.
type Clip struct {
	Samples []float64
	Rate    int
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c == nil || c.Rate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.Rate)
}

// DecodeError reports a malformed, unsupported, or over-limit audio payload.
type DecodeError struct {
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode failed: %s: %v", e.Message, e.Err)
	}
	return "decode failed: " + e.Message
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(format string, args ...any) *DecodeError {
	return &DecodeError{Message: fmt.Sprintf(format, args...)}
}
