// Package refine implements energy-based correction of aligned word
// endpoints.
//
// Forced aligners habitually clip word-final sibilants and fricatives,
// whose low-energy tails fall below the acoustic model's attention.
// The refiner re-examines the audio around each word end and snaps the
// boundary to the first short-time frame whose RMS level drops below
// the silence threshold.
package refine

import (
	"math"

	"github.com/Vidnolunovich/vo-mfa-service/internal/audio"
	"github.com/Vidnolunovich/vo-mfa-service/internal/models"
)

// Search geometry in seconds and energy thresholds in dBFS.
const (
	lookback  = 0.020
	lookahead = 0.080
	frameLen  = 0.005
	minFrame  = 0.001
	padding   = 0.005

	silenceThresholdDB = -40.0
	silenceFloorDB     = -120.0
)

// Refine returns a copy of words with end timestamps moved to the
// first silent frame found in a window around each original end.
// Start timestamps are never modified, and no end is pushed past the
// following word's start or past the end of the clip. Words whose
// window contains no silent frame, or whose corrected end would not
// leave a positive-length interval, are returned unchanged.
func Refine(clip *audio.Clip, words []models.WordInterval) []models.WordInterval {
	out := make([]models.WordInterval, len(words))
	copy(out, words)
	if clip == nil || clip.Rate <= 0 || len(clip.Samples) == 0 {
		return out
	}

	duration := clip.Duration()
	for i := range out {
		ceiling := duration
		if i+1 < len(words) && words[i+1].Start < ceiling {
			ceiling = words[i+1].Start
		}
		if end, ok := refineEnd(clip, out[i].Start, out[i].End, ceiling); ok {
			out[i].End = end
		}
	}
	return out
}

// refineEnd scans the window around end in consecutive frames and
// reports the padded position of the first silent one.
func refineEnd(clip *audio.Clip, start, end, ceiling float64) (float64, bool) {
	duration := clip.Duration()
	windowStart := end - lookback
	if windowStart < 0 {
		windowStart = 0
	}
	windowEnd := end + lookahead
	if windowEnd > duration {
		windowEnd = duration
	}

	rate := float64(clip.Rate)
	for k := 0; ; k++ {
		fs := windowStart + float64(k)*frameLen
		if fs >= windowEnd {
			return 0, false
		}
		fe := fs + frameLen
		if fe > windowEnd {
			fe = windowEnd
		}
		// A trailing sliver too short to measure is discarded.
		if fe-fs < minFrame {
			return 0, false
		}

		lo := int(fs * rate)
		hi := int(fe * rate)
		if lo < 0 {
			lo = 0
		}
		if hi > len(clip.Samples) {
			hi = len(clip.Samples)
		}
		if hi <= lo {
			return 0, false
		}

		if levelDB(frameRMS(clip.Samples[lo:hi])) < silenceThresholdDB {
			candidate := fs + padding
			if candidate > ceiling {
				candidate = ceiling
			}
			if candidate <= start {
				return 0, false
			}
			return round4(candidate), true
		}
	}
}

func frameRMS(samples []float64) float64 {
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// levelDB converts an RMS value to dBFS. Digital silence reports the
// floor value rather than -Inf.
func levelDB(rms float64) float64 {
	if rms == 0 {
		return silenceFloorDB
	}
	return 20 * math.Log10(rms)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
