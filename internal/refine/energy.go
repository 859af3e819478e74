package refine

import (
	"math"

	"github.com/Vidnolunovich/vo-mfa-service/internal/audio"
)

// Energy analysis frame geometry, in samples.
const (
	energyFrame = 512
	energyHop   = 256
)

// Stats summarizes the loudness of a clip for diagnostics.
type Stats struct {
	PeakDB       float64
	MeanDB       float64
	SilenceRatio float64
	DurationSec  float64
}

// Analyze computes short-time RMS statistics over the whole clip using
// overlapping frames. A clip with no samples reports floor levels and
// a silence ratio of 1.
func Analyze(clip *audio.Clip) Stats {
	if clip == nil || clip.Rate <= 0 || len(clip.Samples) == 0 {
		return Stats{PeakDB: silenceFloorDB, MeanDB: silenceFloorDB, SilenceRatio: 1}
	}

	var (
		peak   float64
		sum    float64
		silent int
		count  int
	)
	for start := 0; start < len(clip.Samples); start += energyHop {
		end := start + energyFrame
		if end > len(clip.Samples) {
			end = len(clip.Samples)
		}
		rms := frameRMS(clip.Samples[start:end])
		if rms > peak {
			peak = rms
		}
		sum += rms
		if levelDB(rms) < silenceThresholdDB {
			silent++
		}
		count++
	}

	return Stats{
		PeakDB:       levelDB(peak),
		MeanDB:       levelDB(sum / float64(count)),
		SilenceRatio: float64(silent) / float64(count),
		DurationSec:  round3(clip.Duration()),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
