package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"
)

// buildWAV assembles a WAV payload from raw parts for decode tests.
func buildWAV(audioFormat, channels uint16, rate uint32, bits uint16, pcm []byte) []byte {
	buf := make([]byte, 44+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], audioFormat)
	binary.LittleEndian.PutUint16(buf[22:24], channels)
	binary.LittleEndian.PutUint32(buf[24:28], rate)
	binary.LittleEndian.PutUint32(buf[28:32], rate*uint32(channels)*uint32(bits)/8)
	binary.LittleEndian.PutUint16(buf[32:34], channels*bits/8)
	binary.LittleEndian.PutUint16(buf[34:36], bits)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[44:], pcm)
	return buf
}

func pcm16(values ...int16) []byte {
	out := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out
}

func TestDecode_PCM16Mono(t *testing.T) {
	d := NewDecoder(DecoderConfig{})
	payload := buildWAV(formatPCM, 1, 16000, 16, pcm16(0, 16384, -16384, 32767))

	clip, err := d.Decode(context.Background(), payload, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.Rate != 16000 {
		t.Errorf("expected rate 16000, got %d", clip.Rate)
	}
	if len(clip.Samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(clip.Samples))
	}

	expected := []float64{0, 0.5, -0.5, 32767.0 / 32768}
	for i, want := range expected {
		if math.Abs(clip.Samples[i]-want) > 1e-9 {
			t.Errorf("sample %d: expected %f, got %f", i, want, clip.Samples[i])
		}
	}
}

func TestDecode_StereoMixdown(t *testing.T) {
	d := NewDecoder(DecoderConfig{})
	// Interleaved L/R frames: (0.5, -0.5) and (16384, 16384).
	payload := buildWAV(formatPCM, 2, 8000, 16, pcm16(16384, -16384, 16384, 16384))

	clip, err := d.Decode(context.Background(), payload, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clip.Samples) != 2 {
		t.Fatalf("expected 2 mono samples, got %d", len(clip.Samples))
	}
	if math.Abs(clip.Samples[0]) > 1e-9 {
		t.Errorf("expected first frame to average to 0, got %f", clip.Samples[0])
	}
	if math.Abs(clip.Samples[1]-0.5) > 1e-9 {
		t.Errorf("expected second frame to average to 0.5, got %f", clip.Samples[1])
	}
}

func TestDecode_PCM8(t *testing.T) {
	d := NewDecoder(DecoderConfig{})
	// 8-bit WAV samples are unsigned with a 128 midpoint.
	payload := buildWAV(formatPCM, 1, 8000, 8, []byte{128, 255, 0})

	clip, err := d.Decode(context.Background(), payload, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []float64{0, 127.0 / 128, -1}
	for i, want := range expected {
		if math.Abs(clip.Samples[i]-want) > 1e-9 {
			t.Errorf("sample %d: expected %f, got %f", i, want, clip.Samples[i])
		}
	}
}

func TestDecode_Float32(t *testing.T) {
	d := NewDecoder(DecoderConfig{})
	pcm := make([]byte, 8)
	binary.LittleEndian.PutUint32(pcm[0:4], math.Float32bits(0.25))
	binary.LittleEndian.PutUint32(pcm[4:8], math.Float32bits(-1.0))
	payload := buildWAV(formatIEEEFloat, 1, 44100, 32, pcm)

	clip, err := d.Decode(context.Background(), payload, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(clip.Samples[0]-0.25) > 1e-9 || math.Abs(clip.Samples[1]+1.0) > 1e-9 {
		t.Errorf("unexpected float samples: %v", clip.Samples)
	}
}

func TestDecode_PCM24(t *testing.T) {
	d := NewDecoder(DecoderConfig{})
	// One positive and one negative 24-bit sample.
	pcm := []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0xC0}
	payload := buildWAV(formatPCM, 1, 48000, 24, pcm)

	clip, err := d.Decode(context.Background(), payload, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(clip.Samples[0]-0.5) > 1e-9 {
		t.Errorf("expected 0.5, got %f", clip.Samples[0])
	}
	if math.Abs(clip.Samples[1]+0.5) > 1e-9 {
		t.Errorf("expected -0.5, got %f", clip.Samples[1])
	}
}

func TestDecode_Resample(t *testing.T) {
	d := NewDecoder(DecoderConfig{})
	samples := make([]int16, 1600)
	for i := range samples {
		samples[i] = 16384
	}
	payload := buildWAV(formatPCM, 1, 16000, 16, pcm16(samples...))

	tests := []struct {
		name       string
		targetRate int
		wantRate   int
		wantLen    int
	}{
		{"no target keeps embedded rate", 0, 16000, 1600},
		{"matching target is a no-op", 16000, 16000, 1600},
		{"downsample halves length", 8000, 8000, 800},
		{"upsample to 24kHz", 24000, 24000, 2400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip, err := d.Decode(context.Background(), payload, tt.targetRate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if clip.Rate != tt.wantRate {
				t.Errorf("expected rate %d, got %d", tt.wantRate, clip.Rate)
			}
			if len(clip.Samples) != tt.wantLen {
				t.Errorf("expected %d samples, got %d", tt.wantLen, len(clip.Samples))
			}
			// Duration is preserved across resampling.
			if math.Abs(clip.Duration()-0.1) > 1e-6 {
				t.Errorf("expected duration 0.1s, got %f", clip.Duration())
			}
			// A constant signal stays constant under linear interpolation.
			for i, s := range clip.Samples {
				if math.Abs(s-0.5) > 1e-9 {
					t.Fatalf("sample %d: expected 0.5, got %f", i, s)
				}
			}
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	d := NewDecoder(DecoderConfig{FFmpeg: "ffmpeg-not-installed-here"})

	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty payload", nil},
		{"garbage bytes", []byte("definitely not audio data")},
		{"RIFF magic only", []byte("RIFF????WAVE")},
		{"truncated fmt chunk", append(buildWAV(formatPCM, 1, 8000, 16, nil)[:20], 0xFF)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Decode(context.Background(), tt.payload, 0)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Errorf("expected DecodeError, got %T: %v", err, err)
			}
		})
	}
}

func TestDecode_AllZeroSamplesIsValid(t *testing.T) {
	d := NewDecoder(DecoderConfig{})
	payload := buildWAV(formatPCM, 1, 16000, 16, make([]byte, 3200))

	clip, err := d.Decode(context.Background(), payload, 0)
	if err != nil {
		t.Fatalf("silent audio must decode cleanly, got %v", err)
	}
	for i, s := range clip.Samples {
		if s != 0 {
			t.Fatalf("sample %d: expected 0, got %f", i, s)
		}
	}
}

func TestDecode_ByteLimit(t *testing.T) {
	d := NewDecoder(DecoderConfig{Limits: Limits{MaxEncodedBytes: 100, MaxDuration: time.Minute}})
	payload := buildWAV(formatPCM, 1, 16000, 16, make([]byte, 200))

	_, err := d.Decode(context.Background(), payload, 0)
	if err == nil {
		t.Fatal("expected byte limit error")
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Errorf("expected DecodeError, got %T", err)
	}
}

func TestDecode_DurationLimit(t *testing.T) {
	d := NewDecoder(DecoderConfig{Limits: Limits{MaxEncodedBytes: 1 << 20, MaxDuration: 100 * time.Millisecond}})
	// 0.2s of audio at 8kHz.
	payload := buildWAV(formatPCM, 1, 8000, 16, make([]byte, 3200))

	_, err := d.Decode(context.Background(), payload, 0)
	if err == nil {
		t.Fatal("expected duration limit error")
	}
}

func TestEncodeWAV_Roundtrip(t *testing.T) {
	src := &Clip{Samples: []float64{0, 0.5, -0.5, 0.25}, Rate: 24000}
	d := NewDecoder(DecoderConfig{})

	clip, err := d.Decode(context.Background(), EncodeWAV(src), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.Rate != 24000 {
		t.Errorf("expected rate 24000, got %d", clip.Rate)
	}
	if len(clip.Samples) != len(src.Samples) {
		t.Fatalf("expected %d samples, got %d", len(src.Samples), len(clip.Samples))
	}
	for i := range src.Samples {
		if math.Abs(clip.Samples[i]-src.Samples[i]) > 1e-4 {
			t.Errorf("sample %d: expected %f, got %f", i, src.Samples[i], clip.Samples[i])
		}
	}
}

func TestClip_Duration(t *testing.T) {
	tests := []struct {
		name string
		clip *Clip
		want float64
	}{
		{"nil clip", nil, 0},
		{"zero rate", &Clip{Samples: make([]float64, 100)}, 0},
		{"one second", &Clip{Samples: make([]float64, 16000), Rate: 16000}, 1.0},
		{"empty samples", &Clip{Samples: nil, Rate: 16000}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.clip.Duration(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected duration %f, got %f", tt.want, got)
			}
		})
	}
}

func TestDecode_PartialTrailingFrameIgnored(t *testing.T) {
	d := NewDecoder(DecoderConfig{})
	// 5 bytes of 16-bit stereo data holds one full frame plus one byte.
	pcm := []byte{0x00, 0x40, 0x00, 0x40, 0x7F}
	payload := buildWAV(formatPCM, 2, 8000, 16, pcm)

	clip, err := d.Decode(context.Background(), payload, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clip.Samples) != 1 {
		t.Errorf("expected 1 complete frame, got %d", len(clip.Samples))
	}
}
