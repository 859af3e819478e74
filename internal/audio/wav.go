package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// WAV format codes from the fmt chunk.
const (
	formatPCM        = 1
	formatIEEEFloat  = 3
	formatExtensible = 0xFFFE
)

var errUnsupportedFormat = errors.New("unsupported WAV format")

func isRIFF(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

type wavFormat struct {
	audioFormat   uint16
	numChannels   uint16
	sampleRate    uint32
	bitsPerSample uint16
}

// parseWAV decodes a RIFF/WAVE payload into a mono clip, averaging
// channels. PCM integer (8/16/24/32-bit) and IEEE float (32/64-bit)
// payloads are handled natively.
func parseWAV(data []byte) (*Clip, error) {
	if !isRIFF(data) {
		return nil, decodeErr("not a RIFF/WAVE payload")
	}

	var format *wavFormat
	var pcm []byte

	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := data[off+8:]
		if size > len(body) {
			// A generous data chunk size from a streaming writer is
			// tolerated; anything else is truncation.
			if id != "data" {
				return nil, decodeErr("truncated %q chunk", id)
			}
			size = len(body)
		}
		body = body[:size]

		switch id {
		case "fmt ":
			f, err := parseFmtChunk(body)
			if err != nil {
				return nil, err
			}
			format = f
		case "data":
			pcm = body
		}

		if format != nil && pcm != nil {
			break
		}
		// Chunks are word-aligned.
		off += 8 + size + (size & 1)
	}

	if format == nil {
		return nil, decodeErr("missing fmt chunk")
	}
	if pcm == nil {
		return nil, decodeErr("missing data chunk")
	}

	samples, err := decodeSamples(pcm, format)
	if err != nil {
		return nil, err
	}
	return &Clip{Samples: samples, Rate: int(format.sampleRate)}, nil
}

func parseFmtChunk(body []byte) (*wavFormat, error) {
	if len(body) < 16 {
		return nil, decodeErr("fmt chunk too short: %d bytes", len(body))
	}
	f := &wavFormat{
		audioFormat:   binary.LittleEndian.Uint16(body[0:2]),
		numChannels:   binary.LittleEndian.Uint16(body[2:4]),
		sampleRate:    binary.LittleEndian.Uint32(body[4:8]),
		bitsPerSample: binary.LittleEndian.Uint16(body[14:16]),
	}
	if f.audioFormat == formatExtensible {
		// The real format code lives in the first two bytes of the
		// extensible sub-format GUID.
		if len(body) < 26 {
			return nil, decodeErr("extensible fmt chunk too short: %d bytes", len(body))
		}
		f.audioFormat = binary.LittleEndian.Uint16(body[24:26])
	}
	if f.numChannels == 0 {
		return nil, decodeErr("zero channels")
	}
	if f.sampleRate == 0 {
		return nil, decodeErr("zero sample rate")
	}
	return f, nil
}

func decodeSamples(pcm []byte, f *wavFormat) ([]float64, error) {
	bytesPerSample := int(f.bitsPerSample) / 8
	if bytesPerSample == 0 {
		return nil, &DecodeError{Message: "zero bits per sample", Err: errUnsupportedFormat}
	}

	read, err := sampleReader(f)
	if err != nil {
		return nil, err
	}

	channels := int(f.numChannels)
	frameSize := bytesPerSample * channels
	frames := len(pcm) / frameSize

	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		base := i * frameSize
		for ch := 0; ch < channels; ch++ {
			sum += read(pcm[base+ch*bytesPerSample:])
		}
		samples[i] = sum / float64(channels)
	}
	return samples, nil
}

func sampleReader(f *wavFormat) (func([]byte) float64, error) {
	switch f.audioFormat {
	case formatPCM:
		switch f.bitsPerSample {
		case 8:
			return func(b []byte) float64 {
				return (float64(b[0]) - 128) / 128
			}, nil
		case 16:
			return func(b []byte) float64 {
				return float64(int16(binary.LittleEndian.Uint16(b))) / 32768
			}, nil
		case 24:
			return func(b []byte) float64 {
				v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
				if v&0x800000 != 0 {
					v |= ^int32(0xFFFFFF)
				}
				return float64(v) / 8388608
			}, nil
		case 32:
			return func(b []byte) float64 {
				return float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648
			}, nil
		}
	case formatIEEEFloat:
		switch f.bitsPerSample {
		case 32:
			return func(b []byte) float64 {
				return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
			}, nil
		case 64:
			return func(b []byte) float64 {
				return math.Float64frombits(binary.LittleEndian.Uint64(b))
			}, nil
		}
	}
	return nil, &DecodeError{
		Message: fmt.Sprintf("WAV format %d with %d bits per sample", f.audioFormat, f.bitsPerSample),
		Err:     errUnsupportedFormat,
	}
}

// EncodeWAV writes a clip as a 16-bit PCM mono WAV file.
func EncodeWAV(c *Clip) []byte {
	pcm := PCM16Bytes(c)
	buf := make([]byte, 44+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], formatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(c.Rate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(c.Rate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[44:], pcm)
	return buf
}

// PCM16Bytes converts a clip to raw 16-bit little-endian PCM.
func PCM16Bytes(c *Clip) []byte {
	out := make([]byte, 2*len(c.Samples))
	for i, s := range c.Samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(math.Round(s*32767))))
	}
	return out
}
