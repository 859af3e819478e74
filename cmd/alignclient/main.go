package main

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/Vidnolunovich/vo-mfa-service/internal/models"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

func main() {
	audioFile := flag.String("audio", "testdata/sample-16khz.wav", "Path to WAV file")
	serverAddr := flag.String("server", "http://localhost:8080", "Alignment service base URL")
	transcript := flag.String("transcript", "", "Transcript to align (required)")
	language := flag.String("language", "en", "ISO 639-1 language code")
	refine := flag.Bool("refine", true, "Refine word endpoints against signal energy")
	flag.Parse()

	if *transcript == "" {
		log.Fatal("A transcript is required: -transcript \"the words that were spoken\"")
	}

	// Open audio file
	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	// Read and validate WAV header
	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("Failed to read WAV header: %v", err)
	}

	// Validate it's a WAV file
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("Not a valid WAV file")
	}

	// Extract audio format info
	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	log.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d",
		audioFormat, numChannels, sampleRate, bitsPerSample)

	if audioFormat != 1 && audioFormat != 3 {
		log.Fatal("Only PCM and IEEE float WAV files supported")
	}

	// Send the whole file; the service parses the header itself.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		log.Fatalf("Failed to rewind audio file: %v", err)
	}
	payload, err := io.ReadAll(f)
	if err != nil {
		log.Fatalf("Failed to read audio file: %v", err)
	}

	reqBody, err := json.Marshal(models.AlignRequest{
		AudioBase64:     base64.StdEncoding.EncodeToString(payload),
		Transcript:      *transcript,
		Language:        *language,
		RefineEndpoints: refine,
		SampleRate:      int(sampleRate),
	})
	if err != nil {
		log.Fatalf("Failed to encode request: %v", err)
	}

	log.Printf("Aligning %d bytes of audio against %q (%s)", len(payload), *transcript, *language)

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Post(*serverAddr+"/align", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope models.ErrorResponse
		if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Error != "" {
			log.Fatalf("Alignment failed (%d %s): %s", resp.StatusCode, envelope.Error, envelope.Message)
		}
		log.Fatalf("Alignment failed: status %d: %s", resp.StatusCode, respBody)
	}

	var result models.AlignResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		log.Fatalf("Failed to decode response: %v", err)
	}

	fmt.Printf("%-20s %10s %10s %10s\n", "WORD", "START", "END", "LENGTH")
	for _, w := range result.Words {
		fmt.Printf("%-20s %10.3f %10.3f %10.3f\n", w.Word, w.Start, w.End, w.End-w.Start)
	}
	fmt.Printf("\n%d words, %.3fs audio, model=%s refined=%v (%dms)\n",
		len(result.Words), result.TotalDuration, result.ModelUsed, result.Refined,
		result.ProcessingTimeMs)
}
