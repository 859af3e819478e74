// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration, grouped by concern.
type Config struct {
	Service       ServiceConfig
	HTTP          HTTPConfig
	Engine        EngineConfig
	Audio         AudioConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the running service.
type ServiceConfig struct {
	Name string
}

// HTTPConfig configures the public API listener.
type HTTPConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// EngineConfig configures the forced-alignment engine.
type EngineConfig struct {
	Provider        string // mfa, gcloud, mock
	MFACommand      string
	FFmpegCommand   string
	MFARootDir      string
	AlignTimeout    time.Duration
	ResampleTimeout time.Duration
	GCloudModel     string
}

// AudioConfig configures decoding limits and defaults.
type AudioConfig struct {
	DefaultSampleRate int
	MaxEncodedBytes   int64
	MaxDuration       time.Duration
}

// KafkaConfig configures the lifecycle event publisher.
type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	ClientID       string
	TopicCompleted string
	TopicFailed    string
}

// ObservabilityConfig configures logging and the ops listener.
type ObservabilityConfig struct {
	Addr      string
	LogLevel  string
	LogFormat string
}

// Load builds a Config from environment variables. Unset or malformed
// values fall back to defaults.
func Load() *Config {
	cfg := &Config{
		Service: ServiceConfig{
			Name: envOrDefault("SERVICE_NAME", "vo-mfa-service"),
		},
		HTTP: HTTPConfig{
			Addr:         envOrDefault("HTTP_ADDR", ":8080"),
			ReadTimeout:  envOrDefaultDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: envOrDefaultDuration("HTTP_WRITE_TIMEOUT", 330*time.Second),
		},
		Engine: EngineConfig{
			Provider:        envOrDefault("ENGINE_PROVIDER", "mfa"),
			MFACommand:      envOrDefault("MFA_COMMAND", "mfa"),
			FFmpegCommand:   envOrDefault("FFMPEG_COMMAND", "ffmpeg"),
			MFARootDir:      envOrDefault("MFA_ROOT_DIR", defaultMFARootDir()),
			AlignTimeout:    envOrDefaultDuration("ALIGN_TIMEOUT", 300*time.Second),
			ResampleTimeout: envOrDefaultDuration("RESAMPLE_TIMEOUT", 60*time.Second),
			GCloudModel:     envOrDefault("GCLOUD_MODEL", "latest_long"),
		},
		Audio: AudioConfig{
			DefaultSampleRate: envOrDefaultInt("DEFAULT_SAMPLE_RATE", 24000),
			MaxEncodedBytes:   envOrDefaultInt64("MAX_AUDIO_BYTES", 50*1024*1024),
			MaxDuration:       envOrDefaultDuration("MAX_AUDIO_DURATION", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled:        envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:        envOrDefaultList("KAFKA_BROKERS", []string{"localhost:9092"}),
			TopicCompleted: envOrDefault("KAFKA_TOPIC_COMPLETED", "alignment.completed"),
			TopicFailed:    envOrDefault("KAFKA_TOPIC_FAILED", "alignment.failed"),
		},
		Observability: ObservabilityConfig{
			Addr:      envOrDefault("OBSERVABILITY_ADDR", ":9090"),
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}

	// Kafka client ID falls back to the service name.
	cfg.Kafka.ClientID = envOrDefault("KAFKA_CLIENT_ID", cfg.Service.Name)

	return cfg
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	switch c.Engine.Provider {
	case "mfa", "gcloud", "mock":
	default:
		return fmt.Errorf("unknown engine provider %q", c.Engine.Provider)
	}
	if c.Engine.AlignTimeout <= 0 {
		return fmt.Errorf("align timeout must be positive, got %v", c.Engine.AlignTimeout)
	}
	if c.Engine.ResampleTimeout <= 0 {
		return fmt.Errorf("resample timeout must be positive, got %v", c.Engine.ResampleTimeout)
	}
	if c.Audio.DefaultSampleRate <= 0 {
		return fmt.Errorf("default sample rate must be positive, got %d", c.Audio.DefaultSampleRate)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http addr must not be empty")
	}
	if c.Observability.Addr == "" {
		return fmt.Errorf("observability addr must not be empty")
	}
	return nil
}

func defaultMFARootDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "MFA"
	}
	return filepath.Join(home, "Documents", "MFA")
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
