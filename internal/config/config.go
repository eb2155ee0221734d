package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds every tunable of the transcription pipeline. Chunking policy
// values (target duration, search window, silence parameters) are exposed
// here rather than hard-coded so deployments can adjust them per workload.
type Config struct {
	// Speech-to-text backend settings.
	APIKey  string `validate:"required"`
	BaseURL string `validate:"required,url"`
	Model   string `validate:"required"`

	// Audio extraction.
	SampleRate int `validate:"gt=0"`

	// Chunking policy. All durations are in seconds.
	ChunkDuration    float64 `validate:"gt=0"`
	SearchWindow     float64 `validate:"gte=0"`
	SilenceThreshold float64 `validate:"lt=0"`
	MinSilence       float64 `validate:"gt=0"`

	// Transcription dispatch.
	RequestsPerMinute int           `validate:"gt=0"`
	MaxWorkers        int           `validate:"gt=0"`
	RequestTimeout    time.Duration `validate:"gt=0"`

	// Fallback confidence when the backend omits one.
	DefaultConfidence float64 `validate:"gte=0,lte=1"`

	// Root directory for run-scoped temporary artifacts.
	// Defaults to the OS temp dir when empty.
	TempDir string
}

// Defaults returns the pipeline configuration with every policy constant at
// its default value and no credential set.
func Defaults() Config {
	return Config{
		BaseURL:           "https://api.groq.com/openai/v1",
		Model:             "whisper-large-v3",
		SampleRate:        16000,
		ChunkDuration:     300,
		SearchWindow:      30,
		SilenceThreshold:  -40,
		MinSilence:        1.0,
		RequestsPerMinute: 25,
		MaxWorkers:        5,
		RequestTimeout:    2 * time.Minute,
		DefaultConfidence: 0.8,
	}
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for anything unset.
func FromEnv() Config {
	cfg := Defaults()

	cfg.APIKey = os.Getenv("GROQ_API_KEY")
	if v := os.Getenv("TRANSCRIBE_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("TRANSCRIBE_MODEL"); v != "" {
		cfg.Model = v
	}
	if v, ok := envFloat("TRANSCRIBE_CHUNK_DURATION"); ok {
		cfg.ChunkDuration = v
	}
	if v, ok := envFloat("TRANSCRIBE_SEARCH_WINDOW"); ok {
		cfg.SearchWindow = v
	}
	if v, ok := envFloat("TRANSCRIBE_SILENCE_THRESHOLD"); ok {
		cfg.SilenceThreshold = v
	}
	if v, ok := envFloat("TRANSCRIBE_MIN_SILENCE"); ok {
		cfg.MinSilence = v
	}
	if v, ok := envInt("TRANSCRIBE_REQUESTS_PER_MINUTE"); ok {
		cfg.RequestsPerMinute = v
	}
	if v, ok := envInt("TRANSCRIBE_MAX_WORKERS"); ok {
		cfg.MaxWorkers = v
	}
	if v := os.Getenv("TRANSCRIBE_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("TRANSCRIBE_TEMP_DIR"); v != "" {
		cfg.TempDir = v
	}

	return cfg
}

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func envFloat(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
