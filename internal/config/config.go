package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Speech engine implementations.
const (
	EngineREST = "rest"
	EngineSDK  = "sdk"
)

// Word fallback modes.
const (
	FallbackSynthesize = "synthesize"
	FallbackStrict     = "strict"
)

// Backend selectors for optional stores.
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendR2       = "r2"
	BackendGCS      = "gcs"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Host     string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"SERVER_HTTP_PORT" default:"3001"`

	Environment string `envconfig:"SERVER_ENV" default:"production"`

	// Timeouts
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Azure AI Speech
	AzureSubscriptionKey string `envconfig:"AZURE_SUBSCRIPTION_KEY"`
	AzureServiceRegion   string `envconfig:"AZURE_SERVICE_REGION"`
	AzureSpeechEndpoint  string `envconfig:"AZURE_SPEECH_ENDPOINT"`
	SpeechEngine         string `envconfig:"SPEECH_ENGINE" default:"rest"`
	SpeechLanguage       string `envconfig:"SPEECH_LANGUAGE" default:"en-US"`

	// Assessment
	DefaultReferenceText string        `envconfig:"DEFAULT_REFERENCE_TEXT" default:"The quick brown fox jumps over the lazy dog."`
	MaxUploadBytes       int64         `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	RecognitionTimeout   time.Duration `envconfig:"RECOGNITION_TIMEOUT" default:"0s"`
	WordFallbackMode     string        `envconfig:"WORD_FALLBACK_MODE" default:"synthesize"`

	// Practice sentences
	PracticeSentencesFile string `envconfig:"PRACTICE_SENTENCES_FILE"`

	// Attempt history
	HistoryBackend string        `envconfig:"HISTORY_BACKEND" default:"none"`
	HistoryLimit   int           `envconfig:"HISTORY_LIMIT" default:"50"`
	HistoryTTL     time.Duration `envconfig:"HISTORY_TTL" default:"720h"`

	// Redis
	RedisURL string `envconfig:"REDIS_URL"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Audio archive
	AudioArchiveBackend string `envconfig:"AUDIO_ARCHIVE_BACKEND" default:"none"`

	// Cloudflare R2
	CloudflareAccessKeyID string `envconfig:"CLOUDFLARE_ACCESS_KEY_ID"`
	CloudflareSecretKey   string `envconfig:"CLOUDFLARE_SECRET_ACCESS_KEY"`
	CloudflareR2Endpoint  string `envconfig:"CLOUDFLARE_R2_ENDPOINT"`
	CloudflarePublicURL   string `envconfig:"CLOUDFLARE_PUBLIC_URL"`
	CloudflareBucketName  string `envconfig:"CLOUDFLARE_BUCKET_NAME"`

	// Google Cloud
	GCSBucket    string `envconfig:"GCS_BUCKET"`
	GCPProjectID string `envconfig:"GCP_PROJECT_ID"`
	GCPSABase64  string `envconfig:"GCP_SA_BASE64"`
	EventsTopic  string `envconfig:"EVENTS_TOPIC"`

	// Metrics
	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`

	// CORS
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000,http://localhost:8080"`
	CORSAllowedMethods []string `envconfig:"CORS_ALLOWED_METHODS" default:"GET,POST,OPTIONS"`
	CORSAllowedHeaders []string `envconfig:"CORS_ALLOWED_HEADERS" default:"Accept,Content-Type,X-Request-ID"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	c.SpeechEngine = strings.ToLower(strings.TrimSpace(c.SpeechEngine))
	c.WordFallbackMode = strings.ToLower(strings.TrimSpace(c.WordFallbackMode))
	c.HistoryBackend = strings.ToLower(strings.TrimSpace(c.HistoryBackend))
	c.AudioArchiveBackend = strings.ToLower(strings.TrimSpace(c.AudioArchiveBackend))
	c.AzureSubscriptionKey = strings.TrimSpace(c.AzureSubscriptionKey)
	c.AzureServiceRegion = strings.TrimSpace(c.AzureServiceRegion)
	c.AzureSpeechEndpoint = strings.TrimRight(strings.TrimSpace(c.AzureSpeechEndpoint), "/")
	c.DefaultReferenceText = strings.TrimSpace(c.DefaultReferenceText)
	c.GCPSABase64 = strings.TrimSpace(c.GCPSABase64)
}

// Validate checks settings that would otherwise fail at request time.
// Missing Azure credentials are not an error here: the service starts and
// reports a configuration error per request.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 {
		return fmt.Errorf("SERVER_HTTP_PORT must be > 0")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be > 0")
	}
	if c.RecognitionTimeout < 0 {
		return fmt.Errorf("RECOGNITION_TIMEOUT must be >= 0")
	}
	if c.DefaultReferenceText == "" {
		return fmt.Errorf("DEFAULT_REFERENCE_TEXT must not be empty")
	}

	switch c.SpeechEngine {
	case EngineREST, EngineSDK:
	default:
		return fmt.Errorf("SPEECH_ENGINE must be one of %q, %q", EngineREST, EngineSDK)
	}

	switch c.WordFallbackMode {
	case FallbackSynthesize, FallbackStrict:
	default:
		return fmt.Errorf("WORD_FALLBACK_MODE must be one of %q, %q", FallbackSynthesize, FallbackStrict)
	}

	switch c.HistoryBackend {
	case BackendNone, BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when HISTORY_BACKEND=postgres")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when HISTORY_BACKEND=redis")
		}
	default:
		return fmt.Errorf("HISTORY_BACKEND must be one of none, memory, postgres, redis")
	}
	if c.HistoryBackend != BackendNone && c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be > 0")
	}

	switch c.AudioArchiveBackend {
	case BackendNone:
	case BackendR2:
		if c.CloudflareAccessKeyID == "" || c.CloudflareSecretKey == "" || c.CloudflareR2Endpoint == "" || c.CloudflareBucketName == "" {
			return fmt.Errorf("CLOUDFLARE_ACCESS_KEY_ID, CLOUDFLARE_SECRET_ACCESS_KEY, CLOUDFLARE_R2_ENDPOINT and CLOUDFLARE_BUCKET_NAME are required when AUDIO_ARCHIVE_BACKEND=r2")
		}
	case BackendGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when AUDIO_ARCHIVE_BACKEND=gcs")
		}
	default:
		return fmt.Errorf("AUDIO_ARCHIVE_BACKEND must be one of none, r2, gcs")
	}

	if c.EventsTopic != "" && c.GCPProjectID == "" && c.GCPSABase64 == "" {
		return fmt.Errorf("GCP_PROJECT_ID or GCP_SA_BASE64 is required when EVENTS_TOPIC is set")
	}
	return nil
}

// HTTPAddress returns the HTTP server address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MaxUploadMiB returns the upload cap in whole mebibytes for user-facing messages.
func (c *Config) MaxUploadMiB() int64 {
	return c.MaxUploadBytes >> 20
}
