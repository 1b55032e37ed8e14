package config

import (
	"fmt"
	"os"
	"strconv"

	"invoiceocr/internal/logger"
)

// Backend names accepted by OCR_BACKEND.
const (
	BackendDocumentAI = "documentai"
	BackendVision     = "vision"
)

type Config struct {
	// Google Cloud Configuration
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string

	// Object store Configuration
	GCSBucket string

	// OCR Configuration
	OCRBackend    string
	EnhanceImages bool

	// Rasterizer Configuration
	RasterDPI int

	// Server Configuration
	ListenAddr string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		GCSBucket:                  getEnv("GCS_BUCKET", ""),
		OCRBackend:                 getEnv("OCR_BACKEND", BackendDocumentAI),
		EnhanceImages:              getEnvBool("ENHANCE_IMAGES", false),
		RasterDPI:                  getEnvInt("RASTER_DPI", 200),
		ListenAddr:                 getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.GoogleCloudProject == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required")
	}
	if c.GCSBucket == "" {
		return fmt.Errorf("GCS_BUCKET is required")
	}
	switch c.OCRBackend {
	case BackendDocumentAI:
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required when OCR_BACKEND=%s", BackendDocumentAI)
		}
	case BackendVision:
	default:
		return fmt.Errorf("OCR_BACKEND must be %q or %q, got %q", BackendDocumentAI, BackendVision, c.OCRBackend)
	}
	if c.RasterDPI <= 0 {
		return fmt.Errorf("RASTER_DPI must be positive")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
