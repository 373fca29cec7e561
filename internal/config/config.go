package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"playground/internal/logger"
)

type Config struct {
	// OCR Configuration
	OCREngine       string
	OCRLanguage     string
	TessdataBestDir string

	// Preprocessing Configuration
	PreprocessBackend string

	// AWS / Storage Relay Configuration
	AWSAccessKeyID          string
	AWSSecretAccessKey      string
	AWSRegion               string
	S3Endpoint              string
	RelayAPIURL             string
	RelayDefaultCredentials bool
	RelayTimeoutSeconds     int

	// Google Cloud Configuration
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// OpenAI Configuration
	OpenAIAPIKey         string
	OpenAIModel          string
	OpenAITemperature    float32
	CompletionMaxRetries int

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
	LogNoColor    bool
}

// Supported values for OCR_ENGINE.
const (
	EngineTesseract = "tesseract"
	EngineVision    = "vision"
)

// Supported values for PREPROCESS_BACKEND.
const (
	BackendImaging = "imaging"
	BackendOpenCV  = "opencv"
)

func Load() (*Config, error) {
	config := &Config{
		OCREngine:               strings.ToLower(getEnv("OCR_ENGINE", EngineTesseract)),
		OCRLanguage:             getEnv("OCR_LANGUAGE", "kor"),
		TessdataBestDir:         getEnv("TESSDATA_BEST_DIR", ""),
		PreprocessBackend:       strings.ToLower(getEnv("PREPROCESS_BACKEND", BackendImaging)),
		AWSAccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSRegion:               getEnv("AWS_REGION", "ap-northeast-2"),
		S3Endpoint:              getEnv("S3_ENDPOINT", ""),
		RelayAPIURL:             getEnv("RELAY_API_URL", ""),
		RelayDefaultCredentials: getEnvBool("RELAY_DEFAULT_CREDENTIALS", false),
		RelayTimeoutSeconds:     getEnvInt("RELAY_TIMEOUT_SECONDS", 60),
		GoogleCloudProject:      getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:     getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:   getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		OpenAIAPIKey:            getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:             getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITemperature:       getEnvFloat("OPENAI_TEMPERATURE", 0.1),
		CompletionMaxRetries:    getEnvInt("COMPLETION_MAX_RETRIES", 3),
		GoogleSheetURL:          getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:    getEnv("GOOGLE_SHEET_WORKSHEET", "OCR_Log"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:           getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:               getEnv("LOG_OUTPUT", "stderr"),
		LogNoColor:              os.Getenv("NO_COLOR") != "",
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Default returns the configuration Load would produce with an empty environment.
func Default() *Config {
	return &Config{
		OCREngine:            EngineTesseract,
		OCRLanguage:          "kor",
		PreprocessBackend:    BackendImaging,
		AWSRegion:            "ap-northeast-2",
		RelayTimeoutSeconds:  60,
		GoogleCloudLocation:  "us",
		OpenAIModel:          "gpt-4o-mini",
		OpenAITemperature:    0.1,
		CompletionMaxRetries: 3,
		GoogleSheetWorksheet: "OCR_Log",
		LogLevel:             "info",
		LogFormat:            "console",
		LogTimeFormat:        "2006-01-02T15:04:05Z07:00",
		LogOutput:            "stderr",
	}
}

func (c *Config) validate() error {
	switch c.OCREngine {
	case EngineTesseract, EngineVision:
	default:
		return fmt.Errorf("OCR_ENGINE must be %q or %q, got %q", EngineTesseract, EngineVision, c.OCREngine)
	}
	if c.OCRLanguage == "" {
		return fmt.Errorf("OCR_LANGUAGE is required")
	}
	if c.PreprocessBackend == "" {
		return fmt.Errorf("PREPROCESS_BACKEND is required")
	}
	if c.RelayTimeoutSeconds <= 0 {
		return fmt.Errorf("RELAY_TIMEOUT_SECONDS must be positive")
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
		NoColor:    c.LogNoColor,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float32) float32 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return defaultValue
	}
	return float32(parsed)
}
