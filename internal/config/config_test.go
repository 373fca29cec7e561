package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"OCR_ENGINE", "OCR_LANGUAGE", "PREPROCESS_BACKEND", "AWS_REGION", "RELAY_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OCREngine != EngineTesseract {
		t.Errorf("OCREngine = %q, want %q", cfg.OCREngine, EngineTesseract)
	}
	if cfg.OCRLanguage != "kor" {
		t.Errorf("OCRLanguage = %q, want kor", cfg.OCRLanguage)
	}
	if cfg.AWSRegion != "ap-northeast-2" {
		t.Errorf("AWSRegion = %q, want ap-northeast-2", cfg.AWSRegion)
	}
	if cfg.PreprocessBackend != BackendImaging {
		t.Errorf("PreprocessBackend = %q, want %q", cfg.PreprocessBackend, BackendImaging)
	}
}

func TestLoadRejectsUnknownEngine(t *testing.T) {
	t.Setenv("OCR_ENGINE", "paddle")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("RELAY_API_URL", "https://api.example.com/upload")

	cfg, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if cfg != nil {
		t.Errorf("Load returned a config alongside the error: %+v", cfg)
	}
}

func TestNoColorAcceptsAnyValue(t *testing.T) {
	for _, value := range []string{"1", "true", "yes"} {
		t.Setenv("NO_COLOR", value)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if !cfg.LogNoColor {
			t.Errorf("NO_COLOR=%q: LogNoColor = false, want true", value)
		}
	}

	t.Setenv("NO_COLOR", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogNoColor {
		t.Error("empty NO_COLOR: LogNoColor = true, want false")
	}
}

func TestLoadParsesTypedValues(t *testing.T) {
	t.Setenv("OCR_ENGINE", "VISION")
	t.Setenv("RELAY_DEFAULT_CREDENTIALS", "true")
	t.Setenv("RELAY_TIMEOUT_SECONDS", "15")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OCREngine != EngineVision {
		t.Errorf("OCREngine = %q, want %q", cfg.OCREngine, EngineVision)
	}
	if !cfg.RelayDefaultCredentials {
		t.Error("RelayDefaultCredentials = false, want true")
	}
	if cfg.RelayTimeoutSeconds != 15 {
		t.Errorf("RelayTimeoutSeconds = %d, want 15", cfg.RelayTimeoutSeconds)
	}
	if cfg.AWSAccessKeyID != "AKIA" || cfg.AWSSecretAccessKey != "secret" {
		t.Errorf("AWS keys = %q/%q", cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey)
	}
	if cfg.S3Endpoint != "http://localhost:9000" {
		t.Errorf("S3Endpoint = %q", cfg.S3Endpoint)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().validate(); err != nil {
		t.Fatalf("Default().validate: %v", err)
	}
}

func TestLoadOpenAISettings(t *testing.T) {
	t.Setenv("OPENAI_TEMPERATURE", "0.4")
	t.Setenv("COMPLETION_MAX_RETRIES", "5")
	t.Setenv("OPENAI_MODEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAITemperature < 0.39 || cfg.OpenAITemperature > 0.41 {
		t.Errorf("OpenAITemperature = %v, want 0.4", cfg.OpenAITemperature)
	}
	if cfg.CompletionMaxRetries != 5 {
		t.Errorf("CompletionMaxRetries = %d, want 5", cfg.CompletionMaxRetries)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("OpenAIModel = %q, want gpt-4o-mini", cfg.OpenAIModel)
	}

	t.Setenv("OPENAI_TEMPERATURE", "warm")
	if cfg, _ := Load(); cfg.OpenAITemperature != 0.1 {
		t.Errorf("invalid OPENAI_TEMPERATURE: got %v, want default 0.1", cfg.OpenAITemperature)
	}
}
