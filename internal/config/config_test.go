package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("CLINIC_TIMEZONE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("LLM_TIMEOUT", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.LLMProvider != "scripted" {
		t.Fatalf("expected scripted provider by default, got %s", cfg.LLMProvider)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("expected default openai model, got %s", cfg.OpenAIModel)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Fatalf("expected default llm timeout, got %s", cfg.LLMTimeout)
	}
	if cfg.TranscriptTTL != 7*24*time.Hour {
		t.Fatalf("expected default transcript ttl, got %s", cfg.TranscriptTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("expected no cors origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %s", cfg.Location())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("LLM_PROVIDER", " OpenAI ")
	t.Setenv("LLM_FALLBACK_PROVIDER", "bedrock")
	t.Setenv("LLM_MAX_TOKENS", "300")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("TRANSCRIPT_TTL", "24h")
	t.Setenv("CLINIC_TIMEZONE", "America/New_York")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("START_CALL_RATE", "not-a-number")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.LLMProvider != "openai" || cfg.LLMFallbackProvider != "bedrock" {
		t.Fatalf("expected normalized providers, got %q/%q", cfg.LLMProvider, cfg.LLMFallbackProvider)
	}
	if cfg.LLMMaxTokens != 300 {
		t.Fatalf("expected max tokens override, got %d", cfg.LLMMaxTokens)
	}
	if cfg.LLMTemperature != 0.2 {
		t.Fatalf("expected temperature override, got %v", cfg.LLMTemperature)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Fatalf("expected llm timeout override, got %s", cfg.LLMTimeout)
	}
	if cfg.TranscriptTTL != 24*time.Hour {
		t.Fatalf("expected transcript ttl override, got %s", cfg.TranscriptTTL)
	}
	if got := cfg.Location().String(); got != "America/New_York" {
		t.Fatalf("expected clinic location, got %s", got)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.StartCallRate != 1 {
		t.Fatalf("expected invalid rate to fall back to default, got %v", cfg.StartCallRate)
	}
}
