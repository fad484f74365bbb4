package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	AdminJWTSecret     string
	StartCallRate      float64
	StartCallBurst     int

	// Clinic
	ClinicName     string
	ClinicTimezone string
	OpeningPrompt  string

	// Completion providers
	LLMProvider         string
	LLMFallbackProvider string
	LLMMaxTokens        int
	LLMTemperature      float64
	LLMTimeout          time.Duration
	OpenAIAPIKey        string
	OpenAIModel         string
	GeminiAPIKey        string
	GeminiModel         string
	BedrockModelID      string

	// Storage
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	TranscriptTTL time.Duration

	// AWS
	AWSRegion             string
	AWSAccessKeyID        string
	AWSSecretAccessKey    string
	AWSEndpointOverride   string
	BookingEventsQueueURL string

	// Staff notification email
	EmailProvider    string
	SendGridAPIKey   string
	EmailFromAddress string
	EmailFromName    string
	StaffNotifyEmail string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		StartCallRate:      getEnvAsFloat("START_CALL_RATE", 1),
		StartCallBurst:     getEnvAsInt("START_CALL_BURST", 5),

		ClinicName:     getEnv("CLINIC_NAME", "Dr. Smith's clinic"),
		ClinicTimezone: getEnv("CLINIC_TIMEZONE", "UTC"),
		OpeningPrompt:  getEnv("OPENING_PROMPT", ""),

		LLMProvider:         strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "scripted"))),
		LLMFallbackProvider: strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK_PROVIDER", ""))),
		LLMMaxTokens:        getEnvAsInt("LLM_MAX_TOKENS", 150),
		LLMTemperature:      getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		LLMTimeout:          getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		TranscriptTTL: getEnvAsDuration("TRANSCRIPT_TTL", 7*24*time.Hour),

		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:        getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:   getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BookingEventsQueueURL: getEnv("BOOKING_EVENTS_QUEUE_URL", ""),

		EmailProvider:    strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Clinic Booking Agent"),
		StaffNotifyEmail: getEnv("STAFF_NOTIFY_EMAIL", ""),
	}
}

// Location resolves ClinicTimezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
