package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	InternalAPIKey string
	AdminJWTSecret string

	UseMemoryQueue bool
	WorkerCount    int
	TurnQueueURL   string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	BedrockModelID      string

	GeminiAPIKey  string
	GeminiModelID string

	RedisAddr     string
	RedisPassword string

	DatabaseURL string

	SheetsCredentialsFile string

	OracleTimeout   time.Duration
	ProviderTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		InternalAPIKey: getEnv("INTERNAL_API_KEY", ""),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", true),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 4),
		TurnQueueURL:   getEnv("TURN_QUEUE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		SheetsCredentialsFile: getEnv("SHEETS_CREDENTIALS_FILE", ""),

		OracleTimeout:   getEnvAsDuration("ORACLE_TIMEOUT", 60*time.Second),
		ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", 20*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
