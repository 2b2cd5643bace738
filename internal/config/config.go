// Package config reads the server configuration from the environment.
package config

import "os"

const (
	defaultPort    = "3000"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	defaultModel   = "gemini-2.0-flash"
)

type Config struct {
	// APIKey is the Gemini credential. Either GEMINI_API_KEY or
	// GOOGLE_API_KEY is accepted; empty means generation is unconfigured.
	APIKey  string
	BaseURL string
	Model   string

	// DatabaseURL selects the persistent store. Empty keeps everything
	// in memory.
	DatabaseURL string

	Env       string
	Port      string
	JWTSecret string
}

func FromEnv() Config {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}

	return Config{
		APIKey:      apiKey,
		BaseURL:     getEnv("GEMINI_BASE_URL", defaultBaseURL),
		Model:       getEnv("GEMINI_MODEL", defaultModel),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Env:         getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", defaultPort),
		JWTSecret:   getEnv("JWT_SECRET", "cyber-ai-dev-secret"),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
