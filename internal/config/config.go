// Package config loads application configuration from the environment.
package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"
)

// Config holds the configuration for the application.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GroqAPIKey   string `env:"GROQ_API_KEY"`

	DBPath string `env:"DB_PATH,default=data/dinner-planner.db"`

	// Telegram settings, required for the bot binary only.
	TelegramBotToken       string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramWebhookURL     string  `env:"TELEGRAM_WEBHOOK_URL"`
	TelegramAllowedUserIDs []int64 `env:"TELEGRAM_ALLOWED_USER_IDS"`
	AdminTelegramID        int64   `env:"ADMIN_TELEGRAM_ID"`

	ListenAddr string `env:"LISTEN_ADDR,default=:8080"`
}

// NewFromEnv creates a new Config from environment variables. At least one
// model API key must be configured.
func NewFromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if cfg.GeminiAPIKey == "" && cfg.GroqAPIKey == "" {
		return nil, fmt.Errorf("neither GEMINI_API_KEY nor GROQ_API_KEY is set")
	}

	return &cfg, nil
}
