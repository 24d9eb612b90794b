package config

import (
	"os"
)

type Config struct {
	DatabaseURL   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Model         string
	FineTuneModel string
	NatsURL       string
	NatsToken     string
	LogLevel      string
}

func Load() Config {
	return Config{
		DatabaseURL:   envStr("DATABASE_URL", ""),
		OpenAIAPIKey:  envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL: envStr("OPENAI_API_BASE", "https://api.openai.com/v1"),
		Model:         envStr("CVTUNE_MODEL", "gpt-4o-mini"),
		FineTuneModel: envStr("CVTUNE_FINETUNE_MODEL", "gpt-4o-mini-2024-07-18"),
		NatsURL:       envStr("NATS_URL", ""),
		NatsToken:     envStr("NATS_TOKEN", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
