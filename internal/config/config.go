package config

import (
	"os"
	"time"
)

type Config struct {
	Addr          string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	JWTSecret     string
	OwnerEmail    string
	OwnerPassword string
	DataDir       string
	GenAIBaseURL  string
	PollInterval  time.Duration
}

func Load() Config {
	return Config{
		Addr:          env("VEO_SERVER_ADDR", ":8080"),
		AccessTTL:     envDuration("VEO_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:    envDuration("VEO_REFRESH_TTL", 14*24*time.Hour),
		JWTSecret:     env("VEO_JWT_SECRET", "dev-change-me"),
		OwnerEmail:    env("VEO_OWNER_EMAIL", "owner@veo.local"),
		OwnerPassword: env("VEO_OWNER_PASSWORD", "owner123456"),
		DataDir:       env("VEO_DATA_DIR", "data"),
		GenAIBaseURL:  env("VEO_GENAI_BASE_URL", ""),
		PollInterval:  envDuration("VEO_POLL_INTERVAL", 10*time.Second),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
