package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the bot's environment-driven configuration. Spotify
// credentials are optional; without them the catalog backend is
// disabled and searches fall back to YouTube only.
type Config struct {
	DiscordToken        string   `env:"DISCORD_TOKEN,required"`
	SpotifyClientID     string   `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string   `env:"SPOTIFY_CLIENT_SECRET"`
	StoragePath         string   `env:"STORAGE_PATH" envDefault:"datastore.json"`
	LogLevel            string   `env:"LOG_LEVEL" envDefault:"info"`
	LogDir              string   `env:"LOG_DIR" envDefault:"logs"`
	OwnerIDs            []string `env:"OWNER_IDS" envSeparator:","`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// SpotifyConfigured reports whether the catalog backend has credentials.
func (c *Config) SpotifyConfigured() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// IsOwner reports whether a user may run owner-only commands.
func (c *Config) IsOwner(userID string) bool {
	for _, id := range c.OwnerIDs {
		if id == userID {
			return true
		}
	}
	return false
}
