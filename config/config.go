package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BotToken     string        `envconfig:"BOT_TOKEN"`
	DBPath       string        `envconfig:"DB_PATH" default:"kudos.db"`
	Verbose      bool          `envconfig:"LOG_VERBOSE" default:"false"`
	PollTimeout  time.Duration `envconfig:"POLL_TIMEOUT" default:"10s"`
	SessionIdle  time.Duration `envconfig:"SESSION_IDLE" default:"1h"`
	SessionSweep string        `envconfig:"SESSION_SWEEP" default:"*/10 * * * *"`
	PageSize     int           `envconfig:"PAGE_SIZE" default:"8"`
}

// fileConfig is the optional config.json next to the binary.
type fileConfig struct {
	BotToken string `json:"bot_token"`
}

func Load() (Config, error) {
	return LoadWithFile("config.json")
}

// LoadWithFile reads the environment and falls back to path for the bot token.
func LoadWithFile(path string) (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}

	if cfg.BotToken == "" {
		file, err := os.Open(path)
		if err == nil {
			var fc fileConfig
			if err := json.NewDecoder(file).Decode(&fc); err == nil {
				cfg.BotToken = fc.BotToken
			}
			file.Close()
		}
	}

	if cfg.PageSize < 1 {
		return Config{}, fmt.Errorf("PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	return cfg, nil
}

// RequireToken is checked only by commands that talk to Telegram.
func (c Config) RequireToken() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is not set and config.json has no bot_token")
	}
	return nil
}
