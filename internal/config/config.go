package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"lmswatch-backend/internal/db"
	"lmswatch-backend/internal/notify"
	"lmswatch-backend/internal/scrapers/lms"
	"lmswatch-backend/internal/service"
	"lmswatch-backend/internal/telemetry"
	"lmswatch-backend/lib/configutil"

	"github.com/joho/godotenv"
)

const (
	EnvBotToken = "LMSWATCH_BOT_TOKEN"
	EnvBaseURL  = "LMSWATCH_BASE_URL"
	EnvDatabase = "LMSWATCH_DATABASE"
)

type HttpConfig struct {
	Port int `json:"port"`
}

type Config struct {
	Portal    lms.Config       `json:"portal"`
	Database  db.Config        `json:"database"`
	Notifier  notify.Config    `json:"notifier"`
	Schedule  service.Config   `json:"schedule"`
	Http      HttpConfig       `json:"http"`
	Telemetry telemetry.Config `json:"telemetry"`
}

func (c Config) Validate() error {
	return errors.Join(
		c.Portal.Validate(),
		c.Database.Validate(),
		c.Notifier.Validate(),
	)
}

// applyEnv overrides file values with the ones found in the environment.
func (c *Config) applyEnv(getenv func(string) string) {
	if token := getenv(EnvBotToken); token != "" {
		c.Notifier.Telegram.BotToken = token
	}
	if baseURL := getenv(EnvBaseURL); baseURL != "" {
		c.Portal.BaseURL = baseURL
	}
	if database := getenv(EnvDatabase); database != "" {
		if strings.HasPrefix(database, "libsql://") ||
			strings.HasPrefix(database, "http://") ||
			strings.HasPrefix(database, "https://") {
			c.Database.Url = database
		} else {
			c.Database.File = database
		}
	}
	if c.Http.Port == 0 {
		c.Http.Port = 8080
	}
}

// Load reads .env (if present) into the environment, then the json5 config
// file (searched for from the working directory upwards) and finally applies
// environment overrides. A missing config file is fine as long as the
// environment supplies what is required.
func Load(name string) (Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := configutil.ReadRecursively[Config](name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", name, err)
	}

	cfg.applyEnv(os.Getenv)
	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
