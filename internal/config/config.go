package config

import (
	"fmt"
	"os"
	"time"
)

// Config is environment-only; there are no config files. A missing required
// credential is a startup error, surfaced before the process starts serving.
type Config struct {
	DBURL            string
	SlackBotToken    string
	SlackSigningKey  string
	ListenAddr       string
	ReminderInterval time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		DBURL:            os.Getenv("DB_URL"),
		SlackBotToken:    os.Getenv("SLACK_BOT_TOKEN"),
		SlackSigningKey:  os.Getenv("SLACK_SIGNING_SECRET"),
		ListenAddr:       os.Getenv("LISTEN_ADDR"),
		ReminderInterval: time.Minute,
	}
	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.SlackBotToken == "" {
		return Config{}, fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if cfg.SlackSigningKey == "" {
		return Config{}, fmt.Errorf("SLACK_SIGNING_SECRET is required")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if v := os.Getenv("REMINDER_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("REMINDER_INTERVAL must be a positive duration, got %q", v)
		}
		cfg.ReminderInterval = d
	}
	return cfg, nil
}
