package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/berniyo/rdcard-lambda/internal/rdcard"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultPollTimeout  = 5 * time.Minute
)

// Config is the process configuration read from the environment.
type Config struct {
	APIKey        string
	APISecret     string
	Environment   rdcard.Environment
	BaseURL       string
	Timeout       time.Duration
	SendTimestamp bool

	CallbackURL    string
	CallbackSecret string
	PollInterval   time.Duration
	PollTimeout    time.Duration

	AppEnv string
}

// Load reads configuration from the environment, after merging a .env file
// from the working directory when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:         strings.TrimSpace(os.Getenv("RDCARD_API_KEY")),
		APISecret:      os.Getenv("RDCARD_API_SECRET"),
		Environment:    rdcard.Environment(strings.ToLower(strings.TrimSpace(os.Getenv("RDCARD_ENVIRONMENT")))),
		BaseURL:        strings.TrimSpace(os.Getenv("RDCARD_BASE_URL")),
		CallbackURL:    strings.TrimSpace(os.Getenv("CHECKOUT_CALLBACK_URL")),
		CallbackSecret: os.Getenv("CHECKOUT_CALLBACK_SECRET"),
		AppEnv:         os.Getenv("APP_ENV"),
	}

	if cfg.APIKey == "" {
		return nil, errors.New("RDCARD_API_KEY must be set")
	}
	if cfg.Environment == "" {
		cfg.Environment = rdcard.EnvironmentSandbox
	}

	var err error
	if cfg.Timeout, err = millisFromEnv("RDCARD_TIMEOUT_MS", rdcard.DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.SendTimestamp, err = boolFromEnv("RDCARD_SEND_TIMESTAMP"); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = durationFromEnv("CHECKOUT_POLL_INTERVAL", defaultPollInterval); err != nil {
		return nil, err
	}
	if cfg.PollTimeout, err = durationFromEnv("CHECKOUT_POLL_TIMEOUT", defaultPollTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ClientConfig maps the gateway settings onto an rdcard.Config.
func (c *Config) ClientConfig() rdcard.Config {
	return rdcard.Config{
		APIKey:        c.APIKey,
		APISecret:     c.APISecret,
		Environment:   c.Environment,
		BaseURL:       c.BaseURL,
		Timeout:       c.Timeout,
		SendTimestamp: c.SendTimestamp,
	}
}

func millisFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

func boolFromEnv(key string) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return v, nil
}
