package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Notification channels
const (
	ChannelLog   = "log"
	ChannelHTTP  = "http"
	ChannelKafka = "kafka"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server   ServerConfig
	Gesture  GestureConfig
	Upload   UploadConfig
	Notify   NotifyConfig
	Catalog  CatalogConfig
	Session  SessionConfig
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

type GestureConfig struct {
	Endpoint  string        `envconfig:"GESTURE_ENDPOINT"` // hand estimation service; empty rejects every photo
	Timeout   time.Duration `envconfig:"GESTURE_TIMEOUT" default:"10s"`
	MaxPixels int           `envconfig:"GESTURE_MAX_PIXELS" default:"40000000"` // decoded width x height limit
}

type UploadConfig struct {
	MaxBytes int64   `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	Rate     float64 `envconfig:"UPLOAD_RATE" default:"1"` // uploads per second per client
	Burst    int     `envconfig:"UPLOAD_BURST" default:"5"`
	SpoolDir string  `envconfig:"SPOOL_DIR"`
}

type NotifyConfig struct {
	Channel      string        `envconfig:"NOTIFY_CHANNEL" default:"log"`
	Endpoint     string        `envconfig:"NOTIFY_ENDPOINT"`
	Target       string        `envconfig:"NOTIFY_TARGET" default:"3464119301"`
	Timeout      time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"5s"`
	KafkaBrokers []string      `envconfig:"NOTIFY_KAFKA_BROKERS"`
	KafkaTopic   string        `envconfig:"NOTIFY_KAFKA_TOPIC" default:"order-notifications"`
}

type CatalogConfig struct {
	URLs  []string `envconfig:"COUPON_CATALOG_URLS"`
	Files []string `envconfig:"COUPON_CATALOG_FILES"`
}

type SessionConfig struct {
	IdleTimeout   time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"2h"`
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"10m"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("PORT is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return errors.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.Gesture.MaxPixels <= 0 {
		return errors.New("GESTURE_MAX_PIXELS must be positive")
	}

	if c.Upload.MaxBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if c.Upload.Rate <= 0 || c.Upload.Burst <= 0 {
		return errors.New("UPLOAD_RATE and UPLOAD_BURST must be positive")
	}

	switch c.Notify.Channel {
	case ChannelLog:
	case ChannelHTTP:
		if c.Notify.Endpoint == "" {
			return errors.New("NOTIFY_ENDPOINT is required for the http channel")
		}
	case ChannelKafka:
		if len(c.Notify.KafkaBrokers) == 0 || c.Notify.KafkaTopic == "" {
			return errors.New("NOTIFY_KAFKA_BROKERS and NOTIFY_KAFKA_TOPIC are required for the kafka channel")
		}
	default:
		return errors.Errorf("invalid notify channel: %s (must be log, http, or kafka)", c.Notify.Channel)
	}

	if c.Session.SweepInterval <= 0 {
		return errors.New("SESSION_SWEEP_INTERVAL must be positive")
	}

	return nil
}
