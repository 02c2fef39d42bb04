package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Gesture:  GestureConfig{MaxPixels: 1000},
		Upload:   UploadConfig{MaxBytes: 1024, Rate: 1, Burst: 1},
		Notify:   NotifyConfig{Channel: ChannelLog},
		Session:  SessionConfig{SweepInterval: time.Minute},
		LogLevel: "info",
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GESTURE_TIMEOUT", "3s")
	t.Setenv("GESTURE_MAX_PIXELS", "1000000")
	t.Setenv("NOTIFY_CHANNEL", "kafka")
	t.Setenv("NOTIFY_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("COUPON_CATALOG_FILES", "/data/a.txt,/data/b.txt.gz")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port = %s, want 9090", cfg.Server.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %s, want debug", cfg.LogLevel)
	}
	if cfg.Gesture.Timeout != 3*time.Second {
		t.Errorf("gesture timeout = %v, want 3s", cfg.Gesture.Timeout)
	}
	if cfg.Gesture.MaxPixels != 1000000 {
		t.Errorf("gesture max pixels = %d, want 1000000", cfg.Gesture.MaxPixels)
	}
	if len(cfg.Notify.KafkaBrokers) != 2 || cfg.Notify.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Notify.KafkaBrokers)
	}
	if len(cfg.Catalog.Files) != 2 {
		t.Errorf("unexpected catalog files %v", cfg.Catalog.Files)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "lots")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric MAX_UPLOAD_BYTES")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: "PORT"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log level"},
		{name: "zero pixel limit", mutate: func(c *Config) { c.Gesture.MaxPixels = 0 }, wantErr: "GESTURE_MAX_PIXELS"},
		{name: "zero upload size", mutate: func(c *Config) { c.Upload.MaxBytes = 0 }, wantErr: "MAX_UPLOAD_BYTES"},
		{name: "zero burst", mutate: func(c *Config) { c.Upload.Burst = 0 }, wantErr: "UPLOAD_BURST"},
		{name: "unknown channel", mutate: func(c *Config) { c.Notify.Channel = "pigeon" }, wantErr: "notify channel"},
		{name: "http without endpoint", mutate: func(c *Config) { c.Notify.Channel = ChannelHTTP }, wantErr: "NOTIFY_ENDPOINT"},
		{name: "http with endpoint", mutate: func(c *Config) {
			c.Notify.Channel = ChannelHTTP
			c.Notify.Endpoint = "http://bot.local/send"
		}},
		{name: "kafka without brokers", mutate: func(c *Config) {
			c.Notify.Channel = ChannelKafka
			c.Notify.KafkaTopic = "orders"
		}, wantErr: "NOTIFY_KAFKA_BROKERS"},
		{name: "zero sweep interval", mutate: func(c *Config) { c.Session.SweepInterval = 0 }, wantErr: "SESSION_SWEEP_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
