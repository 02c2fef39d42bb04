package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// Channel delivers one message to an external recipient. Implementations
// make a single attempt.
type Channel interface {
	Deliver(ctx context.Context, msg Message) error
	Name() string
}

// HTTPChannel posts {"target", "message"} JSON to a bot endpoint
type HTTPChannel struct {
	endpoint string
	client   *http.Client
}

// NewHTTPChannel creates an HTTP channel. The client never retries.
func NewHTTPChannel(endpoint string, timeout time.Duration) *HTTPChannel {
	return &HTTPChannel{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name implements Channel
func (c *HTTPChannel) Name() string { return "http" }

// Deliver implements Channel
func (c *HTTPChannel) Deliver(ctx context.Context, msg Message) error {
	if c.endpoint == "" {
		return errors.New("notification endpoint is not configured")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to encode notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send notification")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// KafkaChannel publishes the message as JSON to a topic, keyed by target
type KafkaChannel struct {
	writer *kafka.Writer
}

// NewKafkaChannel creates a Kafka channel with a single write attempt
func NewKafkaChannel(brokers []string, topic string, timeout time.Duration) *KafkaChannel {
	return &KafkaChannel{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			MaxAttempts:  1,
			WriteTimeout: timeout,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Name implements Channel
func (c *KafkaChannel) Name() string { return "kafka" }

// Deliver implements Channel
func (c *KafkaChannel) Deliver(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to encode notification")
	}
	if err := c.writer.WriteMessages(ctx, kafka.Message{Key: []byte(msg.Target), Value: value}); err != nil {
		return errors.Wrap(err, "failed to publish notification")
	}
	return nil
}

// Close flushes and closes the underlying writer
func (c *KafkaChannel) Close() error {
	return c.writer.Close()
}

// LogChannel writes messages to the logger. Used when no external channel
// is configured.
type LogChannel struct {
	logger *slog.Logger
}

// NewLogChannel creates a log channel
func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

// Name implements Channel
func (c *LogChannel) Name() string { return "log" }

// Deliver implements Channel
func (c *LogChannel) Deliver(ctx context.Context, msg Message) error {
	c.logger.Info("order notification", "target", msg.Target, "message", msg.Message)
	return nil
}
