package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
)

// DeliveryError describes a failed notification attempt
type DeliveryError struct {
	OrderID string
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notification for order %s via %s failed: %v", e.OrderID, e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ErrorSink receives delivery failures. It is the only place they surface.
type ErrorSink interface {
	Capture(ctx context.Context, err *DeliveryError)
}

// LogSink records delivery failures in the log
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink writing to logger
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Capture implements ErrorSink
func (s *LogSink) Capture(ctx context.Context, err *DeliveryError) {
	s.logger.ErrorContext(ctx, "order notification failed",
		"order_id", err.OrderID,
		"channel", err.Channel,
		"error", err.Err,
	)
}

// Dispatcher formats summaries and hands them to a channel
type Dispatcher struct {
	channel Channel
	target  string
	sink    ErrorSink
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher delivering to target over channel
func NewDispatcher(channel Channel, target string, sink ErrorSink, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		channel: channel,
		target:  target,
		sink:    sink,
		logger:  logger,
	}
}

// Task is a running delivery attempt
type Task struct {
	done      chan struct{}
	delivered bool
}

// Wait blocks until the attempt has finished, successfully or not
func (t *Task) Wait() {
	<-t.done
}

// Delivered reports whether the channel accepted the message. Only
// meaningful after Wait.
func (t *Task) Delivered() bool {
	return t.delivered
}

// Dispatch starts a single delivery attempt for the summary in its own
// goroutine. Failures, including panics in the channel, go to the error sink.
func (d *Dispatcher) Dispatch(ctx context.Context, summary models.OrderSummary) *Task {
	task := &Task{done: make(chan struct{})}
	msg := Message{Target: d.target, Message: Format(summary)}

	go func() {
		defer close(task.done)
		start := time.Now()

		err := d.deliver(ctx, msg)
		if err != nil {
			d.sink.Capture(ctx, &DeliveryError{OrderID: summary.OrderID, Channel: d.channel.Name(), Err: err})
			return
		}

		task.delivered = true
		d.logger.Info("order notification sent",
			"order_id", summary.OrderID,
			"channel", d.channel.Name(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	return task
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel panic: %v", r)
		}
	}()
	return d.channel.Deliver(ctx, msg)
}
