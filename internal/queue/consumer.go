package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Consumer drains booking.confirmed and payment.reconciled and appends one
// JSON line per message to <dir>/bookings.log and <dir>/payments.log.
// Malformed messages are rejected without requeue so the loop never spins
// on a poison message.
type Consumer struct {
	url  string
	dir  string
	log  *zap.Logger
	sink map[string]*zap.Logger
}

// NewConsumer returns a Consumer writing its audit files under dir.
func NewConsumer(url, dir string, log *zap.Logger) *Consumer {
	return &Consumer{url: url, dir: dir, log: log.Named("consumer"), sink: map[string]*zap.Logger{}}
}

// Run connects to the broker and consumes until ctx is cancelled, redialing
// with exponential backoff (capped at 30s) whenever the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set QoS failed", zap.Error(err))
	}

	deliveries := make(chan amqp.Delivery)
	done := make(chan struct{})
	defer close(done)
	for _, q := range []string{BookingConfirmedQueue, PaymentReconciledQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		go func(msgs <-chan amqp.Delivery) {
			for d := range msgs {
				select {
				case deliveries <- d:
				case <-done:
					return
				}
			}
		}(msgs)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr != nil {
				return amqpErr
			}
			return errors.New("connection closed")
		case d := <-deliveries:
			if err := c.Handle(d.RoutingKey, d.Body); err != nil {
				c.log.Warn("handle message failed", zap.String("queue", d.RoutingKey), zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body from queue and appends it to the
// matching audit log.
func (c *Consumer) Handle(queue string, body []byte) error {
	var fields []zap.Field
	switch queue {
	case BookingConfirmedQueue:
		var ev BookingConfirmedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		fields = []zap.Field{
			zap.Uint64("user_id", ev.UserID),
			zap.Uint64("event_id", ev.EventID),
			zap.String("event_title", ev.EventTitle),
			zap.String("order_id", ev.OrderID),
			zap.Int64("amount_paid", ev.AmountPaid),
			zap.String("tickets", strings.Join(ev.TicketCodes, ",")),
			zap.String("source", ev.Source),
			zap.String("confirmed_at", ev.ConfirmedAt),
		}
	case PaymentReconciledQueue:
		var ev PaymentReconciledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		fields = []zap.Field{
			zap.String("order_id", ev.OrderID),
			zap.String("payment_id", ev.PaymentID),
			zap.String("status", ev.Status),
			zap.Int64("amount", ev.Amount),
			zap.Uint64("user_id", ev.UserID),
			zap.String("source", ev.Source),
			zap.String("reconciled_at", ev.ReconciledAt),
		}
	default:
		return fmt.Errorf("unknown queue %q", queue)
	}
	sink, err := c.sinkFor(queue)
	if err != nil {
		return err
	}
	sink.Info(queue, fields...)
	return nil
}

// sinkFor lazily opens the audit log file for queue.  Handle is only called
// from the single consume goroutine, so the map needs no lock.
func (c *Consumer) sinkFor(queue string) (*zap.Logger, error) {
	if l, ok := c.sink[queue]; ok {
		return l, nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	name := "bookings.log"
	if queue == PaymentReconciledQueue {
		name = "payments.log"
	}
	f, err := os.OpenFile(filepath.Join(c.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "logged_at"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	l := zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(f), zap.InfoLevel))
	c.sink[queue] = l
	return l, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
