package queue

import (
	"context"
	"encoding/json"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher publishes domain events to RabbitMQ.  Publishing is best
// effort: every error is logged and returned so the caller can ignore it
// without interrupting the request that produced the event.  A connection
// is dialed per publish; booking volume does not justify a pooled channel.
// The dial and the AMQP handshake are bounded by the publish context.
type Publisher struct {
	url string
	log *zap.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, log: log.Named("publisher")}
}

// PublishBookingConfirmed publishes ev to the booking.confirmed queue.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error {
	return p.publish(ctx, BookingConfirmedQueue, ev)
}

// PublishPaymentReconciled publishes ev to the payment.reconciled queue.
func (p *Publisher) PublishPaymentReconciled(ctx context.Context, ev PaymentReconciledEvent) error {
	return p.publish(ctx, PaymentReconciledQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, v any) error {
	log := p.log.With(zap.String("queue", queue))
	conn, err := p.dial(ctx)
	if err != nil {
		log.Warn("rabbitmq dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("rabbitmq channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		log.Warn("rabbitmq queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(v)
	if err != nil {
		log.Error("marshal event failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		log.Warn("rabbitmq publish failed", zap.Error(err))
		return err
	}
	return nil
}

// dialTimeout bounds the handshake when ctx carries no deadline.
const dialTimeout = 30 * time.Second

// dial connects to the broker within ctx.  amqp.Dial ignores contexts, so
// the TCP connect uses ctx and the handshake inherits its deadline; the
// client clears the deadline once the connection is open.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	return amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			deadline, ok := ctx.Deadline()
			if !ok {
				deadline = time.Now().Add(dialTimeout)
			}
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		},
	})
}
