package service

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// WebhookObserver receives the report of every webhook delivery.  Since
// the provider never sees internal failures, observers are the only place
// they surface.
type WebhookObserver interface {
	ObserveWebhook(ctx context.Context, rep WebhookReport)
}

// Observers fans a report out to each observer in order.
type Observers []WebhookObserver

func (obs Observers) ObserveWebhook(ctx context.Context, rep WebhookReport) {
	for _, o := range obs {
		o.ObserveWebhook(ctx, rep)
	}
}

// LogObserver logs each delivery.  Errors log at error level, unsigned
// deliveries at warn, the rest at info.
type LogObserver struct {
	Log *zap.Logger
}

func (o LogObserver) ObserveWebhook(_ context.Context, rep WebhookReport) {
	level := zapcore.InfoLevel
	switch rep.Outcome {
	case WebhookError:
		level = zapcore.ErrorLevel
	default:
		if !rep.SignatureValid {
			level = zapcore.WarnLevel
		}
	}
	fields := []zap.Field{
		zap.String("outcome", string(rep.Outcome)),
		zap.String("event", rep.Event),
		zap.String("order_id", rep.OrderID),
		zap.String("payment_id", rep.PaymentID),
		zap.Int64("amount", rep.Amount),
		zap.Bool("signature_valid", rep.SignatureValid),
	}
	if rep.Tickets > 0 {
		fields = append(fields, zap.Int("tickets", rep.Tickets))
	}
	if rep.Err != nil {
		fields = append(fields, zap.Error(rep.Err))
	}
	if ce := o.Log.Check(level, "webhook processed"); ce != nil {
		ce.Write(fields...)
	}
}

// RedisCounter keeps a hash of delivery counts per outcome under Key.  A
// nil client makes it a no-op.
type RedisCounter struct {
	rdb *redis.Client
	key string
	log *zap.Logger
}

// DefaultWebhookCounterKey is the hash written by RedisCounter unless
// another key is given.
const DefaultWebhookCounterKey = "stats:webhooks"

func NewRedisCounter(rdb *redis.Client, key string, log *zap.Logger) *RedisCounter {
	if key == "" {
		key = DefaultWebhookCounterKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCounter{rdb: rdb, key: key, log: log}
}

func (c *RedisCounter) ObserveWebhook(ctx context.Context, rep WebhookReport) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.HIncrBy(context.WithoutCancel(ctx), c.key, string(rep.Outcome), 1).Err(); err != nil {
		c.log.Debug("webhook counter not updated", zap.Error(err))
	}
}

// Counts returns the counters recorded so far.  Without a client it
// returns an empty map.
func (c *RedisCounter) Counts(ctx context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	if c.rdb == nil {
		return out, nil
	}
	raw, err := c.rdb.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, err
	}
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[k] = n
	}
	return out, nil
}
