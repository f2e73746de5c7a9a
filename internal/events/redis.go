package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// RedisConfig holds connection parameters for the redis publisher.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
	QueueSize     int
}

const defaultQueueSize = 1024

// RedisPublisher publishes encoded events on redis pub/sub, one channel
// per event type. Publish only enqueues; Run drains the queue.
type RedisPublisher struct {
	rdb      *redis.Client
	prefix   string
	decimals int32
	queue    chan domain.Event
	logger   *slog.Logger
}

// NewRedisPublisher connects to redis and verifies the connection.
func NewRedisPublisher(ctx context.Context, cfg RedisConfig, decimals int32, logger *slog.Logger) (*RedisPublisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return newRedisPublisher(rdb, cfg, decimals, logger), nil
}

func newRedisPublisher(rdb *redis.Client, cfg RedisConfig, decimals int32, logger *slog.Logger) *RedisPublisher {
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	return &RedisPublisher{
		rdb:      rdb,
		prefix:   cfg.ChannelPrefix,
		decimals: decimals,
		queue:    make(chan domain.Event, size),
		logger:   logger,
	}
}

// Channel returns the pub/sub channel events of type t are published on.
func (p *RedisPublisher) Channel(t domain.EventType) string {
	return p.prefix + string(t)
}

// Publish enqueues ev. When the queue is full the event is dropped.
func (p *RedisPublisher) Publish(_ context.Context, ev domain.Event) {
	select {
	case p.queue <- ev:
	default:
		p.logger.Warn("redis publish queue full, dropping event",
			slog.String("event", string(ev.Type)),
		)
	}
}

// Run publishes queued events until ctx is cancelled.
func (p *RedisPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-p.queue:
			p.send(ctx, ev)
		}
	}
}

func (p *RedisPublisher) send(ctx context.Context, ev domain.Event) {
	payload, err := Encode(ev, p.decimals)
	if err != nil {
		p.logger.Error("encoding event", slog.String("error", err.Error()))
		return
	}
	channel := p.Channel(ev.Type)
	if err := p.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		p.logger.Warn("redis publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}

// Close closes the redis connection.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
