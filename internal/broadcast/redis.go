// Package broadcast mirrors lobby broadcasts onto a Redis pub/sub channel so
// observers outside the process see the same events as websocket clients.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DoyleJ11/draftroom/internal/lobby"
	"github.com/DoyleJ11/draftroom/internal/types"
)

const queueSize = 256

type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	queue   chan lobby.Update
	logger  *zap.Logger
	timeout time.Duration
}

// NewRedisPublisher parses a redis:// URL. Run must be started for messages to flow.
func NewRedisPublisher(url, channel string, logger *zap.Logger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisPublisherWithOptions(opts, channel, logger), nil
}

func NewRedisPublisherWithOptions(opts *redis.Options, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		rdb:     redis.NewClient(opts),
		channel: channel,
		queue:   make(chan lobby.Update, queueSize),
		logger:  logger,
		timeout: 2 * time.Second,
	}
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

func (p *RedisPublisher) Close() error { return p.rdb.Close() }

// Publish queues u. When the queue is full the update is dropped so the lobby never waits on Redis.
func (p *RedisPublisher) Publish(u lobby.Update) {
	select {
	case p.queue <- u:
	default:
		p.logger.Warn("redis mirror queue full, dropping update", zap.Int("version", u.Version))
	}
}

// Run drains the queue until ctx is done.
func (p *RedisPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-p.queue:
			if err := p.send(ctx, u); err != nil {
				p.logger.Error("redis publish failed", zap.Int("version", u.Version), zap.Error(err))
			}
		}
	}
}

func (p *RedisPublisher) send(ctx context.Context, u lobby.Update) error {
	msg, ok := types.FromUpdate(u)
	if !ok {
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.rdb.Publish(ctx, p.channel, payload).Err()
}
