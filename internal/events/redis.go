package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisPublisher appends events to a Redis stream under the "data" field
type RedisPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream}
}

func (p *RedisPublisher) Publish(ctx context.Context, events ...AlertEvent) error {
	for _, e := range events {
		data, err := encode(e)
		if err != nil {
			return err
		}
		err = p.client.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			Values: map[string]interface{}{"data": string(data), "type": e.Type},
		}).Err()
		if err != nil {
			return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
		}
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// StreamGroupClient is the subset of *redis.Client a consumer group reader needs
type StreamGroupClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// RedisConsumer reads alert events from a stream as part of a consumer group
type RedisConsumer struct {
	client   StreamGroupClient
	stream   string
	group    string
	consumer string
	logger   *slog.Logger

	// pending entries idle this long are claimed and retried
	minIdle      time.Duration
	reclaimEvery time.Duration
}

func NewRedisConsumer(client StreamGroupClient, stream, group, consumer string, logger *slog.Logger) *RedisConsumer {
	return &RedisConsumer{
		client:       client,
		stream:       stream,
		group:        group,
		consumer:     consumer,
		logger:       logger,
		minIdle:      time.Minute,
		reclaimEvery: time.Minute,
	}
}

// SetReclaim changes how long a delivery may stay unacknowledged before it
// is retried, and how often the pending list is checked
func (c *RedisConsumer) SetReclaim(minIdle, every time.Duration) {
	c.minIdle = minIdle
	c.reclaimEvery = every
}

// EnsureGroup creates the consumer group if it doesn't exist yet
func (c *RedisConsumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// Run delivers events to handle until ctx is cancelled. A message is
// acknowledged only after handle succeeds; undecodable messages are acked
// and dropped. Failed deliveries stay pending and are claimed again once
// they have been idle for minIdle, at startup and every reclaimEvery.
func (c *RedisConsumer) Run(ctx context.Context, handle func(context.Context, AlertEvent) error) error {
	c.reclaim(ctx, handle)
	lastReclaim := time.Now()

	for {
		if time.Since(lastReclaim) >= c.reclaimEvery {
			c.reclaim(ctx, handle)
			lastReclaim = time.Now()
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.consumer,
			Streams:  []string{c.stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if ctx.Err() != nil {
			return nil
		}
		if err != nil && err != redis.Nil {
			c.logger.Error("error reading from redis", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				c.process(ctx, msg, handle)
			}
		}
	}
}

// reclaim walks the group's pending list once
func (c *RedisConsumer) reclaim(ctx context.Context, handle func(context.Context, AlertEvent) error) {
	start := "0-0"
	for {
		msgs, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.stream,
			Group:    c.group,
			Consumer: c.consumer,
			MinIdle:  c.minIdle,
			Start:    start,
			Count:    10,
		}).Result()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Error("failed to claim pending messages", "error", err)
			}
			return
		}

		if len(msgs) > 0 {
			c.logger.Info("retrying pending alert events", "count", len(msgs))
		}
		for _, msg := range msgs {
			c.process(ctx, msg, handle)
		}
		if next == "" || next == "0-0" {
			return
		}
		start = next
	}
}

func (c *RedisConsumer) process(ctx context.Context, msg redis.XMessage, handle func(context.Context, AlertEvent) error) {
	raw, _ := msg.Values["data"].(string)
	event, err := Decode([]byte(raw))
	if err != nil {
		c.logger.Warn("dropping malformed alert event", "id", msg.ID, "error", err)
		c.ack(ctx, msg.ID)
		return
	}

	if err := handle(ctx, event); err != nil {
		c.logger.Error("failed to handle alert event", "id", msg.ID, "alert", event.Alert.ID, "error", err)
		return
	}
	c.ack(ctx, msg.ID)
}

func (c *RedisConsumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, c.stream, c.group, id).Err(); err != nil {
		c.logger.Error("failed to ack message", "id", id, "error", err)
	}
}
