package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"wildfire/internal/config"
)

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(ctx context.Context, rc config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", rc.Addr, err)
	}
	return client, nil
}

// Open builds the publisher for the configured events backend
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Publisher, error) {
	switch cfg.Events.Backend {
	case "", "none":
		return NopPublisher{}, nil
	case "redis":
		rc := config.GetRedisConfig()
		client, err := NewRedisClient(ctx, rc)
		if err != nil {
			return nil, err
		}
		logger.Info("✓ Publishing alert events to Redis", "addr", rc.Addr, "stream", rc.Stream)
		return NewRedisPublisher(client, rc.Stream), nil
	case "kafka":
		logger.Info("✓ Publishing alert events to Kafka", "brokers", cfg.Events.KafkaBrokers, "topic", cfg.Events.KafkaTopic)
		return NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
}
