package config

import (
	"os"
	"time"
)

// RedisConfig locates the alert event stream and its consumer group
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	// ClaimIdle is how long a delivery may stay unacknowledged before
	// another pass of the consumer group retries it
	ClaimIdle time.Duration
}

func GetRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        getEnvAsInt("REDIS_DB", 0),
		Stream:    getEnv("REDIS_STREAM", "fire_alerts"),
		Group:     getEnv("REDIS_GROUP", "alert_notifiers"),
		ClaimIdle: getEnvAsDuration("REDIS_CLAIM_IDLE", time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
