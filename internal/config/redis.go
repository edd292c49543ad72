package config

// Redis backs rate limiting, the report cache and the revoked-token list.
// When the server cannot be reached at startup the constructor returns nil
// and those features degrade to pass-through.

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig locates the Redis server.  Host and Port win over Addr when
// both are set.
type RedisConfig struct {
	Disabled bool   `env:"REDIS_DISABLED" env-default:"false"`
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT"`
	Addr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
	TLS      bool   `env:"REDIS_TLS" env-default:"false"`
}

// Address returns the host:port to dial.
func (c RedisConfig) Address() string {
	if c.Host != "" && c.Port != "" {
		return c.Host + ":" + c.Port
	}
	return c.Addr
}

// NewRedisClient connects and pings Redis.  It returns nil with the reason
// when Redis is disabled or unreachable; callers treat nil as "no Redis".
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	if cfg.Disabled {
		return nil, fmt.Errorf("redis disabled by REDIS_DISABLED")
	}
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Address(),
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Address(), err)
	}
	return client, nil
}
