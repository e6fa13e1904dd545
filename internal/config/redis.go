package config

// This file defines the Redis client constructor. Redis backs the session
// store. If the server cannot be reached at startup the constructor returns
// nil and callers degrade to the in-memory session store.

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client from RedisConfig.
// REDIS_HOST and REDIS_PORT take precedence over REDIS_ADDR when both are set;
// with nothing configured it tries localhost:6379.
// The returned client is nil if a connection cannot be established.
func NewRedisClient(rc RedisConfig) *redis.Client {
	addr := rc.Addr
	if rc.Host != "" && rc.Port != "" {
		addr = rc.Host + ":" + rc.Port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	var tlsConf *tls.Config
	if rc.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  rc.Password,
		DB:        rc.DB,
		TLSConfig: tlsConf,
	})
	// Ping the server with a short timeout. Return nil on failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis: ping %s failed: %v", addr, err)
		_ = client.Close()
		return nil
	}
	return client
}
