// Package bootstrap connects infrastructure and assembles the service graph
// shared by the server, the worker and the seeder.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/babbageLabs/insta-lite/internal/cache"
	"github.com/babbageLabs/insta-lite/internal/config"
	"github.com/babbageLabs/insta-lite/internal/database"
	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/observability"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs migrations per DB_SCHEMA_MODE after connecting.
	ApplySchema bool
	// ServiceName names the tracer; empty disables tracing setup.
	ServiceName string
}

// Runtime holds the connections a process owns.
type Runtime struct {
	DB            *gorm.DB
	Redis         *redis.Client
	shutdownTrace func(context.Context) error
}

// InitRuntime connects to DB and Redis and installs the tracer.
// Redis is optional: an unreachable server leaves Redis nil.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	middleware.Logger = middleware.NewLogger(cfg.Env, os.Getenv("LOG_LEVEL"))

	rt := &Runtime{shutdownTrace: func(context.Context) error { return nil }}
	if opts.ServiceName != "" {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    opts.ServiceName,
			ServiceVersion: "1.0.0",
			Environment:    cfg.Env,
			Enabled:        cfg.TracingEnabled,
			OTLPEndpoint:   cfg.OTLPEndpoint,
			SampleRatio:    cfg.TracingSampleRatio,
		})
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		rt.shutdownTrace = shutdown
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: opts.ApplySchema})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt.DB = db

	cache.InitRedis(cfg.RedisURL)
	rt.Redis = cache.GetClient()
	if rt.Redis == nil {
		middleware.Logger.Warn("Redis unavailable; caching, token revocation and cross-instance realtime are disabled")
	}

	return rt, nil
}

// Close releases the connections. Errors are logged, the first is returned.
func (rt *Runtime) Close(ctx context.Context) error {
	var first error
	keep := func(what string, err error) {
		if err == nil {
			return
		}
		middleware.Logger.Error("shutdown step failed", slog.String("step", what), slog.String("error", err.Error()))
		if first == nil {
			first = err
		}
	}

	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			keep("close database", sqlDB.Close())
		}
	}
	if rt.Redis != nil {
		keep("close redis", rt.Redis.Close())
	}
	keep("flush traces", rt.shutdownTrace(ctx))
	return first
}
