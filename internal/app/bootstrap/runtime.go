// Package bootstrap builds the runtime collaborators selected by configuration.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	appconfig "github.com/wolfman30/medic-pro/internal/config"
	"github.com/wolfman30/medic-pro/internal/observability/metrics"
	"github.com/wolfman30/medic-pro/internal/store"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
	BackendSQLite   = "sqlite"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildStore opens the record backend named by STORE_BACKEND and wraps it with
// tracing and latency metrics. The returned func releases its connections.
func BuildStore(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, m *metrics.DashboardMetrics, logger *logging.Logger) (store.Adapter, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var (
		adapter store.Adapter
		closer  = func() {}
	)
	switch cfg.StoreBackend {
	case BackendMemory:
		logger.Warn("using in-memory record store; records are lost on restart")
		adapter = store.NewMemoryStore()
	case BackendRedis:
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return nil, nil, fmt.Errorf("bootstrap: redis unavailable at %q", cfg.RedisAddr)
		}
		adapter = store.NewRedisStore(client)
		closer = func() { _ = client.Close() }
	case BackendPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, nil, fmt.Errorf("bootstrap: DATABASE_URL is required for the postgres backend")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		adapter = store.NewPostgresStore(pool)
		closer = pool.Close
	case BackendDynamoDB:
		adapter = store.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBRecordsTable)
	case BackendSQLite:
		sqlStore, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: open sqlite: %w", err)
		}
		adapter = sqlStore
		closer = func() { _ = sqlStore.Close() }
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown store backend %q", cfg.StoreBackend)
	}

	logger.Info("record store ready", "backend", cfg.StoreBackend, "key_scope", cfg.StoreKeyScope)
	tracer := otel.Tracer("medicpro.internal.store")
	return store.NewInstrumented(adapter, cfg.StoreBackend, m, tracer), closer, nil
}
