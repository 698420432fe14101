// Package factory wires together collections.Storage implementations
// from a collections.Config, following the teacher's pattern of keeping
// connection setup and table verification out of the domain package.
package factory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kbase/collections-sub001"
	"github.com/kbase/collections-sub001/internal"
)

// queryPool is a minimal interface used for verifying table presence. It
// matches *pgxpool.Pool and lightweight fakes used in tests.
type queryPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// tableCollector is a test hook for table discovery.
var tableCollector = collectTablesFromPool

// requiredTables lists the tables PostgresStorage depends on existing.
var requiredTables = []string{"analyzer_registry"}

// collectTablesFromPool queries information_schema for table names.
func collectTablesFromPool(pool queryPool) ([]string, error) {
	rows, err := pool.Query(context.Background(), `SELECT table_name FROM information_schema.tables
WHERE table_schema = 'public' AND table_type = 'BASE TABLE'`)
	if err != nil {
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return tables, nil
}

func hasAllTables(have []string, want []string) bool {
	present := make(map[string]bool, len(have))
	for _, t := range have {
		present[t] = true
	}
	for _, w := range want {
		if !present[w] {
			return false
		}
	}
	return true
}

// NewStorageWithConfig connects a pgxpool.Pool using config.Database,
// verifies the tables PostgresStorage requires are present, and returns
// a ready-to-use collections.Storage.
//
// Usage:
//
//	config := collections.DefaultConfig()
//	storage, err := factory.NewStorageWithConfig(ctx, config)
func NewStorageWithConfig(ctx context.Context, config *collections.Config) (collections.Storage, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		config.Database.Host, config.Database.Port, config.Database.Database,
		config.Database.Username, config.Database.Password, config.Database.SSLMode)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("factory: parsing database config: %w", err)
	}
	poolConfig.MaxConns = int32(config.Database.MaxConnections)
	poolConfig.MaxConnLifetime = config.Database.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("factory: connecting to database: %w", err)
	}

	tables, err := tableCollector(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if !hasAllTables(tables, requiredTables) {
		pool.Close()
		return nil, fmt.Errorf("required tables are missing in the database: %v", requiredTables)
	}

	zap.S().Infow("connected to storage backend", "host", config.Database.Host, "database", config.Database.Database)
	return internal.NewPostgresStorage(pool), nil
}

// NewSpecLoader builds a spec loader per config.Filtering.SpecSource.
func NewSpecLoader(ctx context.Context, config *collections.Config) (specLoader, error) {
	switch config.Filtering.SpecSource {
	case collections.SpecSourceLocal:
		return &internal.LocalSpecLoader{Dir: config.Filtering.SpecLocalDir}, nil
	case collections.SpecSourceS3:
		return internal.NewS3SpecLoader(ctx, config.Filtering.SpecS3Bucket, config.Filtering.SpecS3Prefix,
			config.Filtering.SpecS3AccessKeyID, config.Filtering.SpecS3SecretAccessKey)
	default:
		return nil, fmt.Errorf("factory: unknown spec source: %s", config.Filtering.SpecSource)
	}
}

// specLoader is satisfied by both internal.LocalSpecLoader and
// internal.S3SpecLoader.
type specLoader interface {
	Load(ctx context.Context, collection string) (collections.ColumnarAttributesSpec, error)
}
