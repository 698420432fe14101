package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kbase/collections-sub001"
	"github.com/kbase/collections-sub001/factory"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	config := collections.DefaultConfig()
	config.Database.Host = getEnv("DB_HOST", config.Database.Host)
	config.Database.Port = getEnvInt("DB_PORT", config.Database.Port)
	config.Database.Database = getEnv("DB_NAME", "collections")
	config.Database.Username = getEnv("DB_USER", "postgres")
	config.Database.Password = getEnv("DB_PASSWORD", "")
	config.Database.SSLMode = getEnv("DB_SSL_MODE", config.Database.SSLMode)
	config.Database.MaxConnections = getEnvInt("DB_MAX_CONNECTIONS", config.Database.MaxConnections)
	config.Database.ConnMaxLifetime = time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SECONDS", 3600)) * time.Second
	config.Database.Timeout = time.Duration(getEnvInt("DB_TIMEOUT_SECONDS", 30)) * time.Second

	if src := getEnv("SPEC_SOURCE", ""); src != "" {
		config.Filtering.SpecSource = collections.SpecSourceKind(src)
	}
	config.Filtering.SpecLocalDir = getEnv("SPEC_LOCAL_DIR", config.Filtering.SpecLocalDir)
	config.Filtering.SpecS3Bucket = getEnv("SPEC_S3_BUCKET", config.Filtering.SpecS3Bucket)
	config.Filtering.SpecS3Prefix = getEnv("SPEC_S3_PREFIX", config.Filtering.SpecS3Prefix)
	config.Filtering.SpecS3AccessKeyID = getEnv("SPEC_S3_ACCESS_KEY_ID", config.Filtering.SpecS3AccessKeyID)
	config.Filtering.SpecS3SecretAccessKey = getEnv("SPEC_S3_SECRET_ACCESS_KEY", config.Filtering.SpecS3SecretAccessKey)

	if err := config.Validate(); err != nil {
		sugar.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()

	storage, err := factory.NewStorageWithConfig(ctx, config)
	if err != nil {
		sugar.Fatalf("failed to connect to storage backend: %v", err)
	}

	specs, err := factory.NewSpecLoader(ctx, config)
	if err != nil {
		sugar.Fatalf("failed to build spec loader: %v", err)
	}

	server := NewServer(storage, specs)
	server.RegisterRoutes()

	port := getEnv("PORT", "8080")
	sugar.Infow("starting server", "port", port)
	if err := server.Start(port); err != nil {
		sugar.Fatalf("server error: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
