package collections

import "time"

// Config consolidates settings for the filtering service and its
// backing storage.
type Config struct {
	Database  DatabaseConfig  `json:"database"`
	Filtering FilteringConfig `json:"filtering"`
	Logging   LoggingConfig   `json:"logging"`
}

// DatabaseConfig contains the search backend's connection settings.
type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Database        string        `json:"database"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"sslMode"`
	MaxConnections  int           `json:"maxConnections"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	Timeout         time.Duration `json:"timeout"`
}

// SpecSourceKind selects where ColumnarAttributesSpec documents are
// loaded from.
type SpecSourceKind string

const (
	SpecSourceLocal SpecSourceKind = "local"
	SpecSourceS3    SpecSourceKind = "s3"
)

// FilteringConfig contains the filter compiler's operational defaults.
type FilteringConfig struct {
	DefaultPageSize int            `json:"defaultPageSize"`
	MaxPageSize     int            `json:"maxPageSize"`
	SpecSource      SpecSourceKind `json:"specSource"`
	SpecLocalDir    string         `json:"specLocalDir"`
	SpecS3Bucket    string         `json:"specS3Bucket"`
	SpecS3Prefix    string         `json:"specS3Prefix"`
	// SpecS3AccessKeyID/SpecS3SecretAccessKey, if both set, override the
	// default AWS credential chain with a static provider. Left blank,
	// the S3 spec loader falls back to the default chain (environment,
	// shared config, instance role).
	SpecS3AccessKeyID     string        `json:"specS3AccessKeyId,omitempty"`
	SpecS3SecretAccessKey string        `json:"-"`
	QueryTimeout          time.Duration `json:"queryTimeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level            string `json:"level"`
	Format           string `json:"format"`
	EnableStructured bool   `json:"enableStructured"`
	LogQueries       bool   `json:"logQueries"`
	SanitizeBindVars bool   `json:"sanitizeBindVars"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxConnections:  25,
			ConnMaxLifetime: 5 * time.Minute,
			Timeout:         30 * time.Second,
		},
		Filtering: FilteringConfig{
			DefaultPageSize: 50,
			MaxPageSize:     1000,
			SpecSource:      SpecSourceLocal,
			SpecLocalDir:    "./specs",
			QueryTimeout:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:            "info",
			Format:           "json",
			EnableStructured: true,
			LogQueries:       false,
			SanitizeBindVars: true,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database.MaxConnections <= 0 {
		return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
	}
	if c.Filtering.DefaultPageSize <= 0 {
		return &ConfigError{Field: "filtering.defaultPageSize", Message: "must be greater than 0"}
	}
	if c.Filtering.MaxPageSize < c.Filtering.DefaultPageSize {
		return &ConfigError{Field: "filtering.maxPageSize", Message: "must be greater than or equal to defaultPageSize"}
	}
	switch c.Filtering.SpecSource {
	case SpecSourceLocal:
		if c.Filtering.SpecLocalDir == "" {
			return &ConfigError{Field: "filtering.specLocalDir", Message: "must be set when specSource is local"}
		}
	case SpecSourceS3:
		if c.Filtering.SpecS3Bucket == "" {
			return &ConfigError{Field: "filtering.specS3Bucket", Message: "must be set when specSource is s3"}
		}
	default:
		return &ConfigError{Field: "filtering.specSource", Message: "must be one of local, s3"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
