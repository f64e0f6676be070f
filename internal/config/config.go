// Package config loads and validates application configuration from YAML
// files and environment variables via viper.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Blob     BlobConfig     `yaml:"blob" mapstructure:"blob"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host        string   `yaml:"host" mapstructure:"host"`
	Port        string   `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"corsOrigins" mapstructure:"corsOrigins"`
}

// BlobConfig selects and configures the object store backend
type BlobConfig struct {
	Backend string            `yaml:"backend" mapstructure:"backend"` // badger, minio, or memory
	Bucket  string            `yaml:"bucket" mapstructure:"bucket"`
	Badger  BadgerBlobConfig  `yaml:"badger" mapstructure:"badger"`
	Minio   MinioBlobConfig   `yaml:"minio" mapstructure:"minio"`
}

// BadgerBlobConfig holds BadgerDB backend settings
type BadgerBlobConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// MinioBlobConfig holds MinIO backend settings
type MinioBlobConfig struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"accessKey" mapstructure:"accessKey"`
	SecretKey string `yaml:"secretKey" mapstructure:"secretKey"`
	UseSSL    bool   `yaml:"useSSL" mapstructure:"useSSL"`
}

// DatabaseConfig selects and configures the record store backend
type DatabaseConfig struct {
	Backend  string         `yaml:"backend" mapstructure:"backend"` // postgres or memory
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode"`
}

// ConnString renders the pgx connection string
func (p PostgresConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string            `yaml:"level" mapstructure:"level"`
	Format string            `yaml:"format" mapstructure:"format"`
	Output string            `yaml:"output" mapstructure:"output"`
	Fields map[string]string `yaml:"fields" mapstructure:"fields"`
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// LoadConfig reads configuration from the given path (or the default search
// locations) with environment variable substitution enabled.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.corsOrigins", []string{"http://localhost:3000"})
	v.SetDefault("blob.backend", "badger")
	v.SetDefault("blob.bucket", "thingsboard-data")
	v.SetDefault("blob.badger.path", "./data/objects")
	v.SetDefault("blob.minio.endpoint", "localhost:9000")
	v.SetDefault("blob.minio.useSSL", false)
	v.SetDefault("database.backend", "memory")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Enable environment variable substitution
	v.AutomaticEnv()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/sensorlake")
	}

	// Read config
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port cannot be empty")
	}
	if c.Blob.Bucket == "" {
		return fmt.Errorf("blob.bucket cannot be empty")
	}

	switch c.Blob.Backend {
	case "badger":
		if c.Blob.Badger.Path == "" {
			return fmt.Errorf("blob.badger.path is required for the badger backend")
		}
	case "minio":
		if c.Blob.Minio.Endpoint == "" {
			return fmt.Errorf("blob.minio.endpoint is required for the minio backend")
		}
		if c.Blob.Minio.AccessKey == "" || c.Blob.Minio.SecretKey == "" {
			return fmt.Errorf("blob.minio credentials are required for the minio backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown blob backend: %s (valid options: badger, minio, memory)", c.Blob.Backend)
	}

	switch c.Database.Backend {
	case "postgres":
		if c.Database.Postgres.Host == "" || c.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.host and database.postgres.database are required for the postgres backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database backend: %s (valid options: postgres, memory)", c.Database.Backend)
	}

	return nil
}
