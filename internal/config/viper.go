// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/net/html/charset"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "BANK_INGEST"

// Storage backends
const (
	StorageLocal = "local"
	StorageGCS   = "gcs"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`

	Storage struct {
		Backend         string `mapstructure:"backend" yaml:"backend"`
		Directory       string `mapstructure:"directory" yaml:"directory"`
		Bucket          string `mapstructure:"bucket" yaml:"bucket"`
		Endpoint        string `mapstructure:"endpoint" yaml:"endpoint"`
		CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	} `mapstructure:"storage" yaml:"storage"`

	Queue struct {
		Workers      int           `mapstructure:"workers" yaml:"workers"`
		BufferSize   int           `mapstructure:"buffer_size" yaml:"buffer_size"`
		MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries"`
		PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	} `mapstructure:"queue" yaml:"queue"`

	Import struct {
		FallbackEncoding string `mapstructure:"fallback_encoding" yaml:"fallback_encoding"`
		Concurrency      int    `mapstructure:"concurrency" yaml:"concurrency"`
	} `mapstructure:"import" yaml:"import"`
}

// InitializeConfig loads configuration from defaults, an optional config file
// and BANK_INGEST_* environment variables, in increasing precedence.
// An empty configFile searches the standard locations.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.bank-ingest")
		v.AddConfigPath(".bank-ingest")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.path", "bank-ingest.db")

	v.SetDefault("storage.backend", StorageLocal)
	v.SetDefault("storage.directory", "uploads")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.credentials_file", "")

	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.buffer_size", 64)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.poll_interval", "5s")

	v.SetDefault("import.fallback_encoding", "windows-1250")
	v.SetDefault("import.concurrency", 4)
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if strings.TrimSpace(config.Database.Path) == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	switch config.Storage.Backend {
	case StorageLocal:
		if config.Storage.Directory == "" {
			return fmt.Errorf("storage.directory is required for the local backend")
		}
	case StorageGCS:
		if config.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be '%s' or '%s')", config.Storage.Backend, StorageLocal, StorageGCS)
	}

	if config.Queue.Workers < 1 || config.Queue.Workers > 64 {
		return fmt.Errorf("queue.workers must be between 1 and 64, got: %d", config.Queue.Workers)
	}
	if config.Queue.BufferSize < 1 {
		return fmt.Errorf("queue.buffer_size must be positive, got: %d", config.Queue.BufferSize)
	}
	if config.Queue.MaxRetries < 0 {
		return fmt.Errorf("queue.max_retries must not be negative, got: %d", config.Queue.MaxRetries)
	}
	if config.Queue.PollInterval <= 0 {
		return fmt.Errorf("queue.poll_interval must be positive, got: %s", config.Queue.PollInterval)
	}

	if config.Import.Concurrency < 1 {
		return fmt.Errorf("import.concurrency must be positive, got: %d", config.Import.Concurrency)
	}
	if enc, _ := charset.Lookup(config.Import.FallbackEncoding); enc == nil {
		return fmt.Errorf("unknown import.fallback_encoding: %s", config.Import.FallbackEncoding)
	}

	return nil
}
