package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

type Config struct {
	APIBaseURL     string        `envconfig:"STOREFRONT_API_URL"     default:"http://127.0.0.1:5000"`
	APITimeout     time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"5s"`
	Port           string        `envconfig:"STOREFRONT_PORT"        default:":3000"`
	LogLevel       string        `envconfig:"LOG_LEVEL"              default:"info"`
	RefetchTimeout time.Duration `envconfig:"STOREFRONT_REFETCH_TIMEOUT" default:"10s"`

	StorageDriver    string `envconfig:"STOREFRONT_STORAGE_DRIVER" default:"file"`
	StoragePath      string `envconfig:"STOREFRONT_STORAGE_PATH"   default:"storefront-state.json"`
	DatabaseURL      string `envconfig:"DATABASE_URL"`
	StorageKey       string `envconfig:"STOREFRONT_STORAGE_KEY"`
	// StorageNamespace separates storefront profiles sharing one Postgres table.
	StorageNamespace string `envconfig:"STOREFRONT_STORAGE_NAMESPACE" default:"default"`

	GuestCartKey string `envconfig:"STOREFRONT_GUEST_CART_KEY" default:"guest_cart"`
	TokenKey     string `envconfig:"STOREFRONT_TOKEN_KEY"      default:"access_token"`

	KeepGuestCartOnMergeFailure bool `envconfig:"STOREFRONT_KEEP_GUEST_CART_ON_MERGE_FAILURE" default:"false"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(logger *logrus.Logger, envFiles ...string) (*Config, error) {
	err := godotenv.Load(envFiles...)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("Error loading .env file (but continuing): %v", err)
	} else if err == nil {
		logger.Info("Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration from environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Infof("Configuration loaded: API=%s, Port=%s, Storage=%s, LogLevel=%s",
		cfg.APIBaseURL, cfg.Port, cfg.StorageDriver, cfg.LogLevel)
	if cfg.StorageKey != "" {
		logger.Info("Configuration loaded: storage sealing key is set")
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.APIBaseURL) == "" {
		problems = append(problems, "STOREFRONT_API_URL cannot be empty")
	}
	if c.APITimeout <= 0 {
		problems = append(problems, "STOREFRONT_API_TIMEOUT must be positive")
	}
	if c.RefetchTimeout <= 0 {
		problems = append(problems, "STOREFRONT_REFETCH_TIMEOUT must be positive")
	}
	switch c.StorageDriver {
	case StorageMemory:
	case StorageFile:
		if strings.TrimSpace(c.StoragePath) == "" {
			problems = append(problems, "STOREFRONT_STORAGE_PATH is required for the file driver")
		}
	case StoragePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres driver")
		}
		if strings.TrimSpace(c.StorageNamespace) == "" {
			problems = append(problems, "STOREFRONT_STORAGE_NAMESPACE cannot be empty for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid STOREFRONT_STORAGE_DRIVER %q", c.StorageDriver))
	}
	if c.StorageKey != "" {
		if _, err := c.SealingKey(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if c.GuestCartKey == "" || c.TokenKey == "" {
		problems = append(problems, "storage keys cannot be empty")
	}
	if c.GuestCartKey == c.TokenKey {
		problems = append(problems, "guest cart and token storage keys must differ")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SealingKey decodes StorageKey. It returns nil when no key is configured.
func (c *Config) SealingKey() (*[32]byte, error) {
	if c.StorageKey == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(c.StorageKey)
	if err != nil || len(raw) != 32 {
		return nil, errors.New("STOREFRONT_STORAGE_KEY must be 64 hex characters")
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}
