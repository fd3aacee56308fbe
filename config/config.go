package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/piscan/barcode-resolver/internal/domain"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Catalog CatalogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig holds Product Advertising API configuration
type CatalogConfig struct {
	AccessKey         string        `mapstructure:"access_key"`
	SecretKey         string        `mapstructure:"secret_key"`
	AssociateTag      string        `mapstructure:"associate_tag"`
	Locale            string        `mapstructure:"locale"`
	Endpoint          string        `mapstructure:"endpoint"` // overrides the locale host when set
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// VendorTag identifies the catalog and locale that produced a match, e.g. "AMZN:us"
func (c CatalogConfig) VendorTag() string {
	return "AMZN:" + c.Locale
}

// Validate reports which credentials are missing. It is called before a real
// lookup client is built; Load itself accepts empty credentials.
func (c CatalogConfig) Validate() error {
	var missing []string
	if c.AccessKey == "" {
		missing = append(missing, "BARCODE_CATALOG_ACCESS_KEY")
	}
	if c.SecretKey == "" {
		missing = append(missing, "BARCODE_CATALOG_SECRET_KEY")
	}
	if c.AssociateTag == "" {
		missing = append(missing, "BARCODE_CATALOG_ASSOCIATE_TAG")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (set %s or config.local.yaml)", domain.ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Load loads configuration from defaults, config.yaml, an optional
// config.local.yaml, a .env file and environment variables, in increasing
// order of precedence.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/barcode-resolver/")

	// Environment variable settings
	v.SetEnvPrefix("BARCODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Checked-in defaults (optional)
	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Local, non-versioned overrides (optional)
	v.SetConfigName("config.local")
	if err := v.MergeInConfig(); err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("error reading local config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}

// setDefaults sets default configuration values. Every key needs a default so
// that AutomaticEnv can bind it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	v.SetDefault("catalog.access_key", "")
	v.SetDefault("catalog.secret_key", "")
	v.SetDefault("catalog.associate_tag", "")
	v.SetDefault("catalog.locale", "us")
	v.SetDefault("catalog.endpoint", "")
	v.SetDefault("catalog.timeout", "10s")
	v.SetDefault("catalog.requests_per_second", 1.0)
}

// validate checks structural settings; credentials are checked by CatalogConfig.Validate
func validate(config *Config) error {
	if config.Catalog.Locale == "" {
		return fmt.Errorf("catalog locale is required (set BARCODE_CATALOG_LOCALE)")
	}

	if config.Catalog.Timeout <= 0 {
		return fmt.Errorf("catalog timeout must be positive, got: %s", config.Catalog.Timeout)
	}

	if config.Catalog.RequestsPerSecond < 0 {
		return fmt.Errorf("catalog requests_per_second must not be negative, got: %v", config.Catalog.RequestsPerSecond)
	}

	switch config.Server.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("server environment must be 'development', 'production' or 'test', got: %s", config.Server.Environment)
	}

	return nil
}

// loadEnvFile reads KEY=VALUE pairs from ./.env into the process environment.
// A missing file is not an error and existing variables are never overridden.
func loadEnvFile() error {
	f, err := os.Open(".env")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}

	return scanner.Err()
}
