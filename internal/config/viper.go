// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"

	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ParserConfig holds per-institution adapter settings.
type ParserConfig struct {
	// Signatures are stripped from merchant text in addition to the
	// institution's built-in list.
	Signatures []string `mapstructure:"signatures" yaml:"signatures"`
}

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`

	Store struct {
		Driver     string `mapstructure:"driver" yaml:"driver"`
		Directory  string `mapstructure:"directory" yaml:"directory"`
		SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	} `mapstructure:"store" yaml:"store"`

	Source struct {
		Driver    string `mapstructure:"driver" yaml:"driver"`
		Directory string `mapstructure:"directory" yaml:"directory"`
		Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	} `mapstructure:"source" yaml:"source"`

	Import struct {
		Workers int    `mapstructure:"workers" yaml:"workers"`
		Mode    string `mapstructure:"mode" yaml:"mode"`
	} `mapstructure:"import" yaml:"import"`

	Parsers map[string]ParserConfig `mapstructure:"parsers" yaml:"parsers"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return InitializeConfigFromFile("")
}

// InitializeConfigFromFile behaves like InitializeConfig but reads the given
// file instead of searching the standard locations when path is not empty.
// A missing explicit file is an error.
func InitializeConfigFromFile(path string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.stmt-import")
		v.AddConfigPath(".stmt-import")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("STMT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless explicit)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if !errors.As(err, &notFound) {
			logging.GetLogger().WithError(err).Warn("Error reading config file, using defaults",
				logging.Field{Key: logging.FieldFile, Value: v.ConfigFileUsed()})
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// CSV defaults
	v.SetDefault("csv.delimiter", ",")

	// Store defaults
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.directory", "database")
	v.SetDefault("store.sqlite_path", "database/stmt-import.db")

	// Source defaults
	v.SetDefault("source.driver", "local")
	v.SetDefault("source.directory", "media")
	v.SetDefault("source.bucket", "")

	// Import defaults
	v.SetDefault("import.workers", 4)
	v.SetDefault("import.mode", string(models.WindowIncremental))

	// Parser defaults, one key per provider so env overrides bind
	for _, p := range models.AllProviders() {
		v.SetDefault("parsers."+string(p)+".signatures", []string{})
	}
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	// Validate CSV delimiter
	if len([]rune(config.CSV.Delimiter)) != 1 && config.CSV.Delimiter != `\t` {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	switch config.Store.Driver {
	case "file":
		if config.Store.Directory == "" {
			return fmt.Errorf("store.directory is required for the file store")
		}
	case "sqlite":
		if config.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be 'file' or 'sqlite')", config.Store.Driver)
	}

	switch config.Source.Driver {
	case "local":
		if config.Source.Directory == "" {
			return fmt.Errorf("source.directory is required for the local source")
		}
	case "gcs":
		if config.Source.Bucket == "" {
			return fmt.Errorf("source.bucket is required for the gcs source")
		}
	default:
		return fmt.Errorf("invalid source driver: %s (must be 'local' or 'gcs')", config.Source.Driver)
	}

	if config.Import.Workers < 1 || config.Import.Workers > 64 {
		return fmt.Errorf("import.workers must be between 1 and 64, got: %d", config.Import.Workers)
	}

	if _, err := models.ParseWindowMode(config.Import.Mode); err != nil {
		return fmt.Errorf("import.mode: %w", err)
	}

	for name := range config.Parsers {
		if _, err := models.ParseProvider(name); err != nil {
			return fmt.Errorf("parsers.%s: %w", name, err)
		}
	}

	return nil
}

// WindowMode returns the configured default import mode.
func (c *Config) WindowMode() models.WindowMode {
	mode, err := models.ParseWindowMode(c.Import.Mode)
	if err != nil {
		return models.WindowIncremental
	}
	return mode
}

// ExtraSignatures returns the configured signature tokens keyed by provider.
func (c *Config) ExtraSignatures() map[models.Provider][]string {
	out := make(map[models.Provider][]string, len(c.Parsers))
	for name, pc := range c.Parsers {
		p, err := models.ParseProvider(name)
		if err != nil || len(pc.Signatures) == 0 {
			continue
		}
		out[p] = append(out[p], pc.Signatures...)
	}
	return out
}

// NewLoggerFromConfig builds the application logger from the log section.
func NewLoggerFromConfig(config *Config) logging.Logger {
	return logging.NewLogrusAdapter(strings.ToLower(config.Log.Level), strings.ToLower(config.Log.Format))
}
