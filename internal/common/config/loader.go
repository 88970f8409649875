// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/druids/gonotify/internal/common/errors"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like NOTIFY_TEMPLATE_CHECK
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml.
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root, if present.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// ApplyDefaults fills in the documented default values for unset options.
func ApplyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "gonotify"
	}
	if cfg.Notify.Receiver == "" {
		cfg.Notify.Receiver = ReceiverSynchronous
	}
	if cfg.Notify.TaskQueue == "" {
		cfg.Notify.TaskQueue = "gonotify:tasks"
	}
	if len(cfg.Notify.RelatedObjects.AllowedAttributes) == 0 {
		cfg.Notify.RelatedObjects.AllowedAttributes = []string{"get_absolute_url"}
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Dispatch.Push.Timeout == 0 {
		cfg.Dispatch.Push.Timeout = 5000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate rejects configurations the pipeline cannot start with.
func Validate(cfg *Config) error {
	switch cfg.Notify.Receiver {
	case ReceiverSynchronous, ReceiverAsynchronous:
	default:
		return errors.NewConfigurationInvalidError(
			fmt.Sprintf("unknown receiver %q", cfg.Notify.Receiver))
	}

	if cfg.Notify.Receiver == ReceiverAsynchronous {
		if cfg.Database.Redis.Address == "" {
			return errors.NewConfigurationInvalidError(
				"asynchronous receiver requires database.redis.address")
		}
		if cfg.Notify.TaskQueue == "" {
			return errors.NewConfigurationInvalidError(
				"asynchronous receiver requires notify.task_queue")
		}
	}

	if cfg.Notify.Template.Translate && cfg.Notify.Template.TranslationCatalog == "" {
		return errors.NewConfigurationInvalidError(
			"notify.template.translate requires notify.template.translation_catalog")
	}

	return nil
}
