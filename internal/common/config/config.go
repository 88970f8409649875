// internal/common/config/config.go
package config

import "fmt"

// Receiver variants resolved once from configuration at startup.
const (
	ReceiverSynchronous  = "synchronous"
	ReceiverAsynchronous = "asynchronous"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Database DatabaseConfig `mapstructure:"database"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// NotifyConfig holds the pipeline-wide settings.
type NotifyConfig struct {
	// Enabled is the global kill switch; receivers no-op when false.
	Enabled bool `mapstructure:"enabled"`
	// Receiver selects the active receiver variant (synchronous|asynchronous).
	Receiver string `mapstructure:"receiver"`
	// AutoloadHandlers names the compiled-in handler providers activated at startup.
	AutoloadHandlers []string `mapstructure:"autoload_handlers"`
	// TaskQueue is the Redis list used by the asynchronous receiver.
	TaskQueue string `mapstructure:"task_queue"`

	Template       TemplateConfig       `mapstructure:"template"`
	RelatedObjects RelatedObjectsConfig `mapstructure:"related_objects"`
}

// TemplateConfig holds rendering options, read once per operation.
type TemplateConfig struct {
	Check              bool   `mapstructure:"check"`
	Translate          bool   `mapstructure:"translate"`
	TranslationCatalog string `mapstructure:"translation_catalog"`
	Prefix             string `mapstructure:"prefix"`
	StripHTML          bool   `mapstructure:"strip_html"`
}

// RelatedObjectsConfig holds the attribute allow-list exposed to templates.
type RelatedObjectsConfig struct {
	AllowedAttributes []string `mapstructure:"allowed_attributes"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DispatchConfig holds settings for the delivery channels.
type DispatchConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	Push struct {
		Enabled  bool   `mapstructure:"enabled"`
		Endpoint string `mapstructure:"endpoint"`
		Timeout  int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"push"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
