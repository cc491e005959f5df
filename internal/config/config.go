package config

import (
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	JWT       JWTConfig       `yaml:"jwt"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Email     EmailConfig     `yaml:"email_queue"`
	Relay     RelayConfig     `yaml:"relay"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// StorageConfig selects the rental store
type StorageConfig struct {
	Type string `yaml:"type"` // "memory" or "postgres"
}

// JWTConfig contains bearer token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// SendGridConfig contains email delivery settings. An empty API key logs
// notifications instead of sending them.
type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// EmailConfig sizes the queue that delivers notifications off the
// request path
type EmailConfig struct {
	Workers             int `yaml:"workers"`
	QueueSize           int `yaml:"queue_size"`
	SendTimeoutSeconds  int `yaml:"send_timeout_seconds"`
	MaxRetries          int `yaml:"max_retries"`
	RetryBackoffSeconds int `yaml:"retry_backoff_seconds"`
}

// RelayConfig contains messaging relay settings
type RelayConfig struct {
	OutputBuffer int64 `yaml:"output_buffer"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	InProcess             bool   `yaml:"in_process"` // run jobs inside the API server
	SendExchangeReminders string `yaml:"send_exchange_reminders"`
	ReminderWindowMinutes int    `yaml:"reminder_window_minutes"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Storage
	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = 10
	}

	if c.Storage.Type == "" {
		c.Storage.Type = StorageMemory
	}
	switch c.Storage.Type {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.Host == "" {
			return errors.New("database host is required")
		}
		if c.Database.User == "" {
			return errors.New("database user is required")
		}
		if c.Database.Database == "" {
			return errors.New("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	default:
		return errors.Newf("unknown storage type: %q", c.Storage.Type)
	}

	if c.JWT.Secret == "" {
		return errors.New("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry <= 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	if c.SendGrid.FromEmail == "" {
		c.SendGrid.FromEmail = "no-reply@campusrentals.app"
	}
	if c.SendGrid.FromName == "" {
		c.SendGrid.FromName = "Campus Rentals"
	}

	if c.Email.Workers <= 0 {
		c.Email.Workers = 2
	}
	if c.Email.QueueSize <= 0 {
		c.Email.QueueSize = 256
	}
	if c.Email.SendTimeoutSeconds <= 0 {
		c.Email.SendTimeoutSeconds = 10
	}
	if c.Email.MaxRetries < 0 {
		return errors.Newf("invalid email max_retries: %d", c.Email.MaxRetries)
	}
	if c.Email.RetryBackoffSeconds <= 0 {
		c.Email.RetryBackoffSeconds = 1
	}

	if c.Relay.OutputBuffer <= 0 {
		c.Relay.OutputBuffer = 64
	}

	// Scheduler defaults
	if c.Scheduler.SendExchangeReminders == "" {
		c.Scheduler.SendExchangeReminders = "0 */15 * * * *" // Every 15 minutes
	}
	if c.Scheduler.ReminderWindowMinutes <= 0 {
		c.Scheduler.ReminderWindowMinutes = 60
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiry) * time.Minute
}

func (c *Config) ReminderWindow() time.Duration {
	return time.Duration(c.Scheduler.ReminderWindowMinutes) * time.Minute
}

func (c *Config) EmailSendTimeout() time.Duration {
	return time.Duration(c.Email.SendTimeoutSeconds) * time.Second
}

func (c *Config) EmailRetryBackoff() time.Duration {
	return time.Duration(c.Email.RetryBackoffSeconds) * time.Second
}
