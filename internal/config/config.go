package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Lookup    LookupConfig    `yaml:"lookup"`
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains the event callback server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
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

// GatewayConfig contains the chat gateway HTTP API settings
type GatewayConfig struct {
	BaseURL     string `yaml:"base_url"`
	AccessToken string `yaml:"access_token"`
	Secret      string `yaml:"secret"` // HMAC secret for event callback signatures
}

// LookupConfig contains the external account lookup service settings
type LookupConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// BotConfig contains the approval flow settings
type BotConfig struct {
	OwnerID              string `yaml:"owner_id"`
	GroupID              int64  `yaml:"group_id"`
	ReviewChannelID      int64  `yaml:"review_channel_id"`
	ReactApproveAuto     string `yaml:"react_approve_auto"`
	ReactApproveDialog   string `yaml:"react_approve_dialog"`
	ReactReject          string `yaml:"react_reject"`
	RetentionHours       int    `yaml:"retention_hours"`
	JoinWaitSeconds      int    `yaml:"join_wait_seconds"`
	RejectTimeoutMinutes int    `yaml:"reject_timeout_minutes"`
	AdminCacheTTLMinutes int    `yaml:"admin_cache_ttl_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	CleanupSweep string `yaml:"cleanup_sweep"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
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

	// Gateway
	if val := os.Getenv("GATEWAY_BASE_URL"); val != "" {
		c.Gateway.BaseURL = val
	}
	if val := os.Getenv("GATEWAY_ACCESS_TOKEN"); val != "" {
		c.Gateway.AccessToken = val
	}
	if val := os.Getenv("GATEWAY_SECRET"); val != "" {
		c.Gateway.Secret = val
	}

	// Lookup
	if val := os.Getenv("LOOKUP_BASE_URL"); val != "" {
		c.Lookup.BaseURL = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Bot
	if val := os.Getenv("BOT_OWNER_ID"); val != "" {
		c.Bot.OwnerID = val
	}
	if val := os.Getenv("BOT_GROUP_ID"); val != "" {
		fmt.Sscanf(val, "%d", &c.Bot.GroupID)
	}
	if val := os.Getenv("BOT_REVIEW_CHANNEL_ID"); val != "" {
		fmt.Sscanf(val, "%d", &c.Bot.ReviewChannelID)
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

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	// Gateway validation
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway base URL is required")
	}

	// Bot validation
	if c.Bot.OwnerID == "" {
		return fmt.Errorf("bot owner id is required")
	}
	if c.Bot.GroupID == 0 {
		return fmt.Errorf("guarded group id is required")
	}
	if c.Bot.ReviewChannelID == 0 {
		return fmt.Errorf("review channel id is required")
	}

	// Reaction kind defaults
	if c.Bot.ReactApproveAuto == "" {
		c.Bot.ReactApproveAuto = "424" // thumbs up
	}
	if c.Bot.ReactApproveDialog == "" {
		c.Bot.ReactApproveDialog = "38" // handshake
	}
	if c.Bot.ReactReject == "" {
		c.Bot.ReactReject = "123" // no entry
	}

	// Flow timing defaults
	if c.Bot.RetentionHours <= 0 {
		c.Bot.RetentionHours = 72
	}
	if c.Bot.JoinWaitSeconds <= 0 {
		c.Bot.JoinWaitSeconds = 10
	}
	if c.Bot.RejectTimeoutMinutes <= 0 {
		c.Bot.RejectTimeoutMinutes = 5
	}
	if c.Bot.AdminCacheTTLMinutes <= 0 {
		c.Bot.AdminCacheTTLMinutes = 10
	}

	// Lookup defaults
	if c.Lookup.TimeoutSeconds <= 0 {
		c.Lookup.TimeoutSeconds = 5
	}

	// Scheduler defaults
	if c.Scheduler.CleanupSweep == "" {
		c.Scheduler.CleanupSweep = "0 0 * * * *" // hourly
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

// GetServerAddress returns the callback server listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
