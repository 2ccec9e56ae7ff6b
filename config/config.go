package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all settings of the application. Values are read from an
// optional config file and from environment variables prefixed with
// AERARIUM_.
type Config struct {
	HTTPPort    int    `mapstructure:"http_port"`
	LogLevel    string `mapstructure:"log_level"`
	Environment string `mapstructure:"environment"`

	SecretKey  string `mapstructure:"secret_key"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`

	// TokenValidity is the lifetime of action tokens in seconds.
	TokenValidity int `mapstructure:"token_validity"`

	DatabaseURL  string `mapstructure:"database_url"`
	ItemsPerPage int    `mapstructure:"items_per_page"`

	// BaseURL is prepended to the action links embedded in emails.
	BaseURL string `mapstructure:"base_url"`

	Languages []string `mapstructure:"languages"`

	TitleShort     string   `mapstructure:"title_short"`
	SupportAddress string   `mapstructure:"support_address"`
	SysAdmins      []string `mapstructure:"sys_admins"`

	MailServer   string `mapstructure:"mail_server"`
	MailPort     int    `mapstructure:"mail_port"`
	MailUseTLS   bool   `mapstructure:"mail_use_tls"`
	MailUseSSL   bool   `mapstructure:"mail_use_ssl"`
	MailUsername string `mapstructure:"mail_username"`
	MailPassword string `mapstructure:"mail_password"`
	MailFrom     string `mapstructure:"mail_from"`
}

// ErrMissingSecretKey is returned when no secret key is configured in
// production mode. Running without one would make every signed token
// forgeable.
var ErrMissingSecretKey = errors.New("no secret key configured")

// IsProduction reports whether the application runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads the configuration from config.yaml (if present) and the
// environment. A missing secret key is fatal in production mode.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("AERARIUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("environment", "development")
	v.SetDefault("secret_key", "")
	v.SetDefault("bcrypt_cost", 12)
	v.SetDefault("token_validity", 900)
	v.SetDefault("database_url", "")
	v.SetDefault("items_per_page", 25)
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("languages", []string{"en"})
	v.SetDefault("title_short", "Aerarium")
	v.SetDefault("support_address", "")
	v.SetDefault("sys_admins", []string{})
	v.SetDefault("mail_server", "")
	v.SetDefault("mail_port", 25)
	v.SetDefault("mail_use_tls", false)
	v.SetDefault("mail_use_ssl", false)
	v.SetDefault("mail_username", "")
	v.SetDefault("mail_password", "")
	v.SetDefault("mail_from", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file: defaults and environment variables apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.MailFrom == "" && cfg.MailServer != "" {
		cfg.MailFrom = "no-reply@" + cfg.MailServer
	}

	if cfg.SecretKey == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingSecretKey
		}
		// A fixed development key keeps local setups working. Tokens
		// signed with it must never reach production.
		cfg.SecretKey = "aerarium-development-secret"
	}

	return cfg, nil
}
