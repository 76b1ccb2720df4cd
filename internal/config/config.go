// Package config loads service configuration from a YAML file with
// environment variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the newsletter service
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Email    EmailConfig    `yaml:"email"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// BaseURL is the externally reachable URL embedded in
	// confirmation links, e.g. "https://newsletter.nadon.io".
	BaseURL string `yaml:"base_url"`
}

// Addr returns the listen address in host:port form
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// EmailConfig holds outbound email provider settings
type EmailConfig struct {
	// Provider selects the delivery backend: "postmark" or "ses".
	Provider       string `yaml:"provider"`
	BaseURL        string `yaml:"base_url"`
	SenderEmail    string `yaml:"sender_email"`
	SenderName     string `yaml:"sender_name"`
	AuthToken      string `yaml:"auth_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// SES settings (ignored for the postmark provider)
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Timeout returns the outbound HTTP timeout as a duration
func (c EmailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AuthConfig holds credential verification settings
type AuthConfig struct {
	// VerifyWorkers is the size of the dedicated pool that runs
	// password-hash verification off the request goroutines.
	VerifyWorkers int `yaml:"verify_workers"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Email.Provider == "" {
		cfg.Email.Provider = "postmark"
	}
	if cfg.Email.TimeoutSeconds == 0 {
		cfg.Email.TimeoutSeconds = 10
	}
	if cfg.Email.Region == "" {
		cfg.Email.Region = "us-west-2"
	}
	if cfg.Auth.VerifyWorkers == 0 {
		cfg.Auth.VerifyWorkers = 2
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if baseURL := os.Getenv("APP_BASE_URL"); baseURL != "" {
		cfg.Server.BaseURL = baseURL
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if token := os.Getenv("EMAIL_AUTH_TOKEN"); token != "" {
		cfg.Email.AuthToken = token
	}
	if sender := os.Getenv("EMAIL_SENDER"); sender != "" {
		cfg.Email.SenderEmail = sender
	}
	if accessKey := os.Getenv("AWS_SES_ACCESS_KEY"); accessKey != "" {
		cfg.Email.AccessKey = accessKey
	}
	if secretKey := os.Getenv("AWS_SES_SECRET_KEY"); secretKey != "" {
		cfg.Email.SecretKey = secretKey
	}
	if region := os.Getenv("AWS_SES_REGION"); region != "" {
		cfg.Email.Region = region
	}

	return cfg, nil
}
