package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ivyforms/ivyforms/internal/model"
)

type Config struct {
	// Server
	Port string
	Env  string // development, production

	// Database: a SQLite file path or a postgres:// URL
	DatabaseURL string

	// Security
	SettingsEncryptionKey string
	NonceSecret           string
	SecureCookies         bool

	// First admin, created when no admin accounts exist
	SeedAdminUsername string
	SeedAdminEmail    string
	SeedAdminPassword string

	// Defaults for the settings row on first run
	SiteURL    string
	SiteTitle  string
	AdminEmail string

	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPass        string
	SMTPFromAddress string
	SMTPFromName    string

	// Submissions per minute per client IP
	SubmissionRateLimit int
}

// Load reads .env and the environment, then applies command line flags.
func Load() (*Config, error) {
	// Load .env file if it exists (don't error if missing)
	_ = godotenv.Load()

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	flag.StringVar(&cfg.Port, "port", cfg.Port, "Server port")
	flag.StringVar(&cfg.Env, "env", cfg.Env, "Environment (development, production)")
	flag.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "SQLite path or PostgreSQL connection string")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv is Load without flag parsing, for tools that own their flags.
func LoadEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		Env:                   getEnv("ENV", "development"),
		DatabaseURL:           getEnv("DATABASE_URL", "ivyforms.db"),
		SettingsEncryptionKey: getEnv("SETTINGS_ENCRYPTION_KEY", ""),
		NonceSecret:           getEnv("NONCE_SECRET", ""),
		SecureCookies:         getEnv("SECURE_COOKIES", "false") == "true",
		SeedAdminUsername:     getEnv("SEED_ADMIN_USERNAME", "admin"),
		SeedAdminEmail:        getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:     getEnv("SEED_ADMIN_PASSWORD", ""),
		SiteURL:               strings.TrimRight(getEnv("SITE_URL", "http://localhost:8080"), "/"),
		SiteTitle:             getEnv("SITE_TITLE", "IvyForms"),
		AdminEmail:            getEnv("ADMIN_EMAIL", ""),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPUser:              getEnv("SMTP_USER", ""),
		SMTPPass:              getEnv("SMTP_PASS", ""),
		SMTPFromAddress:       getEnv("SMTP_FROM_ADDRESS", ""),
		SMTPFromName:          getEnv("SMTP_FROM_NAME", ""),
	}

	var err error
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.SubmissionRateLimit, err = getInt("SUBMISSION_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if len(c.SettingsEncryptionKey) < 32 {
		return fmt.Errorf("SETTINGS_ENCRYPTION_KEY must be at least 32 characters")
	}

	if len(c.NonceSecret) < 16 {
		return fmt.Errorf("NONCE_SECRET must be at least 16 characters")
	}

	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("ENV must be development or production, got %q", c.Env)
	}

	if c.SeedAdminEmail != "" && len(c.SeedAdminPassword) < 8 {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be at least 8 characters")
	}

	if c.SubmissionRateLimit < 0 {
		return fmt.Errorf("SUBMISSION_RATE_LIMIT must not be negative")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DefaultSettings seeds the settings row the first time it is loaded.
func (c *Config) DefaultSettings() model.Settings {
	return model.Settings{
		SiteURL:             c.SiteURL,
		SiteTitle:           c.SiteTitle,
		AdminEmail:          c.AdminEmail,
		SMTPHost:            c.SMTPHost,
		SMTPPort:            c.SMTPPort,
		SMTPUser:            c.SMTPUser,
		SMTPPass:            c.SMTPPass,
		SMTPFromAddress:     c.SMTPFromAddress,
		SMTPFromName:        c.SMTPFromName,
		SubmissionRateLimit: c.SubmissionRateLimit,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
