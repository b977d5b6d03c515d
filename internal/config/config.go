package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port             string
	DBConn           string
	LogLevel         string
	PolicyFile       string
	NarrativeURL     string
	NarrativeAPIKey  string
	NarrativeTimeout time.Duration
	CacheTTL         time.Duration
	CacheSweepSpec   string
	DigestSpec       string
	DigestRecipients string
	SMTPHost         string
	SMTPPort         string
	SMTPUsername     string
	SMTPPassword     string
	SenderEmail      string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBConn:           getEnv("DB_CONN", "host=localhost port=5432 user=finsight password=finsight dbname=finsight sslmode=disable"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		PolicyFile:       getEnv("POLICY_FILE", ""),
		NarrativeURL:     getEnv("NARRATIVE_URL", ""),
		NarrativeAPIKey:  getEnv("NARRATIVE_API_KEY", ""),
		NarrativeTimeout: getEnvDuration("NARRATIVE_TIMEOUT", 10*time.Second),
		CacheTTL:         getEnvDuration("INSIGHTS_CACHE_TTL", 30*time.Minute),
		CacheSweepSpec:   getEnv("CACHE_SWEEP_SPEC", "@every 10m"),
		DigestSpec:       getEnv("DIGEST_SPEC", "0 9 * * 1"),
		DigestRecipients: getEnv("DIGEST_RECIPIENTS", ""),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SenderEmail:      getEnv("SENDER_EMAIL", "insights@finsight.local"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}

	return cfg, nil
}

// DigestEnabled reports whether the weekly digest has everything it needs.
func (c *Config) DigestEnabled() bool {
	return c.SMTPHost != "" && c.DigestRecipients != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
