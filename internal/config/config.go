package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in minimal containers

	"github.com/spf13/viper"
)

const (
	CredentialBcrypt    = "bcrypt"
	CredentialPlaintext = "plaintext"

	ActivitiesUpsert = "upsert"
	ActivitiesInsert = "insert"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	Env                string        `mapstructure:"ENV"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL           string        `mapstructure:"REDIS_URL"`
	CORSOrigins        []string      `mapstructure:"CORS_ORIGINS"`
	BodyLimit          string        `mapstructure:"BODY_LIMIT"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	Timezone           string        `mapstructure:"TIMEZONE"`
	ReconcileEnabled   bool          `mapstructure:"RECONCILE_ENABLED"`
	ReconcileInterval  time.Duration `mapstructure:"RECONCILE_INTERVAL"`
	ReconcileLockTTL   time.Duration `mapstructure:"RECONCILE_LOCK_TTL"`
	CredentialScheme   string        `mapstructure:"CREDENTIAL_SCHEME"`
	DeleteConfirmation string        `mapstructure:"DELETE_CONFIRMATION"`
	ActivitiesPolicy   string        `mapstructure:"DAILYLOG_ACTIVITIES_POLICY"`
	LoginPerMinute     int           `mapstructure:"LOGIN_PER_MINUTE"`
	LoginBurst         int           `mapstructure:"LOGIN_BURST"`

	location *time.Location
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"REDIS_URL", "CORS_ORIGINS", "BODY_LIMIT", "REQUEST_TIMEOUT", "TIMEZONE", "RECONCILE_ENABLED",
	"RECONCILE_INTERVAL", "RECONCILE_LOCK_TTL", "CREDENTIAL_SCHEME",
	"DELETE_CONFIRMATION", "DAILYLOG_ACTIVITIES_POLICY", "LOGIN_PER_MINUTE", "LOGIN_BURST",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("REQUEST_TIMEOUT", time.Duration(0))
	v.SetDefault("TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("RECONCILE_ENABLED", true)
	v.SetDefault("RECONCILE_INTERVAL", time.Hour)
	v.SetDefault("RECONCILE_LOCK_TTL", 5*time.Minute)
	v.SetDefault("CREDENTIAL_SCHEME", CredentialBcrypt)
	v.SetDefault("DELETE_CONFIRMATION", "CONFIRMAR_DELECAO")
	v.SetDefault("DAILYLOG_ACTIVITIES_POLICY", ActivitiesUpsert)
	v.SetDefault("LOGIN_PER_MINUTE", 10)
	v.SetDefault("LOGIN_BURST", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Location returns the server time zone used for calendar days and
// appointment date/time pairs. Validate must have succeeded first.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Validate checks enumerated settings and resolves TIMEZONE.
func (c *Config) Validate() error {
	switch c.CredentialScheme {
	case CredentialBcrypt, CredentialPlaintext:
	default:
		return fmt.Errorf("CREDENTIAL_SCHEME must be %q or %q, got %q", CredentialBcrypt, CredentialPlaintext, c.CredentialScheme)
	}

	switch c.ActivitiesPolicy {
	case ActivitiesUpsert, ActivitiesInsert:
	default:
		return fmt.Errorf("DAILYLOG_ACTIVITIES_POLICY must be %q or %q, got %q", ActivitiesUpsert, ActivitiesInsert, c.ActivitiesPolicy)
	}

	if c.ReconcileInterval <= 0 {
		return fmt.Errorf("RECONCILE_INTERVAL must be positive, got %s", c.ReconcileInterval)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must not be negative, got %s", c.RequestTimeout)
	}
	if c.ReconcileLockTTL <= 0 {
		return fmt.Errorf("RECONCILE_LOCK_TTL must be positive, got %s", c.ReconcileLockTTL)
	}
	if c.LoginPerMinute < 0 || c.LoginBurst < 1 {
		return fmt.Errorf("LOGIN_PER_MINUTE must be >= 0 and LOGIN_BURST >= 1")
	}
	if strings.TrimSpace(c.DeleteConfirmation) == "" {
		return fmt.Errorf("DELETE_CONFIRMATION must not be empty")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc

	return nil
}
