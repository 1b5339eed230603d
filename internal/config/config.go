// Package config loads the application configuration from an optional
// TOML file, with environment variables taking precedence over both the
// file and the built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/niravrohra/library-circulation/circulation"
)

// Duration is a time.Duration that decodes from TOML strings like
// "10s" or "1h". go-toml has no native duration support, so the type
// goes through encoding.TextUnmarshaler.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	*d = Duration(parsed)

	return nil
}

// Std returns the value as a plain time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config aggregates application configuration values.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	HTTP     HTTPConfig     `toml:"http"`
	Logging  LoggingConfig  `toml:"logging"`
	Auth     AuthConfig     `toml:"auth"`
	Policy   PolicyConfig   `toml:"policy"`
}

// DatabaseConfig describes connectivity to the circulation database.
type DatabaseConfig struct {
	Driver   string `toml:"driver"` // postgres|sqlite
	DSN      string `toml:"dsn"`
	MaxConns int    `toml:"max_conns"`
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host            string        `toml:"host"`
	Port            int           `toml:"port"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	IdleTimeout     Duration `toml:"idle_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text|json
}

// AuthConfig holds the injected admin credential and session settings.
// The password hash is a bcrypt hash, never a plain password.
type AuthConfig struct {
	AdminUser         string   `toml:"admin_user"`
	AdminPasswordHash string   `toml:"admin_password_hash"`
	TokenTTL          Duration `toml:"token_ttl"`
}

// PolicyConfig carries the circulation policy knobs.
type PolicyConfig struct {
	LoanPeriodDays int    `toml:"loan_period_days"`
	LoanLimit      int    `toml:"loan_limit"`
	DailyFineRate  string `toml:"daily_fine_rate"`
}

const (
	defaultDriver          = "sqlite"
	defaultDSN             = "file:library.db?_pragma=foreign_keys(1)"
	defaultMaxConns        = 10
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
	defaultAdminUser       = "admin"
	defaultTokenTTL        = 12 * time.Hour
)

// Load reads configuration from the TOML file at path (skipped when path
// is empty or the file does not exist), applies environment variable
// overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if unmarshalErr := toml.Unmarshal(raw, &cfg); unmarshalErr != nil {
				return Config{}, fmt.Errorf("parsing config file: %w", unmarshalErr)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:   defaultDriver,
			DSN:      defaultDSN,
			MaxConns: defaultMaxConns,
		},
		HTTP: HTTPConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			ReadTimeout:     Duration(defaultReadTimeout),
			WriteTimeout:    Duration(defaultWriteTimeout),
			IdleTimeout:     Duration(defaultIdleTimeout),
			ShutdownTimeout: Duration(defaultShutdownTimeout),
		},
		Logging: LoggingConfig{
			Level:  defaultLoggingLevel,
			Format: defaultLoggingFormat,
		},
		Auth: AuthConfig{
			AdminUser: defaultAdminUser,
			TokenTTL:  Duration(defaultTokenTTL),
		},
		Policy: PolicyConfig{
			LoanPeriodDays: circulation.DefaultLoanPeriodDays,
			LoanLimit:      circulation.DefaultLoanLimit,
			DailyFineRate:  circulation.DefaultDailyFineRate.String(),
		},
	}
}

func applyEnv(cfg *Config) error {
	cfg.Database.Driver = valueOrDefault("LIBRARY_DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = valueOrDefault("LIBRARY_DB_DSN", cfg.Database.DSN)
	cfg.Database.MaxConns = parseIntWithDefault("LIBRARY_DB_MAX_CONNS", cfg.Database.MaxConns)

	cfg.HTTP.Host = valueOrDefault("LIBRARY_HTTP_HOST", cfg.HTTP.Host)

	port, err := parsePort("LIBRARY_HTTP_PORT", cfg.HTTP.Port)
	if err != nil {
		return err
	}
	cfg.HTTP.Port = port

	for _, override := range []struct {
		key    string
		target *Duration
	}{
		{"LIBRARY_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"LIBRARY_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"LIBRARY_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"LIBRARY_HTTP_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"LIBRARY_AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL},
	} {
		if v := os.Getenv(override.key); v != "" {
			d, parseErr := time.ParseDuration(v)
			if parseErr != nil {
				return fmt.Errorf("invalid %s: %w", override.key, parseErr)
			}
			*override.target = Duration(d)
		}
	}

	cfg.Logging.Level = valueOrDefault("LIBRARY_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = valueOrDefault("LIBRARY_LOG_FORMAT", cfg.Logging.Format)

	cfg.Auth.AdminUser = valueOrDefault("LIBRARY_AUTH_ADMIN_USER", cfg.Auth.AdminUser)
	cfg.Auth.AdminPasswordHash = valueOrDefault("LIBRARY_AUTH_ADMIN_PASSWORD_HASH", cfg.Auth.AdminPasswordHash)

	cfg.Policy.LoanPeriodDays = parseIntWithDefault("LIBRARY_POLICY_LOAN_PERIOD_DAYS", cfg.Policy.LoanPeriodDays)
	cfg.Policy.LoanLimit = parseIntWithDefault("LIBRARY_POLICY_LOAN_LIMIT", cfg.Policy.LoanLimit)
	cfg.Policy.DailyFineRate = valueOrDefault("LIBRARY_POLICY_DAILY_FINE_RATE", cfg.Policy.DailyFineRate)

	return nil
}

// Validate checks the cross-field constraints the type system cannot.
func (c Config) Validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if c.Policy.LoanPeriodDays <= 0 {
		return fmt.Errorf("loan period days must be positive")
	}
	if c.Policy.LoanLimit <= 0 {
		return fmt.Errorf("loan limit must be positive")
	}
	if _, err := c.FineRate(); err != nil {
		return err
	}

	return nil
}

// FineRate parses the configured daily fine rate into a decimal amount.
func (c Config) FineRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.Policy.DailyFineRate)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid daily fine rate %q: %w", c.Policy.DailyFineRate, err)
	}
	if rate.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("daily fine rate must not be negative")
	}

	return rate, nil
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}

	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}

		return port, nil
	}

	return fallback, nil
}
