package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port               string
	DBURL              string
	JWTSecret          string
	JWTTTLHours        int
	PricingTimezone    string
	PricingLocation    *time.Location
	ReadTimeoutSecs    int
	WriteTimeoutSecs   int
	IdleTimeoutSecs    int
	DBMaxConns         int
	DBMinConns         int
	DBMaxIdleSecs      int
	DBMaxLifeSecs      int
	DBConnTimeoutSecs  int
	DBStatementCache   int
	DBWaitAttempts     int
	DBWaitIntervalSecs int
}

// fileConfig is the optional YAML document named by CONFIG_FILE. Environment
// variables take precedence over anything it sets.
type fileConfig struct {
	Server struct {
		Port             string `yaml:"port"`
		ReadTimeoutSecs  int    `yaml:"read_timeout_secs"`
		WriteTimeoutSecs int    `yaml:"write_timeout_secs"`
		IdleTimeoutSecs  int    `yaml:"idle_timeout_secs"`
	} `yaml:"server"`
	Database struct {
		URL              string `yaml:"url"`
		MaxConns         int    `yaml:"max_conns"`
		MinConns         int    `yaml:"min_conns"`
		MaxIdleSecs      int    `yaml:"max_conn_idle_secs"`
		MaxLifeSecs      int    `yaml:"max_conn_lifetime_secs"`
		ConnTimeoutSecs  int    `yaml:"conn_timeout_secs"`
		StatementCache   int    `yaml:"statement_cache_capacity"`
		WaitAttempts     int    `yaml:"wait_attempts"`
		WaitIntervalSecs int    `yaml:"wait_interval_secs"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret   string `yaml:"jwt_secret"`
		JWTTTLHours int    `yaml:"jwt_ttl_hours"`
	} `yaml:"auth"`
	Pricing struct {
		Timezone string `yaml:"timezone"`
	} `yaml:"pricing"`
}

// Load reads configuration from an optional .env file, an optional YAML file and
// environment variables, applying defaults and validation.
func Load() (Config, error) {
	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBURL = getEnv("DB_URL", cfg.DBURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTTTLHours = getEnvInt("JWT_TTL_HOURS", cfg.JWTTTLHours)
	cfg.PricingTimezone = getEnv("PRICING_TIMEZONE", cfg.PricingTimezone)
	cfg.ReadTimeoutSecs = getEnvInt("SERVER_READ_TIMEOUT", cfg.ReadTimeoutSecs)
	cfg.WriteTimeoutSecs = getEnvInt("SERVER_WRITE_TIMEOUT", cfg.WriteTimeoutSecs)
	cfg.IdleTimeoutSecs = getEnvInt("SERVER_IDLE_TIMEOUT", cfg.IdleTimeoutSecs)
	cfg.DBMaxConns = getEnvInt("DB_MAX_CONNS", cfg.DBMaxConns)
	cfg.DBMinConns = getEnvInt("DB_MIN_CONNS", cfg.DBMinConns)
	cfg.DBMaxIdleSecs = getEnvInt("DB_MAX_CONN_IDLE_SECS", cfg.DBMaxIdleSecs)
	cfg.DBMaxLifeSecs = getEnvInt("DB_MAX_CONN_LIFETIME_SECS", cfg.DBMaxLifeSecs)
	cfg.DBConnTimeoutSecs = getEnvInt("DB_CONN_TIMEOUT_SECS", cfg.DBConnTimeoutSecs)
	cfg.DBStatementCache = getEnvInt("DB_STATEMENT_CACHE_CAPACITY", cfg.DBStatementCache)
	cfg.DBWaitAttempts = getEnvInt("DB_WAIT_ATTEMPTS", cfg.DBWaitAttempts)
	cfg.DBWaitIntervalSecs = getEnvInt("DB_WAIT_INTERVAL_SECS", cfg.DBWaitIntervalSecs)

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTTTLHours <= 0 {
		return Config{}, fmt.Errorf("JWT_TTL_HOURS must be positive")
	}
	loc, err := time.LoadLocation(cfg.PricingTimezone)
	if err != nil {
		return Config{}, fmt.Errorf("PRICING_TIMEZONE is invalid: %w", err)
	}
	cfg.PricingLocation = loc
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMaxConns > 0 && cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.DBWaitAttempts < 0 {
		return Config{}, fmt.Errorf("DB_WAIT_ATTEMPTS must be non-negative")
	}
	if cfg.DBWaitIntervalSecs <= 0 {
		return Config{}, fmt.Errorf("DB_WAIT_INTERVAL_SECS must be positive")
	}

	return cfg, nil
}

func defaults() Config {
	return Config{
		Port:               "8080",
		JWTTTLHours:        24,
		PricingTimezone:    "UTC",
		ReadTimeoutSecs:    15,
		WriteTimeoutSecs:   15,
		IdleTimeoutSecs:    60,
		DBMaxConns:         20,
		DBMinConns:         2,
		DBMaxIdleSecs:      300,
		DBMaxLifeSecs:      3600,
		DBConnTimeoutSecs:  10,
		DBStatementCache:   256,
		DBWaitAttempts:     30,
		DBWaitIntervalSecs: 1,
	}
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&c.Port, f.Server.Port)
	setInt(&c.ReadTimeoutSecs, f.Server.ReadTimeoutSecs)
	setInt(&c.WriteTimeoutSecs, f.Server.WriteTimeoutSecs)
	setInt(&c.IdleTimeoutSecs, f.Server.IdleTimeoutSecs)
	setString(&c.DBURL, f.Database.URL)
	setInt(&c.DBMaxConns, f.Database.MaxConns)
	setInt(&c.DBMinConns, f.Database.MinConns)
	setInt(&c.DBMaxIdleSecs, f.Database.MaxIdleSecs)
	setInt(&c.DBMaxLifeSecs, f.Database.MaxLifeSecs)
	setInt(&c.DBConnTimeoutSecs, f.Database.ConnTimeoutSecs)
	setInt(&c.DBStatementCache, f.Database.StatementCache)
	setInt(&c.DBWaitAttempts, f.Database.WaitAttempts)
	setInt(&c.DBWaitIntervalSecs, f.Database.WaitIntervalSecs)
	setString(&c.JWTSecret, f.Auth.JWTSecret)
	setInt(&c.JWTTTLHours, f.Auth.JWTTTLHours)
	setString(&c.PricingTimezone, f.Pricing.Timezone)
	return nil
}

// loadDotEnv populates unset variables from path. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func setInt(dst *int, val int) {
	if val != 0 {
		*dst = val
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
