package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "touragency.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setDuration(&cfg.Server.RequestTimeout, "TOURAGENCY_REQUEST_TIMEOUT")

	setString(&cfg.Store.Driver, "TOURAGENCY_STORE_DRIVER")
	setString(&cfg.SQLite.Path, "TOURAGENCY_SQLITE_PATH")
	setDuration(&cfg.SQLite.BusyTimeout, "TOURAGENCY_SQLITE_BUSY_TIMEOUT")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "TOURAGENCY_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "TOURAGENCY_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "TOURAGENCY_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "TOURAGENCY_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "TOURAGENCY_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")

	setBool(&cfg.Cache.Enabled, "TOURAGENCY_CACHE_ENABLED")
	setInt64(&cfg.Cache.SizeMB, "TOURAGENCY_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "TOURAGENCY_CACHE_TTL")

	setString(&cfg.Logging.Level, "TOURAGENCY_LOG_LEVEL")
	setString(&cfg.Logging.Service, "TOURAGENCY_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "TOURAGENCY_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "TOURAGENCY_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "TOURAGENCY_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "TOURAGENCY_RATE_RPS")
	setInt(&cfg.Rate.Burst, "TOURAGENCY_RATE_BURST")

	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "TOURAGENCY_OTEL_INSECURE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Store.Driver {
	case DriverSQLite:
		if cfg.SQLite.Path == "" {
			return errors.New("sqlite.path is required")
		}
	case DriverPostgres:
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	default:
		return fmt.Errorf("store.driver %q is not one of %s, %s", cfg.Store.Driver, DriverSQLite, DriverPostgres)
	}
	if cfg.Cache.Enabled && cfg.Cache.SizeMB < 1 {
		return errors.New("cache.size_mb must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
