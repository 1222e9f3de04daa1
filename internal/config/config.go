// Package config reads runtime settings from the environment. A .env file in
// the working directory is loaded first when one exists; real environment
// variables win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Session backends.
const (
	SessionSQL    = "sql"
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

type Config struct {
	Env            string
	Port           string
	DBDriver       string
	DBDSN          string
	DBMaxConns     int
	SessionBackend string
	RedisURL       string
	SessionTTL     time.Duration
	CookieSecure   bool
	LoginRateLimit int
	TrustProxy     bool
	LogLevel       string
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment alone.
func FromEnv() (Config, error) {
	env := strings.ToLower(getenv("JOTTER_ENV", EnvDevelopment))
	prod := env == EnvProduction

	defaultDSN := "jotter.db"
	if prod {
		defaultDSN = "/tmp/jotter.db"
	}

	cfg := Config{
		Env:            env,
		Port:           getenv("JOTTER_PORT", getenv("PORT", "3000")),
		DBDriver:       strings.ToLower(getenv("JOTTER_DB_DRIVER", "sqlite")),
		DBDSN:          getenv("JOTTER_DB_DSN", getenv("DATABASE_URL", defaultDSN)),
		SessionBackend: strings.ToLower(getenv("JOTTER_SESSION_BACKEND", SessionSQL)),
		RedisURL:       getenv("JOTTER_REDIS_URL", "redis://localhost:6379/0"),
		LogLevel:       getenv("JOTTER_LOG_LEVEL", "info"),
	}

	var errs []error
	var err error
	if cfg.DBMaxConns, err = intEnv("JOTTER_DB_MAX_CONNS", 10); err != nil {
		errs = append(errs, err)
	}
	if cfg.LoginRateLimit, err = intEnv("JOTTER_LOGIN_RATE_LIMIT", 10); err != nil {
		errs = append(errs, err)
	}
	if cfg.SessionTTL, err = durationEnv("JOTTER_SESSION_TTL", 720*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.CookieSecure, err = boolEnv("JOTTER_COOKIE_SECURE", prod); err != nil {
		errs = append(errs, err)
	}
	if cfg.TrustProxy, err = boolEnv("JOTTER_TRUST_PROXY", false); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("JOTTER_ENV: unknown environment %q", c.Env)
	}
	switch c.SessionBackend {
	case SessionSQL, SessionRedis, SessionMemory:
	default:
		return fmt.Errorf("JOTTER_SESSION_BACKEND: unknown backend %q", c.SessionBackend)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("JOTTER_PORT: %q is not a number", c.Port)
	}
	if c.SessionTTL <= 0 {
		return errors.New("JOTTER_SESSION_TTL must be positive")
	}
	if c.LoginRateLimit <= 0 {
		return errors.New("JOTTER_LOGIN_RATE_LIMIT must be positive")
	}
	if c.DBMaxConns <= 0 {
		return errors.New("JOTTER_DB_MAX_CONNS must be positive")
	}
	return nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
