package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/kong"
)

// Storage backends accepted by DATA_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

const defaultSQLitePath = "teaching_system.db"

// Config holds application configuration. Every field can be set as a flag
// or through its environment variable.
type Config struct {
	Env               string        `name:"env" env:"APP_ENV" default:"development" help:"Deployment environment."`
	LogLevel          string        `name:"log-level" env:"LOG_LEVEL" help:"Override the level derived from the environment (debug, info, warn, error)."`
	HTTPPort          int           `name:"http-port" env:"HTTP_PORT" default:"8080" help:"Port the API listens on."`
	ShutdownTimeout   time.Duration `name:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT" default:"10s"`
	ReadHeaderTimeout time.Duration `name:"read-header-timeout" env:"READ_HEADER_TIMEOUT" default:"5s"`

	DataBackend       string        `name:"data-backend" env:"DATA_BACKEND" default:"memory" enum:"memory,postgres,sqlite" help:"Storage backend (memory, postgres, sqlite)."`
	DatabaseURL       string        `name:"database-url" env:"DATABASE_URL" help:"Postgres DSN or SQLite file path."`
	DBMaxOpenConns    int           `name:"db-max-open-conns" env:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns    int           `name:"db-max-idle-conns" env:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifetime time.Duration `name:"db-conn-max-lifetime" env:"DB_CONN_MAX_LIFETIME" default:"1h"`
	DBConnMaxIdleTime time.Duration `name:"db-conn-max-idle-time" env:"DB_CONN_MAX_IDLE_TIME" default:"30m"`

	JWTSecret     string        `name:"jwt-secret" env:"JWT_SECRET" help:"HMAC secret for access tokens."`
	JWTExpiry     time.Duration `name:"jwt-expiry" env:"JWT_EXPIRY" default:"24h"`
	JWTIssuer     string        `name:"jwt-issuer" env:"JWT_ISSUER" default:"teaching-system"`
	SessionSecret string        `name:"session-secret" env:"SESSION_SECRET" help:"Cookie signing key; defaults to the JWT secret."`

	LoginRatePerMinute int `name:"login-rate-per-minute" env:"LOGIN_RATE_PER_MINUTE" default:"10"`
	LoginBurst         int `name:"login-burst" env:"LOGIN_BURST" default:"5"`
	UserCacheSize      int `name:"user-cache-size" env:"USER_CACHE_SIZE" default:"1024"`

	CORSAllowedOrigins []string `name:"cors-allowed-origins" env:"CORS_ALLOWED_ORIGINS" sep:"," help:"Origins allowed to call the API from a browser."`
	OTLPEndpoint       string   `name:"otlp-endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" help:"OTLP/HTTP collector endpoint; tracing is disabled when empty."`
	MetricsEnabled     bool     `name:"metrics" env:"METRICS_ENABLED" default:"true" negatable:"" help:"Serve Prometheus metrics on /metrics."`
}

// Parse reads configuration from args and the environment, applying
// defaults. Extra flag structs (for example a command's own flags) can be
// passed as embeds; they are filled in by the same parse.
func Parse(args []string, embeds ...any) (Config, error) {
	var cfg Config
	opts := []kong.Option{
		kong.Name("teaching-system"),
		kong.Description("Teaching evaluation API."),
		kong.UsageOnError(),
	}
	for _, e := range embeds {
		opts = append(opts, kong.Embed(e))
	}

	parser, err := kong.New(&cfg, opts...)
	if err != nil {
		return Config{}, err
	}
	if _, err := parser.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field rules and fills in backend-dependent defaults.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.SessionSecret == "" {
		c.SessionSecret = c.JWTSecret
	}

	switch c.DataBackend {
	case BackendMemory:
		// no-op
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_BACKEND=postgres")
		}
	case BackendSQLite:
		if c.DatabaseURL == "" {
			c.DatabaseURL = defaultSQLitePath
		}
	default:
		return fmt.Errorf("unknown DATA_BACKEND value: %s", c.DataBackend)
	}

	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT out of range: %d", c.HTTPPort)
	}
	if c.LoginRatePerMinute <= 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MINUTE must be positive")
	}
	if c.LoginBurst <= 0 {
		c.LoginBurst = 1
	}

	origins := c.CORSAllowedOrigins[:0]
	for _, o := range c.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSAllowedOrigins = origins
	return nil
}

// UsesSQL reports whether the configured backend is a SQL database.
func (c Config) UsesSQL() bool {
	return c.DataBackend == BackendPostgres || c.DataBackend == BackendSQLite
}

// Production reports whether the service runs in production, which turns on
// secure cookies.
func (c Config) Production() bool {
	return c.Env == "production"
}
