package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// DevJWTSecret is the placeholder signing secret used when JWT_SECRET is
// unset. It is rejected in production.
const DevJWTSecret = "your-secret-key-please-change-in-production"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongodb"
)

// ErrInsecureSecret is returned by Validate when production would run with
// the placeholder or an empty signing secret.
var ErrInsecureSecret = errors.New("config: JWT_SECRET must be set to a non-default value in production")

type Config struct {
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"NODE_ENV,  default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Audit    AuditConfig
}

type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL,       default=file:acquisitions.db"`
	Driver   string `env:"DATABASE_DRIVER"`
	MongoDB  string `env:"MONGO_DB,           default=acquisitions"`
	MaxConns int    `env:"DATABASE_MAX_CONNS, default=10"`
}

type AuthConfig struct {
	JWTSecret    string        `env:"JWT_SECRET,         default=your-secret-key-please-change-in-production"`
	JWTExpiresIn time.Duration `env:"JWT_EXPIRES_IN,     default=24h"`
	CookieMaxAge time.Duration `env:"COOKIE_MAX_AGE,     default=15m"`
	SignInLimit  int           `env:"SIGNIN_RATE_LIMIT,  default=5"`
	SignInWindow time.Duration `env:"SIGNIN_RATE_WINDOW, default=1m"`
	// AllowAdminSignUp lets sign-up requests ask for the admin role.
	// Ignored in production.
	AllowAdminSignUp bool `env:"ALLOW_ADMIN_SIGNUP, default=false"`
}

// RedisConfig is optional: an empty Addr disables sign-in throttling.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
// A .env file in the working directory is applied first when present;
// variables already set in the environment win.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	return &cfg, nil
}

// IsProduction reports whether NODE_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate rejects configurations that must not reach a running server.
func (c *Config) Validate() error {
	if c.IsProduction() {
		secret := strings.TrimSpace(c.Auth.JWTSecret)
		if secret == "" || secret == DevJWTSecret {
			return ErrInsecureSecret
		}
	}
	if c.Auth.JWTExpiresIn <= 0 {
		return fmt.Errorf("config: JWT_EXPIRES_IN must be positive, got %s", c.Auth.JWTExpiresIn)
	}
	if c.Auth.CookieMaxAge <= 0 {
		return fmt.Errorf("config: COOKIE_MAX_AGE must be positive, got %s", c.Auth.CookieMaxAge)
	}
	if _, err := c.Database.ResolveDriver(); err != nil {
		return err
	}
	return nil
}

// AdminSignUpAllowed reports whether sign-up may self-assign the admin role.
// It is always false in production.
func (c *Config) AdminSignUpAllowed() bool {
	return c.Auth.AllowAdminSignUp && !c.IsProduction()
}

// UsesDefaultSecret reports whether the placeholder secret is active.
func (c *Config) UsesDefaultSecret() bool {
	return c.Auth.JWTSecret == DevJWTSecret
}

// ResolveDriver returns the explicit DATABASE_DRIVER or infers one from the
// DATABASE_URL scheme.
func (d DatabaseConfig) ResolveDriver() (string, error) {
	if d.Driver != "" {
		switch drv := strings.ToLower(d.Driver); drv {
		case DriverPostgres, DriverSQLite, DriverMongo:
			return drv, nil
		default:
			return "", fmt.Errorf("config: unsupported DATABASE_DRIVER %q", d.Driver)
		}
	}

	url := strings.ToLower(d.URL)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return DriverMongo, nil
	case strings.HasPrefix(url, "file:"), strings.HasPrefix(url, "sqlite:"), url == ":memory:":
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("config: cannot infer database driver from DATABASE_URL %q", d.URL)
	}
}
