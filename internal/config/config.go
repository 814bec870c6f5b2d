package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv   string `envconfig:"APP_ENV"   default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL"`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`

	DiscordToken string `envconfig:"DISCORD_BOT_TOKEN"`
	DiscordAppID string `envconfig:"DISCORD_APP_ID"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	PgHost      string `envconfig:"PG_HOST"     default:"localhost"`
	PgPort      string `envconfig:"PG_PORT"     default:"5432"`
	PgUser      string `envconfig:"PG_USER"     default:"postgres"`
	PgPassword  string `envconfig:"PG_PASSWORD"`
	PgDB        string `envconfig:"PG_DB"       default:"governor"`

	// CacheBackend selects "memory" (go-cache) or "redis"
	CacheBackend  string `envconfig:"CACHE_BACKEND"  default:"memory"`
	RedisHost     string `envconfig:"REDIS_HOST"     default:"localhost"`
	RedisPort     string `envconfig:"REDIS_PORT"     default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB"`

	AdminSharedSecret string        `envconfig:"ADMIN_SHARED_SECRET"`
	AdminTokenKey     string        `envconfig:"ADMIN_TOKEN_KEY"`
	AdminTokenTTL     time.Duration `envconfig:"ADMIN_TOKEN_TTL" default:"15m"`
	AdminChannelID    string        `envconfig:"ADMIN_CHANNEL_ID"`

	LadderFile string `envconfig:"LADDER_FILE" default:"config/ladder.yaml"`
	VerifyURL  string `envconfig:"VERIFY_URL"  default:"https://communityfund.stellar.org/tiers"`

	SessionTTL    time.Duration `envconfig:"SESSION_TTL"    default:"120h"`
	Cooldown      time.Duration `envconfig:"COOLDOWN"       default:"720h"`
	LeaseTimeout  time.Duration `envconfig:"LEASE_TIMEOUT"  default:"2m"`
	SyncInterval  time.Duration `envconfig:"SYNC_INTERVAL"  default:"1h"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"15m"`

	MaxStatementParams int `envconfig:"MAX_STATEMENT_PARAMS" default:"999"`

	RateLimitPerSecond float64 `envconfig:"RATE_LIMIT_RPS"   default:"5"`
	RateLimitBurst     int     `envconfig:"RATE_LIMIT_BURST" default:"10"`
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.LeaseTimeout <= 0 {
		return fmt.Errorf("LEASE_TIMEOUT must be positive, got %s", c.LeaseTimeout)
	}
	if c.MaxStatementParams < 4 {
		return fmt.Errorf("MAX_STATEMENT_PARAMS must be at least 4, got %d", c.MaxStatementParams)
	}
	switch c.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", c.CacheBackend)
	}
	return nil
}

// PostgresDSN returns DATABASE_URL, or a URL assembled from the PG_* settings.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PgUser, c.PgPassword),
		Host:     c.PgHost + ":" + c.PgPort,
		Path:     "/" + c.PgDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}
