// Package config loads runtime configuration from environment variables.
package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,       default=8080"`
	Env       string        `env:"ENV,        default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,    default=24h"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`

	Mongo  MongoConfig
	Redis  RedisConfig
	HTTP   HTTPConfig
	Auth   AuthConfig
	Upload UploadConfig
	SMTP   SMTPConfig

	// AutoCloseAfter is how long a resolved incident may sit before it is
	// closed automatically.
	AutoCloseAfter time.Duration `env:"AUTO_CLOSE_AFTER, default=24h"`
	// SweepSchedule is the cron spec for the overdue-incident sweep.
	SweepSchedule string `env:"SWEEP_SCHEDULE, default=@every 10m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=incident_system"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type HTTPConfig struct {
	// AllowedOrigins is the comma-separated CORS and websocket origin list.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=http://localhost:5173"`
	RateLimit      float64  `env:"RATE_LIMIT,      default=20"`
	RateBurst      int      `env:"RATE_BURST,      default=40"`
}

type AuthConfig struct {
	BcryptCost int `env:"BCRYPT_COST, default=10"`
	// LoginMaxAttempts failed logins per client IP within LoginWindow trip the
	// throttle.
	LoginMaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS, default=10"`
	LoginWindow      time.Duration `env:"LOGIN_WINDOW,       default=15m"`
}

type UploadConfig struct {
	Dir      string `env:"UPLOAD_DIR,       default=uploads"`
	MaxBytes int64  `env:"UPLOAD_MAX_BYTES, default=5242880"`
}

// SMTPConfig is passed through to the mail relay sidecar; this service does
// not send mail itself.
type SMTPConfig struct {
	Host string `env:"SMTP_HOST"`
	Port int    `env:"SMTP_PORT, default=587"`
	From string `env:"SMTP_FROM"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Production() && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required in production")
	}
	// The localhost default is a development convenience only; in production
	// the database URI must be explicit.
	if cfg.Production() && os.Getenv("MONGO_URI") == "" {
		return nil, fmt.Errorf("config: MONGO_URI is required in production")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-do-not-use-in-production"
	}
	return &cfg, nil
}

// Production reports whether the service runs with production settings.
func (c *Config) Production() bool { return c.Env == "production" }
