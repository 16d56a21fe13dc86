// Package config loads server settings from the environment, after merging
// in an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT" envDefault:"8080"`

	IdleExpiry    time.Duration `env:"GAME_IDLE_EXPIRY" envDefault:"15m"`
	SweepInterval time.Duration `env:"GAME_SWEEP_INTERVAL" envDefault:"5m"`
	SignalBuffer  int           `env:"SIGNAL_BUFFER" envDefault:"4"`
	WinPoints     int           `env:"WIN_POINTS" envDefault:"2"`

	JWTSecret   string        `env:"JWT_SECRET,required"`
	JWTIssuer   string        `env:"JWT_ISSUER" envDefault:"skull-server"`
	JWTAudience string        `env:"JWT_AUDIENCE" envDefault:"skull"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	UsersFile   string        `env:"USERS_FILE" envDefault:"users.json"`

	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimit      int           `env:"WS_RATE_LIMIT" envDefault:"20"`
	RateWindow     time.Duration `env:"WS_RATE_WINDOW" envDefault:"1s"`

	DatabaseURL      string `env:"DATABASE_URL"`
	ArchiveQueueSize int    `env:"ARCHIVE_QUEUE_SIZE" envDefault:"64"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Development bool   `env:"DEVELOPMENT" envDefault:"false"`
}

// Load reads the given .env files (".env" if none are named) into the
// process environment without overriding variables that are already set,
// then parses the environment. Missing files are skipped.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.IdleExpiry <= 0 {
		errs = append(errs, errors.New("GAME_IDLE_EXPIRY must be positive"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("GAME_SWEEP_INTERVAL must be positive"))
	}
	if c.SignalBuffer < 1 {
		errs = append(errs, errors.New("SIGNAL_BUFFER must be at least 1"))
	}
	if c.WinPoints < 1 {
		errs = append(errs, errors.New("WIN_POINTS must be at least 1"))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.RateLimit < 1 || c.RateWindow <= 0 {
		errs = append(errs, errors.New("WS_RATE_LIMIT and WS_RATE_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
