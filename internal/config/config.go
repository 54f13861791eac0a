package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        string
	MongoURL    string
	DBName      string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string
	AMQPURL     string
	RedisURL    string
	CacheTTL    time.Duration
	SMTP        SMTP
	CompanyName string
	SeedData    bool
}

type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (s SMTP) Enabled() bool { return s.Host != "" }

const devSecret = "dev-only-secret-change-me"

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	var errs []error
	atoi := func(k string, def int) int {
		v := env(k, "")
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%s: not a non-negative integer: %q", k, v))
			return def
		}
		return n
	}

	cfg := Config{
		Env:         env("APP_ENV", "dev"),
		Port:        env("API_PORT", "8001"),
		MongoURL:    env("MONGO_URL", "mongodb://localhost:27017"),
		DBName:      env("DB_NAME", "realty_crm"),
		JWTSecret:   env("JWT_SECRET", ""),
		TokenTTL:    time.Duration(atoi("TOKEN_TTL_HOURS", 24)) * time.Hour,
		CORSOrigins: splitList(env("CORS_ORIGIN", "*")),
		AMQPURL:     env("AMQP_URL", ""),
		RedisURL:    env("REDIS_URL", ""),
		CacheTTL:    time.Duration(atoi("DASHBOARD_CACHE_SECONDS", 60)) * time.Second,
		SMTP: SMTP{
			Host:     env("SMTP_HOST", ""),
			Port:     atoi("SMTP_PORT", 587),
			User:     env("SMTP_USER", ""),
			Password: env("SMTP_PASS", ""),
			From:     env("SMTP_FROM", ""),
		},
		CompanyName: env("COMPANY_NAME", "Rich Man Dream"),
	}

	seed, err := strconv.ParseBool(env("SEED_DATA", "true"))
	if err != nil {
		errs = append(errs, fmt.Errorf("SEED_DATA: %w", err))
	}
	cfg.SeedData = seed

	if cfg.JWTSecret == "" {
		if cfg.Env != "dev" {
			errs = append(errs, errors.New("JWT_SECRET is required outside dev"))
		}
		cfg.JWTSecret = devSecret
	}
	if cfg.TokenTTL == 0 {
		errs = append(errs, errors.New("TOKEN_TTL_HOURS must be positive"))
	}
	if cfg.CacheTTL == 0 {
		errs = append(errs, errors.New("DASHBOARD_CACHE_SECONDS must be positive"))
	}

	return cfg, errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
