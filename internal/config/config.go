// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Bootstrap controls optional startup seeding.
type Bootstrap struct {
	SeedDemoTiers bool
}

// Config is the immutable runtime configuration.
type Config struct {
	Environment string
	HTTPAddr    string
	DatabaseURL string

	DBMaxOpenConns int
	DBMaxIdleConns int

	Bootstrap Bootstrap
}

// Module provides Config to the fx container.
var Module = fx.Module("config",
	fx.Provide(Load),
)

// Load reads configuration from the process environment. A .env file is
// honored in development for local runs.
func Load() (Config, error) {
	env := strings.TrimSpace(os.Getenv("SPROUT_ENV"))
	if env == "" {
		env = EnvDevelopment
	}
	if env == EnvDevelopment {
		// Missing .env is fine; environment variables win.
		_ = godotenv.Load()
	}

	cfg := Config{
		Environment:    env,
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxOpenConns: getenvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns: getenvInt("DB_MAX_IDLE_CONNS", 5),
		Bootstrap: Bootstrap{
			SeedDemoTiers: getenvBool("BOOTSTRAP_SEED_DEMO_TIERS"),
		},
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production hardening.
func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func getenvDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getenvBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	ok, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return ok
}
