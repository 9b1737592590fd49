// Package config loads runtime settings from an optional YAML file,
// an optional .env file and LIBRARY_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/and161185/library-keeper/internal/crypto"
	"github.com/and161185/library-keeper/internal/model"
)

// Config is the full runtime configuration.
type Config struct {
	LoanDays         int    `yaml:"loan_days" env:"LIBRARY_LOAN_DAYS"`
	SubscriptionDays int    `yaml:"subscription_days" env:"LIBRARY_SUBSCRIPTION_DAYS"`
	SeedFile         string `yaml:"seed_file" env:"LIBRARY_SEED_FILE"`
	MetricsNamespace string `yaml:"metrics_namespace" env:"LIBRARY_METRICS_NAMESPACE"`

	Limiter LimiterConfig `yaml:"limiter"`
	Hash    HashConfig    `yaml:"hash"`
	Log     LogConfig     `yaml:"log"`
}

// LimiterConfig controls the login lockout.
type LimiterConfig struct {
	Window   time.Duration `yaml:"window" env:"LIBRARY_LIMITER_WINDOW"`
	MaxFails int           `yaml:"max_fails" env:"LIBRARY_LIMITER_MAX_FAILS"`
	BlockFor time.Duration `yaml:"block_for" env:"LIBRARY_LIMITER_BLOCK_FOR"`
}

// HashConfig holds Argon2id costs. Zero values use crypto.DefaultParams.
type HashConfig struct {
	Time      uint32 `yaml:"time" env:"LIBRARY_HASH_TIME"`
	MemoryKiB uint32 `yaml:"memory_kib" env:"LIBRARY_HASH_MEMORY_KIB"`
	Threads   uint8  `yaml:"threads" env:"LIBRARY_HASH_THREADS"`
}

// LogConfig selects the zap preset.
type LogConfig struct {
	Level string `yaml:"level" env:"LIBRARY_LOG_LEVEL"`
	Dev   bool   `yaml:"dev" env:"LIBRARY_LOG_DEV"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LoanDays:         14,
		SubscriptionDays: 730,
		MetricsNamespace: "library",
		Limiter: LimiterConfig{
			Window:   15 * time.Minute,
			MaxFails: 5,
			BlockFor: 15 * time.Minute,
		},
		Log: LogConfig{Level: "warn"},
	}
}

// Load builds a Config from defaults, then path (if non-empty), then envFile
// (if non-empty) and finally the process environment.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env (%s): %w", envFile, err)
		}
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	switch {
	case c.LoanDays <= 0 || c.LoanDays > model.MaxPeriodDays:
		return fmt.Errorf("loan_days must be between 1 and %d, got %d", model.MaxPeriodDays, c.LoanDays)
	case c.SubscriptionDays <= 0 || c.SubscriptionDays > model.MaxPeriodDays:
		return fmt.Errorf("subscription_days must be between 1 and %d, got %d", model.MaxPeriodDays, c.SubscriptionDays)
	case c.Limiter.MaxFails <= 0:
		return fmt.Errorf("limiter.max_fails must be positive, got %d", c.Limiter.MaxFails)
	case c.Limiter.Window <= 0 || c.Limiter.BlockFor <= 0:
		return errors.New("limiter durations must be positive")
	}
	return nil
}

// SubscriptionTerm is the member validity granted on registration and renewal.
func (c Config) SubscriptionTerm() time.Duration {
	return time.Duration(c.SubscriptionDays) * 24 * time.Hour
}

// HashParams converts HashConfig into Argon2id parameters.
func (c Config) HashParams() crypto.Params {
	return crypto.Params{
		Time:    c.Hash.Time,
		Memory:  c.Hash.MemoryKiB,
		Threads: c.Hash.Threads,
	}
}
