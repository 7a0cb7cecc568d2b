// Package config loads and validates the tournament engine's configuration:
// Elo constants, scheduler tuning, debounce windows, and storage paths, from
// a YAML file layered under CLI-flag overrides. Grounded on the teacher's
// pkg/data/config.go.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Error types for configuration validation.
var (
	ErrInvalidEloConfig       = errors.New("invalid elo configuration")
	ErrInvalidSchedulerConfig = errors.New("invalid scheduler configuration")
	ErrInvalidStorageConfig   = errors.New("invalid storage configuration")
	ErrConfigNotFound         = errors.New("configuration file not found")
	ErrConfigParseError       = errors.New("failed to parse configuration file")
)

// EngineConfig is the top-level engine configuration, per SPEC_FULL §4.9.
type EngineConfig struct {
	InitialRating            float64 `yaml:"initial_rating" json:"initial_rating"`
	KFactor                  float64 `yaml:"k_factor" json:"k_factor"`
	SchedulerProximityWeight float64 `yaml:"scheduler_proximity_weight" json:"scheduler_proximity_weight"`
	SessionDebounceMS        int     `yaml:"session_debounce_ms" json:"session_debounce_ms"`
	SelectionDebounceMS      int     `yaml:"selection_debounce_ms" json:"selection_debounce_ms"`
	VoteGuardMS              int     `yaml:"vote_guard_ms" json:"vote_guard_ms"`
	StorageDir               string  `yaml:"storage_dir" json:"storage_dir"`
	BackupCount              int     `yaml:"backup_count" json:"backup_count"`
}

// Default returns the built-in default configuration, matching the
// constants named throughout spec.md: K=32, proximity weight 50, session
// debounce 1000ms, selection debounce 800ms, vote guard 300ms.
func Default() EngineConfig {
	return EngineConfig{
		InitialRating:            1500.0,
		KFactor:                  32.0,
		SchedulerProximityWeight: 50.0,
		SessionDebounceMS:        1000,
		SelectionDebounceMS:      800,
		VoteGuardMS:              300,
		StorageDir:               "./.rankforge",
		BackupCount:              5,
	}
}

// Validate checks that the configuration's values are usable.
func (c *EngineConfig) Validate() error {
	if c.KFactor <= 0 {
		return fmt.Errorf("%w: k_factor must be positive, got %v", ErrInvalidEloConfig, c.KFactor)
	}
	if c.InitialRating <= 0 {
		return fmt.Errorf("%w: initial_rating must be positive, got %v", ErrInvalidEloConfig, c.InitialRating)
	}
	if c.SchedulerProximityWeight < 0 {
		return fmt.Errorf("%w: scheduler_proximity_weight cannot be negative, got %v", ErrInvalidSchedulerConfig, c.SchedulerProximityWeight)
	}
	if c.SessionDebounceMS <= 0 || c.SelectionDebounceMS <= 0 || c.VoteGuardMS < 0 {
		return fmt.Errorf("%w: debounce windows must be positive and the vote guard non-negative", ErrInvalidSchedulerConfig)
	}
	if c.StorageDir == "" {
		return fmt.Errorf("%w: storage_dir cannot be empty", ErrInvalidStorageConfig)
	}
	if c.BackupCount < 0 {
		return fmt.Errorf("%w: backup_count cannot be negative", ErrInvalidStorageConfig)
	}
	return nil
}

// LoadFromFile loads an EngineConfig from a YAML file, merging missing
// fields with defaults before validating.
func LoadFromFile(filename string) (*EngineConfig, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParseError, filename, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filename, err)
	}
	return &cfg, nil
}

// LoadWithEnvironment loads configuration from file (if it exists) and
// applies RANKFORGE_*-prefixed environment variable overrides, mirroring
// the teacher's LoadWithEnvironment layering: defaults < file < env.
func LoadWithEnvironment(filename string) (*EngineConfig, error) {
	_ = godotenv.Load()

	cfg := Default()

	if filename != "" {
		fileCfg, err := LoadFromFile(filename)
		if err != nil && !errors.Is(err, ErrConfigNotFound) {
			return nil, err
		}
		if err == nil {
			cfg = *fileCfg
		}
	}

	applyEnvironmentOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid final configuration: %w", err)
	}
	return &cfg, nil
}

// SaveToFile writes cfg to filename as YAML.
func (c *EngineConfig) SaveToFile(filename string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}
	return nil
}

func applyEnvironmentOverrides(cfg *EngineConfig) {
	if v := os.Getenv("RANKFORGE_INITIAL_RATING"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.InitialRating = parsed
		}
	}
	if v := os.Getenv("RANKFORGE_K_FACTOR"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.KFactor = parsed
		}
	}
	if v := os.Getenv("RANKFORGE_SCHEDULER_PROXIMITY_WEIGHT"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.SchedulerProximityWeight = parsed
		}
	}
	if v := os.Getenv("RANKFORGE_SESSION_DEBOUNCE_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.SessionDebounceMS = parsed
		}
	}
	if v := os.Getenv("RANKFORGE_SELECTION_DEBOUNCE_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.SelectionDebounceMS = parsed
		}
	}
	if v := os.Getenv("RANKFORGE_VOTE_GUARD_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.VoteGuardMS = parsed
		}
	}
	if v := os.Getenv("RANKFORGE_STORAGE_DIR"); v != "" {
		cfg.StorageDir = v
	}
	if v := os.Getenv("RANKFORGE_BACKUP_COUNT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.BackupCount = parsed
		}
	}
}
