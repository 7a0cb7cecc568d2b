package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
)

// CLIOptions defines command-line flags for cmd/rankctl, per SPEC_FULL §4.9.
// Grounded on the teacher's pkg/data/cli.go CLIOptions/ParseCLI pair.
type CLIOptions struct {
	ConfigFile string `long:"config" short:"c" description:"Configuration file path" default:"rankforge.yaml"`
	NoConfig   bool   `long:"no-config" description:"Skip loading configuration file"`

	Catalog        string `long:"catalog" description:"Catalog CSV path"`
	User           string `long:"user" description:"Active user name" default:"default"`
	StorageDir     string `long:"storage-dir" description:"Directory for session/selection snapshots"`
	StorageBackend string `long:"storage-backend" description:"Key-value storage backend: file or sqlite" default:"file" choice:"file" choice:"sqlite"`

	InitialRating float64 `long:"initial-rating" description:"Starting rating for new names" default:"-1"`
	KFactor       float64 `long:"k-factor" description:"Elo K-factor" default:"-1"`

	RemoteDSN string `long:"remote-dsn" description:"Optional Postgres DSN for RemoteTournamentStore"`
	NoRemote  bool   `long:"no-remote" description:"Disable the remote tournament store"`

	Export string `long:"export" description:"Write final results to this CSV path on completion"`
	NoTUI  bool   `long:"no-tui" description:"Drive the session from a line-oriented stdin prompt instead of the terminal UI"`

	Verbose bool `long:"verbose" short:"v" description:"Enable verbose logging"`
	Version bool `long:"version" description:"Show version information"`
	Help    bool `long:"help" short:"h" description:"Show this help message"`
}

// ParseCLI parses args and returns the combined EngineConfig plus the raw
// CLIOptions, applying config precedence CLI flag > YAML file > default, as
// the teacher's ParseCLI does.
func ParseCLI(args []string) (*EngineConfig, *CLIOptions, error) {
	var opts CLIOptions

	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] --catalog names.csv"

	remaining, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil, &opts, err
		}
		return nil, nil, fmt.Errorf("failed to parse command-line arguments: %w", err)
	}

	if opts.Version {
		return nil, &opts, nil
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		return nil, &opts, &flags.Error{Type: flags.ErrHelp}
	}
	if len(remaining) > 0 {
		return nil, nil, fmt.Errorf("unexpected arguments: %v", remaining)
	}
	if opts.Catalog == "" {
		return nil, nil, fmt.Errorf("catalog CSV path is required (use --catalog)")
	}

	var cfg *EngineConfig
	if !opts.NoConfig {
		configPath := opts.ConfigFile
		if !filepath.IsAbs(configPath) {
			if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
				if home, homeErr := os.UserHomeDir(); homeErr == nil {
					alt := filepath.Join(home, ".config", "rankforge", configPath)
					if _, altErr := os.Stat(alt); altErr == nil {
						configPath = alt
					}
				}
			}
		}

		loaded, loadErr := LoadWithEnvironment(configPath)
		if loadErr != nil {
			if opts.ConfigFile != "rankforge.yaml" && !errors.Is(loadErr, ErrConfigNotFound) {
				return nil, nil, fmt.Errorf("failed to load configuration file: %w", loadErr)
			}
			defaults := Default()
			cfg = &defaults
		} else {
			cfg = loaded
		}
	} else {
		defaults := Default()
		cfg = &defaults
		applyEnvironmentOverrides(cfg)
	}

	applyCLIOverrides(cfg, &opts)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, &opts, nil
}

// applyCLIOverrides layers explicit flag values onto cfg, the highest
// precedence tier per SPEC_FULL §4.9.
func applyCLIOverrides(cfg *EngineConfig, opts *CLIOptions) {
	if opts.InitialRating >= 0 {
		cfg.InitialRating = opts.InitialRating
	}
	if opts.KFactor >= 0 {
		cfg.KFactor = opts.KFactor
	}
	if opts.StorageDir != "" {
		cfg.StorageDir = opts.StorageDir
	}
}
