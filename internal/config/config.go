// Package config loads benchmark settings from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Landscape LandscapeConfig `yaml:"landscape"`
	Model     ModelConfig     `yaml:"model"`
	Explorer  ExplorerConfig  `yaml:"explorer"`
	Run       RunConfig       `yaml:"run"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
}

type LandscapeConfig struct {
	Kind      string  `yaml:"kind"` // position_weight | table
	Name      string  `yaml:"name"`
	CSVPath   string  `yaml:"csv_path"`
	Alphabet  string  `yaml:"alphabet"` // empty: DNA, or the letters of a table
	Length    int     `yaml:"length"`
	Epistasis float64 `yaml:"epistasis"`
	Seed      int64   `yaml:"seed"`
	ID        int     `yaml:"id"`
}

type ModelConfig struct {
	Kind           string  `yaml:"kind"` // noisy | "null" (quoted in YAML)
	SignalStrength float64 `yaml:"signal_strength"`
	Cache          bool    `yaml:"cache"`
}

type ExplorerConfig struct {
	Rounds       int     `yaml:"rounds"`
	BatchSize    int     `yaml:"batch_size"`
	ModelQueries int     `yaml:"model_queries"`
	MutationRate float64 `yaml:"mutation_rate"`
	EliteCount   int     `yaml:"elite_count"`
	Selector     string  `yaml:"selector"`
	TopN         int     `yaml:"top_n"`
	Start        string  `yaml:"start"`
	StartID      int     `yaml:"start_id"`
}

type RunConfig struct {
	RunID        string `yaml:"run_id"`
	Replicates   int    `yaml:"replicates"`
	Workers      int    `yaml:"workers"`
	Seed         int64  `yaml:"seed"`
	ArtifactsDir string `yaml:"artifacts_dir"`
}

type StoreConfig struct {
	Kind       string `yaml:"kind"` // memory | sqlite
	SQLitePath string `yaml:"sqlite_path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // auto | text | json
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Landscape: LandscapeConfig{
			Kind:      "position_weight",
			Length:    8,
			Epistasis: 0.5,
			Seed:      1,
			ID:        -1,
		},
		Model: ModelConfig{
			Kind:           "noisy",
			SignalStrength: 0.9,
			Cache:          true,
		},
		Explorer: ExplorerConfig{
			Rounds:       10,
			BatchSize:    8,
			ModelQueries: 80,
			MutationRate: 0.1,
			EliteCount:   4,
			Selector:     "elite",
			TopN:         10,
			StartID:      -1,
		},
		Run: RunConfig{
			Replicates:   3,
			Seed:         1,
			ArtifactsDir: "benchmarks",
		},
		Store: StoreConfig{
			Kind:       "memory",
			SQLitePath: "noisyoracle.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads configPath over the defaults. An empty path searches the usual
// locations and falls back to defaults when none exists.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range []string{"configs/noisyoracle.yaml", "noisyoracle.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, fmt.Errorf("parse %s: %w", p, err)
				}
				applyDefaults(cfg)
				return cfg, nil
			}
		}
		applyDefaults(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", configPath, err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.Landscape.Kind = strings.ToLower(strings.TrimSpace(cfg.Landscape.Kind))
	cfg.Model.Kind = strings.ToLower(strings.TrimSpace(cfg.Model.Kind))
	cfg.Store.Kind = strings.ToLower(strings.TrimSpace(cfg.Store.Kind))

	if cfg.Landscape.Kind == "" {
		cfg.Landscape.Kind = "position_weight"
	}
	if cfg.Model.Kind == "" {
		cfg.Model.Kind = "noisy"
	}
	if cfg.Explorer.MutationRate <= 0 {
		cfg.Explorer.MutationRate = 0.1
	}
	if cfg.Explorer.EliteCount <= 0 {
		cfg.Explorer.EliteCount = 4
	}
	if cfg.Explorer.TopN <= 0 {
		cfg.Explorer.TopN = 10
	}
	if cfg.Run.Replicates <= 0 {
		cfg.Run.Replicates = 1
	}
	if cfg.Run.ArtifactsDir == "" {
		cfg.Run.ArtifactsDir = "benchmarks"
	}
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = "memory"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "auto"
	}
}

// Validate reports the first setting that cannot produce a runnable
// benchmark.
func (c *Config) Validate() error {
	switch c.Landscape.Kind {
	case "position_weight":
		if c.Landscape.Length <= 0 {
			return fmt.Errorf("landscape.length must be > 0")
		}
	case "table":
		if c.Landscape.CSVPath == "" {
			return fmt.Errorf("landscape.csv_path is required for table landscapes")
		}
	default:
		return fmt.Errorf("unsupported landscape.kind: %s", c.Landscape.Kind)
	}

	switch c.Model.Kind {
	case "noisy":
		if c.Model.SignalStrength < 0 || c.Model.SignalStrength > 1 {
			return fmt.Errorf("model.signal_strength must be within [0,1]")
		}
	case "null":
	default:
		return fmt.Errorf("unsupported model.kind: %s", c.Model.Kind)
	}

	if c.Explorer.Rounds <= 0 {
		return fmt.Errorf("explorer.rounds must be > 0")
	}
	if c.Explorer.BatchSize <= 0 {
		return fmt.Errorf("explorer.batch_size must be > 0")
	}
	if c.Explorer.ModelQueries < c.Explorer.BatchSize {
		return fmt.Errorf("explorer.model_queries must be >= explorer.batch_size")
	}
	if c.Explorer.MutationRate > 1 {
		return fmt.Errorf("explorer.mutation_rate must be within [0,1]")
	}
	if c.Run.Workers < 0 {
		return fmt.Errorf("run.workers must be >= 0")
	}

	switch c.Store.Kind {
	case "memory":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported store.kind: %s", c.Store.Kind)
	}
	return nil
}
