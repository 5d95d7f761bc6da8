package bench

import (
	"noisyoracle/internal/config"
	"noisyoracle/internal/landscape"
	"noisyoracle/internal/sequence"
)

// RunConfigFromConfig maps a loaded configuration file onto a RunConfig.
func RunConfigFromConfig(cfg *config.Config) RunConfig {
	return RunConfig{
		RunID: cfg.Run.RunID,
		Landscape: landscape.Config{
			Kind:      cfg.Landscape.Kind,
			Name:      cfg.Landscape.Name,
			CSVPath:   cfg.Landscape.CSVPath,
			Alphabet:  sequence.Alphabet(cfg.Landscape.Alphabet),
			Length:    cfg.Landscape.Length,
			Epistasis: cfg.Landscape.Epistasis,
			Seed:      cfg.Landscape.Seed,
		},
		LandscapeID:    cfg.Landscape.ID,
		ModelKind:      cfg.Model.Kind,
		SignalStrength: cfg.Model.SignalStrength,
		Cache:          cfg.Model.Cache,
		Start:          cfg.Explorer.Start,
		StartID:        cfg.Explorer.StartID,
		Replicates:     cfg.Run.Replicates,
		Workers:        cfg.Run.Workers,
		Rounds:         cfg.Explorer.Rounds,
		BatchSize:      cfg.Explorer.BatchSize,
		ModelQueries:   cfg.Explorer.ModelQueries,
		MutationRate:   cfg.Explorer.MutationRate,
		EliteCount:     cfg.Explorer.EliteCount,
		Selector:       cfg.Explorer.Selector,
		TopN:           cfg.Explorer.TopN,
		Seed:           cfg.Run.Seed,
	}
}
