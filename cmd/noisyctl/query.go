package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"noisyoracle/internal/landscape"
	"noisyoracle/internal/sequence"
	"noisyoracle/pkg/noisyoracle"
)

func newQueryCmd(g *globalFlags) *cobra.Command {
	var (
		model          string
		signalStrength float64
		noCache        bool
		measure        []string
		seed           int64
	)
	cmd := &cobra.Command{
		Use:   "query SEQUENCE",
		Short: "Measure a set of sequences, then ask the model about one more",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("model") {
				cfg.Model.Kind = model
			}
			if cmd.Flags().Changed("signal-strength") {
				cfg.Model.SignalStrength = signalStrength
			}
			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}

			result, err := noisyoracle.Query(cmd.Context(), noisyoracle.QueryRequest{
				Landscape: landscape.Config{
					Kind:      cfg.Landscape.Kind,
					Name:      cfg.Landscape.Name,
					CSVPath:   cfg.Landscape.CSVPath,
					Alphabet:  sequence.Alphabet(cfg.Landscape.Alphabet),
					Length:    cfg.Landscape.Length,
					Epistasis: cfg.Landscape.Epistasis,
					Seed:      cfg.Landscape.Seed,
				},
				ModelKind:      cfg.Model.Kind,
				SignalStrength: cfg.Model.SignalStrength,
				DisableCache:   noCache || !cfg.Model.Cache,
				Measure:        measure,
				Sequence:       strings.TrimSpace(args[0]),
				Seed:           seed,
				Logger:         logger,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model=%s fitness=%.6f\n", result.ModelType, result.Fitness)
			draws := make([]string, len(result.Distribution))
			for i, v := range result.Distribution {
				draws[i] = fmt.Sprintf("%.6f", v)
			}
			fmt.Fprintf(out, "distribution=[%s]\n", strings.Join(draws, " "))
			if result.HasNeighbor {
				fmt.Fprintf(out, "neighbor=%s distance=%d\n", result.Neighbor, result.Distance)
			} else {
				fmt.Fprintln(out, "neighbor=none")
			}
			fmt.Fprintf(out, "cost=%d evals=%d r2=%.4f\n", result.Cost, result.Evals, result.R2)
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "surrogate model: noisy|null")
	cmd.Flags().Float64Var(&signalStrength, "signal-strength", 0, "noisy model signal strength in [0,1]")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the model cache")
	cmd.Flags().StringSliceVar(&measure, "measure", nil, "sequences to measure first (comma separated)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "model seed")
	return cmd
}
