package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"noisyoracle/pkg/noisyoracle"
)

type refFlags struct {
	runID   string
	latest  bool
	limit   int
	jsonOut bool
}

func (r *refFlags) bind(cmd *cobra.Command, defaultLimit int) {
	cmd.Flags().StringVar(&r.runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&r.latest, "latest", false, "use the most recent run")
	cmd.Flags().IntVar(&r.limit, "limit", defaultLimit, "max rows (0: all)")
	cmd.Flags().BoolVar(&r.jsonOut, "json", false, "emit JSON")
}

func (r *refFlags) ref() noisyoracle.RunRef {
	return noisyoracle.RunRef{RunID: r.runID, Latest: r.latest, Limit: r.limit}
}

// withClient loads config, builds a client and hands it to fn.
func withClient(cmd *cobra.Command, g *globalFlags, fn func(*noisyoracle.Client) error) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

func newRunsCmd(g *globalFlags) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errors.New("limit must be > 0")
			}
			return withClient(cmd, g, func(client *noisyoracle.Client) error {
				runs, err := client.Runs(cmd.Context(), noisyoracle.RunsRequest{Limit: limit})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOut {
					return writeJSON(out, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "no runs found")
					return nil
				}
				for _, r := range runs {
					fmt.Fprintf(out, "run_id=%s created=%s landscape=%s model=%s cache=%t replicates=%d rounds=%d seed=%d final_best_mean=%.6f\n",
						r.RunID, ago(r.CreatedAtUTC), r.Landscape, r.ModelType, r.Cache, r.Replicates, r.Rounds, r.Seed, r.FinalBestMean)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit runs list as JSON")
	return cmd
}

func newRoundsCmd(g *globalFlags) *cobra.Command {
	var r refFlags
	cmd := &cobra.Command{
		Use:   "rounds",
		Short: "Show per-round cost, evals, r2 and best true fitness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(client *noisyoracle.Client) error {
				rounds, err := client.Rounds(cmd.Context(), r.ref())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if r.jsonOut {
					return writeJSON(out, rounds)
				}
				for _, rd := range rounds {
					fmt.Fprintf(out, "replicate=%d round=%d cost=%s evals=%s r2=%.4f best_true=%.6f batch_mean_true=%.6f best=%s\n",
						rd.Replicate, rd.Round, humanize.Comma(int64(rd.Cost)), humanize.Comma(int64(rd.Evals)), rd.R2, rd.BestTrue, rd.BatchMeanTrue, rd.BestSequence)
				}
				return nil
			})
		},
	}
	r.bind(cmd, 0)
	return cmd
}

func newTopCmd(g *globalFlags) *cobra.Command {
	var r refFlags
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the best measured sequences of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(client *noisyoracle.Client) error {
				top, err := client.Top(cmd.Context(), r.ref())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if r.jsonOut {
					return writeJSON(out, top)
				}
				for _, s := range top {
					fmt.Fprintf(out, "rank=%d fitness=%.6f sequence=%s replicate=%d round=%d\n",
						s.Rank, s.Fitness, s.Sequence, s.Replicate, s.Round)
				}
				return nil
			})
		},
	}
	r.bind(cmd, 10)
	return cmd
}

func newFitnessCmd(g *globalFlags) *cobra.Command {
	var r refFlags
	cmd := &cobra.Command{
		Use:   "fitness",
		Short: "Show the mean best true fitness after each round",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(client *noisyoracle.Client) error {
				history, err := client.FitnessHistory(cmd.Context(), r.ref())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if r.jsonOut {
					return writeJSON(out, history)
				}
				for i, best := range history {
					fmt.Fprintf(out, "round=%d mean_best=%.6f\n", i+1, best)
				}
				return nil
			})
		},
	}
	r.bind(cmd, 0)
	return cmd
}

func newExportCmd(g *globalFlags) *cobra.Command {
	var (
		r      refFlags
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a run's artifacts to an export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(client *noisyoracle.Client) error {
				exported, err := client.Export(cmd.Context(), r.ref(), outDir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&r.runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&r.latest, "latest", false, "export the most recent run")
	cmd.Flags().StringVar(&outDir, "out", "", "export directory (default: exports)")
	return cmd
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func ago(createdAtUTC string) string {
	ts, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return humanize.Time(ts)
}
