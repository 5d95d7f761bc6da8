package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"noisyoracle/internal/bench"
	"noisyoracle/internal/config"
)

type runFlags struct {
	runID          string
	model          string
	signalStrength float64
	noCache        bool
	landscape      string
	csvPath        string
	length         int
	start          string
	replicates     int
	workers        int
	rounds         int
	batchSize      int
	modelQueries   int
	mutationRate   float64
	selector       string
	seed           int64
	metricsAddr    string
}

func newRunCmd(g *globalFlags) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a replicated benchmark and record its results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			if f.metricsAddr != "" {
				stop, err := serveMetrics(f.metricsAddr, logger)
				if err != nil {
					return err
				}
				defer stop()
			}

			client, err := newClient(cfg, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Run(cmd.Context(), bench.RunConfigFromConfig(cfg))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run_id=%s model=%s landscape=%s start=%s\n", summary.RunID, summary.ModelType, summary.Landscape, summary.StartSequence)
			for i, best := range summary.BestByRound {
				fmt.Fprintf(out, "round=%d mean_best=%.6f\n", i+1, best)
			}
			fmt.Fprintf(out, "final_best=%.6f±%.6f cost=%s evals=%s r2=%.4f\n",
				summary.FinalBestMean,
				summary.FinalBestStd,
				humanize.CommafWithDigits(summary.FinalCostMean, 1),
				humanize.CommafWithDigits(summary.FinalEvalsMean, 1),
				summary.FinalR2Mean,
			)
			fmt.Fprintf(out, "artifacts=%s\n", summary.ArtifactsDir)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.runID, "run-id", "", "run id (default: random uuid)")
	fl.StringVar(&f.model, "model", "", "surrogate model: noisy|null")
	fl.Float64Var(&f.signalStrength, "signal-strength", 0, "noisy model signal strength in [0,1]")
	fl.BoolVar(&f.noCache, "no-cache", false, "recompute synthetic fitness on every query")
	fl.StringVar(&f.landscape, "landscape", "", "ground truth: position_weight|table")
	fl.StringVar(&f.csvPath, "csv", "", "sequence,fitness CSV for table landscapes")
	fl.IntVar(&f.length, "length", 0, "sequence length of position_weight landscapes")
	fl.StringVar(&f.start, "start", "", "start sequence")
	fl.IntVar(&f.replicates, "replicates", 0, "independent replicates")
	fl.IntVar(&f.workers, "workers", 0, "replicates run concurrently (0: all)")
	fl.IntVar(&f.rounds, "rounds", 0, "measurement rounds per replicate")
	fl.IntVar(&f.batchSize, "batch-size", 0, "sequences measured per round")
	fl.IntVar(&f.modelQueries, "model-queries", 0, "candidates scored by the model per round")
	fl.Float64Var(&f.mutationRate, "mutation-rate", 0, "per-site substitution probability")
	fl.StringVar(&f.selector, "selector", "", "parent selection: elite|tournament")
	fl.Int64Var(&f.seed, "seed", 0, "run seed")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	return cmd
}

// apply copies explicitly set flags over the loaded configuration.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("run-id") {
		cfg.Run.RunID = f.runID
	}
	if changed("model") {
		cfg.Model.Kind = f.model
	}
	if changed("signal-strength") {
		cfg.Model.SignalStrength = f.signalStrength
	}
	if changed("no-cache") {
		cfg.Model.Cache = !f.noCache
	}
	if changed("landscape") {
		cfg.Landscape.Kind = f.landscape
	}
	if changed("csv") {
		cfg.Landscape.CSVPath = f.csvPath
	}
	if changed("length") {
		cfg.Landscape.Length = f.length
	}
	if changed("start") {
		cfg.Explorer.Start = f.start
	}
	if changed("replicates") {
		cfg.Run.Replicates = f.replicates
	}
	if changed("workers") {
		cfg.Run.Workers = f.workers
	}
	if changed("rounds") {
		cfg.Explorer.Rounds = f.rounds
	}
	if changed("batch-size") {
		cfg.Explorer.BatchSize = f.batchSize
	}
	if changed("model-queries") {
		cfg.Explorer.ModelQueries = f.modelQueries
	}
	if changed("mutation-rate") {
		cfg.Explorer.MutationRate = f.mutationRate
	}
	if changed("selector") {
		cfg.Explorer.Selector = f.selector
	}
	if changed("seed") {
		cfg.Run.Seed = f.seed
	}
}

func serveMetrics(addr string, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
