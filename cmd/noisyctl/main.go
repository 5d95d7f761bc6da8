package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"noisyoracle/internal/config"
	"noisyoracle/internal/logging"
	"noisyoracle/pkg/noisyoracle"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath    string
	storeKind     string
	dbPath        string
	benchmarksDir string
	logLevel      string
	logFormat     string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "noisyctl",
		Short:         "Benchmark surrogate fitness models against ground-truth landscapes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file (default: configs/noisyoracle.yaml or ./noisyoracle.yaml when present)")
	pf.StringVar(&g.storeKind, "store", "", "run store backend: memory|sqlite")
	pf.StringVar(&g.dbPath, "db-path", "", "sqlite database path")
	pf.StringVar(&g.benchmarksDir, "benchmarks-dir", "", "directory for run artifacts and the run index")
	pf.StringVar(&g.logLevel, "log-level", "", "debug|info|warn|error")
	pf.StringVar(&g.logFormat, "log-format", "", "auto|text|json")

	root.AddCommand(
		newRunCmd(&g),
		newRunsCmd(&g),
		newRoundsCmd(&g),
		newTopCmd(&g),
		newFitnessCmd(&g),
		newExportCmd(&g),
		newQueryCmd(&g),
	)
	return root
}

// load reads the config file and applies the global flag overrides.
func (g *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.storeKind != "" {
		cfg.Store.Kind = g.storeKind
	}
	if g.dbPath != "" {
		cfg.Store.SQLitePath = g.dbPath
	}
	if g.benchmarksDir != "" {
		cfg.Run.ArtifactsDir = g.benchmarksDir
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	return logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
}

func newClient(cfg *config.Config, logger *slog.Logger) (*noisyoracle.Client, error) {
	return noisyoracle.New(noisyoracle.Options{
		StoreKind:     cfg.Store.Kind,
		DBPath:        cfg.Store.SQLitePath,
		BenchmarksDir: cfg.Run.ArtifactsDir,
		Logger:        logger,
	})
}
