// Package noisyoracle exposes surrogate fitness models and a benchmark client
// that runs, stores and reports replicated explorer runs against them.
package noisyoracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"noisyoracle/internal/bench"
	"noisyoracle/internal/landscape"
	"noisyoracle/internal/record"
	"noisyoracle/internal/sequence"
	"noisyoracle/internal/stats"
	"noisyoracle/internal/storage"
	"noisyoracle/internal/surrogate"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
	defaultDBPath        = "noisyoracle.db"
)

type (
	Model          = surrogate.Model
	Oracle         = surrogate.Oracle
	OracleFunc     = surrogate.OracleFunc
	ModelOptions   = surrogate.Options
	Surrogate      = surrogate.Surrogate
	Measurement    = surrogate.Measurement
	Round          = record.Round
	ScoredSequence = record.ScoredSequence
	LandscapeSpec  = landscape.Config
)

var (
	ErrNoMeasurements = surrogate.ErrNoMeasurements
	ErrOracleRequired = surrogate.ErrOracleRequired
)

// NewNoisyModel builds a surrogate whose accuracy decays with edit distance
// from the nearest measured sequence.
func NewNoisyModel(oracle Oracle, opts ModelOptions) (*Surrogate, error) {
	return surrogate.NewNoisy(oracle, opts)
}

// NewNullModel builds the sequence-blind baseline surrogate.
func NewNullModel(oracle Oracle, opts ModelOptions) (*Surrogate, error) {
	return surrogate.NewNull(oracle, opts)
}

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
	Logger        *slog.Logger
}

type Client struct {
	store  storage.Store
	runner *bench.Runner

	benchmarksDir string
	exportsDir    string
}

type RunRequest = bench.RunConfig

type RunSummary struct {
	RunID          string
	ArtifactsDir   string
	ModelType      string
	Landscape      string
	StartSequence  string
	BestByRound    []float64
	FinalBestMean  float64
	FinalBestStd   float64
	FinalCostMean  float64
	FinalEvalsMean float64
	FinalR2Mean    float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID          string
	CreatedAtUTC   string
	Landscape      string
	ModelType      string
	SignalStrength float64
	Cache          bool
	Replicates     int
	Rounds         int
	Seed           int64
	FinalBestMean  float64
}

// RunRef selects a run by id or the latest run in the index.
type RunRef struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	runner, err := bench.NewRunner(bench.Config{
		Store:        store,
		ArtifactsDir: benchmarksDir,
		Logger:       opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		runner:        runner,
		benchmarksDir: benchmarksDir,
		exportsDir:    exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.runner.Init(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	summary, err := c.runner.Run(ctx, req)
	if err != nil {
		return RunSummary{}, err
	}
	return RunSummary{
		RunID:          summary.RunID,
		ArtifactsDir:   summary.ArtifactsDir,
		ModelType:      summary.ModelType,
		Landscape:      summary.Landscape,
		StartSequence:  summary.StartSequence,
		BestByRound:    summary.BestByRound,
		FinalBestMean:  summary.FinalBestMean,
		FinalBestStd:   summary.FinalBestStd,
		FinalCostMean:  summary.FinalCostMean,
		FinalEvalsMean: summary.FinalEvalsMean,
		FinalR2Mean:    summary.FinalR2Mean,
	}, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:          e.RunID,
			CreatedAtUTC:   e.CreatedAtUTC,
			Landscape:      e.Landscape,
			ModelType:      e.ModelType,
			SignalStrength: e.SignalStrength,
			Cache:          e.Cache,
			Replicates:     e.Replicates,
			Rounds:         e.Rounds,
			Seed:           e.Seed,
			FinalBestMean:  e.FinalBestMean,
		})
	}
	return out, nil
}

// Rounds returns per-round diagnostics of every replicate. Runs missing from
// the store, such as those recorded by another process with the memory
// backend, are read from the run artifacts.
func (c *Client) Rounds(ctx context.Context, ref RunRef) ([]Round, error) {
	runID, err := c.resolveRunID(ref, "rounds")
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	rounds, ok, err := c.store.GetRounds(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		artifacts, found, err := stats.ReadRunArtifacts(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("rounds not found for run id: %s", runID)
		}
		rounds = artifacts.Rounds
	}
	if ref.Limit > 0 && len(rounds) > ref.Limit {
		rounds = rounds[:ref.Limit]
	}
	out := make([]Round, len(rounds))
	copy(out, rounds)
	return out, nil
}

func (c *Client) Top(ctx context.Context, ref RunRef) ([]ScoredSequence, error) {
	runID, err := c.resolveRunID(ref, "top sequences")
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	top, ok, err := c.store.GetTopSequences(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		artifacts, found, err := stats.ReadRunArtifacts(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("top sequences not found for run id: %s", runID)
		}
		top = artifacts.TopSequences
	}
	if ref.Limit > 0 && len(top) > ref.Limit {
		top = top[:ref.Limit]
	}
	out := make([]ScoredSequence, len(top))
	copy(out, top)
	return out, nil
}

func (c *Client) FitnessHistory(ctx context.Context, ref RunRef) ([]float64, error) {
	runID, err := c.resolveRunID(ref, "fitness history")
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		series, found, err := stats.ReadBenchmarkSeries(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
		}
		history = series
	}
	if ref.Limit > 0 && len(history) > ref.Limit {
		history = history[:ref.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Export(_ context.Context, ref RunRef, outDir string) (ExportSummary, error) {
	runID, err := c.resolveRunID(ref, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	if outDir == "" {
		outDir = c.exportsDir
	}
	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, outDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) resolveRunID(ref RunRef, what string) (string, error) {
	if ref.RunID != "" && ref.Latest {
		return "", errors.New("use either run id or latest")
	}
	if ref.Limit < 0 {
		return "", errors.New("limit must be >= 0")
	}
	if !ref.Latest {
		if ref.RunID == "" {
			return "", fmt.Errorf("%s requires run id or latest", what)
		}
		return ref.RunID, nil
	}
	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

type QueryRequest struct {
	Landscape      LandscapeSpec
	ModelKind      string
	SignalStrength float64
	DisableCache   bool
	Measure        []string
	Sequence       string
	Seed           int64
	Logger         *slog.Logger
}

type QueryResult struct {
	ModelType    string
	Fitness      float64
	Distribution []float64
	Distance     int
	Neighbor     string
	HasNeighbor  bool
	Cost         int
	Evals        int
	R2           float64
}

// Query measures req.Measure on a fresh model, then asks it for the fitness
// and fitness distribution of req.Sequence.
func Query(ctx context.Context, req QueryRequest) (QueryResult, error) {
	if req.Sequence == "" {
		return QueryResult{}, errors.New("query sequence is required")
	}
	oracle, err := landscape.New(req.Landscape)
	if err != nil {
		return QueryResult{}, err
	}
	if req.Landscape.Alphabet != "" {
		if err := sequence.Validate(req.Sequence, req.Landscape.Alphabet); err != nil {
			return QueryResult{}, err
		}
	}
	model, err := bench.NewModel(req.ModelKind, oracle, surrogate.Options{
		SignalStrength: req.SignalStrength,
		DisableCache:   req.DisableCache,
		LandscapeID:    -1,
		StartID:        -1,
		Seed:           req.Seed,
		Logger:         req.Logger,
	})
	if err != nil {
		return QueryResult{}, err
	}
	if len(req.Measure) > 0 {
		if err := model.UpdateModel(ctx, req.Measure); err != nil {
			return QueryResult{}, fmt.Errorf("measure: %w", err)
		}
	}

	distance, neighbor, found := model.MinDistance(req.Sequence)
	fitness, err := model.GetFitness(ctx, req.Sequence)
	if err != nil {
		return QueryResult{}, err
	}
	distribution, err := model.GetFitnessDistribution(ctx, req.Sequence)
	if err != nil {
		return QueryResult{}, err
	}
	return QueryResult{
		ModelType:    model.ModelType(),
		Fitness:      fitness,
		Distribution: distribution,
		Distance:     distance,
		Neighbor:     neighbor,
		HasNeighbor:  found,
		Cost:         model.Cost(),
		Evals:        model.Evals(),
		R2:           model.R2(),
	}, nil
}
