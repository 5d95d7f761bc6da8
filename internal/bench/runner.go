// Package bench runs replicated surrogate benchmarks and persists their
// results.
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"noisyoracle/internal/explorer"
	"noisyoracle/internal/landscape"
	"noisyoracle/internal/record"
	"noisyoracle/internal/sequence"
	"noisyoracle/internal/stats"
	"noisyoracle/internal/storage"
	"noisyoracle/internal/surrogate"
)

const (
	ModelNoisy = "noisy"
	ModelNull  = "null"

	defaultArtifactsDir = "benchmarks"
	replicateSeedStride = 7919
)

type Config struct {
	Store        storage.Store
	ArtifactsDir string
	Logger       *slog.Logger
	Now          func() time.Time
}

// RunConfig describes one benchmark: a landscape, a surrogate model and the
// explorer settings shared by every replicate.
type RunConfig struct {
	RunID          string
	Landscape      landscape.Config
	LandscapeID    int
	ModelKind      string
	SignalStrength float64
	Cache          bool
	Start          string
	StartID        int
	Replicates     int
	Workers        int
	Rounds         int
	BatchSize      int
	ModelQueries   int
	MutationRate   float64
	EliteCount     int
	Selector       string
	TopN           int
	Seed           int64
}

type Summary struct {
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

type Runner struct {
	store        storage.Store
	artifactsDir string
	logger       *slog.Logger
	now          func() time.Time

	mu          sync.Mutex
	initialized bool
}

func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = defaultArtifactsDir
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{
		store:        cfg.Store,
		artifactsDir: cfg.ArtifactsDir,
		logger:       cfg.Logger,
		now:          cfg.Now,
	}, nil
}

// Init initializes the backing store once.
func (r *Runner) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return nil
	}
	if err := r.store.Init(ctx); err != nil {
		return err
	}
	r.initialized = true
	return nil
}

func (r *Runner) Store() storage.Store {
	return r.store
}

func (r *Runner) ArtifactsDir() string {
	return r.artifactsDir
}

func (r *Runner) Run(ctx context.Context, rc RunConfig) (Summary, error) {
	if err := r.Init(ctx); err != nil {
		return Summary{}, err
	}
	if rc.Replicates <= 0 {
		return Summary{}, fmt.Errorf("replicates must be > 0")
	}
	workers := rc.Workers
	if workers <= 0 || workers > rc.Replicates {
		workers = rc.Replicates
	}

	oracle, err := landscape.New(rc.Landscape)
	if err != nil {
		return Summary{}, fmt.Errorf("build landscape: %w", err)
	}
	alphabet, err := landscapeAlphabet(oracle, rc.Landscape.Alphabet)
	if err != nil {
		return Summary{}, err
	}
	start, startID, err := resolveStart(oracle, alphabet, rc)
	if err != nil {
		return Summary{}, err
	}
	rc.Start, rc.StartID = start, startID
	selector, err := explorer.SelectorByName(rc.Selector)
	if err != nil {
		return Summary{}, err
	}

	runID := strings.TrimSpace(rc.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := r.logger.With(slog.String("run_id", runID))

	explorers := make([]*explorer.Explorer, rc.Replicates)
	modelType := ""
	for i := range explorers {
		base := rc.Seed + int64(i)*replicateSeedStride
		model, err := newModel(oracle, rc, base+1, logger)
		if err != nil {
			return Summary{}, err
		}
		modelType = model.ModelType()
		explorers[i], err = explorer.New(model, explorer.Config{
			Rounds:       rc.Rounds,
			BatchSize:    rc.BatchSize,
			ModelQueries: rc.ModelQueries,
			MutationRate: rc.MutationRate,
			EliteCount:   rc.EliteCount,
			TopN:         rc.TopN,
			Alphabet:     alphabet,
			Start:        start,
			Selector:     selector,
			Replicate:    i,
			Seed:         base + 2,
			Logger:       logger,
		})
		if err != nil {
			return Summary{}, fmt.Errorf("replicate %d: %w", i, err)
		}
	}

	logger.Info("run started",
		slog.String("landscape", oracle.Name()),
		slog.String("model_type", modelType),
		slog.String("start", start),
		slog.Int("replicates", rc.Replicates),
		slog.Int("workers", workers),
	)

	results := make([]explorer.Result, rc.Replicates)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range explorers {
		g.Go(func() error {
			res, err := explorers[i].Run(gctx)
			if err != nil {
				return fmt.Errorf("replicate %d: %w", i, err)
			}
			results[i] = res
			last := record.Round{}
			if n := len(res.Rounds); n > 0 {
				last = res.Rounds[n-1]
			}
			logger.Info("replicate finished",
				slog.Int("replicate", i),
				slog.Int("rounds", len(res.Rounds)),
				slog.Int("cost", last.Cost),
				slog.Float64("best_true", last.BestTrue),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	rounds := make([]record.Round, 0, rc.Replicates*rc.Rounds)
	tops := make([][]record.ScoredSequence, 0, rc.Replicates)
	for _, res := range results {
		rounds = append(rounds, res.Rounds...)
		tops = append(tops, res.Top)
	}
	top := mergeTop(tops, rc.TopN)
	bestByRound := stats.MeanBestByRound(rounds)

	statsCfg := stats.RunConfig{
		RunID:          runID,
		Landscape:      oracle.Name(),
		LandscapeKind:  rc.Landscape.Kind,
		LandscapeCSV:   rc.Landscape.CSVPath,
		Alphabet:       string(alphabet),
		SequenceLength: len(start),
		ModelKind:      rc.ModelKind,
		ModelType:      modelType,
		SignalStrength: rc.SignalStrength,
		Cache:          rc.Cache,
		LandscapeID:    rc.LandscapeID,
		StartID:        rc.StartID,
		StartSequence:  start,
		Replicates:     rc.Replicates,
		Workers:        workers,
		Rounds:         rc.Rounds,
		BatchSize:      rc.BatchSize,
		ModelQueries:   rc.ModelQueries,
		MutationRate:   rc.MutationRate,
		Seed:           rc.Seed,
	}
	summary, err := stats.BuildBenchmarkSummary(statsCfg, rounds)
	if err != nil {
		return Summary{}, fmt.Errorf("run %s produced no rounds: %w", runID, err)
	}

	createdAt := r.now().UTC().Format(time.RFC3339Nano)
	run := storage.Stamp(record.Run{
		ID:             runID,
		CreatedAtUTC:   createdAt,
		Landscape:      oracle.Name(),
		ModelType:      modelType,
		SignalStrength: rc.SignalStrength,
		Cache:          rc.Cache,
		StartSequence:  start,
		Replicates:     rc.Replicates,
		Rounds:         rc.Rounds,
		BatchSize:      rc.BatchSize,
		ModelQueries:   rc.ModelQueries,
		Seed:           rc.Seed,
		FinalBestMean:  summary.BestMean,
		FinalBestStd:   summary.BestStd,
		FinalCostMean:  summary.CostMean,
		FinalEvalsMean: summary.EvalsMean,
		FinalR2Mean:    summary.R2Mean,
	})
	if err := r.persist(ctx, run, rounds, bestByRound, top); err != nil {
		return Summary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(r.artifactsDir, stats.RunArtifacts{
		Config:       statsCfg,
		BestByRound:  bestByRound,
		Rounds:       rounds,
		TopSequences: top,
		Summary:      summary,
	})
	if err != nil {
		return Summary{}, err
	}
	if err := stats.AppendRunIndex(r.artifactsDir, stats.RunIndexEntry{
		RunID:          runID,
		Landscape:      oracle.Name(),
		ModelType:      modelType,
		SignalStrength: rc.SignalStrength,
		Cache:          rc.Cache,
		Replicates:     rc.Replicates,
		Rounds:         rc.Rounds,
		Seed:           rc.Seed,
		FinalBestMean:  summary.BestMean,
		CreatedAtUTC:   createdAt,
	}); err != nil {
		return Summary{}, err
	}

	logger.Info("run finished",
		slog.Float64("final_best_mean", summary.BestMean),
		slog.Float64("final_cost_mean", summary.CostMean),
		slog.Float64("final_r2_mean", summary.R2Mean),
		slog.String("artifacts", runDir),
	)

	return Summary{
		RunID:          runID,
		ArtifactsDir:   filepath.Clean(runDir),
		ModelType:      modelType,
		Landscape:      oracle.Name(),
		StartSequence:  start,
		BestByRound:    append([]float64(nil), bestByRound...),
		FinalBestMean:  summary.BestMean,
		FinalBestStd:   summary.BestStd,
		FinalCostMean:  summary.CostMean,
		FinalEvalsMean: summary.EvalsMean,
		FinalR2Mean:    summary.R2Mean,
	}, nil
}

func (r *Runner) persist(ctx context.Context, run record.Run, rounds []record.Round, bestByRound []float64, top []record.ScoredSequence) error {
	if err := r.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if err := r.store.SaveRounds(ctx, run.ID, rounds); err != nil {
		return fmt.Errorf("save rounds: %w", err)
	}
	if err := r.store.SaveFitnessHistory(ctx, run.ID, bestByRound); err != nil {
		return fmt.Errorf("save fitness history: %w", err)
	}
	if err := r.store.SaveTopSequences(ctx, run.ID, top); err != nil {
		return fmt.Errorf("save top sequences: %w", err)
	}
	return nil
}

// NewModel builds the surrogate named by kind over oracle.
func NewModel(kind string, oracle surrogate.Oracle, opts surrogate.Options) (*surrogate.Surrogate, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", ModelNoisy:
		return surrogate.NewNoisy(oracle, opts)
	case ModelNull:
		return surrogate.NewNull(oracle, opts)
	default:
		return nil, fmt.Errorf("unsupported model kind: %s", kind)
	}
}

func newModel(oracle surrogate.Oracle, rc RunConfig, seed int64, logger *slog.Logger) (*surrogate.Surrogate, error) {
	return NewModel(rc.ModelKind, oracle, surrogate.Options{
		SignalStrength: rc.SignalStrength,
		DisableCache:   !rc.Cache,
		LandscapeID:    rc.LandscapeID,
		StartID:        rc.StartID,
		Seed:           seed,
		Logger:         logger,
	})
}

// landscapeAlphabet returns the configured alphabet, the alphabet of a
// position-weight landscape, or the letters present in a table.
func landscapeAlphabet(oracle landscape.Oracle, configured sequence.Alphabet) (sequence.Alphabet, error) {
	if configured != "" {
		return configured, nil
	}
	switch o := oracle.(type) {
	case *landscape.PositionWeight:
		return o.Alphabet(), nil
	case *landscape.Table:
		letters := make(map[rune]struct{})
		for _, seq := range o.Sequences() {
			for _, r := range seq {
				letters[r] = struct{}{}
			}
		}
		out := make([]rune, 0, len(letters))
		for r := range letters {
			out = append(out, r)
		}
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return sequence.Alphabet(string(out)), nil
	default:
		return "", errors.New("alphabet is required for this landscape")
	}
}

// resolveStart picks the start sequence. An explicit sequence wins; a table
// landscape otherwise uses StartID as an index into its sorted sequences, or
// a seeded pick when StartID is negative; a position-weight landscape draws a
// seeded random sequence.
func resolveStart(oracle landscape.Oracle, alphabet sequence.Alphabet, rc RunConfig) (string, int, error) {
	if rc.Start != "" {
		if err := sequence.Validate(rc.Start, alphabet); err != nil {
			return "", 0, fmt.Errorf("start sequence: %w", err)
		}
		return rc.Start, rc.StartID, nil
	}
	rng := rand.New(rand.NewSource(rc.Seed))
	switch o := oracle.(type) {
	case *landscape.Table:
		seqs := o.Sequences()
		id := rc.StartID
		if id < 0 {
			id = rng.Intn(len(seqs))
		}
		if id >= len(seqs) {
			return "", 0, fmt.Errorf("start id %d out of range for %d sequences", id, len(seqs))
		}
		return seqs[id], id, nil
	case *landscape.PositionWeight:
		seq, err := sequence.Random(rng, o.Length(), alphabet)
		return seq, rc.StartID, err
	default:
		return "", 0, errors.New("start sequence is required for this landscape")
	}
}

// mergeTop combines per-replicate leaderboards into one ranking, keeping the
// first replicate that found each sequence.
func mergeTop(tops [][]record.ScoredSequence, n int) []record.ScoredSequence {
	seen := make(map[string]struct{})
	var merged []record.ScoredSequence
	for _, top := range tops {
		for _, s := range top {
			if _, ok := seen[s.Sequence]; ok {
				continue
			}
			seen[s.Sequence] = struct{}{}
			merged = append(merged, s)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Fitness != merged[j].Fitness {
			return merged[i].Fitness > merged[j].Fitness
		}
		return merged[i].Sequence < merged[j].Sequence
	})
	if n > 0 && len(merged) > n {
		merged = merged[:n]
	}
	for i := range merged {
		merged[i].Rank = i + 1
	}
	return merged
}
