// Package explorer drives a surrogate model with a greedy mutate-and-screen
// search: candidates are scored by the model and only the most promising
// batch of each round is measured against the ground truth.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"noisyoracle/internal/record"
	"noisyoracle/internal/sequence"
	"noisyoracle/internal/surrogate"
)

const (
	defaultEliteCount   = 4
	defaultTopN         = 10
	defaultMutationRate = 0.05
	// candidateAttemptFactor bounds mutation attempts per round to
	// ModelQueries*candidateAttemptFactor so small landscapes terminate.
	candidateAttemptFactor = 10
)

var ErrNoCandidates = errors.New("no unmeasured candidates")

// Model is a surrogate whose measured set can be read back.
type Model interface {
	surrogate.Model
	Measured() []surrogate.Measurement
}

type Config struct {
	Rounds       int
	BatchSize    int
	ModelQueries int
	MutationRate float64
	EliteCount   int
	TopN         int
	Alphabet     sequence.Alphabet
	Start        string
	Selector     Selector
	Replicate    int
	Seed         int64
	Logger       *slog.Logger
}

func (c Config) validate() error {
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be > 0")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be > 0")
	}
	if c.ModelQueries < c.BatchSize {
		return fmt.Errorf("model queries (%d) must be >= batch size (%d)", c.ModelQueries, c.BatchSize)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be within [0,1]")
	}
	if c.Start == "" {
		return fmt.Errorf("start sequence is required")
	}
	return sequence.Validate(c.Start, c.Alphabet)
}

// Result is the trace of one explorer run.
type Result struct {
	Rounds []record.Round
	Top    []record.ScoredSequence
}

type Explorer struct {
	cfg    Config
	model  Model
	rng    *rand.Rand
	board  *Leaderboard
	logger *slog.Logger
}

func New(model Model, cfg Config) (*Explorer, error) {
	if model == nil {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.Alphabet == "" {
		cfg.Alphabet = sequence.DNA
	}
	if cfg.MutationRate == 0 {
		cfg.MutationRate = defaultMutationRate
	}
	if cfg.EliteCount <= 0 {
		cfg.EliteCount = defaultEliteCount
	}
	if cfg.TopN <= 0 {
		cfg.TopN = defaultTopN
	}
	if cfg.Selector == nil {
		cfg.Selector = EliteSelector{}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Explorer{
		cfg:    cfg,
		model:  model,
		rng:    rand.New(rand.NewSource(seed)),
		board:  NewLeaderboard(),
		logger: logger.With(slog.String("model_type", model.ModelType()), slog.Int("replicate", cfg.Replicate)),
	}, nil
}

// Run resets the model to the start sequence and executes the configured
// rounds. Running out of unmeasured candidates ends the run early without
// error.
func (e *Explorer) Run(ctx context.Context) (Result, error) {
	if err := e.model.Reset(ctx, []string{e.cfg.Start}); err != nil {
		return Result{}, fmt.Errorf("reset model: %w", err)
	}
	e.board = NewLeaderboard()
	e.absorb(0)

	rounds := make([]record.Round, 0, e.cfg.Rounds)
	for round := 1; round <= e.cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		r, err := e.step(ctx, round)
		if errors.Is(err, ErrNoCandidates) {
			e.logger.Warn("explorer exhausted candidates", slog.Int("round", round))
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("round %d: %w", round, err)
		}
		rounds = append(rounds, r)
		e.logger.Debug("round complete",
			slog.Int("round", round),
			slog.Int("cost", r.Cost),
			slog.Int("evals", r.Evals),
			slog.Float64("r2", r.R2),
			slog.Float64("best_true", r.BestTrue),
		)
	}

	return Result{Rounds: rounds, Top: e.top()}, nil
}

func (e *Explorer) step(ctx context.Context, round int) (record.Round, error) {
	candidates, err := e.propose(ctx)
	if err != nil {
		return record.Round{}, err
	}
	if len(candidates) == 0 {
		return record.Round{}, ErrNoCandidates
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Fitness > candidates[j].Fitness
	})
	n := e.cfg.BatchSize
	if n > len(candidates) {
		n = len(candidates)
	}
	batch := make([]string, n)
	for i := range batch {
		batch[i] = candidates[i].Sequence
	}

	if err := e.model.UpdateModel(ctx, batch); err != nil {
		return record.Round{}, fmt.Errorf("update model: %w", err)
	}
	e.absorb(round)

	var batchSum float64
	for _, seq := range batch {
		entry, _ := e.board.Get(seq)
		batchSum += entry.Fitness
	}
	best, _ := e.board.Best()
	return record.Round{
		Replicate:     e.cfg.Replicate,
		Round:         round,
		Cost:          e.model.Cost(),
		Evals:         e.model.Evals(),
		R2:            e.model.R2(),
		BestTrue:      best.Fitness,
		BatchMeanTrue: batchSum / float64(len(batch)),
		BestSequence:  best.Sequence,
	}, nil
}

// propose mutates leaderboard parents into distinct unmeasured candidates and
// scores each through the model.
func (e *Explorer) propose(ctx context.Context) ([]Entry, error) {
	ranked := e.board.Top(e.cfg.EliteCount)
	elite := len(ranked)

	seen := make(map[string]struct{}, e.cfg.ModelQueries)
	candidates := make([]Entry, 0, e.cfg.ModelQueries)
	for attempts := 0; len(candidates) < e.cfg.ModelQueries && attempts < e.cfg.ModelQueries*candidateAttemptFactor; attempts++ {
		parent, err := e.cfg.Selector.PickParent(e.rng, ranked, elite)
		if err != nil {
			return nil, err
		}
		child, err := sequence.Mutate(e.rng, parent, e.cfg.Alphabet, e.cfg.MutationRate)
		if err != nil {
			return nil, err
		}
		if e.board.Contains(child) {
			continue
		}
		if _, ok := seen[child]; ok {
			continue
		}
		seen[child] = struct{}{}

		score, err := e.model.GetFitness(ctx, child)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", child, err)
		}
		candidates = append(candidates, Entry{Sequence: child, Fitness: score})
	}
	return candidates, nil
}

// absorb copies newly measured sequences from the model into the leaderboard.
func (e *Explorer) absorb(round int) {
	for _, m := range e.model.Measured() {
		e.board.Add(Entry{Sequence: m.Sequence, Fitness: m.Fitness, Round: round})
	}
}

func (e *Explorer) top() []record.ScoredSequence {
	entries := e.board.Top(e.cfg.TopN)
	out := make([]record.ScoredSequence, 0, len(entries))
	for i, entry := range entries {
		out = append(out, record.ScoredSequence{
			Rank:      i + 1,
			Sequence:  entry.Sequence,
			Fitness:   entry.Fitness,
			Replicate: e.cfg.Replicate,
			Round:     entry.Round,
		})
	}
	return out
}
