// Package surrogate implements noisy stand-ins for an expensive ground-truth
// fitness oracle. A Surrogate answers measured sequences with their true
// fitness and everything else with an estimate whose noise grows with the
// edit distance to the closest measured sequence.
package surrogate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"noisyoracle/internal/sequence"
)

// distributionSize is the number of samples returned by GetFitnessDistribution.
const distributionSize = 5

var (
	// ErrNoMeasurements is returned when noise has to be drawn from the
	// fitness history before anything was measured.
	ErrNoMeasurements = errors.New("no measured fitness values to sample noise from")
	ErrOracleRequired = errors.New("ground-truth oracle is required")
)

// Oracle is the ground-truth fitness function a surrogate wraps.
type Oracle interface {
	Fitness(ctx context.Context, sequence string) (float64, error)
}

// OracleFunc adapts a plain function to Oracle.
type OracleFunc func(ctx context.Context, sequence string) (float64, error)

func (f OracleFunc) Fitness(ctx context.Context, sequence string) (float64, error) {
	return f(ctx, sequence)
}

// DistanceFunc is a symmetric, non-negative edit distance that is zero iff a == b.
type DistanceFunc func(a, b string) int

// Model is the query surface shared by every surrogate variant.
type Model interface {
	ModelType() string
	GetFitness(ctx context.Context, sequence string) (float64, error)
	GetFitnessDistribution(ctx context.Context, sequence string) ([]float64, error)
	UpdateModel(ctx context.Context, sequences []string) error
	Reset(ctx context.Context, sequences []string) error
	Cost() int
	Evals() int
	R2() float64
}

// Options configures a surrogate. The zero value is usable: caching on,
// Levenshtein distance, a time-seeded random source and slog.Default.
type Options struct {
	// SignalStrength in [0,1] sets how fast accuracy decays with distance.
	// Ignored by the null model.
	SignalStrength float64
	// DisableCache makes GetFitness recompute stale synthetic values.
	DisableCache bool
	LandscapeID  int
	StartID      int
	// Seed is used when Rand is nil. Zero seeds from the clock.
	Seed     int64
	Rand     *rand.Rand
	Distance DistanceFunc
	Logger   *slog.Logger
}

// strategy produces synthetic fitness values for unmeasured sequences.
// Methods are called with s.mu held.
type strategy interface {
	synthesize(ctx context.Context, s *Surrogate, sequence string) (float64, error)
	observe(s *Surrogate)
	reset()
}

// Surrogate is a stateful, in-memory surrogate model. All methods are safe
// for concurrent use, but a single benchmarking run normally owns one instance.
type Surrogate struct {
	mu sync.Mutex

	oracle   Oracle
	distance DistanceFunc
	strategy strategy
	rng      *rand.Rand
	logger   *slog.Logger

	signalStrength float64
	cache          bool
	modelType      string
	landscapeID    int
	startID        int

	measured   *measurements
	modelCache map[string]float64
	evals      int
	r2         float64
}

var _ Model = (*Surrogate)(nil)

// NewNoisy builds the distance-decay surrogate.
func NewNoisy(oracle Oracle, opts Options) (*Surrogate, error) {
	ss := opts.SignalStrength
	if math.IsNaN(ss) || ss < 0 || ss > 1 {
		return nil, fmt.Errorf("signal strength must be within [0,1], got %v", ss)
	}
	modelType := "NAMb_ss" + strconv.FormatFloat(ss, 'g', -1, 64)
	return newSurrogate(oracle, opts, noisyStrategy{}, ss, modelType)
}

// NewNull builds the baseline surrogate that ignores sequence content and
// samples from an exponential around the mean measured fitness.
func NewNull(oracle Oracle, opts Options) (*Surrogate, error) {
	return newSurrogate(oracle, opts, newNullStrategy(), 0, "Null")
}

func newSurrogate(oracle Oracle, opts Options, strat strategy, ss float64, modelType string) (*Surrogate, error) {
	if oracle == nil {
		return nil, ErrOracleRequired
	}
	distance := opts.Distance
	if distance == nil {
		distance = sequence.Distance
	}
	rng := opts.Rand
	if rng == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Surrogate{
		oracle:         oracle,
		distance:       distance,
		strategy:       strat,
		rng:            rng,
		logger:         logger.With(slog.String("model_type", modelType)),
		signalStrength: ss,
		cache:          !opts.DisableCache,
		modelType:      modelType,
		landscapeID:    opts.LandscapeID,
		startID:        opts.StartID,
		measured:       newMeasurements(),
		modelCache:     make(map[string]float64),
		r2:             ss * ss,
	}
	qualityR2.WithLabelValues(modelType).Set(s.r2)
	return s, nil
}

func (s *Surrogate) ModelType() string {
	return s.modelType
}

func (s *Surrogate) SignalStrength() float64 {
	return s.signalStrength
}

func (s *Surrogate) CacheEnabled() bool {
	return s.cache
}

func (s *Surrogate) LandscapeID() int {
	return s.landscapeID
}

func (s *Surrogate) StartID() int {
	return s.startID
}

// Cost is the number of distinct sequences measured on the ground-truth oracle.
func (s *Surrogate) Cost() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.measured.cost
}

// Evals is the number of synthetic fitness computations served.
func (s *Surrogate) Evals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evals
}

// R2 is the running squared correlation between cached predictions and the
// truths revealed for them later.
func (s *Surrogate) R2() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r2
}

// GetFitness returns the measured truth, a cached estimate, or a freshly
// synthesized one, in that order of precedence.
func (s *Surrogate) GetFitness(ctx context.Context, seq string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fitness, ok := s.measured.get(seq); ok {
		return fitness, nil
	}
	if cached, ok := s.modelCache[seq]; ok && s.cache {
		cacheHitsTotal.WithLabelValues(s.modelType).Inc()
		return cached, nil
	}

	fitness, err := s.strategy.synthesize(ctx, s, seq)
	if err != nil {
		return 0, err
	}
	s.modelCache[seq] = fitness
	s.evals++
	syntheticEvalsTotal.WithLabelValues(s.modelType).Inc()
	return fitness, nil
}

// GetFitnessDistribution returns distributionSize samples. Measured sequences
// yield identical copies of their truth; unmeasured ones are synthesized
// independently, bypassing the cache, and count as a single eval.
func (s *Surrogate) GetFitnessDistribution(ctx context.Context, seq string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]float64, 0, distributionSize)
	if fitness, ok := s.measured.get(seq); ok {
		for i := 0; i < distributionSize; i++ {
			out = append(out, fitness)
		}
		return out, nil
	}

	for i := 0; i < distributionSize; i++ {
		fitness, err := s.strategy.synthesize(ctx, s, seq)
		if err != nil {
			return nil, err
		}
		out = append(out, fitness)
	}
	s.evals++
	syntheticEvalsTotal.WithLabelValues(s.modelType).Inc()
	return out, nil
}

// UpdateModel measures sequences on the ground-truth oracle and invalidates
// every cached estimate.
func (s *Surrogate) UpdateModel(ctx context.Context, sequences []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(ctx, sequences)
}

// Reset drops all measurements, estimates and counters, then replays
// UpdateModel with sequences when any are given.
func (s *Surrogate) Reset(ctx context.Context, sequences []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.measured.reset()
	s.modelCache = make(map[string]float64)
	s.evals = 0
	s.r2 = s.signalStrength * s.signalStrength
	s.strategy.reset()
	qualityR2.WithLabelValues(s.modelType).Set(s.r2)

	if len(sequences) == 0 {
		return nil
	}
	return s.update(ctx, sequences)
}

// MinDistance reports the closest measured sequence and its edit distance.
func (s *Surrogate) MinDistance(seq string) (int, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minDistance(seq)
}

// IsMeasured reports whether seq has a recorded ground-truth value.
func (s *Surrogate) IsMeasured(seq string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.measured.get(seq)
	return ok
}

// Measured returns the measured sequences in measurement order.
func (s *Surrogate) Measured() []Measurement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.measured.snapshot()
}

// FitnessHistory returns a copy of every true fitness observed, in order.
func (s *Surrogate) FitnessHistory() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.measured.history...)
}

func (s *Surrogate) update(ctx context.Context, sequences []string) error {
	if err := s.measureTrueLandscape(ctx, sequences); err != nil {
		return err
	}
	s.strategy.observe(s)
	return nil
}
