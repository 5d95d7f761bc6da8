package surrogate

import (
	"context"
	"fmt"

	"noisyoracle/internal/stats"
)

// defaultAverageFitness seeds the null model before anything is measured.
const defaultAverageFitness = 0.05

type nullStrategy struct {
	averageFitness float64
}

func newNullStrategy() *nullStrategy {
	return &nullStrategy{averageFitness: defaultAverageFitness}
}

func (n *nullStrategy) synthesize(_ context.Context, s *Surrogate, _ string) (float64, error) {
	noise, err := sampleExponential(s.rng, n.averageFitness)
	if err != nil {
		return 0, fmt.Errorf("null model: %w", err)
	}
	return noise, nil
}

// observe recomputes the mean over everything measured so far. With nothing
// measured the previous average stays.
func (n *nullStrategy) observe(s *Surrogate) {
	mean, err := stats.Mean(s.measured.values())
	if err != nil {
		return
	}
	n.averageFitness = mean
}

func (n *nullStrategy) reset() {
	n.averageFitness = defaultAverageFitness
}
