package surrogate

import (
	"context"
	"fmt"
)

// Measurement is a sequence with its ground-truth fitness.
type Measurement struct {
	Sequence string
	Fitness  float64
}

// measurements is the insertion-ordered record of ground-truth queries.
// A key is never overwritten until reset.
type measurements struct {
	order   []string
	fitness map[string]float64
	history []float64
	cost    int
}

func newMeasurements() *measurements {
	return &measurements{fitness: make(map[string]float64)}
}

func (m *measurements) get(seq string) (float64, bool) {
	fitness, ok := m.fitness[seq]
	return fitness, ok
}

func (m *measurements) record(seq string, fitness float64) {
	if _, ok := m.fitness[seq]; ok {
		return
	}
	m.cost++
	m.order = append(m.order, seq)
	m.fitness[seq] = fitness
	m.history = append(m.history, fitness)
}

func (m *measurements) values() []float64 {
	out := make([]float64, 0, len(m.order))
	for _, seq := range m.order {
		out = append(out, m.fitness[seq])
	}
	return out
}

func (m *measurements) snapshot() []Measurement {
	out := make([]Measurement, 0, len(m.order))
	for _, seq := range m.order {
		out = append(out, Measurement{Sequence: seq, Fitness: m.fitness[seq]})
	}
	return out
}

func (m *measurements) reset() {
	m.order = nil
	m.fitness = make(map[string]float64)
	m.history = nil
	m.cost = 0
}

// measureTrueLandscape queries the oracle for every unmeasured sequence,
// pairs fresh truths with stale cached predictions for the quality estimate
// and clears the model cache. The cache is cleared even when the oracle
// fails part-way; sequences measured before the failure are kept.
func (s *Surrogate) measureTrueLandscape(ctx context.Context, sequences []string) error {
	defer s.clearCache()

	var predictions, truths []float64
	for _, seq := range sequences {
		if _, ok := s.measured.get(seq); ok {
			continue
		}
		fitness, err := s.oracle.Fitness(ctx, seq)
		if err != nil {
			return fmt.Errorf("measure %q: %w", seq, err)
		}
		if predicted, ok := s.modelCache[seq]; ok {
			predictions = append(predictions, predicted)
			truths = append(truths, fitness)
		}
		s.measured.record(seq, fitness)
		measurementsTotal.WithLabelValues(s.modelType).Inc()
	}

	if len(truths) > 0 {
		s.updateQuality(predictions, truths)
	}
	return nil
}

func (s *Surrogate) clearCache() {
	s.modelCache = make(map[string]float64)
}
