package surrogate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

const (
	fallbackNoNeighbor   = "no_neighbor"
	fallbackOracleError  = "oracle_error"
	fallbackInvalidScale = "invalid_scale"
)

// noisyStrategy blends the true signal with neighbor-scaled exponential
// noise using alpha = ss^distance.
type noisyStrategy struct{}

func (noisyStrategy) synthesize(ctx context.Context, s *Surrogate, seq string) (float64, error) {
	if s.signalStrength >= 1 {
		signal, err := s.oracle.Fitness(ctx, seq)
		if err != nil {
			return 0, fmt.Errorf("evaluate %q: %w", seq, err)
		}
		return signal, nil
	}

	distance, neighbor, found := s.minDistance(seq)
	signal, err := s.oracle.Fitness(ctx, seq)
	if err != nil {
		return 0, fmt.Errorf("evaluate %q: %w", seq, err)
	}
	noise, err := s.neighborNoise(ctx, neighbor, found)
	if err != nil {
		return 0, err
	}

	alpha := math.Pow(s.signalStrength, float64(distance))
	return signal*alpha + noise*(1-alpha), nil
}

func (noisyStrategy) observe(*Surrogate) {}

func (noisyStrategy) reset() {}

// neighborNoise draws exponential noise scaled by the neighbor's true
// fitness, falling back to a uniformly chosen historical fitness.
func (s *Surrogate) neighborNoise(ctx context.Context, neighbor string, found bool) (float64, error) {
	if !found {
		return s.fallbackNoise(fallbackNoNeighbor, nil)
	}
	scale, err := s.oracle.Fitness(ctx, neighbor)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}
		return s.fallbackNoise(fallbackOracleError, err)
	}
	noise, err := sampleExponential(s.rng, scale)
	if err != nil {
		return s.fallbackNoise(fallbackInvalidScale, err)
	}
	return noise, nil
}

func (s *Surrogate) fallbackNoise(reason string, cause error) (float64, error) {
	noiseFallbacksTotal.WithLabelValues(s.modelType, reason).Inc()
	if cause != nil {
		s.logger.Debug("noise fallback", slog.String("reason", reason), slog.Any("error", cause))
	}
	return sampleHistory(s.rng, s.measured.history)
}
