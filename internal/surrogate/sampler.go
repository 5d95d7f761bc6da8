package surrogate

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrInvalidScale marks an exponential scale that cannot parameterize a draw.
var ErrInvalidScale = errors.New("invalid exponential scale")

func sampleExponential(rng *rand.Rand, scale float64) (float64, error) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	return rng.ExpFloat64() * scale, nil
}

func sampleHistory(rng *rand.Rand, history []float64) (float64, error) {
	if len(history) == 0 {
		return 0, ErrNoMeasurements
	}
	return history[rng.Intn(len(history))], nil
}
