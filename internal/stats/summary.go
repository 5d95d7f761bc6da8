package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrLengthMismatch   = errors.New("length mismatch")
	ErrZeroVariance     = errors.New("zero variance")
	ErrUndefined        = errors.New("undefined result")
)

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("mean: %w", ErrInsufficientData)
	}
	return stat.Mean(values, nil), nil
}

// PopStd returns the population standard deviation of values.
func PopStd(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("std: %w", ErrInsufficientData)
	}
	return stat.PopStdDev(values, nil), nil
}

// Pearson returns the Pearson correlation coefficient of x and y. Degenerate
// inputs are reported as errors rather than NaN.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("pearson: %w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}
	if len(x) < 2 {
		return 0, fmt.Errorf("pearson: %w: need at least 2 pairs, got %d", ErrInsufficientData, len(x))
	}
	if constant(x) || constant(y) {
		return 0, fmt.Errorf("pearson: %w", ErrZeroVariance)
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, fmt.Errorf("pearson: %w", ErrUndefined)
	}
	return r, nil
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
