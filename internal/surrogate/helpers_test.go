package surrogate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
)

type fakeOracle struct {
	values map[string]float64
	fail   map[string]bool
	calls  map[string]int
}

func newFakeOracle(values map[string]float64) *fakeOracle {
	return &fakeOracle{
		values: values,
		fail:   make(map[string]bool),
		calls:  make(map[string]int),
	}
}

func (o *fakeOracle) Fitness(ctx context.Context, seq string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	o.calls[seq]++
	if o.fail[seq] {
		return 0, fmt.Errorf("oracle rejected %q", seq)
	}
	v, ok := o.values[seq]
	if !ok {
		return 0, fmt.Errorf("unknown sequence %q", seq)
	}
	return v, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// firstExp reproduces the first exponential draw a surrogate seeded with seed makes.
func firstExp(seed int64) float64 {
	return rand.New(rand.NewSource(seed)).ExpFloat64()
}

func landscape() map[string]float64 {
	return map[string]float64{
		"AAAA": 1.0,
		"AAAT": 0.8,
		"AATT": 0.5,
		"ATTT": 0.3,
		"TTTT": 0.1,
		"CCCC": 2.0,
	}
}
