// Package landscape provides ground-truth fitness oracles for benchmarking
// surrogate models.
package landscape

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"noisyoracle/internal/sequence"
)

var (
	ErrUnknownSequence = errors.New("sequence not in landscape")
	ErrInvalidSequence = errors.New("invalid sequence")
)

const (
	KindTable          = "table"
	KindPositionWeight = "position_weight"
)

// Oracle is a named ground-truth fitness function. Implementations are safe
// for concurrent use.
type Oracle interface {
	Name() string
	Fitness(ctx context.Context, seq string) (float64, error)
}

// Config selects and parameterizes a landscape.
type Config struct {
	Kind      string
	Name      string
	CSVPath   string
	Alphabet  sequence.Alphabet
	Length    int
	Epistasis float64
	Seed      int64
}

// New builds the landscape described by cfg.
func New(cfg Config) (Oracle, error) {
	switch strings.TrimSpace(cfg.Kind) {
	case "", KindPositionWeight:
		return NewPositionWeight(PositionWeightConfig{
			Name:      cfg.Name,
			Alphabet:  cfg.Alphabet,
			Length:    cfg.Length,
			Epistasis: cfg.Epistasis,
			Seed:      cfg.Seed,
		})
	case KindTable:
		table, err := LoadTableCSV(cfg.CSVPath)
		if err != nil {
			return nil, err
		}
		if cfg.Name != "" {
			table.name = cfg.Name
		}
		return table, nil
	default:
		return nil, fmt.Errorf("unsupported landscape kind: %s", cfg.Kind)
	}
}
