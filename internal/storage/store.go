package storage

import (
	"context"

	"noisyoracle/internal/record"
)

// Store persists benchmark run results. Surrogate model state is never stored.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run record.Run) error
	GetRun(ctx context.Context, id string) (record.Run, bool, error)
	ListRuns(ctx context.Context) ([]record.Run, error)
	SaveRounds(ctx context.Context, runID string, rounds []record.Round) error
	GetRounds(ctx context.Context, runID string) ([]record.Round, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveTopSequences(ctx context.Context, runID string, top []record.ScoredSequence) error
	GetTopSequences(ctx context.Context, runID string) ([]record.ScoredSequence, bool, error)
}
