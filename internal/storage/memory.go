package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"noisyoracle/internal/record"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]record.Run
	rounds      map[string][]record.Round
	history     map[string][]float64
	top         map[string][]record.ScoredSequence
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]record.Run)
	s.rounds = make(map[string][]record.Round)
	s.history = make(map[string][]float64)
	s.top = make(map[string][]record.ScoredSequence)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run record.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (record.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

// ListRuns returns runs newest first.
func (s *MemoryStore) ListRuns(_ context.Context) ([]record.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]record.Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sortRunsNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) SaveRounds(_ context.Context, runID string, rounds []record.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.rounds[runID] = append([]record.Round(nil), rounds...)
	return nil
}

func (s *MemoryStore) GetRounds(_ context.Context, runID string) ([]record.Round, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rounds, ok := s.rounds[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]record.Round(nil), rounds...), true, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func (s *MemoryStore) SaveTopSequences(_ context.Context, runID string, top []record.ScoredSequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.top[runID] = append([]record.ScoredSequence(nil), top...)
	return nil
}

func (s *MemoryStore) GetTopSequences(_ context.Context, runID string) ([]record.ScoredSequence, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	top, ok := s.top[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]record.ScoredSequence(nil), top...), true, nil
}

func sortRunsNewestFirst(runs []record.Run) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC == runs[j].CreatedAtUTC {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
	})
}
