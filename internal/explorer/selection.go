package explorer

import (
	"fmt"
	"math/rand"
	"strings"
)

// Selector chooses the parent sequence of the next candidate from the
// leaderboard ranking.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []Entry, eliteCount int) (string, error)
}

// EliteSelector picks uniformly from the top elite set.
type EliteSelector struct{}

func (EliteSelector) Name() string {
	return "elite"
}

func (EliteSelector) PickParent(rng *rand.Rand, ranked []Entry, eliteCount int) (string, error) {
	if rng == nil {
		return "", fmt.Errorf("random source is required")
	}
	if eliteCount <= 0 || eliteCount > len(ranked) {
		return "", fmt.Errorf("invalid elite count: %d", eliteCount)
	}
	return ranked[rng.Intn(eliteCount)].Sequence, nil
}

// TournamentSelector samples candidates from the elite pool and keeps the
// fittest.
type TournamentSelector struct {
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []Entry, eliteCount int) (string, error) {
	if rng == nil {
		return "", fmt.Errorf("random source is required")
	}
	if eliteCount <= 0 || eliteCount > len(ranked) {
		return "", fmt.Errorf("invalid elite count: %d", eliteCount)
	}

	size := s.TournamentSize
	if size <= 0 {
		size = 3
	}
	if size > eliteCount {
		size = eliteCount
	}

	best := ranked[rng.Intn(eliteCount)]
	for i := 1; i < size; i++ {
		candidate := ranked[rng.Intn(eliteCount)]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best.Sequence, nil
}

// SelectorByName resolves a selector from its configuration name. An empty
// name selects elite.
func SelectorByName(name string) (Selector, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "elite":
		return EliteSelector{}, nil
	case "tournament":
		return TournamentSelector{}, nil
	default:
		return nil, fmt.Errorf("unsupported selector: %s", name)
	}
}
