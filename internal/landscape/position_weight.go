package landscape

import (
	"context"
	"fmt"
	"math/rand"

	"noisyoracle/internal/sequence"
)

const (
	defaultPositionWeightLength = 8
	defaultPositionWeightSeed   = 1
)

type PositionWeightConfig struct {
	Name      string
	Alphabet  sequence.Alphabet
	Length    int
	Epistasis float64
	Seed      int64
}

// PositionWeight is a seeded synthetic landscape: an additive per-site
// contribution plus an adjacent-pair term scaled by Epistasis. Fitness is
// normalized to [0,1].
type PositionWeight struct {
	name      string
	alphabet  sequence.Alphabet
	length    int
	site      [][]float64
	pair      [][][]float64
	epistasis float64
	norm      float64
}

func NewPositionWeight(cfg PositionWeightConfig) (*PositionWeight, error) {
	if cfg.Alphabet == "" {
		cfg.Alphabet = sequence.DNA
	}
	if cfg.Length == 0 {
		cfg.Length = defaultPositionWeightLength
	}
	if cfg.Seed == 0 {
		cfg.Seed = defaultPositionWeightSeed
	}
	if cfg.Length < 0 {
		return nil, fmt.Errorf("invalid landscape length: %d", cfg.Length)
	}
	if cfg.Epistasis < 0 {
		return nil, fmt.Errorf("invalid epistasis weight: %f", cfg.Epistasis)
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("pwm.L%d.s%d", cfg.Length, cfg.Seed)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	k := cfg.Alphabet.Len()
	site := make([][]float64, cfg.Length)
	siteMax := 0.0
	for i := range site {
		site[i] = make([]float64, k)
		best := 0.0
		for a := range site[i] {
			site[i][a] = rng.Float64()
			if site[i][a] > best {
				best = site[i][a]
			}
		}
		siteMax += best
	}

	pairMax := 0.0
	pair := make([][][]float64, 0, cfg.Length)
	for i := 0; i+1 < cfg.Length; i++ {
		block := make([][]float64, k)
		best := 0.0
		for a := range block {
			block[a] = make([]float64, k)
			for b := range block[a] {
				block[a][b] = rng.Float64()
				if block[a][b] > best {
					best = block[a][b]
				}
			}
		}
		pair = append(pair, block)
		pairMax += best
	}

	norm := siteMax + cfg.Epistasis*pairMax
	if norm <= 0 {
		norm = 1
	}
	return &PositionWeight{
		name:      cfg.Name,
		alphabet:  cfg.Alphabet,
		length:    cfg.Length,
		site:      site,
		pair:      pair,
		epistasis: cfg.Epistasis,
		norm:      norm,
	}, nil
}

func (p *PositionWeight) Name() string {
	return p.name
}

func (p *PositionWeight) Alphabet() sequence.Alphabet {
	return p.alphabet
}

func (p *PositionWeight) Length() int {
	return p.length
}

func (p *PositionWeight) Fitness(ctx context.Context, seq string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(seq) != p.length {
		return 0, fmt.Errorf("%w: length %d, want %d", ErrInvalidSequence, len(seq), p.length)
	}

	idx := make([]int, len(seq))
	for i := 0; i < len(seq); i++ {
		idx[i] = p.alphabet.Index(seq[i])
		if idx[i] < 0 {
			return 0, fmt.Errorf("%w: letter %q at position %d", ErrInvalidSequence, seq[i], i)
		}
	}

	total := 0.0
	for i, a := range idx {
		total += p.site[i][a]
	}
	for i := range p.pair {
		total += p.epistasis * p.pair[i][idx[i]][idx[i+1]]
	}
	return total / p.norm, nil
}
