package explorer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardOrdering(t *testing.T) {
	board := NewLeaderboard()
	assert.True(t, board.Add(Entry{Sequence: "CC", Fitness: 0.5}))
	assert.True(t, board.Add(Entry{Sequence: "AA", Fitness: 0.9}))
	assert.True(t, board.Add(Entry{Sequence: "BB", Fitness: 0.5}))
	assert.False(t, board.Add(Entry{Sequence: "AA", Fitness: 0.1}), "first fitness wins")

	require.Equal(t, 3, board.Len())
	best, ok := board.Best()
	require.True(t, ok)
	assert.Equal(t, "AA", best.Sequence)

	top := board.Top(0)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"AA", "BB", "CC"}, []string{top[0].Sequence, top[1].Sequence, top[2].Sequence})
	assert.Len(t, board.Top(2), 2)

	entry, ok := board.Get("AA")
	require.True(t, ok)
	assert.Equal(t, 0.9, entry.Fitness)
	assert.False(t, board.Contains("DD"))
}

func TestLeaderboardEmpty(t *testing.T) {
	board := NewLeaderboard()
	_, ok := board.Best()
	assert.False(t, ok)
	assert.Empty(t, board.Top(5))
}

func TestSelectors(t *testing.T) {
	ranked := []Entry{
		{Sequence: "A", Fitness: 3},
		{Sequence: "B", Fitness: 2},
		{Sequence: "C", Fitness: 1},
	}
	rng := rand.New(rand.NewSource(1))

	for _, sel := range []Selector{EliteSelector{}, TournamentSelector{TournamentSize: 2}} {
		t.Run(sel.Name(), func(t *testing.T) {
			for i := 0; i < 20; i++ {
				parent, err := sel.PickParent(rng, ranked, 2)
				require.NoError(t, err)
				assert.Contains(t, []string{"A", "B"}, parent)
			}
			_, err := sel.PickParent(rng, ranked, 4)
			assert.Error(t, err)
			_, err = sel.PickParent(nil, ranked, 1)
			assert.Error(t, err)
		})
	}

	sel, err := SelectorByName("Tournament")
	require.NoError(t, err)
	assert.Equal(t, "tournament", sel.Name())
	sel, err = SelectorByName("")
	require.NoError(t, err)
	assert.Equal(t, "elite", sel.Name())
	_, err = SelectorByName("roulette")
	assert.Error(t, err)
}
