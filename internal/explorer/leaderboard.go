package explorer

import "github.com/google/btree"

// Entry is a measured sequence with its ground-truth fitness and the round
// it was first measured in.
type Entry struct {
	Sequence string
	Fitness  float64
	Round    int
}

func entryLess(a, b Entry) bool {
	if a.Fitness != b.Fitness {
		return a.Fitness > b.Fitness
	}
	return a.Sequence < b.Sequence
}

// Leaderboard keeps measured sequences ordered by descending fitness.
// The first fitness recorded for a sequence is kept.
type Leaderboard struct {
	tree  *btree.BTreeG[Entry]
	index map[string]Entry
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{
		tree:  btree.NewG(16, entryLess),
		index: make(map[string]Entry),
	}
}

// Add records e unless its sequence is already present.
func (l *Leaderboard) Add(e Entry) bool {
	if _, ok := l.index[e.Sequence]; ok {
		return false
	}
	l.index[e.Sequence] = e
	l.tree.ReplaceOrInsert(e)
	return true
}

func (l *Leaderboard) Get(seq string) (Entry, bool) {
	e, ok := l.index[seq]
	return e, ok
}

func (l *Leaderboard) Contains(seq string) bool {
	_, ok := l.index[seq]
	return ok
}

func (l *Leaderboard) Len() int {
	return l.tree.Len()
}

func (l *Leaderboard) Best() (Entry, bool) {
	return l.tree.Min()
}

// Top returns up to n entries, best first. n <= 0 returns all of them.
func (l *Leaderboard) Top(n int) []Entry {
	if n <= 0 || n > l.tree.Len() {
		n = l.tree.Len()
	}
	out := make([]Entry, 0, n)
	l.tree.Ascend(func(e Entry) bool {
		if len(out) >= n {
			return false
		}
		out = append(out, e)
		return true
	})
	return out
}
