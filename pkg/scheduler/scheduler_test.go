package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankforge/rankforge/pkg/sorter"
)

// TestNextMatch_AdaptiveSelection matches spec.md §8 scenario 6.
func TestNextMatch_AdaptiveSelection(t *testing.T) {
	s, err := sorter.New([]string{"A", "B", "C"})
	require.NoError(t, err)

	m := New(s)

	ratings := map[string]float64{"A": 1500, "B": 1500, "C": 1800}
	counts := map[string]int{"A": 0, "B": 0, "C": 5}

	p, ok := m.NextMatch(ratings, counts)
	require.True(t, ok)
	assert.Equal(t, sorter.Pair{A: "A", B: "B"}, p)
}

func TestNextMatch_FallsBackWhenAllResolved(t *testing.T) {
	s, err := sorter.New([]string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, s.AddPreference("A", "B", 1))

	m := New(s)
	_, ok := m.NextMatch(nil, nil)
	assert.False(t, ok)
}

func TestNextMatch_TieBrokenByCanonicalOrder(t *testing.T) {
	s, err := sorter.New([]string{"A", "B", "C", "D"})
	require.NoError(t, err)

	m := New(s)

	// All ratings and counts equal: every pair scores identically, so the
	// earliest canonical pair (A,B) must win.
	ratings := map[string]float64{"A": 1500, "B": 1500, "C": 1500, "D": 1500}
	p, ok := m.NextMatch(ratings, nil)
	require.True(t, ok)
	assert.Equal(t, sorter.Pair{A: "A", B: "B"}, p)
}

func TestNextMatch_LeavesCursorToSorter(t *testing.T) {
	s, err := sorter.New([]string{"A", "B", "C"})
	require.NoError(t, err)

	m := New(s)
	ratings := map[string]float64{"A": 1500, "B": 1500, "C": 2000}

	p, ok := m.NextMatch(ratings, nil)
	require.True(t, ok)
	assert.Equal(t, sorter.Pair{A: "A", B: "B"}, p)
	assert.Equal(t, 0, s.Cursor())

	require.NoError(t, s.AddPreference(p.A, p.B, 1))

	p2, ok := m.NextMatch(ratings, nil)
	require.True(t, ok)
	assert.NotEqual(t, p, p2)
}

func TestNextMatch_NoUnresolvedPairLeft(t *testing.T) {
	s, err := sorter.New([]string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, s.AddPreference("A", "B", 1))

	m := New(s)
	_, ok := m.NextMatch(nil, nil)
	assert.False(t, ok)
}

// TestNextMatch_DoesNotStrandUnresolvedPairs matches spec.md §8 scenario 4:
// with four names and every verdict Left, the second adaptively-chosen pair
// ((C,D), scored lowest since neither side has been compared yet) must not
// cause the scheduler to lose track of the pairs still unresolved below it
// in canonical order. All six pairs must eventually be reachable.
func TestNextMatch_DoesNotStrandUnresolvedPairs(t *testing.T) {
	s, err := sorter.New([]string{"A", "B", "C", "D"})
	require.NoError(t, err)
	m := New(s)

	ratings := map[string]float64{"A": 1500, "B": 1500, "C": 1500, "D": 1500}
	counts := map[string]int{"A": 0, "B": 0, "C": 0, "D": 0}

	applyVote := func(winner, loser string) {
		ratings[winner] += 16
		ratings[loser] -= 16
		counts[winner]++
		counts[loser]++
		require.NoError(t, s.AddPreference(winner, loser, 1))
	}

	p, ok := m.NextMatch(ratings, counts)
	require.True(t, ok)
	require.Equal(t, sorter.Pair{A: "A", B: "B"}, p)
	applyVote("A", "B")

	p, ok = m.NextMatch(ratings, counts)
	require.True(t, ok)
	require.Equal(t, sorter.Pair{A: "C", B: "D"}, p)
	applyVote("C", "D")

	resolved := map[sorter.Pair]bool{p: true, {A: "A", B: "B"}: true}
	for len(resolved) < s.Total() {
		p, ok := m.NextMatch(ratings, counts)
		require.True(t, ok, "scheduler stranded %d unresolved pairs", s.Total()-len(resolved))
		require.False(t, resolved[p], "scheduler re-offered already-resolved pair %+v", p)
		resolved[p] = true
		applyVote(p.A, p.B)
	}

	_, ok = m.NextMatch(ratings, counts)
	assert.False(t, ok)
}
