package sorter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TooFewNames(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrTooFewNames)

	_, err = New([]string{"A"})
	assert.ErrorIs(t, err, ErrTooFewNames)
}

func TestNew_DuplicateName(t *testing.T) {
	_, err := New([]string{"A", "B", "A"})
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestNew_CanonicalOrder(t *testing.T) {
	s, err := New([]string{"A", "B", "C"})
	require.NoError(t, err)

	assert.Equal(t, 3, s.Total())
	assert.Equal(t, []Pair{
		{A: "A", B: "B"},
		{A: "A", B: "C"},
		{A: "B", B: "C"},
	}, s.Pairs())
}

func TestNextPair_AdvancesOnlyThroughResolved(t *testing.T) {
	s, err := New([]string{"A", "B", "C"})
	require.NoError(t, err)

	p, ok := s.NextPair()
	require.True(t, ok)
	assert.Equal(t, Pair{A: "A", B: "B"}, p)

	require.NoError(t, s.AddPreference("A", "B", 1))

	p, ok = s.NextPair()
	require.True(t, ok)
	assert.Equal(t, Pair{A: "A", B: "C"}, p)

	require.NoError(t, s.AddPreference("A", "C", 1))
	require.NoError(t, s.AddPreference("B", "C", 1))

	_, ok = s.NextPair()
	assert.False(t, ok)
}

func TestAddPreference_UnknownPair(t *testing.T) {
	s, err := New([]string{"A", "B"})
	require.NoError(t, err)

	err = s.AddPreference("A", "Z", 1)
	assert.ErrorIs(t, err, ErrUnknownPair)
}

func TestIsResolved_EitherOrientation(t *testing.T) {
	s, err := New([]string{"A", "B"})
	require.NoError(t, err)

	assert.False(t, s.IsResolved("A", "B"))
	assert.False(t, s.IsResolved("B", "A"))

	require.NoError(t, s.AddPreference("B", "A", 1))

	assert.True(t, s.IsResolved("A", "B"))
	assert.True(t, s.IsResolved("B", "A"))
}

func TestUndoLast_SingleEntryVerdict(t *testing.T) {
	s, err := New([]string{"A", "B", "C"})
	require.NoError(t, err)

	require.NoError(t, s.AddPreference("A", "B", 1))
	require.NoError(t, s.AddPreference("A", "C", 1))

	s.UndoLast()

	assert.False(t, s.IsResolved("A", "C"))
	assert.True(t, s.IsResolved("A", "B"))

	p, ok := s.NextPair()
	require.True(t, ok)
	assert.Equal(t, Pair{A: "A", B: "C"}, p)
}

func TestUndoLast_TwoEntryVerdict(t *testing.T) {
	s, err := New([]string{"A", "B"})
	require.NoError(t, err)

	// Both/Neither verdict: two weight-0 entries, opposite orientation.
	require.NoError(t, s.AddPreference("A", "B", 0))
	require.NoError(t, s.AddPreference("B", "A", 0))

	_, ok := s.NextPair()
	assert.False(t, ok)

	s.UndoLast()

	p, ok := s.NextPair()
	require.True(t, ok)
	assert.Equal(t, Pair{A: "A", B: "B"}, p)
}

func TestUndoLast_EmptyLogIsNoOp(t *testing.T) {
	s, err := New([]string{"A", "B"})
	require.NoError(t, err)

	s.UndoLast()

	p, ok := s.NextPair()
	require.True(t, ok)
	assert.Equal(t, Pair{A: "A", B: "B"}, p)
}

func TestSetCursor(t *testing.T) {
	s, err := New([]string{"A", "B", "C"})
	require.NoError(t, err)

	s.SetCursor(Pair{A: "B", B: "C"})
	assert.Equal(t, 2, s.Cursor())
}

// TestOrderingGuarantee exercises §8's property: under any sequence of
// AddPreference/UndoLast, NextPair returns pairs in canonical order of the
// unresolved subset.
func TestOrderingGuarantee(t *testing.T) {
	s, err := New([]string{"A", "B", "C", "D"})
	require.NoError(t, err)

	require.NoError(t, s.AddPreference("A", "C", 1)) // resolves index 1
	require.NoError(t, s.AddPreference("A", "D", 1)) // resolves index 2

	s.UndoLast() // unresolve index 2

	var seen []Pair
	for {
		p, ok := s.NextPair()
		if !ok {
			break
		}
		seen = append(seen, p)
		require.NoError(t, s.AddPreference(p.A, p.B, 1))
	}

	want := []Pair{
		{A: "A", B: "B"},
		{A: "A", B: "D"},
		{A: "B", B: "C"},
		{A: "B", B: "D"},
		{A: "C", B: "D"},
	}
	assert.Equal(t, want, seen)
}
