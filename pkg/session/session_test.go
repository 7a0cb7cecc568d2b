package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankforge/rankforge/pkg/elo"
	"github.com/rankforge/rankforge/pkg/store"
)

// memoryKV is a minimal in-process ports.KeyValueStore for tests.
type memoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryKV() *memoryKV { return &memoryKV{data: make(map[string][]byte)} }

func (m *memoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryKV) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// fakeClock is a manually-advanced ports.Clock for deterministic debounce
// tests.
type fakeClock struct {
	mu  sync.Mutex
	now int64
}

func (c *fakeClock) NowMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now++
	return c.now
}

func (c *fakeClock) Advance(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += ms
}

func newTestSession(t *testing.T, names []string, kv *memoryKV, clock *fakeClock) *TournamentSession {
	t.Helper()
	st := store.New(kv)
	ts, err := New(Config{
		User:  "alice",
		Names: names,
		Store: st,
		Rater: elo.NewRater(elo.DefaultKFactor),
		Clock: clock,
	})
	require.NoError(t, err)
	return ts
}

func TestNew_FirstPairIsCanonical(t *testing.T) {
	ts := newTestSession(t, []string{"A", "B", "C"}, newMemoryKV(), &fakeClock{})
	assert.Equal(t, Active, ts.State())

	m, ok := ts.CurrentMatch()
	require.True(t, ok)
	assert.Equal(t, MatchPair{LeftID: "A", RightID: "B"}, m)
}

func TestVote_MinimalTournament(t *testing.T) {
	ts := newTestSession(t, []string{"A", "B"}, newMemoryKV(), &fakeClock{})
	ts.Vote(elo.Left)

	assert.Equal(t, Complete, ts.State())
	results := ts.CurrentResults()
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].ID)
	assert.InDelta(t, 1516.0, results[0].Rating, 0.01)
	assert.Equal(t, "B", results[1].ID)
	assert.InDelta(t, 1484.0, results[1].Rating, 0.01)
}

// TestUndo_Consistency matches spec.md §8 scenario 3.
func TestUndo_Consistency(t *testing.T) {
	clock := &fakeClock{}
	ts := newTestSession(t, []string{"A", "B", "C"}, newMemoryKV(), clock)

	m, ok := ts.CurrentMatch()
	require.True(t, ok)
	require.Equal(t, MatchPair{LeftID: "A", RightID: "B"}, m)
	clock.Advance(1000)
	ts.Vote(elo.Left) // (A,B)

	m, ok = ts.CurrentMatch()
	require.True(t, ok)
	require.Equal(t, "A", m.LeftID)
	clock.Advance(1000)
	ts.Vote(elo.Left) // (A,C)

	ts.Undo()

	assert.Equal(t, Active, ts.State())
	assert.Equal(t, uint32(2), ts.currentMatch)

	results := ts.CurrentResults()
	byID := map[string]ResultRow{}
	for _, r := range results {
		byID[r.ID] = r
	}
	assert.InDelta(t, 1516.0, byID["A"].Rating, 0.01)
	assert.InDelta(t, 1484.0, byID["B"].Rating, 0.01)
	assert.InDelta(t, elo.DefaultRating, byID["C"].Rating, 0.01)

	next, ok := ts.CurrentMatch()
	require.True(t, ok)
	assert.Contains(t, []MatchPair{{LeftID: "A", RightID: "C"}, {LeftID: "B", RightID: "C"}}, next)
}

// TestRestoration matches spec.md §8 scenario 4.
func TestRestoration(t *testing.T) {
	kv := newMemoryKV()
	clock := &fakeClock{}
	names := []string{"A", "B", "C", "D"}

	ts := newTestSession(t, names, kv, clock)
	for i := 0; i < 3; i++ {
		clock.Advance(1000)
		ts.Vote(elo.Left)
	}
	require.NoError(t, ts.Close())

	// All three votes must actually be recorded: the adaptive scheduler
	// picks pairs out of canonical order (e.g. (C,D) before (A,C) here),
	// and must not strand the rest of the unresolved pairs early.
	require.Len(t, ts.History(), 3)
	require.Equal(t, Active, ts.State())

	preDestroyResults := ts.CurrentResults()
	preDestroyMatch, preDestroyOK := ts.CurrentMatch()

	restored := newTestSession(t, names, kv, clock)

	assert.Len(t, restored.History(), 3)
	assert.Equal(t, preDestroyResults, restored.CurrentResults())
	m, ok := restored.CurrentMatch()
	assert.Equal(t, preDestroyOK, ok)
	assert.Equal(t, preDestroyMatch, m)
}

func TestVote_Debounce(t *testing.T) {
	clock := &fakeClock{}
	ts := newTestSession(t, []string{"A", "B", "C"}, newMemoryKV(), clock)

	ts.Vote(elo.Left) // (A,B), accepted
	before, _ := ts.CurrentMatch()

	ts.Vote(elo.Left) // within 300ms window: dropped
	after, _ := ts.CurrentMatch()

	assert.Equal(t, before, after)
}

func TestVote_IgnoredWhenNotActive(t *testing.T) {
	ts := newTestSession(t, []string{"A", "B"}, newMemoryKV(), &fakeClock{})
	ts.Reset()
	assert.Equal(t, Uninitialized, ts.State())

	ts.Vote(elo.Left)
	assert.Equal(t, Uninitialized, ts.State())
}

func TestUndo_EmptyHistoryIsNoOp(t *testing.T) {
	ts := newTestSession(t, []string{"A", "B"}, newMemoryKV(), &fakeClock{})
	ts.Undo()
	assert.Equal(t, Active, ts.State())
	m, ok := ts.CurrentMatch()
	require.True(t, ok)
	assert.Equal(t, MatchPair{LeftID: "A", RightID: "B"}, m)
}

func TestCurrentResults_TieBrokenByID(t *testing.T) {
	ts := newTestSession(t, []string{"B", "A"}, newMemoryKV(), &fakeClock{})
	results := ts.CurrentResults()
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].ID)
	assert.Equal(t, "B", results[1].ID)
}

func TestNew_FreshSessionIsNotRestored(t *testing.T) {
	ts := newTestSession(t, []string{"A", "B"}, newMemoryKV(), &fakeClock{})
	assert.False(t, ts.Restored())
}

func TestUndo_InvokesOnUndoWithPoppedRecord(t *testing.T) {
	kv := newMemoryKV()
	clock := &fakeClock{}
	st := store.New(kv)

	var popped *store.MatchRecord
	ts, err := New(Config{
		User:  "alice",
		Names: []string{"A", "B", "C"},
		Store: st,
		Rater: elo.NewRater(elo.DefaultKFactor),
		Clock: clock,
		OnUndo: func(rec store.MatchRecord) {
			popped = &rec
		},
	})
	require.NoError(t, err)

	clock.Advance(1000)
	ts.Vote(elo.Left)
	ts.Undo()

	require.NotNil(t, popped)
	assert.Equal(t, "A", popped.Left)
	assert.Equal(t, "B", popped.Right)
}

func TestRestoration_SetsRestoredFlag(t *testing.T) {
	kv := newMemoryKV()
	clock := &fakeClock{}
	names := []string{"A", "B", "C"}

	first := newTestSession(t, names, kv, clock)
	clock.Advance(1000)
	first.Vote(elo.Left)
	require.NoError(t, first.Close())

	second := newTestSession(t, names, kv, clock)
	assert.True(t, second.Restored())
}
