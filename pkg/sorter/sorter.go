// Package sorter implements PreferenceSorter: enumeration of the canonical
// pair universe over a fixed name set, recording of resolved preferences,
// and undo of the most recently recorded verdict.
package sorter

import (
	"errors"
	"fmt"
)

// ErrTooFewNames is returned when a PreferenceSorter is constructed with
// fewer than two names.
var ErrTooFewNames = errors.New("sorter: at least two names are required")

// ErrDuplicateName is returned when the input name sequence contains the
// same id more than once.
var ErrDuplicateName = errors.New("sorter: duplicate name id")

// ErrUnknownPair is returned by AddPreference when either id is not part of
// the name set the sorter was constructed with.
var ErrUnknownPair = errors.New("sorter: pair references an unknown name")

// Pair is an unordered pair of distinct name ids, in canonical order (A
// appeared before B in the original input sequence).
type Pair struct {
	A, B string
}

// entry is one append-only log record: which canonical pair it resolved and
// the weight recorded for it. Consecutive entries sharing PairIndex belong
// to the same verdict (Both/Neither record two, in opposite direction, for
// the same pair) and are undone together.
type entry struct {
	PairIndex int
	Weight    int
}

// PreferenceSorter enumerates the n*(n-1)/2 canonical pairs over a name set
// and tracks which ones have a recorded preference.
type PreferenceSorter struct {
	pairs     []Pair
	position  map[string]int // name id -> its index in the original input order
	pairIndex map[[2]int]int // (posA, posB), posA<posB -> pair index
	resolved  []bool
	cursor    int
	log       []entry
}

// New constructs a PreferenceSorter over ids, in the order given. The
// canonical pair list is the i<j enumeration over that order (§3 "Pair
// sequence"). Fewer than two ids or a duplicate id is rejected.
func New(ids []string) (*PreferenceSorter, error) {
	if len(ids) < 2 {
		return nil, ErrTooFewNames
	}

	position := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, exists := position[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, id)
		}
		position[id] = i
	}

	n := len(ids)
	pairs := make([]Pair, 0, n*(n-1)/2)
	pairIndex := make(map[[2]int]int, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairIndex[[2]int{i, j}] = len(pairs)
			pairs = append(pairs, Pair{A: ids[i], B: ids[j]})
		}
	}

	return &PreferenceSorter{
		pairs:     pairs,
		position:  position,
		pairIndex: pairIndex,
		resolved:  make([]bool, len(pairs)),
		cursor:    0,
		log:       make([]entry, 0, len(pairs)),
	}, nil
}

// Total returns the size of the canonical pair universe, n*(n-1)/2.
func (s *PreferenceSorter) Total() int {
	return len(s.pairs)
}

// NextPair returns the first unresolved pair at or after the cursor,
// without advancing the cursor. It returns false if every pair from the
// cursor onward is resolved.
func (s *PreferenceSorter) NextPair() (Pair, bool) {
	for i := s.cursor; i < len(s.pairs); i++ {
		if !s.resolved[i] {
			return s.pairs[i], true
		}
	}
	return Pair{}, false
}

// lookupPair finds the canonical index of the unordered pair {a, b} in
// O(1) via the position and pairIndex maps built at construction time.
func (s *PreferenceSorter) lookupPair(a, b string) (int, bool) {
	posA, ok := s.position[a]
	if !ok {
		return 0, false
	}
	posB, ok := s.position[b]
	if !ok {
		return 0, false
	}
	if posA > posB {
		posA, posB = posB, posA
	}
	idx, ok := s.pairIndex[[2]int{posA, posB}]
	return idx, ok
}

// AddPreference records a preference for the unordered pair {a, b} with the
// given weight (1 = a preferred over b in this call's orientation, 0 = no
// preference). The caller records two weight-0 entries, in opposite
// orientation, for symmetric Both/Neither verdicts. After recording, the
// cursor advances to the first unresolved pair at or beyond its current
// position.
func (s *PreferenceSorter) AddPreference(a, b string, weight int) error {
	idx, ok := s.lookupPair(a, b)
	if !ok {
		return fmt.Errorf("%w: (%s, %s)", ErrUnknownPair, a, b)
	}

	s.log = append(s.log, entry{PairIndex: idx, Weight: weight})
	s.resolved[idx] = true

	for s.cursor < len(s.pairs) && s.resolved[s.cursor] {
		s.cursor++
	}

	return nil
}

// UndoLast removes the most recently recorded verdict: the trailing run of
// log entries that share the last entry's pair index (one entry for
// Left/Right, two for Both/Neither). It is a no-op if the log is empty.
//
// The unresolved pair's index only pulls the cursor backward, never
// forward: the pair being undone may not be the lowest-index unresolved
// one (adaptive scheduling resolves pairs out of canonical order), and the
// cursor must keep pointing at the lowest-index unresolved pair regardless
// of which pair this undo affects.
func (s *PreferenceSorter) UndoLast() {
	if len(s.log) == 0 {
		return
	}

	last := s.log[len(s.log)-1].PairIndex
	i := len(s.log) - 1
	for i >= 0 && s.log[i].PairIndex == last {
		i--
	}
	s.log = s.log[:i+1]

	s.resolved[last] = false
	if last < s.cursor {
		s.cursor = last
	}
}

// IsResolved reports whether the unordered pair {a, b} has any recorded
// preference, in either orientation.
func (s *PreferenceSorter) IsResolved(a, b string) bool {
	idx, ok := s.lookupPair(a, b)
	if !ok {
		return false
	}
	return s.resolved[idx]
}

// Cursor exposes the sorter's current scan position: the canonical index of
// the lowest-index unresolved pair, maintained by AddPreference and
// UndoLast. Callers (the MatchScheduler) use it as the lower bound of their
// own scan over the unresolved set.
func (s *PreferenceSorter) Cursor() int {
	return s.cursor
}

// SetCursor repositions the cursor to the canonical index of the given
// pair, unconditionally. Exposed for callers that need to force a specific
// scan position directly; ordinary resolution/undo traffic should rely on
// AddPreference and UndoLast to keep the cursor a true first-unresolved
// pointer instead.
func (s *PreferenceSorter) SetCursor(p Pair) {
	if idx, ok := s.lookupPair(p.A, p.B); ok {
		s.cursor = idx
	}
}

// Pairs returns the full canonical pair list, in order. Callers must treat
// the result as read-only.
func (s *PreferenceSorter) Pairs() []Pair {
	return s.pairs
}
