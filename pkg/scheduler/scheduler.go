// Package scheduler implements MatchScheduler: adaptive selection of the
// next pair to present to the user, layered on top of a PreferenceSorter.
package scheduler

import "github.com/rankforge/rankforge/pkg/sorter"

// MatchScheduler wraps a PreferenceSorter with an adaptive selector that
// favors pairs with a small rating gap and few prior comparisons.
type MatchScheduler struct {
	sorter *sorter.PreferenceSorter
}

// New constructs a MatchScheduler over the given sorter.
func New(s *sorter.PreferenceSorter) *MatchScheduler {
	return &MatchScheduler{sorter: s}
}

// uncertaintyBonus returns 50 / (1 + count), the per-side term of §4.3's
// score formula.
func uncertaintyBonus(count int) float64 {
	return 50.0 / (1.0 + float64(count))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// NextMatch selects the next pair to present. ratings maps a name id to its
// current Elo value; comparisonCounts maps a name id to the number of match
// records (winner or loser) it has appeared in so far. Ids absent from
// either map are treated as rating 0 / count 0.
//
// It scans every unresolved pair from the sorter's cursor onward (the
// cursor only ever marks the lowest-index unresolved pair, so everything
// before it is already resolved and nothing is skipped), scores each as
// |rating_a - rating_b| - (bonus_a + bonus_b), and returns the pair with
// the minimum score, ties broken by canonical order. If no unresolved pair
// remains (or the sorter reports fewer than two names), it falls back to
// sorter.NextPair(). The chosen pair may be out of canonical order, so
// NextMatch never repositions the sorter's cursor itself: the cursor only
// moves when AddPreference/UndoLast resolve or unresolve a pair, which
// keeps it a true first-unresolved pointer regardless of which pair gets
// picked adaptively.
func (m *MatchScheduler) NextMatch(ratings map[string]float64, comparisonCounts map[string]int) (sorter.Pair, bool) {
	if m.sorter.Total() == 0 {
		return sorter.Pair{}, false
	}

	pairs := m.sorter.Pairs()
	cursor := m.sorter.Cursor()

	bestIdx := -1
	bestScore := 0.0

	for i := cursor; i < len(pairs); i++ {
		if m.sorter.IsResolved(pairs[i].A, pairs[i].B) {
			continue
		}
		p := pairs[i]
		score := abs(ratings[p.A]-ratings[p.B]) - (uncertaintyBonus(comparisonCounts[p.A]) + uncertaintyBonus(comparisonCounts[p.B]))
		if bestIdx == -1 || score < bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	if bestIdx == -1 {
		return m.sorter.NextPair()
	}

	return pairs[bestIdx], true
}

// Sorter exposes the underlying PreferenceSorter, for callers (TournamentSession)
// that need to record votes or undo them.
func (m *MatchScheduler) Sorter() *sorter.PreferenceSorter {
	return m.sorter
}
