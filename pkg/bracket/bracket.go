// Package bracket implements BracketProjection: a pure function from
// session match history to a display-ready bracket listing.
package bracket

import (
	"strconv"

	"github.com/rankforge/rankforge/pkg/elo"
	"github.com/rankforge/rankforge/pkg/store"
)

// Outcome is a bracket row's display outcome, derived from a MatchRecord's
// verdict per spec.md §4.8.
type Outcome int

const (
	LeftWin Outcome = iota
	RightWin
	Both
	Neither
)

func outcomeFor(verdict elo.Outcome) Outcome {
	switch verdict {
	case elo.Left:
		return LeftWin
	case elo.Right:
		return RightWin
	case elo.Both:
		return Both
	default:
		return Neither
	}
}

// Row is one projected bracket entry.
type Row struct {
	ID        string
	Round     uint32
	LeftName  string
	RightName string
	Outcome   Outcome
}

// roundFor implements I4: round_number = floor((match_number-1) /
// max(1,n)) + 1.
func roundFor(matchNumber uint32, n int) uint32 {
	divisor := n
	if divisor < 1 {
		divisor = 1
	}
	return uint32((int(matchNumber)-1)/divisor) + 1
}

// Project derives the bracket rows for history over a name-set of size n,
// using displayName to resolve ids to the names shown in LeftName/
// RightName. It has no side effects and never mutates history.
func Project(history []store.MatchRecord, n int, displayName map[string]string) []Row {
	rows := make([]Row, 0, len(history))
	for i, rec := range history {
		row := Row{
			ID:        recordID(rec, i),
			Round:     roundFor(rec.MatchNumber, n),
			LeftName:  displayName[rec.Left],
			RightName: displayName[rec.Right],
			Outcome:   outcomeFor(rec.Verdict),
		}
		rows = append(rows, row)
	}
	return rows
}

// recordID derives a stable per-row id from the record's match number,
// falling back to its position when match numbers are absent (e.g. a
// hand-built record in a test).
func recordID(rec store.MatchRecord, index int) string {
	if rec.MatchNumber != 0 {
		return matchIDPrefix + strconv.FormatUint(uint64(rec.MatchNumber), 10)
	}
	return matchIDPrefix + strconv.Itoa(index+1)
}

const matchIDPrefix = "match-"
