package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rankforge/rankforge/pkg/elo"
	"github.com/rankforge/rankforge/pkg/store"
)

func TestProject_RoundDerivation(t *testing.T) {
	names := map[string]string{"A": "Alpha", "B": "Beta", "C": "Gamma"}
	history := []store.MatchRecord{
		{Left: "A", Right: "B", Verdict: elo.Left, MatchNumber: 1},
		{Left: "A", Right: "C", Verdict: elo.Right, MatchNumber: 2},
		{Left: "B", Right: "C", Verdict: elo.Both, MatchNumber: 3},
		{Left: "A", Right: "B", Verdict: elo.Neither, MatchNumber: 4},
	}

	rows := Project(history, 3, names)
	require := assert.New(t)
	require.Len(rows, 4)

	// n=3: round = floor((match_number-1)/3)+1
	require.Equal(uint32(1), rows[0].Round)
	require.Equal(uint32(1), rows[1].Round)
	require.Equal(uint32(1), rows[2].Round)
	require.Equal(uint32(2), rows[3].Round)

	require.Equal(LeftWin, rows[0].Outcome)
	require.Equal(RightWin, rows[1].Outcome)
	require.Equal(Both, rows[2].Outcome)
	require.Equal(Neither, rows[3].Outcome)

	require.Equal("Alpha", rows[0].LeftName)
	require.Equal("Beta", rows[0].RightName)
}

func TestProject_EmptyHistory(t *testing.T) {
	rows := Project(nil, 3, nil)
	assert.Empty(t, rows)
}
