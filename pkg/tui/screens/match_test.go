package screens

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankforge/rankforge/pkg/tui"
)

func keyEvent(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestMatchScreenShowsCurrentPair(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.RegisterScreen(tui.ScreenMatch, NewMatchScreen()))
	require.NoError(t, app.CommitPool([]string{"a", "b"}))

	m := NewMatchScreen()
	require.NoError(t, m.OnEnter(app))

	assert.Contains(t, m.left.GetText(true), "Alpha")
	assert.Contains(t, m.right.GetText(true), "Bravo")
}

func TestMatchScreenVoteAdvancesToCompletion(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.RegisterScreen(tui.ScreenMatch, NewMatchScreen()))
	require.NoError(t, app.RegisterScreen(tui.ScreenRanking, NewRankingScreen()))
	require.NoError(t, app.CommitPool([]string{"a", "b"}))

	m := NewMatchScreen()
	require.NoError(t, m.OnEnter(app))

	m.handleInput(keyEvent('1'))

	assert.Equal(t, "complete", app.Session().State().String())
}
