package screens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankforge/rankforge/pkg/catalog"
	"github.com/rankforge/rankforge/pkg/elo"
	"github.com/rankforge/rankforge/pkg/ports"
	"github.com/rankforge/rankforge/pkg/selection"
	"github.com/rankforge/rankforge/pkg/session"
	"github.com/rankforge/rankforge/pkg/store"
	"github.com/rankforge/rankforge/pkg/tui"
)

func newTestApp(t *testing.T) *tui.App {
	t.Helper()
	kv, err := ports.NewFileKeyValueStore(t.TempDir())
	require.NoError(t, err)
	st := store.New(kv)

	items := []catalog.Item{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Bravo"}}
	sel, err := selection.New("tester", st, []string{"a", "b"})
	require.NoError(t, err)

	displayName := map[string]string{"a": "Alpha", "b": "Bravo"}
	factory := func(ids []string) (*session.TournamentSession, error) {
		return session.New(session.Config{
			User:         "tester",
			Names:        ids,
			DisplayNames: displayName,
			Store:        st,
			Rater:        elo.NewRater(elo.DefaultKFactor),
			Clock:        ports.SystemClock{},
		})
	}

	app, err := tui.NewApp(items, sel, factory)
	require.NoError(t, err)
	return app
}

func TestRankingScreenRendersEmptyBeforeCommit(t *testing.T) {
	app := newTestApp(t)
	r := NewRankingScreen()
	require.NoError(t, r.OnEnter(app))
	assert.Equal(t, "Ranking", r.GetTitle())
}

func TestRankingScreenRendersResultsAfterCommit(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.RegisterScreen(tui.ScreenMatch, NewMatchScreen()))
	require.NoError(t, app.CommitPool([]string{"a", "b"}))

	r := NewRankingScreen()
	require.NoError(t, r.OnEnter(app))

	assert.Equal(t, "#", r.table.GetCell(0, 0).Text)
	assert.Equal(t, "Alpha", r.table.GetCell(1, 1).Text)
	assert.Equal(t, "Bravo", r.table.GetCell(2, 1).Text)
}
