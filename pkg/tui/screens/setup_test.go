package screens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankforge/rankforge/pkg/tui"
)

func TestSetupScreenListsCatalogWithSelectionMarks(t *testing.T) {
	app := newTestApp(t)
	s := NewSetupScreen()
	require.NoError(t, s.OnEnter(app))

	assert.Equal(t, 2, s.list.GetItemCount())
	main, _ := s.list.GetItemText(0)
	assert.Contains(t, main, "Alpha")
}

func TestSetupScreenToggleUpdatesSelectionManager(t *testing.T) {
	app := newTestApp(t)
	s := NewSetupScreen()
	require.NoError(t, s.OnEnter(app))

	assert.False(t, app.Selection().IsSelected("a"))
	s.toggle(0)
	assert.True(t, app.Selection().IsSelected("a"))
	s.toggle(0)
	assert.False(t, app.Selection().IsSelected("a"))
}

func TestSetupScreenCommitRequiresTwoItems(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.RegisterScreen(tui.ScreenMatch, NewMatchScreen()))

	s := NewSetupScreen()
	require.NoError(t, s.OnEnter(app))

	s.commit()
	assert.Nil(t, app.Session())

	s.toggle(0)
	s.toggle(1)
	s.commit()
	assert.NotNil(t, app.Session())
}
