// Package screens implements rankforge's TUI screens: picking a pool,
// running matches, and viewing results.
package screens

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rankforge/rankforge/pkg/catalog"
	"github.com/rankforge/rankforge/pkg/tui"
)

// SetupScreen lets the user pick which catalog items belong in the next
// tournament pool, backed by a SelectionManager so the pool persists across
// runs per SPEC_FULL §4.6. Committing requires at least two items.
type SetupScreen struct {
	root   *tview.Flex
	list   *tview.List
	status *tview.TextView
	app    *tui.App
	items  []catalog.Item
}

// NewSetupScreen constructs the setup screen.
func NewSetupScreen() *SetupScreen {
	s := &SetupScreen{
		root:   tview.NewFlex().SetDirection(tview.FlexRow),
		list:   tview.NewList(),
		status: tview.NewTextView(),
	}
	s.setupLayout()
	return s
}

func (s *SetupScreen) GetPrimitive() tview.Primitive { return s.root }

func (s *SetupScreen) GetTitle() string { return "Setup" }

func (s *SetupScreen) GetHelpText() []string {
	return []string{
		"Space: toggle selection",
		"a: select all, c: clear",
		"Enter: start tournament",
	}
}

func (s *SetupScreen) OnEnter(app *tui.App) error {
	s.app = app
	s.items = app.CatalogItems()
	s.rebuild()
	return nil
}

func (s *SetupScreen) OnExit(app *tui.App) error { return nil }

func (s *SetupScreen) setupLayout() {
	s.list.SetBorder(true).SetTitle("Catalog")
	s.list.ShowSecondaryText(true)

	s.status.SetBorder(true).SetTitle("Pool")
	s.status.SetDynamicColors(true)

	s.root.AddItem(s.list, 0, 3, true)
	s.root.AddItem(s.status, 3, 0, false)
}

func (s *SetupScreen) rebuild() {
	s.list.Clear()
	sel := s.app.Selection()

	for _, item := range s.items {
		item := item
		mark := "[ ]"
		if sel.IsSelected(item.ID) {
			mark = "[x]"
		}
		label := fmt.Sprintf("%s %s", mark, item.Name)
		s.list.AddItem(label, item.Description, 0, nil)
	}

	s.list.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		s.toggle(index)
	})
	s.list.SetInputCapture(s.handleInput)
	s.updateStatus()
}

func (s *SetupScreen) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case ' ':
		s.toggle(s.list.GetCurrentItem())
		return nil
	case 'a', 'A':
		ids := make([]string, len(s.items))
		for i, item := range s.items {
			ids[i] = item.ID
		}
		s.app.Selection().SelectAll(ids)
		s.rebuild()
		return nil
	case 'c', 'C':
		s.app.Selection().Clear()
		s.rebuild()
		return nil
	}
	if event.Key() == tcell.KeyEnter {
		s.commit()
		return nil
	}
	return event
}

func (s *SetupScreen) toggle(index int) {
	if index < 0 || index >= len(s.items) {
		return
	}
	s.app.Selection().Toggle(s.items[index].ID)
	s.rebuild()
	s.list.SetCurrentItem(index)
}

func (s *SetupScreen) updateStatus() {
	count := s.app.Selection().Count()
	if count < 2 {
		s.status.SetText(fmt.Sprintf("[yellow]%d selected — pick at least 2, then press Enter[-]", count))
		return
	}
	s.status.SetText(fmt.Sprintf("[green]%d selected — press Enter to start[-]", count))
}

func (s *SetupScreen) commit() {
	ids := s.app.Selection().Snapshot()
	if len(ids) < 2 {
		s.updateStatus()
		return
	}
	if err := s.app.CommitPool(ids); err != nil {
		s.status.SetText(fmt.Sprintf("[red]failed to start tournament: %v[-]", err))
	}
}
