package screens

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rankforge/rankforge/pkg/bracket"
	"github.com/rankforge/rankforge/pkg/tui"
)

// BracketScreen renders bracket.Project's match-by-match projection of the
// active session's history, grouped by round number.
type BracketScreen struct {
	root  *tview.Flex
	table *tview.Table
	app   *tui.App
}

// NewBracketScreen constructs the bracket screen.
func NewBracketScreen() *BracketScreen {
	b := &BracketScreen{
		root:  tview.NewFlex().SetDirection(tview.FlexRow),
		table: tview.NewTable(),
	}
	b.setupLayout()
	return b
}

func (b *BracketScreen) GetPrimitive() tview.Primitive { return b.root }

func (b *BracketScreen) GetTitle() string { return "Bracket" }

func (b *BracketScreen) GetHelpText() []string {
	return []string{"ESC: back"}
}

func (b *BracketScreen) OnEnter(app *tui.App) error {
	b.app = app
	b.refresh()
	return nil
}

func (b *BracketScreen) OnExit(app *tui.App) error { return nil }

func (b *BracketScreen) setupLayout() {
	b.table.SetBorder(true).SetTitle("Match History by Round")
	b.table.SetFixed(1, 0)
	b.table.SetSelectable(false, false)
	b.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc {
			if b.app != nil {
				go b.app.GoBack()
			}
			return nil
		}
		return event
	})
	b.root.AddItem(b.table, 0, 1, true)
}

func outcomeGlyph(o bracket.Outcome) string {
	switch o {
	case bracket.LeftWin:
		return "<"
	case bracket.RightWin:
		return ">"
	case bracket.Both:
		return "="
	default:
		return "x"
	}
}

func (b *BracketScreen) refresh() {
	b.table.Clear()

	headers := []string{"Round", "Left", "", "Right"}
	for col, h := range headers {
		b.table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}

	ts := b.app.Session()
	if ts == nil {
		return
	}

	rows := bracket.Project(ts.History(), ts.NameCount(), ts.DisplayNames())
	for i, row := range rows {
		r := i + 1
		b.table.SetCell(r, 0, tview.NewTableCell(fmt.Sprintf("%d", row.Round)))
		b.table.SetCell(r, 1, tview.NewTableCell(row.LeftName))
		b.table.SetCell(r, 2, tview.NewTableCell(outcomeGlyph(row.Outcome)))
		b.table.SetCell(r, 3, tview.NewTableCell(row.RightName))
	}
}
