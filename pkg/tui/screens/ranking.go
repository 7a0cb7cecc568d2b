package screens

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rankforge/rankforge/pkg/tui"
)

// RankingScreen renders current_results() as a sorted table, per
// SPEC_FULL §4.13. It is purely a projection of TournamentSession state and
// is available in any lifecycle state, including Complete.
type RankingScreen struct {
	root  *tview.Flex
	table *tview.Table
	app   *tui.App
}

// NewRankingScreen constructs the ranking screen.
func NewRankingScreen() *RankingScreen {
	r := &RankingScreen{
		root:  tview.NewFlex().SetDirection(tview.FlexRow),
		table: tview.NewTable(),
	}
	r.setupLayout()
	return r
}

func (r *RankingScreen) GetPrimitive() tview.Primitive { return r.root }

func (r *RankingScreen) GetTitle() string { return "Ranking" }

func (r *RankingScreen) GetHelpText() []string {
	return []string{"ESC: back to match screen"}
}

func (r *RankingScreen) OnEnter(app *tui.App) error {
	r.app = app
	r.refresh()
	return nil
}

func (r *RankingScreen) OnExit(app *tui.App) error { return nil }

func (r *RankingScreen) setupLayout() {
	r.table.SetBorder(true).SetTitle("Current Rankings")
	r.table.SetFixed(1, 0)
	r.table.SetSelectable(false, false)
	r.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc {
			if r.app != nil {
				go r.app.GoBack()
			}
			return nil
		}
		return event
	})
	r.root.AddItem(r.table, 0, 1, true)
}

func (r *RankingScreen) refresh() {
	ts := r.app.Session()
	r.table.Clear()

	headers := []string{"#", "Name", "Rating", "W", "L"}
	for col, h := range headers {
		r.table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}

	if ts == nil {
		return
	}

	for i, row := range ts.CurrentResults() {
		rank := i + 1
		r.table.SetCell(rank, 0, tview.NewTableCell(fmt.Sprintf("%d", rank)))
		r.table.SetCell(rank, 1, tview.NewTableCell(row.Name))
		r.table.SetCell(rank, 2, tview.NewTableCell(fmt.Sprintf("%.1f", row.Rating)))
		r.table.SetCell(rank, 3, tview.NewTableCell(fmt.Sprintf("%d", row.Wins)))
		r.table.SetCell(rank, 4, tview.NewTableCell(fmt.Sprintf("%d", row.Losses)))
	}
}
