package screens

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rankforge/rankforge/pkg/catalog"
	"github.com/rankforge/rankforge/pkg/elo"
	"github.com/rankforge/rankforge/pkg/session"
	"github.com/rankforge/rankforge/pkg/tui"
	"github.com/rankforge/rankforge/pkg/tui/components"
)

// MatchScreen renders the current pair from a TournamentSession and accepts
// Left/Right/Both/Neither/Undo verdicts, per SPEC_FULL §4.13. It reads only
// TournamentSession's public operations (State, CurrentMatch, Progress,
// Vote, Undo) — no ranking logic lives here.
type MatchScreen struct {
	root     *tview.Flex
	left     *tview.TextView
	right    *tview.TextView
	progress *components.Progress
	status   *tview.TextView
	app      *tui.App
	display  map[string]string
}

// NewMatchScreen constructs the match screen.
func NewMatchScreen() *MatchScreen {
	m := &MatchScreen{
		root:     tview.NewFlex().SetDirection(tview.FlexRow),
		left:     tview.NewTextView(),
		right:    tview.NewTextView(),
		progress: components.NewProgress(),
		status:   tview.NewTextView(),
	}
	m.setupLayout()
	return m
}

func (m *MatchScreen) GetPrimitive() tview.Primitive { return m.root }

func (m *MatchScreen) GetTitle() string { return "Match" }

func (m *MatchScreen) GetHelpText() []string {
	return []string{
		"Left/1: prefer left, Right/2: prefer right",
		"b: both, n: neither, u: undo",
	}
}

func (m *MatchScreen) OnEnter(app *tui.App) error {
	m.app = app
	m.display = make(map[string]string, len(app.CatalogItems()))
	for _, item := range app.CatalogItems() {
		m.display[item.ID] = item.Name
	}
	m.refresh()
	return nil
}

func (m *MatchScreen) OnExit(app *tui.App) error { return nil }

func (m *MatchScreen) setupLayout() {
	m.left.SetBorder(true).SetTitle("Left (1)").SetTitleAlign(tview.AlignCenter)
	m.left.SetDynamicColors(true).SetTextAlign(tview.AlignCenter)

	m.right.SetBorder(true).SetTitle("Right (2)").SetTitleAlign(tview.AlignCenter)
	m.right.SetDynamicColors(true).SetTextAlign(tview.AlignCenter)

	m.status.SetBorder(true).SetTitle("Status")
	m.status.SetDynamicColors(true)

	pair := tview.NewFlex().SetDirection(tview.FlexColumn)
	pair.AddItem(m.left, 0, 1, false)
	pair.AddItem(m.right, 0, 1, false)

	m.root.AddItem(pair, 0, 3, true)
	m.root.AddItem(m.progress.GetPrimitive(), 4, 0, false)
	m.root.AddItem(m.status, 3, 0, false)
	m.root.SetInputCapture(m.handleInput)
}

func (m *MatchScreen) nameFor(id string) string {
	if name, ok := m.display[id]; ok && name != "" {
		return name
	}
	return id
}

func (m *MatchScreen) refresh() {
	ts := m.app.Session()
	if ts == nil {
		return
	}

	if ts.State() == session.Complete {
		m.showCompletion(ts)
		return
	}

	pair, ok := ts.CurrentMatch()
	if !ok {
		m.showCompletion(ts)
		return
	}

	m.left.SetText(fmt.Sprintf("[yellow]%s[-]", m.nameFor(pair.LeftID)))
	m.right.SetText(fmt.Sprintf("[yellow]%s[-]", m.nameFor(pair.RightID)))
	m.status.SetText("Awaiting verdict")

	p := ts.Progress()
	m.progress.Update(p.CurrentMatch, p.TotalMatches, p.RoundNumber)
}

func (m *MatchScreen) showCompletion(ts *session.TournamentSession) {
	m.left.SetText("")
	m.right.SetText("")
	m.status.SetText("[green]Tournament complete — press Ctrl+R for rankings[-]")
	m.progress.Complete(ts.Progress().TotalMatches)
}

func (m *MatchScreen) handleInput(event *tcell.EventKey) *tcell.EventKey {
	ts := m.app.Session()
	if ts == nil {
		return event
	}

	switch {
	case event.Key() == tcell.KeyLeft || event.Rune() == '1':
		ts.Vote(elo.Left)
	case event.Key() == tcell.KeyRight || event.Rune() == '2':
		ts.Vote(elo.Right)
	case event.Rune() == 'b' || event.Rune() == 'B':
		ts.Vote(elo.Both)
	case event.Rune() == 'n' || event.Rune() == 'N':
		ts.Vote(elo.Neither)
	case event.Rune() == 'u' || event.Rune() == 'U':
		ts.Undo()
	default:
		return event
	}

	m.refresh()
	if ts.State() == session.Complete {
		go m.app.ShowRanking()
	}
	return nil
}
