package tui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// HelpScreen renders keyboard shortcuts and a short usage summary.
type HelpScreen struct {
	root     *tview.Flex
	textView *tview.TextView
	app      *App
}

// NewHelpScreen constructs the help screen.
func NewHelpScreen() *HelpScreen {
	hs := &HelpScreen{
		root:     tview.NewFlex(),
		textView: tview.NewTextView(),
	}
	hs.setupLayout()
	return hs
}

func (hs *HelpScreen) GetPrimitive() tview.Primitive { return hs.root }

func (hs *HelpScreen) OnEnter(app *App) error {
	hs.app = app
	hs.updateContent()
	return nil
}

func (hs *HelpScreen) OnExit(app *App) error { return nil }

func (hs *HelpScreen) GetTitle() string { return "Help" }

func (hs *HelpScreen) GetHelpText() []string {
	return []string{"Press ESC or q to go back"}
}

func (hs *HelpScreen) setupLayout() {
	hs.textView.
		SetBorder(true).
		SetTitle("Help").
		SetTitleAlign(tview.AlignCenter)
	hs.textView.SetWrap(true).SetDynamicColors(true).SetScrollable(true)

	hs.textView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc || event.Rune() == 'q' {
			if hs.app != nil {
				go hs.app.GoBack()
			}
			return nil
		}
		return event
	})

	hs.root.AddItem(hs.textView, 0, 1, true)
}

func (hs *HelpScreen) updateContent() {
	var b strings.Builder

	b.WriteString("[yellow]rankforge[-]\n\n")
	b.WriteString("Rank a pool of names by answering pairwise matches; ratings update via Elo\n")
	b.WriteString("and the scheduler proposes the next most informative pair until the pool\n")
	b.WriteString("has been fully compared.\n\n")

	b.WriteString("[green]Global Shortcuts[-]\n")
	b.WriteString("════════════════════\n")
	for _, binding := range globalKeyBindings {
		keyText := string(binding.Rune)
		if binding.Key != tcell.KeyRune {
			keyText = tcell.KeyNames[binding.Key]
		}
		b.WriteString("[white]" + keyText + "[-]  - " + binding.Description + "\n")
	}

	b.WriteString("\n[green]Match Screen[-]\n")
	b.WriteString("════════════════\n")
	b.WriteString("[white]Left arrow / 1[-]  - prefer the left item\n")
	b.WriteString("[white]Right arrow / 2[-] - prefer the right item\n")
	b.WriteString("[white]b[-]               - both acceptable\n")
	b.WriteString("[white]n[-]               - neither acceptable\n")
	b.WriteString("[white]u[-]               - undo the last match\n")

	b.WriteString("\n[green]Screens[-]\n")
	b.WriteString("════════\n")
	b.WriteString("[white]Setup[-]   - choose the pool of names to rank\n")
	b.WriteString("[white]Match[-]   - answer the current pairwise match\n")
	b.WriteString("[white]Ranking[-] - view current_results() at any time\n")
	b.WriteString("[white]Bracket[-] - view match history grouped by round\n")

	hs.textView.SetText(b.String())
}
