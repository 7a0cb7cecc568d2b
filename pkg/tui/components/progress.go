// Package components provides reusable tview widgets shared by rankforge's
// screens.
package components

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// Progress renders a match-count progress bar: current match number over
// total_matches, plus the round number, per SPEC_FULL §6's Progress
// observable. Grounded on the teacher's components.Progress convergence
// bars, reduced to the single coverage metric this engine actually exposes.
type Progress struct {
	container *tview.Flex
	bar       *tview.TextView
}

// NewProgress constructs an empty Progress widget.
func NewProgress() *Progress {
	p := &Progress{
		container: tview.NewFlex(),
		bar:       tview.NewTextView(),
	}
	p.bar.SetBorder(true).SetTitle("Progress")
	p.bar.SetDynamicColors(true).SetTextAlign(tview.AlignCenter)
	p.container.AddItem(p.bar, 0, 1, true)
	return p
}

// GetPrimitive returns the widget's root primitive.
func (p *Progress) GetPrimitive() tview.Primitive { return p.container }

// Update redraws the bar for matchNumber of total at roundNumber.
func (p *Progress) Update(matchNumber, total, roundNumber uint32) {
	fraction := 0.0
	if total > 0 {
		fraction = float64(matchNumber-1) / float64(total)
	}
	if fraction > 1 {
		fraction = 1
	}
	bar := barString(fraction)
	text := fmt.Sprintf("%s\n[white]Match %d of %d  ·  Round %d", bar, matchNumber, total, roundNumber)
	p.bar.SetText(text)
}

// Complete marks the bar as fully filled.
func (p *Progress) Complete(total uint32) {
	text := fmt.Sprintf("%s\n[green]All %d matches complete", barString(1), total)
	p.bar.SetText(text)
}

func barString(fraction float64) string {
	const width = 30
	filled := int(fraction * width)
	color := "[blue]"
	if fraction >= 1 {
		color = "[green]"
	}
	return color + strings.Repeat("█", filled) + "[gray]" + strings.Repeat("░", width-filled) + "[white]"
}
