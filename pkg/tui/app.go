// Package tui provides the terminal front-end for rankforge. It drives a
// TournamentSession purely through its public operations (Vote, Undo,
// CurrentMatch, CurrentResults) and holds no ranking logic of its own — the
// UI is an external collaborator of the engine, never a participant in it.
package tui

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rankforge/rankforge/pkg/catalog"
	"github.com/rankforge/rankforge/pkg/selection"
	"github.com/rankforge/rankforge/pkg/session"
)

// ScreenType identifies one of the TUI's registered screens.
type ScreenType int

const (
	ScreenSetup ScreenType = iota
	ScreenMatch
	ScreenRanking
	ScreenBracket
	ScreenHelp
)

func (s ScreenType) String() string {
	switch s {
	case ScreenSetup:
		return "setup"
	case ScreenMatch:
		return "match"
	case ScreenRanking:
		return "ranking"
	case ScreenBracket:
		return "bracket"
	case ScreenHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Screen is the contract every TUI screen implements.
type Screen interface {
	GetPrimitive() tview.Primitive
	OnEnter(app *App) error
	OnExit(app *App) error
	GetTitle() string
	GetHelpText() []string
}

// SessionFactory constructs a TournamentSession for the committed pool of
// catalog ids, in selection order. Supplied by cmd/rankctl, which owns the
// store/rater/clock/notifier wiring.
type SessionFactory func(ids []string) (*session.TournamentSession, error)

// appState holds the App's mutable fields behind one lock.
type appState struct {
	mu             sync.RWMutex
	catalogItems   []catalog.Item
	selection      *selection.SelectionManager
	ts             *session.TournamentSession
	currentScreen  ScreenType
	previousScreen ScreenType
	isRunning      bool
}

// App is the root TUI application: tview.Pages navigation over a fixed
// screen set, a header/footer chrome, and global key bindings.
type App struct {
	tviewApp *tview.Application
	pages    *tview.Pages
	header   *tview.TextView
	footer   *tview.TextView
	state    *appState
	screens  map[ScreenType]Screen
	factory  SessionFactory
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.RWMutex
}

// KeyBinding is one global keyboard shortcut.
type KeyBinding struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func(app *App) error
}

var globalKeyBindings = []KeyBinding{
	{Key: tcell.KeyF1, Description: "Show help", Handler: (*App).ShowHelp},
	{Key: tcell.KeyEsc, Description: "Go back/Exit", Handler: (*App).GoBack},
	{Key: tcell.KeyCtrlR, Description: "Show rankings", Handler: (*App).ShowRanking},
	{Key: tcell.KeyCtrlB, Description: "Show bracket", Handler: (*App).ShowBracket},
}

// NewApp constructs the TUI application over items (the catalog view to
// pick a pool from), sel (the pool's persisted selection), and factory
// (which turns a committed pool into a TournamentSession).
func NewApp(items []catalog.Item, sel *selection.SelectionManager, factory SessionFactory) (*App, error) {
	if sel == nil {
		return nil, fmt.Errorf("tui: selection manager cannot be nil")
	}
	if factory == nil {
		return nil, fmt.Errorf("tui: session factory cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		tviewApp: tview.NewApplication(),
		pages:    tview.NewPages(),
		header:   tview.NewTextView(),
		footer:   tview.NewTextView(),
		state: &appState{
			catalogItems:  items,
			selection:     sel,
			currentScreen: ScreenSetup,
		},
		screens: make(map[ScreenType]Screen),
		factory: factory,
		ctx:     ctx,
		cancel:  cancel,
	}

	if err := app.setupUI(); err != nil {
		cancel()
		return nil, fmt.Errorf("tui: failed to setup UI: %w", err)
	}
	return app, nil
}

func (a *App) setupUI() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.header.SetBorder(true).
		SetTitle("rankforge").
		SetTitleAlign(tview.AlignCenter).
		SetBackgroundColor(tcell.ColorDarkBlue)
	a.header.SetTextColor(tcell.ColorWhite)

	a.footer.SetBorder(true).
		SetTitle("Keyboard Shortcuts").
		SetTitleAlign(tview.AlignCenter).
		SetBackgroundColor(tcell.ColorDarkGreen)
	a.footer.SetTextColor(tcell.ColorWhite)
	a.updateFooter()

	layout := tview.NewFlex().SetDirection(tview.FlexRow)
	layout.AddItem(a.header, 3, 0, false)
	layout.AddItem(a.pages, 0, 1, true)
	layout.AddItem(a.footer, 3, 0, false)
	layout.SetInputCapture(a.handleGlobalInput)

	a.tviewApp.SetRoot(layout, true)
	a.tviewApp.EnableMouse(true)
	a.tviewApp.SetBeforeDrawFunc(func(tcell.Screen) bool {
		a.updateHeader()
		return false
	})
	return nil
}

// RegisterScreen adds screen under screenType to the page set.
func (a *App) RegisterScreen(screenType ScreenType, screen Screen) error {
	if screen == nil {
		return fmt.Errorf("tui: screen cannot be nil")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.screens[screenType] = screen
	a.pages.AddPage(screenType.String(), screen.GetPrimitive(), true, false)
	return nil
}

// NavigateTo exits the current screen and enters screenType.
func (a *App) NavigateTo(screenType ScreenType) error {
	a.state.mu.Lock()
	screen, exists := a.screens[screenType]
	if !exists {
		a.state.mu.Unlock()
		return fmt.Errorf("tui: screen %s not registered", screenType)
	}
	current, hasCurrent := a.screens[a.state.currentScreen]
	previous := a.state.currentScreen
	a.state.mu.Unlock()

	if hasCurrent {
		if err := current.OnExit(a); err != nil {
			return fmt.Errorf("tui: failed to exit screen %s: %w", previous, err)
		}
	}

	a.state.mu.Lock()
	a.state.previousScreen = a.state.currentScreen
	a.state.currentScreen = screenType
	a.state.mu.Unlock()

	if err := screen.OnEnter(a); err != nil {
		a.state.mu.Lock()
		a.state.currentScreen = a.state.previousScreen
		a.state.mu.Unlock()
		return fmt.Errorf("tui: failed to enter screen %s: %w", screenType, err)
	}

	a.pages.SwitchToPage(screenType.String())
	return nil
}

// GoBack returns to the previous screen, or exits if there is none.
func (a *App) GoBack() error {
	a.state.mu.RLock()
	current := a.state.currentScreen
	previous := a.state.previousScreen
	a.state.mu.RUnlock()

	if current == ScreenSetup || current == previous {
		return a.Exit()
	}
	return a.NavigateTo(previous)
}

// ShowHelp navigates to the help screen.
func (a *App) ShowHelp() error { return a.NavigateTo(ScreenHelp) }

// ShowRanking navigates to the ranking screen.
func (a *App) ShowRanking() error { return a.NavigateTo(ScreenRanking) }

// ShowBracket navigates to the bracket screen.
func (a *App) ShowBracket() error { return a.NavigateTo(ScreenBracket) }

// Exit stops the application.
func (a *App) Exit() error {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()
	a.state.isRunning = false
	a.cancel()
	a.tviewApp.Stop()
	return nil
}

// Run starts the application on the setup screen.
func (a *App) Run() error {
	a.state.mu.Lock()
	a.state.isRunning = true
	a.state.mu.Unlock()

	if err := a.NavigateTo(ScreenSetup); err != nil {
		return fmt.Errorf("tui: failed to navigate to setup screen: %w", err)
	}
	return a.tviewApp.Run()
}

// CommitPool builds a TournamentSession for ids via the app's factory,
// stores it, and navigates to the match screen. Called by SetupScreen once
// the user confirms a pool.
func (a *App) CommitPool(ids []string) error {
	ts, err := a.factory(ids)
	if err != nil {
		return err
	}
	a.state.mu.Lock()
	a.state.ts = ts
	a.state.mu.Unlock()
	return a.NavigateTo(ScreenMatch)
}

// Session returns the active TournamentSession, or nil before a pool has
// been committed.
func (a *App) Session() *session.TournamentSession {
	a.state.mu.RLock()
	defer a.state.mu.RUnlock()
	return a.state.ts
}

// CatalogItems returns the catalog items the setup screen picks from.
func (a *App) CatalogItems() []catalog.Item {
	a.state.mu.RLock()
	defer a.state.mu.RUnlock()
	return a.state.catalogItems
}

// Selection returns the pool's SelectionManager.
func (a *App) Selection() *selection.SelectionManager {
	a.state.mu.RLock()
	defer a.state.mu.RUnlock()
	return a.state.selection
}

func (a *App) handleGlobalInput(event *tcell.EventKey) *tcell.EventKey {
	for _, binding := range globalKeyBindings {
		if (binding.Key != tcell.KeyRune && event.Key() == binding.Key) ||
			(binding.Key == tcell.KeyRune && event.Rune() == binding.Rune) {
			go func(handler func(*App) error) {
				_ = handler(a)
			}(binding.Handler)
			return nil
		}
	}
	return event
}

func (a *App) updateHeader() {
	a.state.mu.RLock()
	currentScreen := a.state.currentScreen
	ts := a.state.ts
	a.state.mu.RUnlock()

	screen, exists := a.screens[currentScreen]
	if !exists {
		return
	}

	info := ""
	if ts != nil {
		info = fmt.Sprintf(" | Session: %s", ts.State())
	}
	a.header.SetText(fmt.Sprintf("Screen: %s%s", screen.GetTitle(), info))
}

func (a *App) updateFooter() {
	text := ""
	for i, binding := range globalKeyBindings {
		if i > 0 {
			text += " | "
		}
		keyText := string(binding.Rune)
		if binding.Key != tcell.KeyRune {
			keyText = tcell.KeyNames[binding.Key]
		}
		text += fmt.Sprintf("%s: %s", keyText, binding.Description)
	}
	a.footer.SetText(text)
}

// IsRunning reports whether the application's event loop is active.
func (a *App) IsRunning() bool {
	a.state.mu.RLock()
	defer a.state.mu.RUnlock()
	return a.state.isRunning
}

// GetCurrentScreen returns the screen currently displayed.
func (a *App) GetCurrentScreen() ScreenType {
	a.state.mu.RLock()
	defer a.state.mu.RUnlock()
	return a.state.currentScreen
}

// GetTViewApp exposes the underlying tview application for screens that
// need to queue redraws from outside the main loop.
func (a *App) GetTViewApp() *tview.Application {
	return a.tviewApp
}
