// Package main is rankctl, the command-line entrypoint for rankforge: it
// loads a catalog, lets the user commit a pool, runs the tournament to
// completion, and prints (or exports) the resulting ranking.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	flags "github.com/jessevdk/go-flags"

	"github.com/rankforge/rankforge/pkg/catalog"
	"github.com/rankforge/rankforge/pkg/config"
	"github.com/rankforge/rankforge/pkg/elo"
	"github.com/rankforge/rankforge/pkg/journal"
	"github.com/rankforge/rankforge/pkg/ports"
	"github.com/rankforge/rankforge/pkg/selection"
	"github.com/rankforge/rankforge/pkg/session"
	"github.com/rankforge/rankforge/pkg/store"
	"github.com/rankforge/rankforge/pkg/tui"
	"github.com/rankforge/rankforge/pkg/tui/screens"
)

// Version information, set by the build process.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// ErrorCode is a CLI process exit code.
type ErrorCode int

const (
	ExitSuccess ErrorCode = iota
	ExitFileError
	ExitConfigError
	ExitSessionError
	ExitExportError
	ExitValidationError
	ExitUsageError
)

// CLIError is a CLI-layer error with an exit code, per SPEC_FULL §4.12.
// It does not change engine-level error semantics from spec.md §7 — it is
// only the mapping of CLI failures into process exit codes.
type CLIError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
}

func (e *CLIError) Error() string { return e.Message }

func formatErrorJSON(err *CLIError) string {
	obj := map[string]any{
		"error": map[string]any{
			"code":    err.Code,
			"message": err.Message,
		},
	}
	if err.Suggestions != nil {
		obj["error"].(map[string]any)["suggestions"] = err.Suggestions
	}
	raw, _ := json.MarshalIndent(obj, "", "  ")
	return string(raw)
}

func main() {
	if err := run(); err != nil {
		if cliErr, ok := err.(*CLIError); ok {
			fmt.Fprintln(os.Stderr, formatErrorJSON(cliErr))
			os.Exit(int(cliErr.Code))
		}
		log.Fatal(err)
	}
}

func run() error {
	cfg, opts, err := config.ParseCLI(os.Args[1:])
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil
		}
		return &CLIError{Code: ExitUsageError, Message: fmt.Sprintf("invalid arguments: %v", err)}
	}
	if opts.Version {
		fmt.Printf("rankctl %s (built %s, commit %s)\n", Version, BuildDate, GitCommit)
		return nil
	}
	if opts.Help {
		return nil
	}

	return executeRankctl(cfg, opts)
}

func executeRankctl(cfg *config.EngineConfig, opts *config.CLIOptions) error {
	if _, err := os.Stat(opts.Catalog); os.IsNotExist(err) {
		return &CLIError{
			Code:    ExitFileError,
			Message: fmt.Sprintf("catalog file not found: %s", opts.Catalog),
			Suggestions: []string{
				"Check the --catalog path",
				"Use an absolute path if needed",
			},
		}
	}

	catalogSource := ports.NewCSVCatalogSource(opts.Catalog, ports.DefaultCSVColumns())
	records, _, err := catalogSource.Fetch(opts.User, ports.Tournament)
	if err != nil {
		return &CLIError{Code: ExitFileError, Message: fmt.Sprintf("failed to load catalog: %v", err)}
	}
	if len(records) < 2 {
		return &CLIError{
			Code:    ExitValidationError,
			Message: "catalog must contain at least two visible names",
		}
	}

	items := make([]catalog.Item, 0, len(records))
	displayName := make(map[string]string, len(records))
	priorRatings := make(map[string]elo.Rating, len(records))
	visibleIDs := make([]string, 0, len(records))
	for _, rec := range records {
		items = append(items, catalog.Item{
			ID:            rec.ID,
			Name:          rec.Name,
			Description:   rec.Description,
			Pronunciation: rec.Pronunciation,
			IsHidden:      rec.IsHidden,
			Metadata:      rec.Metadata,
			ConflictTags:  rec.ConflictTags,
		})
		displayName[rec.ID] = rec.Name
		visibleIDs = append(visibleIDs, rec.ID)
		if rec.BaselineRating != nil {
			priorRatings[rec.ID] = elo.Rating{Value: *rec.BaselineRating}
		}
	}

	kv, err := openKeyValueStore(opts.StorageBackend, cfg.StorageDir)
	if err != nil {
		return &CLIError{Code: ExitSessionError, Message: fmt.Sprintf("failed to open storage backend: %v", err)}
	}
	sessionStore := store.New(kv)

	selMgr, err := selection.New(opts.User, sessionStore, visibleIDs)
	if err != nil {
		return &CLIError{Code: ExitSessionError, Message: fmt.Sprintf("failed to load prior selection: %v", err)}
	}

	notifier := ports.NewLogNotifier(nil)
	clock := ports.SystemClock{}

	var remote ports.RemoteTournamentStore
	if opts.RemoteDSN != "" && !opts.NoRemote {
		pg, err := ports.NewPostgresRemoteStore(context.Background(), opts.RemoteDSN, nil)
		if err != nil {
			notifier.Show(fmt.Sprintf("remote store unavailable: %v", err), ports.Warning)
		} else {
			defer pg.Close()
			remote = pg
		}
	}

	auditDir := filepath.Join(cfg.StorageDir, "audit")
	rater := elo.NewRater(cfg.KFactor)

	factory := func(ids []string) (*session.TournamentSession, error) {
		key := opts.User + "-" + strings.Join(ids, "-")
		trail, auditErr := journal.NewAuditTrail(key, auditDir)
		if auditErr != nil {
			notifier.Show(fmt.Sprintf("audit trail unavailable: %v", auditErr), ports.Warning)
		} else {
			_ = trail.Record(journal.EventSelectionCommitted, map[string]any{"names": ids})
		}

		ts, err := session.New(session.Config{
			User:         opts.User,
			Names:        ids,
			DisplayNames: displayName,
			PriorRatings: priorRatings,
			Store:        sessionStore,
			Rater:        rater,
			Clock:        clock,
			Notifier:     notifier,
			Remote:       remote,
			OnComplete: func(results []session.ResultRow) {
				if trail != nil {
					_ = trail.Record(journal.EventCompleted, nil)
				}
				printResults(results)
				if opts.Export != "" {
					if err := exportResults(opts.Export, results); err != nil {
						notifier.Show(fmt.Sprintf("export failed: %v", err), ports.Error)
					}
				}
			},
			OnVote: func(ev session.VoteEvent) {
				if trail == nil {
					return
				}
				_ = trail.Record(journal.EventVoteAccepted, map[string]any{
					"left":    ev.Match.LeftID,
					"right":   ev.Match.RightID,
					"verdict": ev.Verdict.String(),
				})
			},
			OnUndo: func(rec store.MatchRecord) {
				if trail == nil {
					return
				}
				_ = trail.Record(journal.EventUndo, map[string]any{
					"left":  rec.Left,
					"right": rec.Right,
				})
			},
		})
		if err != nil {
			return nil, err
		}
		if trail != nil {
			if ts.Restored() {
				_ = trail.Record(journal.EventSessionRestored, map[string]any{"names": ids})
			} else {
				_ = trail.Record(journal.EventSessionCreated, map[string]any{"names": ids})
			}
		}
		return ts, nil
	}

	if opts.NoTUI {
		return runLineMode(items, selMgr, factory)
	}
	return runTUI(items, selMgr, factory)
}

// openKeyValueStore builds the KeyValueStore adapter named by backend.
// Both FileKeyValueStore and SQLiteKeyValueStore satisfy the same
// interface, so sessionStore and every caller above are agnostic to which
// one is wired in here.
func openKeyValueStore(backend, storageDir string) (ports.KeyValueStore, error) {
	switch backend {
	case "sqlite":
		if err := os.MkdirAll(storageDir, 0o755); err != nil {
			return nil, err
		}
		return ports.NewSQLiteKeyValueStore(filepath.Join(storageDir, "rankforge.db"))
	default:
		return ports.NewFileKeyValueStore(storageDir)
	}
}

func runTUI(items []catalog.Item, selMgr *selection.SelectionManager, factory tui.SessionFactory) error {
	app, err := tui.NewApp(items, selMgr, factory)
	if err != nil {
		return &CLIError{Code: ExitSessionError, Message: fmt.Sprintf("failed to create TUI: %v", err)}
	}
	if err := app.RegisterScreen(tui.ScreenSetup, screens.NewSetupScreen()); err != nil {
		return err
	}
	if err := app.RegisterScreen(tui.ScreenMatch, screens.NewMatchScreen()); err != nil {
		return err
	}
	if err := app.RegisterScreen(tui.ScreenRanking, screens.NewRankingScreen()); err != nil {
		return err
	}
	if err := app.RegisterScreen(tui.ScreenBracket, screens.NewBracketScreen()); err != nil {
		return err
	}
	if err := app.RegisterScreen(tui.ScreenHelp, tui.NewHelpScreen()); err != nil {
		return err
	}

	defer func() {
		if ts := app.Session(); ts != nil {
			_ = ts.Close()
		}
		_ = selMgr.Close()
	}()

	return app.Run()
}

// runLineMode is the non-interactive fallback from SPEC_FULL §4.12: use the
// prior selection as the pool when it holds at least two ids, otherwise
// select the full visible catalog, then drive votes from stdin lines.
func runLineMode(items []catalog.Item, selMgr *selection.SelectionManager, factory tui.SessionFactory) error {
	ids := selMgr.Snapshot()
	if len(ids) < 2 {
		all := make([]string, len(items))
		for i, item := range items {
			all[i] = item.ID
		}
		selMgr.SelectAll(all)
		ids = all
	}

	ts, err := factory(ids)
	if err != nil {
		return &CLIError{Code: ExitSessionError, Message: fmt.Sprintf("failed to start session: %v", err)}
	}
	defer ts.Close()
	defer selMgr.Close()

	display := make(map[string]string, len(items))
	for _, item := range items {
		display[item.ID] = item.Name
	}

	scanner := bufio.NewScanner(os.Stdin)
	for ts.State() != session.Complete {
		pair, ok := ts.CurrentMatch()
		if !ok {
			break
		}
		fmt.Printf("[%s] vs [%s] (l/r/b/n, u=undo, q=quit): ", display[pair.LeftID], display[pair.RightID])
		if !scanner.Scan() {
			break
		}
		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "l":
			ts.Vote(elo.Left)
		case "r":
			ts.Vote(elo.Right)
		case "b":
			ts.Vote(elo.Both)
		case "n":
			ts.Vote(elo.Neither)
		case "u":
			ts.Undo()
		case "q":
			ts.Quit()
			return nil
		}
	}
	return nil
}

func printResults(results []session.ResultRow) {
	fmt.Println("\nFinal ranking:")
	for i, row := range results {
		fmt.Printf("%2d. %-30s %7.1f  (%d-%d)\n", i+1, row.Name, row.Rating, row.Wins, row.Losses)
	}
}

func exportResults(path string, results []session.ResultRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintln(file, "rank,id,name,rating,wins,losses")
	for i, row := range results {
		fmt.Fprintf(file, "%d,%s,%s,%.4f,%d,%d\n", i+1, row.ID, row.Name, row.Rating, row.Wins, row.Losses)
	}
	return nil
}
