// Package session implements TournamentSession: the central state machine
// that drives one tournament run, owning a MatchScheduler (which owns a
// PreferenceSorter) and an elo.Rater, and checkpointing to a SessionStore.
package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rankforge/rankforge/pkg/elo"
	"github.com/rankforge/rankforge/pkg/ports"
	"github.com/rankforge/rankforge/pkg/scheduler"
	"github.com/rankforge/rankforge/pkg/sorter"
	"github.com/rankforge/rankforge/pkg/store"
)

// State is one of TournamentSession's lifecycle states.
type State int

const (
	Uninitialized State = iota
	Active
	Complete
	// Corrupt is a fatal state entered on an internal invariant violation
	// (a NaN rating surviving the Rater's clamp, or a sorter lookup that
	// should be impossible given the constructed name set). Every further
	// input is rejected once entered.
	Corrupt
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Complete:
		return "complete"
	case Corrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// voteDebounce is the non-reentrant guard window between accepted votes,
// per spec.md §4.5.
const voteDebounce = 300 * time.Millisecond

// ErrUnknownName identifies a name id that the session was never
// constructed with. No TournamentSession method returns it.
var ErrUnknownName = errors.New("session: unknown name id")

// ResultRow is one row of current_results(), the completion payload.
type ResultRow struct {
	ID     string
	Name   string
	Rating float64
	Wins   uint32
	Losses uint32
}

// MatchPair names the two sides of the current or most recent match.
type MatchPair struct {
	LeftID  string
	RightID string
}

// VoteEvent is the optional per-vote observer payload from spec.md §6.
type VoteEvent struct {
	Match           MatchPair
	Verdict         elo.Outcome
	RatingsSnapshot map[string]elo.Rating
	TimestampMs     int64
}

// Config bundles TournamentSession's construction inputs.
type Config struct {
	User         string
	Names        []string // ordered, already filtered to visible+selected
	DisplayNames map[string]string
	PriorRatings map[string]elo.Rating
	Store        *store.SessionStore
	Rater        elo.Rater
	Clock        ports.Clock
	Notifier     ports.Notifier
	Remote       ports.RemoteTournamentStore // optional, may be nil
	OnComplete   func([]ResultRow)
	OnVote       func(VoteEvent)
	OnUndo       func(store.MatchRecord)
}

// TournamentSession is the central state machine described in spec.md
// §4.5. TournamentSession owns a MatchScheduler which owns a
// PreferenceSorter; EloRater is used as a pure leaf with no back-pointer
// to the session.
type TournamentSession struct {
	mu sync.Mutex

	user        string
	names       []string
	displayName map[string]string
	namesKey    string
	store       *store.SessionStore
	rater       elo.Rater
	scheduler   *scheduler.MatchScheduler
	clock       ports.Clock
	notifier    ports.Notifier
	remote      ports.RemoteTournamentStore
	onComplete  func([]ResultRow)
	onVote      func(VoteEvent)
	onUndo      func(store.MatchRecord)
	completed   bool
	restored    bool

	state            State
	ratings          map[string]elo.Rating
	comparisonCounts map[string]int
	history          []store.MatchRecord
	currentMatch     uint32
	totalMatches     uint32
	roundNumber      uint32
	currentPair      sorter.Pair
	hasCurrentPair   bool
	lastVoteMs       int64
	isTransitioning  bool
}

// namesKey is the sorted concatenation of input ids, per spec.md §3/§6.
func namesKey(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return strings.Join(sorted, "-")
}

// roundNumberFor implements I4: round_number = floor((match_number-1) /
// max(1,n)) + 1.
func roundNumberFor(matchNumber uint32, n int) uint32 {
	divisor := n
	if divisor < 1 {
		divisor = 1
	}
	return uint32((int(matchNumber)-1)/divisor) + 1
}

// New constructs a TournamentSession. If cfg.Store holds a snapshot whose
// names_key matches this name set and whose user_name matches cfg.User, it
// is restored by replaying match_history; otherwise a fresh session
// begins. If the resulting scheduler has no pair to propose, the session
// transitions directly to Complete and invokes OnComplete.
func New(cfg Config) (*TournamentSession, error) {
	if len(cfg.Names) < 2 {
		return nil, fmt.Errorf("session: at least two names are required")
	}

	ts := &TournamentSession{
		user:        cfg.User,
		names:       append([]string(nil), cfg.Names...),
		displayName: cfg.DisplayNames,
		namesKey:    namesKey(cfg.Names),
		store:       cfg.Store,
		rater:       cfg.Rater,
		clock:       cfg.Clock,
		notifier:    cfg.Notifier,
		remote:      cfg.Remote,
		onComplete:  cfg.OnComplete,
		onVote:      cfg.OnVote,
		onUndo:      cfg.OnUndo,
	}
	if ts.displayName == nil {
		ts.displayName = map[string]string{}
	}

	s, err := sorter.New(ts.names)
	if err != nil {
		return nil, err
	}
	ts.scheduler = scheduler.New(s)
	ts.totalMatches = uint32(s.Total())
	ts.comparisonCounts = make(map[string]int, len(ts.names))

	restored := false
	if ts.store != nil {
		if snap, ok, _ := ts.store.LoadSession(ts.user, ts.namesKey); ok && snap.NamesKey == ts.namesKey && snap.UserName == ts.user {
			if err := ts.restore(snap); err != nil {
				return nil, err
			}
			restored = true
		}
	}

	if !restored {
		ts.ratings = defaultRatings(ts.names, cfg.PriorRatings)
		ts.history = nil
		ts.currentMatch = 1
		ts.roundNumber = 1
	}
	ts.restored = restored

	ts.state = Active
	ts.requestNextPair()
	return ts, nil
}

// Restored reports whether this session's state came from a compatible
// stored snapshot rather than starting fresh.
func (ts *TournamentSession) Restored() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.restored
}

// defaultRatings seeds a ratings map for names, using prior where present
// and elo.Default() otherwise, per spec.md §3 "Lifecycles".
func defaultRatings(names []string, prior map[string]elo.Rating) map[string]elo.Rating {
	out := make(map[string]elo.Rating, len(names))
	for _, id := range names {
		if prior != nil {
			if r, ok := prior[id]; ok {
				out[id] = r
				continue
			}
		}
		out[id] = elo.Default()
	}
	return out
}

// restore replays snap.MatchHistory through EloRater and PreferenceSorter
// to rebuild in-memory state, per spec.md §4.4/§4.5.
func (ts *TournamentSession) restore(snap store.SessionSnapshot) error {
	ts.ratings = defaultRatings(ts.names, nil)
	ts.comparisonCounts = make(map[string]int, len(ts.names))
	ts.history = make([]store.MatchRecord, 0, len(snap.MatchHistory))

	for _, rec := range snap.MatchHistory {
		if err := ts.applyRecordForReplay(rec); err != nil {
			ts.state = Corrupt
			return fmt.Errorf("session: restore replay failed: %w", err)
		}
		ts.history = append(ts.history, rec)
	}

	ts.currentMatch = uint32(len(ts.history)) + 1
	ts.roundNumber = roundNumberFor(ts.currentMatch, len(ts.names))
	return nil
}

// applyRecordForReplay applies one MatchRecord's rating update and sorter
// preference(s), without appending to history (the caller owns that).
func (ts *TournamentSession) applyRecordForReplay(rec store.MatchRecord) error {
	left, right := ts.ratings[rec.Left], ts.ratings[rec.Right]
	newLeft, newRight := ts.rater.Update(left, right, rec.Verdict)
	ts.ratings[rec.Left] = newLeft
	ts.ratings[rec.Right] = newRight
	ts.comparisonCounts[rec.Left]++
	ts.comparisonCounts[rec.Right]++

	return ts.recordPreference(rec.Left, rec.Right, rec.Verdict)
}

// recordPreference records one verdict's preference entries in the
// scheduler's sorter, per spec.md §4.5 step 3.
func (ts *TournamentSession) recordPreference(leftID, rightID string, verdict elo.Outcome) error {
	s := ts.scheduler.Sorter()
	switch verdict {
	case elo.Left:
		return s.AddPreference(leftID, rightID, 1)
	case elo.Right:
		return s.AddPreference(rightID, leftID, 1)
	default: // Both, Neither: symmetric zero-weight entries
		if err := s.AddPreference(leftID, rightID, 0); err != nil {
			return err
		}
		return s.AddPreference(rightID, leftID, 0)
	}
}

// requestNextPair asks the scheduler for the next pair and either sets it
// as current or transitions to Complete, per spec.md §4.5 construction and
// step 6 of vote().
func (ts *TournamentSession) requestNextPair() {
	ratingValues := make(map[string]float64, len(ts.ratings))
	for id, r := range ts.ratings {
		ratingValues[id] = r.Value
	}

	p, ok := ts.scheduler.NextMatch(ratingValues, ts.comparisonCounts)
	if !ok || ts.currentMatch > ts.totalMatches {
		ts.hasCurrentPair = false
		ts.transitionToComplete()
		return
	}
	ts.currentPair = p
	ts.hasCurrentPair = true
	ts.roundNumber = roundNumberFor(ts.currentMatch, len(ts.names))
}

func (ts *TournamentSession) transitionToComplete() {
	ts.state = Complete
	if ts.store != nil {
		ts.checkpoint()
	}
	if ts.completed {
		return
	}
	ts.completed = true
	if ts.onComplete != nil {
		ts.onComplete(ts.currentResultsLocked())
	}
	if ts.remote != nil {
		ts.remote.SaveRatings(ts.user, ports.RatingsToExport(ts.ratings, ts.displayName))
	}
}

// checkpoint schedules a debounced write of the current state to the
// SessionStore.
func (ts *TournamentSession) checkpoint() {
	snap := store.SessionSnapshot{
		MatchHistory: ts.history,
		CurrentRound: ts.roundNumber,
		CurrentMatch: ts.currentMatch,
		TotalMatches: ts.totalMatches,
		UserName:     ts.user,
		LastUpdated:  ts.clock.NowMs(),
		NamesKey:     ts.namesKey,
	}
	if err := ts.store.SaveSession(ts.user, ts.namesKey, snap); err != nil && ts.notifier != nil {
		ts.notifier.Show(fmt.Sprintf("checkpoint failed: %v", err), ports.Warning)
	}
}

// CurrentMatch returns the pair the session is currently waiting on a
// verdict for, or false if the session has no active match (Uninitialized
// or Complete).
func (ts *TournamentSession) CurrentMatch() (MatchPair, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if !ts.hasCurrentPair {
		return MatchPair{}, false
	}
	return MatchPair{LeftID: ts.currentPair.A, RightID: ts.currentPair.B}, true
}

// State returns the session's current lifecycle state.
func (ts *TournamentSession) State() State {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.state
}

// History returns a copy of the match history recorded so far, suitable
// for bracket.Project.
func (ts *TournamentSession) History() []store.MatchRecord {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := make([]store.MatchRecord, len(ts.history))
	copy(out, ts.history)
	return out
}

// NameCount returns the size of the pool this session was constructed
// with, the n used by bracket.Project's round-number projection.
func (ts *TournamentSession) NameCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.names)
}

// DisplayNames returns the id-to-name map this session was constructed
// with.
func (ts *TournamentSession) DisplayNames() map[string]string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.displayName
}

// Progress is the observable from spec.md §6: current_match, total_matches,
// round_number, and percent complete.
type Progress struct {
	CurrentMatch uint32
	TotalMatches uint32
	RoundNumber  uint32
	Percent      float64
}

// Progress returns the session's current Progress observable.
func (ts *TournamentSession) Progress() Progress {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	percent := 0.0
	if ts.totalMatches > 0 {
		completed := ts.currentMatch - 1
		if ts.state == Complete {
			completed = ts.totalMatches
		}
		percent = float64(completed) / float64(ts.totalMatches) * 100
	}
	return Progress{
		CurrentMatch: ts.currentMatch,
		TotalMatches: ts.totalMatches,
		RoundNumber:  ts.roundNumber,
		Percent:      percent,
	}
}

// Vote records a verdict for the current match. Per spec.md §4.5, votes on
// a non-Active session, reentrant votes, and votes within 300ms of the
// previous acceptance are all silently dropped rather than erroring.
func (ts *TournamentSession) Vote(verdict elo.Outcome) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.state != Active || !ts.hasCurrentPair {
		return
	}
	if ts.isTransitioning {
		return
	}
	now := ts.clock.NowMs()
	if ts.lastVoteMs != 0 && now-ts.lastVoteMs < int64(voteDebounce/time.Millisecond) {
		return
	}

	ts.isTransitioning = true
	defer func() { ts.isTransitioning = false }()

	leftID, rightID := ts.currentPair.A, ts.currentPair.B
	leftRating, rightRating := ts.ratings[leftID], ts.ratings[rightID]

	newLeft, newRight := ts.rater.Update(leftRating, rightRating, verdict)
	if isCorruptRating(newLeft) || isCorruptRating(newRight) {
		ts.state = Corrupt
		if ts.notifier != nil {
			ts.notifier.Show("internal rating invariant violated", ports.Error)
		}
		return
	}
	ts.ratings[leftID] = newLeft
	ts.ratings[rightID] = newRight
	ts.comparisonCounts[leftID]++
	ts.comparisonCounts[rightID]++

	if err := ts.recordPreference(leftID, rightID, verdict); err != nil {
		ts.state = Corrupt
		if ts.notifier != nil {
			ts.notifier.Show(fmt.Sprintf("internal sorter invariant violated: %v", err), ports.Error)
		}
		return
	}

	winner, loser := winnerLoser(leftID, rightID, verdict)
	rec := store.MatchRecord{
		Left:        leftID,
		Right:       rightID,
		Winner:      winner,
		Loser:       loser,
		Verdict:     verdict,
		MatchNumber: ts.currentMatch,
		RoundNumber: ts.roundNumber,
		TimestampMs: now,
	}
	ts.history = append(ts.history, rec)
	ts.lastVoteMs = now

	if ts.onVote != nil {
		ts.onVote(VoteEvent{
			Match:           MatchPair{LeftID: leftID, RightID: rightID},
			Verdict:         verdict,
			RatingsSnapshot: cloneRatings(ts.ratings),
			TimestampMs:     now,
		})
	}

	ts.currentMatch++
	ts.requestNextPair()
	if ts.state == Active && ts.store != nil {
		ts.checkpoint()
	}
}

// winnerLoser maps a verdict to the winner/loser ids per spec.md §3 I3.
func winnerLoser(leftID, rightID string, verdict elo.Outcome) (winner, loser *string) {
	switch verdict {
	case elo.Left:
		return &leftID, &rightID
	case elo.Right:
		return &rightID, &leftID
	default:
		return nil, nil
	}
}

func isCorruptRating(r elo.Rating) bool {
	return r.Value != r.Value // NaN check without importing math twice
}

func cloneRatings(in map[string]elo.Rating) map[string]elo.Rating {
	out := make(map[string]elo.Rating, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Undo reverts the most recently recorded match, per spec.md §4.5. It is a
// no-op outside the Active state or when history is empty.
func (ts *TournamentSession) Undo() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.state != Active || len(ts.history) == 0 {
		return
	}

	popped := ts.history[len(ts.history)-1]
	ts.history = ts.history[:len(ts.history)-1]

	ts.scheduler.Sorter().UndoLast()

	ts.ratings = defaultRatings(ts.names, nil)
	ts.comparisonCounts = make(map[string]int, len(ts.names))
	for _, rec := range ts.history {
		left, right := ts.ratings[rec.Left], ts.ratings[rec.Right]
		newLeft, newRight := ts.rater.Update(left, right, rec.Verdict)
		ts.ratings[rec.Left] = newLeft
		ts.ratings[rec.Right] = newRight
		ts.comparisonCounts[rec.Left]++
		ts.comparisonCounts[rec.Right]++
	}

	ts.currentPair = sorter.Pair{A: popped.Left, B: popped.Right}
	ts.hasCurrentPair = true
	ts.currentMatch = popped.MatchNumber
	ts.roundNumber = roundNumberFor(ts.currentMatch, len(ts.names))
	// UndoLast already repositioned the sorter's cursor (backward only,
	// never past a still-unresolved lower-index pair); no further cursor
	// adjustment is needed here.

	if ts.store != nil {
		ts.checkpoint()
	}

	if ts.onUndo != nil {
		ts.onUndo(popped)
	}
}

// CurrentResults implements current_results(): available in any state.
func (ts *TournamentSession) CurrentResults() []ResultRow {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.currentResultsLocked()
}

func (ts *TournamentSession) currentResultsLocked() []ResultRow {
	rows := make([]ResultRow, 0, len(ts.ratings))
	for id, r := range ts.ratings {
		rows = append(rows, ResultRow{
			ID:     id,
			Name:   ts.displayName[id],
			Rating: r.Value,
			Wins:   r.Wins,
			Losses: r.Losses,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Rating != rows[j].Rating {
			return rows[i].Rating > rows[j].Rating
		}
		return rows[i].ID < rows[j].ID
	})
	return rows
}

// Quit is equivalent to Reset: it clears the associated SessionStore entry
// and returns the session to Uninitialized.
func (ts *TournamentSession) Quit() {
	ts.Reset()
}

// Reset clears the session's SessionStore entry and transitions to
// Uninitialized. A Reset session accepts no further votes until
// reconstructed via New.
func (ts *TournamentSession) Reset() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.store != nil {
		if err := ts.store.ClearSession(ts.user, ts.namesKey); err != nil && ts.notifier != nil {
			ts.notifier.Show(fmt.Sprintf("reset clear failed: %v", err), ports.Warning)
		}
	}
	ts.state = Uninitialized
	ts.hasCurrentPair = false
	ts.history = nil
	ts.currentMatch = 1
	ts.roundNumber = 1
	ts.completed = false
}

// Close attempts one final synchronous flush of any pending debounced
// checkpoint, per spec.md §9 "Debounce cancellation". Callers should
// invoke this on shutdown.
func (ts *TournamentSession) Close() error {
	if ts.store == nil {
		return nil
	}
	return ts.store.Flush(store.SessionKeyFor(ts.user, ts.namesKey))
}
