// Package store implements SessionStore and the persisted snapshot types:
// keyed, debounced access to SessionSnapshot and SelectionSnapshot values
// over a ports.KeyValueStore.
package store

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rankforge/rankforge/pkg/elo"
	"github.com/rankforge/rankforge/pkg/ports"
)

// MatchRecord is one resolved match in a tournament's history, per
// spec.md §3. It is immutable once appended; undo truncates the tail, it
// never mutates a record in place.
type MatchRecord struct {
	Left        string      `json:"left"`
	Right       string      `json:"right"`
	Winner      *string     `json:"winner"`
	Loser       *string     `json:"loser"`
	Verdict     elo.Outcome `json:"verdict"`
	MatchNumber uint32      `json:"match_number"`
	RoundNumber uint32      `json:"round_number"`
	TimestampMs int64       `json:"timestamp"`
}

// SessionSnapshot is the persisted state of one TournamentSession, keyed by
// names_key per spec.md §3/§6.
type SessionSnapshot struct {
	MatchHistory []MatchRecord `json:"match_history"`
	CurrentRound uint32        `json:"current_round"`
	CurrentMatch uint32        `json:"current_match"`
	TotalMatches uint32        `json:"total_matches"`
	UserName     string        `json:"user_name"`
	LastUpdated  int64         `json:"last_updated"`
	NamesKey     string        `json:"names_key"`
}

// SelectionSnapshot is the persisted ordered list of selected ids for one
// user, independent of any session's lifetime.
type SelectionSnapshot struct {
	SelectedIDs []string `json:"selected_ids"`
}

// sessionKey builds the SessionSnapshot key per spec.md §6:
// "tournament-{user}-{sorted-name-ids joined by '-'}".
func sessionKey(user, namesKey string) string {
	return "tournament-" + user + "-" + namesKey
}

// selectionKey builds the SelectionSnapshot key per spec.md §6.
func selectionKey(user string) string {
	return "tournament_selection_" + user
}

// debounceMs is the SessionStore write-coalescing window, per spec.md §4.4.
const debounceMs = 1000 * time.Millisecond

// SessionStore is the keyed storage abstraction for SessionSnapshot and
// SelectionSnapshot values. Reads are synchronous; writes are debounced.
type SessionStore struct {
	kv ports.KeyValueStore

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string][]byte
}

// New constructs a SessionStore backed by kv.
func New(kv ports.KeyValueStore) *SessionStore {
	return &SessionStore{
		kv:      kv,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string][]byte),
	}
}

// LoadSession returns the last successfully written snapshot for
// (user, namesKey), or false if none exists. Malformed JSON (including a
// top-level array) is treated as absent per spec.md §6 backward
// compatibility rule.
func (s *SessionStore) LoadSession(user, namesKey string) (SessionSnapshot, bool, error) {
	raw, ok, err := s.kv.Get(sessionKey(user, namesKey))
	if err != nil || !ok {
		return SessionSnapshot{}, false, err
	}

	var snap SessionSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return SessionSnapshot{}, false, nil
	}
	return snap, true, nil
}

// SaveSession schedules a debounced write of snap under (user, namesKey).
// Rapid successive calls for the same key coalesce into a single write
// 1000 ms after the last call.
func (s *SessionStore) SaveSession(user, namesKey string, snap SessionSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	key := sessionKey(user, namesKey)
	s.scheduleWrite(key, raw)
	return nil
}

// ClearSession removes any stored snapshot and cancels a pending debounced
// write for (user, namesKey).
func (s *SessionStore) ClearSession(user, namesKey string) error {
	key := sessionKey(user, namesKey)
	s.cancelPending(key)
	return s.kv.Remove(key)
}

// LoadSelection returns the selection snapshot for user, or an empty
// selection if absent, per spec.md §6 "Absent key ≡ empty selection".
func (s *SessionStore) LoadSelection(user string) (SelectionSnapshot, error) {
	raw, ok, err := s.kv.Get(selectionKey(user))
	if err != nil {
		return SelectionSnapshot{}, err
	}
	if !ok {
		return SelectionSnapshot{}, nil
	}
	var snap SelectionSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return SelectionSnapshot{}, nil
	}
	return snap, nil
}

// SaveSelection schedules a debounced write of the selection for user.
func (s *SessionStore) SaveSelection(user string, snap SelectionSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.scheduleWrite(selectionKey(user), raw)
	return nil
}

// ClearSelection removes the selection snapshot for user and cancels any
// pending debounced write.
func (s *SessionStore) ClearSelection(user string) error {
	key := selectionKey(user)
	s.cancelPending(key)
	return s.kv.Remove(key)
}

// scheduleWrite coalesces writes to key: a call within the debounce window
// of a previous call replaces the pending payload and restarts the timer.
func (s *SessionStore) scheduleWrite(key string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[key] = raw

	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.timers[key] = time.AfterFunc(debounceMs, func() { s.flush(key) })
}

func (s *SessionStore) flush(key string) {
	s.mu.Lock()
	raw, ok := s.pending[key]
	delete(s.pending, key)
	delete(s.timers, key)
	s.mu.Unlock()

	if !ok {
		return
	}
	_ = s.kv.Set(key, raw)
}

// cancelPending stops any in-flight debounce timer for key without
// flushing it.
func (s *SessionStore) cancelPending(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
	delete(s.pending, key)
}

// Flush forces an immediate synchronous write of any pending debounced
// payload for key, canceling its timer. Callers (TournamentSession,
// SelectionManager) invoke this on destruction per spec.md §9 "Debounce
// cancellation": both loops must attempt one final synchronous flush.
func (s *SessionStore) Flush(key string) error {
	s.mu.Lock()
	t, hasTimer := s.timers[key]
	raw, hasPending := s.pending[key]
	delete(s.pending, key)
	delete(s.timers, key)
	s.mu.Unlock()

	if hasTimer {
		t.Stop()
	}
	if !hasPending {
		return nil
	}
	return s.kv.Set(key, raw)
}

// SessionKeyFor exposes the derived key for (user, namesKey), so callers can
// pass it to Flush.
func SessionKeyFor(user, namesKey string) string { return sessionKey(user, namesKey) }

// SelectionKeyFor exposes the derived key for user, so callers can pass it
// to Flush.
func SelectionKeyFor(user string) string { return selectionKey(user) }
