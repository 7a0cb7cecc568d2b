// Package selection implements SelectionManager: the ordered set of
// catalog ids a user has picked for their next tournament pool, debounced
// and content-hash-deduped persistence to a SessionStore.
package selection

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rankforge/rankforge/pkg/store"
)

// debounceWindow is SelectionManager's write-coalescing window, per
// spec.md §4.6 (distinct from SessionStore's own 1000ms default — this
// manager applies its own shorter timer, then flushes the store so the
// write is not delayed by the store's window as well).
const debounceWindow = 800 * time.Millisecond

// SelectionManager maintains an ordered set of selected ids for one user.
type SelectionManager struct {
	mu sync.Mutex

	user  string
	store *store.SessionStore

	order    []string
	selected map[string]bool

	timer           *time.Timer
	lastWrittenHash string
}

// New constructs a SelectionManager for user, backed by st. If a prior
// SelectionSnapshot exists, it is rehydrated and intersected with
// visibleIDs, dropping ids no longer present in the catalog, per
// spec.md §4.6 "Cross-session reconciliation".
func New(user string, st *store.SessionStore, visibleIDs []string) (*SelectionManager, error) {
	sm := &SelectionManager{
		user:     user,
		store:    st,
		selected: make(map[string]bool),
	}

	visible := make(map[string]bool, len(visibleIDs))
	for _, id := range visibleIDs {
		visible[id] = true
	}

	if st != nil {
		snap, err := st.LoadSelection(user)
		if err != nil {
			return nil, err
		}
		for _, id := range snap.SelectedIDs {
			if visible[id] {
				sm.order = append(sm.order, id)
				sm.selected[id] = true
			}
		}
		sm.lastWrittenHash = sm.contentHash()
	}

	return sm, nil
}

// contentHash is the sorted, comma-joined id list's sha256 hex digest,
// per spec.md §4.6 "Deduplicate writes by content-hash".
func (sm *SelectionManager) contentHash() string {
	ids := append([]string(nil), sm.order...)
	sort.Strings(ids)
	sum := sha256.Sum256([]byte(strings.Join(ids, ",")))
	return hex.EncodeToString(sum[:])
}

// Toggle flips whether id is selected.
func (sm *SelectionManager) Toggle(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.selected[id] {
		sm.removeLocked(id)
	} else {
		sm.addLocked(id)
	}
	sm.scheduleWriteLocked()
}

// ToggleByID sets id's selection state to exactly desired.
func (sm *SelectionManager) ToggleByID(id string, desired bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if desired == sm.selected[id] {
		return
	}
	if desired {
		sm.addLocked(id)
	} else {
		sm.removeLocked(id)
	}
	sm.scheduleWriteLocked()
}

// SelectAll replaces the selection with exactly candidates, in the order
// given.
func (sm *SelectionManager) SelectAll(candidates []string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.order = append([]string(nil), candidates...)
	sm.selected = make(map[string]bool, len(candidates))
	for _, id := range candidates {
		sm.selected[id] = true
	}
	sm.scheduleWriteLocked()
}

// Clear empties the selection.
func (sm *SelectionManager) Clear() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.order = nil
	sm.selected = make(map[string]bool)
	sm.scheduleWriteLocked()
}

// IsSelected reports whether id is currently selected.
func (sm *SelectionManager) IsSelected(id string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.selected[id]
}

// Count returns the number of currently selected ids.
func (sm *SelectionManager) Count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.order)
}

// Snapshot returns the selected ids in insertion/selection order.
func (sm *SelectionManager) Snapshot() []string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	out := make([]string, len(sm.order))
	copy(out, sm.order)
	return out
}

func (sm *SelectionManager) addLocked(id string) {
	sm.order = append(sm.order, id)
	sm.selected[id] = true
}

func (sm *SelectionManager) removeLocked(id string) {
	for i, existing := range sm.order {
		if existing == id {
			sm.order = append(sm.order[:i], sm.order[i+1:]...)
			break
		}
	}
	delete(sm.selected, id)
}

// scheduleWriteLocked restarts the debounce timer; must be called with
// sm.mu held.
func (sm *SelectionManager) scheduleWriteLocked() {
	if sm.store == nil {
		return
	}
	if sm.timer != nil {
		sm.timer.Stop()
	}
	sm.timer = time.AfterFunc(debounceWindow, sm.flush)
}

func (sm *SelectionManager) flush() {
	sm.mu.Lock()
	hash := sm.contentHash()
	if hash == sm.lastWrittenHash {
		sm.timer = nil
		sm.mu.Unlock()
		return
	}
	ids := append([]string(nil), sm.order...)
	sm.timer = nil
	sm.mu.Unlock()

	if err := sm.store.SaveSelection(sm.user, store.SelectionSnapshot{SelectedIDs: ids}); err != nil {
		return
	}
	if err := sm.store.Flush(store.SelectionKeyFor(sm.user)); err != nil {
		return
	}
	sm.mu.Lock()
	sm.lastWrittenHash = hash
	sm.mu.Unlock()
}

// Close cancels any pending debounce timer and attempts one final
// synchronous flush, per spec.md §9 "Debounce cancellation".
func (sm *SelectionManager) Close() error {
	sm.mu.Lock()
	if sm.timer != nil {
		sm.timer.Stop()
		sm.timer = nil
	}
	hash := sm.contentHash()
	ids := append([]string(nil), sm.order...)
	skip := hash == sm.lastWrittenHash
	sm.mu.Unlock()

	if skip || sm.store == nil {
		return nil
	}
	if err := sm.store.SaveSelection(sm.user, store.SelectionSnapshot{SelectedIDs: ids}); err != nil {
		return err
	}
	return sm.store.Flush(store.SelectionKeyFor(sm.user))
}
