// Package ports declares the external interfaces the tournament engine
// depends on but does not implement itself: catalog access, remote
// mirroring, key-value persistence, time, and user notification. Concrete
// adapters live alongside this file in the same package.
package ports

import "github.com/rankforge/rankforge/pkg/elo"

// CatalogMode selects which view of the catalog CatalogSource.Fetch returns.
type CatalogMode int

const (
	// Tournament mode returns only names eligible for ranking.
	Tournament CatalogMode = iota
	// Profile mode returns the full catalog including hidden names, for
	// management screens.
	Profile
)

// NameRecord is one catalog entry as read from a CatalogSource. Metadata
// and ConflictTags are the on-disk CSV enrichment from SPEC_FULL §3's
// CatalogRecord: Metadata preserves unmapped CSV columns for round-tripping
// and ConflictTags is opaque data carried through to CatalogView; neither
// CatalogView's filters nor the scheduler read it.
type NameRecord struct {
	ID             string
	Name           string
	Description    string
	Pronunciation  string
	IsHidden       bool
	BaselineRating *float64
	Metadata       map[string]string
	ConflictTags   []string
}

// CatalogSource is the authority on name identity, visibility, and
// ownership. fetch(user, mode) -> (names, is_hidden_ids) per spec.md §6.
type CatalogSource interface {
	Fetch(user string, mode CatalogMode) (names []NameRecord, hiddenIDs []string, err error)
	ToggleVisibility(id string) error
	Delete(id string) error
}

// RatingExport is the exchange shape to RemoteTournamentStore, sorted by
// rating descending per spec.md §6.
type RatingExport struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
	Wins   uint32  `json:"wins"`
	Losses uint32  `json:"losses"`
}

// RatingsToExport converts a ratings map (keyed by name id) plus a
// display-name lookup into the sorted RatingExport slice described in
// spec.md §6. It is the engine-side half of the "ratingsToObject" round
// trip; RemoteTournamentStore implementations consume its output as-is.
func RatingsToExport(ratings map[string]elo.Rating, displayName map[string]string) []RatingExport {
	out := make([]RatingExport, 0, len(ratings))
	for id, r := range ratings {
		out = append(out, RatingExport{
			ID:     id,
			Name:   displayName[id],
			Rating: r.Value,
			Wins:   r.Wins,
			Losses: r.Losses,
		})
	}
	sortRatingExportsDescending(out)
	return out
}

func sortRatingExportsDescending(out []RatingExport) {
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Rating > out[j-1].Rating; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
}

// RemoteTournamentStore mirrors results to an optional remote system.
// Implementations must be best-effort: failures are logged by the
// implementation itself and never returned as fatal to the caller, per
// spec.md §7 RemoteUnavailable.
type RemoteTournamentStore interface {
	SaveRatings(user string, ratings []RatingExport)
	SaveSelections(user string, names []string, tournamentID string)
}

// KeyValueStore is the synchronous backing store for SessionStore and
// SelectionManager. get/set/remove per spec.md §6.
type KeyValueStore interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// Clock supplies the current time for timestamps and debounce windows.
type Clock interface {
	NowMs() int64
}

// Severity classifies a Notifier message.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

// Notifier delivers non-blocking, user-visible messages.
type Notifier interface {
	Show(message string, severity Severity)
}
