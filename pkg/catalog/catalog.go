// Package catalog implements CatalogView: a stateless projection of the
// full name catalog into a filtered, ordered list for display.
package catalog

import "strings"

// Visibility selects the visibility subset of a catalog filter.
type Visibility int

const (
	VisibilityVisible Visibility = iota
	VisibilityHidden
	VisibilityAll
)

// SelectionFilter selects the selection-set subset of a catalog filter.
type SelectionFilter int

const (
	SelectionAll SelectionFilter = iota
	SelectionSelected
	SelectionUnselected
)

// Filter bundles CatalogView's filter config, per spec.md §4.7.
type Filter struct {
	Visibility       Visibility
	Selection        SelectionFilter
	ShowSelectedOnly bool
	Search           string
	AdminScope       bool
}

// Item is one catalog entry as presented to CatalogView's caller. Metadata
// and ConflictTags pass through from ports.NameRecord unchanged; CatalogView
// itself never interprets them beyond carrying them to the caller.
type Item struct {
	ID            string
	Name          string
	Description   string
	Pronunciation string
	IsHidden      bool
	Metadata      map[string]string
	ConflictTags  []string
}

// Apply projects catalog (in its natural, already-ordered form) through
// filter, using selected to resolve the selection filter. Ordering is
// preserved from the input catalog slice per spec.md §4.7 "the catalog's
// natural order".
func Apply(items []Item, filter Filter, selected map[string]bool) []Item {
	visibility := filter.Visibility
	if !filter.AdminScope {
		visibility = VisibilityVisible
	}

	selectionFilter := filter.Selection
	if filter.ShowSelectedOnly {
		selectionFilter = SelectionSelected
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))

	out := make([]Item, 0, len(items))
	for _, item := range items {
		if !passesVisibility(item, visibility) {
			continue
		}
		if !passesSelection(item, selectionFilter, selected) {
			continue
		}
		if search != "" && !matchesSearch(item, search) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func passesVisibility(item Item, v Visibility) bool {
	switch v {
	case VisibilityVisible:
		return !item.IsHidden
	case VisibilityHidden:
		return item.IsHidden
	default: // VisibilityAll
		return true
	}
}

func passesSelection(item Item, s SelectionFilter, selected map[string]bool) bool {
	switch s {
	case SelectionSelected:
		return selected[item.ID]
	case SelectionUnselected:
		return !selected[item.ID]
	default: // SelectionAll
		return true
	}
}

func matchesSearch(item Item, search string) bool {
	haystack := strings.ToLower(item.Name + item.Description)
	return strings.Contains(haystack, search)
}
