package ports

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// CSVColumns configures how CSVCatalogSource maps CSV columns to
// NameRecord fields, grounded on the teacher's CSVConfig column mapping.
type CSVColumns struct {
	IDColumn            string
	NameColumn          string
	DescriptionColumn   string
	PronunciationColumn string
	HiddenColumn        string
	RatingColumn        string
	ConflictColumn      string
	HasHeader           bool
	Delimiter           string
}

// DefaultCSVColumns returns the conventional column mapping.
func DefaultCSVColumns() CSVColumns {
	return CSVColumns{
		IDColumn:            "id",
		NameColumn:          "name",
		DescriptionColumn:   "description",
		PronunciationColumn: "pronunciation",
		HiddenColumn:        "is_hidden",
		RatingColumn:        "rating",
		ConflictColumn:      "conflict_tags",
		HasHeader:           true,
		Delimiter:           ",",
	}
}

// mappedColumns returns the set of CSVColumns fields, for identifying which
// header names are "known" versus preserved as opaque Metadata.
func (c CSVColumns) mappedColumns() map[string]bool {
	return map[string]bool{
		c.IDColumn: true, c.NameColumn: true, c.DescriptionColumn: true,
		c.PronunciationColumn: true, c.HiddenColumn: true, c.RatingColumn: true,
		c.ConflictColumn: true,
	}
}

// CSVCatalogSource implements CatalogSource over a CSV file, treated as
// the source of truth, following the teacher's
// FileStorage.LoadProposalsFromCSV / ExportProposalsToCSV pair: read the
// whole file, mutate in memory, re-export atomically.
type CSVCatalogSource struct {
	mu      sync.RWMutex
	path    string
	columns CSVColumns
}

// NewCSVCatalogSource constructs a CSVCatalogSource reading/writing path
// with the given column mapping.
func NewCSVCatalogSource(path string, columns CSVColumns) *CSVCatalogSource {
	return &CSVCatalogSource{path: path, columns: columns}
}

func (c *CSVCatalogSource) delimiter() rune {
	if c.columns.Delimiter == "" {
		return ','
	}
	return rune(c.columns.Delimiter[0])
}

// readAll loads every row of the backing CSV into NameRecords, preserving
// row order.
func (c *CSVCatalogSource) readAll() ([]NameRecord, error) {
	file, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("ports: cannot open catalog CSV %s: %w", c.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = c.delimiter()
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ports: cannot parse catalog CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	headers := rows[0]
	startRow := 0
	if c.columns.HasHeader {
		startRow = 1
	} else {
		headers = make([]string, len(rows[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("col_%d", i)
		}
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}

	field := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make([]NameRecord, 0, len(rows)-startRow)
	for _, row := range rows[startRow:] {
		rec := NameRecord{
			ID:            field(row, c.columns.IDColumn),
			Name:          field(row, c.columns.NameColumn),
			Description:   field(row, c.columns.DescriptionColumn),
			Pronunciation: field(row, c.columns.PronunciationColumn),
		}
		if v := field(row, c.columns.HiddenColumn); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				rec.IsHidden = b
			}
		}
		if v := field(row, c.columns.RatingColumn); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				rec.BaselineRating = &f
			}
		}
		if v := field(row, c.columns.ConflictColumn); v != "" {
			rec.ConflictTags = strings.Split(v, ";")
		}

		mapped := c.columns.mappedColumns()
		for col, i := range index {
			if mapped[col] || i >= len(row) {
				continue
			}
			if rec.Metadata == nil {
				rec.Metadata = make(map[string]string)
			}
			rec.Metadata[col] = row[i]
		}

		if rec.ID != "" {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Fetch implements CatalogSource.Fetch. user is accepted for interface
// symmetry; this single-tenant adapter ignores per-user scoping.
func (c *CSVCatalogSource) Fetch(user string, mode CatalogMode) ([]NameRecord, []string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all, err := c.readAll()
	if err != nil {
		return nil, nil, err
	}

	var hiddenIDs []string
	for _, r := range all {
		if r.IsHidden {
			hiddenIDs = append(hiddenIDs, r.ID)
		}
	}

	if mode == Profile {
		return all, hiddenIDs, nil
	}

	visible := make([]NameRecord, 0, len(all))
	for _, r := range all {
		if !r.IsHidden {
			visible = append(visible, r)
		}
	}
	return visible, hiddenIDs, nil
}

// ToggleVisibility flips is_hidden for id and atomically rewrites the CSV.
func (c *CSVCatalogSource) ToggleVisibility(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.readAll()
	if err != nil {
		return err
	}
	found := false
	for i := range all {
		if all[i].ID == id {
			all[i].IsHidden = !all[i].IsHidden
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("ports: catalog id %q not found", id)
	}
	return c.writeAll(all)
}

// Delete removes id from the catalog and atomically rewrites the CSV.
func (c *CSVCatalogSource) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.readAll()
	if err != nil {
		return err
	}
	kept := all[:0]
	for _, r := range all {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	return c.writeAll(kept)
}

// extraMetadataColumns collects the union of Metadata keys across records,
// sorted by name, so round-tripped columns keep a stable position.
func extraMetadataColumns(records []NameRecord) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, r := range records {
		for k := range r.Metadata {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// writeAll atomically replaces the backing CSV with records, via temp file
// plus rename, matching the teacher's atomic-write convention.
func (c *CSVCatalogSource) writeAll(records []NameRecord) error {
	tempPath := c.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("%w: cannot create temp catalog file: %v", ErrAtomicWrite, err)
	}

	writer := csv.NewWriter(file)
	writer.Comma = c.delimiter()

	// Metadata columns are whatever unmapped headers were preserved on
	// read; any record missing a given key just writes an empty cell.
	extra := extraMetadataColumns(records)

	header := []string{
		c.columns.IDColumn, c.columns.NameColumn, c.columns.DescriptionColumn,
		c.columns.PronunciationColumn, c.columns.HiddenColumn, c.columns.RatingColumn,
		c.columns.ConflictColumn,
	}
	header = append(header, extra...)
	if c.columns.HasHeader {
		if err := writer.Write(header); err != nil {
			file.Close()
			os.Remove(tempPath)
			return fmt.Errorf("ports: cannot write catalog header: %w", err)
		}
	}

	for _, r := range records {
		rating := ""
		if r.BaselineRating != nil {
			rating = strconv.FormatFloat(*r.BaselineRating, 'f', -1, 64)
		}
		row := []string{
			r.ID, r.Name, r.Description, r.Pronunciation, strconv.FormatBool(r.IsHidden), rating,
			strings.Join(r.ConflictTags, ";"),
		}
		for _, col := range extra {
			row = append(row, r.Metadata[col])
		}
		if err := writer.Write(row); err != nil {
			file.Close()
			os.Remove(tempPath)
			return fmt.Errorf("ports: cannot write catalog row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("ports: catalog flush failed: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("%w: sync failed: %v", ErrAtomicWrite, err)
	}
	file.Close()

	if err := os.Rename(tempPath, c.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: rename failed: %v", ErrAtomicWrite, err)
	}
	return nil
}
