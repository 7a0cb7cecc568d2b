// Package journal provides an append-only, hash-chained audit trail for
// tournament session lifecycle and vote events — a tamper-evident record
// of how a ranking was produced. Grounded on the teacher's
// pkg/journal/audit.go; the hash-chain and query mechanics are unchanged,
// the event vocabulary and payload shapes are the tournament engine's own.
package journal

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Errors returned by audit trail operations.
var (
	ErrAuditLogCorrupted = errors.New("journal: audit log corrupted or tampered")
	ErrNotInitialized    = errors.New("journal: audit trail not initialized")
)

// EventType classifies one audit entry, per SPEC_FULL §4.10.
type EventType string

const (
	EventSessionCreated     EventType = "session_created"
	EventSessionRestored    EventType = "session_restored"
	EventVoteAccepted       EventType = "vote_accepted"
	EventUndo               EventType = "undo"
	EventCompleted          EventType = "completed"
	EventSelectionCommitted EventType = "selection_committed"
)

// Entry is one append-only, hash-chained audit record.
type Entry struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	SessionKey   string         `json:"session_key"`
	EventType    EventType      `json:"event_type"`
	Data         map[string]any `json:"data"`
	PreviousHash string         `json:"previous_hash"`
	EntryHash    string         `json:"entry_hash"`
	Sequence     uint64         `json:"sequence"`
}

// AuditTrail manages the append-only audit log for one session key
// (spec.md §6's "tournament-{user}-{ids}" key). Best-effort per §7
// PersistenceUnavailable: a write failure is returned to the caller, who is
// expected (per SPEC_FULL §4.10) to log it via the Notifier port and never
// treat it as fatal.
type AuditTrail struct {
	sessionKey  string
	logFilePath string
	file        *os.File
	mu          sync.Mutex
	lastHash    string
	sequence    uint64
	initialized bool
}

// NewAuditTrail creates or reopens the audit trail for sessionKey under
// logDirectory, validating the existing hash chain on reopen.
func NewAuditTrail(sessionKey, logDirectory string) (*AuditTrail, error) {
	if sessionKey == "" {
		return nil, errors.New("journal: session key cannot be empty")
	}
	if err := os.MkdirAll(logDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("journal: cannot create log directory: %w", err)
	}

	logFileName := fmt.Sprintf("audit_%s.jsonl", sanitizeKey(sessionKey))
	at := &AuditTrail{
		sessionKey:  sessionKey,
		logFilePath: filepath.Join(logDirectory, logFileName),
	}
	if err := at.initialize(); err != nil {
		return nil, fmt.Errorf("journal: failed to initialize audit trail: %w", err)
	}
	return at, nil
}

func sanitizeKey(key string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(key)
}

func (a *AuditTrail) initialize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := os.Stat(a.logFilePath); os.IsNotExist(err) {
		file, err := os.OpenFile(a.logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("cannot create audit log file: %w", err)
		}
		a.file = file
	} else {
		file, err := os.OpenFile(a.logFilePath, os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open audit log file: %w", err)
		}
		a.file = file
		if err := a.validateAndLoadState(); err != nil {
			a.file.Close()
			return err
		}
	}

	a.initialized = true
	return nil
}

func (a *AuditTrail) validateAndLoadState() error {
	readFile, err := os.Open(a.logFilePath)
	if err != nil {
		return err
	}
	defer readFile.Close()

	var previousHash string
	var sequence uint64

	scanner := bufio.NewScanner(readFile)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return fmt.Errorf("%w: invalid JSON at sequence %d: %v", ErrAuditLogCorrupted, sequence, err)
		}
		if entry.Sequence != sequence {
			return fmt.Errorf("%w: sequence mismatch at %d: got %d", ErrAuditLogCorrupted, sequence, entry.Sequence)
		}
		if entry.PreviousHash != previousHash {
			return fmt.Errorf("%w: hash chain broken at sequence %d", ErrAuditLogCorrupted, sequence)
		}
		if expected := a.calculateEntryHash(&entry); entry.EntryHash != expected {
			return fmt.Errorf("%w: entry hash mismatch at sequence %d", ErrAuditLogCorrupted, sequence)
		}
		previousHash = entry.EntryHash
		sequence++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading audit log: %w", err)
	}

	a.lastHash = previousHash
	a.sequence = sequence
	return nil
}

// Record appends one hash-linked event to the log.
func (a *AuditTrail) Record(eventType EventType, data map[string]any) error {
	if !a.initialized {
		return ErrNotInitialized
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := Entry{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		SessionKey:   a.sessionKey,
		EventType:    eventType,
		Data:         data,
		PreviousHash: a.lastHash,
		Sequence:     a.sequence,
	}
	entry.EntryHash = a.calculateEntryHash(&entry)

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("journal: failed to marshal audit entry: %w", err)
	}
	if _, err := a.file.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("journal: failed to write audit entry: %w", err)
	}
	if err := a.file.Sync(); err != nil {
		return fmt.Errorf("journal: failed to sync audit log: %w", err)
	}

	a.lastHash = entry.EntryHash
	a.sequence++
	return nil
}

func (a *AuditTrail) calculateEntryHash(entry *Entry) string {
	content := fmt.Sprintf("%s|%s|%s|%s|%s|%d|%s",
		entry.ID,
		entry.Timestamp.Format(time.RFC3339Nano),
		entry.SessionKey,
		entry.EventType,
		entry.PreviousHash,
		entry.Sequence,
		a.hashData(entry.Data))
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (a *AuditTrail) hashData(data map[string]any) string {
	raw, _ := json.Marshal(data)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Close releases the underlying log file.
func (a *AuditTrail) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	a.initialized = false
	return err
}

// LogPath returns the path to the audit log file.
func (a *AuditTrail) LogPath() string { return a.logFilePath }

// Sequence returns the current sequence number.
func (a *AuditTrail) Sequence() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sequence
}

// Verify walks the log recomputing the hash chain and returns the first
// broken link, if any, per SPEC_FULL §4.10 "the audit trail's own
// self-check". It does not affect I1-I6 and is purely an operational tool.
func (a *AuditTrail) Verify() error {
	readFile, err := os.Open(a.logFilePath)
	if err != nil {
		return fmt.Errorf("journal: cannot open audit log for verification: %w", err)
	}
	defer readFile.Close()

	var previousHash string
	var sequence uint64

	scanner := bufio.NewScanner(readFile)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return fmt.Errorf("%w: invalid JSON at sequence %d: %v", ErrAuditLogCorrupted, sequence, err)
		}
		if entry.Sequence != sequence {
			return fmt.Errorf("%w: sequence mismatch at entry %d", ErrAuditLogCorrupted, sequence)
		}
		if entry.PreviousHash != previousHash {
			return fmt.Errorf("%w: hash chain broken at sequence %d", ErrAuditLogCorrupted, sequence)
		}
		if expected := a.calculateEntryHash(&entry); entry.EntryHash != expected {
			return fmt.Errorf("%w: entry hash mismatch at sequence %d", ErrAuditLogCorrupted, sequence)
		}
		previousHash = entry.EntryHash
		sequence++
	}
	return scanner.Err()
}

// QueryOptions filters ReadAll's result.
type QueryOptions struct {
	EventTypes []EventType
	Limit      int
	Offset     int
}

// ReadAll reads every entry from the log matching options.
func (a *AuditTrail) ReadAll(options QueryOptions) ([]Entry, error) {
	readFile, err := os.Open(a.logFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("journal: cannot open audit log for reading: %w", err)
	}
	defer readFile.Close()

	wanted := make(map[EventType]bool, len(options.EventTypes))
	for _, t := range options.EventTypes {
		wanted[t] = true
	}

	var all []Entry
	scanner := bufio.NewScanner(readFile)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if len(wanted) > 0 && !wanted[entry.EventType] {
			continue
		}
		all = append(all, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("journal: error reading audit log: %w", err)
	}

	start := options.Offset
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if options.Limit > 0 && start+options.Limit < end {
		end = start + options.Limit
	}
	return all[start:end], nil
}

// Statistics summarizes the audit log.
type Statistics struct {
	SessionKey   string
	TotalEntries int
	EventCounts  map[EventType]int
	FirstEntry   *time.Time
	LastEntry    *time.Time
}

// Statistics computes summary information about the audit log.
func (a *AuditTrail) Statistics() (*Statistics, error) {
	entries, err := a.ReadAll(QueryOptions{})
	if err != nil {
		return nil, err
	}
	stats := &Statistics{
		SessionKey:   a.sessionKey,
		TotalEntries: len(entries),
		EventCounts:  make(map[EventType]int),
	}
	if len(entries) > 0 {
		stats.FirstEntry = &entries[0].Timestamp
		stats.LastEntry = &entries[len(entries)-1].Timestamp
	}
	for _, e := range entries {
		stats.EventCounts[e.EventType]++
	}
	return stats, nil
}
