// Package ledger tracks which concepts the reader has already had explained,
// so later requests can tell the model what to skip.
package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

// Record is one concept's running history. Dates are day resolution.
type Record struct {
	Count     int    `json:"count"`
	FirstSeen string `json:"firstSeen"`
	LastSeen  string `json:"lastSeen"`
}

// Ledger is a name-keyed concept store backed by a JSON file.
// All operations are safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	path    string
	records map[string]Record
	now     func() time.Time
}

// Open loads the ledger at path, starting empty when the file is missing
// or unreadable. A corrupt file is treated as empty rather than an error.
func Open(path string) *Ledger {
	l := &Ledger{path: path, records: map[string]Record{}, now: time.Now}

	data, err := os.ReadFile(path)
	if err != nil {
		return l
	}
	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil || records == nil {
		return l
	}
	l.records = records
	return l
}

// RecordAppearance counts one finalized result's concepts. Empty and
// whitespace-only names are skipped; an empty list is a no-op.
func (l *Ledger) RecordAppearance(concepts []string) {
	if len(concepts) == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.now().Format(dateLayout)
	changed := false
	for _, name := range concepts {
		key := strings.TrimSpace(name)
		if key == "" {
			continue
		}
		if rec, ok := l.records[key]; ok {
			rec.Count++
			rec.LastSeen = today
			l.records[key] = rec
		} else {
			l.records[key] = Record{Count: 1, FirstSeen: today, LastSeen: today}
		}
		changed = true
	}
	if changed {
		l.persistLocked()
	}
}

// KnownConceptNames returns all tracked concept names in unspecified order.
func (l *Ledger) KnownConceptNames() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.records))
	for name := range l.records {
		names = append(names, name)
	}
	return names
}

// Lookup returns the record for name, or false when never seen.
func (l *Ledger) Lookup(name string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[strings.TrimSpace(name)]
	return rec, ok
}

// Len reports how many distinct concepts are tracked.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Reset drops every record and removes the backing file.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = map[string]Record{}
	if l.path != "" {
		_ = os.Remove(l.path)
	}
}

// persistLocked writes the ledger out. Failures are swallowed: losing the
// ledger only costs some redundant explanations.
func (l *Ledger) persistLocked() {
	if l.path == "" {
		return
	}
	data, err := json.MarshalIndent(l.records, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(l.path), 0o755)
	_ = os.WriteFile(l.path, data, 0o644)
}
