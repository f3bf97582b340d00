package fixes

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/huangsam/gitfixes/schema"
)

// MinAbbrevLength is the shortest stored id prefix the index will match.
const MinAbbrevLength = 4

// Index is the sorted known-commit registry. It is read-only once built.
type Index struct {
	entries []schema.KnownEntry
}

// NewIndex builds an index from entries. Ids are lowercased, rows whose id is
// not hex are dropped, and the result is sorted once.
func NewIndex(entries []schema.KnownEntry) *Index {
	kept := make([]schema.KnownEntry, 0, len(entries))
	for _, e := range entries {
		e.CommitID = strings.ToLower(strings.TrimSpace(e.CommitID))
		if !IsHex(e.CommitID) {
			continue
		}
		kept = append(kept, e)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].CommitID < kept[j].CommitID
	})
	return &Index{entries: kept}
}

// ParseKnownEntries reads `id[,owner[,path]]` records.
// Blank lines are skipped and every field is trimmed.
func ParseKnownEntries(r io.Reader) ([]schema.KnownEntry, error) {
	var entries []schema.KnownEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, ",", 3)
		entry := schema.KnownEntry{CommitID: strings.TrimSpace(fields[0])}
		if len(fields) > 1 {
			entry.Owner = strings.TrimSpace(fields[1])
		}
		if len(fields) > 2 {
			entry.SourcePath = strings.TrimSpace(fields[2])
		}
		if entry.CommitID == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// LoadIndex reads a known-commit database and builds its index.
func LoadIndex(r io.Reader) (*Index, error) {
	entries, err := ParseKnownEntries(r)
	if err != nil {
		return nil, err
	}
	return NewIndex(entries), nil
}

// LoadIndexFile reads the known-commit database at path.
// A missing database is an error because there is nothing to match against.
func LoadIndexFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open known-commit database: %w", err)
	}
	defer func() { _ = f.Close() }()
	ix, err := LoadIndex(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read known-commit database %s: %w", path, err)
	}
	return ix, nil
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// IDs returns the indexed ids in sorted order.
func (ix *Index) IDs() []string {
	ids := make([]string, len(ix.entries))
	for i, e := range ix.entries {
		ids[i] = e.CommitID
	}
	return ids
}

// Entries returns a copy of the indexed entries in sorted order.
func (ix *Index) Entries() []schema.KnownEntry {
	return append([]schema.KnownEntry(nil), ix.entries...)
}

// Lookup finds the entry for id. A stored id matches when it equals the
// lowercased query or one of its prefixes; the longest stored prefix wins.
func (ix *Index) Lookup(id string) (schema.KnownEntry, bool) {
	id = strings.ToLower(id)
	for n := len(id); n >= MinAbbrevLength; n-- {
		if e, ok := ix.exact(id[:n]); ok {
			return e, true
		}
	}
	return schema.KnownEntry{}, false
}

// exact performs a lower-bound search for an exact id.
func (ix *Index) exact(id string) (schema.KnownEntry, bool) {
	i := sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].CommitID >= id
	})
	if i < len(ix.entries) && ix.entries[i].CommitID == id {
		return ix.entries[i], true
	}
	return schema.KnownEntry{}, false
}
