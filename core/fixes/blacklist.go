package fixes

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/schema"
)

// Blacklist is a sorted set of lowercase commit ids excluded from matching.
type Blacklist struct {
	ids []string
}

// NewBlacklist builds a sorted, de-duplicated set from ids.
func NewBlacklist(ids ...string) *Blacklist {
	b := &Blacklist{}
	b.Add(ids...)
	return b
}

// Add inserts ids and restores the sort order. It is meant for loading only.
func (b *Blacklist) Add(ids ...string) {
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id != "" {
			b.ids = append(b.ids, id)
		}
	}
	sort.Strings(b.ids)
	b.ids = slices.Compact(b.ids)
}

// Contains reports whether the lowercased id, or an abbreviation of it, is in the set.
func (b *Blacklist) Contains(id string) bool {
	id = strings.ToLower(id)
	for n := len(id); n >= MinAbbrevLength; n-- {
		i := sort.SearchStrings(b.ids, id[:n])
		if i < len(b.ids) && b.ids[i] == id[:n] {
			return true
		}
	}
	return false
}

// Len returns the number of ids in the set.
func (b *Blacklist) Len() int {
	return len(b.ids)
}

// PathBlacklist is a list of path prefixes whose changes are ignored.
type PathBlacklist []string

// Covers reports whether path lies under one of the prefixes.
func (p PathBlacklist) Covers(path string) bool {
	for _, prefix := range p {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// CoversChange reports whether every side of a change lies under a prefix.
// Empty sides (added or deleted files) do not count.
func (p PathBlacklist) CoversChange(change schema.FileChange) bool {
	if change.OldPath == "" && change.NewPath == "" {
		return false
	}
	if change.OldPath != "" && !p.Covers(change.OldPath) {
		return false
	}
	if change.NewPath != "" && !p.Covers(change.NewPath) {
		return false
	}
	return true
}

// readListLines returns the trimmed, non-empty lines of r with "#" comments removed.
func readListLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// ParseBlacklist reads one commit id per line.
func ParseBlacklist(r io.Reader) ([]string, error) {
	return readListLines(r)
}

// ParsePathBlacklist reads one path prefix per line.
func ParsePathBlacklist(r io.Reader) (PathBlacklist, error) {
	lines, err := readListLines(r)
	return PathBlacklist(lines), err
}

// readListFile opens path and parses it with readListLines.
func readListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return readListLines(f)
}

// LoadBlacklistFiles reads every blacklist file. A file that cannot be read
// is reported and contributes nothing.
func LoadBlacklistFiles(paths []string) []string {
	var ids []string
	for _, path := range paths {
		lines, err := readListFile(path)
		if err != nil {
			contract.LogWarn(fmt.Sprintf("Cannot read blacklist %s", path), err)
			continue
		}
		ids = append(ids, lines...)
	}
	return ids
}

// LoadPathBlacklistFiles reads every path-blacklist file. A file that cannot
// be read is reported and contributes nothing.
func LoadPathBlacklistFiles(paths []string) PathBlacklist {
	var prefixes PathBlacklist
	for _, path := range paths {
		lines, err := readListFile(path)
		if err != nil {
			contract.LogWarn(fmt.Sprintf("Cannot read path blacklist %s", path), err)
			continue
		}
		prefixes = append(prefixes, lines...)
	}
	return prefixes
}
