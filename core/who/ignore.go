package who

import (
	"bufio"
	"os"
	"strings"

	"github.com/huangsam/gitfixes/schema"
)

// IgnoreSet holds names to leave out of a lookup result.
type IgnoreSet map[string]struct{}

// LoadIgnore builds the ignore set. A value naming a readable file adds the
// file's lines with '#' comments stripped; any other value is taken as a name.
func LoadIgnore(values []string) IgnoreSet {
	set := make(IgnoreSet)
	for _, v := range values {
		if readIgnoreFile(v, set) {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func readIgnoreFile(path string, set IgnoreSet) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()
	if info, err := f.Stat(); err != nil || info.IsDir() {
		return false
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line, _, _ := strings.Cut(scanner.Text(), "#")
		if line = strings.TrimSpace(line); line != "" {
			set[line] = struct{}{}
		}
	}
	return true
}

// Apply drops ignored people unless that would leave nobody.
func (s IgnoreSet) Apply(people []schema.Person) []schema.Person {
	if len(s) == 0 {
		return people
	}
	kept := make([]schema.Person, 0, len(people))
	for _, p := range people {
		if _, ok := s[p.Name]; !ok {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return people
	}
	return kept
}
